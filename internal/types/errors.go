package types

import "errors"

// Sentinel errors for datastreamer operations.
// Callers match with errors.Is; producers wrap them with context via %w.
var (
	// ErrUnsupportedKind indicates a bitset, union, map, bitmask or unknown kind.
	ErrUnsupportedKind = errors.New("unsupported type kind")

	// ErrInconsistency indicates the leaf index and its consumer disagree:
	// result length mismatch or a kind reaching the wrong typed reader.
	ErrInconsistency = errors.New("index inconsistency")

	// ErrResolution indicates a leaf path cannot be walked.
	ErrResolution = errors.New("path resolution failed")

	// ErrElementAbsent indicates a path addresses an element the current
	// instance does not hold (e.g. a sequence shrank since flattening).
	ErrElementAbsent = errors.New("element absent from data instance")

	// ErrMissingInstance indicates a sequence was flattened without a data
	// instance to read its runtime length from.
	ErrMissingInstance = errors.New("sequence requires a data instance")

	// ErrLoanConflict indicates a child was borrowed twice or released
	// without being borrowed.
	ErrLoanConflict = errors.New("loan conflict")

	// ErrTypeMismatch indicates a getter or setter was used against a member
	// of a different kind.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrPathTooDeep indicates a type nests deeper than MaxPathDepth.
	ErrPathTooDeep = errors.New("type exceeds maximum depth")

	// ErrNotFound indicates a schema or sample ID unknown to the catalog.
	ErrNotFound = errors.New("not found")
)
