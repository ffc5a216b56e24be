// internal/introspect/flatten.go
package introspect

import (
	"fmt"
	"log/slog"

	"github.com/solatis/datastreamer/internal/types"
)

/*
 * Type flattening.
 *
 * Walks a root TypeDescriptor once and compiles every reachable scalar into a
 * types.Leaf: display name, member path and container-kind chain. Numeric and
 * string-like leaves go to separate lists whose order is the index order all
 * later extractions must match.
 *
 * Flattening workflow:
 *   1. Scalars append a leaf to the list selected by Kind.Class()
 *   2. Arrays take their element count from the type, sequences from the
 *      supplied data instance
 *   3. ContainerPolicy discards or truncates every container whose size is
 *      >= MaxSize, at every depth
 *   4. Structures recurse into members in name order so repeated flattenings
 *      are identical
 *   5. Bitset, union, map, bitmask and none abort the whole call
 *
 * Sub-instances are borrowed only for the recursive call that needs them and
 * released on every exit path (see loan.go). The accumulator belongs to a
 * single Flatten call, so concurrent calls share nothing.
 */

// Index is the flattened leaf layout of one root type under one policy.
// It is immutable once returned by Flatten.
type Index struct {
	Root      string
	Separator string
	Policy    types.ContainerPolicy
	Numeric   []types.Leaf
	Strings   []types.Leaf
}

// Len returns the total number of leaves.
func (ix *Index) Len() int { return len(ix.Numeric) + len(ix.Strings) }

// Equal reports whether two indexes describe the same leaf layout.
func (ix *Index) Equal(o *Index) bool {
	if ix == nil || o == nil {
		return ix == o
	}
	return leavesEqual(ix.Numeric, o.Numeric) && leavesEqual(ix.Strings, o.Strings)
}

func leavesEqual(a, b []types.Leaf) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Option configures Flatten and Engine.
type Option func(*options)

type options struct {
	separator string
	logger    *slog.Logger
}

// WithSeparator sets the string joining member names in display names.
func WithSeparator(sep string) Option {
	return func(o *options) { o.separator = sep }
}

// WithLogger routes discard/truncate decisions and unsupported kinds to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		separator: types.DefaultSeparator,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Flatten compiles the leaves reachable from t. data is required when t
// contains sequences, since their length is only known at runtime; it is
// never retained.
func Flatten(name string, t types.TypeDescriptor, policy types.ContainerPolicy, data types.DataInstance, opts ...Option) (*Index, error) {
	o := newOptions(opts)
	if t == nil {
		return nil, fmt.Errorf("%w: nil root type", types.ErrResolution)
	}
	switch t.Kind().Class() {
	case types.ClassContainer:
	case types.ClassUnsupported:
		return nil, fmt.Errorf("%w: root %s is %s", types.ErrUnsupportedKind, name, t.Kind())
	default:
		// Scalars are read by member id from their parent; a scalar root has none.
		return nil, fmt.Errorf("%w: root %s of kind %s has no member path", types.ErrResolution, name, t.Kind())
	}

	f := &flattener{
		policy:    policy,
		separator: o.separator,
		logger:    o.logger,
		idx: &Index{
			Root:      name,
			Separator: o.separator,
			Policy:    policy,
		},
	}
	if err := f.walk(name, t, data, nil, nil); err != nil {
		return nil, err
	}
	return f.idx, nil
}

type flattener struct {
	policy    types.ContainerPolicy
	separator string
	logger    *slog.Logger
	idx       *Index
}

// walk dispatches on the kind of t. path and kinds describe how t is reached
// from the root and are never mutated.
func (f *flattener) walk(name string, t types.TypeDescriptor, data types.DataInstance, path []types.MemberID, kinds []types.Kind) error {
	if len(path) > types.MaxPathDepth {
		return fmt.Errorf("%w: %s", types.ErrPathTooDeep, name)
	}

	kind := t.Kind()
	switch kind.Class() {
	case types.ClassNumeric:
		f.idx.Numeric = append(f.idx.Numeric, types.Leaf{Name: name, Path: path, Kinds: kinds, Kind: kind})
		return nil

	case types.ClassStringLike:
		f.idx.Strings = append(f.idx.Strings, types.Leaf{Name: name, Path: path, Kinds: kinds, Kind: kind})
		return nil

	case types.ClassContainer:
		switch kind {
		case types.KindStructure:
			return f.walkStructure(name, t, data, path, kinds)
		case types.KindArray, types.KindSequence:
			return f.walkElements(name, t, data, path, kinds)
		}
	}

	f.logger.Warn("unsupported kind", "name", name, "kind", kind.String())
	return fmt.Errorf("%w: %s at %s", types.ErrUnsupportedKind, kind, name)
}

func (f *flattener) walkStructure(name string, t types.TypeDescriptor, data types.DataInstance, path []types.MemberID, kinds []types.Kind) error {
	members := t.MembersByName()
	f.logger.Debug("flattening structure", "name", name, "members", len(members))

	for _, m := range members {
		if err := f.descend(name+f.separator+m.Name, m.Type, data, m.ID, path, kinds, types.KindStructure); err != nil {
			return err
		}
	}
	return nil
}

func (f *flattener) walkElements(name string, t types.TypeDescriptor, data types.DataInstance, path []types.MemberID, kinds []types.Kind) error {
	kind := t.Kind()

	var size uint32
	if kind == types.KindArray {
		size = t.TotalBound()
	} else {
		if data == nil {
			return fmt.Errorf("%w: %s", types.ErrMissingInstance, name)
		}
		size = data.ItemCount()
	}

	count, keep := f.policy.Apply(size)
	if !keep {
		f.logger.Debug("discarding container", "name", name, "kind", kind.String(), "size", size)
		return nil
	}
	if count < size {
		f.logger.Debug("truncating container", "name", name, "kind", kind.String(), "size", size, "max", count)
	}

	elem := t.ElementType()
	if elem == nil {
		return fmt.Errorf("%w: %s %s has no element type", types.ErrResolution, kind, name)
	}
	for i := uint32(0); i < count; i++ {
		if err := f.descend(fmt.Sprintf("%s[%d]", name, i), elem, data, types.MemberID(i), path, kinds, kind); err != nil {
			return err
		}
	}
	return nil
}

// descend recurses into the child id of a container of kind owner. The child
// sub-instance is borrowed only when the child is itself a container.
func (f *flattener) descend(name string, t types.TypeDescriptor, parent types.DataInstance, id types.MemberID, path []types.MemberID, kinds []types.Kind, owner types.Kind) error {
	// Full slice expressions force a copy so sibling leaves never share backing arrays.
	childPath := append(path[:len(path):len(path)], id)
	childKinds := append(kinds[:len(kinds):len(kinds)], owner)

	if parent == nil || !types.IsContainer(t.Kind()) {
		return f.walk(name, t, nil, childPath, childKinds)
	}
	return withLoan(parent, id, func(child types.DataInstance) error {
		return f.walk(name, t, child, childPath, childKinds)
	})
}
