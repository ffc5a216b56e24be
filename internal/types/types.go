// Package types provides domain models shared across datastreamer components.
//
// Zero-dependency design: kinds, leaves, policies, capability interfaces and
// errors use only the standard library so introspection code can be embedded
// by hosts without pulling in storage or transport. ID utilities in ids.go
// import uuid but are isolated for that reason.
package types

import (
	"fmt"
	"strings"
)

// Kind enumerates the shapes a type descriptor can report.
// The set is closed; every kind belongs to exactly one Class.
type Kind uint8

const (
	KindNone Kind = iota
	KindBoolean
	KindByte
	KindInt16
	KindInt32
	KindInt64
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindFloat128
	KindChar8
	KindChar16
	KindString8
	KindString16
	KindEnum
	KindBitmask
	KindArray
	KindSequence
	KindStructure
	KindBitset
	KindUnion
	KindMap

	// KindCount is the number of kinds defined above.
	KindCount = int(iota)
)

var kindNames = [KindCount]string{
	KindNone:      "none",
	KindBoolean:   "boolean",
	KindByte:      "byte",
	KindInt16:     "int16",
	KindInt32:     "int32",
	KindInt64:     "int64",
	KindUint16:    "uint16",
	KindUint32:    "uint32",
	KindUint64:    "uint64",
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindFloat128:  "float128",
	KindChar8:     "char8",
	KindChar16:    "char16",
	KindString8:   "string8",
	KindString16:  "string16",
	KindEnum:      "enum",
	KindBitmask:   "bitmask",
	KindArray:     "array",
	KindSequence:  "sequence",
	KindStructure: "structure",
	KindBitset:    "bitset",
	KindUnion:     "union",
	KindMap:       "map",
}

func (k Kind) String() string {
	if int(k) < KindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind converts a kind name (case-insensitive) to its Kind.
// "string" and "wstring" are accepted as aliases of string8 and string16.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "string":
		return KindString8, nil
	case "wstring":
		return KindString16, nil
	case "struct":
		return KindStructure, nil
	}
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return KindNone, fmt.Errorf("%w: unknown kind %q", ErrUnsupportedKind, s)
}

// Class partitions kinds by how the flattener treats them.
type Class uint8

const (
	ClassUnsupported Class = iota
	ClassNumeric
	ClassStringLike
	ClassContainer
)

// Class is the single source of truth for kind classification. Flattening,
// extraction and the static-type predicate all derive from it.
func (k Kind) Class() Class {
	switch k {
	case KindBoolean, KindByte,
		KindInt16, KindInt32, KindInt64,
		KindUint16, KindUint32, KindUint64,
		KindFloat32, KindFloat64, KindFloat128:
		return ClassNumeric
	case KindChar8, KindChar16, KindString8, KindString16, KindEnum:
		return ClassStringLike
	case KindArray, KindSequence, KindStructure:
		return ClassContainer
	default:
		return ClassUnsupported
	}
}

// IsNumeric reports whether leaves of kind k are read as float64.
func IsNumeric(k Kind) bool { return k.Class() == ClassNumeric }

// IsStringLike reports whether leaves of kind k are read as text.
func IsStringLike(k Kind) bool { return k.Class() == ClassStringLike }

// IsContainer reports whether k owns addressable children.
func IsContainer(k Kind) bool { return k.Class() == ClassContainer }

// MemberID addresses a child inside its owning container: a member id for
// structures, an element index for arrays and sequences.
type MemberID uint32

// Resource limits enforced during introspection.
const (
	// MaxPathDepth prevents unbounded recursion on self-describing types.
	// 64 levels is far beyond any IDL type seen in practice.
	MaxPathDepth = 64

	// DefaultSeparator joins member names in leaf display names.
	DefaultSeparator = "."
)
