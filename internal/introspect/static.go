package introspect

import (
	"fmt"

	"github.com/solatis/datastreamer/internal/types"
)

// IsStatic reports whether every instance of t has the same leaf layout,
// i.e. t contains no sequence or map at any depth. Callers use it to decide
// between a cached index and re-flattening per sample.
func IsStatic(t types.TypeDescriptor) (bool, error) {
	return isStatic(t, 0)
}

func isStatic(t types.TypeDescriptor, depth int) (bool, error) {
	if t == nil {
		return false, fmt.Errorf("%w: missing type", types.ErrResolution)
	}
	if depth > types.MaxPathDepth {
		return false, types.ErrPathTooDeep
	}

	switch k := t.Kind(); k {
	case types.KindSequence, types.KindMap:
		return false, nil

	case types.KindStructure:
		for _, m := range t.MembersByName() {
			static, err := isStatic(m.Type, depth+1)
			if err != nil {
				return false, fmt.Errorf("member %s: %w", m.Name, err)
			}
			if !static {
				return false, nil
			}
		}
		return true, nil

	case types.KindNone:
		return false, fmt.Errorf("%w: %s", types.ErrUnsupportedKind, k)

	case types.KindArray:
		// An array's count is fixed by the type, but its elements may
		// still hold sequences.
		return isStatic(t.ElementType(), depth+1)

	default:
		if int(k) >= types.KindCount {
			return false, fmt.Errorf("%w: %s", types.ErrUnsupportedKind, k)
		}
		// Scalars, enums and the fixed-shape unsupported kinds (bitset,
		// bitmask, union); flattening rejects the latter on its own.
		return true, nil
	}
}
