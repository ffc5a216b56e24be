// internal/introspect/readers.go
package introspect

import (
	"fmt"
	"unicode/utf16"

	"github.com/solatis/datastreamer/internal/types"
)

/*
 * Typed leaf readers.
 *
 * Dispatch on the leaf kind recorded at flatten time to the matching scalar
 * getter of the parent instance.
 *
 *   - ReadNumeric: boolean, byte, int16..64, uint16..64, float32/64/128,
 *     widened to float64 (booleans read as 0/1)
 *   - ReadString: char8/char16 as one-character text, string8 as is,
 *     string16 decoded from UTF-16, enum as its symbolic literal
 *
 * A kind outside the reader's class means the index and the reader disagree
 * about classification; both fail with ErrInconsistency rather than default
 * to a zero value.
 */

// ReadNumeric reads member id of parent as float64.
func ReadNumeric(parent types.DataInstance, id types.MemberID, kind types.Kind) (float64, error) {
	switch kind {
	case types.KindBoolean:
		v, err := parent.Bool(id)
		if v {
			return 1, err
		}
		return 0, err
	case types.KindByte:
		v, err := parent.Byte(id)
		return float64(v), err
	case types.KindInt16:
		v, err := parent.Int16(id)
		return float64(v), err
	case types.KindInt32:
		v, err := parent.Int32(id)
		return float64(v), err
	case types.KindInt64:
		v, err := parent.Int64(id)
		return float64(v), err
	case types.KindUint16:
		v, err := parent.Uint16(id)
		return float64(v), err
	case types.KindUint32:
		v, err := parent.Uint32(id)
		return float64(v), err
	case types.KindUint64:
		v, err := parent.Uint64(id)
		return float64(v), err
	case types.KindFloat32:
		v, err := parent.Float32(id)
		return float64(v), err
	case types.KindFloat64:
		return parent.Float64(id)
	case types.KindFloat128:
		return parent.Float128(id)
	default:
		return 0, fmt.Errorf("%w: member %d of kind %s indexed as numeric", types.ErrInconsistency, id, kind)
	}
}

// ReadString reads member id of parent as text.
func ReadString(parent types.DataInstance, id types.MemberID, kind types.Kind) (string, error) {
	switch kind {
	case types.KindChar8:
		v, err := parent.Char8(id)
		if err != nil {
			return "", err
		}
		return string(rune(v)), nil // Latin-1
	case types.KindChar16:
		v, err := parent.Char16(id)
		if err != nil {
			return "", err
		}
		return string(utf16.Decode([]uint16{v})), nil
	case types.KindString8:
		return parent.String8(id)
	case types.KindString16:
		v, err := parent.String16(id)
		if err != nil {
			return "", err
		}
		return string(utf16.Decode(v)), nil
	case types.KindEnum:
		return parent.Enum(id)
	default:
		return "", fmt.Errorf("%w: member %d of kind %s indexed as string", types.ErrInconsistency, id, kind)
	}
}
