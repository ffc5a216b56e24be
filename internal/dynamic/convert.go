// internal/dynamic/convert.go
package dynamic

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/solatis/datastreamer/internal/types"
)

/*
 * Scalar conversion for setters and decoding.
 *
 * Converts common Go values (including the float64/string/bool produced by
 * encoding/json and structpb) into the slot representation of a kind:
 *
 *   boolean          bool
 *   byte, char8      uint8 (char8 text is Latin-1)
 *   int16..int64     int16, int32, int64
 *   uint16..uint64   uint16, uint32, uint64
 *   char16           uint16 (UTF-16 code unit)
 *   float32          float32
 *   float64/128      float64
 *   string8          string
 *   string16         []uint16
 *   enum             uint32 enumerator index
 *
 * Strict mode: integers reject fractional and out-of-range numbers, booleans
 * reject numbers, chars reject strings longer than one character.
 */

var (
	_ types.TypeDescriptor = (*Type)(nil)
	_ types.DataInstance   = (*Data)(nil)
)

func convert(t *Type, v any) (any, error) {
	switch t.kind {
	case types.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, mismatch(t, v)
		}
		return b, nil
	case types.KindByte:
		n, err := unsigned(t, v, 8)
		return uint8(n), err
	case types.KindInt16:
		n, err := signed(t, v, 16)
		return int16(n), err
	case types.KindInt32:
		n, err := signed(t, v, 32)
		return int32(n), err
	case types.KindInt64:
		return signed(t, v, 64)
	case types.KindUint16:
		n, err := unsigned(t, v, 16)
		return uint16(n), err
	case types.KindUint32:
		n, err := unsigned(t, v, 32)
		return uint32(n), err
	case types.KindUint64:
		return unsigned(t, v, 64)
	case types.KindFloat32:
		f, err := float(t, v)
		return float32(f), err
	case types.KindFloat64, types.KindFloat128:
		return float(t, v)
	case types.KindChar8:
		if s, ok := v.(string); ok {
			if len(s) == 1 {
				return s[0], nil
			}
			r, size := utf8.DecodeRuneInString(s)
			if size != len(s) || r == utf8.RuneError || r > 0xFF {
				return nil, fmt.Errorf("%w: char8 needs exactly one Latin-1 character, got %q", types.ErrTypeMismatch, s)
			}
			return uint8(r), nil
		}
		n, err := unsigned(t, v, 8)
		return uint8(n), err
	case types.KindChar16:
		if s, ok := v.(string); ok {
			r, size := utf8.DecodeRuneInString(s)
			if size == 0 || size != len(s) || r > 0xFFFF {
				return nil, fmt.Errorf("%w: char16 needs exactly one BMP character, got %q", types.ErrTypeMismatch, s)
			}
			return uint16(r), nil
		}
		n, err := unsigned(t, v, 16)
		return uint16(n), err
	case types.KindString8:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch(t, v)
		}
		return s, nil
	case types.KindString16:
		switch s := v.(type) {
		case string:
			return utf16.Encode([]rune(s)), nil
		case []uint16:
			return append([]uint16(nil), s...), nil
		default:
			return nil, mismatch(t, v)
		}
	case types.KindEnum:
		if s, ok := v.(string); ok {
			for i, lit := range t.literals {
				if lit == s {
					return uint32(i), nil
				}
			}
			return nil, fmt.Errorf("%w: %q is not a literal of %s", types.ErrTypeMismatch, s, t.name)
		}
		n, err := unsigned(t, v, 32)
		if err != nil {
			return nil, err
		}
		if n >= uint64(len(t.literals)) {
			return nil, fmt.Errorf("%w: enumerator %d out of range for %s", types.ErrTypeMismatch, n, t.name)
		}
		return uint32(n), nil
	default:
		return nil, fmt.Errorf("%w: %s has no scalar representation", types.ErrUnsupportedKind, t.kind)
	}
}

func mismatch(t *Type, v any) error {
	return fmt.Errorf("%w: cannot store %T in %s", types.ErrTypeMismatch, v, t.kind)
}

// signed converts v to an integer that fits in bits.
func signed(t *Type, v any, bits int) (int64, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, outOfRange(t, v)
		}
		n = int64(x)
	case uint8:
		n = int64(x)
	case uint16:
		n = int64(x)
	case uint32:
		n = int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return 0, outOfRange(t, v)
		}
		n = int64(x)
	case float32:
		return signed(t, float64(x), bits)
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, outOfRange(t, v)
		}
		n = int64(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, outOfRange(t, v)
		}
		n = i
	default:
		return 0, mismatch(t, v)
	}
	lo := int64(-1) << (bits - 1)
	hi := int64(uint64(1)<<(bits-1) - 1)
	if n < lo || n > hi {
		return 0, outOfRange(t, v)
	}
	return n, nil
}

// unsigned converts v to a non-negative integer that fits in bits.
func unsigned(t *Type, v any, bits int) (uint64, error) {
	var n uint64
	switch x := v.(type) {
	case int, int8, int16, int32, int64:
		i, err := signed(t, x, 64)
		if err != nil {
			return 0, err
		}
		if i < 0 {
			return 0, outOfRange(t, v)
		}
		n = uint64(i)
	case uint:
		n = uint64(x)
	case uint8:
		n = uint64(x)
	case uint16:
		n = uint64(x)
	case uint32:
		n = uint64(x)
	case uint64:
		n = x
	case float32:
		return unsigned(t, float64(x), bits)
	case float64:
		if x != math.Trunc(x) || x < 0 || x >= math.MaxUint64 {
			return 0, outOfRange(t, v)
		}
		n = uint64(x)
	case json.Number:
		u, err := strconv.ParseUint(string(x), 10, 64)
		if err != nil {
			return 0, outOfRange(t, v)
		}
		n = u
	default:
		return 0, mismatch(t, v)
	}
	if bits < 64 && n > uint64(1)<<bits-1 {
		return 0, outOfRange(t, v)
	}
	return n, nil
}

func float(t *Type, v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, mismatch(t, v)
		}
		return f, nil
	case string:
		// structpb.Value.AsInterface spells non-finite numbers this way.
		switch x {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		return 0, mismatch(t, v)
	default:
		return 0, mismatch(t, v)
	}
}

func outOfRange(t *Type, v any) error {
	return fmt.Errorf("%w: %v out of range for %s", types.ErrTypeMismatch, v, t.kind)
}
