package dynamic

import (
	"fmt"

	"github.com/solatis/datastreamer/internal/types"
)

/*
 * Data instances.
 *
 * A Data holds one value per slot: structure members by declaration position,
 * array and sequence elements by index. Scalar slots hold the Go value for the
 * kind (see convert.go); container slots hold a child *Data owned by this
 * instance.
 *
 * Loan accounting mirrors middleware reflection layers that cap outstanding
 * borrows per instance: a child may be borrowed once until it is released.
 * Released children remain valid for addressing because the parent keeps
 * ownership.
 */

// Data is a mutable instance of a Type.
type Data struct {
	typ   *Type
	slots []any
	loans map[types.MemberID]*Data
}

// NewData returns a default-initialized instance: zero scalars, first enum
// literal, empty sequences and fully allocated arrays and structures.
func NewData(t *Type) *Data {
	d := &Data{typ: t, loans: make(map[types.MemberID]*Data)}
	switch t.kind {
	case types.KindStructure:
		d.slots = make([]any, len(t.fields))
		for i, f := range t.fields {
			d.slots[i] = zeroValue(f.typ)
		}
	case types.KindArray:
		d.slots = make([]any, t.TotalBound())
		for i := range d.slots {
			d.slots[i] = zeroValue(t.elem)
		}
	case types.KindSequence:
		d.slots = []any{}
	}
	return d
}

// zeroValue returns the default slot content for t. Unsupported kinds have
// no representation and stay nil.
func zeroValue(t *Type) any {
	switch t.kind {
	case types.KindStructure, types.KindArray, types.KindSequence:
		return NewData(t)
	case types.KindBoolean:
		return false
	case types.KindByte, types.KindChar8:
		return uint8(0)
	case types.KindInt16:
		return int16(0)
	case types.KindInt32:
		return int32(0)
	case types.KindInt64:
		return int64(0)
	case types.KindUint16, types.KindChar16:
		return uint16(0)
	case types.KindUint32:
		return uint32(0)
	case types.KindUint64:
		return uint64(0)
	case types.KindFloat32:
		return float32(0)
	case types.KindFloat64, types.KindFloat128:
		return float64(0)
	case types.KindString8:
		return ""
	case types.KindString16:
		return []uint16{}
	case types.KindEnum:
		return uint32(0)
	default:
		return nil
	}
}

func (d *Data) Type() types.TypeDescriptor { return d.typ }

// DynamicType returns the concrete descriptor of d.
func (d *Data) DynamicType() *Type { return d.typ }

func (d *Data) ItemCount() uint32 { return uint32(len(d.slots)) }

// Resize sets the length of a sequence. New elements are default-initialized;
// elements beyond n are dropped. Fails for non-sequences, for lengths above
// the sequence bound, and while any element is on loan.
func (d *Data) Resize(n uint32) error {
	if d.typ.kind != types.KindSequence {
		return fmt.Errorf("%w: resize on %s", types.ErrTypeMismatch, d.typ.kind)
	}
	if b := d.typ.SequenceBound(); b > 0 && n > b {
		return fmt.Errorf("%w: sequence %s bounded to %d, got %d", types.ErrTypeMismatch, d.typ.name, b, n)
	}
	if len(d.loans) > 0 {
		return fmt.Errorf("%w: resize with %d elements on loan", types.ErrLoanConflict, len(d.loans))
	}
	cur := uint32(len(d.slots))
	if n <= cur {
		d.slots = d.slots[:n]
		return nil
	}
	for i := cur; i < n; i++ {
		d.slots = append(d.slots, zeroValue(d.typ.elem))
	}
	return nil
}

// locate returns the declared type and slot position addressed by id.
func (d *Data) locate(id types.MemberID) (*Type, int, error) {
	switch d.typ.kind {
	case types.KindStructure:
		t, pos, ok := d.typ.member(id)
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s has no member %d", types.ErrResolution, d.typ.name, id)
		}
		return t, pos, nil
	case types.KindArray, types.KindSequence:
		if uint64(id) >= uint64(len(d.slots)) {
			return nil, 0, fmt.Errorf("%w: index %d of %s holding %d elements", types.ErrElementAbsent, id, d.typ.name, len(d.slots))
		}
		return d.typ.elem, int(id), nil
	default:
		return nil, 0, fmt.Errorf("%w: %s value has no members", types.ErrResolution, d.typ.kind)
	}
}

// Borrow lends the complex child at id. The child must be released before it
// can be borrowed again.
func (d *Data) Borrow(id types.MemberID) (types.DataInstance, error) {
	child, err := d.child(id)
	if err != nil {
		return nil, err
	}
	if _, onLoan := d.loans[id]; onLoan {
		return nil, fmt.Errorf("%w: member %d of %s already borrowed", types.ErrLoanConflict, id, d.typ.name)
	}
	d.loans[id] = child
	return child, nil
}

// Release returns a child obtained from Borrow.
func (d *Data) Release(c types.DataInstance) error {
	for id, loaned := range d.loans {
		if types.DataInstance(loaned) == c {
			delete(d.loans, id)
			return nil
		}
	}
	return fmt.Errorf("%w: release of a value not borrowed from %s", types.ErrLoanConflict, d.typ.name)
}

// Child returns the complex child at id without loan accounting. Intended
// for populating instances before they are handed to readers.
func (d *Data) Child(id types.MemberID) (*Data, error) {
	return d.child(id)
}

func (d *Data) child(id types.MemberID) (*Data, error) {
	t, pos, err := d.locate(id)
	if err != nil {
		return nil, err
	}
	child, ok := d.slots[pos].(*Data)
	if !ok {
		if t.kind.Class() == types.ClassUnsupported {
			return nil, fmt.Errorf("%w: member %d of %s is %s", types.ErrUnsupportedKind, id, d.typ.name, t.kind)
		}
		return nil, fmt.Errorf("%w: member %d of %s is %s, not a complex value", types.ErrTypeMismatch, id, d.typ.name, t.kind)
	}
	return child, nil
}

// OutstandingLoans counts borrowed children not yet released, recursively.
func (d *Data) OutstandingLoans() int {
	n := len(d.loans)
	for _, s := range d.slots {
		if c, ok := s.(*Data); ok {
			n += c.OutstandingLoans()
		}
	}
	return n
}

// Set stores a scalar value at id, converting from common Go types.
// Enums accept the literal name or the enumerator index.
func (d *Data) Set(id types.MemberID, v any) error {
	t, pos, err := d.locate(id)
	if err != nil {
		return err
	}
	c := t.kind.Class()
	if c != types.ClassNumeric && c != types.ClassStringLike {
		return fmt.Errorf("%w: member %d of %s is %s, not a scalar", types.ErrTypeMismatch, id, d.typ.name, t.kind)
	}
	val, err := convert(t, v)
	if err != nil {
		return fmt.Errorf("member %d of %s: %w", id, d.typ.name, err)
	}
	d.slots[pos] = val
	return nil
}

// scalar reads the slot at id after checking its declared kind.
func scalar[T any](d *Data, id types.MemberID, want types.Kind) (T, error) {
	var zero T
	t, pos, err := d.locate(id)
	if err != nil {
		return zero, err
	}
	if t.kind != want {
		return zero, fmt.Errorf("%w: member %d of %s is %s, not %s", types.ErrTypeMismatch, id, d.typ.name, t.kind, want)
	}
	v, ok := d.slots[pos].(T)
	if !ok {
		return zero, fmt.Errorf("%w: member %d of %s holds %T", types.ErrTypeMismatch, id, d.typ.name, d.slots[pos])
	}
	return v, nil
}

func (d *Data) Bool(id types.MemberID) (bool, error) {
	return scalar[bool](d, id, types.KindBoolean)
}

func (d *Data) Byte(id types.MemberID) (uint8, error) {
	return scalar[uint8](d, id, types.KindByte)
}

func (d *Data) Int16(id types.MemberID) (int16, error) {
	return scalar[int16](d, id, types.KindInt16)
}

func (d *Data) Int32(id types.MemberID) (int32, error) {
	return scalar[int32](d, id, types.KindInt32)
}

func (d *Data) Int64(id types.MemberID) (int64, error) {
	return scalar[int64](d, id, types.KindInt64)
}

func (d *Data) Uint16(id types.MemberID) (uint16, error) {
	return scalar[uint16](d, id, types.KindUint16)
}

func (d *Data) Uint32(id types.MemberID) (uint32, error) {
	return scalar[uint32](d, id, types.KindUint32)
}

func (d *Data) Uint64(id types.MemberID) (uint64, error) {
	return scalar[uint64](d, id, types.KindUint64)
}

func (d *Data) Float32(id types.MemberID) (float32, error) {
	return scalar[float32](d, id, types.KindFloat32)
}

func (d *Data) Float64(id types.MemberID) (float64, error) {
	return scalar[float64](d, id, types.KindFloat64)
}

func (d *Data) Float128(id types.MemberID) (float64, error) {
	return scalar[float64](d, id, types.KindFloat128)
}

func (d *Data) Char8(id types.MemberID) (byte, error) {
	return scalar[uint8](d, id, types.KindChar8)
}

func (d *Data) Char16(id types.MemberID) (uint16, error) {
	return scalar[uint16](d, id, types.KindChar16)
}

func (d *Data) String8(id types.MemberID) (string, error) {
	return scalar[string](d, id, types.KindString8)
}

func (d *Data) String16(id types.MemberID) ([]uint16, error) {
	s, err := scalar[[]uint16](d, id, types.KindString16)
	if err != nil {
		return nil, err
	}
	return append([]uint16(nil), s...), nil
}

func (d *Data) Enum(id types.MemberID) (string, error) {
	t, _, err := d.locate(id)
	if err != nil {
		return "", err
	}
	idx, err := scalar[uint32](d, id, types.KindEnum)
	if err != nil {
		return "", err
	}
	if int(idx) >= len(t.literals) {
		return "", fmt.Errorf("%w: enumerator %d out of range for %s", types.ErrTypeMismatch, idx, t.name)
	}
	return t.literals[idx], nil
}
