package types

// TypeDescriptor describes a type's shape independent of any data instance.
// It is implemented by the reflection layer (see internal/dynamic).
type TypeDescriptor interface {
	Kind() Kind
	Name() string

	// ElementType is the element type of an array or sequence; nil otherwise.
	ElementType() TypeDescriptor

	// TotalBound is the static element count of an array (product of all
	// dimensions); zero for other kinds.
	TotalBound() uint32

	// MembersByName returns structure members ordered by name; nil for
	// other kinds.
	MembersByName() []Member
}

// Member is one field of a structure type.
type Member struct {
	Name string
	ID   MemberID
	Type TypeDescriptor
}

// DataInstance is a runtime value conforming to a TypeDescriptor.
//
// Children obtained through Borrow stay owned by the parent; Release only
// tells the reflection layer the caller is done inspecting them. A child
// must not be borrowed twice without an intervening Release.
type DataInstance interface {
	Type() TypeDescriptor

	// ItemCount is the runtime element count of a sequence or array.
	ItemCount() uint32

	Borrow(id MemberID) (DataInstance, error)
	Release(child DataInstance) error

	Bool(id MemberID) (bool, error)
	Byte(id MemberID) (uint8, error)
	Int16(id MemberID) (int16, error)
	Int32(id MemberID) (int32, error)
	Int64(id MemberID) (int64, error)
	Uint16(id MemberID) (uint16, error)
	Uint32(id MemberID) (uint32, error)
	Uint64(id MemberID) (uint64, error)
	Float32(id MemberID) (float32, error)
	Float64(id MemberID) (float64, error)
	// Float128 is carried as float64; Go has no binary128 type.
	Float128(id MemberID) (float64, error)

	Char8(id MemberID) (byte, error)
	Char16(id MemberID) (uint16, error)
	String8(id MemberID) (string, error)
	// String16 returns UTF-16 code units.
	String16(id MemberID) ([]uint16, error)
	// Enum returns the symbolic name of the current enumerator.
	Enum(id MemberID) (string, error)
}
