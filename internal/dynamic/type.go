// Package dynamic provides an in-memory reflection layer: type descriptors
// built at runtime and data instances conforming to them.
//
// It implements types.TypeDescriptor and types.DataInstance for the CLI, the
// gRPC service and tests. Hosts embedding internal/introspect can substitute
// their own middleware-backed implementation.
package dynamic

import (
	"fmt"
	"sort"

	"github.com/solatis/datastreamer/internal/types"
)

// Type is an immutable type descriptor.
type Type struct {
	kind     types.Kind
	name     string
	elem     *Type
	bounds   []uint32 // array dimensions, or the single sequence bound (0 = unbounded)
	fields   []field  // declaration order
	byName   []types.Member
	byID     map[types.MemberID]int
	literals []string
}

type field struct {
	name string
	id   types.MemberID
	typ  *Type
}

// FieldSpec declares one structure member for Struct.
type FieldSpec struct {
	Name  string
	ID    types.MemberID
	Type  *Type
	hasID bool
}

// Field declares a member whose id is its declaration position.
func Field(name string, t *Type) FieldSpec {
	return FieldSpec{Name: name, Type: t}
}

// FieldID declares a member with an explicit id.
func FieldID(name string, id types.MemberID, t *Type) FieldSpec {
	return FieldSpec{Name: name, ID: id, Type: t, hasID: true}
}

// Primitive returns a type of the given non-container kind. Unsupported kinds
// (bitset, union, map, bitmask) are accepted so callers can describe types
// the flattener must reject.
func Primitive(k types.Kind) *Type {
	return &Type{kind: k, name: k.String()}
}

// EnumOf returns an enumeration with the given literals in value order.
func EnumOf(name string, literals ...string) *Type {
	return &Type{kind: types.KindEnum, name: name, literals: append([]string(nil), literals...)}
}

// ArrayOf returns a fixed-size array. Multiple dimensions are flattened in
// row-major order; the total bound is their product.
func ArrayOf(elem *Type, dims ...uint32) *Type {
	return &Type{
		kind:   types.KindArray,
		name:   fmt.Sprintf("array<%s>", elem.name),
		elem:   elem,
		bounds: append([]uint32(nil), dims...),
	}
}

// SequenceOf returns a variable-length sequence. bound 0 means unbounded.
func SequenceOf(elem *Type, bound uint32) *Type {
	return &Type{
		kind:   types.KindSequence,
		name:   fmt.Sprintf("sequence<%s>", elem.name),
		elem:   elem,
		bounds: []uint32{bound},
	}
}

// Struct returns a structure type. Member names and ids must be unique.
func Struct(name string, specs ...FieldSpec) (*Type, error) {
	t := &Type{
		kind: types.KindStructure,
		name: name,
		byID: make(map[types.MemberID]int, len(specs)),
	}
	seen := make(map[string]bool, len(specs))
	for i, s := range specs {
		if s.Type == nil {
			return nil, fmt.Errorf("struct %s: member %q has no type", name, s.Name)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("struct %s: duplicate member name %q", name, s.Name)
		}
		id := types.MemberID(i)
		if s.hasID {
			id = s.ID
		}
		if _, dup := t.byID[id]; dup {
			return nil, fmt.Errorf("struct %s: duplicate member id %d", name, id)
		}
		seen[s.Name] = true
		t.byID[id] = len(t.fields)
		t.fields = append(t.fields, field{name: s.Name, id: id, typ: s.Type})
	}

	t.byName = make([]types.Member, 0, len(t.fields))
	for _, f := range t.fields {
		t.byName = append(t.byName, types.Member{Name: f.name, ID: f.id, Type: f.typ})
	}
	sort.Slice(t.byName, func(i, j int) bool {
		return t.byName[i].Name < t.byName[j].Name
	})
	return t, nil
}

// MustStruct is like Struct but panics on error. Intended for fixtures.
func MustStruct(name string, specs ...FieldSpec) *Type {
	t, err := Struct(name, specs...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Type) Kind() types.Kind { return t.kind }
func (t *Type) Name() string     { return t.name }

func (t *Type) ElementType() types.TypeDescriptor {
	if t.elem == nil {
		return nil
	}
	return t.elem
}

func (t *Type) TotalBound() uint32 {
	if t.kind != types.KindArray {
		return 0
	}
	total := uint32(1)
	for _, d := range t.bounds {
		total *= d
	}
	return total
}

// SequenceBound is the maximum length of a sequence; 0 means unbounded.
func (t *Type) SequenceBound() uint32 {
	if t.kind != types.KindSequence || len(t.bounds) == 0 {
		return 0
	}
	return t.bounds[0]
}

func (t *Type) MembersByName() []types.Member {
	if t.kind != types.KindStructure {
		return nil
	}
	return append([]types.Member(nil), t.byName...)
}

// Literals returns the enumerator names of an enum type.
func (t *Type) Literals() []string {
	return append([]string(nil), t.literals...)
}

// member returns the type and slot position of a structure member.
func (t *Type) member(id types.MemberID) (*Type, int, bool) {
	pos, ok := t.byID[id]
	if !ok {
		return nil, 0, false
	}
	return t.fields[pos].typ, pos, true
}
