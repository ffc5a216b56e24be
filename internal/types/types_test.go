package types

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestKind_Class(t *testing.T) {
	tests := []struct {
		kind Kind
		want Class
	}{
		{KindNone, ClassUnsupported},
		{KindBoolean, ClassNumeric},
		{KindByte, ClassNumeric},
		{KindInt16, ClassNumeric},
		{KindInt32, ClassNumeric},
		{KindInt64, ClassNumeric},
		{KindUint16, ClassNumeric},
		{KindUint32, ClassNumeric},
		{KindUint64, ClassNumeric},
		{KindFloat32, ClassNumeric},
		{KindFloat64, ClassNumeric},
		{KindFloat128, ClassNumeric},
		{KindChar8, ClassStringLike},
		{KindChar16, ClassStringLike},
		{KindString8, ClassStringLike},
		{KindString16, ClassStringLike},
		{KindEnum, ClassStringLike},
		{KindBitmask, ClassUnsupported},
		{KindArray, ClassContainer},
		{KindSequence, ClassContainer},
		{KindStructure, ClassContainer},
		{KindBitset, ClassUnsupported},
		{KindUnion, ClassUnsupported},
		{KindMap, ClassUnsupported},
	}

	if len(tests) != KindCount {
		t.Fatalf("table covers %d kinds, want %d", len(tests), KindCount)
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Class(); got != tt.want {
				t.Errorf("Class() = %d, want %d", got, tt.want)
			}
		})
	}
}

// Every kind belongs to exactly one class.
func TestKind_ClassesDisjoint(t *testing.T) {
	for k := 0; k < KindCount; k++ {
		kind := Kind(k)
		n := 0
		for _, in := range []bool{IsNumeric(kind), IsStringLike(kind), IsContainer(kind)} {
			if in {
				n++
			}
		}
		if n > 1 {
			t.Errorf("%s belongs to %d classes", kind, n)
		}
		if n == 0 && kind.Class() != ClassUnsupported {
			t.Errorf("%s has no predicate but class %d", kind, kind.Class())
		}
	}
}

func TestParseKind(t *testing.T) {
	for k := 0; k < KindCount; k++ {
		kind := Kind(k)
		got, err := ParseKind(kind.String())
		if err != nil {
			t.Errorf("ParseKind(%q) error = %v", kind.String(), err)
			continue
		}
		if got != kind {
			t.Errorf("ParseKind(%q) = %s, want %s", kind.String(), got, kind)
		}
	}

	aliases := map[string]Kind{
		"string":    KindString8,
		"wstring":   KindString16,
		"struct":    KindStructure,
		" Float64 ": KindFloat64,
		"SEQUENCE":  KindSequence,
	}
	for in, want := range aliases {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %s, %v; want %s", in, got, err, want)
		}
	}

	if _, err := ParseKind("quaternion"); !errors.Is(err, ErrUnsupportedKind) {
		t.Errorf("ParseKind(quaternion) error = %v, want ErrUnsupportedKind", err)
	}
}

func TestKind_StringOutOfRange(t *testing.T) {
	if got := Kind(200).String(); got != "kind(200)" {
		t.Errorf("String() = %q, want kind(200)", got)
	}
}

func TestContainerPolicy_Apply(t *testing.T) {
	tests := []struct {
		name     string
		policy   ContainerPolicy
		size     uint32
		wantN    uint32
		wantKeep bool
	}{
		{name: "below limit", policy: ContainerPolicy{MaxSize: 100}, size: 3, wantN: 3, wantKeep: true},
		{name: "empty", policy: ContainerPolicy{MaxSize: 100, Discard: true}, size: 0, wantN: 0, wantKeep: true},
		{name: "at limit truncates", policy: ContainerPolicy{MaxSize: 3}, size: 3, wantN: 3, wantKeep: true},
		{name: "at limit discards", policy: ContainerPolicy{MaxSize: 3, Discard: true}, size: 3, wantN: 0, wantKeep: false},
		{name: "above limit truncates", policy: ContainerPolicy{MaxSize: 2}, size: 5, wantN: 2, wantKeep: true},
		{name: "above limit discards", policy: ContainerPolicy{MaxSize: 2, Discard: true}, size: 5, wantN: 0, wantKeep: false},
		{name: "zero limit truncates everything", policy: ContainerPolicy{MaxSize: 0}, size: 4, wantN: 0, wantKeep: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, keep := tt.policy.Apply(tt.size)
			if n != tt.wantN || keep != tt.wantKeep {
				t.Errorf("Apply(%d) = (%d, %v), want (%d, %v)", tt.size, n, keep, tt.wantN, tt.wantKeep)
			}
		})
	}
}

// Property-based test: Apply never indexes more than MaxSize or size elements
func TestContainerPolicy_PropertyBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("indexed count bounded by size and limit", prop.ForAll(
		func(size, maxSize uint32, discard bool) bool {
			n, keep := ContainerPolicy{MaxSize: maxSize, Discard: discard}.Apply(size)
			if size < maxSize {
				return keep && n == size
			}
			if discard {
				return !keep && n == 0
			}
			return keep && n == maxSize && n <= size
		},
		gen.UInt32Range(0, 1000),
		gen.UInt32Range(0, 1000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestLeaf_Accessors(t *testing.T) {
	l := Leaf{
		Name:  "root.c[1]",
		Path:  []MemberID{2, 1},
		Kinds: []Kind{KindStructure, KindArray},
		Kind:  KindFloat64,
	}
	if l.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", l.Depth())
	}
	if id, ok := l.Parent(); !ok || id != 1 {
		t.Errorf("Parent() = (%d, %v), want (1, true)", id, ok)
	}
	if _, ok := (Leaf{}).Parent(); ok {
		t.Error("Parent() of empty leaf reported ok")
	}

	other := l
	other.Path = []MemberID{2, 1}
	if !l.Equal(other) {
		t.Error("Equal() = false for identical leaves")
	}
	other.Kinds = []Kind{KindStructure, KindSequence}
	if l.Equal(other) {
		t.Error("Equal() = true for different kind chains")
	}
}

func TestIDs(t *testing.T) {
	a, b := NewSampleID(), NewSampleID()
	if a == b {
		t.Fatal("NewSampleID() returned duplicates")
	}
	if a > b {
		t.Errorf("sample IDs not time ordered: %s > %s", a, b)
	}
	if SampleIDTime(a).IsZero() {
		t.Error("SampleIDTime() returned zero for a valid ID")
	}
	if !SampleIDTime("not-a-uuid").IsZero() {
		t.Error("SampleIDTime() returned non-zero for an invalid ID")
	}

	id := NewSchemaID()
	parsed, err := ParseSchemaID(string(id))
	if err != nil || parsed != id {
		t.Errorf("ParseSchemaID(%s) = %s, %v", id, parsed, err)
	}
	if _, err := ParseSchemaID("bogus"); err == nil {
		t.Error("ParseSchemaID(bogus) error = nil")
	}
}
