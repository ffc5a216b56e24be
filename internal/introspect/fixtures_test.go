package introspect

import (
	"testing"

	"github.com/solatis/datastreamer/internal/dynamic"
	"github.com/solatis/datastreamer/internal/types"
)

func truncate(n uint32) types.ContainerPolicy {
	return types.ContainerPolicy{MaxSize: n}
}

func discard(n uint32) types.ContainerPolicy {
	return types.ContainerPolicy{MaxSize: n, Discard: true}
}

// roundTripType is {a: int32, b: string8, c: array<float64, 3>}.
func roundTripType() *dynamic.Type {
	return dynamic.MustStruct("RoundTrip",
		dynamic.Field("a", dynamic.Primitive(types.KindInt32)),
		dynamic.Field("b", dynamic.Primitive(types.KindString8)),
		dynamic.Field("c", dynamic.ArrayOf(dynamic.Primitive(types.KindFloat64), 3)),
	)
}

// sequenceType is {label: string8, seq: sequence<int16>}.
func sequenceType() *dynamic.Type {
	return dynamic.MustStruct("WithSequence",
		dynamic.Field("label", dynamic.Primitive(types.KindString8)),
		dynamic.Field("seq", dynamic.SequenceOf(dynamic.Primitive(types.KindInt16), 0)),
	)
}

func mustDecode(t *testing.T, typ *dynamic.Type, v any) *dynamic.Data {
	t.Helper()
	d, err := dynamic.Decode(typ, v)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return d
}

func leafNames(leaves []types.Leaf) []string {
	names := make([]string, len(leaves))
	for i, l := range leaves {
		names[i] = l.Name
	}
	return names
}
