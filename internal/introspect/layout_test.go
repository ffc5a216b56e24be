package introspect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_Layout(t *testing.T) {
	idx, err := Flatten("root", roundTripType(), truncate(100), nil)
	require.NoError(t, err)

	want := []string{
		"numeric root.a int32 path=[0] kinds=[structure]",
		"numeric root.c[0] float64 path=[2 0] kinds=[structure array]",
		"numeric root.c[1] float64 path=[2 1] kinds=[structure array]",
		"numeric root.c[2] float64 path=[2 2] kinds=[structure array]",
		"string root.b string8 path=[1] kinds=[structure]",
	}
	assert.Equal(t, want, idx.Layout())
}

func TestDiffLayouts(t *testing.T) {
	typ := sequenceType()
	long, err := Flatten("root", typ, truncate(100), mustDecode(t, typ, map[string]any{"seq": []any{1, 2, 3}}))
	require.NoError(t, err)
	short, err := Flatten("root", typ, truncate(100), mustDecode(t, typ, map[string]any{"seq": []any{1}}))
	require.NoError(t, err)

	same, err := DiffLayouts(long, long, "a", "b")
	require.NoError(t, err)
	assert.Empty(t, same)

	diff, err := DiffLayouts(long, short, "v1", "v2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(diff, "--- v1\n+++ v2\n"), diff)
	assert.Contains(t, diff, "-numeric root.seq[1] int16")
	assert.Contains(t, diff, "-numeric root.seq[2] int16")
	assert.NotContains(t, diff, "-numeric root.seq[0]")
}
