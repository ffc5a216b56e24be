package introspect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/datastreamer/internal/dynamic"
	"github.com/solatis/datastreamer/internal/types"
)

func TestEngine_StaticTypeFlattenedOnce(t *testing.T) {
	typ := roundTripType()
	e, err := NewEngine("root", typ, truncate(100))
	require.NoError(t, err)
	require.True(t, e.Static())

	idx, gen := e.Index()
	require.NotNil(t, idx)
	assert.Equal(t, uint64(1), gen)

	first, err := e.Ingest(mustDecode(t, typ, map[string]any{"a": 1, "b": "one"}))
	require.NoError(t, err)
	assert.True(t, first.SchemaChanged, "first sample reports the layout")
	assert.Same(t, idx, first.Index)
	assert.Equal(t, []float64{1, 0, 0, 0}, first.Numeric)

	second, err := e.Ingest(mustDecode(t, typ, map[string]any{"a": 2, "b": "two"}))
	require.NoError(t, err)
	assert.False(t, second.SchemaChanged)
	assert.Same(t, idx, second.Index)
	assert.Equal(t, []string{"two"}, second.Strings)
}

func TestEngine_DynamicTypeFollowsSequenceSize(t *testing.T) {
	typ := sequenceType()
	e, err := NewEngine("root", typ, truncate(100))
	require.NoError(t, err)
	require.False(t, e.Static())

	idx, gen := e.Index()
	assert.Nil(t, idx, "no index before the first sample")
	assert.Zero(t, gen)

	steps := []struct {
		seq         []any
		wantNumeric []float64
		wantChanged bool
		wantGen     uint64
	}{
		{seq: []any{1, 2, 3, 4, 5}, wantNumeric: []float64{1, 2, 3, 4, 5}, wantChanged: true, wantGen: 1},
		{seq: []any{6, 7, 8, 9, 10}, wantNumeric: []float64{6, 7, 8, 9, 10}, wantChanged: false, wantGen: 1},
		{seq: []any{11}, wantNumeric: []float64{11}, wantChanged: true, wantGen: 2},
		{seq: []any{}, wantNumeric: []float64{}, wantChanged: true, wantGen: 3},
	}

	for i, step := range steps {
		res, err := e.Ingest(mustDecode(t, typ, map[string]any{"label": "s", "seq": step.seq}))
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.wantNumeric, res.Numeric, "step %d", i)
		assert.Equal(t, []string{"s"}, res.Strings, "step %d", i)
		assert.Equal(t, step.wantChanged, res.SchemaChanged, "step %d", i)
		assert.Equal(t, step.wantGen, res.Generation, "step %d", i)
	}
}

func TestEngine_ErrorKeepsPreviousIndex(t *testing.T) {
	typ := sequenceType()
	e, err := NewEngine("root", typ, truncate(100))
	require.NoError(t, err)

	_, err = e.Ingest(mustDecode(t, typ, map[string]any{"seq": []any{1, 2}}))
	require.NoError(t, err)
	before, gen := e.Index()

	// An instance of a different type cannot be flattened against typ.
	other := dynamic.NewData(roundTripType())
	_, err = e.Ingest(other)
	require.Error(t, err)

	after, genAfter := e.Index()
	assert.Same(t, before, after)
	assert.Equal(t, gen, genAfter)
}

// unreadableLabel flattens like its embedded instance but fails every
// string8 read.
type unreadableLabel struct {
	*dynamic.Data
}

func (unreadableLabel) String8(types.MemberID) (string, error) {
	return "", types.ErrElementAbsent
}

func TestEngine_ExtractErrorKeepsPreviousLayout(t *testing.T) {
	typ := sequenceType()
	e, err := NewEngine("root", typ, truncate(100))
	require.NoError(t, err)

	_, err = e.Ingest(mustDecode(t, typ, map[string]any{"label": "a", "seq": []any{1}}))
	require.NoError(t, err)
	before, gen := e.Index()

	// The wider sequence flattens to a new layout, then extraction fails.
	bad := unreadableLabel{mustDecode(t, typ, map[string]any{"label": "b", "seq": []any{1, 2, 3}})}
	_, err = e.Ingest(bad)
	require.ErrorIs(t, err, types.ErrElementAbsent)

	after, genAfter := e.Index()
	assert.Same(t, before, after)
	assert.Equal(t, gen, genAfter)
	assert.Equal(t, []string{"root.seq[0]"}, leafNames(after.Numeric))

	res, err := e.Ingest(mustDecode(t, typ, map[string]any{"label": "c", "seq": []any{4}}))
	require.NoError(t, err)
	assert.False(t, res.SchemaChanged)
	assert.Equal(t, uint64(1), res.Generation)
}

func TestNewEngine_RejectsUnsupportedStaticType(t *testing.T) {
	typ := dynamic.MustStruct("WithUnion",
		dynamic.Field("u", dynamic.Primitive(types.KindUnion)),
	)
	_, err := NewEngine("root", typ, truncate(10))
	if !errors.Is(err, types.ErrUnsupportedKind) {
		t.Errorf("NewEngine() error = %v, want ErrUnsupportedKind", err)
	}
}
