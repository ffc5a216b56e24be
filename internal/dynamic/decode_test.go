package dynamic

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/datastreamer/internal/types"
)

func TestDecode_FromJSON(t *testing.T) {
	var raw any
	require.NoError(t, json.Unmarshal([]byte(`{
		"flag": true,
		"small": 7,
		"u32": 123456,
		"text": "hi",
		"mode": "RUN",
		"pos": [1.5, -2],
		"hist": [1, 2, 3]
	}`), &raw))

	d, err := Decode(sample(), raw)
	require.NoError(t, err)

	small, _ := d.Byte(1)
	assert.Equal(t, uint8(7), small)
	mode, _ := d.Enum(7)
	assert.Equal(t, "RUN", mode)

	pos, err := d.Child(8)
	require.NoError(t, err)
	p1, _ := pos.Float64(1)
	p2, _ := pos.Float64(2)
	assert.Equal(t, -2.0, p1)
	assert.Zero(t, p2, "elements past the list keep defaults")

	hist, err := d.Child(9)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), hist.ItemCount())
	assert.Zero(t, d.OutstandingLoans())
}

func TestDecode_UseNumber(t *testing.T) {
	dec := json.NewDecoder(strings.NewReader(`{"u32": 4294967295, "f32": 0.5}`))
	dec.UseNumber()
	var raw any
	require.NoError(t, dec.Decode(&raw))

	d, err := Decode(sample(), raw)
	require.NoError(t, err)
	u32, _ := d.Uint32(3)
	f32, _ := d.Float32(4)
	assert.Equal(t, uint32(4294967295), u32)
	assert.Equal(t, float32(0.5), f32)
}

func TestDecode_NullKeepsDefault(t *testing.T) {
	d, err := Decode(sample(), map[string]any{"text": nil, "hist": nil})
	require.NoError(t, err)
	text, _ := d.String8(5)
	assert.Empty(t, text)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		wantErr error
		wantMsg string
	}{
		{name: "root not an object", value: []any{1}, wantErr: types.ErrTypeMismatch},
		{name: "unknown member", value: map[string]any{"zz": 1, "yy": 2}, wantErr: types.ErrTypeMismatch, wantMsg: `"yy"`},
		{name: "array too long", value: map[string]any{"pos": []any{1.0, 2.0, 3.0, 4.0}}, wantErr: types.ErrTypeMismatch},
		{name: "sequence above bound", value: map[string]any{"hist": []any{1, 2, 3, 4, 5}}, wantErr: types.ErrTypeMismatch},
		{name: "list expected", value: map[string]any{"pos": 1.0}, wantErr: types.ErrTypeMismatch},
		{name: "bad element", value: map[string]any{"hist": []any{1, "x"}}, wantErr: types.ErrTypeMismatch, wantMsg: "Sample.hist[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(sample(), tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Decode() error = %q, want it to mention %s", err, tt.wantMsg)
			}
		})
	}
}
