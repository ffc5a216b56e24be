package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/datastreamer/internal/core/db"
	"github.com/solatis/datastreamer/internal/types"
)

const pointSchema = `
name: Point
kind: structure
members:
  - name: x
    type: {kind: float32}
  - name: tag
    type: {kind: string}
`

const point3Schema = `
name: Point
kind: structure
members:
  - name: x
    type: {kind: float32}
  - name: tag
    type: {kind: string}
  - name: y
    type: {kind: float32}
`

const readingSchema = `
name: Reading
kind: structure
members:
  - name: temp
    type: {kind: float64}
  - name: unit
    type: {kind: string}
  - name: hist
    type: {kind: sequence, element: {kind: int32}, bound: 8}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFlatten_Text(t *testing.T) {
	schema := writeFile(t, "point.yaml", pointSchema)

	out, err := run(t, "", "flatten", "--schema", schema)
	require.NoError(t, err)
	assert.Equal(t,
		"numeric root.x float32 path=[0] kinds=[structure]\n"+
			"string root.tag string8 path=[1] kinds=[structure]\n",
		out)
}

func TestFlatten_Overrides(t *testing.T) {
	schema := writeFile(t, "point.yaml", pointSchema)

	out, err := run(t, "", "flatten", "--schema", schema, "--root-name", "pt", "--separator", "/")
	require.NoError(t, err)
	assert.Contains(t, out, "numeric pt/x float32")
	assert.Contains(t, out, "string pt/tag string8")

	_, err = run(t, "", "flatten", "--schema", schema, "--separator", "")
	assert.Error(t, err)
}

func TestFlatten_JSON(t *testing.T) {
	schema := writeFile(t, "point.yaml", pointSchema)

	out, err := run(t, "", "flatten", "--schema", schema, "-o", "json")
	require.NoError(t, err)

	doc, err := oj.ParseString(out)
	require.NoError(t, err)
	m := doc.(map[string]any)
	assert.Equal(t, "root", m["root"])
	require.Len(t, m["numeric"], 1)
	leaf := m["numeric"].([]any)[0].(map[string]any)
	assert.Equal(t, "root.x", leaf["name"])
	assert.Equal(t, "float32", leaf["kind"])
	assert.Equal(t, []any{"structure"}, leaf["kinds"])
}

func TestFlatten_SequenceNeedsSample(t *testing.T) {
	schema := writeFile(t, "reading.yaml", readingSchema)

	_, err := run(t, "", "flatten", "--schema", schema)
	require.ErrorIs(t, err, types.ErrMissingInstance)

	sample := writeFile(t, "sample.json", `{"temp": 21.5, "unit": "C", "hist": [4, 5, 6]}`)
	out, err := run(t, "", "flatten", "--schema", schema, "--sample", sample)
	require.NoError(t, err)
	assert.Contains(t, out, "numeric root.hist[2] int32 path=[2 2] kinds=[structure sequence]")

	out, err = run(t, "", "flatten", "--schema", schema, "--sample", sample, "--max-array-size", "2", "--truncate")
	require.NoError(t, err)
	assert.Contains(t, out, "root.hist[1]")
	assert.NotContains(t, out, "root.hist[2]")

	out, err = run(t, "", "flatten", "--schema", schema, "--sample", sample, "--max-array-size", "2")
	require.NoError(t, err)
	assert.NotContains(t, out, "root.hist")
}

func TestExtract_Text(t *testing.T) {
	schema := writeFile(t, "reading.yaml", readingSchema)
	input := strings.Join([]string{
		`{"temp": 21.5, "unit": "C", "hist": [1, 2]}`,
		``,
		`{"temp": 22, "unit": "C", "hist": [3, 4]}`,
		`{"temp": 23, "unit": "F", "hist": [5]}`,
	}, "\n")

	out, err := run(t, input, "extract", "--schema", schema)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "# layout generation 1\n"))
	assert.Equal(t, 1, strings.Count(out, "# layout generation 2\n"))
	assert.Contains(t, out, "root.hist[1]=2\nroot.temp=21.5\nroot.unit=\"C\"\n")
	assert.Contains(t, out, "root.hist[0]=5\nroot.temp=23\nroot.unit=\"F\"\n")
}

func TestExtract_SelectAndJSON(t *testing.T) {
	schema := writeFile(t, "point.yaml", pointSchema)
	input := `{"seq": 1, "payload": {"x": 1.5, "tag": "a"}}` + "\n" +
		`{"seq": 2, "payload": {"x": 2.5, "tag": "b"}}` + "\n"
	file := writeFile(t, "points.jsonl", input)

	out, err := run(t, "", "extract", "--schema", schema, "--select", "$.payload", "-o", "json", file)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	first, err := oj.ParseString(lines[0])
	require.NoError(t, err)
	doc := first.(map[string]any)
	assert.Equal(t, true, doc["schema_changed"])
	assert.Contains(t, doc, "index")
	assert.Equal(t, []any{"a"}, doc["strings"])

	second, err := oj.ParseString(lines[1])
	require.NoError(t, err)
	doc = second.(map[string]any)
	assert.Equal(t, false, doc["schema_changed"])
	assert.NotContains(t, doc, "index")
	assert.Equal(t, []any{2.5}, doc["numeric"])
}

func TestExtract_Errors(t *testing.T) {
	schema := writeFile(t, "point.yaml", pointSchema)

	tests := []struct {
		name  string
		input string
		args  []string
		want  string
	}{
		{name: "invalid json", input: "{\"x\": \n", want: "line 1"},
		{name: "unknown member", input: `{"x": 1, "tag": "a"}` + "\n" + `{"z": 1}`, want: "line 2"},
		{name: "select without match", input: `{"x": 1}`, args: []string{"--select", "$.payload"}, want: "matched nothing"},
		{name: "bad selector", input: `{}`, args: []string{"--select", "$.payload["}, want: "invalid --select"},
		{name: "bad output", input: `{}`, args: []string{"-o", "xml"}, want: "invalid --output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"extract", "--schema", schema}, tt.args...)
			_, err := run(t, tt.input, args...)
			if err == nil {
				t.Fatalf("extract succeeded, want error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestDiff_Files(t *testing.T) {
	from := writeFile(t, "v1.yaml", pointSchema)
	to := writeFile(t, "v2.yaml", point3Schema)

	out, err := run(t, "", "diff", from, from)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = run(t, "", "diff", from, to)
	require.NoError(t, err)
	assert.Contains(t, out, "+numeric root.y float32 path=[2] kinds=[structure]")
	assert.NotContains(t, out, "-numeric root.x")
}

func TestDiff_Samples(t *testing.T) {
	schema := writeFile(t, "reading.yaml", readingSchema)
	long := writeFile(t, "long.json", `{"hist": [1, 2, 3]}`)
	short := writeFile(t, "short.json", `{"hist": [1]}`)

	out, err := run(t, "", "diff", schema, schema, "--from-sample", long, "--to-sample", short)
	require.NoError(t, err)
	assert.Contains(t, out, "-numeric root.hist[2] int32")
}

func TestCatalogWorkflow(t *testing.T) {
	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "catalog.db")
	schema := writeFile(t, "point.yaml", pointSchema)

	_, err := run(t, "", "--db-url", dbURL, "flatten", "--schema", schema, "--save")
	require.Error(t, err, "catalog must be migrated first")

	out, err := run(t, "", "--db-url", dbURL, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "applied 001_initial_schema.sql")
	assert.Contains(t, out, "applied 002_samples.sql")

	out, err = run(t, "", "--db-url", dbURL, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "already up to date")

	out, err = run(t, "", "--db-url", dbURL, "migrate", "status")
	require.NoError(t, err)
	assert.NotContains(t, out, "pending")

	_, err = run(t, "", "--db-url", dbURL, "flatten", "--schema", schema, "--save")
	require.NoError(t, err)

	input := `{"x": 1, "tag": "a"}` + "\n" + `{"x": 2, "tag": "b"}` + "\n"
	_, err = run(t, input, "--db-url", dbURL, "extract", "--schema", schema, "--save")
	require.NoError(t, err)

	ctx := context.Background()
	database, err := db.Open(ctx, dbURL)
	require.NoError(t, err)
	catalog, err := db.NewCatalog(database)
	require.NoError(t, err)
	records, err := catalog.ListSchemas(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1, "flatten and extract share one layout")
	n, err := catalog.CountSamples(ctx, records[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, database.Close())

	id := string(records[0].ID)

	out, err = run(t, "", "--db-url", dbURL, "schemas")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Point")

	out, err = run(t, "", "--db-url", dbURL, "schemas", "--show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "numeric root.x float32 path=[0] kinds=[structure]")

	out, err = run(t, "", "--db-url", dbURL, "diff", "--catalog", id, id)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, "", "--db-url", dbURL, "diff", "--catalog", "not-a-uuid", id)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"debug", "json", false},
		{"warn", "text", false},
		{"ERROR", "TEXT", false},
		{"loud", "json", true},
		{"info", "xml", true},
	}

	for _, tt := range tests {
		_, err := newLogger(&bytes.Buffer{}, tt.level, tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("newLogger(%q, %q) error = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
		}
	}
}
