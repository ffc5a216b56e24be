package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/solatis/datastreamer/internal/core/db"
	"github.com/solatis/datastreamer/internal/dynamic"
	"github.com/solatis/datastreamer/internal/introspect"
	"github.com/solatis/datastreamer/internal/types"
)

// maxLineBytes bounds one JSONL record.
const maxLineBytes = 16 << 20

func newExtractCommand(opts *rootOptions) *cobra.Command {
	var (
		schemaPath string
		selector   string
		output     string
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "extract [FILE]",
		Short: "Extract leaf values from JSONL samples",
		Long: `Read one JSON sample per line (from FILE or stdin) and print its leaf values.

--select takes a JSONPath picking the sample out of each record, for
records that wrap the payload in an envelope. When a type contains
sequences the layout is recomputed per sample and printed again whenever
it changes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			if output != "text" && output != "json" {
				return fmt.Errorf("invalid --output %q (expected text or json)", output)
			}

			typ, err := dynamic.LoadSchemaFile(schemaPath)
			if err != nil {
				return fmt.Errorf("failed to load schema: %w", err)
			}

			var sel jp.Expr
			if selector != "" {
				sel, err = jp.ParseString(selector)
				if err != nil {
					return fmt.Errorf("invalid --select %q: %w", selector, err)
				}
			}

			engine, err := introspect.NewEngine(cfg.Introspection.RootName, typ, cfg.Introspection.Policy(), flattenOptions(cfg, logger)...)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var sink *catalogSink
			if save {
				database, catalog, err := openCatalog(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer database.Close()
				sink = &catalogSink{catalog: catalog, typeName: typ.Name(), ids: map[uint64]types.SchemaID{}}
			}

			x := &extractor{typ: typ, engine: engine, sel: sel, output: output, out: cmd.OutOrStdout(), sink: sink}
			return x.run(cmd, in)
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "YAML schema file")
	cmd.Flags().StringVar(&selector, "select", "", "JSONPath selecting the sample inside each record")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json)")
	cmd.Flags().BoolVar(&save, "save", false, "store schemas and samples in the catalog")
	_ = cmd.MarkFlagRequired("schema")
	addIntrospectionFlags(cmd, opts)
	return cmd
}

type extractor struct {
	typ    *dynamic.Type
	engine *introspect.Engine
	sel    jp.Expr
	output string
	out    io.Writer
	sink   *catalogSink
}

func (x *extractor) run(cmd *cobra.Command, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := x.extractLine(cmd, line); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

func (x *extractor) extractLine(cmd *cobra.Command, line string) error {
	record, err := oj.ParseString(line)
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if x.sel != nil {
		matches := x.sel.Get(record)
		if len(matches) == 0 {
			return fmt.Errorf("--select matched nothing")
		}
		record = matches[0]
	}

	data, err := dynamic.Decode(x.typ, record)
	if err != nil {
		return err
	}
	res, err := x.engine.Ingest(data)
	if err != nil {
		return err
	}

	var sampleID types.SampleID
	if x.sink != nil {
		sampleID, err = x.sink.save(cmd, res)
		if err != nil {
			return err
		}
	}

	if x.output == "json" {
		return x.writeJSON(res, sampleID)
	}
	return x.writeText(res)
}

func (x *extractor) writeText(res introspect.Result) error {
	if res.SchemaChanged {
		fmt.Fprintf(x.out, "# layout generation %d\n", res.Generation)
		for _, l := range res.Index.Layout() {
			fmt.Fprintf(x.out, "# %s\n", l)
		}
	}
	for i, l := range res.Index.Numeric {
		fmt.Fprintf(x.out, "%s=%g\n", l.Name, res.Numeric[i])
	}
	for i, l := range res.Index.Strings {
		fmt.Fprintf(x.out, "%s=%q\n", l.Name, res.Strings[i])
	}
	_, err := fmt.Fprintln(x.out)
	return err
}

func (x *extractor) writeJSON(res introspect.Result, sampleID types.SampleID) error {
	numeric := make([]any, len(res.Numeric))
	for i, v := range res.Numeric {
		numeric[i] = v
	}
	strs := make([]any, len(res.Strings))
	for i, v := range res.Strings {
		strs[i] = v
	}
	doc := map[string]any{
		"generation":     int64(res.Generation),
		"schema_changed": res.SchemaChanged,
		"numeric":        numeric,
		"strings":        strs,
	}
	if res.SchemaChanged {
		doc["index"] = indexDocument(res.Index)
	}
	if sampleID != "" {
		doc["sample_id"] = string(sampleID)
	}
	_, err := fmt.Fprintln(x.out, oj.JSON(doc, &oj.Options{Sort: true}))
	return err
}

// catalogSink stores every extracted sample, saving each new layout once.
type catalogSink struct {
	catalog  *db.Catalog
	typeName string
	ids      map[uint64]types.SchemaID
}

func (s *catalogSink) save(cmd *cobra.Command, res introspect.Result) (types.SampleID, error) {
	ctx := cmd.Context()
	schemaID, ok := s.ids[res.Generation]
	if !ok {
		id, _, err := s.catalog.SaveSchema(ctx, s.typeName, res.Index)
		if err != nil {
			return "", fmt.Errorf("failed to save schema: %w", err)
		}
		s.ids[res.Generation] = id
		schemaID = id
	}
	return s.catalog.SaveSample(ctx, schemaID, res.Sample, time.Now())
}
