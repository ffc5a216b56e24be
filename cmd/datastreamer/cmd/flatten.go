package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/solatis/datastreamer/internal/dynamic"
	"github.com/solatis/datastreamer/internal/introspect"
	"github.com/solatis/datastreamer/internal/types"
)

func newFlattenCommand(opts *rootOptions) *cobra.Command {
	var (
		schemaPath string
		samplePath string
		output     string
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "flatten",
		Short: "Print the leaf index of a schema",
		Long: `Flatten a YAML schema into its numeric and string leaf lists.

Types containing sequences need a sample (--sample) to size them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}

			typ, err := dynamic.LoadSchemaFile(schemaPath)
			if err != nil {
				return fmt.Errorf("failed to load schema: %w", err)
			}

			var data types.DataInstance
			if samplePath != "" {
				d, err := readSampleFile(typ, samplePath)
				if err != nil {
					return err
				}
				data = d
			}

			idx, err := introspect.Flatten(cfg.Introspection.RootName, typ, cfg.Introspection.Policy(), data, flattenOptions(cfg, logger)...)
			if err != nil {
				return err
			}

			if save {
				database, catalog, err := openCatalog(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer database.Close()
				id, created, err := catalog.SaveSchema(cmd.Context(), typ.Name(), idx)
				if err != nil {
					return fmt.Errorf("failed to save schema: %w", err)
				}
				logger.Info("schema saved", "schema_id", id, "created", created)
			}

			return writeIndex(cmd.OutOrStdout(), idx, output)
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "YAML schema file")
	cmd.Flags().StringVar(&samplePath, "sample", "", "JSON sample sizing sequences")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json)")
	cmd.Flags().BoolVar(&save, "save", false, "store the index in the catalog")
	_ = cmd.MarkFlagRequired("schema")
	addIntrospectionFlags(cmd, opts)
	return cmd
}

// readSampleFile decodes one JSON document into an instance of typ.
func readSampleFile(typ *dynamic.Type, path string) (*dynamic.Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample: %w", err)
	}
	v, err := oj.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sample %s: %w", path, err)
	}
	d, err := dynamic.Decode(typ, v)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", path, err)
	}
	return d, nil
}

func writeIndex(w io.Writer, idx *introspect.Index, output string) error {
	switch output {
	case "text":
		for _, line := range idx.Layout() {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	case "json":
		_, err := fmt.Fprintln(w, oj.JSON(indexDocument(idx), &oj.Options{Sort: true}))
		return err
	default:
		return fmt.Errorf("invalid --output %q (expected text or json)", output)
	}
}

func indexDocument(idx *introspect.Index) map[string]any {
	return map[string]any{
		"root":      idx.Root,
		"separator": idx.Separator,
		"numeric":   leafDocuments(idx.Numeric),
		"strings":   leafDocuments(idx.Strings),
	}
}

func leafDocuments(leaves []types.Leaf) []any {
	out := make([]any, len(leaves))
	for i, l := range leaves {
		path := make([]any, len(l.Path))
		for j, id := range l.Path {
			path[j] = int64(id)
		}
		kinds := make([]any, len(l.Kinds))
		for j, k := range l.Kinds {
			kinds[j] = k.String()
		}
		out[i] = map[string]any{"name": l.Name, "kind": l.Kind.String(), "path": path, "kinds": kinds}
	}
	return out
}
