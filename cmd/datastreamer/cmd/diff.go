package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/datastreamer/internal/dynamic"
	"github.com/solatis/datastreamer/internal/introspect"
	"github.com/solatis/datastreamer/internal/types"
)

func newDiffCommand(opts *rootOptions) *cobra.Command {
	var (
		fromSample string
		toSample   string
		catalog    bool
	)

	cmd := &cobra.Command{
		Use:   "diff FROM TO",
		Short: "Show how the leaf layout changed between two schemas",
		Long: `Compare the leaf layouts of two YAML schema files, or of two catalog
schemas when --catalog is given (FROM and TO are then schema IDs).

Exits successfully with no output when the layouts are identical.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}

			var from, to *introspect.Index
			if catalog {
				if fromSample != "" || toSample != "" {
					return fmt.Errorf("--from-sample and --to-sample do not apply to --catalog")
				}
				database, c, err := openCatalog(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer database.Close()

				load := func(arg string) (*introspect.Index, error) {
					id, err := types.ParseSchemaID(arg)
					if err != nil {
						return nil, err
					}
					idx, _, err := c.LoadIndex(cmd.Context(), id)
					if err != nil {
						return nil, fmt.Errorf("schema %s: %w", id, err)
					}
					return idx, nil
				}
				if from, err = load(args[0]); err != nil {
					return err
				}
				if to, err = load(args[1]); err != nil {
					return err
				}
			} else {
				load := func(schemaPath, samplePath string) (*introspect.Index, error) {
					typ, err := dynamic.LoadSchemaFile(schemaPath)
					if err != nil {
						return nil, fmt.Errorf("failed to load schema: %w", err)
					}
					var data types.DataInstance
					if samplePath != "" {
						d, err := readSampleFile(typ, samplePath)
						if err != nil {
							return nil, err
						}
						data = d
					}
					return introspect.Flatten(cfg.Introspection.RootName, typ, cfg.Introspection.Policy(), data, flattenOptions(cfg, logger)...)
				}
				if from, err = load(args[0], fromSample); err != nil {
					return err
				}
				if to, err = load(args[1], toSample); err != nil {
					return err
				}
			}

			diff, err := introspect.DiffLayouts(from, to, args[0], args[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), diff)
			return err
		},
	}

	cmd.Flags().StringVar(&fromSample, "from-sample", "", "JSON sample sizing sequences of FROM")
	cmd.Flags().StringVar(&toSample, "to-sample", "", "JSON sample sizing sequences of TO")
	cmd.Flags().BoolVar(&catalog, "catalog", false, "treat FROM and TO as catalog schema IDs")
	addIntrospectionFlags(cmd, opts)
	return cmd
}
