package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/solatis/datastreamer/internal/types"
)

func newSchemasCommand(opts *rootOptions) *cobra.Command {
	var show string

	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "List schemas stored in the catalog",
		Long: `List catalog schemas with their leaf and sample counts.

--show prints the leaf layout of one schema instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			database, catalog, err := openCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			if show != "" {
				id, err := types.ParseSchemaID(show)
				if err != nil {
					return err
				}
				idx, _, err := catalog.LoadIndex(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("schema %s: %w", id, err)
				}
				return writeIndex(cmd.OutOrStdout(), idx, "text")
			}

			records, err := catalog.ListSchemas(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCHEMA\tTYPE\tROOT\tNUMERIC\tSTRINGS\tSAMPLES\tCREATED")
			for _, r := range records {
				n, err := catalog.CountSamples(cmd.Context(), r.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					r.ID, r.TypeName, r.RootName, r.NumericCount, r.StringCount, n,
					r.CreatedAt().Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&show, "show", "", "print the leaf layout of this schema ID")
	return cmd
}
