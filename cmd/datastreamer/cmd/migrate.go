package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/solatis/datastreamer/internal/core/db"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage catalog database migrations",
	}
	cmd.AddCommand(newMigrateUpCommand(opts), newMigrateStatusCommand(opts))
	return cmd
}

func newMigrateUpCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("--db-url or database.url required")
			}
			database, err := db.Open(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			pending, err := db.Pending(cmd.Context(), database)
			if err != nil {
				return err
			}
			if err := db.MigrateUp(cmd.Context(), database); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			if len(pending) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "already up to date")
				return nil
			}
			for _, id := range pending {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", id)
			}
			return nil
		},
	}
}

func newMigrateStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("--db-url or database.url required")
			}
			database, err := db.Open(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			statuses, err := db.MigrateStatus(cmd.Context(), database)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MIGRATION\tSTATUS\tAPPLIED AT")
			for _, s := range statuses {
				state, at := "pending", "-"
				if s.Applied {
					state = "applied"
					if s.AppliedAt != nil {
						at = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, state, at)
			}
			return tw.Flush()
		},
	}
}
