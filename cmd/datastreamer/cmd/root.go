package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/solatis/datastreamer/internal/core/config"
	"github.com/solatis/datastreamer/internal/core/db"
	"github.com/solatis/datastreamer/internal/introspect"
)

const Version = "0.1.0"

// rootOptions holds persistent flag values shared by all subcommands.
type rootOptions struct {
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string

	// introspection overrides, applied only when set on the command line
	maxArraySize uint32
	truncate     bool
	separator    string
	rootName     string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "datastreamer",
		Short:         "Flatten dynamic types into leaf indexes and extract sample values",
		Long:          `datastreamer compiles nested runtime types into ordered numeric and string leaf lists, then reads those leaves from every sample without walking the type again.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path")
	root.PersistentFlags().StringVar(&opts.dbURL, "db-url", "", "catalog database URL (sqlite://path or postgres://...)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "json", "log format (json, text)")

	root.AddCommand(
		newFlattenCommand(opts),
		newExtractCommand(opts),
		newDiffCommand(opts),
		newServeCommand(opts),
		newMigrateCommand(opts),
		newSchemasCommand(opts),
	)
	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCommand().Execute()
}

// addIntrospectionFlags registers the flags that override introspection.* config keys.
func addIntrospectionFlags(cmd *cobra.Command, opts *rootOptions) {
	cmd.Flags().Uint32Var(&opts.maxArraySize, "max-array-size", 100, "containers with at least this many elements are discarded or truncated")
	cmd.Flags().BoolVar(&opts.truncate, "truncate", false, "keep the first max-array-size elements of large containers instead of discarding them")
	cmd.Flags().StringVar(&opts.separator, "separator", ".", "separator between member names in leaf names")
	cmd.Flags().StringVar(&opts.rootName, "root-name", "root", "display name of the root type")
}

// loadConfig reads configuration and applies command-line overrides.
// CLI flags > environment > config file > defaults precedence.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.dbURL != "" {
		cfg.Database.URL = opts.dbURL
	}
	flags := cmd.Flags()
	if flags.Lookup("max-array-size") != nil && flags.Changed("max-array-size") {
		cfg.Introspection.MaxArraySize = opts.maxArraySize
	}
	if flags.Lookup("truncate") != nil && flags.Changed("truncate") {
		cfg.Introspection.DiscardLargeArrays = !opts.truncate
	}
	if flags.Lookup("separator") != nil && flags.Changed("separator") {
		if opts.separator == "" {
			return nil, fmt.Errorf("--separator must not be empty")
		}
		cfg.Introspection.Separator = opts.separator
	}
	if flags.Lookup("root-name") != nil && flags.Changed("root-name") {
		cfg.Introspection.RootName = opts.rootName
	}
	return cfg, nil
}

// newLogger builds the slog logger selected by --log-level and --log-format.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (expected json or text)", format)
	}
}

// flattenOptions converts introspection config into Flatten options.
func flattenOptions(cfg *config.Config, logger *slog.Logger) []introspect.Option {
	return []introspect.Option{
		introspect.WithSeparator(cfg.Introspection.Separator),
		introspect.WithLogger(logger),
	}
}

// openCatalog opens the configured database, refusing to run against an
// unmigrated schema. The caller closes the returned handle.
func openCatalog(ctx context.Context, cfg *config.Config) (*sqlx.DB, *db.Catalog, error) {
	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("--db-url or database.url required")
	}
	database, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	pending, err := db.Pending(ctx, database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to check migrations: %w", err)
	}
	if len(pending) > 0 {
		database.Close()
		return nil, nil, fmt.Errorf("migrations %s not applied - run 'datastreamer migrate up' first", strings.Join(pending, ", "))
	}

	catalog, err := db.NewCatalog(database)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return database, catalog, nil
}
