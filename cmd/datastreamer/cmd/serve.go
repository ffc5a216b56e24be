package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solatis/datastreamer/internal/core/api"
	"github.com/solatis/datastreamer/internal/core/db"
	"github.com/solatis/datastreamer/internal/core/server"
	"github.com/solatis/datastreamer/internal/dynamic"
	"github.com/solatis/datastreamer/internal/introspect"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var schemaPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC introspection service",
		Long: `Serve the introspection API for one root type.

Samples are pushed as JSON structs; the service answers with the extracted
leaf values, logs every accepted sample to DATA_DIR/samples and, when a
database is configured, stores schemas and samples in the catalog.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				host, _ := cmd.Flags().GetString("host")
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				port, _ := cmd.Flags().GetInt("port")
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("data-dir") {
				dir, _ := cmd.Flags().GetString("data-dir")
				cfg.Server.DataDir = dir
			}

			logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}

			typ, err := dynamic.LoadSchemaFile(schemaPath)
			if err != nil {
				return fmt.Errorf("failed to load schema: %w", err)
			}
			engine, err := introspect.NewEngine(cfg.Introspection.RootName, typ, cfg.Introspection.Policy(), flattenOptions(cfg, logger)...)
			if err != nil {
				return fmt.Errorf("failed to build engine: %w", err)
			}

			var catalog *db.Catalog
			if cfg.Database.URL != "" {
				database, c, err := openCatalog(ctx, cfg)
				if err != nil {
					return err
				}
				defer database.Close()
				catalog = c
			} else {
				logger.Warn("no database configured, samples are only logged to disk")
			}

			service, err := api.NewIntrospectionService(typ, engine, catalog, &cfg.Server, logger)
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}

			grpcServer, err := server.NewGRPCServer(&cfg.Server, service, logger)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			logger.Info("starting datastreamer",
				"version", Version,
				"host", cfg.Server.Host,
				"port", cfg.Server.Port,
				"type", typ.Name(),
				"static", engine.Static())

			errChan := make(chan error, 1)
			go func() {
				errChan <- grpcServer.Start(ctx)
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case err := <-errChan:
				return err
			case <-sigChan:
				logger.Info("shutting down gracefully")
				return grpcServer.Shutdown(context.WithoutCancel(ctx))
			}
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "YAML schema file of the root type")
	cmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	cmd.Flags().Int("port", 50051, "gRPC server port")
	cmd.Flags().String("data-dir", "", "directory for the JSONL sample log")
	_ = cmd.MarkFlagRequired("schema")
	addIntrospectionFlags(cmd, opts)
	return cmd
}
