// Command ttctl manages time entries from the terminal against the same
// backends as the HTTP server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"timetracker/internal/backend"
	"timetracker/internal/cli"
	"timetracker/internal/config"
	applog "timetracker/internal/log"
	"timetracker/internal/services"
)

type rootOptions struct {
	backend string
	dbPath  string
	server  string
	verbose bool
}

func main() {
	cli.LoadEnvFile()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:          "ttctl",
		Short:        "Inspect and edit tracked time",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "data backend (mongo, sqlite, memory); defaults to DATA_BACKEND")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "sqlite database path; defaults to SQLITE_DB_PATH")
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", os.Getenv("TTCTL_SERVER_URL"), "running server to purge caches on after writes, e.g. http://localhost:8081")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(entriesCmd(opts))
	rootCmd.AddCommand(statsCmd(opts))
	rootCmd.AddCommand(seedCmd(opts))
	rootCmd.AddCommand(migrateCmd(opts))

	return rootCmd
}

// loadConfig reads the environment and applies the persistent flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if o.backend != "" {
		cfg.DataBackend = o.backend
	}
	if o.dbPath != "" {
		cfg.SQLiteDBPath = o.dbPath
	}
	// Commands never serve HTTP; a stray PORT must not fail validation.
	cfg.Port = "8081"
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type app struct {
	repo       *services.Repository
	aggregator *services.Aggregator
	mutator    *services.Mutator
	logger     *applog.Logger
	backend    *backend.BackendResult
}

func (a *app) Close() {
	cli.CloseBackend(a.logger, a.backend)
}

// openApp wires the services over the configured backend. Logs go to
// stderr so command output stays parseable.
func (o *rootOptions) openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	} else {
		cfg.LogLevel = "warn"
	}
	logger := cli.SetupLogger(cfg, applog.ComponentCLI, cmd.ErrOrStderr())

	result, err := cli.OpenBackend(cmdContext(cmd), logger, cfg)
	if err != nil {
		return nil, err
	}
	return &app{
		repo:       services.NewRepository(result.Store, logger),
		aggregator: services.NewAggregator(result.Store, logger),
		mutator:    services.NewMutator(result.Store, o.invalidator(logger), result.Publisher(), logger),
		logger:     logger,
		backend:    result,
	}, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// mutationError turns an unsuccessful result into a command error.
func mutationError(res services.Result) error {
	if res.Success {
		return nil
	}
	if res.ID != "" {
		return fmt.Errorf("%s: %s", res.Error, res.ID)
	}
	return fmt.Errorf("%s", res.Error)
}
