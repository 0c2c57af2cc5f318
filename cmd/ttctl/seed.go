package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"timetracker/internal/config"
	"timetracker/internal/store"
	"timetracker/internal/store/sqlite"
)

func seedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file.toml]",
		Short: "Create the entries listed in a TOML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := store.LoadSeed(args[0])
			if err != nil {
				return err
			}

			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmdContext(cmd)
			for i, in := range inputs {
				res, err := a.mutator.Create(ctx, in)
				if err != nil {
					return fmt.Errorf("seed entry %d: %w", i+1, err)
				}
				if err := mutationError(res); err != nil {
					return fmt.Errorf("seed entry %d: %w", i+1, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d entries\n", len(inputs))
			return nil
		},
	}
}

func migrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.DataBackend != config.BackendSQLite {
				return fmt.Errorf("migrate only applies to the sqlite backend, not %q", cfg.DataBackend)
			}
			version, err := sqlite.RunMigrations(cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d (%s)\n", version, cfg.SQLiteDBPath)
			return nil
		},
	}
}
