package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/codr1/courtbook/internal/config"
	"github.com/codr1/courtbook/internal/db"
	"github.com/codr1/courtbook/internal/scheduler"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	DBPath     string
}

// NewRootCommand creates the courtctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "courtctl",
		Short:         "Administer a courtbook deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "config/app.yaml", "path to the yaml configuration")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database file (overrides database.filename)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))

	return cmd
}

func (o *RootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if o.DBPath != "" {
		cfg.Database.Filename = o.DBPath
	}
	return cfg, nil
}

// NewMigrateCommand creates the migrate command with up, down and version.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect schema migrations",
	}

	run := func(action func(cmd *cobra.Command, m *migrate.Migrate) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(cfg.Database.Filename), 0755); err != nil {
				return fmt.Errorf("create database directory: %w", err)
			}
			sqlDB, err := db.OpenWithoutMigrations(cfg.Database.Filename)
			if err != nil {
				return err
			}
			m, err := db.NewMigrate(sqlDB)
			if err != nil {
				_ = sqlDB.Close()
				return err
			}
			defer m.Close()
			return action(cmd, m)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, m *migrate.Migrate) error {
			if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("migration up failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, m *migrate.Migrate) error {
			if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("migration down failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations rolled back")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, m *migrate.Migrate) error {
			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Fprintln(cmd.OutOrStdout(), "Version: none")
				return nil
			}
			if err != nil {
				return fmt.Errorf("get version failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %d, Dirty: %v\n", version, dirty)
			return nil
		}),
	})

	return cmd
}

// NewSweepCommand runs one expiry and completion pass and prints the counts.
func NewSweepCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire late bookings and complete finished ones once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			database, err := db.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			sweeper := scheduler.NewSweeper(database,
				scheduler.WithSweeperLocation(loc),
				scheduler.WithGrace(cfg.SweepGrace()),
				scheduler.WithUnpaidConfirmed(cfg.Sweeper.IncludeUnpaidConfirmed),
				scheduler.WithCompletion(cfg.Sweeper.CompleteAfterEnd),
			)
			result, err := sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(result)
		},
	}
}
