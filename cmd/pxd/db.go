package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/proxydepot/internal/config"
	"github.com/zulandar/proxydepot/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBMigrateCmd())
	return cmd
}

func newDBMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update all tables and seed configured pools",
		Long:  "Runs the idempotent schema migration and upserts the pools declared in the config file, creating their backing files if missing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBMigrate(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "proxydepot.yaml", "path to config file")
	return cmd
}

func runDBMigrate(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Storage)
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if err := db.SeedPools(gormDB, cfg.PoolDir, cfg.Pools); err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d pools\n", len(cfg.Pools))
	return nil
}
