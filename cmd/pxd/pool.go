package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/zulandar/proxydepot/internal/pool"
	"github.com/zulandar/proxydepot/internal/rotation"
)

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Pool management commands",
	}

	cmd.AddCommand(newPoolRegisterCmd())
	cmd.AddCommand(newPoolListCmd())
	cmd.AddCommand(newPoolAppendCmd())
	cmd.AddCommand(newPoolAllocateCmd())
	return cmd
}

func newPoolRegisterCmd() *cobra.Command {
	var configPath, description string

	cmd := &cobra.Command{
		Use:   "register <name> <label>",
		Short: "Register a new proxy pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := loadAndConnect(configPath)
			if err != nil {
				return err
			}
			err = pool.Register(gormDB, args[0], args[1], description)
			if errors.Is(err, pool.ErrAlreadyExists) {
				return fmt.Errorf("pool %q already exists", args[0])
			}
			if err != nil {
				return err
			}
			// Make sure the backing file exists so appends work right away.
			if err := os.MkdirAll(cfg.PoolDir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(cfg.PoolDir, args[0])
			if _, err := os.Stat(path); os.IsNotExist(err) {
				if err := os.WriteFile(path, []byte("# one proxy entry per line\n"), 0o644); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered pool %s (%s)\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "proxydepot.yaml", "path to config file")
	cmd.Flags().StringVarP(&description, "description", "d", "", "pool description")
	return cmd
}

func newPoolListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered pools with entry counts and cursors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := loadAndConnect(configPath)
			if err != nil {
				return err
			}
			pools, err := pool.List(gormDB)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			src := pool.Source{Dir: cfg.PoolDir}
			fmt.Fprintf(out, "%-20s %-16s %8s %8s\n", "NAME", "LABEL", "ENTRIES", "CURSOR")
			for _, p := range pools {
				entries, err := src.Entries(p.Name)
				if err != nil {
					return err
				}
				cursor, err := rotation.GetCursor(gormDB, p.Name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-20s %-16s %8d %8d\n", p.Name, p.Label, len(entries), cursor)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "proxydepot.yaml", "path to config file")
	return cmd
}

func newPoolAppendCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "append <name> <entry> [entry...]",
		Short: "Append entries to a pool file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := loadAndConnect(configPath)
			if err != nil {
				return err
			}
			if _, err := pool.Get(gormDB, args[0]); err != nil {
				return err
			}
			src := pool.Source{Dir: cfg.PoolDir}
			n, err := src.Append(args[0], args[1:])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d entries to %s\n", n, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "proxydepot.yaml", "path to config file")
	return cmd
}

func newPoolAllocateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "allocate <name>",
		Short: "Dispense the next entry from a pool (advances the cursor)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := loadAndConnect(configPath)
			if err != nil {
				return err
			}
			src := pool.Source{Dir: cfg.PoolDir}
			entry, err := rotation.Allocate(gormDB, src, args[0])
			if err != nil {
				return err
			}
			if inserted, err := rotation.Record(gormDB, entry, args[0]); err != nil {
				return err
			} else if !inserted {
				fmt.Fprintf(cmd.ErrOrStderr(), "note: entry was dispensed before (wraparound)\n")
			}
			fmt.Fprintln(cmd.OutOrStdout(), entry)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "proxydepot.yaml", "path to config file")
	return cmd
}
