package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/proxydepot/internal/config"
	"github.com/zulandar/proxydepot/internal/dashboard"
	"github.com/zulandar/proxydepot/internal/db"
	"github.com/zulandar/proxydepot/internal/relay"
	discordadapter "github.com/zulandar/proxydepot/internal/relay/discord"
	slackadapter "github.com/zulandar/proxydepot/internal/relay/slack"
	"gorm.io/gorm"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay daemon",
		Long:  "Connects to the configured chat platform, serves proxy and ticket commands, and optionally exposes the JSON dashboard.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "proxydepot.yaml", "path to config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := loadAndConnect(configPath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	if err := db.SeedPools(gormDB, cfg.PoolDir, cfg.Pools); err != nil {
		return err
	}

	adapter, err := buildAdapter(cfg)
	if err != nil {
		return err
	}

	daemon, err := relay.NewDaemon(relay.DaemonOpts{
		DB:      gormDB,
		Config:  cfg,
		Adapter: adapter,
		Out:     out,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Dashboard.Enabled {
		go func() {
			if err := dashboard.Start(ctx, dashboard.StartOpts{
				DB:   gormDB,
				Port: cfg.Dashboard.Port,
				Out:  out,
			}); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "dashboard: %v\n", err)
			}
		}()
	}

	return daemon.Run(ctx)
}

// buildAdapter constructs the platform adapter selected by config.
func buildAdapter(cfg *config.Config) (relay.Adapter, error) {
	switch cfg.Platform.Kind {
	case "", "discord":
		return discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  cfg.Platform.BotToken,
			ChannelID: cfg.Platform.ChannelID,
		})
	case "slack":
		return slackadapter.New(slackadapter.AdapterOpts{
			AppToken:  cfg.Platform.AppToken,
			BotToken:  cfg.Platform.BotToken,
			ChannelID: cfg.Platform.ChannelID,
		})
	default:
		return nil, fmt.Errorf("unknown platform %q", cfg.Platform.Kind)
	}
}

// loadAndConnect loads the config file and opens the database.
func loadAndConnect(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Connect(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}
