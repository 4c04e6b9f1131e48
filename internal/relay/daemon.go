package relay

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/zulandar/proxydepot/internal/config"
	"github.com/zulandar/proxydepot/internal/pool"
	"gorm.io/gorm"
)

// Daemon is the main relay process. It connects to a chat platform via an
// Adapter, pumps inbound messages through the Router, and posts periodic
// digests to the admin channel.
type Daemon struct {
	db      *gorm.DB
	cfg     *config.Config
	adapter Adapter
	out     io.Writer
}

// DaemonOpts holds parameters for creating a new Daemon.
type DaemonOpts struct {
	DB      *gorm.DB
	Config  *config.Config
	Adapter Adapter
	Out     io.Writer // defaults to os.Stdout
}

// NewDaemon creates a Daemon with the given options.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("relay: db is required")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("relay: config is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("relay: adapter is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Daemon{
		db:      opts.DB,
		cfg:     opts.Config,
		adapter: opts.Adapter,
		out:     out,
	}, nil
}

// Run starts the relay daemon. It connects the adapter, builds the router,
// and blocks until the context is cancelled. On shutdown it closes the
// adapter gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "Relay connecting...\n")
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("relay: connect: %w", err)
	}

	// Extract bot user ID if the adapter supports it.
	var botUserID string
	if bui, ok := d.adapter.(BotUserIDer); ok {
		botUserID = bui.BotUserID()
	}

	cmdHandler, err := NewCommandHandler(CommandHandlerOpts{
		DB:     d.db,
		Config: d.cfg,
		Source: pool.Source{Dir: d.cfg.PoolDir},
	})
	if err != nil {
		return err
	}

	router, err := NewRouter(RouterOpts{
		CmdHandler:     cmdHandler,
		Adapter:        d.adapter,
		BotUserID:      botUserID,
		AdminChannelID: d.cfg.Platform.AdminChannelID,
		Out:            d.out,
	})
	if err != nil {
		return err
	}

	inbound, err := d.adapter.Listen(ctx)
	if err != nil {
		return fmt.Errorf("relay: listen: %w", err)
	}

	if d.cfg.DigestCron != "" {
		go d.runDigest(ctx)
	}

	fmt.Fprintf(d.out, "Relay connected, waiting for messages\n")
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "Relay shutting down\n")
			return d.adapter.Close()
		case msg, ok := <-inbound:
			if !ok {
				return d.adapter.Close()
			}
			router.Handle(ctx, msg)
		}
	}
}
