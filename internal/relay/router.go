package relay

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Router classifies inbound chat messages: "!px" commands go to the
// CommandHandler, everything else is ignored. Command results are sent
// back to the originating channel; admin notes go to the admin channel.
type Router struct {
	cmdHandler     *CommandHandler
	adapter        Adapter
	botUserID      string // the bot's own user ID (to filter self-messages)
	adminChannelID string
	out            io.Writer
}

// RouterOpts holds parameters for creating a Router.
type RouterOpts struct {
	CmdHandler     *CommandHandler
	Adapter        Adapter
	BotUserID      string    // bot's user ID for self-message filtering
	AdminChannelID string    // channel for ticket notifications and digests
	Out            io.Writer // defaults to os.Stdout
}

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.CmdHandler == nil {
		return nil, fmt.Errorf("relay: router: command handler is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("relay: router: adapter is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Router{
		cmdHandler:     opts.CmdHandler,
		adapter:        opts.Adapter,
		botUserID:      opts.BotUserID,
		adminChannelID: opts.AdminChannelID,
		out:            out,
	}, nil
}

// Handle classifies and routes a single inbound message.
func (r *Router) Handle(ctx context.Context, msg InboundMessage) {
	if r.isSelfMessage(msg) {
		return
	}

	text := strings.TrimSpace(msg.Text)
	if !isCommand(text) {
		return
	}
	fmt.Fprintf(r.out, "relay: router: recv [ch=%s user=%s] %q\n",
		msg.ChannelID, msg.UserName, truncate(text, 80))

	result := r.cmdHandler.Execute(msg)

	if result.Reply != "" {
		if err := r.adapter.Send(ctx, OutboundMessage{
			ChannelID: msg.ChannelID,
			Text:      result.Reply,
		}); err != nil {
			log.Printf("relay: router: send reply: %v", err)
		}
	}

	if result.AdminNote != nil {
		if err := r.adapter.Send(ctx, OutboundMessage{
			ChannelID: r.adminChannelID,
			Events:    []Event{*result.AdminNote},
		}); err != nil {
			log.Printf("relay: router: send admin note: %v", err)
		}
	}
}

// isSelfMessage returns true if the message is from the bot itself.
func (r *Router) isSelfMessage(msg InboundMessage) bool {
	return r.botUserID != "" && msg.UserID == r.botUserID
}

// isCommand returns true if the text starts with the command prefix.
func isCommand(text string) bool {
	return strings.HasPrefix(text, commandPrefix+" ") || text == commandPrefix
}

// truncate returns s truncated to maxLen with "..." appended if needed.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
