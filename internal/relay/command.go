package relay

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/zulandar/proxydepot/internal/config"
	"github.com/zulandar/proxydepot/internal/pool"
	"github.com/zulandar/proxydepot/internal/rotation"
	"github.com/zulandar/proxydepot/internal/ticket"
	"github.com/zulandar/proxydepot/internal/users"
	"gorm.io/gorm"
)

// commandPrefix is the prefix that triggers command handling.
const commandPrefix = "!px"

// maxDownloadEntries caps how many entries a chat download returns; pool
// files can outgrow a single platform message.
const maxDownloadEntries = 200

// Result is the outcome of executing one command: a reply for the
// originating channel and an optional note for the admin channel.
type Result struct {
	Reply     string
	AdminNote *Event
}

// CommandHandler processes "!px" commands from chat.
type CommandHandler struct {
	db  *gorm.DB
	cfg *config.Config
	src pool.Source
}

// CommandHandlerOpts holds parameters for creating a CommandHandler.
type CommandHandlerOpts struct {
	DB     *gorm.DB
	Config *config.Config
	Source pool.Source
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(opts CommandHandlerOpts) (*CommandHandler, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("relay: command handler: db is required")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("relay: command handler: config is required")
	}
	return &CommandHandler{db: opts.DB, cfg: opts.Config, src: opts.Source}, nil
}

// Execute parses and executes a "!px" command string from the given user.
func (ch *CommandHandler) Execute(msg InboundMessage) Result {
	if err := users.Ensure(ch.db, msg.UserID, msg.UserName, msg.Platform); err != nil {
		// Tracking failure shouldn't block the command itself.
		log.Printf("relay: ensure user %s: %v", msg.UserID, err)
	}

	args := parseCommand(msg.Text)
	if len(args) == 0 {
		return Result{Reply: ch.helpText(msg.UserID)}
	}

	switch args[0] {
	case "proxy":
		return ch.cmdProxy(msg, args[1:])
	case "pools":
		return Result{Reply: ch.cmdPools()}
	case "history":
		return Result{Reply: ch.cmdHistory(msg.UserID, args[1:])}
	case "download":
		return ch.cmdDownload(msg, args[1:])
	case "mydownloads":
		return Result{Reply: ch.cmdMyDownloads(msg.UserID)}
	case "support":
		return ch.cmdSupport(msg, args[1:])
	case "mytickets":
		return Result{Reply: ch.cmdMyTickets(msg.UserID)}
	case "stats":
		return Result{Reply: ch.cmdStats()}
	case "tickets":
		return ch.adminOnly(msg.UserID, func() Result {
			return Result{Reply: ch.cmdTickets()}
		})
	case "reply":
		return ch.adminOnly(msg.UserID, func() Result {
			return ch.cmdReply(msg, args[1:])
		})
	case "addpool":
		return ch.adminOnly(msg.UserID, func() Result {
			return Result{Reply: ch.cmdAddPool(args[1:])}
		})
	case "addproxies":
		return ch.adminOnly(msg.UserID, func() Result {
			return Result{Reply: ch.cmdAddProxies(args[1:])}
		})
	case "downloads":
		return ch.adminOnly(msg.UserID, func() Result {
			return Result{Reply: ch.cmdDownloads()}
		})
	case "help":
		return Result{Reply: ch.helpText(msg.UserID)}
	default:
		return Result{Reply: fmt.Sprintf("Unknown command: `%s`\n\n%s", args[0], ch.helpText(msg.UserID))}
	}
}

// parseCommand strips the "!px" prefix and splits the remaining text.
func parseCommand(text string) []string {
	text = strings.TrimSpace(text)
	if text == commandPrefix {
		return nil
	}
	text = strings.TrimPrefix(text, commandPrefix+" ")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return strings.Fields(text)
}

// adminOnly runs fn if the user is a configured admin.
func (ch *CommandHandler) adminOnly(userID string, fn func() Result) Result {
	if !ch.cfg.IsAdmin(userID) {
		return Result{Reply: "This command is for administrators."}
	}
	return fn()
}

// cmdProxy allocates the next entry from a pool and records the issuance.
func (ch *CommandHandler) cmdProxy(msg InboundMessage, args []string) Result {
	if len(args) == 0 {
		return Result{Reply: "Usage: `!px proxy <pool>` — see `!px pools` for names"}
	}
	name := args[0]

	entry, err := rotation.Allocate(ch.db, ch.src, name)
	switch {
	case errors.Is(err, rotation.ErrPoolNotFound):
		return Result{Reply: fmt.Sprintf("No pool named `%s`. Try `!px pools`.", name)}
	case errors.Is(err, rotation.ErrPoolEmpty):
		return Result{Reply: fmt.Sprintf("Pool `%s` has no entries right now.", name)}
	case err != nil:
		return Result{Reply: fmt.Sprintf("Error allocating from `%s`: %v", name, err)}
	}

	// Ledger and history are bookkeeping; a duplicate never fails the
	// allocation, it just means the rotation wrapped around.
	inserted, err := rotation.Record(ch.db, entry, name)
	if err != nil {
		log.Printf("relay: record dispense %q in %q: %v", entry, name, err)
	} else if !inserted {
		log.Printf("relay: entry %q from %q re-dispensed (wraparound)", entry, name)
	}

	label := name
	if p, err := pool.Get(ch.db, name); err == nil {
		label = p.Label
	}
	if err := rotation.SaveIssuance(ch.db, msg.UserID, entry, label); err != nil {
		log.Printf("relay: save issuance: %v", err)
	}

	return Result{Reply: fmt.Sprintf("Your proxy from %s:\n`%s`", label, entry)}
}

// cmdPools lists registered pools.
func (ch *CommandHandler) cmdPools() string {
	pools, err := pool.List(ch.db)
	if err != nil {
		return fmt.Sprintf("Error listing pools: %v", err)
	}
	if len(pools) == 0 {
		return "No pools registered."
	}
	return formatPoolTable(pools)
}

// cmdHistory shows the user's recent issuances.
func (ch *CommandHandler) cmdHistory(userID string, args []string) string {
	limit := 10
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}
	rows, err := rotation.History(ch.db, userID, limit)
	if err != nil {
		return fmt.Sprintf("Error loading history: %v", err)
	}
	if len(rows) == 0 {
		return "No proxies issued to you yet. Try `!px proxy <pool>`."
	}
	return formatHistory(rows)
}

// cmdDownload returns the pool file contents and logs the download.
func (ch *CommandHandler) cmdDownload(msg InboundMessage, args []string) Result {
	if len(args) == 0 {
		return Result{Reply: "Usage: `!px download <pool>`"}
	}
	name := args[0]

	if _, err := pool.Get(ch.db, name); errors.Is(err, pool.ErrNotFound) {
		return Result{Reply: fmt.Sprintf("No pool named `%s`. Try `!px pools`.", name)}
	} else if err != nil {
		return Result{Reply: fmt.Sprintf("Error: %v", err)}
	}

	entries, err := ch.src.Entries(name)
	if err != nil {
		return Result{Reply: fmt.Sprintf("Error reading pool `%s`: %v", name, err)}
	}
	if len(entries) == 0 {
		return Result{Reply: fmt.Sprintf("Pool `%s` is empty.", name)}
	}

	if err := pool.LogDownload(ch.db, msg.UserID, name); err != nil {
		log.Printf("relay: log download: %v", err)
	}

	truncated := false
	if len(entries) > maxDownloadEntries {
		entries = entries[:maxDownloadEntries]
		truncated = true
	}
	reply := fmt.Sprintf("Pool `%s` (%d entries):\n```\n%s\n```", name, len(entries), strings.Join(entries, "\n"))
	if truncated {
		reply += fmt.Sprintf("\n(truncated to first %d entries)", maxDownloadEntries)
	}
	return Result{Reply: reply}
}

// cmdMyDownloads shows the user's recent pool downloads.
func (ch *CommandHandler) cmdMyDownloads(userID string) string {
	rows, err := pool.DownloadsFor(ch.db, userID, 20)
	if err != nil {
		return fmt.Sprintf("Error loading downloads: %v", err)
	}
	if len(rows) == 0 {
		return "You haven't downloaded any pool files yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Your downloads (%d):\n", len(rows))
	for _, d := range rows {
		fmt.Fprintf(&b, "%s  %s\n", d.CreatedAt.Format("2006-01-02 15:04"), d.PoolName)
	}
	return b.String()
}

// cmdSupport opens a support ticket and notifies the admin channel.
func (ch *CommandHandler) cmdSupport(msg InboundMessage, args []string) Result {
	if len(args) == 0 {
		return Result{Reply: "Usage: `!px support <your message>`"}
	}
	text := strings.Join(args, " ")
	if len(text) > ch.cfg.MaxFeedbackLength {
		text = text[:ch.cfg.MaxFeedbackLength]
	}

	t, err := ticket.Create(ch.db, ticket.CreateOpts{
		UserID:   msg.UserID,
		UserName: msg.UserName,
		Message:  text,
	}, ch.cfg.TicketQuota)
	switch {
	case errors.Is(err, ticket.ErrQuotaExceeded):
		return Result{Reply: fmt.Sprintf(
			"You already have %d open tickets. Please wait for a reply before opening another.",
			ch.cfg.TicketQuota)}
	case err != nil:
		return Result{Reply: fmt.Sprintf("Error creating ticket: %v", err)}
	}

	return Result{
		Reply: fmt.Sprintf("Ticket #%d created. An administrator will reply here.", t.ID),
		AdminNote: &Event{
			Title:    fmt.Sprintf("New ticket #%d", t.ID),
			Body:     text,
			Severity: "warning",
			Fields: []Field{
				{Name: "From", Value: fmt.Sprintf("%s (%s)", msg.UserName, msg.UserID), Short: true},
				{Name: "Reply with", Value: fmt.Sprintf("`!px reply %d <text>`", t.ID), Short: true},
			},
		},
	}
}

// cmdMyTickets lists the user's tickets with their status and replies.
func (ch *CommandHandler) cmdMyTickets(userID string) string {
	ts, err := ticket.ListForUser(ch.db, userID)
	if err != nil {
		return fmt.Sprintf("Error loading tickets: %v", err)
	}
	if len(ts) == 0 {
		return "You have no tickets. Open one with `!px support <message>`."
	}
	return formatTicketList(ts, true)
}

// cmdTickets lists all open tickets (admin).
func (ch *CommandHandler) cmdTickets() string {
	ts, err := ticket.ListOpen(ch.db)
	if err != nil {
		return fmt.Sprintf("Error loading tickets: %v", err)
	}
	if len(ts) == 0 {
		return "No open tickets."
	}
	return formatTicketList(ts, false)
}

// cmdReply closes a ticket with the admin's answer (admin).
func (ch *CommandHandler) cmdReply(msg InboundMessage, args []string) Result {
	if len(args) < 2 {
		return Result{Reply: "Usage: `!px reply <ticket-id> <text>`"}
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return Result{Reply: fmt.Sprintf("Bad ticket id %q.", args[0])}
	}
	text := strings.Join(args[1:], " ")

	err = ticket.Reply(ch.db, uint(id), msg.UserID, text, "")
	switch {
	case errors.Is(err, ticket.ErrNotFound):
		return Result{Reply: fmt.Sprintf("Ticket #%d not found.", id)}
	case errors.Is(err, ticket.ErrAlreadyClosed):
		return Result{Reply: fmt.Sprintf("Ticket #%d is already closed.", id)}
	case err != nil:
		return Result{Reply: fmt.Sprintf("Error replying to ticket #%d: %v", id, err)}
	}

	t, err := ticket.Get(ch.db, uint(id))
	if err != nil {
		return Result{Reply: fmt.Sprintf("Ticket #%d closed.", id)}
	}
	return Result{Reply: fmt.Sprintf("Ticket #%d closed.\n<@%s> support replied to your ticket:\n%s",
		id, t.UserID, text)}
}

// cmdAddPool registers a new pool (admin).
func (ch *CommandHandler) cmdAddPool(args []string) string {
	if len(args) < 2 {
		return "Usage: `!px addpool <name> <label> [description]`"
	}
	name, label := args[0], args[1]
	description := strings.Join(args[2:], " ")

	err := pool.Register(ch.db, name, label, description)
	switch {
	case errors.Is(err, pool.ErrAlreadyExists):
		return fmt.Sprintf("Pool `%s` already exists.", name)
	case err != nil:
		return fmt.Sprintf("Error registering pool: %v", err)
	}
	return fmt.Sprintf("Pool `%s` (%s) registered. Add entries with `!px addproxies %s <entries>`.",
		name, label, name)
}

// cmdAddProxies appends entries to a pool file (admin).
func (ch *CommandHandler) cmdAddProxies(args []string) string {
	if len(args) < 2 {
		return "Usage: `!px addproxies <pool> <entry> [entry...]`"
	}
	name := args[0]

	if _, err := pool.Get(ch.db, name); errors.Is(err, pool.ErrNotFound) {
		return fmt.Sprintf("No pool named `%s`. Register it first with `!px addpool`.", name)
	} else if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	n, err := ch.src.Append(name, args[1:])
	if err != nil {
		return fmt.Sprintf("Error appending to `%s`: %v", name, err)
	}
	return fmt.Sprintf("Added %d entries to `%s`.", n, name)
}

// cmdDownloads shows recent downloads across all users (admin).
func (ch *CommandHandler) cmdDownloads() string {
	rows, err := pool.RecentDownloads(ch.db, 50)
	if err != nil {
		return fmt.Sprintf("Error loading downloads: %v", err)
	}
	if len(rows) == 0 {
		return "No downloads recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Recent downloads (%d):\n", len(rows))
	for _, d := range rows {
		name := d.UserName
		if name == "" {
			name = d.UserID
		}
		fmt.Fprintf(&b, "%s  %-20s %s\n", d.CreatedAt.Format("2006-01-02 15:04"), name, d.PoolName)
	}
	return b.String()
}

// cmdStats summarizes depot activity.
func (ch *CommandHandler) cmdStats() string {
	s, err := CollectStats(ch.db)
	if err != nil {
		return fmt.Sprintf("Error collecting stats: %v", err)
	}
	return s.Format()
}

// helpText returns usage information; admins see the extra commands.
func (ch *CommandHandler) helpText(userID string) string {
	var b strings.Builder
	b.WriteString("**Proxy Depot Commands**\n" +
		"`!px proxy <pool>` — Get the next proxy from a pool\n" +
		"`!px pools` — List available pools\n" +
		"`!px history [n]` — Your recent proxies\n" +
		"`!px download <pool>` — Fetch a whole pool file\n" +
		"`!px mydownloads` — Your recent downloads\n" +
		"`!px support <message>` — Open a support ticket\n" +
		"`!px mytickets` — Your tickets and replies\n" +
		"`!px stats` — Depot statistics\n" +
		"`!px help` — This message")
	if ch.cfg.IsAdmin(userID) {
		b.WriteString("\n\n**Admin**\n" +
			"`!px tickets` — Open tickets\n" +
			"`!px reply <id> <text>` — Answer and close a ticket\n" +
			"`!px addpool <name> <label> [description]` — Register a pool\n" +
			"`!px addproxies <pool> <entries...>` — Append entries\n" +
			"`!px downloads` — Recent downloads, all users")
	}
	return b.String()
}
