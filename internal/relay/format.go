package relay

import (
	"fmt"
	"strings"

	"github.com/zulandar/proxydepot/internal/models"
)

// formatPoolTable formats registered pools as a fixed-width table.
func formatPoolTable(pools []models.Pool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Pools** (%d)\n", len(pools))
	fmt.Fprintf(&b, "%-20s %-16s %s\n", "NAME", "LABEL", "DESCRIPTION")
	for _, p := range pools {
		desc := p.Description
		if len(desc) > 40 {
			desc = desc[:37] + "..."
		}
		fmt.Fprintf(&b, "%-20s %-16s %s\n", p.Name, p.Label, desc)
	}
	return b.String()
}

// formatHistory formats a user's issuance history, newest first.
func formatHistory(rows []models.Issuance) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your recent proxies (%d):\n", len(rows))
	for _, r := range rows {
		fmt.Fprintf(&b, "%s  %-12s %s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.PoolLabel, r.Entry)
	}
	return b.String()
}

// formatTicketList formats tickets for chat. withReplies controls whether
// closed tickets show the admin's answer (user view) or stay one-line
// (admin queue view).
func formatTicketList(ts []models.Ticket, withReplies bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Tickets** (%d)\n", len(ts))
	for _, t := range ts {
		msg := t.Message
		if len(msg) > 60 {
			msg = msg[:57] + "..."
		}
		fmt.Fprintf(&b, "#%-5d %-7s %s  %s\n",
			t.ID, t.Status, t.CreatedAt.Format("2006-01-02 15:04"), msg)
		if withReplies && t.Status == "closed" && t.ReplyMessage != nil {
			fmt.Fprintf(&b, "       ↳ %s\n", *t.ReplyMessage)
		}
	}
	return b.String()
}
