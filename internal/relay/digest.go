package relay

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}

// runDigest posts a stats digest to the admin channel on the configured
// cron schedule. A bad expression disables the digest with a log line
// rather than taking the daemon down.
func (d *Daemon) runDigest(ctx context.Context) {
	if _, err := cronParser.Parse(d.cfg.DigestCron); err != nil {
		log.Printf("relay: digest: bad cron expression %q: %v", d.cfg.DigestCron, err)
		return
	}
	fmt.Fprintf(d.out, "Digest scheduled: %s\n", d.cfg.DigestCron)

	for {
		wait := nextCronDuration(d.cfg.DigestCron)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		s, err := CollectStats(d.db)
		if err != nil {
			log.Printf("relay: digest: %v", err)
			continue
		}
		if err := d.adapter.Send(ctx, OutboundMessage{
			ChannelID: d.cfg.Platform.AdminChannelID,
			Events:    []Event{s.Event()},
		}); err != nil {
			log.Printf("relay: digest: send: %v", err)
		}
	}
}
