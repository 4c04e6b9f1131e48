package relay

import (
	"fmt"
	"strings"

	"github.com/zulandar/proxydepot/internal/models"
	"github.com/zulandar/proxydepot/internal/rotation"
	"github.com/zulandar/proxydepot/internal/ticket"
	"github.com/zulandar/proxydepot/internal/users"
	"gorm.io/gorm"
)

// Stats is a point-in-time summary of depot activity.
type Stats struct {
	Pools       int64
	Users       int64
	Issued      int64
	Dispensed   int64
	OpenTickets int64
	Downloads   int64
}

// CollectStats gathers counters across all tables.
func CollectStats(db *gorm.DB) (*Stats, error) {
	var s Stats
	if err := db.Model(&models.Pool{}).Count(&s.Pools).Error; err != nil {
		return nil, fmt.Errorf("relay: count pools: %w", err)
	}
	var err error
	if s.Users, err = users.Count(db); err != nil {
		return nil, err
	}
	if s.Issued, err = rotation.IssuedCount(db); err != nil {
		return nil, err
	}
	if s.Dispensed, err = rotation.DispensedCount(db); err != nil {
		return nil, err
	}
	if s.OpenTickets, err = ticket.OpenCount(db); err != nil {
		return nil, err
	}
	if err := db.Model(&models.Download{}).Count(&s.Downloads).Error; err != nil {
		return nil, fmt.Errorf("relay: count downloads: %w", err)
	}
	return &s, nil
}

// Format renders the stats for chat.
func (s *Stats) Format() string {
	var b strings.Builder
	b.WriteString("**Depot statistics**\n")
	fmt.Fprintf(&b, "Pools:            %d\n", s.Pools)
	fmt.Fprintf(&b, "Users:            %d\n", s.Users)
	fmt.Fprintf(&b, "Proxies issued:   %d\n", s.Issued)
	fmt.Fprintf(&b, "Unique dispensed: %d\n", s.Dispensed)
	fmt.Fprintf(&b, "Open tickets:     %d\n", s.OpenTickets)
	fmt.Fprintf(&b, "File downloads:   %d\n", s.Downloads)
	return b.String()
}

// Event converts the stats into a digest event for the admin channel.
func (s *Stats) Event() Event {
	return Event{
		Title:    "Depot digest",
		Severity: "info",
		Fields: []Field{
			{Name: "Pools", Value: fmt.Sprintf("%d", s.Pools), Short: true},
			{Name: "Users", Value: fmt.Sprintf("%d", s.Users), Short: true},
			{Name: "Issued", Value: fmt.Sprintf("%d", s.Issued), Short: true},
			{Name: "Dispensed", Value: fmt.Sprintf("%d", s.Dispensed), Short: true},
			{Name: "Open tickets", Value: fmt.Sprintf("%d", s.OpenTickets), Short: true},
			{Name: "Downloads", Value: fmt.Sprintf("%d", s.Downloads), Short: true},
		},
	}
}
