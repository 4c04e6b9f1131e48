// Package ticket provides support ticket lifecycle operations.
package ticket

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/proxydepot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ticket statuses. A ticket is created open and closes exactly once,
// when an admin replies.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// ErrQuotaExceeded is returned by Create when the requester already has
// the maximum number of open tickets.
var ErrQuotaExceeded = errors.New("ticket: open ticket quota exceeded")

// ErrNotFound is returned when the ticket id does not exist.
var ErrNotFound = errors.New("ticket: not found")

// ErrAlreadyClosed is returned by Reply on a closed ticket. The existing
// reply fields are left untouched.
var ErrAlreadyClosed = errors.New("ticket: already closed")

// CreateOpts holds parameters for opening a ticket.
type CreateOpts struct {
	UserID        string
	UserName      string
	Message       string
	AttachmentRef string
}

// Create opens a new ticket for a requester, enforcing the open-ticket
// quota. The count and the insert run in one transaction so concurrent
// creates cannot slip past the limit.
func Create(db *gorm.DB, opts CreateOpts, quota int) (*models.Ticket, error) {
	if opts.UserID == "" {
		return nil, fmt.Errorf("ticket: user id is required")
	}
	if opts.Message == "" && opts.AttachmentRef == "" {
		return nil, fmt.Errorf("ticket: message or attachment is required")
	}

	t := models.Ticket{
		UserID:        opts.UserID,
		UserName:      opts.UserName,
		Message:       opts.Message,
		AttachmentRef: opts.AttachmentRef,
		Status:        StatusOpen,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.Ticket{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND status = ?", opts.UserID, StatusOpen).
			Count(&open).Error; err != nil {
			return fmt.Errorf("count open tickets: %w", err)
		}
		if open >= int64(quota) {
			return ErrQuotaExceeded
		}
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			return nil, ErrQuotaExceeded
		}
		return nil, fmt.Errorf("ticket: create for %s: %w", opts.UserID, err)
	}
	return &t, nil
}

// Reply closes an open ticket with the admin's answer and stamps the reply
// time. Replying to a closed ticket returns ErrAlreadyClosed without
// touching the stored reply.
func Reply(db *gorm.DB, ticketID uint, adminID, message, attachmentRef string) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		var t models.Ticket
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", ticketID).
			Limit(1).
			Find(&t)
		if result.Error != nil {
			return fmt.Errorf("load ticket: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if t.Status == StatusClosed {
			return ErrAlreadyClosed
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":        StatusClosed,
			"admin_id":      adminID,
			"reply_message": message,
			"replied_at":    now,
		}
		if attachmentRef != "" {
			updates["reply_attachment_ref"] = attachmentRef
		}
		if err := tx.Model(&models.Ticket{}).Where("id = ?", ticketID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("close ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyClosed) {
			return err
		}
		return fmt.Errorf("ticket: reply %d: %w", ticketID, err)
	}
	return nil
}

// Get returns a single ticket by id.
func Get(db *gorm.DB, ticketID uint) (*models.Ticket, error) {
	var t models.Ticket
	if err := db.Where("id = ?", ticketID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ticket: get %d: %w", ticketID, err)
	}
	return &t, nil
}

// ListOpen returns all open tickets, newest first.
func ListOpen(db *gorm.DB) ([]models.Ticket, error) {
	var ts []models.Ticket
	err := db.Where("status = ?", StatusOpen).
		Order("created_at DESC, id DESC").
		Find(&ts).Error
	if err != nil {
		return nil, fmt.Errorf("ticket: list open: %w", err)
	}
	return ts, nil
}

// ListForUser returns all of a requester's tickets, newest first.
func ListForUser(db *gorm.DB, userID string) ([]models.Ticket, error) {
	var ts []models.Ticket
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&ts).Error
	if err != nil {
		return nil, fmt.Errorf("ticket: list for %s: %w", userID, err)
	}
	return ts, nil
}

// OpenCount returns the number of currently open tickets.
func OpenCount(db *gorm.DB) (int64, error) {
	var n int64
	if err := db.Model(&models.Ticket{}).
		Where("status = ?", StatusOpen).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("ticket: open count: %w", err)
	}
	return n, nil
}
