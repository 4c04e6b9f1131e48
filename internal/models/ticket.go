package models

import "time"

// Ticket is a support request and its lifecycle to resolution.
// Status moves open → closed exactly once, when an admin replies.
// Reply fields are nil until then.
type Ticket struct {
	ID                 uint    `gorm:"primaryKey;autoIncrement"`
	UserID             string  `gorm:"size:64;not null;index"`
	UserName           string  `gorm:"size:128"`
	Message            string  `gorm:"type:text"`
	AttachmentRef      string  `gorm:"size:256"`
	Status             string  `gorm:"size:16;default:open;index"`
	AdminID            *string `gorm:"size:64"`
	ReplyMessage       *string `gorm:"type:text"`
	ReplyAttachmentRef *string `gorm:"size:256"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	RepliedAt          *time.Time
}
