package models

import "time"

// User is a chat user the bot has seen, upserted on first contact.
type User struct {
	ID        string `gorm:"primaryKey;size:64"`
	UserName  string `gorm:"size:128"`
	Platform  string `gorm:"size:16"`
	CreatedAt time.Time
}
