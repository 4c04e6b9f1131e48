package models

import "time"

// Issuance is one successful proxy dispense to a user.
type Issuance struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"size:64;not null;index"`
	Entry     string    `gorm:"size:256;not null"`
	PoolLabel string    `gorm:"size:128"`
	CreatedAt time.Time `gorm:"index"`
}

// Download records a user fetching a whole pool file.
type Download struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"size:64;not null;index"`
	PoolName  string `gorm:"size:128;not null"`
	CreatedAt time.Time
}
