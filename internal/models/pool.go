package models

import "time"

// Pool is a registered proxy pool. The entries themselves live in a text
// file under the configured pool directory; this row carries the metadata.
type Pool struct {
	Name        string `gorm:"primaryKey;size:128"`
	Label       string `gorm:"size:128;not null"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
}

// RotationCursor marks the rotation position within a pool. One row per
// pool name, created lazily on first allocation.
type RotationCursor struct {
	PoolName  string `gorm:"primaryKey;size:128"`
	LastIndex int    `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// DispensedEntry records that an entry has been handed out from a pool.
// Unique on (entry, pool name); append-only.
type DispensedEntry struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Entry     string `gorm:"size:256;not null;uniqueIndex:idx_dispensed_entry_pool"`
	PoolName  string `gorm:"size:128;not null;uniqueIndex:idx_dispensed_entry_pool"`
	CreatedAt time.Time
}
