package rotation

import (
	"fmt"

	"github.com/zulandar/proxydepot/internal/models"
	"gorm.io/gorm"
)

// SaveIssuance appends one row of per-user issuance history.
func SaveIssuance(db *gorm.DB, userID, entry, poolLabel string) error {
	row := models.Issuance{UserID: userID, Entry: entry, PoolLabel: poolLabel}
	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("rotation: save issuance for %s: %w", userID, err)
	}
	return nil
}

// History returns a user's issuances, newest first, ties broken by id.
func History(db *gorm.DB, userID string, limit int) ([]models.Issuance, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []models.Issuance
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("rotation: history for %s: %w", userID, err)
	}
	return rows, nil
}

// IssuedCount returns the total number of issuances across all users.
func IssuedCount(db *gorm.DB) (int64, error) {
	var n int64
	if err := db.Model(&models.Issuance{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("rotation: issued count: %w", err)
	}
	return n, nil
}
