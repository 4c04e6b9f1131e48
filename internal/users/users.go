// Package users tracks chat users the bot has interacted with.
package users

import (
	"fmt"

	"github.com/zulandar/proxydepot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ensure upserts a user row on contact. The username is refreshed on every
// call so renames show up in admin listings.
func Ensure(db *gorm.DB, id, userName, platform string) error {
	if id == "" {
		return fmt.Errorf("users: id is required")
	}
	u := models.User{ID: id, UserName: userName, Platform: platform}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_name"}),
	}).Create(&u).Error
	if err != nil {
		return fmt.Errorf("users: ensure %s: %w", id, err)
	}
	return nil
}

// Count returns the number of users ever seen.
func Count(db *gorm.DB) (int64, error) {
	var n int64
	if err := db.Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("users: count: %w", err)
	}
	return n, nil
}
