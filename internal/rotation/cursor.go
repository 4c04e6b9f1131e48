package rotation

import (
	"fmt"

	"github.com/zulandar/proxydepot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetCursor returns the last dispensed index for a pool, or 0 if no
// allocation has happened yet.
func GetCursor(db *gorm.DB, poolName string) (int, error) {
	var cur models.RotationCursor
	result := db.Where("pool_name = ?", poolName).Limit(1).Find(&cur)
	if result.Error != nil {
		return 0, fmt.Errorf("rotation: get cursor %q: %w", poolName, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, nil
	}
	return cur.LastIndex, nil
}

// SetCursor upserts the cursor for a pool: insert if absent, overwrite if
// present. Cursors for different pools never interfere.
func SetCursor(db *gorm.DB, poolName string, index int) error {
	return setCursor(db, poolName, index)
}

func setCursor(db *gorm.DB, poolName string, index int) error {
	cur := models.RotationCursor{PoolName: poolName, LastIndex: index}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pool_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_index", "updated_at"}),
	}).Create(&cur).Error
	if err != nil {
		return fmt.Errorf("set cursor %q: %w", poolName, err)
	}
	return nil
}
