package rotation

import (
	"fmt"

	"github.com/zulandar/proxydepot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record marks an entry as dispensed from a pool. Returns true if the row
// was inserted, false if the (entry, pool) pair was already recorded.
// The ledger is advisory bookkeeping: a false return never blocks an
// allocation, it only tells the caller the entry is a repeat.
func Record(db *gorm.DB, entry, poolName string) (bool, error) {
	row := models.DispensedEntry{Entry: entry, PoolName: poolName}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return false, fmt.Errorf("rotation: record %q in %q: %w", entry, poolName, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DispensedCount returns the number of distinct entries ever dispensed.
func DispensedCount(db *gorm.DB) (int64, error) {
	var n int64
	if err := db.Model(&models.DispensedEntry{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("rotation: dispensed count: %w", err)
	}
	return n, nil
}
