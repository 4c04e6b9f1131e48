package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zulandar/proxydepot/internal/config"
	"github.com/zulandar/proxydepot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Pool{},
		&models.RotationCursor{},
		&models.DispensedEntry{},
		&models.Issuance{},
		&models.Download{},
		&models.User{},
		&models.Ticket{},
	}
}

// AutoMigrate creates or updates all tables. Safe to run repeatedly.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedPools upserts Pool rows from configuration and makes sure each pool
// has a backing file under poolDir so admins can append entries right away.
func SeedPools(db *gorm.DB, poolDir string, pools []config.PoolConfig) error {
	if len(pools) == 0 {
		return nil
	}
	if err := os.MkdirAll(poolDir, 0o755); err != nil {
		return fmt.Errorf("db: create pool dir %s: %w", poolDir, err)
	}

	for _, pc := range pools {
		pool := models.Pool{
			Name:        pc.Name,
			Label:       pc.Label,
			Description: pc.Description,
		}

		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"label", "description"}),
		}).Create(&pool)
		if result.Error != nil {
			return fmt.Errorf("db: seed pool %q: %w", pc.Name, result.Error)
		}

		path := filepath.Join(poolDir, pc.Name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte("# one proxy entry per line\n"), 0o644); err != nil {
				return fmt.Errorf("db: create pool file %s: %w", path, err)
			}
		}
	}
	return nil
}
