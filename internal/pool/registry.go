// Package pool manages the pool registry and the text files backing each pool.
package pool

import (
	"errors"
	"fmt"

	"github.com/zulandar/proxydepot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAlreadyExists is returned by Register when the pool name is taken.
var ErrAlreadyExists = errors.New("pool: already exists")

// ErrNotFound is returned when a pool is not in the registry.
var ErrNotFound = errors.New("pool: not found")

// Register adds a pool to the registry. Returns ErrAlreadyExists if a pool
// with the same name is already registered.
func Register(db *gorm.DB, name, label, description string) error {
	if name == "" {
		return fmt.Errorf("pool: name is required")
	}
	if label == "" {
		return fmt.Errorf("pool: label is required")
	}

	p := models.Pool{Name: name, Label: label, Description: description}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&p)
	if result.Error != nil {
		return fmt.Errorf("pool: register %q: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// List returns all registered pools ordered by name.
func List(db *gorm.DB) ([]models.Pool, error) {
	var pools []models.Pool
	if err := db.Order("name").Find(&pools).Error; err != nil {
		return nil, fmt.Errorf("pool: list: %w", err)
	}
	return pools, nil
}

// Get looks up a single pool by name.
func Get(db *gorm.DB, name string) (*models.Pool, error) {
	var p models.Pool
	if err := db.Where("name = ?", name).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("pool: get %q: %w", name, err)
	}
	return &p, nil
}
