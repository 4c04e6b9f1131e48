package pool

import (
	"fmt"
	"time"

	"github.com/zulandar/proxydepot/internal/models"
	"gorm.io/gorm"
)

// DownloadInfo is a download row joined with the user who made it.
type DownloadInfo struct {
	ID        uint
	UserID    string
	UserName  string
	PoolName  string
	CreatedAt time.Time
}

// LogDownload records that a user fetched the named pool file.
func LogDownload(db *gorm.DB, userID, poolName string) error {
	d := models.Download{UserID: userID, PoolName: poolName}
	if err := db.Create(&d).Error; err != nil {
		return fmt.Errorf("pool: log download: %w", err)
	}
	return nil
}

// RecentDownloads returns the most recent downloads across all users,
// newest first, joined with usernames.
func RecentDownloads(db *gorm.DB, limit int) ([]DownloadInfo, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []DownloadInfo
	err := db.Table("downloads").
		Select("downloads.id, downloads.user_id, users.user_name, downloads.pool_name, downloads.created_at").
		Joins("LEFT JOIN users ON users.id = downloads.user_id").
		Order("downloads.created_at DESC, downloads.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("pool: recent downloads: %w", err)
	}
	return rows, nil
}

// DownloadsFor returns one user's downloads, newest first.
func DownloadsFor(db *gorm.DB, userID string, limit int) ([]models.Download, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.Download
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("pool: downloads for %s: %w", userID, err)
	}
	return rows, nil
}
