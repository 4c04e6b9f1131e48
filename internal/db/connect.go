// Package db handles database connections and schema migration.
package db

import (
	"fmt"

	sqldriver "github.com/go-sql-driver/mysql"
	"github.com/zulandar/proxydepot/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN from storage settings.
func DSN(sc config.StorageConfig) string {
	mc := sqldriver.NewConfig()
	mc.User = sc.User
	mc.Passwd = sc.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", sc.Host, sc.Port)
	mc.DBName = sc.Database
	mc.ParseTime = true
	return mc.FormatDSN()
}

// Connect opens a GORM connection to the configured backend.
func Connect(sc config.StorageConfig) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	switch sc.Backend {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(sc.Path), gcfg)
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite %s: %w", sc.Path, err)
		}
		return db, nil
	case "mysql":
		db, err := gorm.Open(mysql.Open(DSN(sc)), gcfg)
		if err != nil {
			return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", sc.Host, sc.Port, sc.Database, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("db: unknown backend %q", sc.Backend)
	}
}
