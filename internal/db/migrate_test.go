package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zulandar/proxydepot/internal/config"
	"github.com/zulandar/proxydepot/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}

func TestAutoMigrate(t *testing.T) {
	db := openTestDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	// Running twice must be safe.
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("second AutoMigrate: %v", err)
	}
	for _, table := range []string{"pools", "rotation_cursors", "dispensed_entries", "issuances", "downloads", "users", "tickets"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("table %q missing after migration", table)
		}
	}
}

func TestSeedPools_CreatesRowsAndFiles(t *testing.T) {
	db := openTestDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	dir := t.TempDir()
	pools := []config.PoolConfig{
		{Name: "datacenter", Label: "DC", Description: "datacenter proxies"},
		{Name: "residential", Label: "Resi"},
	}
	if err := SeedPools(db, dir, pools); err != nil {
		t.Fatalf("SeedPools: %v", err)
	}

	var count int64
	if err := db.Model(&models.Pool{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("pool count = %d, want 2", count)
	}

	for _, name := range []string{"datacenter", "residential"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("backing file for %q: %v", name, err)
		}
	}
}

func TestSeedPools_UpsertsLabel(t *testing.T) {
	db := openTestDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	dir := t.TempDir()
	if err := SeedPools(db, dir, []config.PoolConfig{{Name: "dc", Label: "Old"}}); err != nil {
		t.Fatalf("first SeedPools: %v", err)
	}
	if err := SeedPools(db, dir, []config.PoolConfig{{Name: "dc", Label: "New", Description: "updated"}}); err != nil {
		t.Fatalf("second SeedPools: %v", err)
	}

	var p models.Pool
	if err := db.Where("name = ?", "dc").First(&p).Error; err != nil {
		t.Fatal(err)
	}
	if p.Label != "New" {
		t.Errorf("Label = %q, want %q", p.Label, "New")
	}
	if p.Description != "updated" {
		t.Errorf("Description = %q", p.Description)
	}
}

func TestSeedPools_DoesNotOverwriteExistingFile(t *testing.T) {
	db := openTestDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "dc")
	if err := os.WriteFile(path, []byte("host:port:u:p\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := SeedPools(db, dir, []config.PoolConfig{{Name: "dc", Label: "DC"}}); err != nil {
		t.Fatalf("SeedPools: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "host:port:u:p\n" {
		t.Errorf("file contents clobbered: %q", data)
	}
}

func TestSeedPools_EmptyListIsNoOp(t *testing.T) {
	db := openTestDB(t)
	if err := SeedPools(db, filepath.Join(t.TempDir(), "never-created"), nil); err != nil {
		t.Fatalf("SeedPools: %v", err)
	}
}

func TestDSN_MySQL(t *testing.T) {
	dsn := DSN(config.StorageConfig{
		Backend:  "mysql",
		Host:     "db.local",
		Port:     3307,
		Database: "depot",
		User:     "app",
		Password: "secret",
	})
	want := "app:secret@tcp(db.local:3307)/depot?parseTime=true"
	if dsn != want {
		t.Errorf("DSN = %q, want %q", dsn, want)
	}
}

func TestConnect_UnknownBackend(t *testing.T) {
	_, err := Connect(config.StorageConfig{Backend: "mongo"})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestConnect_SQLite(t *testing.T) {
	db, err := Connect(config.StorageConfig{
		Backend: "sqlite",
		Path:    filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate on file db: %v", err)
	}
}
