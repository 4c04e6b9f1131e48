package pool

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

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
	if err := db.AutoMigrate(&models.Pool{}, &models.Download{}, &models.User{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// --- Registry tests ---

func TestRegister_Success(t *testing.T) {
	db := openTestDB(t)
	if err := Register(db, "datacenter", "DC", "datacenter proxies"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	p, err := Get(db, "datacenter")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Label != "DC" {
		t.Errorf("Label = %q, want %q", p.Label, "DC")
	}
	if p.Description != "datacenter proxies" {
		t.Errorf("Description = %q", p.Description)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	db := openTestDB(t)
	if err := Register(db, "dc", "DC", ""); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := Register(db, "dc", "Other", "")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("error = %v, want ErrAlreadyExists", err)
	}

	// The original row survives.
	p, err := Get(db, "dc")
	if err != nil {
		t.Fatal(err)
	}
	if p.Label != "DC" {
		t.Errorf("Label = %q, want original %q", p.Label, "DC")
	}
}

func TestRegister_MissingFields(t *testing.T) {
	db := openTestDB(t)
	if err := Register(db, "", "DC", ""); err == nil {
		t.Error("expected error for empty name")
	}
	if err := Register(db, "dc", "", ""); err == nil {
		t.Error("expected error for empty label")
	}
}

func TestList_OrderedByName(t *testing.T) {
	db := openTestDB(t)
	for _, name := range []string{"zulu", "alpha", "mike"} {
		if err := Register(db, name, "L", ""); err != nil {
			t.Fatal(err)
		}
	}
	pools, err := List(db)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pools) != 3 {
		t.Fatalf("len = %d, want 3", len(pools))
	}
	want := []string{"alpha", "mike", "zulu"}
	for i, p := range pools {
		if p.Name != want[i] {
			t.Errorf("pools[%d] = %q, want %q", i, p.Name, want[i])
		}
	}
}

func TestGet_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := Get(db, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

// --- Source tests ---

func TestSource_Entries(t *testing.T) {
	dir := t.TempDir()
	content := "# header comment\nproxy1:8080\n\n  proxy2:8080  \n# trailing comment\nproxy3:8080\n"
	if err := os.WriteFile(filepath.Join(dir, "dc"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src := Source{Dir: dir}
	entries, err := src.Entries("dc")
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	want := []string{"proxy1:8080", "proxy2:8080", "proxy3:8080"}
	if len(entries) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(entries), len(want), entries)
	}
	for i, e := range entries {
		if e != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, e, want[i])
		}
	}
}

func TestSource_Entries_MissingFile(t *testing.T) {
	src := Source{Dir: t.TempDir()}
	entries, err := src.Entries("nope")
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if entries != nil {
		t.Errorf("entries = %v, want nil", entries)
	}
}

func TestSource_Append(t *testing.T) {
	dir := t.TempDir()
	src := Source{Dir: dir}

	n, err := src.Append("dc", []string{"p1:80", "  ", "p2:80"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if n != 2 {
		t.Errorf("written = %d, want 2 (blank entry skipped)", n)
	}

	entries, err := src.Entries("dc")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0] != "p1:80" || entries[1] != "p2:80" {
		t.Errorf("entries = %v", entries)
	}

	// Appends accumulate.
	if _, err := src.Append("dc", []string{"p3:80"}); err != nil {
		t.Fatal(err)
	}
	entries, err = src.Entries("dc")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 || entries[2] != "p3:80" {
		t.Errorf("entries after second append = %v", entries)
	}
}

func TestSource_Append_Empty(t *testing.T) {
	src := Source{Dir: filepath.Join(t.TempDir(), "never-created")}
	n, err := src.Append("dc", nil)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if n != 0 {
		t.Errorf("written = %d, want 0", n)
	}
	if _, err := os.Stat(src.Dir); !os.IsNotExist(err) {
		t.Error("empty append should not create the directory")
	}
}

func TestSource_Entries_FreshRead(t *testing.T) {
	dir := t.TempDir()
	src := Source{Dir: dir}
	if _, err := src.Append("dc", []string{"p1:80"}); err != nil {
		t.Fatal(err)
	}
	if got, _ := src.Entries("dc"); len(got) != 1 {
		t.Fatalf("entries = %v", got)
	}

	// An external append is visible on the next read, no restart needed.
	f, err := os.OpenFile(filepath.Join(dir, "dc"), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("p2:80\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got, err := src.Entries("dc")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("entries = %v, want external append visible", got)
	}
}

// --- Download log tests ---

func TestLogDownload_And_DownloadsFor(t *testing.T) {
	db := openTestDB(t)
	for i := 0; i < 3; i++ {
		if err := LogDownload(db, "U1", "dc"); err != nil {
			t.Fatalf("LogDownload: %v", err)
		}
	}
	if err := LogDownload(db, "U2", "resi"); err != nil {
		t.Fatal(err)
	}

	rows, err := DownloadsFor(db, "U1", 0)
	if err != nil {
		t.Fatalf("DownloadsFor: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("len = %d, want 3", len(rows))
	}
	for _, d := range rows {
		if d.UserID != "U1" {
			t.Errorf("row for %q leaked into U1's list", d.UserID)
		}
	}
}

func TestRecentDownloads_JoinsUserName(t *testing.T) {
	db := openTestDB(t)
	if err := db.Create(&models.User{ID: "U1", UserName: "alice", Platform: "discord"}).Error; err != nil {
		t.Fatal(err)
	}
	if err := LogDownload(db, "U1", "dc"); err != nil {
		t.Fatal(err)
	}
	// A download from a user never upserted still shows, with empty name.
	if err := LogDownload(db, "U9", "resi"); err != nil {
		t.Fatal(err)
	}

	rows, err := RecentDownloads(db, 10)
	if err != nil {
		t.Fatalf("RecentDownloads: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}

	byUser := map[string]DownloadInfo{}
	for _, r := range rows {
		byUser[r.UserID] = r
	}
	if byUser["U1"].UserName != "alice" {
		t.Errorf("U1 UserName = %q, want alice", byUser["U1"].UserName)
	}
	if byUser["U9"].UserName != "" {
		t.Errorf("U9 UserName = %q, want empty", byUser["U9"].UserName)
	}
}

func TestRecentDownloads_NewestFirst(t *testing.T) {
	db := openTestDB(t)
	for _, name := range []string{"first", "second", "third"} {
		if err := LogDownload(db, "U1", name); err != nil {
			t.Fatal(err)
		}
	}
	rows, err := RecentDownloads(db, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want limit 2", len(rows))
	}
	if rows[0].PoolName != "third" {
		t.Errorf("rows[0] = %q, want newest first", rows[0].PoolName)
	}
}
