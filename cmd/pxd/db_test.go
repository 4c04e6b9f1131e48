package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestConfig writes a minimal sqlite config into dir and returns its path.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	yaml := `
admins: ["ADMIN"]
pool_dir: ` + filepath.Join(dir, "pools") + `
storage:
  backend: sqlite
  path: ` + filepath.Join(dir, "depot.db") + `
pools:
  - name: dc
    label: Datacenter
`
	path := filepath.Join(dir, "proxydepot.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDBMigrateCmd(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"db", "migrate", "-c", cfgPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("db migrate failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Migrated") {
		t.Errorf("output = %s", out)
	}
	if !strings.Contains(out, "Seeded 1 pools") {
		t.Errorf("output = %s", out)
	}

	// The database file and the pool backing file both exist now.
	if _, err := os.Stat(filepath.Join(dir, "depot.db")); err != nil {
		t.Errorf("database file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "pools", "dc")); err != nil {
		t.Errorf("pool backing file: %v", err)
	}
}

func TestDBMigrateCmd_MissingConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"db", "migrate", "-c", filepath.Join(t.TempDir(), "nope.yaml")})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDBMigrateCmd_Idempotent(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	for i := 0; i < 2; i++ {
		cmd := newRootCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetErr(new(bytes.Buffer))
		cmd.SetArgs([]string{"db", "migrate", "-c", cfgPath})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}
}
