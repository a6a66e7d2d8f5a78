package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCreateSQLMigrationKeepsVersionsIncreasing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "29991231235959_future.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("seed migration: %v", err)
	}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	path, err := createSQLMigration(dir, "add index", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if got := filepath.Base(path); got != "30000101000000_add_index.sql" {
		t.Fatalf("unexpected file %s", got)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestCreateSQLMigrationUsesClock(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	path, err := createSQLMigration(dir, "Payments Currency", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if got := filepath.Base(path); got != "20260301090000_payments_currency.sql" {
		t.Fatalf("unexpected file %s", got)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(body), "-- +goose Up") {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestCreateSQLMigrationRejectsBadNames(t *testing.T) {
	for _, name := range []string{"", "   ", "!!!"} {
		if _, err := createSQLMigration(t.TempDir(), name, time.Now()); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
	if _, err := createSQLMigration("", "ok", time.Now()); err == nil {
		t.Fatal("expected error for empty dir")
	}
}
