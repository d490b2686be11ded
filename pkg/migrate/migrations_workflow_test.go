package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/guardforce-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestShiftsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_shifts")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS shifts",
		"status shift_status NOT NULL DEFAULT 'unassigned'",
		"CHECK (end_time > start_time)",
		"CHECK (required_guards >= 1)",
		"version integer NOT NULL DEFAULT 0",
		"DROP TABLE IF EXISTS shifts",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestWorkflowHistoryMigrationIsAppendOnly(t *testing.T) {
	content := readMigration(t, "create_shift_workflow_history")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS shift_workflow_history",
		"BEFORE UPDATE ON shift_workflow_history",
		"CHECK (previous_status <> new_status)",
		"DROP TRIGGER IF EXISTS trg_shift_workflow_history_append_only",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestUrgencyAlertMigrationSuppressesDuplicates(t *testing.T) {
	content := readMigration(t, "create_shift_urgency_alerts")

	checks := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_shift_urgency_alerts_open",
		"ON shift_urgency_alerts (shift_id, alert_type)",
		"WHERE status <> 'resolved'",
		"CHECK (escalation_level BETWEEN 1 AND 3)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestValidateDirRejectsEmpty(t *testing.T) {
	if err := migrate.ValidateDir(t.TempDir()); err == nil {
		t.Fatal("expected empty directory error")
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Shift Notes!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_shift_notes.sql") {
		t.Fatalf("unexpected migration path %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
}
