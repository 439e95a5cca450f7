package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dfrchat/backend/pkg/migrate"
)

func TestInitMigrationContainsCoreTables(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS users",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email)",
		"CREATE TABLE IF NOT EXISTS messages",
		"CREATE TABLE IF NOT EXISTS message_recipients",
		"CHECK ((user_id IS NULL) <> (group_name IS NULL))",
		"CREATE TABLE IF NOT EXISTS message_edits",
		"CREATE TABLE IF NOT EXISTS message_attachments",
		"CREATE TABLE IF NOT EXISTS audit_logs",
		"CREATE TABLE IF NOT EXISTS backups",
		"CREATE TABLE IF NOT EXISTS pinned_messages",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_pinned_message_user ON pinned_messages (message_id, user_id)",
		"DROP TABLE IF EXISTS users",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
