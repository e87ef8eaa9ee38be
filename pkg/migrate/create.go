package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

const migrationTemplate = `-- zcollabz ledger migration %[1]s: %[2]s
-- Runs on postgres and sqlite3. Keep statements portable: text + CHECK for
-- enums, numeric(12,2) for money, application-assigned uuid ids.

-- +goose Up
-- +goose StatementBegin
-- %[2]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[2]s
-- +goose StatementEnd
`

// CreateSQLMigration writes <dir>/<version>_<name>.sql from the ledger template.
func CreateSQLMigration(dir string, name string) (string, error) {
	return createSQLMigration(dir, name, time.Now().UTC())
}

func createSQLMigration(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := sanitizeName(name)
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}
	existing, err := scanDir(dir)
	if err != nil {
		return "", err
	}

	version := nextVersion(existing, now)
	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, safe))
	if _, err := os.Stat(fullpath); err == nil {
		return "", fmt.Errorf("migration already exists: %s", fullpath)
	}

	body := fmt.Sprintf(migrationTemplate, version, safe)
	if err := os.WriteFile(fullpath, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

func sanitizeName(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = strings.ReplaceAll(safe, " ", "_")
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	return strings.Trim(safe, "_")
}

// nextVersion stamps now, bumped one second past the newest existing
// migration so versions stay strictly increasing under clock skew.
func nextVersion(existing []migrationFile, now time.Time) string {
	version := now.UTC().Truncate(time.Second)
	if len(existing) > 0 {
		latest, err := time.Parse(versionLayout, existing[len(existing)-1].Version)
		if err == nil && !version.After(latest) {
			version = latest.Add(time.Second)
		}
	}
	return version.Format(versionLayout)
}
