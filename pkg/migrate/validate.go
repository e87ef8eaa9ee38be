package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// postgresOnly lists constructs that break the SQLite ledger used in dev and
// tests. Migrations must run unchanged on both backends.
var postgresOnly = []struct {
	re   *regexp.Regexp
	hint string
}{
	{regexp.MustCompile(`::\s*[a-z]`), "postgres cast (::type)"},
	{regexp.MustCompile(`(?i)\bserial\b|\bbigserial\b`), "serial column"},
	{regexp.MustCompile(`(?i)\bjsonb\b`), "jsonb column"},
	{regexp.MustCompile(`(?i)create\s+extension`), "CREATE EXTENSION"},
	{regexp.MustCompile(`(?i)gen_random_uuid\s*\(`), "gen_random_uuid(); ids are assigned by the application"},
	{regexp.MustCompile(`(?i)create\s+type\b`), "CREATE TYPE; status columns use text with CHECK"},
}

type migrationFile struct {
	Version string
	Name    string
	Path    string
}

// scanDir lists the migration files of dir ordered by version, rejecting
// malformed names and duplicate versions.
func scanDir(dir string) ([]migrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	var files []migrationFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		name := e.Name()
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name
		files = append(files, migrationFile{Version: m[1], Name: name, Path: filepath.Join(dir, name)})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// ValidateDir checks filenames, goose annotations and that every migration
// stays portable between the postgres and sqlite3 dialects.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	files, err := scanDir(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations found in %q", dir)
	}

	for _, f := range files {
		b, err := os.ReadFile(f.Path)
		if err != nil {
			return fmt.Errorf("read file %q: %w", f.Path, err)
		}
		if err := validateBody(f.Name, string(b)); err != nil {
			return err
		}
	}
	return nil
}

func validateBody(name, txt string) error {
	up := strings.Index(txt, "-- +goose Up")
	if up < 0 {
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	}
	down := strings.Index(txt, "-- +goose Down")
	if down < 0 {
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	}
	if down < up {
		return fmt.Errorf("migration %q has \"-- +goose Down\" before \"-- +goose Up\"", name)
	}
	if begins, ends := strings.Count(txt, "-- +goose StatementBegin"), strings.Count(txt, "-- +goose StatementEnd"); begins != ends {
		return fmt.Errorf("migration %q has %d StatementBegin and %d StatementEnd markers", name, begins, ends)
	}

	for _, line := range strings.Split(txt, "\n") {
		stmt := strings.TrimSpace(line)
		if stmt == "" || strings.HasPrefix(stmt, "--") {
			continue
		}
		for _, rule := range postgresOnly {
			if rule.re.MatchString(stmt) {
				return fmt.Errorf("migration %q uses %s, which the sqlite ledger cannot run", name, rule.hint)
			}
		}
	}
	return nil
}
