package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Manager applies plain-SQL schema migrations and one-shot seed scripts.
// Applied versions are tracked in schema_migrations, applied seeds in
// schema_seeds, so repeated runs are no-ops.
type Manager struct {
	db       *sql.DB
	dir      string
	seedsDir string
}

// Migration is one schema version and its applied state.
type Migration struct {
	Version string
	Applied bool
}

func New(db *sql.DB, dir, seedsDir string) *Manager {
	return &Manager{db: db, dir: dir, seedsDir: seedsDir}
}

func (m *Manager) ensureTables(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		create table if not exists schema_migrations (
			version text primary key,
			applied_at timestamptz not null default now()
		)`)
	if err != nil {
		return err
	}
	_, err = m.db.ExecContext(ctx, `
		create table if not exists schema_seeds (
			name text primary key,
			applied_at timestamptz not null default now()
		)`)
	return err
}

// Up applies every pending .up.sql in version order and returns how many ran.
func (m *Manager) Up(ctx context.Context) (int, error) {
	if err := m.ensureTables(ctx); err != nil {
		return 0, err
	}
	versions, err := collectVersions(m.dir, ".up.sql")
	if err != nil {
		return 0, err
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return 0, err
	}
	ran := 0
	for _, version := range versions {
		if _, ok := applied[version]; ok {
			continue
		}
		path := filepath.Join(m.dir, version+".up.sql")
		if err := m.applyFile(ctx, path, func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `insert into schema_migrations (version) values ($1)`, version)
			return err
		}); err != nil {
			return ran, fmt.Errorf("apply %s: %w", version, err)
		}
		ran++
	}
	return ran, nil
}

// Down rolls back the most recently applied migration.
func (m *Manager) Down(ctx context.Context) (string, error) {
	if err := m.ensureTables(ctx); err != nil {
		return "", err
	}
	var version string
	err := m.db.QueryRowContext(ctx,
		`select version from schema_migrations order by version desc limit 1`).Scan(&version)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("nothing to roll back")
		}
		return "", err
	}
	path := filepath.Join(m.dir, version+".down.sql")
	if err := m.applyFile(ctx, path, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `delete from schema_migrations where version = $1`, version)
		return err
	}); err != nil {
		return "", fmt.Errorf("roll back %s: %w", version, err)
	}
	return version, nil
}

// Status lists every known version and whether it has been applied.
func (m *Manager) Status(ctx context.Context) ([]Migration, error) {
	if err := m.ensureTables(ctx); err != nil {
		return nil, err
	}
	versions, err := collectVersions(m.dir, ".up.sql")
	if err != nil {
		return nil, err
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Migration, 0, len(versions))
	for _, version := range versions {
		_, ok := applied[version]
		out = append(out, Migration{Version: version, Applied: ok})
	}
	return out, nil
}

// Seed applies every pending seed script exactly once.
func (m *Manager) Seed(ctx context.Context) (int, error) {
	if err := m.ensureTables(ctx); err != nil {
		return 0, err
	}
	names, err := collectVersions(m.seedsDir, ".sql")
	if err != nil {
		return 0, err
	}
	ran := 0
	for _, name := range names {
		var exists bool
		if err := m.db.QueryRowContext(ctx,
			`select exists (select 1 from schema_seeds where name = $1)`, name).Scan(&exists); err != nil {
			return ran, err
		}
		if exists {
			continue
		}
		path := filepath.Join(m.seedsDir, name+".sql")
		if err := m.applyFile(ctx, path, func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `insert into schema_seeds (name) values ($1)`, name)
			return err
		}); err != nil {
			return ran, fmt.Errorf("seed %s: %w", name, err)
		}
		ran++
	}
	return ran, nil
}

// applyFile runs every statement in the file plus the bookkeeping insert in
// one transaction.
func (m *Manager) applyFile(ctx context.Context, path string, record func(context.Context, *sql.Tx) error) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(string(raw)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", abbreviate(stmt), err)
		}
	}
	if err := record(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *Manager) appliedVersions(ctx context.Context) (map[string]struct{}, error) {
	rows, err := m.db.QueryContext(ctx, `select version from schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = struct{}{}
	}
	return applied, rows.Err()
}

// collectVersions lists file basenames with the suffix stripped, sorted so
// zero-padded numeric prefixes apply in order.
func collectVersions(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var versions []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		versions = append(versions, strings.TrimSuffix(entry.Name(), suffix))
	}
	sort.Strings(versions)
	return versions, nil
}

// splitStatements breaks a script on semicolons at end of line. Good enough
// for plain DDL; scripts must not contain procedural bodies.
func splitStatements(script string) []string {
	var (
		statements []string
		current    strings.Builder
	)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			statements = append(statements, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		statements = append(statements, rest)
	}
	return statements
}

func abbreviate(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) > 60 {
		return stmt[:60] + "..."
	}
	return stmt
}
