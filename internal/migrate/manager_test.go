package migrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	script := `
-- schema
create table users (
    id text primary key,
    email text not null
);

create unique index users_email on users (email);
`
	stmts := splitStatements(script)
	require.Len(t, stmts, 2)
	require.Contains(t, stmts[0], "create table users")
	require.Contains(t, stmts[1], "create unique index")
}

func TestSplitStatementsSkipsCommentsAndBlank(t *testing.T) {
	stmts := splitStatements("-- nothing here\n\n-- still nothing\n")
	require.Empty(t, stmts)
}

func TestSplitStatementsKeepsTrailingStatement(t *testing.T) {
	stmts := splitStatements("delete from roles")
	require.Equal(t, []string{"delete from roles"}, stmts)
}

func TestCollectVersionsSortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_roles.up.sql", "0001_users.up.sql", "0001_users.down.sql", "README.md"} {
		writeFile(t, dir, name)
	}
	versions, err := collectVersions(dir, ".up.sql")
	require.NoError(t, err)
	require.Equal(t, []string{"0001_users", "0002_roles"}, versions)
}

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- placeholder\n"), 0o644))
}
