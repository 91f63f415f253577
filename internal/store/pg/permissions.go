package pg

import (
	"context"
	"database/sql"
	"errors"

	"gatehouse.dev/internal/auth"
	"gatehouse.dev/internal/ids"
)

const permissionColumns = `id, name, created_at`

func (s *Store) CreatePermission(ctx context.Context, name string) (auth.Permission, error) {
	id := ids.New()
	var perm auth.Permission
	row := s.db.QueryRowContext(ctx, `
		insert into permissions (id, name)
		values ($1, $2)
		returning `+permissionColumns, id, name)
	if err := scanPermission(row, &perm); err != nil {
		return auth.Permission{}, mapWriteError(err)
	}
	return perm, nil
}

// EnsurePermissions inserts any of the named permissions that do not already
// exist. Existing rows are left untouched.
func (s *Store) EnsurePermissions(ctx context.Context, names []string) error {
	for _, name := range names {
		_, err := s.db.ExecContext(ctx, `
			insert into permissions (id, name)
			values ($1, $2)
			on conflict (name) do nothing`, ids.New(), name)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListPermissions(ctx context.Context) ([]auth.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `select `+permissionColumns+` from permissions order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.Permission
	for rows.Next() {
		var perm auth.Permission
		if err := scanPermission(rows, &perm); err != nil {
			return nil, err
		}
		result = append(result, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) DeletePermission(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from permissions where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// GetPermissionByName looks a permission up by its unique name.
func (s *Store) GetPermissionByName(ctx context.Context, name string) (auth.Permission, error) {
	var perm auth.Permission
	row := s.db.QueryRowContext(ctx, `select `+permissionColumns+` from permissions where name = $1`, name)
	if err := scanPermission(row, &perm); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Permission{}, auth.ErrNotFound
		}
		return auth.Permission{}, err
	}
	return perm, nil
}

func scanPermission(row rowScanner, perm *auth.Permission) error {
	return row.Scan(&perm.ID, &perm.Name, &perm.CreatedAt)
}
