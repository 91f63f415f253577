package pg

import (
	"context"
	"database/sql"
	"errors"

	"gatehouse.dev/internal/auth"
	"gatehouse.dev/internal/ids"
)

const roleColumns = `id, name, created_at, updated_at`

func (s *Store) CreateRole(ctx context.Context, name string) (auth.Role, error) {
	id := ids.New()
	var role auth.Role
	row := s.db.QueryRowContext(ctx, `
		insert into roles (id, name)
		values ($1, $2)
		returning `+roleColumns, id, name)
	if err := scanRole(row, &role); err != nil {
		return auth.Role{}, mapWriteError(err)
	}
	return role, nil
}

func (s *Store) GetRole(ctx context.Context, id string) (auth.Role, error) {
	var role auth.Role
	row := s.db.QueryRowContext(ctx, `select `+roleColumns+` from roles where id = $1`, id)
	if err := scanRole(row, &role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Role{}, auth.ErrNotFound
		}
		return auth.Role{}, err
	}
	return role, nil
}

func (s *Store) GetRoleByName(ctx context.Context, name string) (auth.Role, error) {
	var role auth.Role
	row := s.db.QueryRowContext(ctx, `select `+roleColumns+` from roles where name = $1`, name)
	if err := scanRole(row, &role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Role{}, auth.ErrNotFound
		}
		return auth.Role{}, err
	}
	return role, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `select `+roleColumns+` from roles order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.Role
	for rows.Next() {
		var role auth.Role
		if err := scanRole(rows, &role); err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdateRole(ctx context.Context, id string, upd auth.RoleUpdate) (auth.Role, error) {
	if upd.Name != nil {
		res, err := s.db.ExecContext(ctx,
			`update roles set name = $1, updated_at = now() where id = $2`, *upd.Name, id)
		if err != nil {
			return auth.Role{}, mapWriteError(err)
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return auth.Role{}, err
		}
		if aff == 0 {
			return auth.Role{}, auth.ErrNotFound
		}
	}
	return s.GetRole(ctx, id)
}

func (s *Store) DeleteRole(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from roles where id = $1`, id)
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

// SetRolePermissions replaces the role's links with exactly the named
// permissions. Runs in one transaction so concurrent resolvers never see a
// half-synced set.
func (s *Store) SetRolePermissions(ctx context.Context, roleID string, permissionNames []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`select exists (select 1 from roles where id = $1)`, roleID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return auth.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`delete from role_permissions where role_id = $1`, roleID); err != nil {
		return err
	}

	for _, name := range permissionNames {
		res, err := tx.ExecContext(ctx, `
			insert into role_permissions (role_id, permission_id)
			select $1, id from permissions where name = $2`, roleID, name)
		if err != nil {
			return mapWriteError(err)
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if aff == 0 {
			return auth.ErrNotFound
		}
	}
	return tx.Commit()
}

func (s *Store) RolePermissions(ctx context.Context, roleID string) ([]auth.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		select p.id, p.name, p.created_at
		from role_permissions rp
		join permissions p on p.id = rp.permission_id
		where rp.role_id = $1
		order by p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.Permission
	for rows.Next() {
		var perm auth.Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// AssignRole links a user to a role. Re-assigning is a no-op.
func (s *Store) AssignRole(ctx context.Context, userID, roleID string) error {
	_, err := s.db.ExecContext(ctx, `
		insert into user_roles (user_id, role_id)
		values ($1, $2)
		on conflict (user_id, role_id) do nothing`, userID, roleID)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// RevokeRole unlinks a user from a role. Revoking an unassigned role is a
// no-op.
func (s *Store) RevokeRole(ctx context.Context, userID, roleID string) error {
	_, err := s.db.ExecContext(ctx,
		`delete from user_roles where user_id = $1 and role_id = $2`, userID, roleID)
	return err
}

func (s *Store) UserRoles(ctx context.Context, userID string) ([]auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		select r.id, r.name, r.created_at, r.updated_at
		from user_roles ur
		join roles r on r.id = ur.role_id
		where ur.user_id = $1
		order by r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.Role
	for rows.Next() {
		var role auth.Role
		if err := scanRole(rows, &role); err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UserPermissions resolves the user's effective permission names in a single
// distinct join across both link tables.
func (s *Store) UserPermissions(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select distinct p.name
		from user_roles ur
		join role_permissions rp on rp.role_id = ur.role_id
		join permissions p on p.id = rp.permission_id
		where ur.user_id = $1
		order by p.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func scanRole(row rowScanner, role *auth.Role) error {
	return row.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
}
