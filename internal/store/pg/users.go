package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gatehouse.dev/internal/auth"
	"gatehouse.dev/internal/ids"
)

const userColumns = `id, name, email, password_hash, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (auth.User, error) {
	id := ids.New()
	var user auth.User
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, name, email, password_hash)
		values ($1, $2, $3, $4)
		returning `+userColumns, id, name, email, passwordHash)
	if err := scanUser(row, &user); err != nil {
		return auth.User{}, mapWriteError(err)
	}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (auth.User, error) {
	var user auth.User
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id = $1`, id)
	if err := scanUser(row, &user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.User{}, auth.ErrNotFound
		}
		return auth.User{}, err
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (auth.User, error) {
	var user auth.User
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where email = $1`, email)
	if err := scanUser(row, &user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.User{}, auth.ErrNotFound
		}
		return auth.User{}, err
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context, q auth.UserQuery) (auth.UserPage, error) {
	page := auth.UserPage{Users: []auth.User{}, Page: q.Page, PerPage: q.PerPage}
	pattern := "%" + q.Search + "%"

	err := s.db.QueryRowContext(ctx, `
		select count(*) from users
		where ($1 = '' or name ilike $2 or email ilike $2)`, q.Search, pattern).Scan(&page.Total)
	if err != nil {
		return auth.UserPage{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		select `+userColumns+` from users
		where ($1 = '' or name ilike $2 or email ilike $2)
		order by created_at desc
		limit $3 offset $4`, q.Search, pattern, q.PerPage, (q.Page-1)*q.PerPage)
	if err != nil {
		return auth.UserPage{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var user auth.User
		if err := scanUser(rows, &user); err != nil {
			return auth.UserPage{}, err
		}
		page.Users = append(page.Users, user)
	}
	if err := rows.Err(); err != nil {
		return auth.UserPage{}, err
	}
	return page, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch auth.UserPatch) (auth.User, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if patch.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *patch.Name)
		idx++
	}
	if patch.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", idx))
		args = append(args, *patch.Email)
		idx++
	}
	if patch.PasswordHash != nil {
		sets = append(sets, fmt.Sprintf("password_hash = $%d", idx))
		args = append(args, *patch.PasswordHash)
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update users set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return auth.User{}, mapWriteError(err)
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return auth.User{}, err
		}
		if aff == 0 {
			return auth.User{}, auth.ErrNotFound
		}
	}
	return s.GetUser(ctx, id)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, user *auth.User) error {
	return row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
}
