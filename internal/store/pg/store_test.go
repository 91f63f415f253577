package pg

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"gatehouse.dev/internal/auth"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

func TestCreateUserMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`insert into users`).
		WithArgs(sqlmock.AnyArg(), "Ada", "ada@example.com", "hash").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	_, err := store.CreateUser(context.Background(), "Ada", "ada@example.com", "hash")
	require.ErrorIs(t, err, auth.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`select .+ from users where id`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at", "updated_at"}))

	_, err := store.GetUser(context.Background(), "missing")
	require.ErrorIs(t, err, auth.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`select .+ from users where email`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at", "updated_at"}).
			AddRow("u1", "Ada", "ada@example.com", "hash", now, now))

	user, err := store.GetUserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, "u1", user.ID)
	require.Equal(t, "hash", user.PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersSearchAndPaging(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`select count\(\*\) from users`).
		WithArgs("ada", "%ada%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`select .+ from users .+ ilike .+ limit \$3 offset \$4`).
		WithArgs("ada", "%ada%", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at", "updated_at"}).
			AddRow("u1", "Ada", "ada@example.com", "hash", now, now))

	page, err := store.ListUsers(context.Background(), auth.UserQuery{Search: "ada", Page: 1, PerPage: 20})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	require.Len(t, page.Users, 1)
	require.Equal(t, "ada@example.com", page.Users[0].Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPermissionByNameNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`select .+ from permissions where name`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}))

	_, err := store.GetPermissionByName(context.Background(), "missing")
	require.ErrorIs(t, err, auth.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	name := "Grace"
	mock.ExpectExec(`update users set name = \$1, updated_at = now\(\) where id = \$2`).
		WithArgs(name, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.UpdateUser(context.Background(), "missing", auth.UserPatch{Name: &name})
	require.ErrorIs(t, err, auth.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoleNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`delete from roles where id`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteRole(context.Background(), "missing")
	require.ErrorIs(t, err, auth.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRolePermissionsSyncs(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`select exists`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(`delete from role_permissions where role_id`).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`insert into role_permissions`).
		WithArgs("r1", "view users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.SetRolePermissions(context.Background(), "r1", []string{"view users"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRolePermissionsUnknownPermissionRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`select exists`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(`delete from role_permissions where role_id`).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`insert into role_permissions`).
		WithArgs("r1", "no such permission").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.SetRolePermissions(context.Background(), "r1", []string{"no such permission"})
	require.ErrorIs(t, err, auth.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRolePermissionsMissingRole(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`select exists`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := store.SetRolePermissions(context.Background(), "missing", nil)
	require.ErrorIs(t, err, auth.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignRoleIsIdempotent(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`insert into user_roles .+ on conflict \(user_id, role_id\) do nothing`).
		WithArgs("u1", "r1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.AssignRole(context.Background(), "u1", "r1")
	require.NoError(t, err, "duplicate assignment hits the conflict clause and succeeds")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignRoleUnknownUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`insert into user_roles`).
		WithArgs("missing", "r1").
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})

	err := store.AssignRole(context.Background(), "missing", "r1")
	require.ErrorIs(t, err, auth.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeRoleIgnoresUnassigned(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`delete from user_roles where user_id = \$1 and role_id = \$2`).
		WithArgs("u1", "r1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.RevokeRole(context.Background(), "u1", "r1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPermissionsDistinctJoin(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`select distinct p\.name`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("edit users").
			AddRow("view users"))

	names, err := store.UserPermissions(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"edit users", "view users"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsurePermissionsSkipsExisting(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`insert into permissions .+ on conflict \(name\) do nothing`).
		WithArgs(sqlmock.AnyArg(), "view users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`insert into permissions .+ on conflict \(name\) do nothing`).
		WithArgs(sqlmock.AnyArg(), "edit users").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.EnsurePermissions(context.Background(), []string{"view users", "edit users"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStats(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`select`).
		WillReturnRows(sqlmock.NewRows([]string{"users", "roles", "permissions"}).AddRow(3, 2, 12))

	st, err := store.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, auth.Stats{Users: 3, Roles: 2, Permissions: 12}, st)
	require.NoError(t, mock.ExpectationsWereMet())
}
