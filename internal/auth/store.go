package auth

import "context"

// Store describes the persistence operations required by the auth subsystem.
// Implementations must map uniqueness violations to ErrConflict and missing
// rows to ErrNotFound. AssignRole and RevokeRole are idempotent.
type Store interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context, q UserQuery) (UserPage, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (User, error)
	DeleteUser(ctx context.Context, id string) error

	CreateRole(ctx context.Context, name string) (Role, error)
	GetRole(ctx context.Context, id string) (Role, error)
	GetRoleByName(ctx context.Context, name string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	UpdateRole(ctx context.Context, id string, upd RoleUpdate) (Role, error)
	DeleteRole(ctx context.Context, id string) error

	// SetRolePermissions replaces the role's permission set with exactly the
	// named permissions inside a single transaction.
	SetRolePermissions(ctx context.Context, roleID string, permissionNames []string) error
	RolePermissions(ctx context.Context, roleID string) ([]Permission, error)

	EnsurePermissions(ctx context.Context, names []string) error
	CreatePermission(ctx context.Context, name string) (Permission, error)
	GetPermissionByName(ctx context.Context, name string) (Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	DeletePermission(ctx context.Context, id string) error

	AssignRole(ctx context.Context, userID, roleID string) error
	RevokeRole(ctx context.Context, userID, roleID string) error
	UserRoles(ctx context.Context, userID string) ([]Role, error)

	// UserPermissions returns the distinct permission names granted to the
	// user across all roles in one query.
	UserPermissions(ctx context.Context, userID string) ([]string, error)

	Stats(ctx context.Context) (Stats, error)
}
