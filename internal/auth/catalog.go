package auth

// Built-in permission names. Free-form labels; route guards reference them verbatim.
const (
	PermViewUsers   = "view users"
	PermCreateUsers = "create users"
	PermEditUsers   = "edit users"
	PermDeleteUsers = "delete users"

	PermViewRoles   = "view roles"
	PermCreateRoles = "create roles"
	PermEditRoles   = "edit roles"
	PermDeleteRoles = "delete roles"

	PermViewPermissions   = "view permissions"
	PermCreatePermissions = "create permissions"
	PermEditPermissions   = "edit permissions"
	PermDeletePermissions = "delete permissions"
)

// Seed role names.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// BuiltinPermissions is the default catalog installed by seeding.
var BuiltinPermissions = []string{
	PermViewUsers, PermCreateUsers, PermEditUsers, PermDeleteUsers,
	PermViewRoles, PermCreateRoles, PermEditRoles, PermDeleteRoles,
	PermViewPermissions, PermCreatePermissions, PermEditPermissions, PermDeletePermissions,
}

// ViewPermissions is the read-only subset granted to the default User role.
var ViewPermissions = []string{
	PermViewUsers, PermViewRoles, PermViewPermissions,
}

// DefaultRoles maps seed roles to the exact permission set each should hold.
func DefaultRoles() map[string][]string {
	return map[string][]string{
		RoleAdmin: append([]string(nil), BuiltinPermissions...),
		RoleUser:  append([]string(nil), ViewPermissions...),
	}
}
