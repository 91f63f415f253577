package auth

import "sort"

// Principal is a user together with its roles and effective permission set,
// resolved in one batched load. The effective set is the deduplicated union of
// permissions across all assigned roles.
type Principal struct {
	User  User
	Roles []Role

	permissions map[string]struct{}
}

// NewPrincipal constructs a principal with preloaded roles and permission names.
func NewPrincipal(user User, roles []Role, permissionNames []string) Principal {
	set := make(map[string]struct{}, len(permissionNames))
	for _, name := range permissionNames {
		set[name] = struct{}{}
	}
	return Principal{User: user, Roles: roles, permissions: set}
}

// PermissionSet returns the effective permission names, sorted and deduplicated.
// A user with no roles has an empty set.
func (p Principal) PermissionSet() []string {
	out := make([]string, 0, len(p.permissions))
	for name := range p.permissions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// HasPermission reports whether the principal holds the named permission
// through any of its roles.
func (p Principal) HasPermission(name string) bool {
	_, ok := p.permissions[name]
	return ok
}

// HasAnyPermission reports whether the principal holds at least one of the
// named permissions. An empty list is vacuously false: a caller supplying
// zero requirements must not be granted access by accident.
func (p Principal) HasAnyPermission(names ...string) bool {
	for _, name := range names {
		if _, ok := p.permissions[name]; ok {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the principal holds every named
// permission. An empty list is vacuously true.
func (p Principal) HasAllPermissions(names ...string) bool {
	for _, name := range names {
		if _, ok := p.permissions[name]; !ok {
			return false
		}
	}
	return true
}

// HasRole reports direct role membership. Matching is exact and case-sensitive.
func (p Principal) HasRole(name string) bool {
	for _, role := range p.Roles {
		if role.Name == name {
			return true
		}
	}
	return false
}
