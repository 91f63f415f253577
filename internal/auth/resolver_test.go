package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrincipalWithoutRoles(t *testing.T) {
	p := NewPrincipal(User{ID: "u1"}, nil, nil)

	require.Empty(t, p.PermissionSet())
	require.False(t, p.HasPermission("view users"))
	require.False(t, p.HasRole("Admin"))
	require.False(t, p.HasAnyPermission(), "empty requirement list must not grant access")
	require.True(t, p.HasAllPermissions(), "empty requirement list is a vacuous subset")
}

func TestPrincipalUnionAcrossRoles(t *testing.T) {
	roles := []Role{{ID: "r1", Name: "Editor"}, {ID: "r2", Name: "Viewer"}}
	// The store returns the already-deduplicated union for the user.
	p := NewPrincipal(User{ID: "u1"}, roles, []string{"edit posts", "view posts", "view posts"})

	require.Equal(t, []string{"edit posts", "view posts"}, p.PermissionSet())
	require.True(t, p.HasPermission("edit posts"))
	require.True(t, p.HasPermission("view posts"))
	require.False(t, p.HasPermission("delete posts"))
}

func TestPrincipalMembershipConsistency(t *testing.T) {
	p := NewPrincipal(User{ID: "u1"}, nil, []string{"view users", "edit users"})
	for _, name := range []string{"view users", "edit users", "delete users", ""} {
		inSet := false
		for _, have := range p.PermissionSet() {
			if have == name {
				inSet = true
				break
			}
		}
		require.Equal(t, inSet, p.HasPermission(name), "HasPermission(%q) must agree with PermissionSet", name)
	}
}

func TestPrincipalAnyAndAll(t *testing.T) {
	p := NewPrincipal(User{ID: "u1"}, nil, []string{"view users", "view roles"})

	require.True(t, p.HasAnyPermission("edit users", "view roles"))
	require.False(t, p.HasAnyPermission("edit users", "delete users"))
	require.True(t, p.HasAllPermissions("view users", "view roles"))
	require.False(t, p.HasAllPermissions("view users", "edit users"))
}

func TestPrincipalHasRoleCaseSensitive(t *testing.T) {
	p := NewPrincipal(User{ID: "u1"}, []Role{{ID: "r1", Name: "Admin"}}, nil)

	require.True(t, p.HasRole("Admin"))
	require.False(t, p.HasRole("admin"))
	require.False(t, p.HasRole("ADMIN"))
}
