package auth

import "time"

// User is an account that can authenticate and hold roles. Permissions are
// never granted to a user directly, only through role membership.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role is a named bundle of permissions managed by administrators.
type Role struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Permission is an atomic named capability, e.g. "edit users".
type Permission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// UserUpdate describes a partial user mutation accepted by the service.
// Password carries plaintext; the service hashes it before storage.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

// UserPatch is the store-level form of UserUpdate with the password already hashed.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

// RoleUpdate describes a partial role mutation.
type RoleUpdate struct {
	Name *string
}

// UserQuery filters and pages a user listing. Search matches name or email
// as a case-insensitive substring.
type UserQuery struct {
	Search  string
	Page    int
	PerPage int
}

// UserPage is one page of a user listing with the unpaged total.
type UserPage struct {
	Users   []User `json:"users"`
	Total   int64  `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// Stats summarizes catalog sizes for the dashboard.
type Stats struct {
	Users       int64 `json:"total_users"`
	Roles       int64 `json:"total_roles"`
	Permissions int64 `json:"total_permissions"`
}
