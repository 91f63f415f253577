package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const minPasswordLength = 8

// Service provides credential, catalog, and role-aggregation operations on
// top of a Store, plus bearer token issuance when a signer is configured.
type Service struct {
	store  Store
	signer *TokenSigner
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithTokenSigner enables Login and token verification.
func WithTokenSigner(signer *TokenSigner) ServiceOption {
	return func(s *Service) error {
		s.signer = signer
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs a Service with optional configuration.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth store is required")
	}
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// SupportsTokens reports whether bearer token issuance is enabled.
func (s *Service) SupportsTokens() bool {
	return s.signer != nil
}

// --- credential store ---

// Register creates a user with a hashed password. A duplicate email surfaces
// as ErrConflict.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return User{}, fmt.Errorf("%w: name must be at least 2 characters", ErrInvalidInput)
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return User{}, err
	}
	if len(password) < minPasswordLength {
		return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	return s.store.CreateUser(ctx, name, email, hash)
}

// Authenticate verifies credentials and returns the user. Unknown emails and
// wrong passwords both yield ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return User{}, ErrUnauthorized
	}
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrUnauthorized
		}
		return User{}, err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return User{}, ErrUnauthorized
	}
	return user, nil
}

// Login authenticates credentials and mints a bearer token for the user.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, Principal, error) {
	if s.signer == nil {
		return "", time.Time{}, Principal{}, errors.New("token signer is not configured")
	}
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", time.Time{}, Principal{}, err
	}
	principal, err := s.Resolve(ctx, user.ID)
	if err != nil {
		return "", time.Time{}, Principal{}, err
	}
	token, expiresAt, err := s.signer.Mint(user.ID)
	if err != nil {
		return "", time.Time{}, Principal{}, err
	}
	return token, expiresAt, principal, nil
}

// AuthenticateToken validates an access token and resolves its principal.
func (s *Service) AuthenticateToken(ctx context.Context, token string) (Principal, error) {
	if s.signer == nil {
		return Principal{}, ErrInvalidToken
	}
	userID, err := s.signer.Verify(token)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	principal, err := s.Resolve(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidToken
		}
		return Principal{}, err
	}
	return principal, nil
}

// Resolve loads a user with its roles and effective permission set. Roles and
// permissions are batch-loaded in a fixed number of queries regardless of how
// many roles the user holds.
func (s *Service) Resolve(ctx context.Context, userID string) (Principal, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Principal{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return Principal{}, err
	}
	roles, err := s.store.UserRoles(ctx, userID)
	if err != nil {
		return Principal{}, err
	}
	perms, err := s.store.UserPermissions(ctx, userID)
	if err != nil {
		return Principal{}, err
	}
	return NewPrincipal(user, roles, perms), nil
}

// --- users ---

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListUsers returns one page of users matching the query. Out-of-range paging
// values are clamped rather than rejected.
func (s *Service) ListUsers(ctx context.Context, q UserQuery) (UserPage, error) {
	q.Search = strings.TrimSpace(q.Search)
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = defaultPageSize
	}
	if q.PerPage > maxPageSize {
		q.PerPage = maxPageSize
	}
	return s.store.ListUsers(ctx, q)
}

func (s *Service) GetUser(ctx context.Context, userID string) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return s.store.GetUser(ctx, userID)
}

func (s *Service) UpdateUser(ctx context.Context, userID string, upd UserUpdate) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	var patch UserPatch
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if len(name) < 2 {
			return User{}, fmt.Errorf("%w: name must be at least 2 characters", ErrInvalidInput)
		}
		patch.Name = &name
	}
	if upd.Email != nil {
		email, err := normalizeEmail(*upd.Email)
		if err != nil {
			return User{}, err
		}
		patch.Email = &email
	}
	if upd.Password != nil {
		if len(*upd.Password) < minPasswordLength {
			return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
		}
		hash, err := HashPassword(*upd.Password)
		if err != nil {
			return User{}, err
		}
		patch.PasswordHash = &hash
	}
	return s.store.UpdateUser(ctx, userID, patch)
}

func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return s.store.DeleteUser(ctx, userID)
}

// --- permission catalog ---

// EnsurePermissions idempotently creates any missing named permissions.
// Existing permissions are left untouched. Seeding only; never called on the
// request hot path.
func (s *Service) EnsurePermissions(ctx context.Context, names []string) error {
	names = dedupeNames(names)
	if len(names) == 0 {
		return nil
	}
	return s.store.EnsurePermissions(ctx, names)
}

func (s *Service) CreatePermission(ctx context.Context, name string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, fmt.Errorf("%w: permission name is required", ErrInvalidInput)
	}
	return s.store.CreatePermission(ctx, name)
}

// GetPermission looks a permission up by its unique name.
func (s *Service) GetPermission(ctx context.Context, name string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, fmt.Errorf("%w: permission name is required", ErrInvalidInput)
	}
	return s.store.GetPermissionByName(ctx, name)
}

func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.ListPermissions(ctx)
}

func (s *Service) DeletePermission(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: permission_id is required", ErrInvalidInput)
	}
	return s.store.DeletePermission(ctx, id)
}

// --- role aggregator ---

// EnsureRole is an idempotent upsert: it creates the role if absent and
// synchronizes its permission set to exactly permissionNames, removing stale
// links. Safe to repeat during deployment.
func (s *Service) EnsureRole(ctx context.Context, name string, permissionNames []string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	role, err := s.store.GetRoleByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		role, err = s.store.CreateRole(ctx, name)
		if errors.Is(err, ErrConflict) {
			// Lost a create race; the winner's row is the one we want.
			role, err = s.store.GetRoleByName(ctx, name)
		}
	}
	if err != nil {
		return Role{}, err
	}
	if err := s.store.SetRolePermissions(ctx, role.ID, dedupeNames(permissionNames)); err != nil {
		return Role{}, err
	}
	return role, nil
}

func (s *Service) CreateRole(ctx context.Context, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	return s.store.CreateRole(ctx, name)
}

func (s *Service) GetRole(ctx context.Context, roleID string) (Role, error) {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return Role{}, fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	return s.store.GetRole(ctx, roleID)
}

func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.ListRoles(ctx)
}

func (s *Service) UpdateRole(ctx context.Context, roleID string, upd RoleUpdate) (Role, error) {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return Role{}, fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return Role{}, fmt.Errorf("%w: role name is required", ErrInvalidInput)
		}
		upd.Name = &name
	}
	return s.store.UpdateRole(ctx, roleID, upd)
}

func (s *Service) DeleteRole(ctx context.Context, roleID string) error {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	return s.store.DeleteRole(ctx, roleID)
}

func (s *Service) SetRolePermissions(ctx context.Context, roleID string, permissionNames []string) error {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	return s.store.SetRolePermissions(ctx, roleID, dedupeNames(permissionNames))
}

func (s *Service) RolePermissions(ctx context.Context, roleID string) ([]Permission, error) {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return nil, fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	return s.store.RolePermissions(ctx, roleID)
}

// AssignRole grants the named role to the user. Assigning an already-held
// role is a no-op.
func (s *Service) AssignRole(ctx context.Context, userID, roleName string) error {
	role, err := s.roleByName(ctx, roleName)
	if err != nil {
		return err
	}
	return s.store.AssignRole(ctx, userID, role.ID)
}

// RevokeRole removes the named role from the user. Revoking a role the user
// does not hold is a no-op.
func (s *Service) RevokeRole(ctx context.Context, userID, roleName string) error {
	role, err := s.roleByName(ctx, roleName)
	if err != nil {
		return err
	}
	return s.store.RevokeRole(ctx, userID, role.ID)
}

// SetUserRoles replaces the user's role assignments with exactly roleNames.
func (s *Service) SetUserRoles(ctx context.Context, userID string, roleNames []string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	desired := make(map[string]struct{}, len(roleNames))
	for _, name := range dedupeNames(roleNames) {
		desired[name] = struct{}{}
	}
	current, err := s.store.UserRoles(ctx, userID)
	if err != nil {
		return err
	}
	held := make(map[string]Role, len(current))
	for _, role := range current {
		held[role.Name] = role
	}
	for name := range desired {
		if _, ok := held[name]; ok {
			continue
		}
		if err := s.AssignRole(ctx, userID, name); err != nil {
			return err
		}
	}
	for name, role := range held {
		if _, ok := desired[name]; ok {
			continue
		}
		if err := s.store.RevokeRole(ctx, userID, role.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) UserRoles(ctx context.Context, userID string) ([]Role, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return s.store.UserRoles(ctx, userID)
}

// --- seeding ---

// SeedDefaults installs the built-in permission catalog and the default
// Admin/User roles. Idempotent; safe for repeated deployment runs.
func (s *Service) SeedDefaults(ctx context.Context) error {
	if err := s.EnsurePermissions(ctx, BuiltinPermissions); err != nil {
		return fmt.Errorf("seed permissions: %w", err)
	}
	for name, perms := range DefaultRoles() {
		if _, err := s.EnsureRole(ctx, name, perms); err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}

// CreateAdmin registers a user and assigns the Admin role. The Admin role
// must already exist (run SeedDefaults first).
func (s *Service) CreateAdmin(ctx context.Context, name, email, password string) (User, error) {
	if _, err := s.store.GetRoleByName(ctx, RoleAdmin); err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, fmt.Errorf("%w: role %q missing, run seed first", ErrInvalidInput, RoleAdmin)
		}
		return User{}, err
	}
	user, err := s.Register(ctx, name, email, password)
	if err != nil {
		return User{}, err
	}
	if err := s.AssignRole(ctx, user.ID, RoleAdmin); err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}

// --- helpers ---

func (s *Service) roleByName(ctx context.Context, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	return s.store.GetRoleByName(ctx, name)
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return email, nil
}

func dedupeNames(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := set[v]; ok {
			continue
		}
		set[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
