package accounts

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/pkg/laberr"
)

type Service struct {
	users UserRepository
}

func NewService(users UserRepository) *Service {
	return &Service{users: users}
}

// Authenticate looks the account up by username and compares the password
// digest. No session or token state is created here; that belongs to the
// transport layer. Stamps last_login on success.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, laberr.Validation("credentials", "username and password are required")
	}
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	hash := HashPassword(password)
	if subtle.ConstantTimeCompare([]byte(hash), []byte(u.PasswordHash)) != 1 {
		return nil, laberr.NotFound("user", username)
	}
	if !u.IsActive {
		return nil, laberr.Denied("account is disabled")
	}
	now := time.Now()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLogin = &now
	return u, nil
}

// GetAccount loads an account by ID. Used by the auth middleware to
// resolve the actor for a request.
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) CreateUser(ctx context.Context, actor *User, u *User, password string) error {
	if err := Authorize(actor, PermAddUser); err != nil {
		return err
	}
	if u.Username == "" {
		return laberr.Validation("username", "is required")
	}
	if u.Email == "" {
		return laberr.Validation("email", "is required")
	}
	if password == "" {
		return laberr.Validation("password", "is required")
	}
	if !validRoles[u.Role] {
		return laberr.Validation("role", "unknown role "+string(u.Role))
	}
	u.ID = uuid.New()
	u.PasswordHash = HashPassword(password)
	return s.users.Create(ctx, u)
}

func (s *Service) GetUser(ctx context.Context, actor *User, id uuid.UUID) (*User, error) {
	if err := Authorize(actor, PermViewUsers); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, actor *User, limit, offset int) ([]*User, int, error) {
	if err := Authorize(actor, PermViewUsers); err != nil {
		return nil, 0, err
	}
	return s.users.List(ctx, limit, offset)
}

// UpdateUser replaces the mutable account fields. The password hash is
// left untouched; use ChangePassword for that.
func (s *Service) UpdateUser(ctx context.Context, actor *User, u *User) error {
	if err := Authorize(actor, PermEditUser); err != nil {
		return err
	}
	if !validRoles[u.Role] {
		return laberr.Validation("role", "unknown role "+string(u.Role))
	}
	current, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	u.PasswordHash = current.PasswordHash
	return s.users.Update(ctx, u)
}

// SetActive enables or disables an account. A disabled account fails
// every authorization check until re-enabled.
func (s *Service) SetActive(ctx context.Context, actor *User, id uuid.UUID, active bool) error {
	if err := Authorize(actor, PermEditUser); err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.IsActive = active
	return s.users.Update(ctx, u)
}

func (s *Service) ChangePassword(ctx context.Context, actor *User, id uuid.UUID, newPassword string) error {
	if err := Authorize(actor, PermEditUser); err != nil {
		return err
	}
	if newPassword == "" {
		return laberr.Validation("password", "is required")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.PasswordHash = HashPassword(newPassword)
	return s.users.Update(ctx, u)
}

func (s *Service) DeleteUser(ctx context.Context, actor *User, id uuid.UUID) error {
	if err := Authorize(actor, PermDeleteUser); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

// EnsureAdmin creates the bootstrap admin account when no account with
// that username exists. Idempotent.
func (s *Service) EnsureAdmin(ctx context.Context, password string) (*User, bool, error) {
	if u, err := s.users.FindByUsername(ctx, "admin"); err == nil {
		return u, false, nil
	} else if !laberr.IsNotFound(err) {
		return nil, false, err
	}
	admin := &User{
		ID:           uuid.New(),
		Username:     "admin",
		Email:        "admin@lab.com",
		PasswordHash: HashPassword(password),
		Role:         RoleAdmin,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return nil, false, err
	}
	return admin, true, nil
}
