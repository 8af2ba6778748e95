// Package user manages the user collection: CRUD with username
// uniqueness, the protected admin account, and credential verification.
package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"ProductHub/internal/storage"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// protectedUsername marks the one account that can never be deleted or
// deactivated. The rule keys on the literal username, matching the
// deployed behavior, not on role.
const protectedUsername = "admin"

// User is the full persisted record. Password holds a bcrypt hash; the
// plaintext never reaches storage. Anything serialized outward must go
// through Redact.
type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Username  string     `json:"username"`
	Password  string     `json:"password"`
	Role      Role       `json:"role"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin"`
}

func (u User) RecordID() string { return u.ID }

func (u User) protected() bool { return u.Username == protectedUsername }

// Redacted is the outward projection of a User: every field except the
// password.
type Redacted struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Username  string     `json:"username"`
	Role      Role       `json:"role"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin"`
}

func (u User) Redact() Redacted {
	return Redacted{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// RedactAll projects a whole collection for outward serialization.
func RedactAll(users []User) []Redacted {
	out := make([]Redacted, 0, len(users))
	for _, u := range users {
		out = append(out, u.Redact())
	}
	return out
}

// CreateInput carries the caller-supplied fields for a new user.
type CreateInput struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
	Active   bool   `json:"active"`
}

// UpdateInput carries a partial update; nil fields are left unchanged.
// A non-nil Password is hashed before it replaces the stored one.
type UpdateInput struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Role     *Role   `json:"role"`
	Active   *bool   `json:"active"`
}

// DefaultUsers is the first-touch seed: one account per role, with the
// protected admin account first. Password hashes are generated fresh so
// no hash constant ships in the binary.
func DefaultUsers() []User {
	now := storage.Now()
	return []User{
		{ID: "1", Name: "Administrador", Username: "admin", Password: mustHash("admin123"), Role: RoleAdmin, Active: true, CreatedAt: now},
		{ID: "2", Name: "João Silva", Username: "joao", Password: mustHash("senha123"), Role: RoleManager, Active: true, CreatedAt: now},
		{ID: "3", Name: "Maria Santos", Username: "maria", Password: mustHash("senha456"), Role: RoleUser, Active: true, CreatedAt: now},
	}
}

func hashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func mustHash(plain string) string {
	h, err := hashPassword(plain)
	if err != nil {
		// bcrypt fails only on an out-of-range cost.
		panic(err)
	}
	return h
}
