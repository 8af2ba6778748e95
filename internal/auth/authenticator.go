// Package auth verifies credentials against the user store and issues
// session tokens for the HTTP boundary.
package auth

import (
	"context"

	"ProductHub/internal/user"
)

// Identity is the minimal non-sensitive result of a successful login.
// It never carries the password, hashed or otherwise.
type Identity struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Role     user.Role `json:"role"`
}

// Authenticator checks username/password pairs against the user store.
type Authenticator struct {
	Users *user.Store
}

// Authenticate returns the session identity for a matching, active
// user, stamping lastLogin as a side effect. A wrong username, wrong
// password or inactive account all yield the same (Identity{}, false,
// nil); the caller must not be told which.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (Identity, bool, error) {
	u, ok, err := a.Users.VerifyCredentials(ctx, username, password)
	if err != nil || !ok {
		return Identity{}, false, err
	}

	return Identity{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Role:     u.Role,
	}, true, nil
}
