package auth

import (
	"context"
	"net/http"
	"strings"

	"ProductHub/internal/user"
	"ProductHub/pkg/kit"
)

type ctxKey string

const callerKey ctxKey = "caller"

// Caller is the authenticated principal attached to a request context.
type Caller struct {
	ID       string
	Username string
	Role     user.Role
}

func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey).(Caller)
	return c, ok
}

// RequireJWT rejects requests without a valid bearer token and attaches
// the caller to the context.
func RequireJWT(jwt *TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			claims, err := jwt.Parse(strings.TrimPrefix(authz, "Bearer "))
			if err != nil || claims.UserID == "" {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}

			caller := Caller{ID: claims.UserID, Username: claims.Username, Role: claims.Role}
			ctx := context.WithValue(r.Context(), callerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a subtree to callers with the given role. It must
// run after RequireJWT.
func RequireRole(role user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFromContext(r.Context())
			if !ok {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}
			if caller.Role != role {
				kit.WriteError(w, r, http.StatusForbidden, "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
