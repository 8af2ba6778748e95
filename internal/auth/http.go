package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ProductHub/internal/storage"
	"ProductHub/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20
	tokenTTL     = 15 * time.Minute

	loginLimitPerMin = 5
	limitWindow      = 60 * time.Second
)

type Server struct {
	Log  *zap.Logger
	Auth *Authenticator
	JWT  *TokenMaker
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, int(limitWindow.Seconds()))
	r.With(loginLimiter.Middleware).Post("/login", s.handleLogin)
	r.Get("/whoami", s.handleWhoAmI)

	return r
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	User        Identity `json:"user"`
	AccessToken string   `json:"access_token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req loginReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if req.Username == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "username/password required", nil)
		return
	}

	id, ok, err := s.Auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.Log.Error("authenticate failed", zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		kit.WriteError(w, r, status, "server error", nil)
		return
	}
	if !ok {
		// One message for every negative outcome; the reason stays private.
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	tok, err := s.JWT.New(id, tokenTTL)
	if err != nil {
		s.Log.Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{User: id, AccessToken: tok})
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
		return
	}

	claims, err := s.JWT.Parse(strings.TrimPrefix(authz, "Bearer "))
	if err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":  claims.UserID,
		"username": claims.Username,
		"role":     claims.Role,
	})
}
