package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ProductHub/internal/storage"
	"ProductHub/pkg/kit"
)

const maxBodyBytes = 1 << 20

// Server exposes user management over HTTP. Every response goes through
// the redacted projection; the stored password hash never leaves the
// store layer.
type Server struct {
	Log   *zap.Logger
	Store *Store
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Post("/", s.create)
	r.Get("/{id}", s.get)
	r.Put("/{id}", s.update)
	r.Delete("/{id}", s.delete)
	r.Post("/{id}/toggle-status", s.toggleStatus)
	r.Put("/username/{username}/password", s.setPassword)

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	users, err := s.Store.List(r.Context())
	if err != nil {
		s.writeError(w, r, "list users", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, RedactAll(users))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, ok, err := s.Store.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, "get user", err)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "user not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, u.Redact())
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var in CreateInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if in.Username == "" || in.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "username/password required", nil)
		return
	}

	u, err := s.Store.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, "create user", err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, u.Redact())
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var in UpdateInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	u, err := s.Store.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, "update user", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, u.Redact())
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.Store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, err := s.Store.ToggleActive(r.Context(), id)
	if err != nil {
		s.writeError(w, r, "toggle user status", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, u.Redact())
}

type setPasswordReq struct {
	Password string `json:"password"`
}

func (s *Server) setPassword(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req setPasswordReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "password required", nil)
		return
	}

	if err := s.Store.SetPassword(r.Context(), username, req.Password); err != nil {
		s.writeError(w, r, "set password", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, ErrUsernameTaken):
		kit.WriteError(w, r, http.StatusConflict, "username already exists", nil)
	case errors.Is(err, ErrProtected):
		kit.WriteError(w, r, http.StatusForbidden, "admin user is protected", nil)
	case errors.Is(err, storage.ErrUnavailable):
		s.Log.Error(op+" failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "storage unavailable", nil)
	default:
		s.Log.Error(op+" failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
