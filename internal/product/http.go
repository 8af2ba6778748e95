package product

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

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.List(r.Context())
	if err != nil {
		s.writeError(w, r, "list products", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok, err := s.Store.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, "get product", err)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decode(w, r)
	if !ok {
		return
	}

	p, err := s.Store.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, "create product", err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	in, ok := s.decode(w, r)
	if !ok {
		return
	}

	p, err := s.Store.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, "update product", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.Store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (Input, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var in Input
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return Input{}, false
	}
	return in, true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "product not found", nil)
	case errors.Is(err, storage.ErrUnavailable):
		s.Log.Error(op+" failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "storage unavailable", nil)
	default:
		s.Log.Error(op+" failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
