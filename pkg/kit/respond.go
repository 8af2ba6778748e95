package kit

import (
	"encoding/json"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse is the JSON envelope for every error the API returns.
// The request id lets a caller quote a specific request in a report.
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON serializes v with the given status. Encoding errors are
// dropped; the status line is already on the wire by then.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError responds with the standard error envelope, stamped with
// the request id from the context.
func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string, details any) {
	WriteJSON(w, status, ErrorResponse{
		Error:     msg,
		Details:   details,
		RequestID: chimw.GetReqID(r.Context()),
	})
}
