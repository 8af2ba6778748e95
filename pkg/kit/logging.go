// Package kit holds the HTTP toolkit shared by every handler: JSON
// responses, request logging, metrics, rate limiting and server
// lifecycle.
package kit

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewLogger builds the service logger. Set dev to get console-friendly
// output at debug level.
func NewLogger(service string, dev bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.InitialFields = map[string]any{"service": service}
	l, _ := cfg.Build()
	return l
}

func Recoverer(next http.Handler) http.Handler {
	return middleware.Recoverer(next)
}

func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
			)
		})
	}
}
