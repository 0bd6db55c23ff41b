// Package middleware holds HTTP middleware shared across the route tree.
// Session and role guards live in the auth package; this one is purely
// observational.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// responseWriter captures the status code and body size, which the stock
// http.ResponseWriter does not expose after the fact.
type responseWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// RequestLogger emits one structured line per completed request. The request
// id comes from chi's RequestID middleware, which must run earlier in the
// chain.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{
				ResponseWriter: w,
				// WriteHeader is optional; a bare Write implies 200.
				status: http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			logger.Info("request",
				slog.String("id", chimw.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
				slog.String("remote", r.RemoteAddr),
			)
		})
	}
}
