package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
)

// statusRecorder remembers the first status written and counts body bytes.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Logging writes one request.complete line per request. The route pattern
// is logged next to the raw path so target ids do not explode cardinality.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logg == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r.WithContext(ctx))

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			fields := map[string]any{
				"status":      rec.status,
				"bytes":       rec.bytes,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if pattern := rc.RoutePattern(); pattern != "" {
					fields["route"] = pattern
				}
			}
			logg.Info(logg.WithFields(ctx, fields), "request.complete")
		})
	}
}
