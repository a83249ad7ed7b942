package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
)

// inbound ids are echoed into logs, so only short opaque tokens are trusted
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(types.RequestIDHeader)
			if !requestIDPattern.MatchString(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(types.RequestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
