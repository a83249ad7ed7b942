package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Jerry-Sag/branding-pirates-portal-server/api/responses"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
)

const workspaceQueryParam = "workspaceId"

// WorkspaceScope parses the optional workspaceId query parameter into the
// request context. A present but malformed value is rejected.
func WorkspaceScope(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.URL.Query().Get(workspaceQueryParam))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid workspaceId").WithDetails(map[string]any{"field": workspaceQueryParam}))
				return
			}
			ctx := WithWorkspaceID(r.Context(), id)
			if logg != nil {
				ctx = logg.WithWorkspaceID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
