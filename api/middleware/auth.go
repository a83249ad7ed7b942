package middleware

import (
	"net/http"
	"strings"

	"github.com/Jerry-Sag/branding-pirates-portal-server/api/responses"
	pkgAuth "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/auth"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/auth/session"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
)

// BearerToken extracts the access token from the Authorization header or,
// failing that, from the auth cookie.
func BearerToken(r *http.Request, cookieName string) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw != "" {
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			raw = strings.TrimSpace(raw[7:])
		}
		return raw
	}
	if cookieName == "" {
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// Auth validates the access token, checks its session is still live and
// seeds the request context with the caller.
func Auth(cfg config.JWTConfig, cookieName string, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r, cookieName)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx := WithActor(r.Context(), types.Actor{
				UserID: claims.UserID,
				Email:  claims.Email,
				Role:   claims.Role,
				IP:     clientIP(r),
			})
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID)
				ctx = logg.WithActorRole(ctx, string(claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
