package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/api/responses"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
)

// windowLimiter is satisfied by the redis client.
type windowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// LoginRateLimit throttles login attempts per client IP and per email before
// the credentials are ever checked. It is a no-op without a limiter.
func LoginRateLimit(cfg config.AuthRateLimitConfig, limiter windowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || cfg.LoginWindow <= 0 || (cfg.LoginIPLimit <= 0 && cfg.LoginEmailLimit <= 0) {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if cfg.LoginIPLimit > 0 {
				if ip := clientIP(r); ip != "" {
					if !checkWindow(ctx, w, logg, limiter, "login:ip:"+ip, cfg.LoginIPLimit, cfg.LoginWindow) {
						return
					}
				}
			}

			if cfg.LoginEmailLimit > 0 {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if email := normalizeEmail(extractEmail(body)); email != "" {
					if !checkWindow(ctx, w, logg, limiter, "login:email:"+hashValue(email), cfg.LoginEmailLimit, cfg.LoginWindow) {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// checkWindow writes the error response itself and reports whether the
// request may proceed.
func checkWindow(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, limiter windowLimiter, scope string, limit int, window time.Duration) bool {
	allowed, count, err := limiter.FixedWindowAllow(ctx, scope, int64(limit), window)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false
	}
	if allowed {
		return true
	}
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"scope":          scope,
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(window.Seconds()),
		})
		logg.Warn(logCtx, "auth.rate_limit.blocked")
	}
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts"))
	return false
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// ClientIP exposes the resolved caller address to handlers outside the
// authenticated group.
func ClientIP(r *http.Request) string { return clientIP(r) }

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Email
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// hashValue keeps raw addresses out of redis keys and logs.
func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
