package controllers

import (
	"net/http"
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/api/middleware"
	"github.com/Jerry-Sag/branding-pirates-portal-server/api/responses"
	"github.com/Jerry-Sag/branding-pirates-portal-server/api/validators"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/auth"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
)

// CookieOptions controls the auth cookie set on login.
type CookieOptions struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

func (o CookieOptions) set(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     o.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(o.TTL.Seconds()),
	})
}

func (o CookieOptions) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     o.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// AuthLogin checks credentials and sets the auth cookie on success.
func AuthLogin(svc auth.Service, cookie CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body, middleware.ClientIP(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookie.set(w, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// AuthVerify reports the caller's current standing. It never fails on a bad
// token; the cookie is cleared instead.
func AuthVerify(svc auth.Service, cookie CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}

		result, err := svc.Verify(r.Context(), middleware.BearerToken(r, cookie.Name))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !result.Authenticated {
			cookie.clear(w)
		}
		responses.WriteSuccess(w, result)
	}
}

func AuthLogout(svc auth.Service, cookie CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}

		if err := svc.Logout(r.Context(), middleware.BearerToken(r, cookie.Name)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cookie.clear(w)
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

func AuthRefresh(svc auth.Service, cookie CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}

		var body auth.RefreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.AccessToken == "" {
			body.AccessToken = middleware.BearerToken(r, cookie.Name)
		}

		result, err := svc.Refresh(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookie.set(w, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}
