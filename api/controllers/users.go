package controllers

import (
	"net/http"

	"github.com/Jerry-Sag/branding-pirates-portal-server/api/responses"
	"github.com/Jerry-Sag/branding-pirates-portal-server/api/validators"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/users"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
)

func UsersList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("users"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), actor, r.URL.Query().Get("role"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func UsersRegister(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("users"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body users.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Name = validators.SanitizeString(body.Name, 120)

		id, err := svc.Register(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]int64{"userId": id})
	}
}

func UsersToggleStatus(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("users"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body users.ToggleStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.ToggleStatus(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": status.String()})
	}
}

func UsersResetPassword(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("users"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body users.ResetPasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ResetPassword(r.Context(), actor, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

func UsersDelete(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("users"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

func UsersUpdateAvatar(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("users"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body users.UpdateAvatarRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateAvatar(r.Context(), actor, body.Avatar); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"avatar": body.Avatar})
	}
}

func UsersUpdatePassword(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("users"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body users.UpdatePasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdatePassword(r.Context(), actor, body.NewPassword); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}
