package controllers

import (
	"net/http"
	"net/url"

	"github.com/Jerry-Sag/branding-pirates-portal-server/api/responses"
	"github.com/Jerry-Sag/branding-pirates-portal-server/api/validators"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/targets"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
	"github.com/go-chi/chi/v5"
)

// targetCall resolves the caller and target reference shared by every
// /api/targets/{id} handler. It writes the error response itself.
func targetCall(w http.ResponseWriter, r *http.Request, svc targets.Service, logg *logger.Logger) (types.Actor, targets.Ref, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, unavailable("target"))
		return types.Actor{}, targets.Ref{}, false
	}
	actor, err := actorFrom(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return types.Actor{}, targets.Ref{}, false
	}
	ref, err := targetRef(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return types.Actor{}, targets.Ref{}, false
	}
	return actor, ref, true
}

// pathName reads an identifier-like URL parameter such as a column name.
func pathName(r *http.Request, key string) (string, error) {
	raw := chi.URLParam(r, key)
	name, err := url.PathUnescape(raw)
	if err != nil || name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid "+key).WithDetails(map[string]any{"field": key})
	}
	return name, nil
}

func TargetData(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ref, ok := targetCall(w, r, svc, logg)
		if !ok {
			return
		}

		data, err := svc.Data(r.Context(), actor, ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, data)
	}
}

func TargetAddRow(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ref, ok := targetCall(w, r, svc, logg)
		if !ok {
			return
		}

		values, err := validators.DecodeJSONMap(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddRow(r.Context(), actor, ref, values)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func TargetUpdateCell(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ref, ok := targetCall(w, r, svc, logg)
		if !ok {
			return
		}
		rowID, err := validators.ParseID(r, "rowId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body targets.UpdateCellRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateCell(r.Context(), actor, ref, rowID, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

func TargetDeleteRow(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ref, ok := targetCall(w, r, svc, logg)
		if !ok {
			return
		}
		rowID, err := validators.ParseID(r, "rowId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteRow(r.Context(), actor, ref, rowID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

func TargetAddColumn(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ref, ok := targetCall(w, r, svc, logg)
		if !ok {
			return
		}

		var body targets.AddColumnRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddColumn(r.Context(), actor, ref, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func TargetRenameColumn(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ref, ok := targetCall(w, r, svc, logg)
		if !ok {
			return
		}
		name, err := pathName(r, "name")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body targets.RenameColumnRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RenameColumn(r.Context(), actor, ref, name, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func TargetDeleteColumn(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ref, ok := targetCall(w, r, svc, logg)
		if !ok {
			return
		}
		name, err := pathName(r, "name")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteColumn(r.Context(), actor, ref, name); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

func TargetMembers(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ref, ok := targetCall(w, r, svc, logg)
		if !ok {
			return
		}

		members, err := svc.Members(r.Context(), actor, ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, members)
	}
}

func TargetSetMembers(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ref, ok := targetCall(w, r, svc, logg)
		if !ok {
			return
		}

		var body targets.SetMembersRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetMembers(r.Context(), actor, ref, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

func TargetUpdateGoals(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ref, ok := targetCall(w, r, svc, logg)
		if !ok {
			return
		}

		var body targets.UpdateGoalsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateGoals(r.Context(), actor, ref, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

// TargetLogs lists audit entries tagged with the target id.
func TargetLogs(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, ref, ok := targetCall(w, r, svc, logg)
		if !ok {
			return
		}

		logs, err := svc.Logs(r.Context(), ref.TargetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, logs)
	}
}
