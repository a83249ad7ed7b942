package controllers

import (
	"net/http"

	"github.com/Jerry-Sag/branding-pirates-portal-server/api/responses"
	"github.com/Jerry-Sag/branding-pirates-portal-server/api/validators"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/targets"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/workspaces"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
)

func WorkspaceList(svc workspaces.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("workspace"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// WorkspaceCreate registers a workspace and provisions its store.
func WorkspaceCreate(svc workspaces.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("workspace"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body workspaces.CreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func WorkspaceUpdate(svc workspaces.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("workspace"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body workspaces.UpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Update(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func WorkspaceDelete(svc workspaces.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("workspace"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body workspaces.DeleteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

func WorkspaceMembers(svc workspaces.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("workspace"))
			return
		}
		id, err := validators.ParseID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		members, err := svc.Members(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, members)
	}
}

// WorkspaceRepairMembers resyncs every workspace store's member table.
func WorkspaceRepairMembers(svc workspaces.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("workspace"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.RepairMembers(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

// TargetCreate registers a target under the {id} workspace.
func TargetCreate(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("target"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		workspaceID, err := validators.ParseID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body targets.CreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), actor, workspaceID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func TargetList(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("target"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		workspaceID, err := validators.ParseID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), actor, workspaceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
