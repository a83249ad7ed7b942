package controllers

import (
	"net/http"

	"github.com/Jerry-Sag/branding-pirates-portal-server/api/middleware"
	"github.com/Jerry-Sag/branding-pirates-portal-server/api/validators"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/targets"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
)

func actorFrom(r *http.Request) (types.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return types.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return actor, nil
}

// targetRef pairs the {id} URL parameter with the request-scoped workspace.
func targetRef(r *http.Request) (targets.Ref, error) {
	id, err := validators.ParseID(r, "id")
	if err != nil {
		return targets.Ref{}, err
	}
	return targets.Ref{
		WorkspaceID: middleware.WorkspaceIDFromContext(r.Context()),
		TargetID:    id,
	}, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}
