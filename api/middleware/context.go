package middleware

import (
	"context"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
)

type contextKey string

const (
	ctxActor       contextKey = "actor"
	ctxWorkspaceID contextKey = "workspace_id"
)

// ActorFromContext returns the authenticated caller, if any.
func ActorFromContext(ctx context.Context) (types.Actor, bool) {
	if ctx == nil {
		return types.Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(types.Actor)
	return actor, ok
}

// WithActor injects the authenticated caller into the context.
func WithActor(ctx context.Context, actor types.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

// WorkspaceIDFromContext returns the request-scoped workspace, or zero.
func WorkspaceIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxWorkspaceID).(int64); ok {
		return v
	}
	return 0
}

// WithWorkspaceID injects the request-scoped workspace into the context.
func WithWorkspaceID(ctx context.Context, workspaceID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxWorkspaceID, workspaceID)
}
