package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/api/responses"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
)

const readyTimeout = 2 * time.Second

// ReadyCheck is one named dependency probe of the readiness endpoint.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Portal-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady runs every check and fails with the names of those that did.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Portal-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		failed := map[string]string{}
		for _, c := range checks {
			if c.Check == nil {
				continue
			}
			if err := c.Check(ctx); err != nil {
				failed[c.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			if logg != nil {
				logg.Warn(logg.WithFields(r.Context(), map[string]any{"failed_checks": failed}), "health.not_ready")
			}
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "not ready").WithDetails(failed))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
