package controllers

import (
	"net/http"

	"github.com/Jerry-Sag/branding-pirates-portal-server/api/responses"
	"github.com/Jerry-Sag/branding-pirates-portal-server/api/validators"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/targets"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
)

// TargetMetrics returns the goals table: target, pace and progress per metric.
func TargetMetrics(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ref, ok := targetCall(w, r, svc, logg)
		if !ok {
			return
		}

		report, err := svc.Metrics(r.Context(), actor, ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func TargetAddMetric(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ref, ok := targetCall(w, r, svc, logg)
		if !ok {
			return
		}

		var body targets.AddMetricRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		metric, err := svc.AddMetric(r.Context(), actor, ref, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, metric)
	}
}

func TargetRenameMetric(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ref, ok := targetCall(w, r, svc, logg)
		if !ok {
			return
		}
		key, err := pathName(r, "key")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body targets.RenameMetricRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		metric, err := svc.RenameMetric(r.Context(), actor, ref, key, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, metric)
	}
}

func TargetRemoveMetric(svc targets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ref, ok := targetCall(w, r, svc, logg)
		if !ok {
			return
		}
		key, err := pathName(r, "key")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveMetric(r.Context(), actor, ref, key); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}
