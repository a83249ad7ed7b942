package controllers

import (
	"context"
	"net/http"

	"github.com/Jerry-Sag/branding-pirates-portal-server/api/responses"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
)

type activityLister interface {
	Recent(ctx context.Context) ([]models.ActivityLog, error)
}

// ActivityLogs returns the newest portal-wide audit entries.
func ActivityLogs(svc activityLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("activity"))
			return
		}

		logs, err := svc.Recent(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, logs)
	}
}
