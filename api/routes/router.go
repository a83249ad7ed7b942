package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jerry-Sag/branding-pirates-portal-server/api/controllers"
	"github.com/Jerry-Sag/branding-pirates-portal-server/api/middleware"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/auth"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/targets"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/users"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/workspaces"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/auth/session"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/storage"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type logLister interface {
	Recent(ctx context.Context) ([]models.ActivityLog, error)
}

type rateLimiter interface {
	pinger
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Registry   pinger
	Redis      rateLimiter
	Sessions   session.AccessSessionChecker
	Layout     storage.Layout
	Gatherer   prometheus.Gatherer
	Auth       auth.Service
	Users      users.Service
	Activity   logLister
	Workspaces workspaces.Service
	Targets    targets.Service
}

var (
	executives = []enums.UserRole{enums.UserRoleOwner, enums.UserRoleCEO}
	privileged = []enums.UserRole{enums.UserRoleOwner, enums.UserRoleCEO, enums.UserRoleAdmin}
	staffView  = []enums.UserRole{enums.UserRoleOwner, enums.UserRoleCEO, enums.UserRoleAdmin, enums.UserRoleTeam}
)

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins),
	)

	cookie := controllers.CookieOptions{
		Name:   cfg.Auth.CookieName,
		Secure: cfg.App.IsProd(),
		TTL:    cfg.JWT.AccessTokenTTL(),
	}
	onlyPrivileged := middleware.RequireRole(logg, privileged...)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyChecks(deps)...))
	})

	if cfg.Metrics.Enabled && deps.Gatherer != nil {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(cfg.AuthRateLimit, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, cookie, logg))
		r.Get("/verify", controllers.AuthVerify(deps.Auth, cookie, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cookie, logg))
		r.Post("/auth/refresh", controllers.AuthRefresh(deps.Auth, cookie, logg))

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, cfg.Auth.CookieName, deps.Sessions, logg),
				middleware.WorkspaceScope(logg),
			)

			r.Route("/users", func(r chi.Router) {
				r.With(onlyPrivileged).Get("/", controllers.UsersList(deps.Users, logg))
				r.With(onlyPrivileged).Post("/register", controllers.UsersRegister(deps.Users, logg))
				r.With(onlyPrivileged).Post("/toggle-status", controllers.UsersToggleStatus(deps.Users, logg))
				r.With(onlyPrivileged).Post("/reset-password", controllers.UsersResetPassword(deps.Users, logg))
				r.With(onlyPrivileged).Delete("/{id}", controllers.UsersDelete(deps.Users, logg))
				r.Post("/update-avatar", controllers.UsersUpdateAvatar(deps.Users, logg))
				r.Post("/update-password", controllers.UsersUpdatePassword(deps.Users, logg))
			})

			r.With(middleware.RequireRole(logg, enums.UserRoleOwner)).Get("/logs", controllers.ActivityLogs(deps.Activity, logg))

			r.Route("/workspaces", func(r chi.Router) {
				r.Get("/", controllers.WorkspaceList(deps.Workspaces, logg))
				r.With(onlyPrivileged).Post("/create", controllers.WorkspaceCreate(deps.Workspaces, logg))
				r.With(onlyPrivileged).Post("/update", controllers.WorkspaceUpdate(deps.Workspaces, logg))
				r.With(onlyPrivileged).Post("/delete", controllers.WorkspaceDelete(deps.Workspaces, logg))
				r.With(middleware.RequireRole(logg, executives...)).Post("/repair-members", controllers.WorkspaceRepairMembers(deps.Workspaces, logg))
				r.With(onlyPrivileged).Get("/{id}/members", controllers.WorkspaceMembers(deps.Workspaces, logg))
				r.Get("/{id}/targets", controllers.TargetList(deps.Targets, logg))
				r.With(onlyPrivileged).Post("/{id}/targets/create", controllers.TargetCreate(deps.Targets, logg))
			})

			r.Route("/targets/{id}", func(r chi.Router) {
				r.Get("/data", controllers.TargetData(deps.Targets, logg))

				r.Post("/rows", controllers.TargetAddRow(deps.Targets, logg))
				r.Patch("/rows/{rowId}", controllers.TargetUpdateCell(deps.Targets, logg))
				r.Delete("/rows/{rowId}", controllers.TargetDeleteRow(deps.Targets, logg))

				r.Post("/columns", controllers.TargetAddColumn(deps.Targets, logg))
				r.With(onlyPrivileged).Patch("/columns/{name}", controllers.TargetRenameColumn(deps.Targets, logg))
				r.With(onlyPrivileged).Delete("/columns/{name}", controllers.TargetDeleteColumn(deps.Targets, logg))

				r.Get("/members", controllers.TargetMembers(deps.Targets, logg))
				r.With(onlyPrivileged).Post("/members", controllers.TargetSetMembers(deps.Targets, logg))
				r.With(onlyPrivileged).Post("/goals", controllers.TargetUpdateGoals(deps.Targets, logg))
				r.With(middleware.RequireRole(logg, staffView...)).Get("/logs", controllers.TargetLogs(deps.Targets, logg))

				r.Get("/metrics", controllers.TargetMetrics(deps.Targets, logg))
				r.With(onlyPrivileged).Post("/metrics", controllers.TargetAddMetric(deps.Targets, logg))
				r.With(onlyPrivileged).Patch("/metrics/{key}", controllers.TargetRenameMetric(deps.Targets, logg))
				r.With(onlyPrivileged).Delete("/metrics/{key}", controllers.TargetRemoveMetric(deps.Targets, logg))
			})
		})
	})

	return r
}

func readyChecks(deps Dependencies) []controllers.ReadyCheck {
	var checks []controllers.ReadyCheck
	if deps.Registry != nil {
		checks = append(checks, controllers.ReadyCheck{Name: "registry", Check: deps.Registry.Ping})
	}
	if deps.Redis != nil {
		checks = append(checks, controllers.ReadyCheck{Name: "redis", Check: deps.Redis.Ping})
	}
	if deps.Layout.Root() != "" {
		layout := deps.Layout
		checks = append(checks, controllers.ReadyCheck{Name: "storage", Check: func(context.Context) error {
			return layout.Writable()
		}})
	}
	return checks
}
