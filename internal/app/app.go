// Package app assembles the portal services shared by the API server and
// the admin CLI.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/activity"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/schema"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/targets"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/users"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/workspaces"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/auth/session"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/ids"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/metrics"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/storage"
)

// Options carries the optional collaborators of New.
type Options struct {
	// Sessions lets user changes revoke live sessions. Nil in the CLI.
	Sessions *session.Manager
	// Registerer receives the storage job metrics. Nil disables them.
	Registerer prometheus.Registerer
}

type App struct {
	DB             *db.Client
	Layout         storage.Layout
	StorageMetrics *metrics.StorageMetrics
	UserRepo       *users.Repository
	Activity       *activity.Service
	Users          users.Service
	Workspaces     workspaces.Service
	Targets        targets.Service
}

func New(cfg *config.Config, logg *logger.Logger, client *db.Client, opts Options) (*App, error) {
	layout, err := storage.NewLayout(cfg.Storage.Root)
	if err != nil {
		return nil, fmt.Errorf("storage layout: %w", err)
	}
	opener := storage.NewOpener(storage.Options{
		BusyTimeout: cfg.Storage.BusyTimeout,
		JournalMode: cfg.Storage.JournalMode,
	})
	strategy := schema.StrategyAuto
	if cfg.Storage.ForceShadow {
		strategy = schema.StrategyShadow
	}

	var storageMetrics *metrics.StorageMetrics
	if opts.Registerer != nil {
		storageMetrics = metrics.NewStorageMetrics(opts.Registerer)
	}

	conn := client.DB()
	userRepo := users.NewRepository(conn)
	wsRepo := workspaces.NewRepository(conn)

	activitySvc, err := activity.NewService(activity.NewRepository(conn), logg)
	if err != nil {
		return nil, err
	}

	userParams := users.ServiceParams{
		Repo:      userRepo,
		Activity:  activitySvc,
		Auth:      cfg.Auth,
		Passwords: cfg.Password,
	}
	if opts.Sessions != nil {
		userParams.Sessions = opts.Sessions
	}
	userSvc, err := users.NewService(userParams)
	if err != nil {
		return nil, err
	}

	prov := workspaces.NewProvisioner(layout, opener, storageMetrics)
	wsSvc, err := workspaces.NewService(workspaces.ServiceParams{
		Repo:         wsRepo,
		Provisioner:  prov,
		Synchronizer: workspaces.NewSynchronizer(userRepo, wsRepo, prov, storageMetrics, logg),
		Activity:     activitySvc,
		Logger:       logg,
	})
	if err != nil {
		return nil, err
	}

	targetSvc, err := targets.NewService(targets.ServiceParams{
		Repo:       targets.NewRepository(conn),
		Workspaces: wsRepo,
		Members:    prov,
		Users:      userRepo,
		Activity:   activitySvc,
		Logs:       activitySvc,
		Layout:     layout,
		Opener:     opener,
		Mutator:    schema.NewMutator(strategy),
		IDs:        ids.NewGenerator(cfg.IDs.SnowflakeNode),
		Metrics:    storageMetrics,
		Logger:     logg,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		DB:             client,
		Layout:         layout,
		StorageMetrics: storageMetrics,
		UserRepo:       userRepo,
		Activity:       activitySvc,
		Users:          userSvc,
		Workspaces:     wsSvc,
		Targets:        targetSvc,
	}, nil
}
