package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/app"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/cron"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/instance"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/migrate"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/redis"
)

const lockName = "maintenance-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: "maintenance-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "maintenance-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		File:        cfg.App.LogFile,
		MaxAge:      cfg.App.LogMaxAge,
	})
	defer logg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.ID(),
	})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "maintenance worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "maintenance worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing registry", err)
		}
	}()

	if err := migrate.MaybeRunAuto(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	portal, err := app.New(cfg, logg, dbClient, app.Options{Registerer: prometheus.DefaultRegisterer})
	if err != nil {
		return err
	}

	repairJob, err := cron.NewMemberRepairJob(portal.Workspaces)
	if err != nil {
		return err
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName), cfg.Maintenance.LockTTL)
	if err != nil {
		return err
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(repairJob),
		Lock:     lock,
		Metrics:  portal.StorageMetrics,
		Interval: cfg.Maintenance.RepairInterval,
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "starting maintenance worker")
	return service.Run(ctx)
}
