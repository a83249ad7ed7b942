package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Jerry-Sag/branding-pirates-portal-server/api"
	"github.com/Jerry-Sag/branding-pirates-portal-server/api/routes"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/app"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/auth"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/auth/session"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/instance"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/migrate"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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
		"port":     cfg.App.Port,
		"instance": instance.ID(),
	})

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	portal, err := app.New(cfg, logg, dbClient, app.Options{
		Sessions:   sessionManager,
		Registerer: reg,
	})
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       portal.UserRepo,
		SessionManager: sessionManager,
		Activity:       portal.Activity,
		JWTConfig:      cfg.JWT,
		AuthConfig:     cfg.Auth,
		Passwords:      cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	handler := routes.NewRouter(cfg, logg, routes.Dependencies{
		Registry:   dbClient,
		Redis:      redisClient,
		Sessions:   sessionManager,
		Layout:     portal.Layout,
		Gatherer:   reg,
		Auth:       authService,
		Users:      portal.Users,
		Activity:   portal.Activity,
		Workspaces: portal.Workspaces,
		Targets:    portal.Targets,
	})

	logg.Info(ctx, "starting api server")
	return api.Serve(ctx, cfg, logg, handler)
}
