package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/app"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/migrate"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCommand(loadBackend).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadBackend wires the registry and services without Redis: operator
// commands never touch sessions or rate limits.
func loadBackend(ctx context.Context) (*backend, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "portalctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, nil, fmt.Errorf("open registry: %w", err)
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			logg.Error(context.Background(), "error closing registry", err)
		}
	}
	if err := migrate.MaybeRunAuto(ctx, cfg, logg, client); err != nil {
		cleanup()
		return nil, nil, err
	}

	portal, err := app.New(cfg, logg, client, app.Options{})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return &backend{
		Users:      portal.Users,
		Workspaces: portal.Workspaces,
		Targets:    portal.Targets,
	}, cleanup, nil
}
