package migrate

import (
	"context"
	"fmt"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
)

// MaybeRunAuto applies the embedded migrations when PORTAL_AUTO_MIGRATE is on.
// A fresh SQLite registry in dev is migrated even without the flag.
func MaybeRunAuto(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate && !(cfg.App.IsDev() && cfg.DB.IsSQLite()) {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": client.Dialect()})
	logg.Info(ctx, "running goose migrations (auto)")

	if err := Run(ctx, sqlDB, client.Dialect(), "", "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
