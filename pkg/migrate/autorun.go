package migrate

import (
	"context"
	"fmt"

	"github.com/retrostore/retrostore-backend/pkg/config"
	"github.com/retrostore/retrostore-backend/pkg/db"
	"github.com/retrostore/retrostore-backend/pkg/logger"
)

// MaybeRunDev applies pending embedded migrations when the app runs in dev
// with RETROSTORE_AUTO_MIGRATE set. Every binary calls it on boot.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	current, pending, err := Pending(ctx, sqlDB)
	if err != nil {
		return err
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"db_version": current,
		"pending":    len(pending),
	})
	if len(pending) == 0 {
		logg.Debug(ctx, "schema up to date")
		return nil
	}

	logg.Info(ctx, "applying pending migrations (dev auto-run)")
	if err := RunEmbedded(ctx, sqlDB, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(logg.WithField(ctx, "db_version", pending[len(pending)-1].Version), "migrations applied")
	return nil
}
