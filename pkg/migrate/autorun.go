package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/campusmarket-client/pkg/config"
	"github.com/angelmondragon/campusmarket-client/pkg/db"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
)

// MaybeRun applies pending migrations when auto-migrate is enabled for the storage driver.
func MaybeRun(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger, client *db.Client) error {
	if !cfg.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"driver": client.Dialect(), "dir": DefaultDir})
		logg.Info(ctx, "running storage migrations")
	}

	if err := Run(ctx, sqlDB, client.Dialect(), "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "storage migrations completed")
	}
	return nil
}
