// Command seed-categories inserts the default video categories. Categories
// that already exist by name are left untouched, so it is safe to re-run.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/vidtube/api/internal/config"
	"github.com/vidtube/api/internal/observability"
	"github.com/vidtube/api/internal/store"
	"github.com/vidtube/api/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := observability.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := store.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if _, err := store.RunMigrations(ctx, pool, migrations.FS); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	cats := store.DefaultCategories()
	if err := store.NewPostgresRepo(pool).EnsureCategories(ctx, cats); err != nil {
		logger.Fatal("seeding categories failed", zap.Error(err))
	}
	logger.Info("categories seeded", zap.Int("count", len(cats)))
}
