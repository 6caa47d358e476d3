package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vidtube/api/internal/api"
	"github.com/vidtube/api/internal/auth"
	"github.com/vidtube/api/internal/config"
	"github.com/vidtube/api/internal/observability"
	"github.com/vidtube/api/internal/ratelimit"
	"github.com/vidtube/api/internal/store"
	"github.com/vidtube/api/internal/store/memstore"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeRepo, err := openRepo(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store setup failed", zap.Error(err))
	}
	defer closeRepo()

	secret := cfg.JWTSecret
	if secret == "" {
		// Only reachable outside production; see config.Validate.
		logger.Warn("JWT_SECRET is empty, using an insecure development secret")
		secret = "development-only-secret"
	}
	validator, err := auth.NewValidator(secret, cfg.JWTIssuer)
	if err != nil {
		logger.Fatal("auth setup failed", zap.Error(err))
	}

	limiter, closeLimiter := ratelimit.New(ctx, cfg.RedisURL, cfg.RateLimitPerMinute, logger)
	defer closeLimiter()

	router := api.NewRouter(api.Deps{
		Repo:      repo,
		Validator: validator,
		Limiter:   limiter,
		Metrics:   observability.NewCollector("vidtube"),
		Logger:    logger,
		Config:    cfg,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		logger.Info("api listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}

// openRepo connects the configured store. The memory store is seeded with the
// default categories so a local instance is browsable straight away.
func openRepo(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Repo, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		repo := memstore.New()
		if err := repo.EnsureCategories(ctx, store.DefaultCategories()); err != nil {
			return nil, nil, err
		}
		logger.Warn("using in-memory store; data is lost on restart")
		return repo, func() {}, nil
	}

	pool, err := store.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	applied, err := store.RunMigrations(ctx, pool, migrations.FS)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("migrations applied", zap.Strings("files", applied))
	return store.NewPostgresRepo(pool), pool.Close, nil
}
