package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/capazme/lexspace/internal/config"
	"github.com/capazme/lexspace/internal/db"
	dbRedis "github.com/capazme/lexspace/internal/db/redis"
	dbSqlite "github.com/capazme/lexspace/internal/db/sqlite"
	"github.com/capazme/lexspace/internal/domain/norma"
	logpkg "github.com/capazme/lexspace/internal/logger"
	"github.com/capazme/lexspace/internal/metrics"
	workspacerepo "github.com/capazme/lexspace/internal/repository/workspace"
	chiTransport "github.com/capazme/lexspace/internal/transport/chi"
	"github.com/capazme/lexspace/internal/transport/visualex"
	"github.com/capazme/lexspace/internal/usecase/aggregate"
	annexswitchuc "github.com/capazme/lexspace/internal/usecase/annexswitch"
	healthuc "github.com/capazme/lexspace/internal/usecase/health"
	searchuc "github.com/capazme/lexspace/internal/usecase/search"
	workspaceuc "github.com/capazme/lexspace/internal/usecase/workspace"
	"github.com/capazme/lexspace/internal/version"
)

func runServe(env string) error {
	if env == "" {
		env = config.GetEnv()
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting lexspace API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("backend_url", cfg.Backend.BaseURL),
	)

	var store db.Store
	switch cfg.Storage.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Storage.Addrs,
			Password: cfg.Storage.Password,
		})
	case "sqlite":
		store, err = dbSqlite.NewStore(cfg.Storage.Path)
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Storage.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("storage not ready: %w", err)
	}
	logger.Info("Connected to storage")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	backend := visualex.New(visualex.Config{
		BaseURL:           cfg.Backend.BaseURL,
		Timeout:           time.Duration(cfg.Backend.TimeoutSec) * time.Second,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		Burst:             cfg.Backend.Burst,
		Logger:            logger,
	})

	repo := workspacerepo.New(store, cfg.Storage.KeyPrefix)
	wsSvc := workspaceuc.New(repo)
	agg := aggregate.New(wsSvc, logger)
	searchSvc := searchuc.New(&backendAdapter{inner: backend}, agg, logger)

	// The detector re-runs searches through the search service, so it is
	// attached after construction.
	detector := annexswitchuc.New(cfg.AnnexSwitch, backend, searchSvc, wsSvc, logger)
	searchSvc.SetDetector(detector)

	healthSvc := healthuc.New(store, backend)

	server := chiTransport.NewServer(searchSvc, wsSvc, detector, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Router())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// backendAdapter narrows *visualex.Stream to the search stream interface.
type backendAdapter struct {
	inner *visualex.Client
}

func (a *backendAdapter) FetchAllData(ctx context.Context, p norma.SearchParams) ([]norma.Result, error) {
	return a.inner.FetchAllData(ctx, p)
}

func (a *backendAdapter) FetchArticleText(ctx context.Context, p norma.SearchParams) ([]norma.Result, error) {
	return a.inner.FetchArticleText(ctx, p)
}

func (a *backendAdapter) StreamArticleText(ctx context.Context, p norma.SearchParams) (searchuc.ResultStream, error) {
	return a.inner.StreamArticleText(ctx, p)
}

func (a *backendAdapter) FetchNormaData(ctx context.Context, lookup norma.Lookup) ([]norma.Ref, error) {
	return a.inner.FetchNormaData(ctx, lookup)
}

func (a *backendAdapter) FetchTree(ctx context.Context, urn string, withDetails, withMetadata bool) (norma.Document, error) {
	return a.inner.FetchTree(ctx, urn, withDetails, withMetadata)
}

func (a *backendAdapter) ExportPDF(ctx context.Context, urn string) ([]byte, error) {
	return a.inner.ExportPDF(ctx, urn)
}
