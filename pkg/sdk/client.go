package lexspace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/capazme/lexspace/internal/db"
	dbRedis "github.com/capazme/lexspace/internal/db/redis"
	dbSqlite "github.com/capazme/lexspace/internal/db/sqlite"
	"github.com/capazme/lexspace/internal/domain/norma"
	workspacerepo "github.com/capazme/lexspace/internal/repository/workspace"
	"github.com/capazme/lexspace/internal/transport/visualex"
	"github.com/capazme/lexspace/internal/usecase/aggregate"
	annexswitchuc "github.com/capazme/lexspace/internal/usecase/annexswitch"
	healthuc "github.com/capazme/lexspace/internal/usecase/health"
	searchuc "github.com/capazme/lexspace/internal/usecase/search"
	workspaceuc "github.com/capazme/lexspace/internal/usecase/workspace"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the lexspace SDK entry point.
type Client struct {
	store     db.Store
	backend   *visualex.Client
	searchSvc *searchuc.Service
	wsSvc     *workspaceuc.Service
	detector  *annexswitchuc.Detector
	healthSvc *healthuc.Service
	obs       *observer
}

// New creates a lexspace Client and connects to storage.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:    "sqlite",
		keyPrefix: "lexspace:",
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.backendURL == "" {
		return nil, errors.New("lexspace: backend URL required (use WithBackend)")
	}
	if cfg.annexSwitch.MaxMainArticles <= 0 {
		cfg.annexSwitch.MaxMainArticles = 5
	}
	if cfg.annexSwitch.MinAnnexArticles <= 0 {
		cfg.annexSwitch.MinAnnexArticles = 2
	}
	if cfg.annexSwitch.ToastDurationMS <= 0 {
		cfg.annexSwitch.ToastDurationMS = 4000
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("lexspace: storage not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Username: cfg.username,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("lexspace: create redis store: %w", err)
		}
		return s, nil
	case "sqlite":
		if cfg.sqlitePath == "" {
			cfg.sqlitePath = "lexspace.db"
		}
		s, err := dbSqlite.NewStore(cfg.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("lexspace: create sqlite store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("lexspace: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	backend := visualex.New(visualex.Config{
		BaseURL:           cfg.backendURL,
		Timeout:           cfg.backendTimeout,
		RequestsPerSecond: cfg.backendRPS,
		Burst:             cfg.backendBurst,
		Logger:            cfg.logger,
	})

	repo := workspacerepo.New(store, cfg.keyPrefix)
	wsSvc := workspaceuc.New(repo)
	agg := aggregate.New(wsSvc, cfg.logger)
	searchSvc := searchuc.New(&backendAdapter{inner: backend}, agg, cfg.logger)
	detector := annexswitchuc.New(cfg.annexSwitch, backend, searchSvc, wsSvc, cfg.logger)
	searchSvc.SetDetector(detector)
	healthSvc := healthuc.New(store, backend)

	return &Client{
		store:     store,
		backend:   backend,
		searchSvc: searchSvc,
		wsSvc:     wsSvc,
		detector:  detector,
		healthSvc: healthSvc,
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks storage connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Health runs health checks against storage and the backend.
func (c *Client) Health(ctx context.Context) healthuc.Report {
	return c.healthSvc.Check(ctx)
}

// Search returns the norm search service.
func (c *Client) Search() *SearchService {
	return &SearchService{svc: c.searchSvc, detector: c.detector, obs: c.obs}
}

// Workspace returns the workspace service (tabs, quick norms, dossiers).
func (c *Client) Workspace() *WorkspaceService {
	return &WorkspaceService{svc: c.wsSvc, obs: c.obs}
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
