package lexspace

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/capazme/lexspace/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver     string // "redis" or "sqlite"
	addrs      []string
	username   string
	password   string
	sqlitePath string

	backendURL     string
	backendTimeout time.Duration
	backendRPS     float64
	backendBurst   int

	keyPrefix string

	annexSwitch config.AnnexSwitchConfig

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to persist workspace state in Redis.
func WithRedis(addr, username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.username = username
		c.password = password
	})
}

// WithSQLite configures the client to persist workspace state in a
// local SQLite file.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.sqlitePath = path
	})
}

// WithBackend sets the base URL of the VisuaLex-compatible API backend.
// Required.
func WithBackend(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.backendURL = baseURL
	})
}

// WithBackendTimeout sets the per-request timeout for backend calls.
// Default: 60s (scraping endpoints are slow).
func WithBackendTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.backendTimeout = d
	})
}

// WithBackendRateLimit caps outgoing backend requests.
// Defaults: 5 req/s, burst 5.
func WithBackendRateLimit(rps float64, burst int) Option {
	return optionFunc(func(c *clientConfig) {
		c.backendRPS = rps
		c.backendBurst = burst
	})
}

// WithKeyPrefix sets the storage key namespace. Default: "lexspace:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithAnnexSwitch tunes the annex auto-switch detector.
func WithAnnexSwitch(cfg config.AnnexSwitchConfig) Option {
	return optionFunc(func(c *clientConfig) {
		c.annexSwitch = cfg
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
