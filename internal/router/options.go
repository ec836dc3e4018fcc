package router

import (
	"log/slog"
	"time"

	"github.com/chisheng/busybus/internal/metrics"
	"github.com/chisheng/busybus/pkg/session"
)

const (
	// DefaultSockPath mirrors busclient's default.
	DefaultSockPath = "/tmp/bbus.sock"
	// DefaultBacklog is the listen(2) backlog.
	DefaultBacklog = 16
	// DefaultPollTimeout is the readiness-poll timeout.
	DefaultPollTimeout = 500 * time.Millisecond
)

// Option configures a Router built by New.
type Option func(*Config)

// Config holds Router construction settings.
type Config struct {
	sockPath    string
	backlog     int
	pollTimeout time.Duration
	auth        session.AuthFunc
	logger      *slog.Logger
	metrics     metrics.Metrics
}

func defaultConfig() *Config {
	return &Config{
		sockPath:    DefaultSockPath,
		backlog:     DefaultBacklog,
		pollTimeout: DefaultPollTimeout,
		logger:      slog.Default(),
		metrics:     metrics.NewDefaultMetrics(),
	}
}

func applyConfig(opts []Option) *Config {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// WithSockPath overrides the listening socket path.
func WithSockPath(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.sockPath = path
		}
	}
}

// WithBacklog overrides the listen(2) backlog.
func WithBacklog(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.backlog = n
		}
	}
}

// WithPollTimeout overrides the readiness-poll timeout.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.pollTimeout = d
		}
	}
}

// WithAuth installs a credential hook run during the handshake.
func WithAuth(auth session.AuthFunc) Option {
	return func(c *Config) {
		c.auth = auth
	}
}

// WithLogger overrides the router's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics overrides the router's metrics sink.
func WithMetrics(m metrics.Metrics) Option {
	return func(c *Config) {
		if m != nil {
			c.metrics = m
		}
	}
}
