package busclient

import (
	"os"
	"time"
)

const (
	// DefaultSockPath is the default busybus daemon socket, overridable
	// by the BBUS_SOCKPATH environment variable or WithSockPath, the
	// latter winning.
	DefaultSockPath = "/tmp/bbus.sock"
	// DefaultCallTimeout bounds how long Call waits for a reply before
	// giving up. The wire protocol carries no cancellation for
	// in-flight calls, so this is purely a client-side giveup.
	DefaultCallTimeout = 30 * time.Second
)

// Option configures a Client constructed by Dial.
type Option func(*Config)

// Config holds the settings a Client is built from. Zero value is not
// meaningful on its own; use defaultConfig via Dial.
type Config struct {
	sockPath    string
	name        string
	callTimeout time.Duration
}

func defaultConfig() *Config {
	sockPath := DefaultSockPath
	if env, ok := os.LookupEnv("BBUS_SOCKPATH"); ok && env != "" {
		sockPath = env
	}
	return &Config{
		sockPath:    sockPath,
		name:        "",
		callTimeout: DefaultCallTimeout,
	}
}

func applyConfig(opts []Option) *Config {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// WithSockPath overrides the daemon socket path.
func WithSockPath(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.sockPath = path
		}
	}
}

// WithName sets the human-readable name sent in the session-open meta.
func WithName(name string) Option {
	return func(c *Config) {
		c.name = name
	}
}

// WithCallTimeout sets how long Call waits for a reply. Zero or
// negative disables the timeout (Call blocks until the daemon closes
// the connection or replies).
func WithCallTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.callTimeout = d
	}
}
