// Package config resolves bbusd's small settings surface (socket path,
// poll interval, log level/format, metrics listen address) from
// defaults, an optional config file, and BBUS_-prefixed environment
// variables, in that increasing order of precedence. CLI flags are not
// read here; cmd/bbusd applies them on top of the result.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is bbusd's runtime configuration.
type Config struct {
	SockPath    string        `mapstructure:"sock_path"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
	LogLevel    string        `mapstructure:"log_level"`
	LogFormat   string        `mapstructure:"log_format"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
}

// Defaults mirror router.Default* and busclient.Default* so the daemon
// and its client libraries agree absent any overlay.
func Defaults() Config {
	return Config{
		SockPath:    "/tmp/bbus.sock",
		PollTimeout: 500 * time.Millisecond,
		LogLevel:    "info",
		LogFormat:   "text",
		MetricsAddr: "127.0.0.1:9377",
	}
}

// Load resolves the config from defaults, an optional file path, and
// the BBUS_ environment namespace, in that ascending precedence.
// An empty configPath skips file lookup entirely; bbusd runs fine with
// no file at all.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BBUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	// BBUS_SOCKPATH is the one setting whose name predates this file's
	// mapstructure keys; accept it as an alias for sock_path so the
	// documented override still works unprefixed by the generic
	// BBUS_SOCK_PATH form.
	v.BindEnv("sock_path", "BBUS_SOCKPATH")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("sock_path", d.SockPath)
	v.SetDefault("poll_timeout", d.PollTimeout)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("metrics_addr", d.MetricsAddr)
}
