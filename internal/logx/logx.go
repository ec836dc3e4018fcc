// Package logx wraps log/slog with the small set of conventions bbusd
// uses: a leveled text or JSON handler chosen at startup, and a
// connection-scoped logger carrying a uuid so a client's log lines can
// be correlated across its lifetime.
package logx

import (
	"log/slog"
	"os"
	"strings"
)

// New builds the daemon's root logger. format is "text" or "json";
// anything else falls back to text. level is parsed case-insensitively
// ("debug", "info", "warn", "error"); unrecognized values default to
// info.
func New(format, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// ForConn returns a logger scoped to one connection, tagging every line
// with its diagnostic id and peer credentials.
func ForConn(base *slog.Logger, connID string, pid int32, uid uint32) *slog.Logger {
	return base.With("conn", connID, "pid", pid, "uid", uid)
}
