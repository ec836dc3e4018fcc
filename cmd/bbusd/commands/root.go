// Package commands implements bbusd's CLI surface: a single daemon
// command plus the flags that feed internal/config, built on
// spf13/cobra's rootCmd/Execute/persistent-flags pattern, scaled down
// to the handful of settings a daemon this size needs.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chisheng/busybus/internal/config"
	"github.com/chisheng/busybus/internal/logx"
	"github.com/chisheng/busybus/internal/metrics"
	"github.com/chisheng/busybus/internal/metricsrv"
	"github.com/chisheng/busybus/internal/router"
)

var (
	cfgFile     string
	sockPath    string
	metricsAddr string
	logLevel    string
	logFormat   string
)

var rootCmd = &cobra.Command{
	Use:   "bbusd",
	Short: "busybus daemon",
	Long: `bbusd is the busybus message bus daemon: it binds a local stream
socket, accepts caller/provider/monitor/control sessions, and routes
calls between them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (overlays defaults; BBUS_ env vars take precedence over it)")
	rootCmd.Flags().StringVar(&sockPath, "sockpath", "", "listening socket path (default /tmp/bbus.sock)")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address for the Prometheus /metrics debug endpoint")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "", "log format: text, json")
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if sockPath != "" {
		cfg.SockPath = sockPath
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}

	logger := logx.New(cfg.LogFormat, cfg.LogLevel)
	prom := metrics.NewPrometheus()

	rt, err := router.New(
		router.WithSockPath(cfg.SockPath),
		router.WithPollTimeout(cfg.PollTimeout),
		router.WithLogger(logger),
		router.WithMetrics(prom),
	)
	if err != nil {
		return fmt.Errorf("bbusd: %w", err)
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := metricsrv.New(cfg.MetricsAddr, prom.Registry)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.Run(gctx)
	})
	group.Go(func() error {
		err := rt.Run(gctx)
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, router.ErrShuttingDown)) {
			return nil
		}
		return err
	})

	logger.Info("bbusd started", "sockpath", cfg.SockPath, "metrics", cfg.MetricsAddr)
	if err := group.Wait(); err != nil {
		logger.Error("bbusd exiting", "err", err)
		return err
	}
	logger.Info("bbusd stopped cleanly")
	return nil
}
