package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"static-httpd/logging"
	"static-httpd/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "static-httpd",
		Short:         "Concurrent HTTP/1.1 static file server",
		Long:          "Serves files from a document root with keep-alive, conditional GET, gzip and per-client rate limiting.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := readConfigFile(v); err != nil {
				return err
			}
			cfg, level, err := loadConfig(v)
			if err != nil {
				return err
			}

			logger, closer, err := logging.Open(cfg.LogFile, level)
			if err != nil {
				logger.Warn("log file unavailable, logging to stderr only", "path", cfg.LogFile, "error", err)
			}
			defer func() { _ = closer.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger)
		},
	}

	f := cmd.Flags()
	f.IntP("port", "p", 8080, "port to listen on")
	f.IntP("backlog", "b", 128, "pending connection backlog (also the default queue size)")
	f.IntP("threads", "t", 16, "number of worker goroutines")
	f.Int("queue-capacity", 0, "worker queue capacity (0 uses --backlog)")
	f.StringP("root", "r", "./www", "document root")
	f.IntP("keepalive", "k", 5, "keep-alive timeout in seconds")
	f.StringP("log", "l", "logs/server.log", "log file path (empty logs to stderr only)")
	f.String("log-level", "info", "log level: debug, info, warn, error")
	f.CountP("verbose", "v", "increase verbosity (repeatable)")
	f.Bool("gzip", false, "enable gzip compression")
	f.Int("gzip-min-size", 1024, "minimum body size in bytes to compress")
	f.Bool("rate-limit", false, "enable per-client rate limiting")
	f.Int("rate-limit-max", 100, "max requests per client per interval")
	f.Int("rate-limit-interval", 60, "rate limit window in seconds")
	f.String("rate-limit-strategy", server.StrategySliding, "rate limit strategy: sliding or token")
	f.Duration("retry-after", 0, "Retry-After sent with 429 (0 means 1s)")
	f.Int("max-body-bytes", 1<<20, "largest request body accepted")
	f.Bool("confine-root", true, "reject paths that resolve outside the document root")
	f.String("stats-redis-addr", "", "record rate limit decisions in redis at this address")
	f.String("stats-redis-password", "", "redis password")
	f.Int("stats-redis-db", 0, "redis database")
	f.String("stats-sqlite-path", "", "record rate limit decisions in this sqlite file")
	f.String("config", "", "config file (yaml, toml or json)")

	bindViper(v, f)
	return cmd
}

func run(ctx context.Context, cfg server.Config, logger *slog.Logger) error {
	if err := seedDocRoot(cfg.DocRoot); err != nil {
		return fmt.Errorf("prepare document root: %w", err)
	}

	stats, closeStats, err := openStats(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStats()

	opts := []server.Option{server.WithLogger(logger)}
	if stats != nil {
		opts = append(opts, server.WithStats(stats))
	}
	srv, err := server.New(cfg, opts...)
	if err != nil {
		return err
	}

	logger.Info("starting static-httpd",
		"port", cfg.Port,
		"threads", cfg.Workers,
		"queue", cfg.QueueSize(),
		"root", cfg.DocRoot,
		"keepalive", cfg.KeepAlive,
		"gzip", cfg.GzipEnabled,
		"gzip_min_size", cfg.GzipMinSize,
		"rate_limit", srv.RateLimitPolicy(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := srv.ListenAndServe()
		if errors.Is(err, server.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
