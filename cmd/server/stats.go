package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"static-httpd/middleware/ratelimit/domain"
	"static-httpd/middleware/ratelimit/infra"
	"static-httpd/server"

	"github.com/redis/go-redis/v9"
)

// openStats escolhe o sink das decisões do rate limit: Redis, SQLite ou nenhum.
// Sem rate limit não abre nada.
func openStats(ctx context.Context, cfg server.Config, logger *slog.Logger) (domain.StatsStore, func(), error) {
	noop := func() {}
	if !cfg.RateLimitEnabled {
		return nil, noop, nil
	}

	if addr := strings.TrimSpace(cfg.StatsRedisAddr); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.StatsRedisPassword,
			DB:       cfg.StatsRedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("redis stats ping %s: %w", addr, err)
		}
		logger.Info("rate limit stats in redis", "addr", addr, "db", cfg.StatsRedisDB)
		return infra.NewRedisStatsStore(rdb, infra.WithStatsTrackKeys(true)), func() { _ = rdb.Close() }, nil
	}

	if path := strings.TrimSpace(cfg.StatsSQLitePath); path != "" {
		st, err := infra.OpenSQLiteStatsStore(path)
		if err != nil {
			return nil, noop, fmt.Errorf("sqlite stats %s: %w", path, err)
		}
		logger.Info("rate limit stats in sqlite", "path", path)
		return st, func() { _ = st.Close() }, nil
	}
	return nil, noop, nil
}
