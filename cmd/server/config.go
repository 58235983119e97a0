package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"static-httpd/logging"
	"static-httpd/server"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindViper liga as flags ao viper; env (PORT, RATE_LIMIT_MAX, ...) e arquivo
// de config entram pelo mesmo nome. Precedência: flag > env > arquivo > default.
func bindViper(v *viper.Viper, f *pflag.FlagSet) {
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	f.VisitAll(func(fl *pflag.Flag) {
		_ = v.BindPFlag(fl.Name, fl)
	})
}

func readConfigFile(v *viper.Viper) error {
	path := v.GetString("config")
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func loadConfig(v *viper.Viper) (server.Config, slog.Level, error) {
	cfg := server.DefaultConfig()
	cfg.Port = v.GetInt("port")
	cfg.Backlog = v.GetInt("backlog")
	cfg.Workers = v.GetInt("threads")
	cfg.QueueCapacity = v.GetInt("queue-capacity")
	cfg.DocRoot = v.GetString("root")
	cfg.KeepAlive = time.Duration(v.GetInt("keepalive")) * time.Second
	cfg.LogFile = v.GetString("log")
	cfg.LogLevel = v.GetString("log-level")

	cfg.GzipEnabled = v.GetBool("gzip")
	cfg.GzipMinSize = v.GetInt("gzip-min-size")

	cfg.RateLimitEnabled = v.GetBool("rate-limit")
	cfg.RateLimitMax = v.GetInt("rate-limit-max")
	cfg.RateLimitWindow = time.Duration(v.GetInt("rate-limit-interval")) * time.Second
	cfg.RateLimitStrategy = strings.ToLower(v.GetString("rate-limit-strategy"))
	cfg.RetryAfter = v.GetDuration("retry-after")

	cfg.MaxBodyBytes = v.GetInt("max-body-bytes")
	cfg.ConfineDocRoot = v.GetBool("confine-root")

	cfg.StatsRedisAddr = v.GetString("stats-redis-addr")
	cfg.StatsRedisPassword = v.GetString("stats-redis-password")
	cfg.StatsRedisDB = v.GetInt("stats-redis-db")
	cfg.StatsSQLitePath = v.GetString("stats-sqlite-path")

	if err := cfg.Validate(); err != nil {
		return server.Config{}, 0, err
	}
	level := logging.LevelFromVerbosity(logging.LevelFromString(cfg.LogLevel), v.GetInt("verbose"))
	return cfg, level, nil
}
