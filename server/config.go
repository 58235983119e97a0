package server

import (
	"fmt"
	"strings"
	"time"
)

const (
	StrategySliding = "sliding"
	StrategyToken   = "token"
)

// Config é o snapshot imutável da configuração, montado antes do start.
type Config struct {
	Port    int
	Backlog int
	Workers int
	// QueueCapacity 0 usa Backlog como tamanho da fila.
	QueueCapacity int
	DocRoot       string
	KeepAlive     time.Duration
	LogLevel      string
	LogFile       string

	GzipEnabled bool
	GzipMinSize int

	RateLimitEnabled  bool
	RateLimitMax      int
	RateLimitWindow   time.Duration
	RateLimitStrategy string
	RetryAfter        time.Duration

	MaxHeaderBytes int
	MaxBodyBytes   int
	ConfineDocRoot bool

	// Sinks de estatística do rate limit; Redis tem prioridade sobre SQLite.
	StatsRedisAddr     string
	StatsRedisPassword string
	StatsRedisDB       int
	StatsSQLitePath    string
}

func DefaultConfig() Config {
	return Config{
		Port:              8080,
		Backlog:           128,
		Workers:           16,
		DocRoot:           "./www",
		KeepAlive:         5 * time.Second,
		LogLevel:          "info",
		LogFile:           "logs/server.log",
		GzipEnabled:       false,
		GzipMinSize:       1024,
		RateLimitEnabled:  false,
		RateLimitMax:      100,
		RateLimitWindow:   60 * time.Second,
		RateLimitStrategy: StrategySliding,
		RetryAfter:        0,
		MaxHeaderBytes:    8192,
		MaxBodyBytes:      1 << 20,
		ConfineDocRoot:    true,
	}
}

// ConfigError aponta o campo inválido.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// QueueSize é a capacidade efetiva da fila do pool.
func (c Config) QueueSize() int {
	if c.QueueCapacity > 0 {
		return c.QueueCapacity
	}
	return c.Backlog
}

func (c Config) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return &ConfigError{Field: "port", Message: fmt.Sprintf("must be between 0 and 65535, got %d", c.Port)}
	case c.Backlog <= 0:
		return &ConfigError{Field: "backlog", Message: "must be > 0"}
	case c.Workers <= 0:
		return &ConfigError{Field: "threads", Message: "must be > 0"}
	case c.QueueCapacity < 0:
		return &ConfigError{Field: "queue_capacity", Message: "must be >= 0"}
	case strings.TrimSpace(c.DocRoot) == "":
		return &ConfigError{Field: "root", Message: "is required"}
	case c.KeepAlive <= 0:
		return &ConfigError{Field: "keepalive", Message: "must be > 0"}
	case c.GzipMinSize < 0:
		return &ConfigError{Field: "gzip_min_size", Message: "must be >= 0"}
	case c.MaxHeaderBytes < 0 || c.MaxBodyBytes < 0:
		return &ConfigError{Field: "max_bytes", Message: "must be >= 0"}
	}
	if c.RateLimitEnabled {
		if c.RateLimitMax <= 0 {
			return &ConfigError{Field: "rate_limit_max", Message: "must be > 0"}
		}
		if c.RateLimitWindow <= 0 {
			return &ConfigError{Field: "rate_limit_interval", Message: "must be > 0"}
		}
		switch c.RateLimitStrategy {
		case "", StrategySliding, StrategyToken:
		default:
			return &ConfigError{Field: "rate_limit_strategy", Message: fmt.Sprintf("unknown strategy %q", c.RateLimitStrategy)}
		}
	}
	return nil
}
