package server

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 8080 || cfg.Backlog != 128 || cfg.Workers != 16 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DocRoot != "./www" || cfg.KeepAlive != 5*time.Second || cfg.LogFile != "logs/server.log" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.GzipEnabled || cfg.GzipMinSize != 1024 {
		t.Fatalf("unexpected gzip defaults: %+v", cfg)
	}
	if cfg.RateLimitEnabled || cfg.RateLimitMax != 100 || cfg.RateLimitWindow != time.Minute {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg)
	}
	if !cfg.ConfineDocRoot {
		t.Fatalf("expected confine on by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestConfig_QueueSize(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.QueueSize() != 128 {
		t.Fatalf("expected queue to follow backlog, got %d", cfg.QueueSize())
	}
	cfg.QueueCapacity = 10
	if cfg.QueueSize() != 10 {
		t.Fatalf("expected explicit capacity, got %d", cfg.QueueSize())
	}
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Port = 70000 }},
		{"backlog", func(c *Config) { c.Backlog = 0 }},
		{"threads", func(c *Config) { c.Workers = -1 }},
		{"root", func(c *Config) { c.DocRoot = " " }},
		{"keepalive", func(c *Config) { c.KeepAlive = 0 }},
		{"rate_limit_max", func(c *Config) { c.RateLimitEnabled = true; c.RateLimitMax = 0 }},
		{"rate_limit_interval", func(c *Config) { c.RateLimitEnabled = true; c.RateLimitWindow = 0 }},
		{"rate_limit_strategy", func(c *Config) { c.RateLimitEnabled = true; c.RateLimitStrategy = "leaky" }},
	}
	for _, c := range cases {
		cfg := DefaultConfig()
		c.mutate(&cfg)
		err := cfg.Validate()
		var cerr *ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("%s: expected ConfigError, got %v", c.field, err)
		}
		if cerr.Field != c.field {
			t.Fatalf("expected field %q, got %q", c.field, cerr.Field)
		}
	}
}

func TestConfig_RateLimitFieldsIgnoredWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitMax = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled limiter should not validate its fields: %v", err)
	}
}
