package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"static-httpd/logging"
	"static-httpd/middleware/ratelimit/infra"
	"static-httpd/server"
)

func main() {
	// Exemplo: embutindo o servidor em outro programa, com rate limit e stats em memória
	cfg := server.DefaultConfig()
	cfg.Port = 8081
	cfg.DocRoot = "."
	cfg.Workers = 4
	cfg.LogFile = ""
	cfg.GzipEnabled = true
	cfg.RateLimitEnabled = true
	cfg.RateLimitMax = 5
	cfg.RateLimitWindow = 10 * time.Second
	if v := os.Getenv("DOC_ROOT"); v != "" {
		cfg.DocRoot = v
	}

	stats := infra.NewMemoryStatsStore(infra.WithTrackKeys(true))
	logger := logging.New(os.Stderr, logging.LevelFromString(os.Getenv("LOG_LEVEL")))

	srv, err := server.New(cfg, server.WithLogger(logger), server.WithStats(stats))
	if err != nil {
		log.Fatalf("server error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		t := time.NewTicker(10 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				total := stats.Total()
				st := srv.Stats()
				logger.Info("stats",
					"allowed", total.Allowed, "denied", total.Denied,
					"busy", st.Busy, "queued", st.Queued, "rejected", st.Rejected)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("example server listening on :%d (root %s)", cfg.Port, cfg.DocRoot)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, server.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
