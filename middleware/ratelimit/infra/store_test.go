package infra

import (
	"context"
	"testing"
	"time"

	"static-httpd/middleware/ratelimit/domain"
)

func TestTokenBucket_GetSameKeyReturnsSameLimiter(t *testing.T) {
	s := NewTokenBucket(10, time.Second)

	l1 := s.Get(domain.Key("k"))
	l2 := s.Get(domain.Key("k"))
	if l1 != l2 {
		t.Fatalf("expected same limiter pointer for same key")
	}
}

func TestTokenBucket_DerivesRateFromWindow(t *testing.T) {
	s := NewTokenBucket(100, 50*time.Second)
	if s.RPS() != 2 {
		t.Fatalf("expected rps=2, got %v", s.RPS())
	}
	if s.Burst() != 100 {
		t.Fatalf("expected burst=100, got %d", s.Burst())
	}
}

func TestTokenBucket_BurstThenRejects(t *testing.T) {
	// 2 por hora: o burst libera duas e a terceira imediata é barrada
	s := NewTokenBucket(2, time.Hour)

	lim := s.Get(domain.Key("k"))
	if !lim.Allow() || !lim.Allow() {
		t.Fatalf("expected the first two Allow calls to pass")
	}
	if lim.Allow() {
		t.Fatalf("expected third immediate Allow to be false")
	}
}

func TestTokenBucket_CleanupRemovesIdleEntries(t *testing.T) {
	s := NewTokenBucket(10, time.Second, WithIdleTTL(2*time.Millisecond), WithCleanupEvery(0))

	before := s.Get(domain.Key("k"))
	time.Sleep(4 * time.Millisecond)

	s.Cleanup()
	if s.Len() != 0 {
		t.Fatalf("expected cache to be empty after cleanup, got %d", s.Len())
	}

	after := s.Get(domain.Key("k"))
	if before == after {
		t.Fatalf("expected limiter to be recreated after cleanup")
	}
}

func TestTokenBucket_JanitorCleansInBackground(t *testing.T) {
	s := NewTokenBucket(10, time.Second, WithIdleTTL(time.Millisecond), WithCleanupEvery(5*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Get(domain.Key("k"))
	s.StartJanitor(ctx)

	deadline := time.Now().Add(time.Second)
	for s.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("janitor did not remove idle entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
