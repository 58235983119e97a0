package infra

import (
	"context"
	"sync"
	"time"

	"static-httpd/middleware/ratelimit/domain"

	"golang.org/x/time/rate"
)

// TokenBucket é a estratégia alternativa (rate_limit_strategy=token): um
// token-bucket por chave (x/time/rate) com cache e limpeza periódica.
//
// A mesma cota "max por janela" vira rps=max/janela e burst=max, então o
// cliente pode gastar a cota de uma vez e depois recupera aos poucos, em vez
// de esperar a janela inteira deslizar.
type TokenBucket struct {
	mu           sync.Mutex
	entries      map[domain.Key]*bucketEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type TokenBucketOption func(*TokenBucket)

func WithIdleTTL(d time.Duration) TokenBucketOption {
	return func(s *TokenBucket) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) TokenBucketOption {
	return func(s *TokenBucket) { s.cleanupEvery = d }
}

// NewTokenBucket converte max requisições por window em rps/burst.
func NewTokenBucket(max int, window time.Duration, opts ...TokenBucketOption) *TokenBucket {
	rps := rate.Inf
	if window > 0 {
		rps = rate.Limit(float64(max) / window.Seconds())
	}
	s := &TokenBucket{
		entries:      make(map[domain.Key]*bucketEntry),
		rps:          rps,
		burst:        max,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TokenBucket) RPS() float64 { return float64(s.rps) }
func (s *TokenBucket) Burst() int   { return s.burst }

// Get implementa domain.LimiterStore.
func (s *TokenBucket) Get(key domain.Key) domain.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &bucketEntry{lim: lim, lastSeen: now}
	return lim
}

// Len devolve quantas chaves estão em cache.
func (s *TokenBucket) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *TokenBucket) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *TokenBucket) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
