package application

import (
	"context"
	"time"

	"static-httpd/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre sockets nem HTTP, apenas retorna uma decisão e
// registra o evento no StatsStore (se houver).
type Service struct {
	Store      domain.LimiterStore
	Stats      domain.StatsStore
	RetryAfter time.Duration
	Now        func() time.Time
}

// Decide consulta o limiter da chave.
// Store nil significa rate limit desabilitado: tudo passa e nada é registrado.
// O erro retornado vem apenas do StatsStore; a decisão é válida mesmo com erro.
func (s Service) Decide(ctx context.Context, key domain.Key) (domain.Decision, error) {
	if s.Store == nil {
		return domain.Decision{Allowed: true}, nil
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}

	dec := domain.Decision{Allowed: true}
	if lim := s.Store.Get(key); lim != nil && !lim.Allow() {
		dec = domain.Decision{Allowed: false, RetryAfter: s.RetryAfter}
	}

	if s.Stats == nil {
		return dec, nil
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	err := s.Stats.Record(ctx, domain.StatsEvent{Key: key, Allowed: dec.Allowed, At: now()})
	return dec, err
}
