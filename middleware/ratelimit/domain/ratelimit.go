package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de rede ou de HTTP.

import "time"

// Key identifica o cliente sujeito ao limite (hoje: o IP do peer TCP).
type Key string

// Limiter representa algo que pode decidir se uma ação é permitida agora.
//
// Observação: a implementação pode ser janela deslizante, token-bucket, etc.
// A camada de infra usa um ring buffer por slot ou golang.org/x/time/rate.
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém um limiter por chave.
// A implementação decide a política de memória (tabela fixa com despejo, cache com TTL...).
type LimiterStore interface {
	Get(Key) Limiter
}

type Decision struct {
	Allowed bool
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}
