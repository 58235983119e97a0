package domain

import (
	"context"
	"time"
)

// StatsEvent representa um evento de decisão do rate limit.
//
// A checagem acontece antes do parse da requisição, então o evento só carrega
// a chave do cliente e o resultado.
//
// Observação: cuidado com cardinalidade (ex.: salvar Key sem controle pode
// explodir o número de chaves em uma base como Redis).
type StatsEvent struct {
	Key     Key
	Allowed bool

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do rate limit.
//
// Implementações podem armazenar em Redis, SQLite, memória, etc.
// O chamador trata erro como best-effort (não derruba a conexão).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
