// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - SlidingWindow: tabela fixa de 1024 slots com ring de timestamps (padrão)
//   - TokenBucket: token bucket por chave usando golang.org/x/time/rate
//   - MemoryStatsStore / RedisStatsStore / SQLiteStatsStore: contadores de decisão
package infra
