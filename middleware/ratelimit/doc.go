// Package ratelimit faz o rate limit por cliente do servidor, checado por
// conexão antes de ler cada requisição.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net)
//   - application: caso de uso (decisão allow/deny + registro de stats)
//   - infra: implementações concretas (janela deslizante, token bucket, stats em memória/Redis/SQLite)
//   - ratelimit (este pacote): Guard, extração da chave a partir do peer e logs
//
// Fluxo no servidor:
//
//   1) Extrai a chave do cliente (IP do peer TCP)
//   2) Chama a camada application para obter a decisão
//   3) Se bloqueado, o handler de conexão responde 429 e fecha a conexão
//   4) Se permitido, segue para o parse da requisição
//
// A configuração (rate_limit_enabled, rate_limit_max, rate_limit_interval,
// rate_limit_strategy) vem do binário cmd/server.
package ratelimit
