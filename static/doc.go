// Package static mapeia o path da requisição para um arquivo sob o document
// root e monta a resposta correspondente (200, 301, 304, 404, 405 ou 500).
package static
