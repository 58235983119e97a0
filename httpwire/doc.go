// Package httpwire lê requisições HTTP/1.1 de uma conexão e escreve as
// respostas, aplicando a política de cache e gzip do servidor.
//
// Só o subconjunto que o servidor usa é suportado: sem corpo chunked, sem
// pipelining, sem range.
package httpwire
