package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Dispara uma rajada de GETs contra o servidor e conta os status recebidos.
// Útil para validar na mão o rate limit (200 vs 429) e o descarte por fila cheia
// (conexão fechada sem resposta).
func main() {
	addr := flag.String("addr", "localhost:8080", "endereço do servidor")
	path := flag.String("path", "/", "caminho requisitado")
	n := flag.Int("n", 200, "total de requisições")
	c := flag.Int("c", 20, "requisições simultâneas")
	flag.Parse()

	var (
		mu     sync.Mutex
		counts = map[string]int{}
		wg     sync.WaitGroup
		sem    = make(chan struct{}, *c)
	)

	start := time.Now()
	for i := 0; i < *n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			status := get(*addr, *path)
			mu.Lock()
			counts[status]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	fmt.Printf("%d requisições em %s\n", *n, time.Since(start).Round(time.Millisecond))
	for status, count := range counts {
		fmt.Printf("  %-10s %d\n", status, count)
	}
}

func get(addr, path string) string {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return "dial-error"
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	fmt.Fprintf(conn, "GET %s HTTP/1.1\r\nHost: %s\r\nConnection: close\r\n\r\n", path, addr)
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		// fila cheia: o servidor fecha sem responder
		return "dropped"
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "invalid"
	}
	return fields[1]
}
