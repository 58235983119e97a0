package infra

import (
	"sync"
	"time"

	"static-httpd/middleware/ratelimit/domain"
)

const (
	// WindowSlots é o tamanho fixo da tabela de clientes.
	WindowSlots = 1024
	// WindowRing é quantos timestamps cada slot guarda (os mais recentes).
	WindowRing = 1000
)

// SlidingWindow é uma implementação de infra baseada em janela deslizante:
// uma tabela fixa de WindowSlots slots, indexada por hash do endereço do cliente.
//
// Colisão é resolvida por despejo, não por encadeamento: se o slot pertence a
// outro endereço, ele é zerado e passa a ser do endereço novo, descartando o
// histórico anterior. Isso mantém a memória limitada a WindowSlots*WindowRing
// timestamps independentemente do número de clientes.
type SlidingWindow struct {
	max    int
	window time.Duration
	now    func() time.Time

	once  sync.Once
	slots []windowSlot
}

type windowSlot struct {
	mu     sync.Mutex
	key    domain.Key
	stamps [WindowRing]int64 // UnixNano
	next   int
	count  int
}

type WindowOption func(*SlidingWindow)

// WithClock troca a fonte de tempo (útil em testes).
func WithClock(now func() time.Time) WindowOption {
	return func(w *SlidingWindow) { w.now = now }
}

// NewSlidingWindow cria a tabela; os slots só são alocados na primeira checagem.
func NewSlidingWindow(max int, window time.Duration, opts ...WindowOption) *SlidingWindow {
	w := &SlidingWindow{
		max:    max,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *SlidingWindow) Max() int               { return w.max }
func (w *SlidingWindow) Window() time.Duration { return w.window }

// Get implementa domain.LimiterStore.
func (w *SlidingWindow) Get(key domain.Key) domain.Limiter {
	return windowLimiter{w: w, key: key}
}

// Allow verifica e, se couber na janela, registra uma requisição de key.
// Requisições rejeitadas não são registradas.
func (w *SlidingWindow) Allow(key domain.Key) bool {
	w.once.Do(func() { w.slots = make([]windowSlot, WindowSlots) })

	s := &w.slots[slotOf(string(key))]
	now := w.now().UnixNano()
	cutoff := now - int64(w.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 || s.key != key {
		s.key = key
		s.count = 0
		s.next = 0
	}

	valid := 0
	for i := 0; i < s.count; i++ {
		if s.stamps[i] >= cutoff {
			valid++
		}
	}
	if valid >= w.max {
		return false
	}

	s.stamps[s.next] = now
	s.next = (s.next + 1) % WindowRing
	if s.count < WindowRing {
		s.count++
	}
	return true
}

// slotOf é o hash polinomial (base 31, uint32 com overflow) módulo WindowSlots.
func slotOf(addr string) int {
	var h uint32
	for i := 0; i < len(addr); i++ {
		h = h*31 + uint32(addr[i])
	}
	return int(h % WindowSlots)
}

type windowLimiter struct {
	w   *SlidingWindow
	key domain.Key
}

func (l windowLimiter) Allow() bool { return l.w.Allow(l.key) }
