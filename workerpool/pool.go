// Package workerpool roda um número fixo de goroutines alimentadas por uma fila
// FIFO limitada.
//
// Submit nunca bloqueia: com a fila cheia quem chamou recebe ErrQueueFull e
// decide o que fazer com a tarefa (o servidor fecha a conexão).
package workerpool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrQueueFull = errors.New("workerpool: queue full")
	ErrClosed    = errors.New("workerpool: shut down")
)

// Stats é uma foto do pool num instante.
type Stats struct {
	Workers   int
	Capacity  int
	Queued    int
	Busy      int
	Submitted uint64
	Rejected  uint64
	Panics    uint64
}

type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger define onde os panics recuperados são registrados.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Pool[T] executa run(task) para cada tarefa submetida, em um dos workers.
type Pool[T any] struct {
	run    func(T)
	logger *slog.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []T
	head     int
	count    int
	shutdown bool

	workers   int
	busy      int
	submitted uint64
	rejected  uint64
	panics    uint64

	once sync.Once
	wg   sync.WaitGroup
}

// New sobe workers goroutines. workers e capacity precisam ser positivos.
func New[T any](workers, capacity int, run func(T), opts ...Option) (*Pool[T], error) {
	if workers <= 0 {
		return nil, fmt.Errorf("workerpool: workers must be > 0, got %d", workers)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("workerpool: capacity must be > 0, got %d", capacity)
	}
	if run == nil {
		return nil, errors.New("workerpool: nil run func")
	}

	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	p := &Pool[T]{
		run:     run,
		logger:  cfg.logger,
		queue:   make([]T, capacity),
		workers: workers,
	}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	return p, nil
}

// Submit enfileira a tarefa sem bloquear.
func (p *Pool[T]) Submit(task T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown {
		p.rejected++
		return ErrClosed
	}
	if p.count == len(p.queue) {
		p.rejected++
		return ErrQueueFull
	}

	tail := (p.head + p.count) % len(p.queue)
	p.queue[tail] = task
	p.count++
	p.submitted++
	p.cond.Signal()
	return nil
}

// Shutdown para de aceitar tarefas e espera os workers esvaziarem a fila e
// saírem. Pode ser chamado várias vezes, de várias goroutines, e toda chamada
// só retorna depois que os workers terminaram.
func (p *Pool[T]) Shutdown() {
	p.once.Do(func() {
		p.mu.Lock()
		p.shutdown = true
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	p.wg.Wait()
}

func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Workers:   p.workers,
		Capacity:  len(p.queue),
		Queued:    p.count,
		Busy:      p.busy,
		Submitted: p.submitted,
		Rejected:  p.rejected,
		Panics:    p.panics,
	}
}

func (p *Pool[T]) worker(id int) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for p.count == 0 && !p.shutdown {
			p.cond.Wait()
		}
		if p.count == 0 {
			// shutdown e fila vazia
			p.mu.Unlock()
			return
		}

		var zero T
		task := p.queue[p.head]
		p.queue[p.head] = zero
		p.head = (p.head + 1) % len(p.queue)
		p.count--
		p.busy++
		p.mu.Unlock()

		p.exec(id, task)

		p.mu.Lock()
		p.busy--
		p.mu.Unlock()
	}
}

func (p *Pool[T]) exec(id int, task T) {
	defer func() {
		if r := recover(); r != nil {
			p.mu.Lock()
			p.panics++
			p.mu.Unlock()
			p.logger.Error("worker task panicked", "worker", id, "panic", r)
		}
	}()
	p.run(task)
}
