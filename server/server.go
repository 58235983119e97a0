// Package server liga as peças do pipeline: aceita conexões TCP, entrega cada
// uma ao worker pool e roda o ciclo parse -> handle -> resposta por conexão.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"static-httpd/httpwire"
	"static-httpd/middleware/ratelimit"
	"static-httpd/middleware/ratelimit/domain"
	"static-httpd/middleware/ratelimit/infra"
	"static-httpd/static"
	"static-httpd/workerpool"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var ErrServerClosed = errors.New("server: closed")

// ConnectionTask é a conexão aceita em trânsito para o pool. Depois do Submit
// o acceptor não toca mais nela; o worker que a recebe é quem fecha.
type ConnectionTask struct {
	Conn     net.Conn
	Addr     net.Addr
	ID       string
	Accepted time.Time
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithStats registra as decisões do rate limit em um sink (memória, Redis, SQLite).
func WithStats(st domain.StatsStore) Option {
	return func(s *Server) { s.stats = st }
}

// WithLimiterStore troca o limiter montado a partir da config.
func WithLimiterStore(st domain.LimiterStore) Option {
	return func(s *Server) { s.store = st }
}

func WithFileSystem(fsys static.FileSystem) Option {
	return func(s *Server) { s.fsys = fsys }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

type Server struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	stats domain.StatsStore
	store domain.LimiterStore
	fsys  static.FileSystem

	pool    *workerpool.Pool[ConnectionTask]
	guard   *ratelimit.Guard
	handler *static.Handler
	writer  *httpwire.Writer

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	ln       net.Listener
	conns    map[net.Conn]struct{}
	closing  atomic.Bool
	stopOnce sync.Once
	stopped  chan struct{}

	dropLog rate.Sometimes
}

// New valida a config e monta pool, limiter, handler e writer. Nenhuma
// goroutine de worker sobe se algo aqui falhar.
func New(cfg Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		now:     time.Now,
		conns:   make(map[net.Conn]struct{}),
		stopped: make(chan struct{}),
		dropLog: rate.Sometimes{First: 5, Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if cfg.RateLimitEnabled && s.store == nil {
		s.store = s.newLimiterStore()
	}
	if !cfg.RateLimitEnabled {
		s.store = nil
	}
	s.guard = ratelimit.NewGuard(ratelimit.Options{
		Store:      s.store,
		Stats:      s.stats,
		RetryAfter: cfg.RetryAfter,
		Logger:     s.logger,
		Now:        s.now,
	})

	s.handler = static.New(static.Options{
		Root:    cfg.DocRoot,
		Confine: cfg.ConfineDocRoot,
		FS:      s.fsys,
		Logger:  s.logger,
	})

	s.writer = &httpwire.Writer{
		GzipEnabled: cfg.GzipEnabled,
		GzipMinSize: cfg.GzipMinSize,
		Compressor:  httpwire.NewGzipCompressor(),
		Now:         s.now,
		Logger:      s.logger,
	}

	pool, err := workerpool.New(cfg.Workers, cfg.QueueSize(), s.handleConn, workerpool.WithLogger(s.logger))
	if err != nil {
		s.cancel()
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	s.pool = pool
	return s, nil
}

func (s *Server) newLimiterStore() domain.LimiterStore {
	if s.cfg.RateLimitStrategy == StrategyToken {
		tb := infra.NewTokenBucket(s.cfg.RateLimitMax, s.cfg.RateLimitWindow)
		tb.StartJanitor(s.ctx)
		return tb
	}
	return infra.NewSlidingWindow(s.cfg.RateLimitMax, s.cfg.RateLimitWindow, infra.WithClock(s.now))
}

func (s *Server) Config() Config { return s.cfg }

// Stats devolve o snapshot do pool.
func (s *Server) Stats() workerpool.Stats { return s.pool.Stats() }

// RateLimitPolicy descreve o limiter ativo ("disabled" se desligado).
func (s *Server) RateLimitPolicy() string { return s.guard.Describe() }

// Addr devolve o endereço do listener, ou nil antes do Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) ListenAndServe() error {
	if s.closing.Load() {
		return ErrServerClosed
	}
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.cfg.Port, err)
	}
	return s.Serve(ln)
}

// Serve roda o loop de accept até o Shutdown. Sempre retorna erro não-nil;
// depois de um Shutdown é ErrServerClosed.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closing.Load() {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("server listening",
		"addr", ln.Addr().String(),
		"workers", s.cfg.Workers,
		"queue", s.cfg.QueueSize(),
		"docroot", s.cfg.DocRoot,
		"gzip", s.cfg.GzipEnabled,
		"rate_limit", s.guard.Describe(),
	)

	var tempDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closing.Load() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			// backoff 5ms..1s entre erros seguidos (ex.: EMFILE)
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if tempDelay > time.Second {
				tempDelay = time.Second
			}
			s.logger.Error("accept failed", "error", err, "retry_in", tempDelay)
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0

		task := ConnectionTask{
			Conn:     conn,
			Addr:     conn.RemoteAddr(),
			ID:       uuid.NewString(),
			Accepted: s.now(),
		}
		if err := s.pool.Submit(task); err != nil {
			// fila cheia ou pool encerrando: descarta sem resposta
			s.dropLog.Do(func() {
				st := s.pool.Stats()
				s.logger.Warn("connection dropped", "client", task.Addr, "error", err,
					"queued", st.Queued, "capacity", st.Capacity, "rejected", st.Rejected)
			})
			_ = conn.Close()
		}
	}
}

// Shutdown para de aceitar, deixa os workers drenarem a fila e espera.
// Se ctx expirar antes, fecha as conexões ativas e retorna ctx.Err().
// Pode ser chamado mais de uma vez.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closing.Store(true)

	s.mu.Lock()
	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.mu.Unlock()

	s.stopOnce.Do(func() {
		go func() {
			s.pool.Shutdown()
			s.cancel()
			close(s.stopped)
		}()
	})

	select {
	case <-s.stopped:
		s.logger.Info("server stopped", "submitted", s.pool.Stats().Submitted)
		return nil
	case <-ctx.Done():
		s.closeActive()
		return ctx.Err()
	}
}

func (s *Server) track(c net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

func (s *Server) closeActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
}
