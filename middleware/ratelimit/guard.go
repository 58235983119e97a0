package ratelimit

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"time"

	"static-httpd/middleware/ratelimit/application"
	"static-httpd/middleware/ratelimit/domain"

	"golang.org/x/time/rate"
)

// KeyFunc extrai a chave do cliente a partir do endereço do peer.
type KeyFunc func(addr net.Addr) string

type Options struct {
	// Store nil desabilita o rate limit por completo.
	Store      domain.LimiterStore
	Stats      domain.StatsStore
	KeyFn      KeyFunc
	RetryAfter time.Duration
	Logger     *slog.Logger
	Now        func() time.Time
}

// DefaultKeyFunc usa só o host do endereço remoto; headers da requisição
// nunca entram na chave.
func DefaultKeyFunc(addr net.Addr) string {
	if addr == nil {
		return "unknown"
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.IP.String()
	}
	s := strings.TrimSpace(addr.String())
	host, _, err := net.SplitHostPort(s)
	if err == nil && host != "" {
		return host
	}
	if s != "" {
		return s
	}
	return "unknown"
}

// Guard é o ponto de entrada usado pelo handler de conexão antes de cada requisição.
type Guard struct {
	opts Options
	svc  application.Service

	// logs de bloqueio e de falha de stats ficam amostrados para não inundar o sink
	limitedLog rate.Sometimes
	statsLog   rate.Sometimes
}

func NewGuard(opts Options) *Guard {
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Guard{
		opts: opts,
		svc: application.Service{
			Store:      opts.Store,
			Stats:      opts.Stats,
			RetryAfter: opts.RetryAfter,
			Now:        opts.Now,
		},
		limitedLog: rate.Sometimes{First: 10, Interval: time.Second},
		statsLog:   rate.Sometimes{First: 1, Interval: 30 * time.Second},
	}
}

// Enabled informa se existe um limiter configurado.
func (g *Guard) Enabled() bool { return g != nil && g.opts.Store != nil }

// Check decide se o cliente em addr pode mandar mais uma requisição agora.
func (g *Guard) Check(ctx context.Context, addr net.Addr) domain.Decision {
	if !g.Enabled() {
		return domain.Decision{Allowed: true}
	}
	key := g.opts.KeyFn(addr)

	dec, err := g.svc.Decide(ctx, domain.Key(key))
	if err != nil {
		g.statsLog.Do(func() {
			g.opts.Logger.Warn("rate limit stats record failed", "client", key, "error", err)
		})
	}
	if !dec.Allowed {
		g.limitedLog.Do(func() {
			g.opts.Logger.Info("rate limit applied", "client", key, "policy", g.Describe())
		})
	}
	return dec
}

// Describe resume a política ativa para logs de startup e de bloqueio.
func (g *Guard) Describe() string {
	if !g.Enabled() {
		return "disabled"
	}
	return describe(g.opts.Store)
}
