package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LevelOff fica acima de todos os níveis padrão.
const LevelOff = slog.Level(100)

func New(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(NewHandler(w, level))
}

func Discard() *slog.Logger {
	return slog.New(NewHandler(io.Discard, LevelOff))
}

// Open devolve um logger que escreve no stderr e, com path definido, também
// acrescenta no arquivo. Se o arquivo não abrir, o logger segue só no stderr
// e o erro volta junto.
func Open(path string, level slog.Leveler) (*slog.Logger, io.Closer, error) {
	stderr := NewHandler(os.Stderr, level)
	if strings.TrimSpace(path) == "" {
		return slog.New(stderr), nopCloser{}, nil
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return slog.New(stderr), nopCloser{}, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return slog.New(stderr), nopCloser{}, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(NewTee(stderr, NewHandler(f, level))), f, nil
}

// LevelFromString aceita debug, info, warn/warning e error. O resto vira info.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromVerbosity desce um nível de base por -v, parando em debug.
func LevelFromVerbosity(base slog.Level, verbosity int) slog.Level {
	l := base
	for i := 0; i < verbosity && l > slog.LevelDebug; i++ {
		l -= 4
	}
	if l < slog.LevelDebug {
		l = slog.LevelDebug
	}
	return l
}

// Tee replica os registros para vários handlers.
type Tee struct {
	handlers []slog.Handler
}

func NewTee(handlers ...slog.Handler) *Tee {
	return &Tee{handlers: handlers}
}

func (t *Tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *Tee) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *Tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &Tee{handlers: next}
}

func (t *Tee) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithGroup(name)
	}
	return &Tee{handlers: next}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
