package infra

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"static-httpd/middleware/ratelimit/domain"

	_ "modernc.org/sqlite" // driver SQLite em Go puro
)

const statsSchema = `
CREATE TABLE IF NOT EXISTS ratelimit_stats (
	minute  TEXT    NOT NULL,
	client  TEXT    NOT NULL,
	allowed INTEGER NOT NULL DEFAULT 0,
	denied  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (minute, client)
)`

// SQLiteStatsStore persiste os contadores por minuto e por cliente num arquivo
// SQLite local. Serve para quem quer histórico sem subir um Redis.
type SQLiteStatsStore struct {
	db *sql.DB
}

// OpenSQLiteStatsStore abre (ou cria) o banco em path e garante o schema.
func OpenSQLiteStatsStore(path string) (*SQLiteStatsStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create stats dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}
	// um único writer evita SQLITE_BUSY entre workers
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := db.Exec(statsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStatsStore{db: db}, nil
}

func (s *SQLiteStatsStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.db == nil {
		return nil
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	allowed, denied := 0, 1
	if ev.Allowed {
		allowed, denied = 1, 0
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ratelimit_stats (minute, client, allowed, denied)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (minute, client) DO UPDATE SET
			allowed = allowed + excluded.allowed,
			denied  = denied + excluded.denied`,
		minuteBucket(at), string(ev.Key), allowed, denied)
	return err
}

// Since soma os contadores de todos os clientes a partir de since (inclusive,
// arredondado para o minuto).
func (s *SQLiteStatsStore) Since(ctx context.Context, since time.Time) (Counters, error) {
	var c Counters
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(allowed), 0), COALESCE(SUM(denied), 0)
		FROM ratelimit_stats WHERE minute >= ?`,
		minuteBucket(since)).Scan(&c.Allowed, &c.Denied)
	return c, err
}

// ByClient devolve os contadores de um cliente em todos os minutos.
func (s *SQLiteStatsStore) ByClient(ctx context.Context, key domain.Key) (Counters, error) {
	var c Counters
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(allowed), 0), COALESCE(SUM(denied), 0)
		FROM ratelimit_stats WHERE client = ?`,
		string(key)).Scan(&c.Allowed, &c.Denied)
	return c, err
}
