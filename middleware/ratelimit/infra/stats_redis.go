package infra

import (
	"context"
	"strings"
	"time"

	"static-httpd/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore grava contadores allowed/denied em hashes do Redis:
//
//	<prefix>:total               cumulativo, não expira
//	<prefix>:minute:YYYYMMDDhhmm  um hash por minuto (bucket=minute)
//	<prefix>:key:<ip>             por cliente (trackKeys)
type RedisStatsStore struct {
	rdb *redis.Client

	prefix string
	// ttl aplica apenas em chaves de série temporal / por key.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "static-httpd:ratelimit",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	keys := s.keysFor(ev)
	field := decisionField(ev.Allowed)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, keys.total, field, 1)
	if keys.minute != "" {
		pipe.HIncrBy(ctx, keys.minute, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, keys.minute, s.ttl)
		}
	}
	if keys.client != "" {
		pipe.HIncrBy(ctx, keys.client, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, keys.client, s.ttl)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

type redisStatsKeys struct {
	total  string
	minute string
	client string
}

func (s *RedisStatsStore) keysFor(ev domain.StatsEvent) redisStatsKeys {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	k := redisStatsKeys{total: s.prefix + ":total"}
	if s.bucket == "minute" {
		k.minute = s.prefix + ":minute:" + minuteBucket(at)
	}
	if s.trackKeys {
		if c := strings.TrimSpace(string(ev.Key)); c != "" {
			k.client = s.prefix + ":key:" + c
		}
	}
	return k
}

func decisionField(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}

func minuteBucket(at time.Time) string {
	return at.UTC().Format("200601021504")
}
