package kv

import (
	"context"
	"errors"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures a Redis-backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key so several editors can share one database.
	Prefix string
}

// RedisStore keeps entries in Redis and relies on Redis key expiry.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, storageErr(err, false, "connect to redis at %s", cfg.Addr)
	}
	return &RedisStore{client: client, prefix: cfg.Prefix}, nil
}

// Get retrieves a value.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	miss := false
	err := s.do(ctx, "get "+key, func() error {
		b, err := s.client.Get(ctx, s.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			miss = true
			return nil
		}
		data = b
		return err
	})
	if err != nil || miss {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value. A ttl <= 0 stores without expiry.
func (s *RedisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.do(ctx, "set "+key, func() error {
		return s.client.Set(ctx, s.prefix+key, data, ttl).Err()
	})
}

// Delete removes a value.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.do(ctx, "delete "+key, func() error {
		return s.client.Del(ctx, s.prefix+key).Err()
	})
}

// List scans for keys with the prefix. SCAN may report a key twice, so the
// result is deduplicated.
func (s *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.do(ctx, "list "+prefix, func() error {
		keys = keys[:0]
		iter := s.client.Scan(ctx, 0, escapeGlob(s.prefix+prefix)+"*", 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
		}
		return iter.Err()
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) do(ctx context.Context, op string, fn func() error) error {
	return RetryWithBackoff(ctx, func() error {
		if err := fn(); err != nil {
			return storageErr(err, redisTransient(err), "redis %s", op)
		}
		return nil
	})
}

func redisTransient(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "LOADING") || strings.HasPrefix(msg, "TRYAGAIN")
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ Store = (*RedisStore)(nil)
