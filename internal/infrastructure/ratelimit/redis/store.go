// Package redis backs ttlstore counters and markers with a shared Redis so
// limits and token revocations hold across replicas.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/riskibarqy/futboss/internal/platform/ttlstore"
)

const defaultKeyPrefix = "futboss:"

// incrementScript starts the window on the first hit and reports the count
// with the remaining window in milliseconds. Keys that lost their TTL get it
// back so a counter can never live forever.
var incrementScript = goredis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

type Options struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// Store implements ttlstore.Store on Redis.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

var _ ttlstore.Store = (*Store)(nil)

func NewStore(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Dial connects and pings before returning the client.
func Dial(ctx context.Context, opts Options) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

func (s *Store) Increment(ctx context.Context, key string, window time.Duration) (ttlstore.Hit, error) {
	if window <= 0 {
		return ttlstore.Hit{}, fmt.Errorf("window must be positive")
	}

	values, err := incrementScript.Run(ctx, s.client, []string{s.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return ttlstore.Hit{}, fmt.Errorf("redis increment %s: %w", key, err)
	}
	if len(values) != 2 {
		return ttlstore.Hit{}, fmt.Errorf("redis increment %s: unexpected reply length %d", key, len(values))
	}

	return ttlstore.Hit{
		Count:   values[0],
		ResetIn: time.Duration(values[1]) * time.Millisecond,
	}, nil
}

func (s *Store) Mark(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.prefix+key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis mark %s: %w", key, err)
	}
	return nil
}

func (s *Store) Marked(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}
