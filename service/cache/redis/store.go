// Package redis implements cache.Store on Redis so that several engine
// instances share verification results.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viant/composer/internal/clock"
	"github.com/viant/composer/runtime/execution"
	"github.com/viant/composer/service/cache"
)

// DefaultPrefix namespaces cache keys.
const DefaultPrefix = "composer:cache:"

// lookupScript returns the entry fields and bumps the hit counter atomically.
var lookupScript = redis.NewScript(`
local values = redis.call("HMGET", KEYS[1], "result", "timestamp", "expiresAt")
if not values[1] then
  return false
end
local hits = redis.call("HINCRBY", KEYS[1], "hits", 1)
return {values[1], values[2], values[3], hits}
`)

var _ cache.Store = (*Store)(nil)

// Store is a Redis backed cache.Store. Entries are hashes expiring server side.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Config holds connection settings.
type Config struct {
	Addr     string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	Password string        `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	DB       int           `json:"db,omitempty" yaml:"db,omitempty" mapstructure:"db"`
	Prefix   string        `json:"prefix,omitempty" yaml:"prefix,omitempty" mapstructure:"prefix"`
	TTL      time.Duration `json:"ttl,omitempty" yaml:"ttl,omitempty" mapstructure:"ttl"`
}

// New creates a store connected to cfg.Addr.
func New(cfg *Config) (*Store, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

// Lookup implements cache.Store.
func (s *Store) Lookup(ctx context.Context, key string) (*cache.Entry, bool, error) {
	raw, err := lookupScript.Run(ctx, s.client, []string{s.prefix + key}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup %s: %w", key, err)
	}
	values, ok := raw.([]interface{})
	if !ok || len(values) < 4 {
		return nil, false, errors.New("unexpected redis cache response")
	}
	entry := &cache.Entry{CacheKey: key, Result: &execution.ComponentResult{}}
	if err := json.Unmarshal([]byte(toString(values[0])), entry.Result); err != nil {
		return nil, false, fmt.Errorf("decode cached result %s: %w", key, err)
	}
	entry.Timestamp = fromUnixNano(toString(values[1]))
	entry.ExpiresAt = fromUnixNano(toString(values[2]))
	if hits, ok := values[3].(int64); ok {
		entry.Hits = int(hits)
	}
	if !entry.Live(clock.Now()) {
		return nil, false, nil
	}
	return entry, true, nil
}

// Store implements cache.Store.
func (s *Store) Store(ctx context.Context, key string, result *execution.ComponentResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode cached result %s: %w", key, err)
	}
	now := clock.Now()
	redisKey := s.prefix + key
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisKey)
		pipe.HSet(ctx, redisKey, map[string]interface{}{
			"result":    string(data),
			"timestamp": strconv.FormatInt(now.UnixNano(), 10),
			"expiresAt": strconv.FormatInt(now.Add(s.ttl).UnixNano(), 10),
			"hits":      0,
		})
		pipe.PExpire(ctx, redisKey, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache store %s: %w", key, err)
	}
	return nil
}

// Sweep implements cache.Store; Redis expires entries itself.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	return 0, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func toString(v interface{}) string {
	switch actual := v.(type) {
	case string:
		return actual
	case []byte:
		return string(actual)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func fromUnixNano(v string) time.Time {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, n)
}
