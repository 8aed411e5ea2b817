package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/filmscout/filmscout/internal/movie"
)

const defaultRedisPrefix = "filmscout:cache:"

// ResultStore holds search results between requests.
type ResultStore interface {
	Get(ctx context.Context, key string) ([]movie.Record, bool, error)
	Set(ctx context.Context, key string, records []movie.Record) error
	Clear(ctx context.Context) error
	// Purge drops expired entries and reports how many went.
	Purge(ctx context.Context) (int, error)
	Len() int
}

// MemoryStore is a ResultStore backed by the in-process Cache.
type MemoryStore struct {
	cache *Cache
}

// NewMemoryStore wraps cache.
func NewMemoryStore(cache *Cache) *MemoryStore {
	return &MemoryStore{cache: cache}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]movie.Record, bool, error) {
	records, ok := m.cache.GetRecords(key)
	return records, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, records []movie.Record) error {
	m.cache.Set(key, records)
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.cache.Clear()
	return nil
}

func (m *MemoryStore) Purge(context.Context) (int, error) {
	return m.cache.Purge(), nil
}

func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// RedisStore keeps search results in Redis as JSON, letting several bot
// instances share one cache. Redis expires entries itself.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. An empty prefix uses the default.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]movie.Record, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var records []movie.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, records []movie.Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+key, data, r.ttl).Err()
}

// Clear deletes every key under the store prefix.
func (r *RedisStore) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisStore) Purge(context.Context) (int, error) {
	return 0, nil
}

// Len is not tracked for Redis.
func (r *RedisStore) Len() int {
	return -1
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// NewRedisClient opens a client for addr. The caller owns Close.
func NewRedisClient(addr string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		DB:          db,
		DialTimeout: 3 * time.Second,
	})
}
