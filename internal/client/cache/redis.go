package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/models"
)

// RedisTier implements storage.CacheStorage on Redis. Keys are namespaced by prefix
// so several devices can share one Redis instance.
type RedisTier struct {
	client *redis.Client
	prefix string
}

var _ storage.CacheStorage = (*RedisTier)(nil)

// NewRedisTier creates a durable tier backed by Redis
func NewRedisTier(addr string, db int, prefix string) *RedisTier {
	return &RedisTier{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
		prefix: prefix,
	}
}

// NewRedisTierWithClient wraps an existing client
func NewRedisTierWithClient(client *redis.Client, prefix string) *RedisTier {
	return &RedisTier{client: client, prefix: prefix}
}

// Ping checks that Redis is reachable
func (r *RedisTier) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisTier) key(k string) string {
	return r.prefix + k
}

// CacheGet retrieves an entry
func (r *RedisTier) CacheGet(ctx context.Context, key string) (*models.CacheEntry, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, storage.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	entry := &models.CacheEntry{}
	if err := json.Unmarshal(data, entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return entry, nil
}

// CachePut stores an entry; Redis expires it together with its TTL
func (r *RedisTier) CachePut(ctx context.Context, key string, entry *models.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	ttl := entry.TTL - time.Since(entry.Timestamp)
	if ttl <= 0 {
		return nil
	}

	return r.client.Set(ctx, r.key(key), data, ttl).Err()
}

// CacheDelete removes an entry
func (r *RedisTier) CacheDelete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// CacheDeleteMatching scans the namespace and removes keys matching re
func (r *RedisTier) CacheDeleteMatching(ctx context.Context, re *regexp.Regexp) (int, error) {
	removed := 0

	err := r.scan(ctx, func(keys []string) error {
		var matched []string
		for _, k := range keys {
			if re.MatchString(strings.TrimPrefix(k, r.prefix)) {
				matched = append(matched, k)
			}
		}
		if len(matched) == 0 {
			return nil
		}

		n, err := r.client.Del(ctx, matched...).Result()
		removed += int(n)
		return err
	})

	return removed, err
}

// CacheClear removes every key of the namespace
func (r *RedisTier) CacheClear(ctx context.Context) error {
	return r.scan(ctx, func(keys []string) error {
		if len(keys) == 0 {
			return nil
		}
		return r.client.Del(ctx, keys...).Err()
	})
}

func (r *RedisTier) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}

		if err := fn(keys); err != nil {
			return err
		}

		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close closes the Redis client connection
func (r *RedisTier) Close() error {
	if err := r.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
