// Package cache is a read-through accelerator in front of the read models.
// It is never the system of record.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/models"
)

// Tier selects where Set writes. Memory is always written.
type Tier int

const (
	TierMemory  Tier = iota // только память
	TierDurable             // память и постоянное хранилище
)

// Config of the tiered cache.
type Config struct {
	MemoryTTL     time.Duration
	DurableTTL    time.Duration
	SweepInterval time.Duration
	MaxEntries    int
}

// DefaultConfig returns the cache settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		MemoryTTL:     5 * time.Minute,
		DurableTTL:    30 * 24 * time.Hour,
		SweepInterval: time.Minute,
		MaxEntries:    1000,
	}
}

// Stats are cache counters since creation.
type Stats struct {
	Entries    int
	Hits       int64
	Misses     int64
	Promotions int64
	Removals   int64
}

// Cache is a two-tier cache: a bounded LRU in memory and an optional durable tier.
//
// Every invalidation bumps the generation of the key. Fill and durable
// promotion store a value only if the generation has not moved since the
// caller started loading it, so a read racing a write cannot bring back
// the old value.
type Cache struct {
	durable storage.CacheStorage
	mem     *lru.Cache
	keys    map[string]time.Time // ключ memory tier -> момент истечения
	gens    map[string]uint64
	logger  *slog.Logger
	now     func() time.Time
	stats   Stats
	cfg     Config
	epoch   uint64 // растет при InvalidatePattern и Clear
	mu      sync.Mutex
	// writeMu упорядочивает записи и инвалидации обоих уровней
	writeMu sync.Mutex
}

// New creates the cache. durable may be nil for a memory-only cache.
func New(cfg Config, durable storage.CacheStorage, logger *slog.Logger) *Cache {
	def := DefaultConfig()
	if cfg.MemoryTTL <= 0 {
		cfg.MemoryTTL = def.MemoryTTL
	}
	if cfg.DurableTTL <= 0 {
		cfg.DurableTTL = def.DurableTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}

	c := &Cache{
		durable: durable,
		mem:     lru.New(cfg.MaxEntries),
		keys:    make(map[string]time.Time),
		gens:    make(map[string]uint64),
		logger:  logger,
		now:     time.Now,
		cfg:     cfg,
	}

	c.mem.OnEvicted = func(key lru.Key, _ interface{}) {
		delete(c.keys, key.(string))
		c.stats.Removals++
	}

	return c
}

// WithClock replaces the time source. Used by tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Get returns the value for key: memory first, then the durable tier
// (promoting a hit into memory). Expired entries are treated as absent.
func (c *Cache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	now := c.now()

	c.mu.Lock()
	gen := c.generationLocked(key)
	if v, ok := c.mem.Get(key); ok {
		entry := v.(*models.CacheEntry)
		if entry.Valid(now) {
			c.stats.Hits++
			c.mu.Unlock()
			return entry.Value, true
		}
		c.mem.Remove(key)
	}
	c.mu.Unlock()

	if c.durable == nil {
		c.miss()
		return nil, false
	}

	entry, err := c.durable.CacheGet(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrCacheMiss) {
			c.logger.Warn("Durable cache read failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}

	if !entry.Valid(now) {
		if err := c.durable.CacheDelete(ctx, key); err != nil {
			c.logger.Warn("Failed to drop expired cache entry", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}

	// Продвигаем в память, не дольше оставшегося срока жизни
	ttl := c.cfg.MemoryTTL
	if remaining := entry.TTL - now.Sub(entry.Timestamp); remaining < ttl {
		ttl = remaining
	}

	c.mu.Lock()
	if c.generationLocked(key) == gen {
		c.addLocked(key, &models.CacheEntry{Value: entry.Value, Timestamp: now, TTL: ttl})
		c.stats.Promotions++
	}
	c.stats.Hits++
	c.mu.Unlock()

	return entry.Value, true
}

func (c *Cache) miss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}

// Generation returns the current generation of key. Pass it to Fill after
// loading the value from the system of record.
func (c *Cache) Generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generationLocked(key)
}

func (c *Cache) generationLocked(key string) uint64 {
	return c.epoch + c.gens[key]
}

func (c *Cache) addLocked(key string, entry *models.CacheEntry) {
	c.mem.Add(key, entry)
	c.keys[key] = entry.Timestamp.Add(entry.TTL)
}

// Set stores value in memory and, for TierDurable, in the durable tier.
func (c *Cache) Set(ctx context.Context, key string, value json.RawMessage, tier Tier) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.store(ctx, key, value, tier)
}

// Fill is Set for values loaded from the system of record: it stores value
// only if key was not invalidated since gen was taken. It reports whether
// the value was stored.
func (c *Cache) Fill(ctx context.Context, key string, value json.RawMessage, tier Tier, gen uint64) (bool, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.Generation(key) != gen {
		return false, nil
	}
	if err := c.store(ctx, key, value, tier); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) store(ctx context.Context, key string, value json.RawMessage, tier Tier) error {
	now := c.now()

	if tier == TierDurable && c.durable != nil {
		if err := c.durable.CachePut(ctx, key, &models.CacheEntry{Value: value, Timestamp: now, TTL: c.cfg.DurableTTL}); err != nil {
			return fmt.Errorf("failed to write durable cache: %w", err)
		}
	}

	c.mu.Lock()
	c.addLocked(key, &models.CacheEntry{Value: value, Timestamp: now, TTL: c.cfg.MemoryTTL})
	c.mu.Unlock()
	return nil
}

// Invalidate removes key from both tiers.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	// Сначала durable: промоушен, прочитавший старое значение до удаления,
	// увидит новое поколение и не положит его в память
	var err error
	if c.durable != nil {
		err = c.durable.CacheDelete(ctx, key)
	}

	c.mu.Lock()
	c.gens[key]++
	c.mem.Remove(key)
	c.mu.Unlock()

	return err
}

// InvalidatePattern removes every key matching re from both tiers and
// returns how many memory entries were dropped.
func (c *Cache) InvalidatePattern(ctx context.Context, re *regexp.Regexp) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var err error
	if c.durable != nil {
		if _, derr := c.durable.CacheDeleteMatching(ctx, re); derr != nil {
			err = fmt.Errorf("failed to invalidate durable cache: %w", derr)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// durable-ключи не перечисляются, поэтому двигаем поколение всех ключей
	c.epoch++
	var matched []string
	for key := range c.keys {
		if re.MatchString(key) {
			matched = append(matched, key)
		}
	}
	for _, key := range matched {
		c.mem.Remove(key)
	}
	return len(matched), err
}

// Clear empties both tiers.
func (c *Cache) Clear(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var err error
	if c.durable != nil {
		err = c.durable.CacheClear(ctx)
	}

	c.mu.Lock()
	c.epoch++
	c.mem.Clear()
	c.keys = make(map[string]time.Time)
	c.mu.Unlock()

	return err
}

// Sweep drops expired memory entries and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	var expired []string
	for key, expiresAt := range c.keys {
		if !now.Before(expiresAt) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		c.mem.Remove(key)
	}

	return len(expired)
}

// Run sweeps the memory tier periodically until ctx is cancelled.
func (c *Cache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.logger.Debug("Expired cache entries swept", "count", n)
			}
		}
	}
}

// Stats returns the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = c.mem.Len()
	return s
}

// GetJSON decodes the cached value for key into a T.
func GetJSON[T any](ctx context.Context, c *Cache, key string) (*T, bool) {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return nil, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", "key", key, "error", err)
		_ = c.Invalidate(ctx, key)
		return nil, false
	}
	return &v, true
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c *Cache, key string, v any, tier Tier) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return c.Set(ctx, key, raw, tier)
}

// FillJSON encodes v and stores it under key unless key was invalidated after gen.
func FillJSON(ctx context.Context, c *Cache, key string, v any, tier Tier, gen uint64) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return c.Fill(ctx, key, raw, tier, gen)
}
