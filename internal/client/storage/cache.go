package storage

import (
	"context"
	"regexp"

	"github.com/iudanet/posync/internal/models"
)

// CacheStorage is the durable tier of the read cache.
type CacheStorage interface {
	// CacheGet returns ErrCacheMiss if the key is absent
	CacheGet(ctx context.Context, key string) (*models.CacheEntry, error)
	CachePut(ctx context.Context, key string, entry *models.CacheEntry) error
	CacheDelete(ctx context.Context, key string) error
	// CacheDeleteMatching removes every key matching re and returns how many were removed
	CacheDeleteMatching(ctx context.Context, re *regexp.Regexp) (int, error)
	CacheClear(ctx context.Context) error
}
