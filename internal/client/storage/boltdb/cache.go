package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"go.etcd.io/bbolt"

	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/models"
)

// CacheGet returns the durable cache entry for key
func (s *Storage) CacheGet(ctx context.Context, key string) (*models.CacheEntry, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var entry *models.CacheEntry

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketCache).Get([]byte(key))
		if data == nil {
			return storage.ErrCacheMiss
		}

		entry = &models.CacheEntry{}
		if err := json.Unmarshal(data, entry); err != nil {
			return fmt.Errorf("failed to unmarshal cache entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// CachePut stores the durable cache entry for key
func (s *Storage) CachePut(ctx context.Context, key string, entry *models.CacheEntry) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCache).Put([]byte(key), data)
	})
}

// CacheDelete removes key from the durable cache
func (s *Storage) CacheDelete(ctx context.Context, key string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCache).Delete([]byte(key))
	})
}

// CacheDeleteMatching removes every key matching re
func (s *Storage) CacheDeleteMatching(ctx context.Context, re *regexp.Regexp) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var removed int

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCache)

		var keys [][]byte
		if err := bucket.ForEach(func(k, _ []byte) error {
			if re.Match(k) {
				keys = append(keys, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}

		for _, k := range keys {
			if err := bucket.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate cache pattern: %w", err)
	}

	return removed, nil
}

// CacheClear drops the whole durable cache
func (s *Storage) CacheClear(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketCache); err != nil && err != bbolt.ErrBucketNotFound {
			return fmt.Errorf("failed to delete bucket: %w", err)
		}
		_, err := tx.CreateBucket(bucketCache)
		return err
	})
}
