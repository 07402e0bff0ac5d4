package boltdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	keyLastPullSeq = []byte("last_pull_seq")
	keyLastSyncAt  = []byte("last_sync_at")
)

var errNoMetadataBucket = errors.New("metadata bucket not found")

func (s *Storage) putMetadata(key []byte, value int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return errNoMetadataBucket
		}
		return bucket.Put(key, int64Bytes(value))
	})
}

// отсутствующий ключ читается как 0
func (s *Storage) getMetadata(key []byte) (int64, error) {
	var value int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return errNoMetadataBucket
		}
		value = bytesInt64(bucket.Get(key))
		return nil
	})
	return value, err
}

// SaveLastPullSeq saves the server sequence of the last pulled event
func (s *Storage) SaveLastPullSeq(ctx context.Context, seq int64) error {
	if err := s.putMetadata(keyLastPullSeq, seq); err != nil {
		return fmt.Errorf("failed to save last pull seq: %w", err)
	}
	return nil
}

// GetLastPullSeq returns 0 before the first pull
func (s *Storage) GetLastPullSeq(ctx context.Context) (int64, error) {
	seq, err := s.getMetadata(keyLastPullSeq)
	if err != nil {
		return 0, fmt.Errorf("failed to get last pull seq: %w", err)
	}
	return seq, nil
}

// SaveLastSyncAt stores the completion time of the last successful round
func (s *Storage) SaveLastSyncAt(ctx context.Context, at time.Time) error {
	if err := s.putMetadata(keyLastSyncAt, at.UnixMicro()); err != nil {
		return fmt.Errorf("failed to save last sync time: %w", err)
	}
	return nil
}

// GetLastSyncAt returns the zero time if no round has succeeded yet
func (s *Storage) GetLastSyncAt(ctx context.Context) (time.Time, error) {
	micros, err := s.getMetadata(keyLastSyncAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last sync time: %w", err)
	}
	if micros == 0 {
		return time.Time{}, nil
	}
	return time.UnixMicro(micros).UTC(), nil
}
