package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/posync/internal/client/storage"
)

var (
	keyAuthCurrent = []byte("current")
	keyAuthBinding = []byte("binding")
)

var errNoAuthBucket = errors.New("auth bucket not found")

// SaveAuth сохраняет токен; первый вход привязывает базу к устройству
func (s *Storage) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return errNoAuthBucket
		}

		binding, err := readBinding(bucket)
		switch {
		case errors.Is(err, storage.ErrAuthNotFound):
			binding = &storage.DeviceBinding{
				StoreID:  auth.StoreID,
				DeviceID: auth.DeviceID,
				BoundAt:  auth.LoggedInAt,
			}
			if err := putJSON(tx, bucketAuth, string(keyAuthBinding), binding); err != nil {
				return fmt.Errorf("failed to bind device: %w", err)
			}
		case err != nil:
			return err
		case binding.StoreID != auth.StoreID || binding.DeviceID != auth.DeviceID:
			return fmt.Errorf("%w: bound to %s/%s", storage.ErrDeviceMismatch, binding.StoreID, binding.DeviceID)
		}

		if err := putJSON(tx, bucketAuth, string(keyAuthCurrent), auth); err != nil {
			return fmt.Errorf("failed to save auth data: %w", err)
		}
		return nil
	})
}

// GetAuth retrieves the stored device token
func (s *Storage) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	var auth storage.AuthData

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return errNoAuthBucket
		}

		data := bucket.Get(keyAuthCurrent)
		if data == nil {
			return storage.ErrAuthNotFound
		}
		if err := json.Unmarshal(data, &auth); err != nil {
			return fmt.Errorf("failed to unmarshal auth data: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &auth, nil
}

// DeleteAuth удаляет токен (logout)
func (s *Storage) DeleteAuth(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return errNoAuthBucket
		}

		if bucket.Get(keyAuthCurrent) == nil {
			return storage.ErrAuthNotFound
		}
		if err := bucket.Delete(keyAuthCurrent); err != nil {
			return fmt.Errorf("failed to delete auth data: %w", err)
		}
		return nil
	})
}

// BoundDevice returns the device the database belongs to
func (s *Storage) BoundDevice(ctx context.Context) (*storage.DeviceBinding, error) {
	var binding *storage.DeviceBinding

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return errNoAuthBucket
		}
		var err error
		binding, err = readBinding(bucket)
		return err
	})
	if err != nil {
		return nil, err
	}

	return binding, nil
}

func readBinding(bucket *bbolt.Bucket) (*storage.DeviceBinding, error) {
	data := bucket.Get(keyAuthBinding)
	if data == nil {
		return nil, storage.ErrAuthNotFound
	}

	var binding storage.DeviceBinding
	if err := json.Unmarshal(data, &binding); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device binding: %w", err)
	}
	return &binding, nil
}
