// Package archive ships synced outbox events to object storage as
// snappy-compressed JSON batches, optionally sealed with the store archive key.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/golang/snappy"

	"github.com/iudanet/posync/internal/client/outbox"
	"github.com/iudanet/posync/internal/crypto"
	"github.com/iudanet/posync/internal/models"
)

const (
	formatVersion = 1

	extPlain  = ".json.sz"
	extSealed = ".json.sz.enc"
)

// ErrEmptyBatch возвращается при попытке архивировать пустой пакет
var ErrEmptyBatch = errors.New("nothing to archive")

// Batch содержимое одного архивного объекта
type Batch struct {
	ArchivedAt time.Time            `json:"archived_at"`
	StoreID    string               `json:"store_id"`
	DeviceID   string               `json:"device_id"`
	Events     []*models.LocalEvent `json:"events"`
	FirstSeq   int64                `json:"first_seq"`
	LastSeq    int64                `json:"last_seq"`
	Version    int                  `json:"version"`
}

// Archiver реализует outbox.Archiver поверх ObjectStore
type Archiver struct {
	store    ObjectStore
	logger   *slog.Logger
	now      func() time.Time
	storeID  string
	deviceID string
	key      []byte // nil - без шифрования
}

var _ outbox.Archiver = (*Archiver)(nil)

// New создает архиватор событий устройства. Если key не nil, объекты
// шифруются XChaCha20-Poly1305.
func New(store ObjectStore, storeID, deviceID string, key []byte, logger *slog.Logger) (*Archiver, error) {
	if key != nil && len(key) != crypto.KeySize {
		return nil, fmt.Errorf("archive key must be %d bytes, got %d", crypto.KeySize, len(key))
	}
	return &Archiver{
		store:    store,
		logger:   logger,
		now:      time.Now,
		storeID:  storeID,
		deviceID: deviceID,
		key:      key,
	}, nil
}

// WithClock подменяет источник времени (для тестов)
func (a *Archiver) WithClock(now func() time.Time) *Archiver {
	a.now = now
	return a
}

// Prefix возвращает префикс ключей этого устройства
func (a *Archiver) Prefix() string {
	return a.storeID + "/" + a.deviceID + "/"
}

// Archive упаковывает события в один объект. Ключ зависит только от
// диапазона seq, поэтому повторная выгрузка того же пакета перезаписывает объект.
func (a *Archiver) Archive(ctx context.Context, events []*models.LocalEvent) error {
	if len(events) == 0 {
		return ErrEmptyBatch
	}

	batch := Batch{
		ArchivedAt: a.now().UTC(),
		StoreID:    a.storeID,
		DeviceID:   a.deviceID,
		Events:     events,
		FirstSeq:   events[0].Seq,
		LastSeq:    events[0].Seq,
		Version:    formatVersion,
	}
	for _, e := range events[1:] {
		batch.FirstSeq = min(batch.FirstSeq, e.Seq)
		batch.LastSeq = max(batch.LastSeq, e.Seq)
	}

	body, err := a.encode(&batch)
	if err != nil {
		return err
	}

	key := a.objectKey(&batch)
	if err := a.store.Put(ctx, key, body); err != nil {
		return fmt.Errorf("failed to upload archive %s: %w", key, err)
	}

	a.logger.Debug("Archive uploaded",
		"key", key,
		"events", len(events),
		"bytes", len(body))
	return nil
}

// List возвращает ключи архивов устройства
func (a *Archiver) List(ctx context.Context) ([]string, error) {
	keys, err := a.store.List(ctx, a.Prefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}
	return keys, nil
}

// Restore читает архивный объект
func (a *Archiver) Restore(ctx context.Context, key string) (*Batch, error) {
	body, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download archive %s: %w", key, err)
	}

	if strings.HasSuffix(key, extSealed) {
		if a.key == nil {
			return nil, fmt.Errorf("archive %s is encrypted and no key is configured", key)
		}
		if body, err = crypto.Open(body, a.key); err != nil {
			return nil, err
		}
	}

	raw, err := snappy.Decode(nil, body)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress archive: %w", err)
	}

	var batch Batch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, fmt.Errorf("failed to decode archive: %w", err)
	}
	if batch.Version != formatVersion {
		return nil, fmt.Errorf("unsupported archive version %d", batch.Version)
	}
	return &batch, nil
}

func (a *Archiver) encode(batch *Batch) ([]byte, error) {
	raw, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive: %w", err)
	}

	body := snappy.Encode(nil, raw)
	if a.key == nil {
		return body, nil
	}
	return crypto.Seal(body, a.key)
}

// objectKey: <store>/<device>/<yyyy>/<mm>/<first>-<last><ext>
func (a *Archiver) objectKey(batch *Batch) string {
	ext := extPlain
	if a.key != nil {
		ext = extSealed
	}
	return path.Join(
		a.storeID,
		a.deviceID,
		batch.Events[0].CreatedAt.UTC().Format("2006/01"),
		fmt.Sprintf("%012d-%012d%s", batch.FirstSeq, batch.LastSeq, ext),
	)
}
