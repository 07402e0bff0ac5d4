package boltdb

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

var (
	// BoltDB bucket names
	bucketAuth      = []byte("auth")
	bucketMetadata  = []byte("metadata")
	bucketEvents    = []byte("events")       // event_id -> LocalEvent
	bucketPending   = []byte("pending_idx")  // seq|event_id -> nil, только pending события
	bucketArchived  = []byte("archived_ids") // event_id -> seq|device_id, id остаются зарезервированы
	bucketConflicts = []byte("conflicts")
	bucketClock     = []byte("clock")
	bucketProducts  = []byte("products")
	bucketCustomers = []byte("customers")
	bucketStock     = []byte("stock")
	bucketApplied   = []byte("applied") // event_id применённых к проекциям событий
	bucketCache     = []byte("cache")

	allBuckets = [][]byte{
		bucketAuth, bucketMetadata, bucketEvents, bucketPending, bucketArchived,
		bucketConflicts, bucketClock, bucketProducts, bucketCustomers, bucketStock,
		bucketApplied, bucketCache,
	}
)

// schemaVersion раскладка бакетов; база новее клиента не открывается
const schemaVersion = 1

var keySchemaVersion = []byte("schema_version")

var (
	// ErrLocked другой процесс (обычно daemon) держит файл базы
	ErrLocked = errors.New("database is locked by another posync process")
	// ErrSchemaTooNew база создана более новой версией клиента
	ErrSchemaTooNew = errors.New("database was created by a newer client")
)

const defaultOpenTimeout = 2 * time.Second

// Storage локальная база устройства: outbox, часы, проекции и кэш
type Storage struct {
	db     *bbolt.DB
	logger *slog.Logger
}

type options struct {
	logger      *slog.Logger
	openTimeout time.Duration
	noSync      bool
}

// Option настраивает открытие базы
type Option func(*options)

// WithOpenTimeout ограничивает ожидание блокировки файла
func WithOpenTimeout(d time.Duration) Option {
	return func(o *options) { o.openTimeout = d }
}

// WithLogger задает логгер для пропущенных поврежденных записей
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithNoSync отключает fsync; только для тестов
func WithNoSync() Option {
	return func(o *options) { o.noSync = true }
}

// New открывает базу по пути dbPath, создает бакеты и проверяет версию схемы
func New(ctx context.Context, dbPath string, opts ...Option) (*Storage, error) {
	o := options{openTimeout: defaultOpenTimeout, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: o.openTimeout, NoSync: o.noSync})
	if errors.Is(err, berrors.ErrTimeout) {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dbPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db, logger: o.logger}
	if err := s.initBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database; repeated calls are no-ops
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets создает бакеты и записывает версию схемы новой базы
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketMetadata)
		stored := meta.Get(keySchemaVersion)
		if stored == nil {
			return meta.Put(keySchemaVersion, int64Bytes(schemaVersion))
		}
		if v := bytesInt64(stored); v > schemaVersion {
			return fmt.Errorf("%w: schema %d, supported %d", ErrSchemaTooNew, v, schemaVersion)
		}
		return nil
	})
}

// seqKey builds a key that sorts by seq first.
func seqKey(seq int64, id string) []byte {
	key := make([]byte, 8+len(id))
	binary.BigEndian.PutUint64(key, uint64(seq))
	copy(key[8:], id)
	return key
}

func int64Bytes(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func bytesInt64(b []byte) int64 {
	if len(b) < 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b[:8]))
}
