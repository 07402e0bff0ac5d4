package storage

import (
	"context"
	"time"
)

// MetadataStorage хранит курсоры синхронизации устройства
type MetadataStorage interface {
	// SaveLastPullSeq сохраняет server seq последнего полученного события
	SaveLastPullSeq(ctx context.Context, seq int64) error

	// GetLastPullSeq возвращает 0, если pull еще не выполнялся
	GetLastPullSeq(ctx context.Context) (int64, error)

	// SaveLastSyncAt отмечает время последнего успешного раунда
	SaveLastSyncAt(ctx context.Context, at time.Time) error

	// GetLastSyncAt возвращает нулевое время, если раундов не было
	GetLastSyncAt(ctx context.Context) (time.Time, error)
}
