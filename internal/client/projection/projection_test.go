package projection

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/posync/internal/client/cache"
	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/client/storage/boltdb"
	"github.com/iudanet/posync/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEngine(t *testing.T) (*Engine, *boltdb.Storage) {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "projection.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c := cache.New(cache.DefaultConfig(), nil, testLogger())
	return New(store, c, testLogger()), store
}

var baseTime = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func newEvent(id, eventType, entityType, entityID, payload string, seq int64) *models.LocalEvent {
	return &models.LocalEvent{
		EventID:     id,
		StoreID:     "store-1",
		DeviceID:    "device-a",
		Seq:         seq,
		Type:        eventType,
		EntityType:  entityType,
		EntityID:    entityID,
		Payload:     json.RawMessage(payload),
		VectorClock: models.VectorClock{"device-a": seq},
		CreatedAt:   baseTime.Add(time.Duration(seq) * time.Minute),
	}
}

func productCreated(id, entityID string, seq int64) *models.LocalEvent {
	return newEvent(id, models.EventProductCreated, models.EntityProduct, entityID,
		`{"product_id":"`+entityID+`","name":"Harina PAN","price_bs":36.5,"price_usd":1,"cost_usd":0.7}`, seq)
}

func TestApplyEvent_ProductCreated(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	applied, err := engine.ApplyEvent(ctx, productCreated("e1", "p1", 1))
	require.NoError(t, err)
	assert.True(t, applied)

	product, err := engine.Product(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Harina PAN", product.Name)
	assert.Equal(t, "store-1", product.StoreID)
	assert.Equal(t, 36.5, product.PriceBs)
	assert.Equal(t, 0.7, product.CostUSD)
	assert.Equal(t, defaultLowStockThreshold, product.LowStockThreshold)
	assert.True(t, product.IsActive)
	assert.Equal(t, "e1", product.LastEventID)
	assert.Equal(t, baseTime.Add(time.Minute), product.UpdatedAt)
}

func TestApplyEvent_Idempotent(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	delta := newEvent("e1", models.EventStockDeltaApplied, models.EntityProduct, "p1",
		`{"product_id":"p1","qty_delta":-3}`, 1)

	applied, err := engine.ApplyEvent(ctx, delta)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = engine.ApplyEvent(ctx, delta)
	require.NoError(t, err)
	assert.False(t, applied)

	level, err := engine.Stock(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, -3.0, level.Quantity)
}

func TestApplyEvent_UpdateMergesPatch(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	_, err := engine.ApplyEvent(ctx, productCreated("e1", "p1", 1))
	require.NoError(t, err)

	// Прогреваем кеш, чтобы проверить инвалидацию
	_, err = engine.Product(ctx, "p1")
	require.NoError(t, err)

	update := newEvent("e2", models.EventProductUpdated, models.EntityProduct, "p1",
		`{"product_id":"p1","patch":{"name":"Harina PAN 1kg","sku":"HP-1","product_id":"other","store_id":"x"}}`, 2)
	_, err = engine.ApplyEvent(ctx, update)
	require.NoError(t, err)

	product, err := engine.Product(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", product.ID)
	assert.Equal(t, "store-1", product.StoreID)
	assert.Equal(t, "Harina PAN 1kg", product.Name)
	assert.Equal(t, "HP-1", product.SKU)
	assert.Equal(t, 36.5, product.PriceBs)
	assert.Equal(t, "e2", product.LastEventID)
}

func TestApplyEvent_UpdateOfMissingRowIsDropped(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	tests := []*models.LocalEvent{
		newEvent("e1", models.EventProductUpdated, models.EntityProduct, "p1", `{"patch":{"name":"x"}}`, 1),
		newEvent("e2", models.EventPriceChanged, models.EntityProduct, "p1", `{"price_usd":2}`, 2),
		newEvent("e3", models.EventProductDeactivated, models.EntityProduct, "p1", `{}`, 3),
		newEvent("e4", models.EventCustomerUpdated, models.EntityCustomer, "c1", `{"patch":{"name":"x"}}`, 4),
	}

	for _, event := range tests {
		t.Run(event.Type, func(t *testing.T) {
			applied, err := engine.ApplyEvent(ctx, event)
			require.NoError(t, err)
			assert.True(t, applied)
		})
	}

	_, err := engine.Product(ctx, "p1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)
	_, err = engine.Customer(ctx, "c1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)
}

func TestApplyEvent_PriceChangedAndDeactivated(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	result := engine.ApplyEvents(ctx, []*models.LocalEvent{
		productCreated("e1", "p1", 1),
		newEvent("e2", models.EventPriceChanged, models.EntityProduct, "p1", `{"product_id":"p1","price_usd":1.2}`, 2),
		newEvent("e3", models.EventProductDeactivated, models.EntityProduct, "p1", `{"product_id":"p1","is_active":false}`, 3),
	})
	require.True(t, result.OK())
	assert.Equal(t, 3, result.Updated)

	product, err := engine.Product(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1.2, product.PriceUSD)
	assert.Equal(t, 36.5, product.PriceBs)
	assert.False(t, product.IsActive)
}

func TestApplyEvent_Customer(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	result := engine.ApplyEvents(ctx, []*models.LocalEvent{
		newEvent("e1", models.EventCustomerCreated, models.EntityCustomer, "c1",
			`{"customer_id":"c1","name":"Ana","document_id":"V-123"}`, 1),
		newEvent("e2", models.EventCustomerUpdated, models.EntityCustomer, "c1",
			`{"customer_id":"c1","patch":{"phone":"+58 412 000"}}`, 2),
	})
	require.True(t, result.OK())

	customer, err := engine.Customer(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", customer.Name)
	assert.Equal(t, "V-123", customer.DocumentID)
	assert.Equal(t, "+58 412 000", customer.Phone)
	assert.Equal(t, "e2", customer.LastEventID)
}

func TestApplyEvents_IsolatesFailures(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	result := engine.ApplyEvents(ctx, []*models.LocalEvent{
		productCreated("e1", "p1", 1),
		newEvent("bad-json", models.EventProductCreated, models.EntityProduct, "p2", `{"name":`, 2),
		newEvent("no-entity", models.EventStockDeltaApplied, "", "", `{"qty_delta":1}`, 3),
		newEvent("no-delta", models.EventStockDeltaApplied, models.EntityProduct, "p1", `{}`, 4),
		productCreated("e5", "p3", 5),
	})

	assert.Equal(t, 2, result.Updated)
	require.Len(t, result.Failed, 3)
	assert.Contains(t, result.Failed, "bad-json")
	assert.ErrorIs(t, result.Failed["no-entity"], ErrMissingEntity)
	assert.Contains(t, result.Failed, "no-delta")

	products, err := engine.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, "p3", products[1].ID)
}

func TestApplyEvent_UnknownTypeIsMarkedApplied(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	event := newEvent("e1", "SaleCreated", "sale", "s1", `{"total":10}`, 1)

	applied, err := engine.ApplyEvent(ctx, event)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = engine.ApplyEvent(ctx, event)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestListProducts_InvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	_, err := engine.ApplyEvent(ctx, productCreated("e1", "p1", 1))
	require.NoError(t, err)

	products, err := engine.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)

	_, err = engine.ApplyEvent(ctx, productCreated("e2", "p2", 2))
	require.NoError(t, err)

	products, err = engine.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestRebuild_ReplacesLocalState(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	// Локальное состояние: товар с локальной правкой цены и движением остатка
	local := []*models.LocalEvent{
		productCreated("e1", "p1", 1),
		newEvent("local-price", models.EventPriceChanged, models.EntityProduct, "p1", `{"product_id":"p1","price_usd":9.99}`, 2),
		newEvent("local-stock", models.EventStockDeltaApplied, models.EntityProduct, "p1", `{"product_id":"p1","qty_delta":4}`, 3),
	}
	require.True(t, engine.ApplyEvents(ctx, local).OK())

	_, err := engine.Product(ctx, "p1")
	require.NoError(t, err)

	// История сервера: создание, другое изменение цены и другой остаток
	remotePrice := newEvent("remote-price", models.EventPriceChanged, models.EntityProduct, "p1", `{"product_id":"p1","price_usd":1.5}`, 2)
	remotePrice.DeviceID = "device-b"
	remotePrice.VectorClock = models.VectorClock{"device-a": 1, "device-b": 1}
	remotePrice.ServerSeq = 2
	created := productCreated("e1", "p1", 1)
	created.ServerSeq = 1
	remoteStock := newEvent("remote-stock", models.EventStockDeltaApplied, models.EntityProduct, "p1", `{"product_id":"p1","qty_delta":10}`, 3)
	remoteStock.DeviceID = "device-b"
	remoteStock.VectorClock = models.VectorClock{"device-a": 1, "device-b": 2}
	remoteStock.ServerSeq = 3

	// Порядок входа не важен
	require.NoError(t, engine.Rebuild(ctx, models.EntityProduct, "p1", []*models.LocalEvent{remoteStock, remotePrice, created}, nil))

	product, err := engine.Product(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1.5, product.PriceUSD)
	assert.Equal(t, "remote-price", product.LastEventID)

	level, err := engine.Stock(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, level.Quantity)

	// Повторное применение уже воспроизведённого события не меняет состояние
	applied, err := engine.ApplyEvent(ctx, remoteStock)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestEngine_WithoutCache(t *testing.T) {
	ctx := context.Background()
	_, store := newTestEngine(t)
	engine := New(store, nil, testLogger())

	_, err := engine.ApplyEvent(ctx, productCreated("e1", "p1", 1))
	require.NoError(t, err)

	product, err := engine.Product(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", product.ID)

	_, err = engine.Stock(ctx, "p1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)
}

func TestRebuild_KeepsPendingLocalEvents(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	created := productCreated("e1", "p1", 1)
	created.ServerSeq = 1
	_, err := engine.ApplyEvent(ctx, created)
	require.NoError(t, err)

	// Локальная продажа еще не отправлена
	sale := newEvent("local-sale", models.EventStockDeltaApplied, models.EntityProduct, "p1", `{"product_id":"p1","qty_delta":-3}`, 2)
	sale.DeviceID = "device-b"
	_, err = engine.ApplyEvent(ctx, sale)
	require.NoError(t, err)

	// Неотправленное событие, которое сервер уже принял, не применяется дважды
	acked := newEvent("local-acked", models.EventStockDeltaApplied, models.EntityProduct, "p1", `{"product_id":"p1","qty_delta":10}`, 3)
	acked.DeviceID = "device-b"
	acked.VectorClock = models.VectorClock{"device-a": 1, "device-b": 1}
	acked.ServerSeq = 2

	require.NoError(t, engine.Rebuild(ctx, models.EntityProduct, "p1",
		[]*models.LocalEvent{created, acked},
		[]*models.LocalEvent{acked, sale}))

	level, err := engine.Stock(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 7.0, level.Quantity)

	// Продажа позже вернется с сервера и не должна примениться повторно
	applied, err := engine.ApplyEvent(ctx, sale)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestTouches(t *testing.T) {
	tests := []struct {
		name       string
		event      *models.LocalEvent
		entityType string
		entityID   string
		want       bool
	}{
		{name: "same entity", event: productCreated("e1", "p1", 1), entityType: models.EntityProduct, entityID: "p1", want: true},
		{name: "other product", event: productCreated("e1", "p2", 1), entityType: models.EntityProduct, entityID: "p1"},
		{
			name:       "stock delta by payload",
			event:      newEvent("s1", models.EventStockDeltaApplied, "", "", `{"product_id":"p1","qty_delta":1}`, 1),
			entityType: models.EntityProduct, entityID: "p1", want: true,
		},
		{
			name:       "customer by payload",
			event:      newEvent("c1", models.EventCustomerUpdated, "", "", `{"customer_id":"c1","patch":{}}`, 1),
			entityType: models.EntityCustomer, entityID: "c1", want: true,
		},
		{
			name:       "undecodable payload",
			event:      newEvent("x", models.EventProductUpdated, "", "", `not json`, 1),
			entityType: models.EntityProduct, entityID: "p1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Touches(tt.event, tt.entityType, tt.entityID))
		})
	}
}

// interleavedStore runs afterGetProduct once, between the storage read
// and the cache fill of a product query.
type interleavedStore struct {
	*boltdb.Storage
	afterGetProduct func()
}

func (s *interleavedStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.Storage.GetProduct(ctx, id)
	if hook := s.afterGetProduct; hook != nil {
		s.afterGetProduct = nil
		hook()
	}
	return product, err
}

func TestProduct_ConcurrentWriteIsNotCachedStale(t *testing.T) {
	ctx := context.Background()

	bolt, err := boltdb.New(ctx, filepath.Join(t.TempDir(), "projection.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	store := &interleavedStore{Storage: bolt}
	engine := New(store, cache.New(cache.DefaultConfig(), bolt, testLogger()), testLogger())

	_, err = engine.ApplyEvent(ctx, productCreated("e1", "p1", 1))
	require.NoError(t, err)

	store.afterGetProduct = func() {
		_, err := engine.ApplyEvent(ctx, newEvent("e2", models.EventProductUpdated, models.EntityProduct, "p1",
			`{"product_id":"p1","patch":{"name":"Renamed"}}`, 2))
		require.NoError(t, err)
	}

	// Чтение, начатое до записи, возвращает прочитанное значение
	product, err := engine.Product(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Harina PAN", product.Name)

	_, err = bolt.CacheGet(ctx, ProductKey("p1"))
	assert.ErrorIs(t, err, storage.ErrCacheMiss, "stale value must not reach the durable tier")

	product, err = engine.Product(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", product.Name)
}
