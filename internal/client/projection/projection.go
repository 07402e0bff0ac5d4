// Package projection folds domain events into the local read models.
package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/iudanet/posync/internal/client/cache"
	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/crdt"
	"github.com/iudanet/posync/internal/models"
)

// ErrMissingEntity is returned for events that do not name the entity they change.
var ErrMissingEntity = errors.New("event does not reference an entity")

const defaultLowStockThreshold = 5

// Engine applies events to the read models and serves read queries through the cache.
type Engine struct {
	store  storage.ProjectionStorage
	cache  *cache.Cache
	logger *slog.Logger
}

// New creates a projection engine. c may be nil, then reads go straight to storage.
func New(store storage.ProjectionStorage, c *cache.Cache, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		cache:  c,
		logger: logger,
	}
}

// ApplyEvents applies events in the given order. A failing event is logged
// and recorded in the result; the rest of the batch is still applied.
func (e *Engine) ApplyEvents(ctx context.Context, events []*models.LocalEvent) *storage.BulkResult {
	result := storage.NewBulkResult()

	for _, event := range events {
		applied, err := e.ApplyEvent(ctx, event)
		if err != nil {
			e.logger.Error("Failed to apply event",
				"event_id", event.EventID,
				"type", event.Type,
				"error", err)
			result.Failed[event.EventID] = err
			continue
		}
		if applied {
			result.Updated++
		}
	}

	return result
}

// ApplyEvent applies one event. It reports false if the event had already been applied.
func (e *Engine) ApplyEvent(ctx context.Context, event *models.LocalEvent) (bool, error) {
	applied := false
	var touched []string

	err := e.store.UpdateProjections(ctx, func(tx storage.ProjectionTx) error {
		if tx.IsApplied(event.EventID) {
			return nil
		}

		keys, err := apply(tx, event)
		if err != nil {
			return err
		}
		if err := tx.MarkApplied(event.EventID); err != nil {
			return fmt.Errorf("failed to mark event applied: %w", err)
		}

		applied = true
		touched = keys
		return nil
	})
	if err != nil {
		return false, err
	}

	e.invalidate(ctx, touched)
	return applied, nil
}

// Rebuild drops the read model row of one entity, replays history (the
// server version of the entity) in causal order and then folds pending, the
// local events on the entity that the server has not seen yet, in seq order.
// Pending events already present in history are not applied twice.
func (e *Engine) Rebuild(ctx context.Context, entityType, entityID string, history, pending []*models.LocalEvent) error {
	ordered := make([]*models.LocalEvent, len(history))
	copy(ordered, history)
	crdt.SortCausal(ordered)

	seen := make(map[string]struct{}, len(ordered))
	for _, event := range ordered {
		seen[event.EventID] = struct{}{}
	}

	local := make([]*models.LocalEvent, 0, len(pending))
	for _, event := range pending {
		if _, ok := seen[event.EventID]; !ok {
			local = append(local, event)
		}
	}
	sort.SliceStable(local, func(i, j int) bool { return local[i].Seq < local[j].Seq })

	touched := entityKeys(entityType, entityID)

	err := e.store.UpdateProjections(ctx, func(tx storage.ProjectionTx) error {
		if err := tx.DeleteEntity(entityType, entityID); err != nil {
			return fmt.Errorf("failed to reset %s/%s: %w", entityType, entityID, err)
		}

		for _, event := range append(ordered, local...) {
			keys, err := apply(tx, event)
			if err != nil {
				return fmt.Errorf("failed to replay event %s: %w", event.EventID, err)
			}
			if err := tx.MarkApplied(event.EventID); err != nil {
				return err
			}
			touched = append(touched, keys...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.invalidate(ctx, touched)

	e.logger.Info("Entity rebuilt",
		"entity_type", entityType,
		"entity_id", entityID,
		"events", len(ordered),
		"pending", len(local))

	return nil
}

// Touches reports whether event changes the read model of the entity.
// Stock deltas reference their product through the payload.
func Touches(event *models.LocalEvent, entityType, entityID string) bool {
	if event.EntityType == entityType && event.EntityID == entityID {
		return true
	}

	ref, err := decodeRef(event)
	if err != nil {
		return false
	}
	switch entityType {
	case models.EntityProduct:
		return ref.ProductID == entityID
	case models.EntityCustomer:
		return ref.CustomerID == entityID
	}
	return false
}

func (e *Engine) invalidate(ctx context.Context, keys []string) {
	if e.cache == nil {
		return
	}
	for _, key := range keys {
		if err := e.cache.Invalidate(ctx, key); err != nil {
			e.logger.Warn("Failed to invalidate cache", "key", key, "error", err)
		}
	}
}

// apply dispatches on the event type and returns the cache keys it touched.
func apply(tx storage.ProjectionTx, event *models.LocalEvent) ([]string, error) {
	switch event.Type {
	case models.EventProductCreated:
		return applyProductCreated(tx, event)
	case models.EventProductUpdated:
		return applyProductUpdated(tx, event)
	case models.EventProductDeactivated:
		return applyProductDeactivated(tx, event)
	case models.EventPriceChanged:
		return applyPriceChanged(tx, event)
	case models.EventCustomerCreated:
		return applyCustomerCreated(tx, event)
	case models.EventCustomerUpdated:
		return applyCustomerUpdated(tx, event)
	case models.EventStockDeltaApplied:
		return applyStockDelta(tx, event)
	default:
		// Неизвестные типы отмечаются как применённые без изменений
		return nil, nil
	}
}

// entityRef holds the ids every projected payload may carry.
type entityRef struct {
	ProductID  string          `json:"product_id"`
	CustomerID string          `json:"customer_id"`
	Patch      json.RawMessage `json:"patch"`
}

func decodeRef(event *models.LocalEvent) (*entityRef, error) {
	ref := &entityRef{}
	if err := json.Unmarshal(event.Payload, ref); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", event.Type, err)
	}
	return ref, nil
}

func productID(event *models.LocalEvent, ref *entityRef) (string, error) {
	id := ref.ProductID
	if id == "" && event.EntityType == models.EntityProduct {
		id = event.EntityID
	}
	if id == "" {
		return "", ErrMissingEntity
	}
	return id, nil
}

func customerID(event *models.LocalEvent, ref *entityRef) (string, error) {
	id := ref.CustomerID
	if id == "" && event.EntityType == models.EntityCustomer {
		id = event.EntityID
	}
	if id == "" {
		return "", ErrMissingEntity
	}
	return id, nil
}

// patchOf returns the partial update carried by an *Updated event:
// the "patch" object if present, otherwise the payload itself.
func patchOf(event *models.LocalEvent, ref *entityRef) json.RawMessage {
	if len(ref.Patch) > 0 {
		return ref.Patch
	}
	return event.Payload
}

func applyProductCreated(tx storage.ProjectionTx, event *models.LocalEvent) ([]string, error) {
	ref, err := decodeRef(event)
	if err != nil {
		return nil, err
	}
	id, err := productID(event, ref)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		LowStockThreshold: defaultLowStockThreshold,
		IsActive:          true,
	}
	if err := json.Unmarshal(event.Payload, product); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", event.Type, err)
	}
	product.ID = id
	product.StoreID = event.StoreID
	product.UpdatedAt = event.CreatedAt
	product.LastEventID = event.EventID

	if err := tx.PutProduct(product); err != nil {
		return nil, err
	}
	return productKeys(id), nil
}

// updateProduct loads the product and hands it to fn. A missing product
// drops the update.
func updateProduct(tx storage.ProjectionTx, event *models.LocalEvent, fn func(p *models.Product, ref *entityRef) error) ([]string, error) {
	ref, err := decodeRef(event)
	if err != nil {
		return nil, err
	}
	id, err := productID(event, ref)
	if err != nil {
		return nil, err
	}

	product, err := tx.GetProduct(id)
	if errors.Is(err, storage.ErrEntityNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := fn(product, ref); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", event.Type, err)
	}
	product.ID = id
	product.UpdatedAt = event.CreatedAt
	product.LastEventID = event.EventID

	if err := tx.PutProduct(product); err != nil {
		return nil, err
	}
	return productKeys(id), nil
}

func applyProductUpdated(tx storage.ProjectionTx, event *models.LocalEvent) ([]string, error) {
	return updateProduct(tx, event, func(p *models.Product, ref *entityRef) error {
		storeID := p.StoreID
		if err := json.Unmarshal(patchOf(event, ref), p); err != nil {
			return err
		}
		p.StoreID = storeID
		return nil
	})
}

func applyProductDeactivated(tx storage.ProjectionTx, event *models.LocalEvent) ([]string, error) {
	return updateProduct(tx, event, func(p *models.Product, _ *entityRef) error {
		p.IsActive = false
		return nil
	})
}

func applyPriceChanged(tx storage.ProjectionTx, event *models.LocalEvent) ([]string, error) {
	var prices struct {
		PriceBs  *float64 `json:"price_bs"`
		PriceUSD *float64 `json:"price_usd"`
	}
	if err := json.Unmarshal(event.Payload, &prices); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", event.Type, err)
	}

	return updateProduct(tx, event, func(p *models.Product, _ *entityRef) error {
		if prices.PriceBs != nil {
			p.PriceBs = *prices.PriceBs
		}
		if prices.PriceUSD != nil {
			p.PriceUSD = *prices.PriceUSD
		}
		return nil
	})
}

func applyCustomerCreated(tx storage.ProjectionTx, event *models.LocalEvent) ([]string, error) {
	ref, err := decodeRef(event)
	if err != nil {
		return nil, err
	}
	id, err := customerID(event, ref)
	if err != nil {
		return nil, err
	}

	customer := &models.Customer{}
	if err := json.Unmarshal(event.Payload, customer); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", event.Type, err)
	}
	customer.ID = id
	customer.StoreID = event.StoreID
	customer.UpdatedAt = event.CreatedAt
	customer.LastEventID = event.EventID

	if err := tx.PutCustomer(customer); err != nil {
		return nil, err
	}
	return []string{CustomerKey(id)}, nil
}

func applyCustomerUpdated(tx storage.ProjectionTx, event *models.LocalEvent) ([]string, error) {
	ref, err := decodeRef(event)
	if err != nil {
		return nil, err
	}
	id, err := customerID(event, ref)
	if err != nil {
		return nil, err
	}

	customer, err := tx.GetCustomer(id)
	if errors.Is(err, storage.ErrEntityNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	storeID := customer.StoreID
	if err := json.Unmarshal(patchOf(event, ref), customer); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", event.Type, err)
	}
	customer.ID = id
	customer.StoreID = storeID
	customer.UpdatedAt = event.CreatedAt
	customer.LastEventID = event.EventID

	if err := tx.PutCustomer(customer); err != nil {
		return nil, err
	}
	return []string{CustomerKey(id)}, nil
}

func applyStockDelta(tx storage.ProjectionTx, event *models.LocalEvent) ([]string, error) {
	var delta struct {
		QtyDelta *float64 `json:"qty_delta"`
	}
	if err := json.Unmarshal(event.Payload, &delta); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", event.Type, err)
	}
	if delta.QtyDelta == nil {
		return nil, fmt.Errorf("invalid %s payload: qty_delta is required", event.Type)
	}

	ref, err := decodeRef(event)
	if err != nil {
		return nil, err
	}
	id, err := productID(event, ref)
	if err != nil {
		return nil, err
	}

	level, err := tx.GetStock(id)
	if errors.Is(err, storage.ErrEntityNotFound) {
		level = &models.StockLevel{ProductID: id}
	} else if err != nil {
		return nil, err
	}

	level.Quantity += *delta.QtyDelta
	level.UpdatedAt = event.CreatedAt
	level.LastEventID = event.EventID

	if err := tx.PutStock(level); err != nil {
		return nil, err
	}
	return []string{StockKey(id)}, nil
}
