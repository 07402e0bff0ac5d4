package projection

import (
	"context"

	"github.com/iudanet/posync/internal/client/cache"
	"github.com/iudanet/posync/internal/models"
)

// Cache keys of the read models
const productListKey = "products:list"

func ProductKey(id string) string  { return "product:" + id }
func CustomerKey(id string) string { return "customer:" + id }
func StockKey(id string) string    { return "stock:" + id }

func productKeys(id string) []string {
	return []string{ProductKey(id), StockKey(id), productListKey}
}

func entityKeys(entityType, id string) []string {
	switch entityType {
	case models.EntityProduct:
		return productKeys(id)
	case models.EntityCustomer:
		return []string{CustomerKey(id)}
	}
	return nil
}

// cached reads key from the cache and falls back to load, storing its result.
// The result is not cached if a projection write invalidated key while load ran.
func cached[T any](ctx context.Context, e *Engine, key string, load func() (T, error)) (T, error) {
	if e.cache == nil {
		return load()
	}

	if v, ok := cache.GetJSON[T](ctx, e.cache, key); ok {
		return *v, nil
	}

	gen := e.cache.Generation(key)
	v, err := load()
	if err != nil {
		return v, err
	}

	stored, err := cache.FillJSON(ctx, e.cache, key, v, cache.TierDurable, gen)
	if err != nil {
		e.logger.Warn("Failed to cache read model", "key", key, "error", err)
	} else if !stored {
		e.logger.Debug("Read model changed while loading, not cached", "key", key)
	}
	return v, nil
}

// Product returns the product read model. storage.ErrEntityNotFound if absent.
func (e *Engine) Product(ctx context.Context, id string) (*models.Product, error) {
	return cached(ctx, e, ProductKey(id), func() (*models.Product, error) {
		return e.store.GetProduct(ctx, id)
	})
}

// Customer returns the customer read model. storage.ErrEntityNotFound if absent.
func (e *Engine) Customer(ctx context.Context, id string) (*models.Customer, error) {
	return cached(ctx, e, CustomerKey(id), func() (*models.Customer, error) {
		return e.store.GetCustomer(ctx, id)
	})
}

// Stock returns the stock level of a product. storage.ErrEntityNotFound if none was recorded.
func (e *Engine) Stock(ctx context.Context, productID string) (*models.StockLevel, error) {
	return cached(ctx, e, StockKey(productID), func() (*models.StockLevel, error) {
		return e.store.GetStock(ctx, productID)
	})
}

// ListProducts returns every product ordered by id.
func (e *Engine) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return cached(ctx, e, productListKey, func() ([]*models.Product, error) {
		return e.store.ListProducts(ctx)
	})
}
