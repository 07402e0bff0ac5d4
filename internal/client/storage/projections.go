package storage

import (
	"context"

	"github.com/iudanet/posync/internal/models"
)

// ProjectionTx is the view of the read model tables inside one write transaction.
type ProjectionTx interface {
	// IsApplied reports whether the event has already been folded into the read models
	IsApplied(eventID string) bool
	// MarkApplied records the event as folded
	MarkApplied(eventID string) error
	// ForgetApplied drops the applied marker so the event may be replayed
	ForgetApplied(eventID string) error

	// GetProduct returns ErrEntityNotFound if the product doesn't exist
	GetProduct(id string) (*models.Product, error)
	PutProduct(product *models.Product) error

	// GetCustomer returns ErrEntityNotFound if the customer doesn't exist
	GetCustomer(id string) (*models.Customer, error)
	PutCustomer(customer *models.Customer) error

	// GetStock returns ErrEntityNotFound if no stock was recorded for the product
	GetStock(productID string) (*models.StockLevel, error)
	PutStock(level *models.StockLevel) error

	// DeleteEntity removes the row of the entity (and its stock for products)
	DeleteEntity(entityType, id string) error
}

// ProjectionStorage stores the local read models.
type ProjectionStorage interface {
	// UpdateProjections runs fn in a single write transaction.
	UpdateProjections(ctx context.Context, fn func(tx ProjectionTx) error) error

	// GetProduct returns ErrEntityNotFound if the product doesn't exist
	GetProduct(ctx context.Context, id string) (*models.Product, error)

	// GetCustomer returns ErrEntityNotFound if the customer doesn't exist
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)

	// GetStock returns ErrEntityNotFound if no stock was recorded
	GetStock(ctx context.Context, productID string) (*models.StockLevel, error)

	// ListProducts returns all products ordered by id
	ListProducts(ctx context.Context) ([]*models.Product, error)
}
