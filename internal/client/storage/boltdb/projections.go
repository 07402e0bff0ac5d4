package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/models"
)

// projectionTx реализует storage.ProjectionTx поверх bbolt транзакции
type projectionTx struct {
	tx *bbolt.Tx
}

func getJSON(tx *bbolt.Tx, bucket []byte, key string, v any) error {
	data := tx.Bucket(bucket).Get([]byte(key))
	if data == nil {
		return storage.ErrEntityNotFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s/%s: %w", bucket, key, err)
	}
	return nil
}

func putJSON(tx *bbolt.Tx, bucket []byte, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", bucket, key, err)
	}
	return tx.Bucket(bucket).Put([]byte(key), data)
}

func (p *projectionTx) IsApplied(eventID string) bool {
	return p.tx.Bucket(bucketApplied).Get([]byte(eventID)) != nil
}

func (p *projectionTx) MarkApplied(eventID string) error {
	return p.tx.Bucket(bucketApplied).Put([]byte(eventID), []byte{1})
}

func (p *projectionTx) ForgetApplied(eventID string) error {
	return p.tx.Bucket(bucketApplied).Delete([]byte(eventID))
}

func (p *projectionTx) GetProduct(id string) (*models.Product, error) {
	product := &models.Product{}
	if err := getJSON(p.tx, bucketProducts, id, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (p *projectionTx) PutProduct(product *models.Product) error {
	return putJSON(p.tx, bucketProducts, product.ID, product)
}

func (p *projectionTx) GetCustomer(id string) (*models.Customer, error) {
	customer := &models.Customer{}
	if err := getJSON(p.tx, bucketCustomers, id, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (p *projectionTx) PutCustomer(customer *models.Customer) error {
	return putJSON(p.tx, bucketCustomers, customer.ID, customer)
}

func (p *projectionTx) GetStock(productID string) (*models.StockLevel, error) {
	level := &models.StockLevel{}
	if err := getJSON(p.tx, bucketStock, productID, level); err != nil {
		return nil, err
	}
	return level, nil
}

func (p *projectionTx) PutStock(level *models.StockLevel) error {
	return putJSON(p.tx, bucketStock, level.ProductID, level)
}

func (p *projectionTx) DeleteEntity(entityType, id string) error {
	switch entityType {
	case models.EntityProduct:
		if err := p.tx.Bucket(bucketProducts).Delete([]byte(id)); err != nil {
			return err
		}
		return p.tx.Bucket(bucketStock).Delete([]byte(id))
	case models.EntityCustomer:
		return p.tx.Bucket(bucketCustomers).Delete([]byte(id))
	default:
		return fmt.Errorf("unknown entity type %q", entityType)
	}
}

// UpdateProjections runs fn in a single write transaction
func (s *Storage) UpdateProjections(ctx context.Context, fn func(tx storage.ProjectionTx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&projectionTx{tx: tx})
	})
}

// GetProduct retrieves a product read model
func (s *Storage) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	product := &models.Product{}
	if err := s.db.View(func(tx *bbolt.Tx) error {
		return getJSON(tx, bucketProducts, id, product)
	}); err != nil {
		return nil, err
	}
	return product, nil
}

// GetCustomer retrieves a customer read model
func (s *Storage) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	customer := &models.Customer{}
	if err := s.db.View(func(tx *bbolt.Tx) error {
		return getJSON(tx, bucketCustomers, id, customer)
	}); err != nil {
		return nil, err
	}
	return customer, nil
}

// GetStock retrieves the stock level of a product
func (s *Storage) GetStock(ctx context.Context, productID string) (*models.StockLevel, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	level := &models.StockLevel{}
	if err := s.db.View(func(tx *bbolt.Tx) error {
		return getJSON(tx, bucketStock, productID, level)
	}); err != nil {
		return nil, err
	}
	return level, nil
}

// ListProducts returns all products ordered by id
func (s *Storage) ListProducts(ctx context.Context) ([]*models.Product, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var products []*models.Product

	err := s.db.View(func(tx *bbolt.Tx) error {
		// Ключи bbolt отсортированы, поэтому порядок по id получается сам
		return tx.Bucket(bucketProducts).ForEach(func(k, v []byte) error {
			var product models.Product
			if err := json.Unmarshal(v, &product); err != nil {
				return fmt.Errorf("failed to unmarshal product: %w", err)
			}
			products = append(products, &product)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}
