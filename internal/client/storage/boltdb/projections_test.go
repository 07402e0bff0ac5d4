package boltdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/models"
)

func TestProjections_PutGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	err := store.UpdateProjections(ctx, func(tx storage.ProjectionTx) error {
		assert.False(t, tx.IsApplied("e1"))

		if err := tx.PutProduct(&models.Product{ID: "p2", Name: "Harina"}); err != nil {
			return err
		}
		if err := tx.PutProduct(&models.Product{ID: "p1", Name: "Arroz"}); err != nil {
			return err
		}
		if err := tx.PutCustomer(&models.Customer{ID: "c1", Name: "Ana"}); err != nil {
			return err
		}
		if err := tx.PutStock(&models.StockLevel{ProductID: "p1", Quantity: 12}); err != nil {
			return err
		}
		return tx.MarkApplied("e1")
	})
	require.NoError(t, err)

	product, err := store.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Arroz", product.Name)

	customer, err := store.GetCustomer(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", customer.Name)

	stock, err := store.GetStock(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 12.0, stock.Quantity)

	products, err := store.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "p1", products[0].ID)

	_ = store.UpdateProjections(ctx, func(tx storage.ProjectionTx) error {
		assert.True(t, tx.IsApplied("e1"))
		return nil
	})
}

func TestProjections_DeleteEntity(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	err := store.UpdateProjections(ctx, func(tx storage.ProjectionTx) error {
		if err := tx.PutProduct(&models.Product{ID: "p1"}); err != nil {
			return err
		}
		if err := tx.PutStock(&models.StockLevel{ProductID: "p1", Quantity: 1}); err != nil {
			return err
		}
		return tx.DeleteEntity(models.EntityProduct, "p1")
	})
	require.NoError(t, err)

	_, err = store.GetProduct(ctx, "p1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)
	_, err = store.GetStock(ctx, "p1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)

	err = store.UpdateProjections(ctx, func(tx storage.ProjectionTx) error {
		return tx.DeleteEntity("invoice", "x")
	})
	assert.Error(t, err)
}

func TestProjections_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	err := store.UpdateProjections(ctx, func(tx storage.ProjectionTx) error {
		if err := tx.PutCustomer(&models.Customer{ID: "c1"}); err != nil {
			return err
		}
		if err := tx.MarkApplied("e1"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = store.GetCustomer(ctx, "c1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)
}
