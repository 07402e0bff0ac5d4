// Package data is the domain boundary of the device: every change to
// products, customers or stock becomes an outbox event that is applied
// to the local read models right away.
package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/iudanet/posync/internal/models"
)

// ErrEmptyChange возвращается для изменения без полей
var ErrEmptyChange = errors.New("change has no fields")

// EventLog принимает новые события (outbox)
type EventLog interface {
	Append(ctx context.Context, in models.NewEvent) (*models.LocalEvent, error)
}

// Projector применяет события и отвечает на запросы чтения
type Projector interface {
	ApplyEvent(ctx context.Context, event *models.LocalEvent) (bool, error)
	Product(ctx context.Context, id string) (*models.Product, error)
	Customer(ctx context.Context, id string) (*models.Customer, error)
	Stock(ctx context.Context, productID string) (*models.StockLevel, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
}

//go:generate moq -out service_mock.go . Service

// Service определяет операции домена, доступные CLI
type Service interface {
	Record(ctx context.Context, in models.NewEvent) (*models.LocalEvent, error)

	CreateProduct(ctx context.Context, in ProductInput) (*models.LocalEvent, error)
	UpdateProduct(ctx context.Context, id string, patch map[string]any) (*models.LocalEvent, error)
	ChangePrice(ctx context.Context, id string, in PriceInput) (*models.LocalEvent, error)
	DeactivateProduct(ctx context.Context, id string) (*models.LocalEvent, error)
	AdjustStock(ctx context.Context, productID string, in StockInput) (*models.LocalEvent, error)

	CreateCustomer(ctx context.Context, in CustomerInput) (*models.LocalEvent, error)
	UpdateCustomer(ctx context.Context, id string, patch map[string]any) (*models.LocalEvent, error)

	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	GetStock(ctx context.Context, productID string) (*models.StockLevel, error)
}

// ProductInput данные нового товара
type ProductInput struct {
	ID                string  `json:"product_id,omitempty"`
	Name              string  `json:"name" validate:"required,max=200"`
	Category          string  `json:"category,omitempty" validate:"max=100"`
	SKU               string  `json:"sku,omitempty" validate:"max=64"`
	Barcode           string  `json:"barcode,omitempty" validate:"omitempty,max=64"`
	Description       string  `json:"description,omitempty"`
	PriceBs           float64 `json:"price_bs" validate:"gte=0"`
	PriceUSD          float64 `json:"price_usd" validate:"gte=0"`
	CostBs            float64 `json:"cost_bs" validate:"gte=0"`
	CostUSD           float64 `json:"cost_usd" validate:"gte=0"`
	LowStockThreshold int     `json:"low_stock_threshold,omitempty" validate:"gte=0"`
}

// CustomerInput данные нового клиента
type CustomerInput struct {
	ID         string `json:"customer_id,omitempty"`
	Name       string `json:"name" validate:"required,max=200"`
	DocumentID string `json:"document_id,omitempty" validate:"max=32"`
	Phone      string `json:"phone,omitempty" validate:"max=32"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Note       string `json:"note,omitempty"`
}

// PriceInput новая цена; хотя бы одно поле обязательно
type PriceInput struct {
	PriceBs  *float64 `json:"price_bs,omitempty" validate:"omitempty,gte=0"`
	PriceUSD *float64 `json:"price_usd,omitempty" validate:"omitempty,gte=0"`
}

// StockInput изменение остатка
type StockInput struct {
	Reason   string  `json:"reason,omitempty" validate:"max=200"`
	QtyDelta float64 `json:"qty_delta" validate:"ne=0"`
}

type service struct {
	events    EventLog
	projector Projector
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewService creates a domain service on top of the outbox and the projection engine.
func NewService(events EventLog, projector Projector, logger *slog.Logger) Service {
	return &service{
		events:    events,
		projector: projector,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Record appends an event and applies it optimistically. A projection
// failure is logged: the event is already durable and will be retried on
// rebuild or replaced by the server version.
func (s *service) Record(ctx context.Context, in models.NewEvent) (*models.LocalEvent, error) {
	event, err := s.events.Append(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to record %s: %w", in.Type, err)
	}

	if _, err := s.projector.ApplyEvent(ctx, event); err != nil {
		s.logger.Error("Failed to apply local event",
			"event_id", event.EventID,
			"type", event.Type,
			"error", err)
	}
	return event, nil
}

func (s *service) record(ctx context.Context, eventType, entityType, entityID string, payload any) (*models.LocalEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return s.Record(ctx, models.NewEvent{
		Type:       eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    raw,
	})
}

// CreateProduct records ProductCreated. A missing id is generated.
func (s *service) CreateProduct(ctx context.Context, in ProductInput) (*models.LocalEvent, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid product: %w", err)
	}
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	return s.record(ctx, models.EventProductCreated, models.EntityProduct, in.ID, in)
}

func (s *service) UpdateProduct(ctx context.Context, id string, patch map[string]any) (*models.LocalEvent, error) {
	if err := checkPatch(patch, "product_id"); err != nil {
		return nil, err
	}
	return s.record(ctx, models.EventProductUpdated, models.EntityProduct, id, map[string]any{
		"product_id": id,
		"patch":      patch,
	})
}

func (s *service) ChangePrice(ctx context.Context, id string, in PriceInput) (*models.LocalEvent, error) {
	if in.PriceBs == nil && in.PriceUSD == nil {
		return nil, ErrEmptyChange
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	return s.record(ctx, models.EventPriceChanged, models.EntityProduct, id, struct {
		ProductID string `json:"product_id"`
		PriceInput
	}{ProductID: id, PriceInput: in})
}

func (s *service) DeactivateProduct(ctx context.Context, id string) (*models.LocalEvent, error) {
	return s.record(ctx, models.EventProductDeactivated, models.EntityProduct, id, map[string]string{
		"product_id": id,
	})
}

// AdjustStock records a stock delta. Deltas of concurrent devices add up,
// so stock changes never conflict with each other.
func (s *service) AdjustStock(ctx context.Context, productID string, in StockInput) (*models.LocalEvent, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid stock change: %w", err)
	}
	return s.record(ctx, models.EventStockDeltaApplied, models.EntityProduct, productID, struct {
		ProductID string `json:"product_id"`
		StockInput
	}{ProductID: productID, StockInput: in})
}

func (s *service) CreateCustomer(ctx context.Context, in CustomerInput) (*models.LocalEvent, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid customer: %w", err)
	}
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	return s.record(ctx, models.EventCustomerCreated, models.EntityCustomer, in.ID, in)
}

func (s *service) UpdateCustomer(ctx context.Context, id string, patch map[string]any) (*models.LocalEvent, error) {
	if err := checkPatch(patch, "customer_id"); err != nil {
		return nil, err
	}
	return s.record(ctx, models.EventCustomerUpdated, models.EntityCustomer, id, map[string]any{
		"customer_id": id,
		"patch":       patch,
	})
}

func (s *service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.projector.Product(ctx, id)
}

func (s *service) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return s.projector.ListProducts(ctx)
}

func (s *service) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	return s.projector.Customer(ctx, id)
}

func (s *service) GetStock(ctx context.Context, productID string) (*models.StockLevel, error) {
	return s.projector.Stock(ctx, productID)
}

// checkPatch rejects empty patches and patches that rename the entity or move it to another store.
func checkPatch(patch map[string]any, idField string) error {
	if len(patch) == 0 {
		return ErrEmptyChange
	}
	for _, key := range []string{idField, "store_id"} {
		if _, ok := patch[key]; ok {
			return fmt.Errorf("field %q cannot be changed", key)
		}
	}
	return nil
}
