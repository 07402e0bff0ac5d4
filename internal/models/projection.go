package models

import "time"

// Entity types addressed by projected events.
const (
	EntityProduct  = "product"
	EntityCustomer = "customer"
)

// Event types understood by the projection engine.
const (
	EventProductCreated     = "ProductCreated"
	EventProductUpdated     = "ProductUpdated"
	EventProductDeactivated = "ProductDeactivated"
	EventPriceChanged       = "PriceChanged"
	EventCustomerCreated    = "CustomerCreated"
	EventCustomerUpdated    = "CustomerUpdated"
	EventStockDeltaApplied  = "StockDeltaApplied"
)

// Product локальная read-модель товара
type Product struct {
	UpdatedAt         time.Time `json:"updated_at"`
	ID                string    `json:"product_id"`
	StoreID           string    `json:"store_id"`
	Name              string    `json:"name"`
	Category          string    `json:"category,omitempty"`
	SKU               string    `json:"sku,omitempty"`
	Barcode           string    `json:"barcode,omitempty"`
	Description       string    `json:"description,omitempty"`
	LastEventID       string    `json:"last_event_id"`
	PriceBs           float64   `json:"price_bs"`
	PriceUSD          float64   `json:"price_usd"`
	CostBs            float64   `json:"cost_bs"`
	CostUSD           float64   `json:"cost_usd"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	IsActive          bool      `json:"is_active"`
}

// Customer локальная read-модель клиента
type Customer struct {
	UpdatedAt   time.Time `json:"updated_at"`
	ID          string    `json:"customer_id"`
	StoreID     string    `json:"store_id"`
	Name        string    `json:"name"`
	DocumentID  string    `json:"document_id,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	Note        string    `json:"note,omitempty"`
	LastEventID string    `json:"last_event_id"`
}

// StockLevel текущий остаток товара на устройстве
type StockLevel struct {
	UpdatedAt   time.Time `json:"updated_at"`
	ProductID   string    `json:"product_id"`
	LastEventID string    `json:"last_event_id"`
	Quantity    float64   `json:"quantity"`
}
