package orders

import (
	"encoding/json"
	"github.com/shopspring/decimal"
	"time"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderRevised       = "OrderRevised"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderCancelled     = "OrderCancelled"
	EventProductChanged     = "ProductChanged"
	EventProductDeleted     = "ProductDeleted"
)

const EnvelopeVersion = 1

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "inventory-ledger"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id atau product_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----
// OrderVersion / StockVersion are the row versions after the change; consumers use
// them to drop events that arrive after a newer one.

type OrderPlacedPayload struct {
	OrderID        string          `json:"order_id"`
	ProductID      string          `json:"product_id"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Total          decimal.Decimal `json:"total"`
	Status         Status          `json:"status"`
	RemainingStock int             `json:"remaining_stock"`
	OrderVersion   int64           `json:"order_version"`
	StockVersion   int64           `json:"stock_version"`
}

type OrderRevisedPayload struct {
	OrderID        string          `json:"order_id"`
	ProductID      string          `json:"product_id"`
	OldQuantity    int             `json:"old_quantity"`
	NewQuantity    int             `json:"new_quantity"`
	Total          decimal.Decimal `json:"total"`
	Status         Status          `json:"status"`
	RemainingStock int             `json:"remaining_stock"`
	OrderVersion   int64           `json:"order_version"`
	StockVersion   int64           `json:"stock_version"`
}

type OrderStatusChangedPayload struct {
	OrderID      string          `json:"order_id"`
	From         Status          `json:"from"`
	To           Status          `json:"to"`
	Quantity     int             `json:"quantity"`
	Total        decimal.Decimal `json:"total"`
	OrderVersion int64           `json:"order_version"`
}

type OrderCancelledPayload struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	// Restored is false when the product was already gone.
	Restored       bool  `json:"restored"`
	RemainingStock int   `json:"remaining_stock,omitempty"`
	StockVersion   int64 `json:"stock_version,omitempty"`
}

type ProductChangedPayload struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	StockVersion int64           `json:"stock_version"`
}

type ProductDeletedPayload struct {
	ProductID string `json:"product_id"`
}
