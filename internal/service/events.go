package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

type OrderItemEvent struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type OrderCreatedEvent struct {
	OrderID       uuid.UUID        `json:"order_id"`
	ReferenceCode string           `json:"reference_code"`
	CustomerID    uuid.UUID        `json:"customer_id"`
	CustomerEmail string           `json:"customer_email,omitempty"`
	CustomerName  string           `json:"customer_name,omitempty"`
	Items         []OrderItemEvent `json:"items"`
	Total         decimal.Decimal  `json:"total"`
	Currency      string           `json:"currency"`
	CreatedAt     time.Time        `json:"created_at"`
}

type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	OldStatus  string    `json:"old_status"`
	NewStatus  string    `json:"new_status"`
	ChangedAt  time.Time `json:"changed_at"`
}

// EventBus необязателен: nil отключает публикацию.
type EventBus interface {
	PublishOrderCreated(ctx context.Context, e OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, e OrderStatusChangedEvent) error
}
