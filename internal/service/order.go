package service

import (
	"context"
	"time"

	"bagshop/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderLineInput struct {
	ProductID uuid.UUID
	Name      string // только для уведомлений
	Quantity  int
	UnitPrice decimal.Decimal
}

type CreateOrderInput struct {
	CustomerID            uuid.UUID
	Lines                 []OrderLineInput
	Shipping              models.Address
	Billing               *models.Address
	BillingSameAsShipping bool
	PaymentMethod         string
	CurrencyCode          string
}

type OrderSummary struct {
	ID            uuid.UUID            `json:"id" swaggertype:"string"`
	ReferenceCode string               `json:"reference_code"`
	OrderDate     time.Time            `json:"order_date"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	TotalAmount   decimal.Decimal      `json:"total_amount" swaggertype:"string"`
	CurrencyCode  string               `json:"currency_code"`
	ItemCount     int                  `json:"item_count"`
}

type AdminListFilter struct {
	Status *models.OrderStatus
	Page   int // с 1
	Limit  int
}

type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (uuid.UUID, error)
	GetOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*models.Order, error)
	ListOrdersForCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]OrderSummary, int64, error)
	ListOrdersAdmin(ctx context.Context, f AdminListFilter) ([]models.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
}
