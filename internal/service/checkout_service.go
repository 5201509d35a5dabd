package service

import (
	"context"

	"bagshop/internal/cart"
	"bagshop/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartSession interface {
	Materialize(ctx context.Context, sessionID string) ([]cart.Line, error)
	ClearCart(ctx context.Context, sessionID string) error
}

type CheckoutInput struct {
	Shipping              models.Address
	Billing               *models.Address
	BillingSameAsShipping bool
	PaymentMethod         string
}

type CheckoutService struct {
	carts  CartSession
	orders OrderService
	log    *zap.Logger
}

func NewCheckoutService(carts CartSession, orders OrderService, log *zap.Logger) *CheckoutService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutService{carts: carts, orders: orders, log: log}
}

func validateCheckout(in CheckoutInput) (models.Address, *models.Address, error) {
	ve := &ValidationError{}

	shipping := normalizeAddress(in.Shipping)
	validateAddress(ve, "shipping", shipping)

	var billing *models.Address
	if !in.BillingSameAsShipping {
		if in.Billing == nil {
			ve.add("billing", "required")
		} else {
			b := normalizeAddress(*in.Billing)
			validateAddress(ve, "billing", b)
			billing = &b
		}
	}

	if err := ve.orNil(); err != nil {
		return models.Address{}, nil, err
	}
	return shipping, billing, nil
}

// Checkout заново разворачивает корзину по живым ценам, создаёт заказ и
// очищает корзину. Ошибка очистки только логируется: заказ уже создан.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, customerID uuid.UUID, in CheckoutInput) (uuid.UUID, error) {
	shipping, billing, err := validateCheckout(in)
	if err != nil {
		return uuid.Nil, err
	}

	lines, err := s.carts.Materialize(ctx, sessionID)
	if err != nil {
		s.log.Error("Не удалось прочитать корзину при оформлении", zap.String("session", sessionID), zap.Error(err))
		return uuid.Nil, ErrOrderCreationFailed
	}
	if len(lines) == 0 {
		return uuid.Nil, ErrEmptyOrder
	}

	orderLines := make([]OrderLineInput, 0, len(lines))
	for _, l := range lines {
		orderLines = append(orderLines, OrderLineInput{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	orderID, err := s.orders.CreateOrder(ctx, CreateOrderInput{
		CustomerID:            customerID,
		Lines:                 orderLines,
		Shipping:              shipping,
		Billing:               billing,
		BillingSameAsShipping: in.BillingSameAsShipping,
		PaymentMethod:         in.PaymentMethod,
	})
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.carts.ClearCart(ctx, sessionID); err != nil {
		s.log.Warn("Заказ создан, но корзину очистить не удалось",
			zap.String("order_id", orderID.String()),
			zap.String("session", sessionID),
			zap.Error(err),
		)
	}
	return orderID, nil
}
