package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bagshop/internal/models"
	"bagshop/internal/repository"

	"github.com/google/uuid"
	"github.com/nanorand/nanorand"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultCurrencyCode  = "USD"
	DefaultPaymentMethod = "Offline Payment (Simulated)"
	defaultPageSize      = 20
)

type OrderOptions struct {
	CurrencyCode  string
	PaymentMethod string
}

type orderService struct {
	repo   *repository.Repository
	events EventBus
	opts   OrderOptions
	now    func() time.Time
	newRef func() (string, error)
	log    *zap.Logger
}

func NewOrderService(repo *repository.Repository, events EventBus, opts OrderOptions, log *zap.Logger) OrderService {
	if opts.CurrencyCode == "" {
		opts.CurrencyCode = DefaultCurrencyCode
	}
	if opts.PaymentMethod == "" {
		opts.PaymentMethod = DefaultPaymentMethod
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &orderService{
		repo:   repo,
		events: events,
		opts:   opts,
		now:    time.Now,
		newRef: newReferenceCode,
		log:    log,
	}
}

func newReferenceCode() (string, error) {
	rng, err := nanorand.Gen(10)
	if err != nil {
		return "", err
	}
	return "BS-" + strings.ToUpper(rng), nil
}

// orderLines считает итог по ценам вызывающего. Цены в каталоге здесь
// не перечитываются: это и есть снимок цены. Цена сохраняется как есть,
// поэтому больше двух знаков после запятой не принимаем (numeric(12,2)).
func orderLines(lines []OrderLineInput) ([]models.OrderItem, decimal.Decimal, error) {
	if len(lines) == 0 {
		return nil, decimal.Zero, ErrEmptyOrder
	}

	items := make([]models.OrderItem, 0, len(lines))
	total := decimal.Zero
	for i, l := range lines {
		if l.Quantity <= 0 || l.UnitPrice.IsNegative() {
			return nil, decimal.Zero, ErrEmptyOrder
		}
		if !l.UnitPrice.Equal(l.UnitPrice.Round(2)) {
			return nil, decimal.Zero, &ValidationError{Fields: map[string]string{
				fmt.Sprintf("lines[%d].unit_price", i): "at most 2 decimal places",
			}}
		}
		unit := l.UnitPrice
		lineTotal := unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(lineTotal)

		pid := l.ProductID
		items = append(items, models.OrderItem{
			ProductID:  &pid,
			Quantity:   l.Quantity,
			UnitPrice:  unit,
			TotalPrice: lineTotal,
		})
	}

	if !total.IsPositive() {
		return nil, decimal.Zero, ErrEmptyOrder
	}
	return items, total, nil
}

func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (uuid.UUID, error) {
	items, total, err := orderLines(in.Lines)
	if err != nil {
		return uuid.Nil, err
	}

	ref, err := s.newRef()
	if err != nil {
		s.log.Error("Не удалось сгенерировать номер заказа", zap.Error(err))
		return uuid.Nil, ErrOrderCreationFailed
	}

	currency := strings.ToUpper(strings.TrimSpace(in.CurrencyCode))
	if currency == "" {
		currency = s.opts.CurrencyCode
	}
	payment := strings.TrimSpace(in.PaymentMethod)
	if payment == "" {
		payment = s.opts.PaymentMethod
	}

	shipping := normalizeAddress(in.Shipping)
	var billingIn *models.Address
	if in.Billing != nil {
		b := normalizeAddress(*in.Billing)
		billingIn = &b
	}

	now := s.now().UTC()
	order := &models.Order{
		ReferenceCode: ref,
		CustomerID:    in.CustomerID,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: payment,
		TotalAmount:   total,
		CurrencyCode:  currency,
		Shipping:      shipping,
		Billing:       resolveBilling(shipping, billingIn, in.BillingSameAsShipping),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
			items[i].CreatedAt = now
		}
		if err := tx.OrderItems.BulkCreate(ctx, items); err != nil {
			return err
		}
		// total_amount обязан совпасть с суммой позиций, как их сохранила БД
		stored, err := tx.OrderItems.SumByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if !stored.Equal(total) {
			return fmt.Errorf("order items total %s != order total %s", stored.StringFixed(2), total.StringFixed(2))
		}

		// проверка остатка и списание — один UPDATE на строку
		for _, it := range items {
			ok, err := tx.Products.DecrementStock(ctx, *it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &InsufficientStockError{ProductID: *it.ProductID, Requested: it.Quantity}
			}
		}
		return nil
	})
	if err != nil {
		var se *InsufficientStockError
		if errors.As(err, &se) {
			s.log.Warn("Недостаточно товара при оформлении заказа, транзакция откачена",
				zap.String("customer_id", in.CustomerID.String()),
				zap.String("product_id", se.ProductID.String()),
				zap.Int("requested", se.Requested),
			)
			return uuid.Nil, se
		}
		s.log.Error("Не удалось создать заказ, транзакция откачена",
			zap.String("customer_id", in.CustomerID.String()),
			zap.String("reference_code", ref),
			zap.Error(err),
		)
		return uuid.Nil, ErrOrderCreationFailed
	}

	s.log.Info("Заказ создан",
		zap.String("order_id", order.ID.String()),
		zap.String("reference_code", ref),
		zap.String("total", total.StringFixed(2)),
	)

	s.publishCreated(ctx, order, items, in.Lines)
	return order.ID, nil
}

func (s *orderService) publishCreated(ctx context.Context, order *models.Order, items []models.OrderItem, lines []OrderLineInput) {
	if s.events == nil {
		return
	}

	ev := OrderCreatedEvent{
		OrderID:       order.ID,
		ReferenceCode: order.ReferenceCode,
		CustomerID:    order.CustomerID,
		Items:         make([]OrderItemEvent, 0, len(items)),
		Total:         order.TotalAmount,
		Currency:      order.CurrencyCode,
		CreatedAt:     order.CreatedAt,
	}
	for i, it := range items {
		ev.Items = append(ev.Items, OrderItemEvent{
			ProductID: *it.ProductID,
			Name:      lines[i].Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.TotalPrice,
		})
	}

	if c, err := s.repo.Customers.GetByID(ctx, order.CustomerID); err != nil {
		s.log.Warn("Не удалось загрузить покупателя для события", zap.Error(err))
	} else if c != nil {
		ev.CustomerEmail = c.Email
		ev.CustomerName = c.FullName()
	}

	if err := s.events.PublishOrderCreated(ctx, ev); err != nil {
		s.log.Error("Не удалось опубликовать событие order.created",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*models.Order, error) {
	var (
		ord *models.Order
		err error
	)
	if owner != nil {
		ord, err = s.repo.Orders.GetByIDForCustomer(ctx, id, *owner)
	} else {
		ord, err = s.repo.Orders.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}
	return ord, nil
}

func (s *orderService) ListOrdersForCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]OrderSummary, int64, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	list, total, err := s.repo.Orders.List(ctx, repository.OrderListFilter{
		CustomerID: &customerID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, 0, err
	}

	out := make([]OrderSummary, 0, len(list))
	for _, o := range list {
		count := 0
		for _, it := range o.Items {
			count += it.Quantity
		}
		out = append(out, OrderSummary{
			ID:            o.ID,
			ReferenceCode: o.ReferenceCode,
			OrderDate:     o.CreatedAt,
			Status:        o.Status,
			PaymentStatus: o.PaymentStatus,
			TotalAmount:   o.TotalAmount,
			CurrencyCode:  o.CurrencyCode,
			ItemCount:     count,
		})
	}
	return out, total, nil
}

func (s *orderService) ListOrdersAdmin(ctx context.Context, f AdminListFilter) ([]models.Order, int64, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Page < 1 {
		f.Page = 1
	}

	ordersPtr, total, err := s.repo.Orders.List(ctx, repository.OrderListFilter{
		Status: f.Status,
		Limit:  f.Limit,
		Offset: (f.Page - 1) * f.Limit,
	})
	if err != nil {
		return nil, 0, err
	}

	orders := make([]models.Order, len(ordersPtr))
	for i, o := range ordersPtr {
		orders[i] = *o
	}
	return orders, total, nil
}

// UpdateOrderStatus: любой допустимый статус может следовать за любым.
func (s *orderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	prev, err := s.repo.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, ErrOrderNotFound
	}

	ok, err := s.repo.Orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOrderNotFound
	}

	ord, err := s.repo.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}

	if s.events != nil && prev.Status != status {
		if err := s.events.PublishOrderStatusChanged(ctx, OrderStatusChangedEvent{
			OrderID:    ord.ID,
			CustomerID: ord.CustomerID,
			OldStatus:  string(prev.Status),
			NewStatus:  string(status),
			ChangedAt:  s.now().UTC(),
		}); err != nil {
			s.log.Error("Не удалось опубликовать событие order.status_changed",
				zap.String("order_id", ord.ID.String()),
				zap.Error(err),
			)
		}
	}
	return ord, nil
}
