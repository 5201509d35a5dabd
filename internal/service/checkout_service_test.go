package service_test

import (
	"context"
	"errors"
	"testing"

	"bagshop/internal/cart"
	"bagshop/internal/models"
	"bagshop/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCart struct {
	lines    []cart.Line
	err      error
	clearErr error
	cleared  bool
}

func (f *fakeCart) Materialize(ctx context.Context, sessionID string) ([]cart.Line, error) {
	return f.lines, f.err
}

func (f *fakeCart) ClearCart(ctx context.Context, sessionID string) error {
	f.cleared = f.clearErr == nil
	return f.clearErr
}

type fakeOrders struct {
	service.OrderService
	got    *service.CreateOrderInput
	result uuid.UUID
	err    error
}

func (f *fakeOrders) CreateOrder(ctx context.Context, in service.CreateOrderInput) (uuid.UUID, error) {
	f.got = &in
	return f.result, f.err
}

func shippingAddress() models.Address {
	return models.Address{
		FullName:            "Ann Lee",
		AddressLine1:        "1 Main St",
		City:                "Springfield",
		StateProvinceRegion: "IL",
		PostalCode:          "62701",
		CountryCode:         "us",
	}
}

func TestCheckout_Success(t *testing.T) {
	pid := uuid.New()
	carts := &fakeCart{lines: []cart.Line{{ProductID: pid, Name: "Tote", Quantity: 2, UnitPrice: decimal.RequireFromString("15.00")}}}
	orders := &fakeOrders{result: uuid.New()}
	svc := service.NewCheckoutService(carts, orders, zap.NewNop())
	customer := uuid.New()

	id, err := svc.Checkout(context.Background(), "sid", customer, service.CheckoutInput{
		Shipping:              shippingAddress(),
		BillingSameAsShipping: true,
	})
	require.NoError(t, err)
	assert.Equal(t, orders.result, id)
	assert.True(t, carts.cleared)

	require.NotNil(t, orders.got)
	assert.Equal(t, customer, orders.got.CustomerID)
	assert.Equal(t, "US", orders.got.Shipping.CountryCode)
	require.Len(t, orders.got.Lines, 1)
	assert.Equal(t, 2, orders.got.Lines[0].Quantity)
	assert.True(t, orders.got.Lines[0].UnitPrice.Equal(decimal.RequireFromString("15.00")))
}

func TestCheckout_Validation(t *testing.T) {
	carts := &fakeCart{}
	svc := service.NewCheckoutService(carts, &fakeOrders{}, zap.NewNop())

	bad := shippingAddress()
	bad.City = ""
	bad.CountryCode = "USA"

	_, err := svc.Checkout(context.Background(), "sid", uuid.New(), service.CheckoutInput{Shipping: bad})

	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "shipping.city")
	assert.Contains(t, ve.Fields, "shipping.country_code")
	assert.Contains(t, ve.Fields, "billing")
}

func TestCheckout_SeparateBillingValidated(t *testing.T) {
	svc := service.NewCheckoutService(&fakeCart{}, &fakeOrders{}, zap.NewNop())
	billing := models.Address{FullName: "Bob"}

	_, err := svc.Checkout(context.Background(), "sid", uuid.New(), service.CheckoutInput{
		Shipping: shippingAddress(),
		Billing:  &billing,
	})

	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "billing.address_line1")
	assert.NotContains(t, ve.Fields, "billing.full_name")
}

func TestCheckout_EmptyCart(t *testing.T) {
	orders := &fakeOrders{}
	svc := service.NewCheckoutService(&fakeCart{}, orders, zap.NewNop())

	_, err := svc.Checkout(context.Background(), "sid", uuid.New(), service.CheckoutInput{Shipping: shippingAddress(), BillingSameAsShipping: true})
	assert.ErrorIs(t, err, service.ErrEmptyOrder)
	assert.Nil(t, orders.got)
}

func TestCheckout_OrderFailureKeepsCart(t *testing.T) {
	carts := &fakeCart{lines: []cart.Line{{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(5)}}}
	stockErr := &service.InsufficientStockError{ProductID: uuid.New(), Requested: 1}
	svc := service.NewCheckoutService(carts, &fakeOrders{err: stockErr}, zap.NewNop())

	_, err := svc.Checkout(context.Background(), "sid", uuid.New(), service.CheckoutInput{Shipping: shippingAddress(), BillingSameAsShipping: true})
	assert.ErrorIs(t, err, service.ErrInsufficientStockAtCommit)
	assert.False(t, carts.cleared)
}

func TestCheckout_ClearFailureIsNotFatal(t *testing.T) {
	carts := &fakeCart{
		lines:    []cart.Line{{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(5)}},
		clearErr: errors.New("redis down"),
	}
	orders := &fakeOrders{result: uuid.New()}
	svc := service.NewCheckoutService(carts, orders, zap.NewNop())

	id, err := svc.Checkout(context.Background(), "sid", uuid.New(), service.CheckoutInput{Shipping: shippingAddress(), BillingSameAsShipping: true})
	require.NoError(t, err)
	assert.Equal(t, orders.result, id)
}

func TestCheckout_CartReadFailure(t *testing.T) {
	svc := service.NewCheckoutService(&fakeCart{err: errors.New("redis down")}, &fakeOrders{}, zap.NewNop())

	_, err := svc.Checkout(context.Background(), "sid", uuid.New(), service.CheckoutInput{Shipping: shippingAddress(), BillingSameAsShipping: true})
	assert.ErrorIs(t, err, service.ErrOrderCreationFailed)
}
