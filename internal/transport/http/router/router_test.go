package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "bagshop/docs"
	"bagshop/internal/cart"
	"bagshop/internal/models"
	"bagshop/internal/service"
	"bagshop/internal/transport/http/handlers"
	"bagshop/internal/transport/http/middleware"
	"bagshop/internal/transport/http/router"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	customerID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	adminID    = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

type fakeAuth struct{}

func (fakeAuth) Authenticate(ctx context.Context, token string) (context.Context, error) {
	switch token {
	case "customer-token":
		return service.WithRole(service.WithUserID(ctx, customerID), models.RoleCustomer), nil
	case "admin-token":
		return service.WithRole(service.WithUserID(ctx, adminID), models.RoleAdmin), nil
	}
	return ctx, service.ErrUnauthorized
}

type products map[uuid.UUID]*cart.ProductView

func (p products) GetProductByID(_ context.Context, id uuid.UUID) (*cart.ProductView, error) {
	v, ok := p[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

type fakeCatalog struct {
	handlers.CatalogAPI
	product   *models.Product
	gotFilter service.ProductFilter
}

func (f *fakeCatalog) ListProducts(_ context.Context, filter service.ProductFilter) ([]models.Product, int64, error) {
	f.gotFilter = filter
	if f.product == nil {
		return nil, 0, nil
	}
	return []models.Product{*f.product}, 1, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if f.product == nil || f.product.ID != id {
		return nil, service.ErrProductNotFound
	}
	return f.product, nil
}

func (f *fakeCatalog) SetStock(_ context.Context, id uuid.UUID, expected, qty int) (*models.Product, error) {
	if f.product == nil || f.product.ID != id {
		return nil, service.ErrProductNotFound
	}
	if f.product.StockQuantity != expected {
		return nil, service.ErrStockChanged
	}
	f.product.StockQuantity = qty
	return f.product, nil
}

type fakeCheckout struct {
	err         error
	gotSession  string
	gotCustomer uuid.UUID
	orderID     uuid.UUID
}

func (f *fakeCheckout) Checkout(_ context.Context, sessionID string, cid uuid.UUID, _ service.CheckoutInput) (uuid.UUID, error) {
	f.gotSession, f.gotCustomer = sessionID, cid
	if f.err != nil {
		return uuid.Nil, f.err
	}
	return f.orderID, nil
}

type fakeOrders struct {
	service.OrderService
	order    *models.Order
	gotOwner *uuid.UUID
	gotPage  int
}

func (f *fakeOrders) GetOrder(_ context.Context, id uuid.UUID, owner *uuid.UUID) (*models.Order, error) {
	f.gotOwner = owner
	if f.order == nil || f.order.ID != id || (owner != nil && *owner != f.order.CustomerID) {
		return nil, service.ErrOrderNotFound
	}
	return f.order, nil
}

func (f *fakeOrders) ListOrdersAdmin(_ context.Context, filter service.AdminListFilter) ([]models.Order, int64, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, service.ErrInvalidStatus
	}
	f.gotPage = filter.Page
	return []models.Order{*f.order}, 1, nil
}

func (f *fakeOrders) UpdateOrderStatus(_ context.Context, id uuid.UUID, st models.OrderStatus) (*models.Order, error) {
	if !st.Valid() {
		return nil, service.ErrInvalidStatus
	}
	o := *f.order
	o.Status = st
	return &o, nil
}

type env struct {
	engine   *gin.Engine
	tote     uuid.UUID
	shelf    products
	checkout *fakeCheckout
	orders   *fakeOrders
	catalog  *fakeCatalog
}

func setup(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tote := uuid.New()
	catalog := products{
		tote: {ID: tote, Name: "Canvas Tote", SKU: "TOTE-1", Price: decimal.RequireFromString("15.00"), IsActive: true, StockQuantity: 3},
	}
	carts := cart.NewService(cart.NewMemoryStore(), catalog, zap.NewNop())

	order := &models.Order{
		ID:            uuid.New(),
		ReferenceCode: "BS-TEST",
		CustomerID:    customerID,
		Customer:      &models.Customer{ID: customerID, FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"},
		Status:        models.OrderStatusPending,
		TotalAmount:   decimal.RequireFromString("30.00"),
		CurrencyCode:  "USD",
	}

	e := &env{
		tote:     tote,
		shelf:    catalog,
		checkout: &fakeCheckout{orderID: order.ID},
		orders:   &fakeOrders{order: order},
		catalog:  &fakeCatalog{},
	}
	e.engine = router.Router(router.Deps{
		Auth:     fakeAuth{},
		Catalog:  e.catalog,
		Carts:    carts,
		Checkout: e.checkout,
		Orders:   e.orders,
	}, zap.NewNop())
	return e
}

func (e *env) do(t *testing.T, method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	e := setup(t)
	w := e.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSwaggerDoc(t *testing.T) {
	e := setup(t)
	w := e.do(t, http.MethodGet, "/swagger/doc.json", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	doc := decode(t, w)
	assert.Equal(t, "/api/v1", doc["basePath"])
	paths := doc["paths"].(map[string]any)
	for _, p := range []string{"/cart/items", "/checkout", "/admin/products/{id}/stock", "/admin/orders"} {
		assert.Contains(t, paths, p)
	}
}

func TestCart_SessionAndStockLimit(t *testing.T) {
	e := setup(t)

	w := e.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": e.tote.String(), "quantity": 2}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sid := w.Header().Get(middleware.SessionHeader)
	require.NotEmpty(t, sid)

	hdr := map[string]string{middleware.SessionHeader: sid}

	w = e.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": e.tote.String(), "quantity": 2}, hdr)
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "insufficient_stock", body["code"])
	assert.Equal(t, "Cannot add more than 3 units of Canvas Tote to cart (you already have 2 units). Maximum available stock reached.", body["message"])

	w = e.do(t, http.MethodGet, "/api/v1/cart", nil, hdr)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.EqualValues(t, 2, body["total_items"])
	assert.EqualValues(t, 1, body["line_count"])
	assert.Equal(t, "30", body["subtotal"])

	// другая сессия видит пустую корзину
	w = e.do(t, http.MethodGet, "/api/v1/cart", nil, nil)
	assert.EqualValues(t, 0, decode(t, w)["total_items"])
}

func TestCart_UpdateRemoveClear(t *testing.T) {
	e := setup(t)
	hdr := map[string]string{middleware.SessionHeader: "test-session-0001"}

	w := e.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": e.tote.String(), "quantity": 1}, hdr)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test-session-0001", w.Header().Get(middleware.SessionHeader))

	w = e.do(t, http.MethodPut, "/api/v1/cart/items/"+e.tote.String(), map[string]any{"quantity": 5}, hdr)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Only 3 units of Canvas Tote are available in stock.", decode(t, w)["message"])

	w = e.do(t, http.MethodPut, "/api/v1/cart/items/"+uuid.NewString(), map[string]any{"quantity": 1}, hdr)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPut, "/api/v1/cart/items/"+e.tote.String(), map[string]any{"quantity": 3}, hdr)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["ok"])

	w = e.do(t, http.MethodDelete, "/api/v1/cart/items/"+e.tote.String(), nil, hdr)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["total_items"])

	w = e.do(t, http.MethodDelete, "/api/v1/cart", nil, hdr)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCart_UpdateDropsUnavailableProduct(t *testing.T) {
	e := setup(t)
	hdr := map[string]string{middleware.SessionHeader: "test-session-0002"}

	w := e.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": e.tote.String(), "quantity": 1}, hdr)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["cart"].(map[string]any)["line_count"])

	e.shelf[e.tote].IsActive = false

	w = e.do(t, http.MethodPut, "/api/v1/cart/items/"+e.tote.String(), map[string]any{"quantity": 2}, hdr)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "This product (Canvas Tote) is currently unavailable and has been removed from your cart.", body["message"])
	cartBody := body["cart"].(map[string]any)
	assert.EqualValues(t, 0, cartBody["total_items"])
	assert.EqualValues(t, 0, cartBody["line_count"])
}

func TestCart_InvalidInput(t *testing.T) {
	e := setup(t)

	w := e.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "nope", "quantity": 1}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": e.tote.String(), "quantity": 0}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Quantity must be a positive number.", decode(t, w)["message"])

	w = e.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": uuid.NewString(), "quantity": 1}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckout(t *testing.T) {
	e := setup(t)
	hdr := map[string]string{
		"Authorization":          "Bearer customer-token",
		middleware.SessionHeader: "checkout-session-01",
	}

	w := e.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{}, map[string]string{middleware.SessionHeader: "checkout-session-01"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{"billing_same_as_shipping": true}, hdr)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, e.orders.order.ID.String(), decode(t, w)["order_id"])
	assert.Equal(t, "checkout-session-01", e.checkout.gotSession)
	assert.Equal(t, customerID, e.checkout.gotCustomer)
}

func TestCheckout_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"stock", &service.InsufficientStockError{ProductID: uuid.New(), Requested: 2}, http.StatusConflict, "insufficient_stock"},
		{"empty", service.ErrEmptyOrder, http.StatusBadRequest, "validation_error"},
		{"failed", service.ErrOrderCreationFailed, http.StatusInternalServerError, "internal_error"},
		{"validation", &service.ValidationError{Fields: map[string]string{"shipping.city": "required"}}, http.StatusBadRequest, "validation_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := setup(t)
			e.checkout.err = tc.err
			w := e.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{}, map[string]string{"Authorization": "Bearer customer-token"})
			require.Equal(t, tc.code, w.Code)
			body := decode(t, w)
			assert.Equal(t, tc.body, body["code"])
			assert.NotContains(t, w.Body.String(), "insufficient stock for product")
		})
	}
}

func TestCheckout_InsufficientStockNamesProduct(t *testing.T) {
	e := setup(t)
	pid := uuid.New()
	e.checkout.err = &service.InsufficientStockError{ProductID: pid, Requested: 2}

	w := e.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{}, map[string]string{"Authorization": "Bearer customer-token"})
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "insufficient_stock", body["code"])
	assert.Equal(t, pid.String(), body["details"])
}

func TestValidationFieldsAreReported(t *testing.T) {
	e := setup(t)
	e.checkout.err = &service.ValidationError{Fields: map[string]string{"shipping.city": "required", "billing": "required"}}
	w := e.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{}, map[string]string{"Authorization": "Bearer customer-token"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	fields := decode(t, w)["fields"].([]any)
	require.Len(t, fields, 2)
	assert.Equal(t, "billing", fields[0].(map[string]any)["field"])
	assert.Equal(t, "shipping.city", fields[1].(map[string]any)["field"])
}

func TestOrders_OwnerOnly(t *testing.T) {
	e := setup(t)

	w := e.do(t, http.MethodGet, "/api/v1/orders/"+e.orders.order.ID.String(), nil, map[string]string{"Authorization": "Bearer customer-token"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BS-TEST", decode(t, w)["reference_code"])
	require.NotNil(t, e.orders.gotOwner)
	assert.Equal(t, customerID, *e.orders.gotOwner)

	// админ как покупатель чужой заказ не видит
	w = e.do(t, http.MethodGet, "/api/v1/orders/"+e.orders.order.ID.String(), nil, map[string]string{"Authorization": "Bearer admin-token"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/orders/not-a-uuid", nil, map[string]string{"Authorization": "Bearer customer-token"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_Access(t *testing.T) {
	e := setup(t)

	w := e.do(t, http.MethodGet, "/api/v1/admin/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/admin/orders", nil, map[string]string{"Authorization": "Bearer customer-token"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/admin/orders", nil, map[string]string{"Authorization": "Bearer bogus"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/admin/orders?page=2", nil, map[string]string{"Authorization": "Bearer admin-token"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 2, body["page"])
	assert.EqualValues(t, 20, body["limit"])
	assert.Equal(t, 2, e.orders.gotPage)
	first := body["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "Ann Lee", first["customer_name"])
	assert.Equal(t, "ann@example.com", first["customer_email"])

	w = e.do(t, http.MethodGet, "/api/v1/admin/orders/"+e.orders.order.ID.String(), nil, map[string]string{"Authorization": "Bearer admin-token"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ann@example.com", decode(t, w)["customer_email"])

	w = e.do(t, http.MethodGet, "/api/v1/admin/orders?status=Lost", nil, map[string]string{"Authorization": "Bearer admin-token"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_UpdateStatus(t *testing.T) {
	e := setup(t)
	path := "/api/v1/admin/orders/" + e.orders.order.ID.String() + "/status"
	admin := map[string]string{"Authorization": "Bearer admin-token"}

	w := e.do(t, http.MethodPut, path, map[string]any{"status": "Shipped"}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Shipped", decode(t, w)["status"])

	w = e.do(t, http.MethodPut, path, map[string]any{"status": "Teleported"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPut, path, map[string]any{}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProducts_InactiveHiddenFromStorefront(t *testing.T) {
	e := setup(t)
	e.catalog.product = &models.Product{ID: uuid.New(), Name: "Old Bag", SKU: "OLD", IsActive: false}

	w := e.do(t, http.MethodGet, "/api/v1/products/"+e.catalog.product.ID.String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/admin/products/"+e.catalog.product.ID.String(), nil, map[string]string{"Authorization": "Bearer admin-token"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["is_active"])
}

func TestAdmin_SetStockNeedsExpectedValue(t *testing.T) {
	e := setup(t)
	e.catalog.product = &models.Product{ID: uuid.New(), Name: "Tote", SKU: "TOTE-9", StockQuantity: 8, IsActive: true}
	admin := map[string]string{"Authorization": "Bearer admin-token"}
	path := "/api/v1/admin/products/" + e.catalog.product.ID.String() + "/stock"

	w := e.do(t, http.MethodPut, path, map[string]any{"quantity": 20}, admin)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decode(t, w)["code"])

	w = e.do(t, http.MethodPut, path, map[string]any{"quantity": 20, "expected_quantity": 10}, admin)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decode(t, w)["code"])
	assert.Equal(t, 8, e.catalog.product.StockQuantity)

	w = e.do(t, http.MethodPut, path, map[string]any{"quantity": 20, "expected_quantity": 8}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 20, decode(t, w)["stock_quantity"])
}

func TestProducts_FeaturedListing(t *testing.T) {
	e := setup(t)
	weight := decimal.RequireFromString("0.80")
	e.catalog.product = &models.Product{
		ID: uuid.New(), Name: "Weekender", SKU: "WK-1", IsActive: true, IsFeatured: true,
		Brand: "Northwind", Material: "Leather", Color: "Tan", WeightKg: &weight,
	}

	w := e.do(t, http.MethodGet, "/api/v1/products?featured=true&limit=4", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, e.catalog.gotFilter.IsFeatured)
	assert.True(t, *e.catalog.gotFilter.IsFeatured)
	assert.True(t, *e.catalog.gotFilter.OnlyActive)
	assert.Equal(t, 4, e.catalog.gotFilter.Limit)

	item := decode(t, w)["items"].([]any)[0].(map[string]any)
	assert.Equal(t, true, item["is_featured"])
	assert.Equal(t, "Northwind", item["brand"])
	assert.Equal(t, "0.8", item["weight_kg"])

	w = e.do(t, http.MethodGet, "/api/v1/products?featured=maybe", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
