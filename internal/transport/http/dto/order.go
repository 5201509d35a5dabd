package dto

import (
	"time"

	"bagshop/internal/cart"
	"bagshop/internal/models"
	"bagshop/internal/service"

	"github.com/shopspring/decimal"
)

type CartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Items      []cart.Line     `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal" swaggertype:"string"`
	TotalItems int             `json:"total_items"`
	LineCount  int             `json:"line_count"`
}

// CartMutationResponse — ответ на добавление/изменение строки: сообщение
// для покупателя плюс актуальная корзина.
type CartMutationResponse struct {
	OK      bool         `json:"ok"`
	Message string       `json:"message,omitempty"`
	Cart    CartResponse `json:"cart"`
}

// Cart: счётчики приходят из корзины, здесь не пересчитываются.
func Cart(lines []cart.Line, totalItems, lineCount int) CartResponse {
	return CartResponse{Items: lines, Subtotal: cart.Subtotal(lines), TotalItems: totalItems, LineCount: lineCount}
}

type AddressDTO struct {
	FullName            string `json:"full_name"`
	AddressLine1        string `json:"address_line1"`
	AddressLine2        string `json:"address_line2,omitempty"`
	City                string `json:"city"`
	StateProvinceRegion string `json:"state_province_region"`
	PostalCode          string `json:"postal_code"`
	CountryCode         string `json:"country_code"`
	PhoneNumber         string `json:"phone_number,omitempty"`
}

func (a AddressDTO) Model() models.Address {
	return models.Address(a)
}

func Address(a models.Address) AddressDTO {
	return AddressDTO(a)
}

type CheckoutRequest struct {
	Shipping              AddressDTO  `json:"shipping"`
	Billing               *AddressDTO `json:"billing"`
	BillingSameAsShipping bool        `json:"billing_same_as_shipping"`
	PaymentMethod         string      `json:"payment_method"`
}

func (r CheckoutRequest) Input() service.CheckoutInput {
	in := service.CheckoutInput{
		Shipping:              r.Shipping.Model(),
		BillingSameAsShipping: r.BillingSameAsShipping,
		PaymentMethod:         r.PaymentMethod,
	}
	if r.Billing != nil {
		b := r.Billing.Model()
		in.Billing = &b
	}
	return in
}

type CheckoutResponse struct {
	OrderID string `json:"order_id"`
}

type OrderItemResponse struct {
	ProductID  *string         `json:"product_id"`
	Name       string          `json:"name,omitempty"`
	SKU        string          `json:"sku,omitempty"`
	ImageURL   string          `json:"image_url,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" swaggertype:"string"`
	TotalPrice decimal.Decimal `json:"total_price" swaggertype:"string"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	ReferenceCode string              `json:"reference_code"`
	CustomerID    string              `json:"customer_id"`
	CustomerName  string              `json:"customer_name,omitempty"`
	CustomerEmail string              `json:"customer_email,omitempty"`
	OrderDate     string              `json:"order_date"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	PaymentMethod string              `json:"payment_method"`
	TotalAmount   decimal.Decimal     `json:"total_amount" swaggertype:"string"`
	CurrencyCode  string              `json:"currency_code"`
	Shipping      AddressDTO          `json:"shipping"`
	Billing       AddressDTO          `json:"billing"`
	Items         []OrderItemResponse `json:"items"`
}

// Order: товар мог быть удалён после заказа, тогда позиция остаётся без
// имени и product_id = null.
func Order(o *models.Order) OrderResponse {
	r := OrderResponse{
		ID:            o.ID.String(),
		ReferenceCode: o.ReferenceCode,
		CustomerID:    o.CustomerID.String(),
		OrderDate:     o.CreatedAt.UTC().Format(time.RFC3339),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: o.PaymentMethod,
		TotalAmount:   o.TotalAmount,
		CurrencyCode:  o.CurrencyCode,
		Shipping:      Address(o.Shipping),
		Billing:       Address(o.Billing),
		Items:         make([]OrderItemResponse, 0, len(o.Items)),
	}
	if o.Customer != nil {
		r.CustomerName = o.Customer.FullName()
		r.CustomerEmail = o.Customer.Email
	}
	for _, it := range o.Items {
		ir := OrderItemResponse{
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		}
		if it.ProductID != nil {
			s := it.ProductID.String()
			ir.ProductID = &s
		}
		if it.Product != nil {
			ir.Name = it.Product.Name
			ir.SKU = it.Product.SKU
			ir.ImageURL = it.Product.ImageURL
		}
		r.Items = append(r.Items, ir)
	}
	return r
}

type OrderListResponse struct {
	Items []service.OrderSummary `json:"items"`
	Total int64                  `json:"total"`
}

type AdminOrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
