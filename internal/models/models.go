package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer Role = "ROLE_CUSTOMER"
	RoleAdmin    Role = "ROLE_ADMIN"
)

type Customer struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName    string    `gorm:"type:text;not null"`
	LastName     string    `gorm:"type:text;not null"`
	Email        string    `gorm:"type:text;not null"` // уникальность — функциональный индекс lower(email)
	PasswordHash string    `gorm:"type:text;not null"`
	PhoneNumber  string    `gorm:"type:text"`
	Role         Role      `gorm:"type:text;not null;default:'ROLE_CUSTOMER';index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Customer) TableName() string { return "customers" }

func (c Customer) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type Category struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string     `gorm:"type:text;not null"`
	Description string     `gorm:"type:text"`
	Slug        string     `gorm:"type:text;not null;uniqueIndex:ux_categories_slug"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Category) TableName() string { return "categories" }

type Product struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID    *uuid.UUID       `gorm:"type:uuid;index"`
	Category      *Category        `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	SKU           string           `gorm:"type:text;not null"`
	Name          string           `gorm:"type:text;not null"`
	Description   string           `gorm:"type:text"`
	Price         decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0"`
	StockQuantity int              `gorm:"type:int;not null;default:0"` // CHECK >= 0 в миграции
	ImageURL      string           `gorm:"type:text"`
	Brand         string           `gorm:"type:text"`
	Dimensions    string           `gorm:"type:text"` // свободный текст, "30 x 12 x 40 cm"
	WeightKg      *decimal.Decimal `gorm:"type:numeric(8,2)"`
	Material      string           `gorm:"type:text"`
	Color         string           `gorm:"type:text"`
	IsFeatured    bool             `gorm:"not null;default:false;index"`
	IsActive      bool             `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Product) TableName() string { return "products" }

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
	OrderStatusRefunded   OrderStatus = "Refunded"
	OrderStatusFailed     OrderStatus = "Failed"
)

// OrderStatuses — допустимые статусы; граф переходов не задаётся.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusRefunded,
	OrderStatusFailed,
}

func (s OrderStatus) Valid() bool {
	for _, st := range OrderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

type PaymentStatus string

const PaymentStatusPending PaymentStatus = "Pending"

// Address копируется в заказ целиком, чтобы заказ не зависел от последующих правок адресной книги.
type Address struct {
	FullName            string `gorm:"type:text;not null"`
	AddressLine1        string `gorm:"type:text;not null"`
	AddressLine2        string `gorm:"type:text"`
	City                string `gorm:"type:text;not null"`
	StateProvinceRegion string `gorm:"type:text;not null"`
	PostalCode          string `gorm:"type:text;not null"`
	CountryCode         string `gorm:"type:char(2);not null"`
	PhoneNumber         string `gorm:"type:text"`
}

type Order struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ReferenceCode string          `gorm:"type:text;not null;uniqueIndex:ux_orders_reference_code"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Customer      *Customer       `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT"`
	Status        OrderStatus     `gorm:"type:text;not null;default:'Pending';index"`
	PaymentStatus PaymentStatus   `gorm:"type:text;not null;default:'Pending'"`
	PaymentMethod string          `gorm:"type:text;not null"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CurrencyCode  string          `gorm:"type:char(3);not null;default:'USD'"`

	Shipping Address `gorm:"embedded;embeddedPrefix:shipping_"`
	Billing  Address `gorm:"embedded;embeddedPrefix:billing_"`

	CreatedAt time.Time `gorm:"column:order_date;not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string { return "orders" }

// ItemsTotal — сумма total_price позиций; должна совпадать с TotalAmount.
func (o *Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.TotalPrice)
	}
	return sum
}

type OrderItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  *uuid.UUID      `gorm:"type:uuid;index"` // NULL, если товар позже удалён
	Product    *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL"`
	Quantity   int             `gorm:"type:int;not null"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (OrderItem) TableName() string { return "order_items" }
