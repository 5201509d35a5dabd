package dto

import (
	"time"

	"bagshop/internal/models"

	"github.com/shopspring/decimal"
)

type CategoryRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Slug        string  `json:"slug"`
	ParentID    *string `json:"parent_id"`
}

type CategoryResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Slug        string  `json:"slug"`
	ParentID    *string `json:"parent_id,omitempty"`
}

func Category(c *models.Category) CategoryResponse {
	r := CategoryResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		Slug:        c.Slug,
	}
	if c.ParentID != nil {
		s := c.ParentID.String()
		r.ParentID = &s
	}
	return r
}

type CreateProductRequest struct {
	CategoryID    *string          `json:"category_id"`
	SKU           string           `json:"sku"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price" swaggertype:"string"`
	StockQuantity int              `json:"stock_quantity"`
	ImageURL      string           `json:"image_url"`
	Brand         string           `json:"brand"`
	Dimensions    string           `json:"dimensions"`
	WeightKg      *decimal.Decimal `json:"weight_kg" swaggertype:"string"`
	Material      string           `json:"material"`
	Color         string           `json:"color"`
	IsFeatured    bool             `json:"is_featured"`
	IsActive      *bool            `json:"is_active"` // по умолчанию true
}

// UpdateProductRequest: отсутствующее поле не меняется; "category_id": ""
// отвязывает товар от категории, "clear_weight": true стирает вес.
type UpdateProductRequest struct {
	CategoryID  *string          `json:"category_id"`
	SKU         *string          `json:"sku"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" swaggertype:"string"`
	ImageURL    *string          `json:"image_url"`
	Brand       *string          `json:"brand"`
	Dimensions  *string          `json:"dimensions"`
	WeightKg    *decimal.Decimal `json:"weight_kg" swaggertype:"string"`
	ClearWeight bool             `json:"clear_weight"`
	Material    *string          `json:"material"`
	Color       *string          `json:"color"`
	IsFeatured  *bool            `json:"is_featured"`
	IsActive    *bool            `json:"is_active"`
}

// StockRequest: {"quantity": n, "expected_quantity": m} задаёт остаток, если
// он всё ещё равен m; {"delta": d} сдвигает его.
type StockRequest struct {
	Quantity         *int `json:"quantity"`
	ExpectedQuantity *int `json:"expected_quantity"`
	Delta            *int `json:"delta"`
}

type ProductResponse struct {
	ID            string           `json:"id"`
	SKU           string           `json:"sku"`
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	Price         decimal.Decimal  `json:"price" swaggertype:"string"`
	StockQuantity int              `json:"stock_quantity"`
	ImageURL      string           `json:"image_url,omitempty"`
	Brand         string           `json:"brand,omitempty"`
	Dimensions    string           `json:"dimensions,omitempty"`
	WeightKg      *decimal.Decimal `json:"weight_kg,omitempty" swaggertype:"string"`
	Material      string           `json:"material,omitempty"`
	Color         string           `json:"color,omitempty"`
	IsFeatured    bool             `json:"is_featured"`
	IsActive      bool             `json:"is_active"`
	CategoryID    *string          `json:"category_id,omitempty"`
	CategoryName  string           `json:"category_name,omitempty"`
	CreatedAt     string           `json:"created_at"`
}

func Product(p *models.Product) ProductResponse {
	r := ProductResponse{
		ID:            p.ID.String(),
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		ImageURL:      p.ImageURL,
		Brand:         p.Brand,
		Dimensions:    p.Dimensions,
		WeightKg:      p.WeightKg,
		Material:      p.Material,
		Color:         p.Color,
		IsFeatured:    p.IsFeatured,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.CategoryID != nil {
		s := p.CategoryID.String()
		r.CategoryID = &s
	}
	if p.Category != nil {
		r.CategoryName = p.Category.Name
	}
	return r
}

type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Total int64             `json:"total"`
}
