package service

import (
	"context"
	"errors"
	"strings"

	"bagshop/internal/cart"
	"bagshop/internal/models"
	"bagshop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProductInput struct {
	CategoryID    *uuid.UUID
	SKU           string
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	ImageURL      string
	Brand         string
	Dimensions    string
	WeightKg      *decimal.Decimal
	Material      string
	Color         string
	IsFeatured    bool
	IsActive      bool
}

// ProductPatch: nil — поле не меняется.
type ProductPatch struct {
	CategoryID    *uuid.UUID
	ClearCategory bool
	SKU           *string
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	ImageURL      *string
	Brand         *string
	Dimensions    *string
	WeightKg      *decimal.Decimal
	ClearWeight   bool
	Material      *string
	Color         *string
	IsFeatured    *bool
	IsActive      *bool
}

type CategoryInput struct {
	Name        string
	Description string
	Slug        string
	ParentID    *uuid.UUID
}

type ProductFilter = repository.ProductListFilter

type CatalogService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewCatalogService(repo *repository.Repository, log *zap.Logger) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{repo: repo, log: log}
}

// GetProductByID реализует cart.CatalogReader: (nil, nil), если товара нет.
// Остатки и цены не кэшируются, каждый вызов читает строку из БД.
func (s *CatalogService) GetProductByID(ctx context.Context, id uuid.UUID) (*cart.ProductView, error) {
	p, err := s.repo.Products.GetByID(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}

	v := &cart.ProductView{
		ID:            p.ID,
		Name:          p.Name,
		SKU:           p.SKU,
		Price:         p.Price,
		IsActive:      p.IsActive,
		StockQuantity: p.StockQuantity,
		ImageURL:      p.ImageURL,
	}
	if p.Category != nil {
		v.CategoryName = p.Category.Name
	}
	return v, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.repo.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	if f.CategoryID != nil {
		if _, err := s.getCategory(ctx, *f.CategoryID); err != nil {
			return nil, 0, err
		}
	}
	return s.repo.Products.List(ctx, f)
}

func validateProduct(in ProductInput) error {
	ve := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		ve.add("name", "required")
	}
	if strings.TrimSpace(in.SKU) == "" {
		ve.add("sku", "required")
	}
	if in.Price.IsNegative() {
		ve.add("price", "must be >= 0")
	}
	if in.StockQuantity < 0 {
		ve.add("stock_quantity", "must be >= 0")
	}
	if in.WeightKg != nil && in.WeightKg.IsNegative() {
		ve.add("weight_kg", "must be >= 0")
	}
	return ve.orNil()
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if _, err := s.getCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
	}

	sku := strings.TrimSpace(in.SKU)
	existing, err := s.repo.Products.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSKUAlreadyExists
	}

	p := &models.Product{
		CategoryID:    in.CategoryID,
		SKU:           sku,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Price:         in.Price.Round(2),
		StockQuantity: in.StockQuantity,
		ImageURL:      in.ImageURL,
		Brand:         strings.TrimSpace(in.Brand),
		Dimensions:    strings.TrimSpace(in.Dimensions),
		WeightKg:      roundWeight(in.WeightKg),
		Material:      strings.TrimSpace(in.Material),
		Color:         strings.TrimSpace(in.Color),
		IsFeatured:    in.IsFeatured,
		IsActive:      in.IsActive,
	}
	if err := s.repo.Products.Create(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSKUAlreadyExists
		}
		return nil, err
	}

	s.log.Info("Товар создан", zap.String("product_id", p.ID.String()), zap.String("sku", p.SKU))
	return s.GetProduct(ctx, p.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	cur, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	ve := &ValidationError{}
	fields := map[string]any{}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			ve.add("name", "required")
		}
		fields["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.SKU != nil {
		sku := strings.TrimSpace(*patch.SKU)
		if sku == "" {
			ve.add("sku", "required")
		} else if !strings.EqualFold(sku, cur.SKU) {
			other, err := s.repo.Products.GetBySKU(ctx, sku)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != id {
				return nil, ErrSKUAlreadyExists
			}
		}
		fields["sku"] = sku
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			ve.add("price", "must be >= 0")
		}
		fields["price"] = patch.Price.Round(2)
	}
	if patch.ImageURL != nil {
		fields["image_url"] = *patch.ImageURL
	}
	if patch.IsActive != nil {
		fields["is_active"] = *patch.IsActive
	}
	if patch.IsFeatured != nil {
		fields["is_featured"] = *patch.IsFeatured
	}
	for col, v := range map[string]*string{
		"brand":      patch.Brand,
		"dimensions": patch.Dimensions,
		"material":   patch.Material,
		"color":      patch.Color,
	} {
		if v != nil {
			fields[col] = strings.TrimSpace(*v)
		}
	}
	switch {
	case patch.ClearWeight:
		fields["weight_kg"] = nil
	case patch.WeightKg != nil:
		if patch.WeightKg.IsNegative() {
			ve.add("weight_kg", "must be >= 0")
		}
		fields["weight_kg"] = patch.WeightKg.Round(2)
	}
	switch {
	case patch.ClearCategory:
		fields["category_id"] = nil
	case patch.CategoryID != nil:
		if _, err := s.getCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *patch.CategoryID
	}

	if err := ve.orNil(); err != nil {
		return nil, err
	}

	if err := s.repo.Products.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSKUAlreadyExists
		}
		return nil, err
	}
	return s.GetProduct(ctx, id)
}

func roundWeight(w *decimal.Decimal) *decimal.Decimal {
	if w == nil {
		return nil
	}
	r := w.Round(2)
	return &r
}

// DeleteProduct: позиции прошлых заказов остаются, product_id в них становится NULL.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Products.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound
	}
	s.log.Info("Товар удалён", zap.String("product_id", id.String()))
	return nil
}

// SetStock задаёт остаток, только если он не менялся с момента, когда
// администратор его прочитал (expected). Иначе ErrStockChanged: списание
// покупателя между чтением и записью не теряется.
func (s *CatalogService) SetStock(ctx context.Context, id uuid.UUID, expected, qty int) (*models.Product, error) {
	if qty < 0 {
		return nil, &ValidationError{Fields: map[string]string{"stock_quantity": "must be >= 0"}}
	}
	ok, err := s.repo.Products.SetStock(ctx, id, expected, qty)
	if err != nil {
		return nil, err
	}
	if !ok {
		p, err := s.repo.Products.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrProductNotFound
		}
		s.log.Info("Остаток изменился до сохранения",
			zap.String("product_id", id.String()),
			zap.Int("expected", expected),
			zap.Int("actual", p.StockQuantity),
		)
		return nil, ErrStockChanged
	}
	return s.GetProduct(ctx, id)
}

// AdjustStock меняет остаток на delta. Уменьшение идёт тем же условным
// UPDATE, что и при оформлении заказа, поэтому не гоняется с покупателями.
func (s *CatalogService) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Product, error) {
	ok, err := s.repo.Products.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	if !ok {
		p, err := s.repo.Products.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrProductNotFound
		}
		return nil, ErrInsufficientStock
	}
	return s.GetProduct(ctx, id)
}

func (s *CatalogService) getCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.repo.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCategoryNotFound
	}
	return c, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.getCategory(ctx, id)
}

func (s *CatalogService) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.repo.Categories.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCategoryNotFound
	}
	return c, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.Categories.List(ctx)
}

func validateCategory(in CategoryInput) error {
	ve := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		ve.add("name", "required")
	}
	if strings.TrimSpace(in.Slug) == "" {
		ve.add("slug", "required")
	}
	return ve.orNil()
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := validateCategory(in); err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		if _, err := s.getCategory(ctx, *in.ParentID); err != nil {
			return nil, err
		}
	}

	c := &models.Category{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Slug:        strings.TrimSpace(in.Slug),
		ParentID:    in.ParentID,
	}
	if err := s.repo.Categories.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugAlreadyExists
		}
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (*models.Category, error) {
	if err := validateCategory(in); err != nil {
		return nil, err
	}
	if _, err := s.getCategory(ctx, id); err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		if *in.ParentID == id {
			return nil, &ValidationError{Fields: map[string]string{"parent_id": "category cannot be its own parent"}}
		}
		if _, err := s.getCategory(ctx, *in.ParentID); err != nil {
			return nil, err
		}
	}

	fields := map[string]any{
		"name":        strings.TrimSpace(in.Name),
		"description": in.Description,
		"slug":        strings.TrimSpace(in.Slug),
		"parent_id":   in.ParentID,
	}
	if err := s.repo.Categories.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugAlreadyExists
		}
		return nil, err
	}
	return s.getCategory(ctx, id)
}

// DeleteCategory отказывает, пока есть дочерние категории; у товаров категория обнуляется.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	children, err := s.repo.Categories.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return ErrCategoryHasChildren
	}

	ok, err := s.repo.Categories.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCategoryNotFound
	}
	s.log.Info("Категория удалена", zap.String("category_id", id.String()))
	return nil
}
