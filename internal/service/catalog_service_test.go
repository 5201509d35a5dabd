package service_test

import (
	"context"
	"testing"

	"bagshop/internal/models"
	"bagshop/internal/repository"
	"bagshop/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProducts struct {
	repository.ProductRepo
	byID      map[uuid.UUID]*models.Product
	adjustOK  bool
	lastDelta int
	updated   map[string]any
}

func (f *fakeProducts) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	f.updated = fields
	return nil
}

// SetStock повторяет условие репозитория: запись только при совпадении expected.
func (f *fakeProducts) SetStock(ctx context.Context, id uuid.UUID, expected, qty int) (bool, error) {
	p, ok := f.byID[id]
	if !ok || p.StockQuantity != expected {
		return false, nil
	}
	p.StockQuantity = qty
	return true, nil
}

func (f *fakeProducts) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return f.byID[id], nil
}

func (f *fakeProducts) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	for _, p := range f.byID {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProducts) Create(ctx context.Context, p *models.Product) error {
	p.ID = uuid.New()
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProducts) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	f.lastDelta = delta
	return f.adjustOK, nil
}

type fakeCategories struct {
	repository.CategoryRepo
	byID     map[uuid.UUID]*models.Category
	children int64
}

func (f *fakeCategories) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return f.byID[id], nil
}

func (f *fakeCategories) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	return f.children, nil
}

func newCatalog() (*service.CatalogService, *fakeProducts, *fakeCategories) {
	products := &fakeProducts{byID: map[uuid.UUID]*models.Product{}}
	categories := &fakeCategories{byID: map[uuid.UUID]*models.Category{}}
	repo := &repository.Repository{Products: products, Categories: categories}
	return service.NewCatalogService(repo, zap.NewNop()), products, categories
}

func TestCatalog_GetProductByID_View(t *testing.T) {
	svc, products, _ := newCatalog()
	id := uuid.New()
	products.byID[id] = &models.Product{
		ID:            id,
		Name:          "Tote",
		SKU:           "T-1",
		Price:         decimal.RequireFromString("20.00"),
		StockQuantity: 5,
		IsActive:      true,
		Category:      &models.Category{Name: "Totes"},
	}

	v, err := svc.GetProductByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "Totes", v.CategoryName)
	assert.Equal(t, 5, v.StockQuantity)

	missing, err := svc.GetProductByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = svc.GetProduct(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrProductNotFound)
}

func TestCatalog_CreateProduct(t *testing.T) {
	svc, _, _ := newCatalog()
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, service.ProductInput{Name: "", SKU: "", Price: decimal.NewFromInt(-1)})
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 3)

	p, err := svc.CreateProduct(ctx, service.ProductInput{Name: "Tote", SKU: "T-1", Price: decimal.RequireFromString("19.999"), StockQuantity: 2, IsActive: true})
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("20.00")))

	_, err = svc.CreateProduct(ctx, service.ProductInput{Name: "Other", SKU: "T-1", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, service.ErrSKUAlreadyExists)

	missingCat := uuid.New()
	_, err = svc.CreateProduct(ctx, service.ProductInput{Name: "X", SKU: "X-1", CategoryID: &missingCat})
	assert.ErrorIs(t, err, service.ErrCategoryNotFound)
}

func TestCatalog_ProductAttributes(t *testing.T) {
	svc, products, _ := newCatalog()
	ctx := context.Background()

	heavy := decimal.RequireFromString("1.234")
	p, err := svc.CreateProduct(ctx, service.ProductInput{
		Name: "Market Tote", SKU: "MT-1", Price: decimal.NewFromInt(25), IsActive: true,
		Brand: "  Northwind ", Material: "Canvas", Color: "Olive", Dimensions: "40 x 15 x 35 cm",
		WeightKg: &heavy, IsFeatured: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Northwind", p.Brand)
	assert.True(t, p.IsFeatured)
	require.NotNil(t, p.WeightKg)
	assert.Equal(t, "1.23", p.WeightKg.String())

	negative := decimal.NewFromInt(-2)
	_, err = svc.CreateProduct(ctx, service.ProductInput{Name: "X", SKU: "X-2", WeightKg: &negative})
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "weight_kg")

	color := " Black "
	featured := false
	_, err = svc.UpdateProduct(ctx, p.ID, service.ProductPatch{Color: &color, IsFeatured: &featured, ClearWeight: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"color": "Black", "is_featured": false, "weight_kg": nil}, products.updated)
}

func TestCatalog_AdjustStock(t *testing.T) {
	svc, products, _ := newCatalog()
	ctx := context.Background()
	id := uuid.New()
	products.byID[id] = &models.Product{ID: id, StockQuantity: 1}

	_, err := svc.AdjustStock(ctx, id, -2)
	assert.ErrorIs(t, err, service.ErrInsufficientStock)
	assert.Equal(t, -2, products.lastDelta)

	_, err = svc.AdjustStock(ctx, uuid.New(), -1)
	assert.ErrorIs(t, err, service.ErrProductNotFound)

	products.adjustOK = true
	_, err = svc.AdjustStock(ctx, id, 4)
	require.NoError(t, err)
}

func TestCatalog_SetStock_RejectsStaleValue(t *testing.T) {
	svc, products, _ := newCatalog()
	ctx := context.Background()
	id := uuid.New()
	products.byID[id] = &models.Product{ID: id, StockQuantity: 10}

	// администратор прочитал 10, покупатель успел списать 2
	products.byID[id].StockQuantity = 8
	_, err := svc.SetStock(ctx, id, 10, 15)
	require.ErrorIs(t, err, service.ErrStockChanged)
	assert.Equal(t, 8, products.byID[id].StockQuantity)

	p, err := svc.SetStock(ctx, id, 8, 15)
	require.NoError(t, err)
	assert.Equal(t, 15, p.StockQuantity)

	_, err = svc.SetStock(ctx, uuid.New(), 0, 1)
	assert.ErrorIs(t, err, service.ErrProductNotFound)

	var ve *service.ValidationError
	_, err = svc.SetStock(ctx, id, 15, -1)
	assert.ErrorAs(t, err, &ve)
}

func TestCatalog_DeleteCategoryWithChildren(t *testing.T) {
	svc, _, categories := newCatalog()
	categories.children = 2

	err := svc.DeleteCategory(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrCategoryHasChildren)
}

func TestCatalog_UpdateCategory_SelfParent(t *testing.T) {
	svc, _, categories := newCatalog()
	id := uuid.New()
	categories.byID[id] = &models.Category{ID: id, Name: "Bags", Slug: "bags"}

	_, err := svc.UpdateCategory(context.Background(), id, service.CategoryInput{Name: "Bags", Slug: "bags", ParentID: &id})
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "parent_id")
}
