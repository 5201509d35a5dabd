package repository

import (
	"context"
	"errors"
	"strings"

	"bagshop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductListFilter struct {
	CategoryID *uuid.UUID
	Query      string // name, sku, description, brand, material, color
	OnlyActive *bool
	IsFeatured *bool
	Limit      int
	Offset     int
}

type ProductRepo interface {
	Create(ctx context.Context, p *models.Product) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetBySKU(ctx context.Context, sku string) (*models.Product, error)
	List(ctx context.Context, f ProductListFilter) ([]models.Product, int64, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// SetStock: stock = qty только если stock всё ещё равен expected
	SetStock(ctx context.Context, id uuid.UUID, expected, qty int) (bool, error)
	// DecrementStock: stock -= qty только если stock >= qty (одним UPDATE)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	// AdjustStock: stock += delta только если результат >= 0
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (bool, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) ProductRepo { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	// gorm подставляет default:true вместо нулевого false
	active := p.IsActive
	if err := r.db.WithContext(ctx).Omit("Category").Create(p).Error; err != nil {
		return err
	}
	if !active {
		p.IsActive = false
		return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", p.ID).Update("is_active", false).Error
	}
	return nil
}

func (r *productRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields).Error
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Preload("Category").First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Where("lower(sku) = lower(?)", sku).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, f ProductListFilter) ([]models.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})

	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}

	if f.OnlyActive != nil {
		q = q.Where("is_active = ?", *f.OnlyActive)
	}

	if f.IsFeatured != nil {
		q = q.Where("is_featured = ?", *f.IsFeatured)
	}

	if s := strings.TrimSpace(f.Query); s != "" {
		q = q.Where(`(name ILIKE @q OR sku ILIKE @q OR description ILIKE @q
  OR brand ILIKE @q OR material ILIKE @q OR color ILIKE @q)`, map[string]any{"q": "%" + s + "%"})
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}

	if f.Offset < 0 {
		f.Offset = 0
	}

	var list []models.Product
	if err := q.Preload("Category").Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	return tx.RowsAffected > 0, tx.Error
}

func (r *productRepo) SetStock(ctx context.Context, id uuid.UUID, expected, qty int) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE products
SET stock_quantity = @q,
    updated_at = now()
WHERE id = @pid
  AND stock_quantity = @expected
`, map[string]any{
		"pid":      id,
		"q":        qty,
		"expected": expected,
	})
	return tx.RowsAffected > 0, tx.Error
}

func (r *productRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	// проверка и списание — одна операция, без read-then-write
	tx := r.db.WithContext(ctx).Exec(`
UPDATE products
SET stock_quantity = stock_quantity - @q,
    updated_at = now()
WHERE id = @pid
  AND stock_quantity >= @q
`, map[string]any{
		"pid": id,
		"q":   qty,
	})
	return tx.RowsAffected > 0, tx.Error
}

func (r *productRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE products
SET stock_quantity = stock_quantity + @delta,
    updated_at = now()
WHERE id = @pid
  AND stock_quantity + @delta >= 0
`, map[string]any{
		"pid":   id,
		"delta": delta,
	})
	return tx.RowsAffected > 0, tx.Error
}
