package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// оформление заказа
	ErrEmptyOrder                = errors.New("order is empty")
	ErrInsufficientStockAtCommit = errors.New("insufficient stock at commit")
	ErrOrderCreationFailed       = errors.New("order creation failed")
	ErrOrderNotFound             = errors.New("order not found")
	ErrInvalidStatus             = errors.New("invalid order status")

	// каталог
	ErrProductNotFound     = errors.New("product not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategoryHasChildren = errors.New("category has child categories")
	ErrSKUAlreadyExists    = errors.New("sku already exists")
	ErrSlugAlreadyExists   = errors.New("slug already exists")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrStockChanged        = errors.New("stock changed since it was read")

	// покупатели
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// InsufficientStockError — условное списание остатка не затронуло ни одной
// строки; транзакция заказа откатывается целиком.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested %d)", e.ProductID, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStockAtCommit }

// ValidationError — ошибки входных данных по полям.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
