package cart

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product inactive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrItemNotInCart     = errors.New("item not in cart")
)

// StockError — отказ по остатку до оформления заказа: знает товар, сколько
// уже в корзине и сколько доступно.
type StockError struct {
	ProductID uuid.UUID
	Name      string
	InCart    int
	Requested int // AddItem: сколько добавляли; UpdateItem: новое количество
	Available int
	replace   bool // UpdateItem задаёт количество, AddItem прибавляет
}

func (e *StockError) Error() string {
	if e.replace {
		return fmt.Sprintf("only %d units of %s are available in stock", e.Available, e.Name)
	}
	return fmt.Sprintf("cannot add more than %d units of %s to cart (you already have %d units)", e.Available, e.Name, e.InCart)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

type inactiveError struct{ name string }

func (e *inactiveError) Error() string {
	return fmt.Sprintf("product %s is currently unavailable", e.name)
}

func (e *inactiveError) Unwrap() error { return ErrProductInactive }

const systemErrorMessage = "A system error occurred. Please try again later."

// Message переводит ошибку корзины в текст для показа покупателю.
func Message(err error) string {
	var se *StockError
	var ie *inactiveError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &se):
		if se.replace {
			return fmt.Sprintf("Only %d units of %s are available in stock.", se.Available, se.Name)
		}
		return fmt.Sprintf("Cannot add more than %d units of %s to cart (you already have %d units). Maximum available stock reached.", se.Available, se.Name, se.InCart)
	case errors.As(err, &ie):
		return fmt.Sprintf("This product (%s) is currently unavailable.", ie.name)
	case errors.Is(err, ErrInvalidQuantity):
		return "Quantity must be a positive number."
	case errors.Is(err, ErrProductNotFound):
		return "Product not found in the database."
	case errors.Is(err, ErrItemNotInCart):
		return "Product not found in your cart."
	default:
		return systemErrorMessage
	}
}
