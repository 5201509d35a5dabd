package handlers

import (
	"errors"
	"net/http"
	"sort"

	"bagshop/internal/cart"
	"bagshop/internal/service"
	"bagshop/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgStockChanged   = "Some items in your cart are no longer available in the requested quantity. Please review your cart."
	msgOrderFailed    = "We could not place your order. Please try again later."
	msgEmptyCart      = "Your cart is empty."
	msgInternal       = "internal server error"
	msgInvalidPayload = "invalid request body"
)

// writeError переводит ошибку сервисного слоя в HTTP-ответ.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var (
		ve *service.ValidationError
		se *service.InsufficientStockError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, dto.NewValidationError("validation failed", fieldErrors(ve)))

	case errors.Is(err, service.ErrEmptyOrder):
		c.JSON(http.StatusBadRequest, dto.NewValidationError(msgEmptyCart, nil))
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid order status", nil))

	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.NewUnauthorizedError("invalid email or password"))
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, dto.NewUnauthorizedError("authentication required"))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.NewForbiddenError("access denied"))

	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, dto.NewNotFoundError("order not found"))
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, dto.NewNotFoundError("product not found"))
	case errors.Is(err, service.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, dto.NewNotFoundError("category not found"))

	case errors.As(err, &se):
		log.Info("Оформление отклонено: не хватило остатка", zap.Error(err))
		body := dto.NewInsufficientStockError(msgStockChanged)
		// id товара клиенту можно: по нему подсвечивается строка корзины
		body.Details = se.ProductID.String()
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, service.ErrInsufficientStockAtCommit):
		c.JSON(http.StatusConflict, dto.NewInsufficientStockError(msgStockChanged))
	case errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusConflict, dto.NewInsufficientStockError("stock cannot go below zero"))
	case errors.Is(err, service.ErrStockChanged):
		c.JSON(http.StatusConflict, dto.NewConflictError("stock changed since it was read, reload and retry"))
	case errors.Is(err, service.ErrEmailExists):
		c.JSON(http.StatusConflict, dto.NewConflictError("customer with this email already exists"))
	case errors.Is(err, service.ErrSKUAlreadyExists):
		c.JSON(http.StatusConflict, dto.NewConflictError("product with this sku already exists"))
	case errors.Is(err, service.ErrSlugAlreadyExists):
		c.JSON(http.StatusConflict, dto.NewConflictError("category with this slug already exists"))
	case errors.Is(err, service.ErrCategoryHasChildren):
		c.JSON(http.StatusConflict, dto.NewConflictError("category has child categories"))

	case errors.Is(err, service.ErrOrderCreationFailed):
		c.JSON(http.StatusInternalServerError, dto.NewInternalError(msgOrderFailed))
	default:
		log.Error("Необработанная ошибка", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewInternalError(msgInternal))
	}
}

// writeCartError: текст берётся из cart.Message, код — по типу ошибки.
func writeCartError(c *gin.Context, log *zap.Logger, err error) {
	code, body := cartErrorBody(err, cart.Message(err))
	if code == http.StatusInternalServerError {
		log.Error("Ошибка корзины", zap.String("session", sessionID(c)), zap.Error(err))
	}
	c.JSON(code, body)
}

// writeCartResult — отказ из cart.Result. Системные ошибки корзина уже залогировала.
func writeCartResult(c *gin.Context, res cart.Result) {
	code, body := cartErrorBody(res.Err, res.Message)
	c.JSON(code, body)
}

func cartErrorBody(err error, msg string) (int, dto.BaseError) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest, dto.NewValidationError(msg, []dto.FieldError{{Field: "quantity", Message: msg}})
	case errors.Is(err, cart.ErrProductNotFound), errors.Is(err, cart.ErrItemNotInCart):
		return http.StatusNotFound, dto.NewNotFoundError(msg)
	case errors.Is(err, cart.ErrInsufficientStock):
		return http.StatusConflict, dto.NewInsufficientStockError(msg)
	case errors.Is(err, cart.ErrProductInactive):
		return http.StatusConflict, dto.NewConflictError(msg)
	default:
		return http.StatusInternalServerError, dto.NewInternalError(msg)
	}
}

func fieldErrors(ve *service.ValidationError) []dto.FieldError {
	out := make([]dto.FieldError, 0, len(ve.Fields))
	for f, m := range ve.Fields {
		out = append(out, dto.FieldError{Field: f, Message: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, dto.NewValidationError(msg, nil))
}

// pathUUID читает uuid из параметра пути; при ошибке отвечает 400 сам.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid "+name, []dto.FieldError{{Field: name, Message: "must be a uuid"}}))
		return uuid.Nil, false
	}
	return id, true
}

func optionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
