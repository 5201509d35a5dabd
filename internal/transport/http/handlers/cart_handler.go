package handlers

import (
	"context"
	"net/http"

	"bagshop/internal/cart"
	"bagshop/internal/transport/http/dto"
	"bagshop/internal/transport/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartAPI interface {
	Add(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) cart.Result
	Update(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) cart.Result
	TotalItemCount(ctx context.Context, sessionID string) (int, error)
	UniqueLineCount(ctx context.Context, sessionID string) (int, error)
	RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) error
	ClearCart(ctx context.Context, sessionID string) error
	Materialize(ctx context.Context, sessionID string) ([]cart.Line, error)
}

type CartHandler struct {
	carts CartAPI
	log   *zap.Logger
}

func NewCartHandler(carts CartAPI, log *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, log: log}
}

func sessionID(c *gin.Context) string {
	return middleware.SessionID(c)
}

func (h *CartHandler) current(c *gin.Context) (dto.CartResponse, bool) {
	ctx, sid := c.Request.Context(), sessionID(c)
	lines, err := h.carts.Materialize(ctx, sid)
	if err != nil {
		writeCartError(c, h.log, err)
		return dto.CartResponse{}, false
	}
	// Materialize уже выкинул исчезнувшие строки, счётчики считаем после него
	total, err := h.carts.TotalItemCount(ctx, sid)
	if err != nil {
		writeCartError(c, h.log, err)
		return dto.CartResponse{}, false
	}
	unique, err := h.carts.UniqueLineCount(ctx, sid)
	if err != nil {
		writeCartError(c, h.log, err)
		return dto.CartResponse{}, false
	}
	return dto.Cart(lines, total, unique), true
}

// Get godoc
// @Summary Корзина текущей сессии
// @Tags cart
// @Produce json
// @Param X-Session-ID header string false "ID сессии; без него выдаётся новый"
// @Success 200 {object} dto.CartResponse
// @Router /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	resp, ok := h.current(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem godoc
// @Summary Добавить товар в корзину
// @Tags cart
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "ID сессии"
// @Param item body dto.CartItemRequest true "Товар и количество"
// @Success 200 {object} dto.CartMutationResponse
// @Failure 400 {object} dto.BaseError
// @Failure 404 {object} dto.BaseError
// @Failure 409 {object} dto.BaseError "Не хватает остатка или товар выключен"
// @Router /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidPayload)
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		badRequest(c, "invalid product_id")
		return
	}

	if res := h.carts.Add(c.Request.Context(), sessionID(c), productID, req.Quantity); res.Err != nil {
		writeCartResult(c, res)
		return
	}
	resp, ok := h.current(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.CartMutationResponse{OK: true, Cart: resp})
}

// UpdateItem: quantity 0 удаляет строку. Если товар исчез или выключен,
// строка тоже удаляется, а в ответе ok=false и сообщение.
// @Summary Изменить количество в корзине
// @Tags cart
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "ID сессии"
// @Param productId path string true "ID товара"
// @Param item body dto.CartQuantityRequest true "Новое количество, 0 удаляет строку"
// @Success 200 {object} dto.CartMutationResponse
// @Failure 400 {object} dto.BaseError
// @Failure 404 {object} dto.BaseError
// @Failure 409 {object} dto.BaseError
// @Router /cart/items/{productId} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	productID, ok := pathUUID(c, "productId")
	if !ok {
		return
	}
	var req dto.CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidPayload)
		return
	}

	res := h.carts.Update(c.Request.Context(), sessionID(c), productID, req.Quantity)
	if res.Err != nil {
		writeCartResult(c, res)
		return
	}
	resp, ok := h.current(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.CartMutationResponse{OK: res.OK, Message: res.Message, Cart: resp})
}

// RemoveItem godoc
// @Summary Убрать товар из корзины
// @Tags cart
// @Produce json
// @Param X-Session-ID header string false "ID сессии"
// @Param productId path string true "ID товара"
// @Success 200 {object} dto.CartResponse
// @Router /cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := pathUUID(c, "productId")
	if !ok {
		return
	}
	if err := h.carts.RemoveItem(c.Request.Context(), sessionID(c), productID); err != nil {
		writeCartError(c, h.log, err)
		return
	}
	h.Get(c)
}

// Clear godoc
// @Summary Очистить корзину
// @Tags cart
// @Param X-Session-ID header string false "ID сессии"
// @Success 204
// @Router /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.carts.ClearCart(c.Request.Context(), sessionID(c)); err != nil {
		writeCartError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
