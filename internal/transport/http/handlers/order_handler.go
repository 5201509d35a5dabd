package handlers

import (
	"context"
	"net/http"
	"strconv"

	"bagshop/internal/models"
	"bagshop/internal/service"
	"bagshop/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const adminPageSize = 20

type CheckoutAPI interface {
	Checkout(ctx context.Context, sessionID string, customerID uuid.UUID, in service.CheckoutInput) (uuid.UUID, error)
}

type OrderHandler struct {
	checkout CheckoutAPI
	orders   service.OrderService
	log      *zap.Logger
}

func NewOrderHandler(checkout CheckoutAPI, orders service.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders, log: log}
}

// Checkout оформляет заказ из корзины текущей сессии.
// @Summary Оформить заказ
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Session-ID header string true "ID сессии с корзиной"
// @Param checkout body dto.CheckoutRequest true "Адреса и способ оплаты"
// @Success 201 {object} dto.CheckoutResponse
// @Failure 400 {object} dto.BaseError "Пустая корзина или неверный адрес"
// @Failure 401 {object} dto.BaseError
// @Failure 409 {object} dto.BaseError "Остаток закончился, в details id товара"
// @Failure 500 {object} dto.BaseError
// @Router /checkout [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	customerID, _, err := service.RequireAuth(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidPayload)
		return
	}

	orderID, err := h.checkout.Checkout(c.Request.Context(), sessionID(c), customerID, req.Input())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CheckoutResponse{OrderID: orderID.String()})
}

// ListMine godoc
// @Summary Мои заказы
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} dto.OrderListResponse
// @Failure 401 {object} dto.BaseError
// @Router /orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	customerID, _, err := service.RequireAuth(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	items, total, err := h.orders.ListOrdersForCustomer(c.Request.Context(), customerID, limit, offset)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderListResponse{Items: items, Total: total})
}

// GetMine: чужой заказ неотличим от несуществующего.
// @Summary Мой заказ
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} dto.BaseError
// @Router /orders/{id} [get]
func (h *OrderHandler) GetMine(c *gin.Context) {
	customerID, _, err := service.RequireAuth(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.GetOrder(c.Request.Context(), id, &customerID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.Order(o))
}

// AdminList: ?status=&page=&limit=, страницы с 1.
// @Summary Админка: заказы
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Статус заказа"
// @Param page query int false "Страница, с 1"
// @Param limit query int false "До 100, по умолчанию 20"
// @Success 200 {object} dto.AdminOrderListResponse
// @Failure 400 {object} dto.BaseError "Неизвестный статус"
// @Failure 403 {object} dto.BaseError
// @Router /admin/orders [get]
func (h *OrderHandler) AdminList(c *gin.Context) {
	var f service.AdminListFilter
	if s := c.Query("status"); s != "" {
		st := models.OrderStatus(s)
		f.Status = &st
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Limit, _ = strconv.Atoi(c.Query("limit"))
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = adminPageSize
	}

	list, total, err := h.orders.ListOrdersAdmin(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp := dto.AdminOrderListResponse{
		Items: make([]dto.OrderResponse, 0, len(list)),
		Total: total,
		Page:  f.Page,
		Limit: f.Limit,
	}
	for i := range list {
		resp.Items = append(resp.Items, dto.Order(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// AdminGet godoc
// @Summary Админка: заказ
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} dto.BaseError
// @Router /admin/orders/{id} [get]
func (h *OrderHandler) AdminGet(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.GetOrder(c.Request.Context(), id, nil)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.Order(o))
}

// AdminUpdateStatus godoc
// @Summary Админка: сменить статус заказа
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Param status body dto.UpdateStatusRequest true "Новый статус"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} dto.BaseError
// @Failure 404 {object} dto.BaseError
// @Router /admin/orders/{id}/status [put]
func (h *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidPayload)
		return
	}
	o, err := h.orders.UpdateOrderStatus(c.Request.Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.Order(o))
}
