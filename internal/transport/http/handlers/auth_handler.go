package handlers

import (
	"context"
	"net/http"

	"bagshop/internal/models"
	"bagshop/internal/service"
	"bagshop/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CustomerAPI interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.Customer, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type AuthHandler struct {
	customers CustomerAPI
	log       *zap.Logger
}

func NewAuthHandler(customers CustomerAPI, log *zap.Logger) *AuthHandler {
	return &AuthHandler{customers: customers, log: log}
}

// Register godoc
// @Summary Регистрация покупателя
// @Description Создаёт покупателя с ролью ROLE_CUSTOMER
// @Tags auth
// @Accept json
// @Produce json
// @Param register body dto.RegisterRequest true "Данные регистрации"
// @Success 201 {object} dto.CustomerResponse
// @Failure 400 {object} dto.BaseError "Неверные данные"
// @Failure 409 {object} dto.BaseError "Email уже занят"
// @Failure 500 {object} dto.BaseError "Внутренняя ошибка"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid registration request", zap.Error(err))
		badRequest(c, msgInvalidPayload)
		return
	}

	cust, err := h.customers.Register(c.Request.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Customer(cust))
}

// Login godoc
// @Summary Вход, выдаёт access-токен
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Email и пароль"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} dto.BaseError "Неверные данные"
// @Failure 401 {object} dto.BaseError "Неверный email или пароль"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidPayload)
		return
	}

	res, err := h.customers.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.LoginResponse{
		Customer:    dto.Customer(res.Customer),
		AccessToken: res.AccessToken,
		ExpiresAt:   res.ExpiresAt.Unix(),
	})
}

// Me godoc
// @Summary Текущий покупатель
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CustomerResponse
// @Failure 401 {object} dto.BaseError
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	uid, _, err := service.RequireAuth(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	cust, err := h.customers.GetCustomer(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.Customer(cust))
}
