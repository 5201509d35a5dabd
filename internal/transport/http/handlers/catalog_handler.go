package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"bagshop/internal/models"
	"bagshop/internal/service"
	"bagshop/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CatalogAPI interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, f service.ProductFilter) ([]models.Product, int64, error)
	CreateProduct(ctx context.Context, in service.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, patch service.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	SetStock(ctx context.Context, id uuid.UUID, expected, qty int) (*models.Product, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Product, error)

	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, in service.CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, in service.CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type CatalogHandler struct {
	catalog CatalogAPI
	log     *zap.Logger
}

func NewCatalogHandler(catalog CatalogAPI, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log}
}

// productFilter разбирает ?category_id=&q=&featured=&limit=&offset=.
func productFilter(c *gin.Context) (service.ProductFilter, bool) {
	var f service.ProductFilter
	if s := c.Query("category_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			badRequest(c, "invalid category_id")
			return f, false
		}
		f.CategoryID = &id
	}
	if s := c.Query("featured"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			badRequest(c, "invalid featured")
			return f, false
		}
		f.IsFeatured = &v
	}
	f.Query = strings.TrimSpace(c.Query("q"))
	f.Limit, _ = strconv.Atoi(c.Query("limit"))
	f.Offset, _ = strconv.Atoi(c.Query("offset"))
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f, true
}

func (h *CatalogHandler) listProducts(c *gin.Context, f service.ProductFilter) {
	items, total, err := h.catalog.ListProducts(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp := dto.ProductListResponse{Items: make([]dto.ProductResponse, 0, len(items)), Total: total}
	for i := range items {
		resp.Items = append(resp.Items, dto.Product(&items[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// ListProducts — витрина: только активные товары.
// @Summary Витрина: список активных товаров
// @Tags catalog
// @Produce json
// @Param category_id query string false "ID категории"
// @Param q query string false "Поиск по name, sku, description, brand, material, color"
// @Param featured query bool false "Только рекомендуемые"
// @Param limit query int false "До 100, по умолчанию 20"
// @Param offset query int false "Смещение"
// @Success 200 {object} dto.ProductListResponse
// @Failure 400 {object} dto.BaseError
// @Failure 404 {object} dto.BaseError "Категория не найдена"
// @Router /products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	f, ok := productFilter(c)
	if !ok {
		return
	}
	active := true
	f.OnlyActive = &active
	h.listProducts(c, f)
}

// GetProduct — выключенный товар для витрины не существует.
// @Summary Карточка товара
// @Tags catalog
// @Produce json
// @Param id path string true "ID товара"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} dto.BaseError
// @Router /products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err == nil && !p.IsActive {
		err = service.ErrProductNotFound
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.Product(p))
}

// ListCategories godoc
// @Summary Все категории
// @Tags catalog
// @Produce json
// @Success 200 {array} dto.CategoryResponse
// @Router /categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	list, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.Category(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

// GetCategoryBySlug godoc
// @Summary Категория по slug
// @Tags catalog
// @Produce json
// @Param slug path string true "Slug"
// @Success 200 {object} dto.CategoryResponse
// @Failure 404 {object} dto.BaseError
// @Router /categories/{slug} [get]
func (h *CatalogHandler) GetCategoryBySlug(c *gin.Context) {
	cat, err := h.catalog.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.Category(cat))
}

// --- admin ---

// AdminListProducts: ?active=true|false, без параметра — все.
// @Summary Админка: список товаров
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Фильтр по is_active"
// @Param category_id query string false "ID категории"
// @Param q query string false "Поиск"
// @Param featured query bool false "Только рекомендуемые"
// @Param limit query int false "До 100"
// @Param offset query int false "Смещение"
// @Success 200 {object} dto.ProductListResponse
// @Failure 401 {object} dto.BaseError
// @Failure 403 {object} dto.BaseError
// @Router /admin/products [get]
func (h *CatalogHandler) AdminListProducts(c *gin.Context) {
	f, ok := productFilter(c)
	if !ok {
		return
	}
	if s := c.Query("active"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			badRequest(c, "invalid active")
			return
		}
		f.OnlyActive = &v
	}
	h.listProducts(c, f)
}

// AdminGetProduct godoc
// @Summary Админка: товар
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID товара"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} dto.BaseError
// @Router /admin/products/{id} [get]
func (h *CatalogHandler) AdminGetProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.Product(p))
}

// CreateProduct godoc
// @Summary Админка: создать товар
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body dto.CreateProductRequest true "Товар"
// @Success 201 {object} dto.ProductResponse
// @Failure 400 {object} dto.BaseError
// @Failure 409 {object} dto.BaseError "SKU занят"
// @Router /admin/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidPayload)
		return
	}
	catID, err := optionalUUID(req.CategoryID)
	if err != nil {
		badRequest(c, "invalid category_id")
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	p, err := h.catalog.CreateProduct(c.Request.Context(), service.ProductInput{
		CategoryID:    catID,
		SKU:           req.SKU,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		ImageURL:      req.ImageURL,
		Brand:         req.Brand,
		Dimensions:    req.Dimensions,
		WeightKg:      req.WeightKg,
		Material:      req.Material,
		Color:         req.Color,
		IsFeatured:    req.IsFeatured,
		IsActive:      active,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Product(p))
}

// UpdateProduct godoc
// @Summary Админка: изменить товар
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID товара"
// @Param product body dto.UpdateProductRequest true "Изменяемые поля"
// @Success 200 {object} dto.ProductResponse
// @Failure 400 {object} dto.BaseError
// @Failure 404 {object} dto.BaseError
// @Failure 409 {object} dto.BaseError "SKU занят"
// @Router /admin/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidPayload)
		return
	}

	patch := service.ProductPatch{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Brand:       req.Brand,
		Dimensions:  req.Dimensions,
		WeightKg:    req.WeightKg,
		ClearWeight: req.ClearWeight,
		Material:    req.Material,
		Color:       req.Color,
		IsFeatured:  req.IsFeatured,
		IsActive:    req.IsActive,
	}
	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			patch.ClearCategory = true
		} else {
			catID, err := uuid.Parse(*req.CategoryID)
			if err != nil {
				badRequest(c, "invalid category_id")
				return
			}
			patch.CategoryID = &catID
		}
	}

	p, err := h.catalog.UpdateProduct(c.Request.Context(), id, patch)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.Product(p))
}

// DeleteProduct godoc
// @Summary Админка: удалить товар
// @Tags admin
// @Security BearerAuth
// @Param id path string true "ID товара"
// @Success 204
// @Failure 404 {object} dto.BaseError
// @Router /admin/products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateStock: {"quantity": n, "expected_quantity": m} задаёт остаток,
// {"delta": d} сдвигает его.
// @Summary Админка: остаток товара
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID товара"
// @Param stock body dto.StockRequest true "quantity+expected_quantity или delta"
// @Success 200 {object} dto.ProductResponse
// @Failure 400 {object} dto.BaseError
// @Failure 404 {object} dto.BaseError
// @Failure 409 {object} dto.BaseError "Остаток изменился или ушёл бы в минус"
// @Router /admin/products/{id}/stock [put]
func (h *CatalogHandler) UpdateStock(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidPayload)
		return
	}
	if (req.Quantity == nil) == (req.Delta == nil) {
		badRequest(c, "exactly one of quantity or delta is required")
		return
	}
	if req.Quantity != nil && req.ExpectedQuantity == nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("expected_quantity is required with quantity",
			[]dto.FieldError{{Field: "expected_quantity", Message: "required"}}))
		return
	}

	var (
		p   *models.Product
		err error
	)
	if req.Quantity != nil {
		p, err = h.catalog.SetStock(c.Request.Context(), id, *req.ExpectedQuantity, *req.Quantity)
	} else {
		p, err = h.catalog.AdjustStock(c.Request.Context(), id, *req.Delta)
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.Product(p))
}

func categoryInput(c *gin.Context) (service.CategoryInput, bool) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidPayload)
		return service.CategoryInput{}, false
	}
	parentID, err := optionalUUID(req.ParentID)
	if err != nil {
		badRequest(c, "invalid parent_id")
		return service.CategoryInput{}, false
	}
	return service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		ParentID:    parentID,
	}, true
}

// AdminGetCategory godoc
// @Summary Админка: категория
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID категории"
// @Success 200 {object} dto.CategoryResponse
// @Failure 404 {object} dto.BaseError
// @Router /admin/categories/{id} [get]
func (h *CatalogHandler) AdminGetCategory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	cat, err := h.catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.Category(cat))
}

// CreateCategory godoc
// @Summary Админка: создать категорию
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category body dto.CategoryRequest true "Категория"
// @Success 201 {object} dto.CategoryResponse
// @Failure 400 {object} dto.BaseError
// @Failure 409 {object} dto.BaseError "Slug занят"
// @Router /admin/categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	in, ok := categoryInput(c)
	if !ok {
		return
	}
	cat, err := h.catalog.CreateCategory(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Category(cat))
}

// UpdateCategory godoc
// @Summary Админка: изменить категорию
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID категории"
// @Param category body dto.CategoryRequest true "Категория"
// @Success 200 {object} dto.CategoryResponse
// @Failure 400 {object} dto.BaseError
// @Failure 404 {object} dto.BaseError
// @Failure 409 {object} dto.BaseError "Slug занят"
// @Router /admin/categories/{id} [put]
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	in, ok := categoryInput(c)
	if !ok {
		return
	}
	cat, err := h.catalog.UpdateCategory(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.Category(cat))
}

// DeleteCategory godoc
// @Summary Админка: удалить категорию
// @Tags admin
// @Security BearerAuth
// @Param id path string true "ID категории"
// @Success 204
// @Failure 404 {object} dto.BaseError
// @Failure 409 {object} dto.BaseError "Есть дочерние категории"
// @Router /admin/categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
