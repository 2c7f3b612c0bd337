package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/promorail/promorail/pkg/api/errors"
	"github.com/promorail/promorail/pkg/models"
	"github.com/promorail/promorail/pkg/product"
)

// ProductHandler handles product catalog endpoints
type ProductHandler struct {
	products  *product.Service
	validator *validator.Validate
}

// NewProductHandler creates a new product handler
func NewProductHandler(products *product.Service) *ProductHandler {
	return &ProductHandler{
		products:  products,
		validator: validator.New(),
	}
}

// Create godoc
// @Summary Create a product
// @Tags Products
// @Accept json
// @Produce json
// @Param request body models.CreateProductRequest true "Product data"
// @Success 201 {object} models.Product
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Router /products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	var req models.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	created, err := h.products.CreateProduct(c.Request().Context(), tid, req)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Get returns one product
func (h *ProductHandler) Get(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	p, err := h.products.GetProduct(c.Request().Context(), tid, id)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// List godoc
// @Summary List products
// @Tags Products
// @Produce json
// @Param active query bool false "Only active products"
// @Success 200 {array} models.Product
// @Router /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	activeOnly := c.QueryParam("active") == "true"
	products, err := h.products.ListProducts(c.Request().Context(), tid, activeOnly)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// Update partially updates a product
func (h *ProductHandler) Update(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	var req models.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	updated, err := h.products.UpdateProduct(c.Request().Context(), tid, id, req)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a product
func (h *ProductHandler) Delete(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	if err := h.products.DeleteProduct(c.Request().Context(), tid, id); err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
