package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/promorail/promorail/pkg/api/errors"
	"github.com/promorail/promorail/pkg/metrics"
	"github.com/promorail/promorail/pkg/models"
	"github.com/promorail/promorail/pkg/tier"
)

// TierHandler handles commission tier endpoints
type TierHandler struct {
	tiers     *tier.Service
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewTierHandler creates a new tier handler
func NewTierHandler(tiers *tier.Service, m *metrics.Metrics) *TierHandler {
	return &TierHandler{
		tiers:     tiers,
		metrics:   m,
		validator: validator.New(),
	}
}

// Create godoc
// @Summary Create a commission tier
// @Description Create a tier with a sales threshold and commission percent
// @Tags Tiers
// @Accept json
// @Produce json
// @Param request body models.CreateTierRequest true "Tier data"
// @Success 201 {object} models.CommissionTier
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 409 {object} models.ErrorResponse "Duplicate sales threshold"
// @Router /tiers [post]
func (h *TierHandler) Create(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	var req models.CreateTierRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	created, err := h.tiers.CreateTier(c.Request().Context(), tid, req)
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusCreated, created)
}

// Update godoc
// @Summary Update a commission tier
// @Tags Tiers
// @Accept json
// @Produce json
// @Param id path int true "Tier ID"
// @Param request body models.UpdateTierRequest true "Fields to update"
// @Success 200 {object} models.CommissionTier
// @Failure 404 {object} models.ErrorResponse "Tier not found"
// @Router /tiers/{id} [patch]
func (h *TierHandler) Update(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	var req models.UpdateTierRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	updated, err := h.tiers.UpdateTier(c.Request().Context(), tid, id, req)
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, updated)
}

// Get returns one tier
func (h *TierHandler) Get(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	t, err := h.tiers.GetTier(c.Request().Context(), tid, id)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// List godoc
// @Summary List commission tiers
// @Description Tiers ordered by ascending sales threshold
// @Tags Tiers
// @Produce json
// @Success 200 {array} models.CommissionTier
// @Router /tiers [get]
func (h *TierHandler) List(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	tiers, err := h.tiers.ListTiers(c.Request().Context(), tid)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, tiers)
}

// Delete removes a tier
func (h *TierHandler) Delete(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	if err := h.tiers.DeleteTier(c.Request().Context(), tid, id); err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// Resolve godoc
// @Summary Recompute an affiliate's tier
// @Description Resolves the highest tier whose sales threshold the affiliate's revenue meets
// @Tags Tiers
// @Produce json
// @Param id path int true "Affiliate ID"
// @Success 200 {object} models.CommissionTier
// @Failure 404 {object} models.ErrorResponse "Affiliate not found"
// @Router /affiliates/{id}/resolve-tier [post]
func (h *TierHandler) Resolve(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	affiliateID, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	resolved, err := h.tiers.ResolveTier(c.Request().Context(), tid, affiliateID)
	if err != nil {
		return errors.DomainError(c, err)
	}
	if resolved == nil {
		return c.JSON(http.StatusOK, models.SuccessResponse{
			Success: true,
			Message: "Affiliate does not qualify for any tier",
		})
	}

	h.metrics.RecordTierPromotion()
	return c.JSON(http.StatusOK, resolved)
}
