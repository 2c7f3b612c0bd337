package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/promorail/promorail/pkg/api/errors"
	"github.com/promorail/promorail/pkg/commission"
	"github.com/promorail/promorail/pkg/models"
)

// CommissionHandler handles commission rule and preview endpoints
type CommissionHandler struct {
	commissions *commission.Service
	validator   *validator.Validate
}

// NewCommissionHandler creates a new commission handler
func NewCommissionHandler(commissions *commission.Service) *CommissionHandler {
	return &CommissionHandler{
		commissions: commissions,
		validator:   validator.New(),
	}
}

// Preview godoc
// @Summary Preview a commission computation
// @Description Runs the full rule pipeline for a hypothetical sale and returns the step-by-step breakdown
// @Tags Commissions
// @Accept json
// @Produce json
// @Param request body models.CommissionPreviewRequest true "Sale parameters"
// @Success 200 {object} commission.Result
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Router /commission/preview [post]
func (h *CommissionHandler) Preview(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	var req models.CommissionPreviewRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	result, err := h.commissions.Compute(c.Request().Context(), tid, commission.Input{
		TierPercent:       req.TierPercent,
		ProductPercent:    req.ProductPercent,
		PreferProductRate: req.PreferProductRate,
		SaleAmount:        req.SaleAmount,
		SaleDate:          req.SaleDate,
	})
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// CreateRule godoc
// @Summary Create a commission rule
// @Tags Commissions
// @Accept json
// @Produce json
// @Param request body models.CreateCommissionRuleRequest true "Rule data"
// @Success 201 {object} models.CommissionRule
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Router /commission/rules [post]
func (h *CommissionHandler) CreateRule(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	var req models.CreateCommissionRuleRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	rule, err := h.commissions.CreateRule(c.Request().Context(), tid, req)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusCreated, rule)
}

// GetRule returns one rule
func (h *CommissionHandler) GetRule(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	rule, err := h.commissions.GetRule(c.Request().Context(), tid, id)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, rule)
}

// ListRules lists rules in evaluation order
func (h *CommissionHandler) ListRules(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	rules, err := h.commissions.ListRules(c.Request().Context(), tid)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, rules)
}

// DeactivateRule marks a rule inactive without deleting its history
func (h *CommissionHandler) DeactivateRule(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	if err := h.commissions.DeactivateRule(c.Request().Context(), tid, id); err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// DeleteRule removes a rule
func (h *CommissionHandler) DeleteRule(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	if err := h.commissions.DeleteRule(c.Request().Context(), tid, id); err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
