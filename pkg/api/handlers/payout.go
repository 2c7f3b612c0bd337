package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/promorail/promorail/pkg/api/errors"
	"github.com/promorail/promorail/pkg/metrics"
	"github.com/promorail/promorail/pkg/models"
	"github.com/promorail/promorail/pkg/payout"
)

// PayoutHandler handles payout endpoints
type PayoutHandler struct {
	payouts   *payout.Service
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewPayoutHandler creates a new payout handler
func NewPayoutHandler(payouts *payout.Service, m *metrics.Metrics) *PayoutHandler {
	return &PayoutHandler{
		payouts:   payouts,
		metrics:   m,
		validator: validator.New(),
	}
}

// Create godoc
// @Summary Disburse pending earnings to an affiliate
// @Description Creates a Stripe transfer to the affiliate's connected account and settles their pending earnings
// @Tags Payouts
// @Accept json
// @Produce json
// @Param request body models.CreatePayoutRequest true "Payout data"
// @Success 201 {object} models.Payout
// @Failure 400 {object} models.ErrorResponse "Below the payout minimum"
// @Failure 422 {object} models.ErrorResponse "Insufficient pending earnings or missing Stripe account"
// @Router /payouts [post]
func (h *PayoutHandler) Create(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	var req models.CreatePayoutRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	p, err := h.payouts.CreatePayout(c.Request().Context(), tid, req)
	if err != nil {
		h.metrics.RecordPayout(false)
		return errors.DomainError(c, err)
	}

	h.metrics.RecordPayout(true)
	return c.JSON(http.StatusCreated, p)
}

// Get returns one payout
func (h *PayoutHandler) Get(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	p, err := h.payouts.GetPayout(c.Request().Context(), tid, id)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// List godoc
// @Summary List payouts
// @Tags Payouts
// @Produce json
// @Param affiliate_id query int false "Filter by affiliate"
// @Success 200 {array} models.Payout
// @Router /payouts [get]
func (h *PayoutHandler) List(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	var affiliateID uint
	if raw := c.QueryParam("affiliate_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return errors.ValidationError(c, err)
		}
		affiliateID = uint(v)
	}

	payouts, err := h.payouts.ListPayouts(c.Request().Context(), tid, affiliateID)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, payouts)
}
