package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/promorail/promorail/pkg/api/errors"
	"github.com/promorail/promorail/pkg/metrics"
	"github.com/promorail/promorail/pkg/participation"
)

// TrackingHandler serves the public promo link endpoint. It is mounted
// outside the authenticated API group: anyone clicking a promo link hits it.
type TrackingHandler struct {
	participations *participation.Service
	metrics        *metrics.Metrics
	frontendURL    string
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(participations *participation.Service, m *metrics.Metrics, frontendURL string) *TrackingHandler {
	return &TrackingHandler{
		participations: participations,
		metrics:        m,
		frontendURL:    frontendURL,
	}
}

// Click godoc
// @Summary Track a promo link click
// @Description Counts the click on the participation, campaign and affiliate, then redirects to the campaign landing page
// @Tags Tracking
// @Param code path string true "Promo code"
// @Success 302 "Redirect to campaign landing page"
// @Failure 404 {object} models.ErrorResponse "Unknown promo code"
// @Router /t/{code} [get]
func (h *TrackingHandler) Click(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return errors.NotFoundError(c, "participation")
	}

	p, err := h.participations.RecordClick(c.Request().Context(), code)
	if err != nil {
		return errors.DomainError(c, err)
	}

	h.metrics.RecordClick()

	target := fmt.Sprintf("%s/c/%d?ref=%s", h.frontendURL, p.CampaignID, p.PromoCode)
	return c.Redirect(http.StatusFound, target)
}

// Resolve returns the participation behind a promo code without counting a
// click. Used by storefront integrations to attribute carts.
func (h *TrackingHandler) Resolve(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return errors.NotFoundError(c, "participation")
	}

	p, err := h.participations.GetByPromoCode(c.Request().Context(), code)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
