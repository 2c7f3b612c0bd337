package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/promorail/promorail/pkg/api/errors"
	"github.com/promorail/promorail/pkg/metrics"
	"github.com/promorail/promorail/pkg/models"
	"github.com/promorail/promorail/pkg/participation"
)

// ParticipationHandler handles campaign participation endpoints
type ParticipationHandler struct {
	participations *participation.Service
	metrics        *metrics.Metrics
	validator      *validator.Validate
}

// NewParticipationHandler creates a new participation handler
func NewParticipationHandler(participations *participation.Service, m *metrics.Metrics) *ParticipationHandler {
	return &ParticipationHandler{
		participations: participations,
		metrics:        m,
		validator:      validator.New(),
	}
}

// Join godoc
// @Summary Join a campaign
// @Description Opts an affiliate into a campaign and issues its unique promo code
// @Tags Participations
// @Accept json
// @Produce json
// @Param id path int true "Campaign ID"
// @Param request body models.JoinCampaignRequest true "Affiliate to enroll"
// @Success 201 {object} models.CampaignParticipation
// @Failure 409 {object} models.ErrorResponse "Already participating"
// @Failure 422 {object} models.ErrorResponse "Campaign not open or requirements not met"
// @Router /campaigns/{id}/join [post]
func (h *ParticipationHandler) Join(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	campaignID, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	var req models.JoinCampaignRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	p, err := h.participations.Join(c.Request().Context(), tid, campaignID, req.AffiliateID)
	if err != nil {
		return errors.DomainError(c, err)
	}

	h.metrics.RecordParticipationJoined()
	return c.JSON(http.StatusCreated, p)
}

// Get returns one participation
func (h *ParticipationHandler) Get(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	p, err := h.participations.GetParticipation(c.Request().Context(), tid, id)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// ListByAffiliate lists an affiliate's participations
func (h *ParticipationHandler) ListByAffiliate(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	affiliateID, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	list, err := h.participations.ListByAffiliate(c.Request().Context(), tid, affiliateID)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// UpdateStatus godoc
// @Summary Drive the participation state machine
// @Description Allowed transitions: pending→active, pending→rejected, active→completed, active→rejected
// @Tags Participations
// @Accept json
// @Produce json
// @Param id path int true "Participation ID"
// @Param request body models.UpdateParticipationStatusRequest true "Target status"
// @Success 200 {object} models.CampaignParticipation
// @Failure 422 {object} models.ErrorResponse "Transition not allowed"
// @Router /participations/{id}/status [patch]
func (h *ParticipationHandler) UpdateStatus(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	var req models.UpdateParticipationStatusRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	updated, err := h.participations.UpdateStatus(c.Request().Context(), tid, id, req.Status)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// RecordConversion godoc
// @Summary Record an attributed sale
// @Description Computes the commission and moves participation, campaign and affiliate metrics atomically
// @Tags Tracking
// @Accept json
// @Produce json
// @Param request body models.RecordConversionRequest true "Conversion data"
// @Success 201 {object} models.ConversionEvent
// @Failure 422 {object} models.ErrorResponse "Participation cannot accept conversions"
// @Router /conversions [post]
func (h *ParticipationHandler) RecordConversion(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	var req models.RecordConversionRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	event, err := h.participations.RecordConversion(c.Request().Context(), tid, req)
	if err != nil {
		return errors.DomainError(c, err)
	}

	h.metrics.RecordConversion()
	return c.JSON(http.StatusCreated, event)
}
