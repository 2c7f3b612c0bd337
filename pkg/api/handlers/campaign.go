package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/promorail/promorail/pkg/api/errors"
	"github.com/promorail/promorail/pkg/campaign"
	"github.com/promorail/promorail/pkg/models"
	"github.com/promorail/promorail/pkg/participation"
)

// CampaignHandler handles campaign lifecycle endpoints
type CampaignHandler struct {
	campaigns      *campaign.Service
	participations *participation.Service
	validator      *validator.Validate
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaigns *campaign.Service, participations *participation.Service) *CampaignHandler {
	return &CampaignHandler{
		campaigns:      campaigns,
		participations: participations,
		validator:      validator.New(),
	}
}

// Create godoc
// @Summary Create a campaign
// @Description Campaigns are created in draft state and must be activated explicitly
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param request body models.CreateCampaignRequest true "Campaign data"
// @Success 201 {object} models.Campaign
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Router /campaigns [post]
func (h *CampaignHandler) Create(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	var req models.CreateCampaignRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	created, err := h.campaigns.CreateCampaign(c.Request().Context(), tid, req)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Get returns one campaign with its aggregated metrics
func (h *CampaignHandler) Get(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	cmp, err := h.campaigns.GetCampaign(c.Request().Context(), tid, id)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, cmp)
}

// List godoc
// @Summary List campaigns
// @Tags Campaigns
// @Produce json
// @Param status query string false "Filter by status" Enums(draft, active, completed, archived)
// @Success 200 {array} models.Campaign
// @Router /campaigns [get]
func (h *CampaignHandler) List(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	campaigns, err := h.campaigns.ListCampaigns(c.Request().Context(), tid, c.QueryParam("status"))
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, campaigns)
}

// UpdateStatus godoc
// @Summary Move a campaign through its lifecycle
// @Description Allowed transitions: draft→active, active→completed, active→archived, completed→archived
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path int true "Campaign ID"
// @Param request body models.UpdateCampaignStatusRequest true "Target status"
// @Success 200 {object} models.Campaign
// @Failure 422 {object} models.ErrorResponse "Transition not allowed"
// @Router /campaigns/{id}/status [patch]
func (h *CampaignHandler) UpdateStatus(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	var req models.UpdateCampaignStatusRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	updated, err := h.campaigns.UpdateStatus(c.Request().Context(), tid, id, req.Status)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Participants lists all participations of a campaign
func (h *CampaignHandler) Participants(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	list, err := h.participations.ListByCampaign(c.Request().Context(), tid, id)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
