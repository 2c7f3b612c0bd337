package handlers

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/promorail/promorail/pkg/affiliate"
	"github.com/promorail/promorail/pkg/api/errors"
	"github.com/promorail/promorail/pkg/email"
	"github.com/promorail/promorail/pkg/models"
	"gorm.io/gorm"
)

// AffiliateHandler handles affiliate account endpoints
type AffiliateHandler struct {
	db           *gorm.DB
	affiliates   *affiliate.Service
	emailService *email.Service
	validator    *validator.Validate
}

// NewAffiliateHandler creates a new affiliate handler
func NewAffiliateHandler(db *gorm.DB, affiliates *affiliate.Service, emailService *email.Service) *AffiliateHandler {
	return &AffiliateHandler{
		db:           db,
		affiliates:   affiliates,
		emailService: emailService,
		validator:    validator.New(),
	}
}

// Invite godoc
// @Summary Create an affiliate account for an existing user
// @Description The affiliate starts in pending state and must be approved before payouts
// @Tags Affiliates
// @Accept json
// @Produce json
// @Param request body models.InviteAffiliateRequest true "Affiliate data"
// @Success 201 {object} models.Affiliate
// @Failure 409 {object} models.ErrorResponse "User already has an affiliate account"
// @Router /affiliates [post]
func (h *AffiliateHandler) Invite(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	var req models.InviteAffiliateRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	created, err := h.affiliates.CreateAffiliate(c.Request().Context(), tid, req)
	if err != nil {
		return errors.DomainError(c, err)
	}

	go h.sendInvite(tid, created.UserID)

	return c.JSON(http.StatusCreated, created)
}

func (h *AffiliateHandler) sendInvite(tenantID, userID uint) {
	ctx := context.Background()

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return
	}
	var tenant models.Tenant
	if err := h.db.WithContext(ctx).First(&tenant, tenantID).Error; err != nil {
		return
	}

	_ = h.emailService.SendAffiliateInviteEmail(user.Email, user.Name, tenant.Name)
}

// Get returns one affiliate
func (h *AffiliateHandler) Get(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	a, err := h.affiliates.GetAffiliate(c.Request().Context(), tid, id)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// List godoc
// @Summary List affiliates
// @Tags Affiliates
// @Produce json
// @Param status query string false "Filter by status" Enums(pending, active, suspended)
// @Success 200 {array} models.Affiliate
// @Router /affiliates [get]
func (h *AffiliateHandler) List(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	affiliates, err := h.affiliates.ListAffiliates(c.Request().Context(), tid, c.QueryParam("status"))
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, affiliates)
}

// Approve godoc
// @Summary Approve a pending affiliate
// @Tags Affiliates
// @Produce json
// @Param id path int true "Affiliate ID"
// @Success 200 {object} models.Affiliate
// @Failure 422 {object} models.ErrorResponse "Affiliate is not pending"
// @Router /affiliates/{id}/approve [post]
func (h *AffiliateHandler) Approve(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	approved, err := h.affiliates.ApproveAffiliate(c.Request().Context(), tid, id)
	if err != nil {
		return errors.DomainError(c, err)
	}

	go h.sendApproved(tid, approved.UserID)

	return c.JSON(http.StatusOK, approved)
}

func (h *AffiliateHandler) sendApproved(tenantID, userID uint) {
	ctx := context.Background()

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return
	}
	var tenant models.Tenant
	if err := h.db.WithContext(ctx).First(&tenant, tenantID).Error; err != nil {
		return
	}

	_ = h.emailService.SendAffiliateApprovedEmail(user.Email, user.Name, tenant.Name)
}

// Suspend marks an affiliate suspended
func (h *AffiliateHandler) Suspend(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	if err := h.affiliates.SuspendAffiliate(c.Request().Context(), tid, id); err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// UpdateMetrics applies an explicit metrics correction
func (h *AffiliateHandler) UpdateMetrics(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	var req models.UpdateAffiliateMetricsRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	updated, err := h.affiliates.UpdateMetrics(c.Request().Context(), tid, id, req)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Stats godoc
// @Summary Affiliate performance summary
// @Tags Affiliates
// @Produce json
// @Param id path int true "Affiliate ID"
// @Success 200 {object} affiliate.Stats
// @Failure 404 {object} models.ErrorResponse "Affiliate not found"
// @Router /affiliates/{id}/stats [get]
func (h *AffiliateHandler) Stats(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	stats, err := h.affiliates.GetStats(c.Request().Context(), tid, id)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// SetParent re-parents an affiliate in the referral hierarchy
func (h *AffiliateHandler) SetParent(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return errors.DomainError(c, err)
	}

	var req struct {
		ParentAffiliateID *uint `json:"parent_affiliate_id"`
	}
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}

	if err := h.affiliates.SetParent(c.Request().Context(), tid, id, req.ParentAffiliateID); err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
