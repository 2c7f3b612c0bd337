package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/promorail/promorail/pkg/api/errors"
	"github.com/promorail/promorail/pkg/audit"
	"github.com/promorail/promorail/pkg/models"
	"gorm.io/gorm"
)

// AdminHandler handles tenant administration endpoints
type AdminHandler struct {
	db          *gorm.DB
	auditLogger *audit.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, auditLogger *audit.Service) *AdminHandler {
	return &AdminHandler{db: db, auditLogger: auditLogger}
}

// TenantStats summarizes a tenant's activity
type TenantStats struct {
	Campaigns       int64   `json:"campaigns"`
	ActiveCampaigns int64   `json:"active_campaigns"`
	Affiliates      int64   `json:"affiliates"`
	Participations  int64   `json:"participations"`
	Conversions     int64   `json:"conversions"`
	Revenue         float64 `json:"revenue"`
	PaidOut         float64 `json:"paid_out"`
}

// Stats godoc
// @Summary Tenant activity summary
// @Tags Admin
// @Produce json
// @Success 200 {object} handlers.TenantStats
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	ctx := c.Request().Context()
	var stats TenantStats

	tenantScoped := func(model any) *gorm.DB {
		return h.db.WithContext(ctx).Model(model).Where("tenant_id = ?", tid)
	}

	if err := tenantScoped(&models.Campaign{}).Count(&stats.Campaigns).Error; err != nil {
		return errors.InternalError(c, err)
	}
	if err := tenantScoped(&models.Campaign{}).Where("status = ?", models.CampaignStatusActive).Count(&stats.ActiveCampaigns).Error; err != nil {
		return errors.InternalError(c, err)
	}
	if err := tenantScoped(&models.Affiliate{}).Count(&stats.Affiliates).Error; err != nil {
		return errors.InternalError(c, err)
	}
	if err := tenantScoped(&models.CampaignParticipation{}).Count(&stats.Participations).Error; err != nil {
		return errors.InternalError(c, err)
	}
	if err := tenantScoped(&models.ConversionEvent{}).Count(&stats.Conversions).Error; err != nil {
		return errors.InternalError(c, err)
	}

	var revenue *float64
	if err := tenantScoped(&models.Campaign{}).Select("SUM(metrics_revenue)").Scan(&revenue).Error; err != nil {
		return errors.InternalError(c, err)
	}
	if revenue != nil {
		stats.Revenue = *revenue
	}

	var paidOut *float64
	if err := tenantScoped(&models.Payout{}).Where("status = ?", models.PayoutStatusPaid).Select("SUM(amount)").Scan(&paidOut).Error; err != nil {
		return errors.InternalError(c, err)
	}
	if paidOut != nil {
		stats.PaidOut = *paidOut
	}

	return c.JSON(http.StatusOK, stats)
}

// AuditLog godoc
// @Summary List recent audit log entries
// @Tags Admin
// @Produce json
// @Param limit query int false "Max entries, capped at 500"
// @Success 200 {array} models.AuditLog
// @Router /admin/audit [get]
func (h *AdminHandler) AuditLog(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return errors.ValidationError(c, err)
		}
		limit = v
	}

	entries, err := h.auditLogger.List(c.Request().Context(), tid, limit)
	if err != nil {
		return errors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}
