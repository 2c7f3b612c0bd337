package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/promorail/promorail/pkg/api/errors"
	"github.com/promorail/promorail/pkg/export"
	"github.com/promorail/promorail/pkg/metrics"
	"github.com/promorail/promorail/pkg/models"
)

// ExportHandler handles report export endpoints
type ExportHandler struct {
	exports   *export.Service
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewExportHandler creates a new export handler
func NewExportHandler(exports *export.Service, m *metrics.Metrics) *ExportHandler {
	return &ExportHandler{
		exports:   exports,
		metrics:   m,
		validator: validator.New(),
	}
}

// Commissions godoc
// @Summary Export a commission report
// @Description Builds an XLSX report of conversions in the given date range, optionally uploaded to S3
// @Tags Exports
// @Accept json
// @Produce json
// @Param request body models.ExportCommissionsRequest true "Report range"
// @Success 201 {object} export.Result
// @Failure 400 {object} models.ErrorResponse "Invalid date range"
// @Router /exports/commissions [post]
func (h *ExportHandler) Commissions(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing tenant")
	}

	var req models.ExportCommissionsRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	result, err := h.exports.ExportCommissions(c.Request().Context(), tid, req)
	if err != nil {
		return errors.DomainError(c, err)
	}

	h.metrics.RecordExportCreated()
	return c.JSON(http.StatusCreated, result)
}
