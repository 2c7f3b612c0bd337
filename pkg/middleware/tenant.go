package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/promorail/promorail/pkg/models"
	"gorm.io/gorm"
)

// LoadTenant middleware loads the tenant named by the JWT claims into the
// request context and rejects requests for deactivated tenants.
// This middleware should be applied AFTER JWT authentication middleware.
//
// Sets in context:
//   - "tenant": *models.Tenant
func LoadTenant(db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenantID, ok := c.Get("tenant_id").(uint)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error":   "unauthorized",
					"message": "Authentication required",
				})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			var tenant models.Tenant
			err := db.WithContext(ctx).First(&tenant, tenantID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return c.JSON(http.StatusUnauthorized, map[string]string{
						"error":   "tenant_not_found",
						"message": "Tenant not found",
					})
				}
				return c.JSON(http.StatusInternalServerError, map[string]string{
					"error":   "tenant_load_failed",
					"message": "Failed to load tenant details",
				})
			}

			if !tenant.Active {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error":   "tenant_deactivated",
					"message": "This tenant has been deactivated",
				})
			}

			c.Set("tenant", &tenant)

			return next(c)
		}
	}
}

// RequireRole middleware ensures the authenticated user has one of the given
// roles. Must be used AFTER JWT authentication middleware.
//
// Example usage:
//
//	requireAdmin := RequireRole(models.RoleAdmin)
//	requireManager := RequireRole(models.RoleAdmin, models.RoleManager)
func RequireRole(requiredRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRole, ok := c.Get("user_role").(string)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error":   "unauthorized",
					"message": "Authentication required",
				})
			}

			for _, required := range requiredRoles {
				if userRole == required {
					return next(c)
				}
			}

			return c.JSON(http.StatusForbidden, map[string]any{
				"error":   "insufficient_permissions",
				"message": "You do not have the required role for this operation",
				"details": map[string]any{
					"required_roles": requiredRoles,
					"current_role":   userRole,
				},
			})
		}
	}
}
