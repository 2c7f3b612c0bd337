package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/promorail/promorail/pkg/auth"
	"github.com/promorail/promorail/pkg/models"
	"gorm.io/gorm"
)

// JWTMiddleware creates a JWT authentication middleware
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return JWTMiddlewareWithBlacklist(secret, nil, nil)
}

// JWTMiddlewareWithBlacklist creates a JWT authentication middleware with blacklist support
func JWTMiddlewareWithBlacklist(secret string, blacklist *auth.TokenBlacklist, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Get authorization header
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "missing_token",
					Message: "Authorization header is required",
				})
			}

			// Check Bearer prefix
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token_format",
					Message: "Authorization header must be 'Bearer {token}'",
				})
			}

			return authenticate(c, next, parts[1], secret, blacklist, db)
		}
	}
}

// JWTFromQueryOrHeader creates a JWT middleware that accepts token from query parameter or header.
// This is useful for download links where headers cannot be easily set
func JWTFromQueryOrHeader(secret string, blacklist *auth.TokenBlacklist, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var token string

			// Try to get token from Authorization header first
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					token = parts[1]
				}
			}

			// If no token in header, try query parameter
			if token == "" {
				token = c.QueryParam("token")
			}

			if token == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "missing_token",
					Message: "Authorization header or token query parameter is required",
				})
			}

			return authenticate(c, next, token, secret, blacklist, db)
		}
	}
}

func authenticate(c echo.Context, next echo.HandlerFunc, token, secret string, blacklist *auth.TokenBlacklist, db *gorm.DB) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Validate JWT with blacklist check
	claims, err := auth.ValidateJWTWithBlacklist(ctx, token, secret, blacklist)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_token",
			Message: err.Error(),
		})
	}

	// Reject tokens for users that no longer exist or were soft deleted
	if db != nil {
		var user models.User
		err := db.WithContext(ctx).First(&user, claims.UserID).Error
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "user_not_found",
				Message: "User account not found",
			})
		}

		if user.DeletedAt.Valid {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "account_deleted",
				Message: "This account has been deleted",
			})
		}
	}

	// Store token in context for potential logout
	c.Set("token", token)

	// Set user info in context
	c.Set("user_id", claims.UserID)
	c.Set("tenant_id", claims.TenantID)
	c.Set("user_email", claims.Email)
	c.Set("user_role", claims.Role)

	return next(c)
}
