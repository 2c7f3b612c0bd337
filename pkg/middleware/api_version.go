package middleware

import (
	"github.com/labstack/echo/v4"
)

// APIVersion returns an Echo middleware that stamps every response with the
// running API version
func APIVersion(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-API-Version", version)
			return next(c)
		}
	}
}
