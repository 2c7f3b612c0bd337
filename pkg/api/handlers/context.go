package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/promorail/promorail/pkg/domain"
)

// tenantID extracts the tenant from the JWT claims placed in the context by
// the auth middleware
func tenantID(c echo.Context) (uint, bool) {
	id, ok := c.Get("tenant_id").(uint)
	return id, ok
}

// userID extracts the authenticated user id from the context
func userID(c echo.Context) (uint, bool) {
	id, ok := c.Get("user_id").(uint)
	return id, ok
}

// uintParam parses a positive integer path parameter
func uintParam(c echo.Context, name string) (uint, error) {
	raw := c.Param(name)
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		return 0, domain.NewValidationError("invalid " + name)
	}
	return uint(v), nil
}
