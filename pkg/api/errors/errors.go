package errors

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/promorail/promorail/pkg/domain"
	"github.com/promorail/promorail/pkg/models"
)

// statusByCode maps domain error codes to HTTP statuses
var statusByCode = map[string]int{
	domain.ErrCodeNotFound:      http.StatusNotFound,
	domain.ErrCodeValidation:    http.StatusBadRequest,
	domain.ErrCodeState:         http.StatusUnprocessableEntity,
	domain.ErrCodeConfiguration: http.StatusConflict,
	domain.ErrCodeUnauthorized:  http.StatusUnauthorized,
	domain.ErrCodeForbidden:     http.StatusForbidden,
	domain.ErrCodeConflict:      http.StatusConflict,
}

// errorNameByCode maps domain error codes to the stable error field of the
// response envelope
var errorNameByCode = map[string]string{
	domain.ErrCodeNotFound:      "not_found",
	domain.ErrCodeValidation:    "validation_error",
	domain.ErrCodeState:         "state_error",
	domain.ErrCodeConfiguration: "configuration_error",
	domain.ErrCodeUnauthorized:  "unauthorized",
	domain.ErrCodeForbidden:     "forbidden",
	domain.ErrCodeConflict:      "conflict",
}

// DomainError maps a business-rule rejection to its HTTP response. Anything
// that is not a DomainError is treated as an internal error: the detail is
// logged, never exposed.
func DomainError(c echo.Context, err error) error {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return InternalError(c, err)
	}

	status, ok := statusByCode[de.Code]
	if !ok {
		return InternalError(c, err)
	}

	return c.JSON(status, models.ErrorResponse{
		Error:   errorNameByCode[de.Code],
		Message: de.Message,
	})
}

// ValidationError returns a generic validation error without exposing internal details
func ValidationError(c echo.Context, err error) error {
	// Log the actual error for debugging
	log.Printf("[VALIDATION ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request data. Please check your input and try again.",
	})
}

// InternalError returns a generic internal server error
func InternalError(c echo.Context, err error) error {
	// Log the actual error for debugging
	log.Printf("[INTERNAL ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred. Please try again later.",
	})
}

// UnauthorizedError returns a generic unauthorized error
func UnauthorizedError(c echo.Context, reason string) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: "You are not authorized to access this resource.",
	})
}

// ForbiddenError returns a generic forbidden error
func ForbiddenError(c echo.Context, reason string) error {
	return c.JSON(http.StatusForbidden, models.ErrorResponse{
		Error:   "forbidden",
		Message: "You do not have permission to access this resource.",
	})
}

// NotFoundError returns a generic not found error
func NotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: "The requested resource was not found.",
	})
}

// ConflictError returns a generic conflict error
func ConflictError(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, models.ErrorResponse{
		Error:   "conflict",
		Message: message, // Message is safe to expose (e.g., "User already exists")
	})
}
