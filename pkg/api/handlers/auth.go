package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/promorail/promorail/config"
	"github.com/promorail/promorail/pkg/api/errors"
	"github.com/promorail/promorail/pkg/audit"
	"github.com/promorail/promorail/pkg/auth"
	"github.com/promorail/promorail/pkg/metrics"
	"github.com/promorail/promorail/pkg/models"
	"gorm.io/gorm"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	db          *gorm.DB
	config      *config.Config
	blacklist   *auth.TokenBlacklist
	auditLogger *audit.Service
	metrics     *metrics.Metrics
	validator   *validator.Validate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, cfg *config.Config, blacklist *auth.TokenBlacklist, auditLogger *audit.Service, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		db:          db,
		config:      cfg,
		blacklist:   blacklist,
		auditLogger: auditLogger,
		metrics:     m,
		validator:   validator.New(),
	}
}

// Register godoc
// @Summary Register a new tenant and admin user
// @Description Provisions a tenant under the given slug and creates its admin account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration data"
// @Success 201 {object} models.AuthResponse "Tenant registered successfully"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 409 {object} models.ErrorResponse "Slug already taken"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "password_hashing_error",
		})
	}

	tenant := models.Tenant{
		Name:   req.TenantName,
		Slug:   req.TenantSlug,
		Active: true,
	}
	user := models.User{
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Name:         req.Name,
		Role:         models.RoleAdmin,
	}

	// Tenant and its first admin are provisioned together or not at all
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}
		user.TenantID = tenant.ID
		return tx.Create(&user).Error
	})
	if err != nil {
		if err == gorm.ErrDuplicatedKey {
			return c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "tenant_exists",
				Message: "A tenant with this slug already exists",
			})
		}
		return errors.InternalError(c, err)
	}

	h.metrics.RecordUserRegistered()

	go h.auditLogger.Log(context.Background(), tenant.ID, user.ID, "user.register", "user", user.ID, req.Email)

	token, err := auth.GenerateJWT(user.ID, tenant.ID, user.Email, user.Role, h.config.JWTSecret, h.config.JWTExpirationHours)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "token_generation_error",
		})
	}

	return c.JSON(http.StatusCreated, models.AuthResponse{
		Token: token,
		User: &models.UserInfo{
			ID:       user.ID,
			TenantID: tenant.ID,
			Email:    user.Email,
			Name:     user.Name,
			Role:     user.Role,
		},
	})
}

// Login godoc
// @Summary Login user
// @Description Authenticate user within a tenant, returns JWT token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.AuthResponse "Login successful"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var tenant models.Tenant
	if err := h.db.WithContext(ctx).Where("slug = ?", req.TenantSlug).First(&tenant).Error; err != nil {
		h.metrics.RecordLoginAttempt(false)
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid tenant, email or password",
		})
	}

	var user models.User
	err := h.db.WithContext(ctx).
		Where("tenant_id = ? AND email = ?", tenant.ID, req.Email).
		First(&user).Error
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.metrics.RecordLoginAttempt(false)
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid tenant, email or password",
		})
	}

	h.metrics.RecordLoginAttempt(true)

	go h.auditLogger.Log(context.Background(), tenant.ID, user.ID, "user.login", "user", user.ID, c.RealIP())

	token, err := auth.GenerateJWT(user.ID, tenant.ID, user.Email, user.Role, h.config.JWTSecret, h.config.JWTExpirationHours)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "token_generation_error",
		})
	}

	return c.JSON(http.StatusOK, models.AuthResponse{
		Token: token,
		User: &models.UserInfo{
			ID:       user.ID,
			TenantID: tenant.ID,
			Email:    user.Email,
			Name:     user.Name,
			Role:     user.Role,
		},
	})
}

// Me returns the current user's information
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return errors.UnauthorizedError(c, "missing user")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, uid).Error; err != nil {
		return errors.NotFoundError(c, "user")
	}

	return c.JSON(http.StatusOK, models.UserInfo{
		ID:       user.ID,
		TenantID: user.TenantID,
		Email:    user.Email,
		Name:     user.Name,
		Role:     user.Role,
	})
}

// Logout revokes the current JWT token
func (h *AuthHandler) Logout(c echo.Context) error {
	token, ok := c.Get("token").(string)
	if !ok || token == "" {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "missing_token",
			Message: "No token found in request",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Blacklist TTL matches the token lifetime so entries expire on their own
	expiration := time.Duration(h.config.JWTExpirationHours) * time.Hour
	if err := h.blacklist.Add(ctx, token, expiration); err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "logout_error",
			Message: "Failed to revoke token",
		})
	}

	if uid, ok := userID(c); ok {
		tid, _ := tenantID(c)
		go h.auditLogger.Log(context.Background(), tid, uid, "user.logout", "user", uid, "")
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Successfully logged out",
	})
}
