package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"maintenance-service/internal/apperr"
	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/pkg/jwtutil"
	"maintenance-service/pkg/logger"
	"maintenance-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler serves the public signup and login endpoints.
type AuthHandler struct {
	repos *repository.Repositories
}

// NewAuthHandler builds the handler over the repository set.
func NewAuthHandler(repos *repository.Repositories) *AuthHandler {
	return &AuthHandler{repos: repos}
}

// SignupRequest creates a tenant and its first admin user.
type SignupRequest struct {
	TenantSlug string `json:"tenant_slug"`
	TenantName string `json:"tenant_name"`
	Plan       string `json:"plan"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Password   string `json:"password"`
}

// Validate returns the first violated rule, if any.
func (r *SignupRequest) Validate() *apperr.Error {
	r.TenantSlug = strings.ToLower(strings.TrimSpace(r.TenantSlug))
	if r.TenantSlug == "" {
		return apperr.BadRequest("tenant_slug is required")
	}
	if r.TenantName == "" {
		return apperr.BadRequest("tenant_name is required")
	}
	if r.Email == "" {
		return apperr.BadRequest("email is required")
	}
	if len(r.Password) < 8 {
		return apperr.BadRequest("password must be at least 8 characters")
	}
	return nil
}

// Signup creates a tenant and its first user in one transaction.
func (h *AuthHandler) Signup(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.SignupCounter.Inc()

	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse signup request", zap.Error(err))
		return apperr.BadRequest("invalid request body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return apperr.Internal("signup failed")
	}

	plan := req.Plan
	if plan == "" {
		plan = "free"
	}

	tenant := model.Tenant{
		Slug:   req.TenantSlug,
		Name:   req.TenantName,
		Plan:   plan,
		Active: true,
	}
	user := model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hashedPassword),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.repos.Tenants.Signup(c.Request().Context(), &tenant, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			log.Warn("Tenant slug already taken", zap.String("slug", req.TenantSlug))
			return apperr.BadRequest("tenant slug is already taken")
		}
		log.Error("Signup failed", zap.Error(err))
		return apperr.Internal("signup failed")
	}

	log.Info("Tenant signed up",
		zap.String("slug", tenant.Slug),
		zap.Uint("tenant_id", tenant.ID),
		zap.Uint("user_id", user.ID))

	return respondData(c, http.StatusCreated, echo.Map{
		"tenant": tenant,
		"user":   user,
	})
}

// LoginRequest authenticates a user within a tenant. Email is unique per
// tenant only, so the tenant slug is part of the credentials.
type LoginRequest struct {
	TenantSlug string `json:"tenant_slug"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// Validate returns the first violated rule, if any.
func (r *LoginRequest) Validate() *apperr.Error {
	if r.TenantSlug == "" {
		return apperr.BadRequest("tenant_slug is required")
	}
	if r.Email == "" {
		return apperr.BadRequest("email is required")
	}
	if r.Password == "" {
		return apperr.BadRequest("password is required")
	}
	return nil
}

// Login verifies credentials and issues a token carrying the tenant context.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse login request", zap.Error(err))
		return apperr.BadRequest("invalid request body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	defer prometheus.TrackDBOperation("query")(time.Now())

	tenant, err := h.repos.Tenants.FindBySlug(ctx, strings.ToLower(req.TenantSlug))
	if err != nil {
		log.Warn("Login against unknown tenant", zap.String("slug", req.TenantSlug))
		return apperr.Unauthenticated("invalid credentials")
	}

	user, err := h.repos.Users.FindByEmail(ctx, tenant.ID, req.Email)
	if err != nil {
		log.Warn("User not found", zap.String("email", req.Email), zap.Uint("tenant_id", tenant.ID))
		return apperr.Unauthenticated("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email), zap.Uint("tenant_id", tenant.ID))
		return apperr.Unauthenticated("invalid credentials")
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Email, tenant.ID, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return apperr.Internal("login failed")
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", tenant.ID),
		zap.String("role", user.Role))

	return respondData(c, http.StatusOK, echo.Map{
		"token": token,
		"user":  user,
		"tenant": echo.Map{
			"id":   tenant.ID,
			"slug": tenant.Slug,
			"name": tenant.Name,
		},
	})
}
