package handler

import (
	"errors"
	"net/http"
	"time"

	"maintenance-service/internal/apperr"
	"maintenance-service/internal/model"
	"maintenance-service/internal/permission"
	"maintenance-service/internal/repository"
	"maintenance-service/pkg/logger"
	"maintenance-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler adds users to the caller's tenant.
type UserHandler struct {
	repos *repository.Repositories
}

// NewUserHandler builds the handler over the repository set.
func NewUserHandler(repos *repository.Repositories) *UserHandler {
	return &UserHandler{repos: repos}
}

// CreateUserRequest adds a user with a role to the caller's tenant.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate returns the first violated rule, if any.
func (r *CreateUserRequest) Validate() *apperr.Error {
	if r.Email == "" {
		return apperr.BadRequest("email is required")
	}
	if len(r.Password) < 8 {
		return apperr.BadRequest("password must be at least 8 characters")
	}
	role := permission.Role(r.Role)
	if !permission.Valid(role) || role == permission.RoleSuperAdmin {
		return apperr.BadRequest("role is not valid")
	}
	return nil
}

// Create adds a user to the caller's tenant.
func (h *UserHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("user", "create")

	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}

	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse user request", zap.Error(err))
		return apperr.BadRequest("invalid request body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return apperr.Internal("failed to create user")
	}

	user := model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hashedPassword),
		Role:         req.Role,
		Active:       true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.repos.Users.Create(c.Request().Context(), p.TenantID, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			log.Warn("Email already registered in tenant",
				zap.String("email", req.Email),
				zap.Uint("tenant_id", p.TenantID))
			return apperr.BadRequest("email is already registered")
		}
		log.Error("Failed to create user", zap.Error(err))
		return apperr.Internal("failed to create user")
	}

	log.Info("User created",
		zap.Uint("user_id", user.ID),
		zap.String("role", user.Role),
		zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusCreated, user)
}
