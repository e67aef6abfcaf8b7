package middleware

import (
	"strings"

	"maintenance-service/internal/apperr"
	"maintenance-service/internal/permission"
	"maintenance-service/pkg/jwtutil"
	"maintenance-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const principalKey = "principal"

// Principal is the authenticated user making a request, carrying its tenant
// id and role.
type Principal struct {
	UserID   uint
	TenantID uint
	Role     permission.Role
}

// RequireAuth validates the bearer token and stores the resolved principal
// in the request context. Read-only routes use this gate.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			return apperr.Unauthenticated("authentication required")
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			return apperr.Unauthenticated("authentication required")
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			return apperr.Unauthenticated("invalid or expired token")
		}

		role := permission.Role(claims.Role)
		if claims.TenantID == 0 || !permission.Valid(role) {
			log.Warn("Token missing tenant context",
				zap.Uint("tenant_id", claims.TenantID),
				zap.String("role", claims.Role))
			return apperr.Unauthenticated("invalid or expired token")
		}

		c.Set(principalKey, Principal{
			UserID:   claims.UserID,
			TenantID: claims.TenantID,
			Role:     role,
		})
		return next(c)
	}
}

// RequirePermission gates a route on a permission. It builds on RequireAuth,
// then rejects principals whose role does not grant perm. Every mutating
// route uses this gate.
func RequirePermission(perm permission.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return RequireAuth(func(c echo.Context) error {
			p, ok := PrincipalFromContext(c)
			if !ok {
				return apperr.Unauthenticated("authentication required")
			}
			if !permission.Granted(p.Role, perm) {
				logger.FromContext(c).Warn("Permission denied",
					zap.Uint("user_id", p.UserID),
					zap.Uint("tenant_id", p.TenantID),
					zap.String("role", string(p.Role)),
					zap.String("permission", string(perm)))
				return apperr.Forbidden("insufficient permissions")
			}
			return next(c)
		})
	}
}

// PrincipalFromContext retrieves the principal set by RequireAuth.
func PrincipalFromContext(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}

// SetPrincipal stores a principal directly. Used by tests that bypass the
// token path.
func SetPrincipal(c echo.Context, p Principal) {
	c.Set(principalKey, p)
}
