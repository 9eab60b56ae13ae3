package middleware

import (
	"errors"
	"net/http"

	"github.com/afsalck/sme-business-suite-sub002/internal/model"
	"github.com/afsalck/sme-business-suite-sub002/internal/tenant"
	"github.com/afsalck/sme-business-suite-sub002/pkg/logger"
	"github.com/afsalck/sme-business-suite-sub002/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TenantContextMiddleware resolves the authenticated email to a tenant and
// provisions the principal on first login. Every downstream query is scoped
// by the tenant id this sets.
//
// A blocked domain produces a generic authorization failure with no detail,
// so callers cannot enumerate which domains are mapped.
func TenantContextMiddleware(resolver *tenant.Resolver, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			email, ok := c.Get("email").(string)
			if !ok || email == "" {
				log.Error("Tenant middleware reached without authenticated email")
				prometheus.RecordAuthError("missing_identity")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			resolvedID, err := resolver.Resolve(c.Request().Context(), email)
			if err != nil {
				if errors.Is(err, tenant.ErrInvalidEmail) {
					prometheus.RecordAuthError("invalid_email")
					return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
				}
				log.Info("Authorization rejected for domain", zap.String("email", email))
				prometheus.RecordAuthError("domain_rejected")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authorization failed"})
			}

			user, err := findOrCreateUser(c, db, email, resolvedID)
			if err != nil {
				log.Error("Failed to load principal", zap.String("email", email), zap.Error(err))
				prometheus.RecordAuthError("principal_load_failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}

			c.Set("user_id", user.ID)
			c.Set("tenant_id", user.TenantID)
			c.Set("user_role", user.Role)

			return next(c)
		}
	}
}

// findOrCreateUser loads the principal by email, creating it lazily on first
// login with the lowest-privilege role and the freshly resolved tenant.
// Existing users keep their stored tenant id; it changes only through
// explicit re-resolution by an administrator.
func findOrCreateUser(c echo.Context, db *gorm.DB, email string, resolvedTenantID uint) (*model.User, error) {
	ctx := c.Request().Context()

	var user model.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	externalID, _ := c.Get("external_id").(string)
	name, _ := c.Get("display_name").(string)

	user = model.User{
		ExternalID: externalID,
		Email:      email,
		Name:       name,
		Role:       model.RoleStaff,
		TenantID:   resolvedTenantID,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		// A concurrent first login may have created the row already.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if lookupErr := db.WithContext(ctx).Where("email = ?", email).First(&user).Error; lookupErr == nil {
				return &user, nil
			}
		}
		return nil, err
	}
	return &user, nil
}

// RequireAdmin restricts a route to tenant admins. Non-admins receive a
// generic forbidden response.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get("user_role").(string)
		if role != model.RoleAdmin {
			prometheus.RecordAuthError("admin_required")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
		}
		return next(c)
	}
}
