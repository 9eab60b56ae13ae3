package middleware

import (
	"net/http"
	"strings"

	"github.com/afsalck/sme-business-suite-sub002/pkg/jwtutil"
	"github.com/afsalck/sme-business-suite-sub002/pkg/logger"
	"github.com/afsalck/sme-business-suite-sub002/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the identity token from the Authorization header.
// Tokens are issued by the external identity provider; this service only
// checks the signature and extracts the verified identity.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Warn("Invalid identity token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		c.Set("email", claims.Email)
		c.Set("external_id", claims.ExternalID)
		c.Set("display_name", claims.Name)

		return next(c)
	}
}
