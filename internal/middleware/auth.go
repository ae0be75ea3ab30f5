package middleware

import (
	"errors"
	"net/http"
	"strings"

	"advisor-service/pkg/jwtutil"
	"advisor-service/pkg/logger"
	"advisor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token from the Authorization header.
// A missing or expired token is 401, a token that fails verification
// (bad signature, malformed) is 403.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Extract and validate the token
		tokenString := parts[1]
		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, jwtutil.ErrTokenExpired) {
				log.Error("Expired JWT token")
				prometheus.RecordAuthError("token_expired")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Token expired"})
			}
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid token"})
		}

		// Store advisor identity in context for the handlers
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("name", claims.Name)

		// Token is valid, proceed with the request
		return next(c)
	}
}

// AdvisorID extracts the authenticated advisor's id placed in the
// context by AuthMiddleware.
func AdvisorID(c echo.Context) (uint, bool) {
	id, ok := c.Get("user_id").(uint)
	return id, ok
}
