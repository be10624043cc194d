package middleware

import (
	"net/http"
	"strings"

	"user-service/pkg/jwtutil"
	"user-service/pkg/logger"
	"user-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// JWTAuthMiddleware creates a middleware that validates bearer tokens
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			// Extract the token from the Authorization header
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing authorization header")
				prometheus.RecordAuthError("missing_header")
				return unauthorized(c, "Missing authorization header")
			}

			// Check if the header format is valid
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				log.Warn("Invalid authorization header format")
				prometheus.RecordAuthError("invalid_format")
				return unauthorized(c, "Invalid authorization header format")
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return unauthorized(c, "Invalid or expired token")
			}

			// Store the claims in the context for later use
			c.Set("claims", claims)
			log.Debug("JWT token validated successfully",
				zap.String("subject", claims.Subject),
				zap.String("email", claims.Email))

			return next(c)
		}
	}
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"statusCode": http.StatusUnauthorized,
		"message":    message,
		"error":      http.StatusText(http.StatusUnauthorized),
	})
}
