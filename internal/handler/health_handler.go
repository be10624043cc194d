package handler

import (
	"context"
	"net/http"
	"time"

	"user-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Pinger is anything that can confirm its backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck reports whether the service can reach its store
func HealthCheck(p Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			logger.FromEcho(c).Error("Health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"status": "unhealthy",
				"error":  "database ping failed",
			})
		}

		return c.JSON(http.StatusOK, echo.Map{
			"status":  "healthy",
			"service": "user-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	}
}
