package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"user-service/internal/handler"
	"user-service/internal/middleware"
	"user-service/internal/model"
	"user-service/internal/repository"
	"user-service/internal/service"
	"user-service/pkg/config"
	"user-service/pkg/database"
	"user-service/pkg/jwtutil"
	"user-service/pkg/logger"
	"user-service/pkg/metrics"
	"user-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()
	log.Info("Starting user service...", zap.String("environment", cfg.Server.Env))

	prometheus.InitMetrics(cfg)
	httpMetrics := metrics.NewHTTPMetrics("user-service", promclient.DefaultRegisterer)
	log.Info("Prometheus metrics initialized")

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal("Failed to initialize store", zap.Error(err))
	}
	log.Info("Store ready", zap.String("driver", cfg.Store.Driver))

	users := service.NewUserService(store, cfg.Query)
	importer := service.NewImporter(store)
	userHandler := handler.NewUserHandler(users, importer, cfg.Import.MaxUploadBytes)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()

	// Middleware - metrics wrap the logger so they observe the final status
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(httpMetrics.Middleware())
	e.Use(logger.Middleware())

	// Public routes
	e.GET("/health", handler.HealthCheck(users))
	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))

	api := e.Group("/api")
	if cfg.JWT.Enabled {
		api.Use(middleware.JWTAuthMiddleware(jwtutil.NewJWTUtil(&cfg.JWT)))
		log.Info("JWT authentication enabled for /api")
	}
	userHandler.Register(api.Group("/users"))

	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
}

// openStore builds the UserStore selected by STORE_DRIVER
func openStore(cfg *config.Config) (repository.UserStore, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		return repository.NewMemoryStore(), nil
	}

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := database.MigrateModels(db, &model.User{}); err != nil {
		return nil, err
	}
	return repository.NewGormStore(db, cfg.Import.BatchSize), nil
}
