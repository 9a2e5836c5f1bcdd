package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"fleet-analytics-service/internal/auth"
	"fleet-analytics-service/internal/config"
	"fleet-analytics-service/internal/db"
	httphandler "fleet-analytics-service/internal/http"
	"fleet-analytics-service/internal/http/middleware"
	"fleet-analytics-service/internal/logger"
	"fleet-analytics-service/internal/repository"
	"fleet-analytics-service/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	scopeRepo := repository.NewScopeRepository(database)
	fleetRepo := repository.NewFleetRepository(database)
	analyticsService := service.NewAnalyticsService(scopeRepo, fleetRepo, appLogger, service.Options{
		RecordLimit: cfg.Analytics.RecordLimit,
		Locale:      cfg.Analytics.Locale,
		Location:    cfg.Analytics.Location(),
	})

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(analyticsService, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.AllowedOrigins, appLogger)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().
		Str("addr", addr).
		Int("record_limit", cfg.Analytics.RecordLimit).
		Str("locale", cfg.Analytics.Locale).
		Str("timezone", cfg.Analytics.Timezone).
		Msg("starting fleet analytics service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
