package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fleet-analytics-service/internal/http/middleware"
)

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, environment string, allowedOrigins []string, log zerolog.Logger) *gin.Engine {
	if environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(cors.New(corsConfig(allowedOrigins)))

	handler.Register(r, authMiddleware)
	return r
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}
	return cfg
}
