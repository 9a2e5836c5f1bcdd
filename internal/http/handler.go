package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleet-analytics-service/internal/http/middleware"
	"fleet-analytics-service/internal/model"
	"fleet-analytics-service/internal/service"
)

type AnalyticsProvider interface {
	GetDashboard(ctx context.Context, principal model.Principal) (*model.FleetDashboard, error)
	GetCostAnalytics(ctx context.Context, principal model.Principal, filter model.CostFilter) (*model.CostAnalytics, error)
	GetVehicleCosts(ctx context.Context, principal model.Principal, vehicleID uuid.UUID, asOf time.Time) (*model.VehicleCostHistory, error)
}

type Handler struct {
	analytics AnalyticsProvider
	log       zerolog.Logger
}

func NewHandler(analytics AnalyticsProvider, log zerolog.Logger) *Handler {
	return &Handler{analytics: analytics, log: log}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	r.GET("/healthz", h.health)

	protected := r.Group("/analytics")
	protected.Use(authMiddleware)

	protected.GET("/dashboard", h.getDashboard)
	protected.GET("/costs", h.getCostAnalytics)
	protected.GET("/vehicles/:id/costs", h.getVehicleCosts)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getDashboard(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	dashboard, err := h.analytics.GetDashboard(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(dashboard))
}

func (h *Handler) getCostAnalytics(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	filter, err := parseCostFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	costs, err := h.analytics.GetCostAnalytics(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(costs))
}

func (h *Handler) getVehicleCosts(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	vehicleID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	asOf, err := parseAsOf(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	history, err := h.analytics.GetVehicleCosts(c.Request.Context(), principal, vehicleID, asOf)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(history))
}

func parseCostFilter(c *gin.Context) (model.CostFilter, error) {
	filter := model.CostFilter{}

	if vehicleStr := strings.TrimSpace(c.Query("vehicle_id")); vehicleStr != "" {
		id, err := uuid.Parse(vehicleStr)
		if err != nil {
			return filter, errors.New("invalid vehicle_id")
		}
		filter.VehicleID = &id
	}

	asOf, err := parseAsOf(c)
	if err != nil {
		return filter, err
	}
	filter.AsOf = asOf

	return filter, nil
}

func parseAsOf(c *gin.Context) (time.Time, error) {
	raw := strings.TrimSpace(c.Query("as_of"))
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("invalid as_of: expected RFC3339")
	}
	return parsed, nil
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{"data": data}
}

func errorResponse(message string) gin.H {
	return gin.H{"error": message}
}
