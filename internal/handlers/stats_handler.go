package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/todoboard/backend/internal/models"
	"github.com/todoboard/backend/libs/auth/middleware"
	"github.com/todoboard/backend/libs/handlers"
	"go.uber.org/zap"
)

// StatsService is the interface that wraps the dashboard statistics query.
type StatsService interface {
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

// StatsHandler handles dashboard HTTP requests
type StatsHandler struct {
	handlers.BaseHandler
	statsService StatsService
}

// NewStatsHandler creates a new dashboard handler
func NewStatsHandler(statsService StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		BaseHandler:  handlers.BaseHandler{Logger: logger},
		statsService: statsService,
	}
}

// RegisterRoutes registers all dashboard routes
func (h *StatsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard/stats", h.GetDashboardStats)
}

// GetDashboardStats handles GET /dashboard/stats
// @Summary Dashboard statistics
// @Description Totals, counts by status, priority and category, and the five most recent todos.
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.DashboardStats
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 403 {object} handlers.ErrorResponse "Admin access required"
// @Router /dashboard/stats [get]
func (h *StatsHandler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.RequireAdmin(r.Context()); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	stats, err := h.statsService.GetDashboardStats(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, stats)
}
