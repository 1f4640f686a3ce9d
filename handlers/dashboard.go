package handlers

import (
	"context"
	"net/http"
	"time"

	"nfl-survivor-go/logging"
	"nfl-survivor-go/middleware"
	"nfl-survivor-go/models"
)

// DashboardProvider builds the viewer's dashboard
type DashboardProvider interface {
	Dashboard(ctx context.Context, viewerID string, now time.Time) (*models.Dashboard, error)
}

// DashboardHandler serves the main pool view
type DashboardHandler struct {
	dashboard DashboardProvider
	now       func() time.Time
	logger    *logging.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard DashboardProvider) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		now:       time.Now,
		logger:    logging.WithPrefix("DashboardHandler"),
	}
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	view, err := h.dashboard.Dashboard(r.Context(), user.UID, h.now())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
