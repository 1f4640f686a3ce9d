package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"nfl-survivor-go/logging"
	"nfl-survivor-go/models"
	"nfl-survivor-go/services"
)

// WeekReader lists scheduled weeks
type WeekReader interface {
	ListWeeks(ctx context.Context) ([]*models.Week, error)
	GetWeek(ctx context.Context, number int) (*models.Week, error)
}

// WeekHandler serves the week schedule
type WeekHandler struct {
	weeks  WeekReader
	logger *logging.Logger
}

// NewWeekHandler creates a new week handler
func NewWeekHandler(weeks WeekReader) *WeekHandler {
	return &WeekHandler{
		weeks:  weeks,
		logger: logging.WithPrefix("WeekHandler"),
	}
}

// ListWeeks handles GET /api/weeks
func (h *WeekHandler) ListWeeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.weeks.ListWeeks(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, weeks)
}

// GetWeek handles GET /api/weeks/{week}
func (h *WeekHandler) GetWeek(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(mux.Vars(r)["week"])
	if err != nil || number <= 0 {
		writeError(w, h.logger, fmt.Errorf("%w: week must be a positive integer", services.ErrInvalidInput))
		return
	}

	week, err := h.weeks.GetWeek(r.Context(), number)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}
