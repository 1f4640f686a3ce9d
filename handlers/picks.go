package handlers

import (
	"context"
	"net/http"

	"nfl-survivor-go/logging"
	"nfl-survivor-go/middleware"
	"nfl-survivor-go/models"
)

// PickSubmitter records and lists picks
type PickSubmitter interface {
	SubmitPick(ctx context.Context, userID string, week int, team string) (*models.Pick, error)
	GetUserPicks(ctx context.Context, userID string) ([]*models.Pick, error)
}

type submitPickRequest struct {
	Week int    `json:"week" validate:"required,min=1,max=25"`
	Team string `json:"team" validate:"required,max=64"`
}

// PickHandler serves the authenticated pick endpoints
type PickHandler struct {
	picks  PickSubmitter
	logger *logging.Logger
}

// NewPickHandler creates a new pick handler
func NewPickHandler(picks PickSubmitter) *PickHandler {
	return &PickHandler{
		picks:  picks,
		logger: logging.WithPrefix("PickHandler"),
	}
}

// ListPicks handles GET /api/picks
func (h *PickHandler) ListPicks(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	picks, err := h.picks.GetUserPicks(r.Context(), user.UID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, picks)
}

// SubmitPick handles POST /api/picks
func (h *PickHandler) SubmitPick(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)

	var req submitPickRequest
	if err := decodeAndValidate(r.Context(), r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	pick, err := h.picks.SubmitPick(r.Context(), user.UID, req.Week, req.Team)
	if err != nil {
		h.logger.Debugf("Pick rejected for %s week %d (%s): %v", user.UID, req.Week, req.Team, err)
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, pick)
}
