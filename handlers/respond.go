package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"nfl-survivor-go/logging"
	"nfl-survivor-go/services"
)

// DeadlinePassedMessage is shown when a pick arrives after the week locks
const DeadlinePassedMessage = "Deadline has passed for this week. You cannot change your pick."

var validate = validator.New()

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps service errors to a status and a client-safe message.
// Anything unrecognized is logged and reported as a 500.
func writeError(w http.ResponseWriter, logger *logging.Logger, err error) {
	status, message := mapError(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("Request failed: %v", err)
	}
	writeErrorMessage(w, status, message)
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrDeadlinePassed):
		return http.StatusConflict, DeadlinePassedMessage
	case errors.Is(err, services.ErrTeamAlreadyUsed):
		return http.StatusConflict, "You have already used this team in another week."
	case errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict, "Email is already registered."
	case errors.Is(err, services.ErrTeamNotInWeek):
		return http.StatusBadRequest, "That team is not playing this week."
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password."
	case errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, services.ErrWeekNotFound):
		return http.StatusNotFound, "Week not found."
	case errors.Is(err, services.ErrNoWeeks):
		return http.StatusNotFound, "No weeks scheduled."
	case errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound, "User not found."
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// decodeAndValidate reads a JSON body into payload and runs its validate tags
func decodeAndValidate(ctx context.Context, r *http.Request, payload any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(payload); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", services.ErrInvalidInput, err)
	}
	if err := validate.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", services.ErrInvalidInput, err)
	}
	return nil
}
