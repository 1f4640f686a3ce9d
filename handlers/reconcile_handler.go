package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"

	"nfl-survivor-go/logging"
	"nfl-survivor-go/models"
)

// SchedulerKeyHeader carries the shared secret when it is not in the query
const SchedulerKeyHeader = "x-scheduler-key"

// Reconciler runs one reconciliation pass
type Reconciler interface {
	Run(ctx context.Context, trigger models.Trigger) (*models.ReconcileReport, error)
}

// ReconcileHandler exposes the scheduler-triggered results endpoint
type ReconcileHandler struct {
	reconciler Reconciler
	key        []byte
	logger     *logging.Logger
}

// NewReconcileHandler creates the handler. An empty key rejects every call.
func NewReconcileHandler(reconciler Reconciler, schedulerKey string) *ReconcileHandler {
	return &ReconcileHandler{
		reconciler: reconciler,
		key:        []byte(schedulerKey),
		logger:     logging.WithPrefix("ReconcileHandler"),
	}
}

// UpdateWeekResults handles GET/POST /tasks/update-week-results
func (h *ReconcileHandler) UpdateWeekResults(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.logger.Warnf("Rejected reconciliation trigger from %s", r.RemoteAddr)
		writeText(w, http.StatusForbidden, "Forbidden: Invalid key")
		return
	}

	report, err := h.reconciler.Run(r.Context(), models.TriggerHTTP)
	if err != nil {
		h.logger.Errorf("Error updating week results: %v", err)
		writeText(w, http.StatusInternalServerError, "Error updating week results")
		return
	}

	writeText(w, http.StatusOK, report.Summary())
}

func (h *ReconcileHandler) authorized(r *http.Request) bool {
	if len(h.key) == 0 {
		return false
	}
	provided := r.URL.Query().Get("key")
	if provided == "" {
		provided = r.Header.Get(SchedulerKeyHeader)
	}
	return subtle.ConstantTimeCompare([]byte(provided), h.key) == 1
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
