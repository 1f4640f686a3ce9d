package models

import (
	"fmt"
	"strings"
	"time"
)

// WeekOutcomeStatus describes what a reconciliation run did with one week
type WeekOutcomeStatus string

const (
	WeekOutcomeProcessed WeekOutcomeStatus = "processed"
	WeekOutcomeResumed   WeekOutcomeStatus = "resumed" // results were already stored; only picks were resolved
	WeekOutcomeFailed    WeekOutcomeStatus = "failed"
	WeekOutcomeSkipped   WeekOutcomeStatus = "skipped" // held or finished by another run, or waiting on an earlier week
)

// Trigger names what started a reconciliation run
type Trigger string

const (
	TriggerHTTP Trigger = "http"
	TriggerCron Trigger = "cron"
	TriggerCLI  Trigger = "cli"
)

// WeekOutcome is the per-week result of a reconciliation run
type WeekOutcome struct {
	Week         int               `json:"week" bson:"week"`
	Status       WeekOutcomeStatus `json:"status" bson:"status"`
	WinningTeams []string          `json:"winningTeams,omitempty" bson:"winningTeams,omitempty"`
	PicksScored  int               `json:"picksScored" bson:"picksScored"`
	Wins         int               `json:"wins" bson:"wins"`
	Losses       int               `json:"losses" bson:"losses"`
	Eliminated   []string          `json:"eliminated,omitempty" bson:"eliminated,omitempty"`
	Error        string            `json:"error,omitempty" bson:"error,omitempty"`
}

// ReconcileReport summarizes one reconciliation run. It doubles as the
// audit record stored in reconcile_runs.
type ReconcileReport struct {
	RunID      string        `json:"runId" bson:"_id"`
	Trigger    Trigger       `json:"trigger" bson:"trigger"`
	StartedAt  time.Time     `json:"startedAt" bson:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt" bson:"finishedAt"`
	Skipped    bool          `json:"skipped" bson:"skipped"` // run lock held elsewhere
	Weeks      []WeekOutcome `json:"weeks" bson:"weeks"`
	Error      string        `json:"error,omitempty" bson:"error,omitempty"`
}

// NoWork is true when no week was due
func (r *ReconcileReport) NoWork() bool {
	return !r.Skipped && len(r.Weeks) == 0
}

// Count returns how many weeks ended with the given status
func (r *ReconcileReport) Count(status WeekOutcomeStatus) int {
	n := 0
	for _, outcome := range r.Weeks {
		if outcome.Status == status {
			n++
		}
	}
	return n
}

// Summary renders the human-readable response body for the trigger endpoint
func (r *ReconcileReport) Summary() string {
	if r.Skipped {
		return "Reconciliation already running."
	}
	if r.NoWork() {
		return "No weeks to process."
	}

	parts := make([]string, 0, len(r.Weeks))
	for _, outcome := range r.Weeks {
		switch outcome.Status {
		case WeekOutcomeProcessed, WeekOutcomeResumed:
			parts = append(parts, fmt.Sprintf("week %d %s (%d picks, %d eliminated)",
				outcome.Week, outcome.Status, outcome.PicksScored, len(outcome.Eliminated)))
		default:
			parts = append(parts, fmt.Sprintf("week %d %s", outcome.Week, outcome.Status))
		}
	}
	return "Week results processed and users updated: " + strings.Join(parts, "; ") + "."
}
