package models

import (
	"fmt"
	"time"
)

const (
	// GameDurationMargin is added to the latest kickoff to estimate when a week ends
	GameDurationMargin = 4 * time.Hour

	// PickDeadlineMargin is how long before the first kickoff picks lock
	PickDeadlineMargin = 10 * time.Minute
)

// Week is one scheduling period of the season
type Week struct {
	ID                 string     `json:"-" bson:"_id"`
	Number             int        `json:"week" bson:"week"`
	Season             int        `json:"season" bson:"season"`
	Games              []Game     `json:"games" bson:"games"`
	FirstGameStartTime time.Time  `json:"firstGameStartTime" bson:"firstGameStartTime"`
	LastGameEndTime    time.Time  `json:"lastGameEndTime" bson:"lastGameEndTime"`
	ResultsProcessed   bool       `json:"resultsProcessed" bson:"resultsProcessed"`
	PicksProcessed     *bool      `json:"picksProcessed,omitempty" bson:"picksProcessed,omitempty"`
	WinningTeams       []string   `json:"winningTeams,omitempty" bson:"winningTeams,omitempty"`
	ClaimedUntil       *time.Time `json:"-" bson:"claimedUntil,omitempty"`
	ClaimID            string     `json:"-" bson:"claimId,omitempty"`
	UpdatedAt          time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// WeekDocID returns the document key for a week number
func WeekDocID(week int) string {
	return fmt.Sprintf("week_%d", week)
}

// NewWeek builds a week from its schedule, deriving both boundary timestamps
func NewWeek(season, number int, games []Game) *Week {
	week := &Week{
		ID:     WeekDocID(number),
		Number: number,
		Season: season,
		Games:  games,
	}
	week.FirstGameStartTime = week.EarliestKickoff()
	week.DeriveLastGameEndTime()
	return week
}

// EarliestKickoff returns the earliest game start, or the zero time for an empty schedule
func (w *Week) EarliestKickoff() time.Time {
	var earliest time.Time
	for _, game := range w.Games {
		if game.StartTime.IsZero() {
			continue
		}
		if earliest.IsZero() || game.StartTime.Before(earliest) {
			earliest = game.StartTime
		}
	}
	return earliest
}

// DeriveLastGameEndTime sets LastGameEndTime to the latest kickoff plus
// GameDurationMargin. Returns false when no game has a start time.
func (w *Week) DeriveLastGameEndTime() bool {
	var latest time.Time
	for _, game := range w.Games {
		if game.StartTime.After(latest) {
			latest = game.StartTime
		}
	}
	if latest.IsZero() {
		return false
	}
	w.LastGameEndTime = latest.Add(GameDurationMargin)
	return true
}

// Deadline returns the pick cutoff for the week
func (w *Week) Deadline() time.Time {
	return w.FirstGameStartTime.Add(-PickDeadlineMargin)
}

// IsDeadlinePassed reports whether picks are locked at now
func (w *Week) IsDeadlinePassed(now time.Time) bool {
	return !now.Before(w.Deadline())
}

// HasTeam reports whether team plays in any of the week's games
func (w *Week) HasTeam(team string) bool {
	for i := range w.Games {
		if w.Games[i].HasTeam(team) {
			return true
		}
	}
	return false
}

// Teams returns every team on the schedule, in schedule order
func (w *Week) Teams() []string {
	teams := make([]string, 0, len(w.Games)*2)
	for _, game := range w.Games {
		teams = append(teams, game.Away, game.Home)
	}
	return teams
}

// NeedsPickResolution is true for a week whose results were written but
// whose picks and eliminations were never committed
func (w *Week) NeedsPickResolution() bool {
	return w.ResultsProcessed && w.PicksProcessed != nil && !*w.PicksProcessed
}

// NeedsProcessing is true while reconciliation still has work on the week.
// A legacy document with resultsProcessed and no picksProcessed is done.
func (w *Week) NeedsProcessing() bool {
	return !w.ResultsProcessed || w.NeedsPickResolution()
}
