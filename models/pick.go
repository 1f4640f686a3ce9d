package models

import (
	"fmt"
	"time"
)

// PickStatus represents the outcome of a pick
type PickStatus string

const (
	PickStatusPending PickStatus = "pending"
	PickStatusWin     PickStatus = "win"
	PickStatusLoss    PickStatus = "loss"
)

// Pick is one user's team selection for one week
type Pick struct {
	ID        string     `json:"id" bson:"_id"`
	UserID    string     `json:"userId" bson:"userId"`
	Week      int        `json:"week" bson:"week"`
	Team      string     `json:"team" bson:"pick"` // stored as "pick" to match existing documents
	Status    PickStatus `json:"status" bson:"status"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// PickDocID returns the document key for a (user, week) pair
func PickDocID(userID string, week int) string {
	return fmt.Sprintf("%s_week%d", userID, week)
}

// NewPick creates a pending pick keyed by (userID, week)
func NewPick(userID string, week int, team string, now time.Time) *Pick {
	return &Pick{
		ID:        PickDocID(userID, week),
		UserID:    userID,
		Week:      week,
		Team:      team,
		Status:    PickStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Resolve returns the status this pick earns against the winning set
func (p *Pick) Resolve(winningTeams map[string]bool) PickStatus {
	if winningTeams[p.Team] {
		return PickStatusWin
	}
	return PickStatusLoss
}

// CountsAsUsed reports whether the pick's team is spent for the season
func (p *Pick) CountsAsUsed() bool {
	return p.Status == PickStatusWin || p.Status == PickStatusPending
}
