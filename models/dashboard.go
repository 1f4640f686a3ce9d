package models

import "time"

// Participant is one row of the dashboard's participant list
type Participant struct {
	UID            string `json:"uid"`
	DisplayName    string `json:"displayName"`
	Eliminated     bool   `json:"eliminated"`
	EliminatedWeek int    `json:"eliminatedWeek,omitempty"`
	HasPick        bool   `json:"hasPick"`
	Pick           string `json:"pick,omitempty"` // empty while hidden before the deadline
	PickStatus     string `json:"pickStatus,omitempty"`
	IsViewer       bool   `json:"isViewer"`
}

// Dashboard is the viewer's snapshot of the current week
type Dashboard struct {
	Week           int           `json:"week"`
	Games          []Game        `json:"games"`
	Deadline       time.Time     `json:"deadline"`
	DeadlinePassed bool          `json:"deadlinePassed"`
	CurrentPick    string        `json:"currentPick,omitempty"`
	UsedTeams      []string      `json:"usedTeams"`
	Viewer         User          `json:"viewer"`
	Participants   []Participant `json:"participants"`
}
