package models

import "time"

// Game is one matchup embedded in a Week. Team identifiers are the feed's
// short display names ("Eagles", "Cowboys").
type Game struct {
	ID        string    `json:"id" bson:"id"`
	Home      string    `json:"home" bson:"home"`
	Away      string    `json:"away" bson:"away"`
	StartTime time.Time `json:"startTime" bson:"startTime"`
	Winner    string    `json:"winner,omitempty" bson:"winner,omitempty"` // empty until decided; ties stay empty
}

// HasTeam reports whether team plays in this game
func (g *Game) HasTeam(team string) bool {
	return team != "" && (g.Home == team || g.Away == team)
}

// IsDecided returns true if the feed named a winner
func (g *Game) IsDecided() bool {
	return g.Winner != ""
}

// WinningTeams returns the set of winners across games, in schedule order.
// Games without a winner contribute nothing.
func WinningTeams(games []Game) []string {
	seen := make(map[string]bool, len(games))
	winners := make([]string, 0, len(games))
	for _, game := range games {
		if !game.IsDecided() || seen[game.Winner] {
			continue
		}
		seen[game.Winner] = true
		winners = append(winners, game.Winner)
	}
	return winners
}
