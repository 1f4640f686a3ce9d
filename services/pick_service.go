package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nfl-survivor-go/database"
	"nfl-survivor-go/logging"
	"nfl-survivor-go/models"
)

// PickService validates and stores weekly picks
type PickService struct {
	picks              PickStore
	weeks              WeekStore
	users              UserRepository
	enforceUniqueTeams bool
	now                Clock
	logger             *logging.Logger
}

// NewPickService creates a new pick service. When enforceUniqueTeams is set
// a team may be used only once per season (losses free nothing: a losing
// user is already eliminated).
func NewPickService(picks PickStore, weeks WeekStore, users UserRepository, enforceUniqueTeams bool) *PickService {
	return &PickService{
		picks:              picks,
		weeks:              weeks,
		users:              users,
		enforceUniqueTeams: enforceUniqueTeams,
		now:                time.Now,
		logger:             logging.WithPrefix("PickService"),
	}
}

// SubmitPick creates or replaces the user's pick for a week
func (s *PickService) SubmitPick(ctx context.Context, userID string, weekNumber int, team string) (*models.Pick, error) {
	team = strings.TrimSpace(team)
	if team == "" || weekNumber <= 0 {
		return nil, fmt.Errorf("%w: week and team are required", ErrInvalidInput)
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	week, err := s.weeks.FindByNumber(ctx, weekNumber)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrWeekNotFound
		}
		return nil, fmt.Errorf("failed to load week %d: %w", weekNumber, err)
	}

	now := s.now()
	if week.IsDeadlinePassed(now) {
		return nil, ErrDeadlinePassed
	}

	canonical, ok := scheduledTeam(week, team)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTeamNotInWeek, team)
	}

	if s.enforceUniqueTeams {
		used, err := s.usedTeams(ctx, userID, weekNumber)
		if err != nil {
			return nil, err
		}
		if used[canonical] {
			return nil, fmt.Errorf("%w: %s", ErrTeamAlreadyUsed, canonical)
		}
	}

	pick, err := s.picks.Upsert(ctx, models.NewPick(userID, weekNumber, canonical, now))
	if err != nil {
		return nil, fmt.Errorf("failed to save pick: %w", err)
	}

	s.logger.Infof("User %s picked %s for week %d", userID, canonical, weekNumber)
	return pick, nil
}

// GetUserPicks returns all of a user's picks ordered by week
func (s *PickService) GetUserPicks(ctx context.Context, userID string) ([]*models.Pick, error) {
	picks, err := s.picks.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load picks for %s: %w", userID, err)
	}
	if picks == nil {
		picks = []*models.Pick{}
	}
	return picks, nil
}

// UsedTeams lists the teams the user has spent in weeks other than excludeWeek
func (s *PickService) UsedTeams(ctx context.Context, userID string, excludeWeek int) ([]string, error) {
	picks, err := s.picks.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load picks for %s: %w", userID, err)
	}

	teams := []string{}
	for _, pick := range picks {
		if pick.Week != excludeWeek && pick.CountsAsUsed() {
			teams = append(teams, pick.Team)
		}
	}
	return teams, nil
}

func (s *PickService) usedTeams(ctx context.Context, userID string, excludeWeek int) (map[string]bool, error) {
	teams, err := s.UsedTeams(ctx, userID, excludeWeek)
	if err != nil {
		return nil, err
	}
	used := make(map[string]bool, len(teams))
	for _, team := range teams {
		used[team] = true
	}
	return used, nil
}

// scheduledTeam matches team against the week's schedule case-insensitively
// and returns the schedule's spelling
func scheduledTeam(week *models.Week, team string) (string, bool) {
	for _, scheduled := range week.Teams() {
		if strings.EqualFold(scheduled, team) {
			return scheduled, true
		}
	}
	return "", false
}
