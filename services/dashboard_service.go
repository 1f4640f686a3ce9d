package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"nfl-survivor-go/database"
	"nfl-survivor-go/models"
)

// DashboardService builds the viewer's view of the current week
type DashboardService struct {
	weeks *WeekService
	picks *PickService
	store PickStore
	users UserRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(weeks *WeekService, picks *PickService, store PickStore, users UserRepository) *DashboardService {
	return &DashboardService{
		weeks: weeks,
		picks: picks,
		store: store,
		users: users,
	}
}

// Dashboard returns the current week with the viewer's pick, the teams the
// viewer already spent and the participant list. Other participants' picks
// stay hidden until the week's deadline has passed.
func (s *DashboardService) Dashboard(ctx context.Context, viewerID string, now time.Time) (*models.Dashboard, error) {
	viewer, err := s.users.FindByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load viewer: %w", err)
	}

	week, err := s.weeks.CurrentWeek(ctx, now)
	if err != nil {
		return nil, err
	}

	usedTeams, err := s.picks.UsedTeams(ctx, viewerID, week.Number)
	if err != nil {
		return nil, err
	}

	weekPicks, err := s.store.FindByWeek(ctx, week.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to load picks for week %d: %w", week.Number, err)
	}
	picksByUser := make(map[string]*models.Pick, len(weekPicks))
	for _, pick := range weekPicks {
		picksByUser[pick.UserID] = pick
	}

	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	deadlinePassed := week.IsDeadlinePassed(now)
	dashboard := &models.Dashboard{
		Week:           week.Number,
		Games:          week.Games,
		Deadline:       week.Deadline(),
		DeadlinePassed: deadlinePassed,
		UsedTeams:      usedTeams,
		Viewer:         viewer.ToSafeUser(),
		Participants:   make([]models.Participant, 0, len(users)),
	}
	if pick, ok := picksByUser[viewerID]; ok {
		dashboard.CurrentPick = pick.Team
	}

	for _, user := range users {
		participant := models.Participant{
			UID:            user.UID,
			DisplayName:    user.Name(),
			Eliminated:     !user.IsActive(),
			EliminatedWeek: user.EliminatedWeek,
			IsViewer:       user.UID == viewerID,
		}
		if pick, ok := picksByUser[user.UID]; ok {
			participant.HasPick = true
			if participant.IsViewer || deadlinePassed {
				participant.Pick = pick.Team
				participant.PickStatus = string(pick.Status)
			}
		}
		dashboard.Participants = append(dashboard.Participants, participant)
	}

	sort.SliceStable(dashboard.Participants, func(i, j int) bool {
		a, b := dashboard.Participants[i], dashboard.Participants[j]
		if a.Eliminated != b.Eliminated {
			return !a.Eliminated
		}
		return strings.ToLower(a.DisplayName) < strings.ToLower(b.DisplayName)
	})

	return dashboard, nil
}
