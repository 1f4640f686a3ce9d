package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"nfl-survivor-go/database"
	"nfl-survivor-go/logging"
	"nfl-survivor-go/models"
)

// RegularSeasonWeeks is the number of weeks in an NFL regular season
const RegularSeasonWeeks = 18

// WeekService manages the season schedule
type WeekService struct {
	weeks  WeekStore
	feed   ScoreFeed
	logger *logging.Logger
}

// NewWeekService creates a new week service
func NewWeekService(weeks WeekStore, feed ScoreFeed) *WeekService {
	return &WeekService{
		weeks:  weeks,
		feed:   feed,
		logger: logging.WithPrefix("WeekService"),
	}
}

// ImportResult summarizes a schedule import
type ImportResult struct {
	Imported []int
	Failed   map[int]string
}

// ImportSeason fetches and stores the schedule for weeks fromWeek..toWeek.
// A week that cannot be fetched is logged and skipped.
func (s *WeekService) ImportSeason(ctx context.Context, season, fromWeek, toWeek int) (*ImportResult, error) {
	if fromWeek < 1 || toWeek < fromWeek {
		return nil, fmt.Errorf("%w: invalid week range %d-%d", ErrInvalidInput, fromWeek, toWeek)
	}

	result := &ImportResult{Failed: map[int]string{}}
	for number := fromWeek; number <= toWeek; number++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		games, err := s.feed.FetchWeekSchedule(ctx, season, number)
		if err != nil {
			s.logger.Errorf("Week %d: failed to fetch schedule: %v", number, err)
			result.Failed[number] = err.Error()
			continue
		}

		week := models.NewWeek(season, number, games)
		if week.FirstGameStartTime.IsZero() {
			s.logger.Warnf("Week %d: schedule has no kickoff times, skipping", number)
			result.Failed[number] = "no kickoff times"
			continue
		}

		if err := s.weeks.Upsert(ctx, week); err != nil {
			s.logger.Errorf("Week %d: failed to store: %v", number, err)
			result.Failed[number] = err.Error()
			continue
		}

		s.logger.Infof("Week %d: imported %d games (first kickoff %s, ends %s)",
			number, len(games), week.FirstGameStartTime.Format(time.RFC3339), week.LastGameEndTime.Format(time.RFC3339))
		result.Imported = append(result.Imported, number)
	}
	return result, nil
}

// DeriveLastGameEndTimes recomputes lastGameEndTime for every stored week
// with games. Returns how many weeks were updated.
func (s *WeekService) DeriveLastGameEndTimes(ctx context.Context) (int, error) {
	weeks, err := s.weeks.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load weeks: %w", err)
	}

	updated := 0
	for _, week := range weeks {
		if !week.DeriveLastGameEndTime() {
			s.logger.Warnf("Week %d: no games with start times", week.Number)
			continue
		}
		if err := s.weeks.SetLastGameEndTime(ctx, week.Number, week.LastGameEndTime); err != nil {
			return updated, fmt.Errorf("failed to update week %d: %w", week.Number, err)
		}
		s.logger.Infof("Week %d: lastGameEndTime=%s", week.Number, week.LastGameEndTime.Format(time.RFC3339))
		updated++
	}
	return updated, nil
}

// CurrentWeek returns the first week (by kickoff) that has not ended at
// now, or the last week once the season is over
func (s *WeekService) CurrentWeek(ctx context.Context, now time.Time) (*models.Week, error) {
	weeks, err := s.weeks.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load weeks: %w", err)
	}
	if len(weeks) == 0 {
		return nil, ErrNoWeeks
	}

	sort.SliceStable(weeks, func(i, j int) bool {
		return weeks[i].FirstGameStartTime.Before(weeks[j].FirstGameStartTime)
	})

	for _, week := range weeks {
		if !now.After(week.LastGameEndTime) {
			return week, nil
		}
	}
	return weeks[len(weeks)-1], nil
}

// ListWeeks returns every week ordered by number
func (s *WeekService) ListWeeks(ctx context.Context) ([]*models.Week, error) {
	weeks, err := s.weeks.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load weeks: %w", err)
	}
	if weeks == nil {
		weeks = []*models.Week{}
	}
	return weeks, nil
}

// GetWeek returns one week
func (s *WeekService) GetWeek(ctx context.Context, number int) (*models.Week, error) {
	week, err := s.weeks.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrWeekNotFound
		}
		return nil, fmt.Errorf("failed to load week %d: %w", number, err)
	}
	return week, nil
}
