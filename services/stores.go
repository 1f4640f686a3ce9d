package services

import (
	"context"
	"time"

	"nfl-survivor-go/cache"
	"nfl-survivor-go/models"
)

// Store interfaces implemented by the database package. Lookups that match
// nothing return database.ErrNotFound.

// WeekStore persists weeks
type WeekStore interface {
	Upsert(ctx context.Context, week *models.Week) error
	FindByNumber(ctx context.Context, number int) (*models.Week, error)
	FindAll(ctx context.Context) ([]*models.Week, error)
	FindDue(ctx context.Context, now time.Time) ([]*models.Week, error)
	// Claim leases a week that is still unprocessed and returns its current
	// state, or nil when another run holds it or has already finished it.
	Claim(ctx context.Context, number int, claimID string, now time.Time, lease time.Duration) (*models.Week, error)
	Release(ctx context.Context, number int, claimID string) error
	MarkResults(ctx context.Context, number int, claimID string, winningTeams []string, now time.Time) error
	MarkPicksProcessed(ctx context.Context, number int, claimID string, now time.Time) error
	SetLastGameEndTime(ctx context.Context, number int, end time.Time) error
}

// PickStore persists picks
type PickStore interface {
	Upsert(ctx context.Context, pick *models.Pick) (*models.Pick, error)
	FindByUserAndWeek(ctx context.Context, userID string, week int) (*models.Pick, error)
	FindByWeek(ctx context.Context, week int) ([]*models.Pick, error)
	FindByUser(ctx context.Context, userID string) ([]*models.Pick, error)
	SetStatuses(ctx context.Context, statuses map[string]models.PickStatus, now time.Time) error
}

// UserRepository persists users
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, uid string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindAll(ctx context.Context) ([]*models.User, error)
	FindActive(ctx context.Context) ([]*models.User, error)
	EliminateUsers(ctx context.Context, uids []string, week int, now time.Time) (int64, error)
	MigrateEliminatedWeek(ctx context.Context) (int64, error)
}

// RunStore keeps the audit trail of reconciliation runs
type RunStore interface {
	Save(ctx context.Context, report *models.ReconcileReport) error
}

// ScoreFeed fetches schedules and results from the external scoreboard
type ScoreFeed interface {
	FetchWeekResults(ctx context.Context, week int) ([]models.Game, error)
	FetchWeekSchedule(ctx context.Context, season, week int) ([]models.Game, error)
}

// RunLocker serializes reconciliation runs across processes
type RunLocker interface {
	TryLock(ctx context.Context) (cache.UnlockFunc, bool, error)
}

// EventPublisher emits domain events
type EventPublisher interface {
	Publish(ctx context.Context, stream string, payload interface{}) error
}

// Clock returns the current time
type Clock func() time.Time
