package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nfl-survivor-go/cache"
	"nfl-survivor-go/logging"
	"nfl-survivor-go/models"
)

// DefaultClaimLease bounds how long one run may hold a week
const DefaultClaimLease = 5 * time.Minute

// ReconciliationDeps wires the reconciliation job. Lock, Events, Runs and
// Clock are optional.
type ReconciliationDeps struct {
	Weeks  WeekStore
	Picks  PickStore
	Users  UserRepository
	Feed   ScoreFeed
	Runs   RunStore
	Lock   RunLocker
	Events EventPublisher
	Clock  Clock
	Lease  time.Duration
}

// ReconciliationService applies final results to picks and eliminates users
type ReconciliationService struct {
	weeks  WeekStore
	picks  PickStore
	users  UserRepository
	feed   ScoreFeed
	runs   RunStore
	lock   RunLocker
	events EventPublisher
	now    Clock
	lease  time.Duration
	logger *logging.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(deps ReconciliationDeps) *ReconciliationService {
	s := &ReconciliationService{
		weeks:  deps.Weeks,
		picks:  deps.Picks,
		users:  deps.Users,
		feed:   deps.Feed,
		runs:   deps.Runs,
		lock:   deps.Lock,
		events: deps.Events,
		now:    deps.Clock,
		lease:  deps.Lease,
		logger: logging.WithPrefix("Reconcile"),
	}
	if s.lock == nil {
		s.lock = cache.NoopLock{}
	}
	if s.events == nil {
		s.events = cache.NoopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.lease <= 0 {
		s.lease = DefaultClaimLease
	}
	return s
}

// Run processes every due week once, in week order. Per-week failures are
// recorded in the report and never abort the run; the returned error is
// reserved for failures that prevent the run from starting. A week left with
// stored results but unresolved picks holds back every later week until a
// following run finishes it.
func (s *ReconciliationService) Run(ctx context.Context, trigger models.Trigger) (*models.ReconcileReport, error) {
	report := &models.ReconcileReport{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: s.now(),
		Weeks:     []models.WeekOutcome{},
	}

	unlock, ok, err := s.lock.TryLock(ctx)
	if err != nil {
		s.finish(ctx, report, err)
		return report, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		s.logger.Infof("Run %s skipped: another reconciliation holds the lock", report.RunID)
		report.Skipped = true
		s.finish(ctx, report, nil)
		return report, nil
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warnf("Run %s: %v", report.RunID, err)
		}
	}()

	due, err := s.weeks.FindDue(ctx, report.StartedAt)
	if err != nil {
		s.finish(ctx, report, err)
		return report, fmt.Errorf("failed to query due weeks: %w", err)
	}

	if len(due) == 0 {
		s.logger.Debugf("Run %s: no weeks to process", report.RunID)
	}

	blockedBy := 0
	for _, week := range due {
		if blockedBy != 0 {
			report.Weeks = append(report.Weeks, models.WeekOutcome{
				Week:   week.Number,
				Status: models.WeekOutcomeSkipped,
				Error:  fmt.Sprintf("waiting for week %d pick resolution", blockedBy),
			})
			continue
		}
		outcome, unresolved := s.processWeek(ctx, week, report.RunID)
		report.Weeks = append(report.Weeks, outcome)
		if unresolved {
			// eliminations must be applied in week order
			s.logger.Warnf("Run %s: week %d results stored but picks unresolved, holding later weeks", report.RunID, week.Number)
			blockedBy = week.Number
		}
	}

	s.finish(ctx, report, nil)
	return report, nil
}

// finish stamps the report and records it; both writes are best effort
func (s *ReconciliationService) finish(ctx context.Context, report *models.ReconcileReport, runErr error) {
	report.FinishedAt = s.now()
	if runErr != nil {
		report.Error = runErr.Error()
	}

	ctx = context.WithoutCancel(ctx)
	if s.runs != nil {
		if err := s.runs.Save(ctx, report); err != nil {
			s.logger.Warnf("Run %s: failed to save audit record: %v", report.RunID, err)
		}
	}
	if !report.NoWork() {
		if err := s.events.Publish(ctx, cache.ReconcileRunStream, report); err != nil {
			s.logger.Warnf("Run %s: failed to publish run event: %v", report.RunID, err)
		}
	}

	s.logger.Infof("Run %s (%s) finished: %d processed, %d resumed, %d failed, %d skipped",
		report.RunID, report.Trigger,
		report.Count(models.WeekOutcomeProcessed), report.Count(models.WeekOutcomeResumed),
		report.Count(models.WeekOutcomeFailed), report.Count(models.WeekOutcomeSkipped))
}

// processWeek reconciles one week under a claim. The week is left in a
// state the next run can pick up whenever a step fails. The returned flag is
// true when results are stored but the week's picks are not yet resolved.
func (s *ReconciliationService) processWeek(ctx context.Context, due *models.Week, claimID string) (models.WeekOutcome, bool) {
	outcome := models.WeekOutcome{Week: due.Number}
	logger := s.logger.WithPrefix(fmt.Sprintf("week%d", due.Number))

	resultsStored := due.ResultsProcessed
	fail := func(step string, err error) (models.WeekOutcome, bool) {
		logger.Errorf("%s: %v", step, err)
		outcome.Status = models.WeekOutcomeFailed
		outcome.Error = fmt.Sprintf("%s: %v", step, err)
		return outcome, resultsStored
	}

	week, err := s.weeks.Claim(ctx, due.Number, claimID, s.now(), s.lease)
	if err != nil {
		return fail("claim week", err)
	}
	if week == nil {
		logger.Infof("Claimed or finished by another run, skipping")
		outcome.Status = models.WeekOutcomeSkipped
		return outcome, false
	}
	defer func() {
		if err := s.weeks.Release(context.WithoutCancel(ctx), week.Number, claimID); err != nil {
			logger.Warnf("Failed to release claim: %v", err)
		}
	}()

	if !week.NeedsProcessing() {
		logger.Infof("Already processed, skipping")
		outcome.Status = models.WeekOutcomeSkipped
		return outcome, false
	}

	resultsStored = week.ResultsProcessed
	winners := week.WinningTeams
	if week.NeedsPickResolution() {
		logger.Infof("Results already stored, resolving picks only")
		outcome.Status = models.WeekOutcomeResumed
	} else {
		games, err := s.feed.FetchWeekResults(ctx, week.Number)
		if err != nil {
			return fail("fetch results", err)
		}
		winners = models.WinningTeams(games)
		if err := s.weeks.MarkResults(ctx, week.Number, claimID, winners, s.now()); err != nil {
			return fail("store results", err)
		}
		resultsStored = true
		outcome.Status = models.WeekOutcomeProcessed
	}
	outcome.WinningTeams = winners

	eliminated, err := s.resolvePicks(ctx, week.Number, winners, &outcome)
	if err != nil {
		return fail("resolve picks", err)
	}
	outcome.Eliminated = eliminated

	if err := s.weeks.MarkPicksProcessed(ctx, week.Number, claimID, s.now()); err != nil {
		return fail("mark picks processed", err)
	}

	logger.Infof("Done: %d winners, %d picks (%d win / %d loss), %d eliminated",
		len(winners), outcome.PicksScored, outcome.Wins, outcome.Losses, len(eliminated))

	if err := s.events.Publish(ctx, cache.WeekProcessedStream, outcome); err != nil {
		logger.Warnf("Failed to publish week event: %v", err)
	}
	return outcome, false
}

// resolvePicks scores every pick of the week and eliminates active users
// who lost or did not pick. It returns the uids it asked to eliminate.
func (s *ReconciliationService) resolvePicks(ctx context.Context, week int, winners []string, outcome *models.WeekOutcome) ([]string, error) {
	winSet := make(map[string]bool, len(winners))
	for _, team := range winners {
		winSet[team] = true
	}

	picks, err := s.picks.FindByWeek(ctx, week)
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]models.PickStatus, len(picks))
	submitted := make(map[string]bool, len(picks))
	losers := make(map[string]bool)
	for _, pick := range picks {
		status := pick.Resolve(winSet)
		statuses[pick.ID] = status
		submitted[pick.UserID] = true
		if status == models.PickStatusWin {
			outcome.Wins++
		} else {
			outcome.Losses++
			losers[pick.UserID] = true
		}
	}
	outcome.PicksScored = len(picks)

	now := s.now()
	if err := s.picks.SetStatuses(ctx, statuses, now); err != nil {
		return nil, err
	}

	active, err := s.users.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	var eliminated []string
	for _, user := range active {
		if !submitted[user.UID] || losers[user.UID] {
			eliminated = append(eliminated, user.UID)
		}
	}

	if _, err := s.users.EliminateUsers(ctx, eliminated, week, now); err != nil {
		return nil, err
	}
	return eliminated, nil
}
