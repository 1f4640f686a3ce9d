package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"nfl-survivor-go/cache"
	"nfl-survivor-go/database"
	"nfl-survivor-go/models"
)

// In-memory stand-ins for the Mongo repositories. They follow the same
// filter semantics as the queries in the database package.

type fakeWeekStore struct {
	mu    sync.Mutex
	weeks map[int]*models.Week

	claimErr error
	markErr  error
}

func newFakeWeekStore(weeks ...*models.Week) *fakeWeekStore {
	s := &fakeWeekStore{weeks: map[int]*models.Week{}}
	for _, w := range weeks {
		copied := *w
		if copied.ID == "" {
			copied.ID = models.WeekDocID(copied.Number)
		}
		s.weeks[w.Number] = &copied
	}
	return s
}

func (s *fakeWeekStore) get(number int) *models.Week {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.weeks[number]
	if !ok {
		return nil
	}
	copied := *w
	return &copied
}

func (s *fakeWeekStore) Upsert(ctx context.Context, week *models.Week) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.weeks[week.Number]
	if !ok {
		copied := *week
		copied.ID = models.WeekDocID(week.Number)
		copied.ResultsProcessed = false
		copied.PicksProcessed = nil
		copied.WinningTeams = nil
		s.weeks[week.Number] = &copied
		return nil
	}
	existing.Season = week.Season
	existing.Games = week.Games
	existing.FirstGameStartTime = week.FirstGameStartTime
	existing.LastGameEndTime = week.LastGameEndTime
	return nil
}

func (s *fakeWeekStore) FindByNumber(ctx context.Context, number int) (*models.Week, error) {
	if w := s.get(number); w != nil {
		return w, nil
	}
	return nil, database.ErrNotFound
}

func (s *fakeWeekStore) sorted(match func(*models.Week) bool) []*models.Week {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Week
	for _, w := range s.weeks {
		if match(w) {
			copied := *w
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (s *fakeWeekStore) FindAll(ctx context.Context) ([]*models.Week, error) {
	return s.sorted(func(*models.Week) bool { return true }), nil
}

func (s *fakeWeekStore) FindDue(ctx context.Context, now time.Time) ([]*models.Week, error) {
	return s.sorted(func(w *models.Week) bool {
		if w.LastGameEndTime.After(now) {
			return false
		}
		return w.NeedsProcessing()
	}), nil
}

func (s *fakeWeekStore) Claim(ctx context.Context, number int, claimID string, now time.Time, lease time.Duration) (*models.Week, error) {
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.weeks[number]
	if !ok || !w.NeedsProcessing() {
		return nil, nil
	}
	if w.ClaimedUntil != nil && w.ClaimedUntil.After(now) {
		return nil, nil
	}
	until := now.Add(lease)
	w.ClaimedUntil = &until
	w.ClaimID = claimID
	copied := *w
	return &copied, nil
}

func (s *fakeWeekStore) Release(ctx context.Context, number int, claimID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.weeks[number]; ok && w.ClaimID == claimID {
		w.ClaimedUntil = nil
		w.ClaimID = ""
	}
	return nil
}

func (s *fakeWeekStore) MarkResults(ctx context.Context, number int, claimID string, winningTeams []string, now time.Time) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.weeks[number]
	if !ok || w.ClaimID != claimID {
		return database.ErrClaimLost
	}
	processed := false
	w.WinningTeams = append([]string{}, winningTeams...)
	w.ResultsProcessed = true
	w.PicksProcessed = &processed
	w.UpdatedAt = now
	return nil
}

func (s *fakeWeekStore) MarkPicksProcessed(ctx context.Context, number int, claimID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.weeks[number]
	if !ok || w.ClaimID != claimID {
		return database.ErrClaimLost
	}
	processed := true
	w.PicksProcessed = &processed
	w.UpdatedAt = now
	return nil
}

func (s *fakeWeekStore) SetLastGameEndTime(ctx context.Context, number int, end time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.weeks[number]
	if !ok {
		return database.ErrNotFound
	}
	w.LastGameEndTime = end
	return nil
}

type fakePickStore struct {
	mu    sync.Mutex
	picks map[string]*models.Pick

	setStatusesErr   error
	setStatusesCalls int
}

func newFakePickStore(picks ...*models.Pick) *fakePickStore {
	s := &fakePickStore{picks: map[string]*models.Pick{}}
	for _, p := range picks {
		copied := *p
		if copied.ID == "" {
			copied.ID = models.PickDocID(p.UserID, p.Week)
		}
		if copied.Status == "" {
			copied.Status = models.PickStatusPending
		}
		s.picks[copied.ID] = &copied
	}
	return s
}

func (s *fakePickStore) get(userID string, week int) *models.Pick {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.picks[models.PickDocID(userID, week)]
	if !ok {
		return nil
	}
	copied := *p
	return &copied
}

func (s *fakePickStore) Upsert(ctx context.Context, pick *models.Pick) (*models.Pick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := models.PickDocID(pick.UserID, pick.Week)
	stored, ok := s.picks[id]
	if !ok {
		stored = &models.Pick{ID: id, UserID: pick.UserID, Week: pick.Week, CreatedAt: pick.CreatedAt}
		s.picks[id] = stored
	}
	stored.Team = pick.Team
	stored.Status = models.PickStatusPending
	stored.UpdatedAt = pick.UpdatedAt
	copied := *stored
	return &copied, nil
}

func (s *fakePickStore) FindByUserAndWeek(ctx context.Context, userID string, week int) (*models.Pick, error) {
	if p := s.get(userID, week); p != nil {
		return p, nil
	}
	return nil, database.ErrNotFound
}

func (s *fakePickStore) filter(match func(*models.Pick) bool) []*models.Pick {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Pick
	for _, p := range s.picks {
		if match(p) {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *fakePickStore) FindByWeek(ctx context.Context, week int) ([]*models.Pick, error) {
	return s.filter(func(p *models.Pick) bool { return p.Week == week }), nil
}

func (s *fakePickStore) FindByUser(ctx context.Context, userID string) ([]*models.Pick, error) {
	return s.filter(func(p *models.Pick) bool { return p.UserID == userID }), nil
}

func (s *fakePickStore) SetStatuses(ctx context.Context, statuses map[string]models.PickStatus, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStatusesCalls++
	if s.setStatusesErr != nil {
		return s.setStatusesErr
	}
	for id, status := range statuses {
		if p, ok := s.picks[id]; ok {
			p.Status = status
			p.UpdatedAt = now
		}
	}
	return nil
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User

	eliminateErr error
	migrated     int64
	migrateErr   error
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: map[string]*models.User{}}
	for _, u := range users {
		copied := *u
		s.users[u.UID] = &copied
	}
	return s
}

func (s *fakeUserStore) get(uid string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return nil
	}
	copied := *u
	return &copied
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return database.ErrDuplicateKey
		}
	}
	copied := *user
	s.users[user.UID] = &copied
	return nil
}

func (s *fakeUserStore) FindByID(ctx context.Context, uid string) (*models.User, error) {
	if u := s.get(uid); u != nil {
		return u, nil
	}
	return nil, database.ErrNotFound
}

func (s *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *fakeUserStore) list(match func(*models.User) bool) []*models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.User
	for _, u := range s.users {
		if match(u) {
			copied := *u
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

func (s *fakeUserStore) FindAll(ctx context.Context) ([]*models.User, error) {
	return s.list(func(*models.User) bool { return true }), nil
}

func (s *fakeUserStore) FindActive(ctx context.Context) ([]*models.User, error) {
	return s.list(func(u *models.User) bool { return u.EliminatedWeek == 0 }), nil
}

func (s *fakeUserStore) EliminateUsers(ctx context.Context, uids []string, week int, now time.Time) (int64, error) {
	if s.eliminateErr != nil {
		return 0, s.eliminateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, uid := range uids {
		if u, ok := s.users[uid]; ok && u.EliminatedWeek == 0 {
			u.EliminatedWeek = week
			u.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (s *fakeUserStore) MigrateEliminatedWeek(ctx context.Context) (int64, error) {
	return s.migrated, s.migrateErr
}

type fakeFeed struct {
	mu        sync.Mutex
	results   map[int][]models.Game
	schedules map[int][]models.Game
	errs      map[int]error
	calls     []int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		results:   map[int][]models.Game{},
		schedules: map[int][]models.Game{},
		errs:      map[int]error{},
	}
}

func (f *fakeFeed) FetchWeekResults(ctx context.Context, week int) ([]models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, week)
	if err := f.errs[week]; err != nil {
		return nil, err
	}
	return f.results[week], nil
}

func (f *fakeFeed) FetchWeekSchedule(ctx context.Context, season, week int) ([]models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[week]; err != nil {
		return nil, err
	}
	games, ok := f.schedules[week]
	if !ok {
		return nil, errors.New("no schedule")
	}
	return games, nil
}

func (f *fakeFeed) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRunStore struct {
	mu   sync.Mutex
	runs []*models.ReconcileReport
}

func (s *fakeRunStore) Save(ctx context.Context, report *models.ReconcileReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *report
	s.runs = append(s.runs, &copied)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events map[string]int
}

func (p *fakePublisher) Publish(ctx context.Context, stream string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[string]int{}
	}
	p.events[stream]++
	return nil
}

type heldLock struct{}

func (heldLock) TryLock(context.Context) (cache.UnlockFunc, bool, error) {
	return nil, false, nil
}

type brokenLock struct{}

func (brokenLock) TryLock(context.Context) (cache.UnlockFunc, bool, error) {
	return nil, false, errors.New("redis down")
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
