package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfl-survivor-go/middleware"
	"nfl-survivor-go/models"
	"nfl-survivor-go/services"
)

type stubReconciler struct {
	report *models.ReconcileReport
	err    error
	calls  int
	last   models.Trigger
}

func (s *stubReconciler) Run(_ context.Context, trigger models.Trigger) (*models.ReconcileReport, error) {
	s.calls++
	s.last = trigger
	return s.report, s.err
}

type stubAuth struct {
	users map[string]*models.User // token -> user
}

func (s *stubAuth) Signup(_ context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	if req.Email == "taken@example.com" {
		return nil, services.ErrEmailTaken
	}
	user := &models.User{UID: "new", Email: req.Email, DisplayName: req.DisplayName}
	return &models.AuthResponse{User: user.ToSafeUser(), Token: "tok-new"}, nil
}

func (s *stubAuth) Login(_ context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if req.Password != "hunter22" {
		return nil, services.ErrInvalidCredentials
	}
	user := &models.User{UID: "u1", Email: req.Email}
	return &models.AuthResponse{User: user.ToSafeUser(), Token: "good"}, nil
}

func (s *stubAuth) TokenExpiry() time.Duration { return time.Hour }

func (s *stubAuth) GetUserFromToken(_ context.Context, token string) (*models.User, error) {
	if user, ok := s.users[token]; ok {
		return user, nil
	}
	return nil, services.ErrInvalidToken
}

type stubPicks struct {
	submitErr error
	picks     []*models.Pick
}

func (s *stubPicks) SubmitPick(_ context.Context, userID string, week int, team string) (*models.Pick, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return models.NewPick(userID, week, team, time.Now()), nil
}

func (s *stubPicks) GetUserPicks(context.Context, string) ([]*models.Pick, error) {
	return s.picks, nil
}

type stubWeeks map[int]*models.Week

func (s stubWeeks) ListWeeks(context.Context) ([]*models.Week, error) {
	out := make([]*models.Week, 0, len(s))
	for i := 1; i <= len(s); i++ {
		out = append(out, s[i])
	}
	return out, nil
}

func (s stubWeeks) GetWeek(_ context.Context, n int) (*models.Week, error) {
	if w, ok := s[n]; ok {
		return w, nil
	}
	return nil, services.ErrWeekNotFound
}

type stubDashboard struct{}

func (stubDashboard) Dashboard(_ context.Context, viewerID string, _ time.Time) (*models.Dashboard, error) {
	return &models.Dashboard{Week: 3, Viewer: models.User{UID: viewerID}}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	handler    http.Handler
	reconciler *stubReconciler
	picks      *stubPicks
}

func newTestServer(t *testing.T, key string) *testServer {
	t.Helper()
	auth := &stubAuth{users: map[string]*models.User{"good": {UID: "u1", Email: "u1@example.com"}}}
	rec := &stubReconciler{report: &models.ReconcileReport{}}
	picks := &stubPicks{}
	weeks := stubWeeks{1: models.NewWeek(2025, 1, nil)}

	router := NewRouter(RouterDeps{
		Auth:      NewAuthHandler(auth, false),
		Picks:     NewPickHandler(picks),
		Weeks:     NewWeekHandler(weeks),
		Dashboard: NewDashboardHandler(stubDashboard{}),
		Reconcile: NewReconcileHandler(rec, key),
		Health:    NewHealthHandler(stubPinger{}, nil),
		AuthMW:    middleware.NewAuthMiddleware(auth),
	})
	return &testServer{handler: router, reconciler: rec, picks: picks}
}

func (s *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

var bearer = map[string]string{"Authorization": "Bearer good"}

func TestUpdateWeekResultsKeyCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		configured string
		path       string
		headers    map[string]string
		wantStatus int
		wantRun    bool
	}{
		{"query key", "s3cret", "/tasks/update-week-results?key=s3cret", nil, http.StatusOK, true},
		{"header key", "s3cret", "/tasks/update-week-results", map[string]string{SchedulerKeyHeader: "s3cret"}, http.StatusOK, true},
		{"wrong key", "s3cret", "/tasks/update-week-results?key=nope", nil, http.StatusForbidden, false},
		{"missing key", "s3cret", "/tasks/update-week-results", nil, http.StatusForbidden, false},
		{"unconfigured key", "", "/tasks/update-week-results?key=", nil, http.StatusForbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.configured)
			rec := srv.do(http.MethodPost, tt.path, "", tt.headers)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantRun {
				assert.Equal(t, 1, srv.reconciler.calls)
				assert.Equal(t, models.TriggerHTTP, srv.reconciler.last)
			} else {
				assert.Equal(t, 0, srv.reconciler.calls)
				assert.Equal(t, "Forbidden: Invalid key", rec.Body.String())
			}
		})
	}
}

func TestUpdateWeekResultsResponses(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, "k")
	rec := srv.do(http.MethodGet, "/tasks/update-week-results?key=k", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No weeks to process.", rec.Body.String())

	srv.reconciler.report = &models.ReconcileReport{Weeks: []models.WeekOutcome{
		{Week: 3, Status: models.WeekOutcomeProcessed, PicksScored: 4, Eliminated: []string{"c", "d"}},
	}}
	rec = srv.do(http.MethodGet, "/tasks/update-week-results?key=k", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Week results processed and users updated"))

	srv.reconciler.err = errors.New("mongo down")
	rec = srv.do(http.MethodGet, "/tasks/update-week-results?key=k", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error updating week results", rec.Body.String())
}

func TestSignupAndLoginSetCookie(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, "k")

	rec := srv.do(http.MethodPost, "/api/signup", `{"email":"fan@example.com","password":"hunter22","displayName":"Fan"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tok-new", resp.Token)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), middleware.AuthCookieName+"=tok-new")

	rec = srv.do(http.MethodPost, "/api/signup", `{"email":"taken@example.com","password":"hunter22"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(http.MethodPost, "/api/signup", `{"email":"not-an-email","password":"hunter22"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(http.MethodPost, "/api/login", `{"email":"fan@example.com","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(http.MethodPost, "/api/login", `{"email":"fan@example.com","password":"hunter22"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(http.MethodPost, "/api/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestAPIRequiresAuth(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, "k")

	for _, path := range []string{"/api/me", "/api/weeks", "/api/dashboard", "/api/picks"} {
		rec := srv.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := srv.do(http.MethodGet, "/api/me", "", bearer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"uid":"u1"`)
}

func TestSubmitPickErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		body       string
		wantStatus int
		wantError  string
	}{
		{"accepted", nil, `{"week":3,"team":"Chiefs"}`, http.StatusOK, ""},
		{"deadline", services.ErrDeadlinePassed, `{"week":3,"team":"Chiefs"}`, http.StatusConflict, DeadlinePassedMessage},
		{"repeat team", fmt.Errorf("week 3: %w", services.ErrTeamAlreadyUsed), `{"week":3,"team":"Chiefs"}`, http.StatusConflict, ""},
		{"off schedule", services.ErrTeamNotInWeek, `{"week":3,"team":"Chiefs"}`, http.StatusBadRequest, ""},
		{"unknown week", services.ErrWeekNotFound, `{"week":3,"team":"Chiefs"}`, http.StatusNotFound, ""},
		{"missing team", nil, `{"week":3}`, http.StatusBadRequest, ""},
		{"bad week", nil, `{"week":0,"team":"Chiefs"}`, http.StatusBadRequest, ""},
		{"malformed", nil, `{"week":`, http.StatusBadRequest, ""},
		{"backend", errors.New("boom"), `{"week":3,"team":"Chiefs"}`, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, "k")
			srv.picks.submitErr = tt.err

			rec := srv.do(http.MethodPost, "/api/picks", tt.body, bearer)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				var body errorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantError, body.Error)
			}
		})
	}
}

func TestListPicksAndWeeks(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, "k")
	srv.picks.picks = []*models.Pick{models.NewPick("u1", 1, "Bills", time.Now())}

	rec := srv.do(http.MethodGet, "/api/picks", "", bearer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"team":"Bills"`)

	rec = srv.do(http.MethodGet, "/api/weeks", "", bearer)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(http.MethodGet, "/api/weeks/1", "", bearer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"week":1`)

	rec = srv.do(http.MethodGet, "/api/weeks/9", "", bearer)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(http.MethodGet, "/api/dashboard", "", bearer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"week":3`)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewHealthHandler(stubPinger{}, stubPinger{}).Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok","cache":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewHealthHandler(stubPinger{}, stubPinger{err: errors.New("down")}).Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)

	rec = httptest.NewRecorder()
	NewHealthHandler(stubPinger{err: errors.New("down")}, nil).Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSecurityHeadersOnRoutes(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, "k")
	rec := srv.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
