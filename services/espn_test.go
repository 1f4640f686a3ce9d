package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const week3Scoreboard = `{
  "events": [
    {
      "id": "401",
      "date": "2024-09-22T17:00Z",
      "competitions": [{
        "date": "2024-09-22T17:00Z",
        "competitors": [
          {"homeAway": "home", "winner": true,  "team": {"shortDisplayName": "Eagles"}},
          {"homeAway": "away", "winner": false, "team": {"shortDisplayName": "Giants"}}
        ]
      }]
    },
    {
      "id": "402",
      "date": "2024-09-22T20:25Z",
      "competitions": [{
        "competitors": [
          {"homeAway": "home", "winner": false, "team": {"shortDisplayName": "Cowboys"}},
          {"homeAway": "away", "winner": true,  "team": {"shortDisplayName": "Ravens"}}
        ]
      }]
    },
    {
      "id": "403",
      "date": "2024-09-23T00:20Z",
      "competitions": [{
        "competitors": [
          {"homeAway": "home", "team": {"shortDisplayName": "Jets"}},
          {"homeAway": "away", "team": {"shortDisplayName": "Patriots"}}
        ]
      }]
    }
  ]
}`

func newFeedServer(t *testing.T, handler http.HandlerFunc) (*ESPNService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewESPNService(FeedConfig{BaseURL: server.URL, Timeout: 2 * time.Second}), server
}

func TestFetchWeekResultsParsesWinners(t *testing.T) {
	t.Parallel()

	var gotQuery string
	feed, _ := newFeedServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scoreboard", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(week3Scoreboard))
	})

	games, err := feed.FetchWeekResults(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, games, 3)

	assert.Equal(t, "week=3", gotQuery)
	assert.Equal(t, "Eagles", games[0].Home)
	assert.Equal(t, "Giants", games[0].Away)
	assert.Equal(t, "Eagles", games[0].Winner)
	assert.Equal(t, "Ravens", games[1].Winner)
	assert.Empty(t, games[2].Winner, "undecided game has no winner")
	assert.Equal(t, time.Date(2024, 9, 22, 20, 25, 0, 0, time.UTC), games[1].StartTime, "falls back to event date")
}

func TestFetchWeekScheduleQuery(t *testing.T) {
	t.Parallel()

	var gotQuery map[string][]string
	feed, _ := newFeedServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"events": []}`))
	})

	games, err := feed.FetchWeekSchedule(context.Background(), 2024, 5)
	require.NoError(t, err)
	assert.Empty(t, games)
	assert.Equal(t, []string{"2"}, gotQuery["seasontype"])
	assert.Equal(t, []string{"5"}, gotQuery["week"])
	assert.Equal(t, []string{"2024"}, gotQuery["dates"])
}

func TestFetchErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusBadGateway, body: "oops", wantErr: ErrFeedUnavailable},
		{name: "not json", status: http.StatusOK, body: "<html>", wantErr: ErrFeedFormat},
		{name: "missing events", status: http.StatusOK, body: `{"leagues": []}`, wantErr: ErrFeedFormat},
		{name: "no competitors", status: http.StatusOK, body: `{"events": [{"id": "1", "competitions": []}]}`, wantErr: ErrFeedFormat},
		{
			name:    "unnamed team",
			status:  http.StatusOK,
			body:    `{"events": [{"id": "1", "competitions": [{"competitors": [{"homeAway": "home", "team": {}}]}]}]}`,
			wantErr: ErrFeedFormat,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			feed, _ := newFeedServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := feed.FetchWeekResults(context.Background(), 1)
			require.Error(t, err)
			assert.True(t, crerr.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestFetchTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	feed := NewESPNService(FeedConfig{BaseURL: server.URL})
	server.Close()

	_, err := feed.FetchWeekResults(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, crerr.Is(err, ErrFeedUnavailable))
}

func TestFetchTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	feed := NewESPNService(FeedConfig{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := feed.FetchWeekResults(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, crerr.Is(err, ErrFeedUnavailable))
}

func TestParseFeedTime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Date(2024, 9, 8, 17, 0, 0, 0, time.UTC), parseFeedTime("2024-09-08T17:00Z"))
	assert.Equal(t, time.Date(2024, 9, 8, 17, 0, 30, 0, time.UTC), parseFeedTime("2024-09-08T17:00:30Z"))
	assert.True(t, parseFeedTime("soon").IsZero())
}
