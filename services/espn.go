package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"nfl-survivor-go/logging"
	"nfl-survivor-go/models"
)

const (
	defaultFeedBaseURL = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"
	defaultFeedTimeout = 10 * time.Second

	// regularSeasonType is ESPN's seasontype for the regular season
	regularSeasonType = 2
)

var (
	// ErrFeedUnavailable covers transport failures and non-2xx responses
	ErrFeedUnavailable = crerr.New("score feed unavailable")

	// ErrFeedFormat covers responses that cannot be interpreted
	ErrFeedFormat = crerr.New("score feed returned malformed data")
)

// FeedConfig configures the ESPN scoreboard client
type FeedConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
}

// ESPNService handles ESPN scoreboard interactions
type ESPNService struct {
	client  *http.Client
	baseURL string
	logger  *logging.Logger
}

// NewESPNService creates a new ESPN service
func NewESPNService(cfg FeedConfig) *ESPNService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFeedTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultFeedBaseURL
	}

	return &ESPNService{
		client:  client,
		baseURL: baseURL,
		logger:  logging.WithPrefix("ESPN"),
	}
}

// ESPN API response structures
type espnResponse struct {
	Events *[]espnEvent `json:"events"`
}

type espnEvent struct {
	ID           string            `json:"id"`
	Date         string            `json:"date"`
	Competitions []espnCompetition `json:"competitions"`
}

type espnCompetition struct {
	Date        string           `json:"date"`
	Competitors []espnCompetitor `json:"competitors"`
}

type espnCompetitor struct {
	HomeAway string   `json:"homeAway"`
	Winner   bool     `json:"winner"`
	Team     espnTeam `json:"team"`
}

type espnTeam struct {
	ShortDisplayName string `json:"shortDisplayName"`
}

// FetchWeekResults returns the games of a week with winners filled in
// where the feed reports one
func (e *ESPNService) FetchWeekResults(ctx context.Context, week int) ([]models.Game, error) {
	query := url.Values{}
	query.Set("week", strconv.Itoa(week))

	games, err := e.fetch(ctx, query)
	if err != nil {
		return nil, crerr.Wrapf(err, "fetch results for week %d", week)
	}

	e.logger.Infof("Week %d: %d games, %d winners", week, len(games), len(models.WinningTeams(games)))
	return games, nil
}

// FetchWeekSchedule returns the regular-season schedule of a week
func (e *ESPNService) FetchWeekSchedule(ctx context.Context, season, week int) ([]models.Game, error) {
	query := url.Values{}
	query.Set("seasontype", strconv.Itoa(regularSeasonType))
	query.Set("week", strconv.Itoa(week))
	query.Set("dates", strconv.Itoa(season))

	games, err := e.fetch(ctx, query)
	if err != nil {
		return nil, crerr.Wrapf(err, "fetch schedule for season %d week %d", season, week)
	}
	return games, nil
}

func (e *ESPNService) fetch(ctx context.Context, query url.Values) ([]models.Game, error) {
	endpoint := e.baseURL + "/scoreboard?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "create feed request")
	}
	req.Header.Set("Accept", "application/json")

	e.logger.Debugf("GET %s", endpoint)
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "request scoreboard"), ErrFeedUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, crerr.Mark(crerr.Newf("scoreboard returned status %d", resp.StatusCode), ErrFeedUnavailable)
	}

	var payload espnResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		var netErr net.Error
		if crerr.As(err, &netErr) || crerr.Is(err, context.DeadlineExceeded) || crerr.Is(err, context.Canceled) {
			return nil, crerr.Mark(crerr.Wrap(err, "read scoreboard"), ErrFeedUnavailable)
		}
		return nil, crerr.Mark(crerr.Wrap(err, "decode scoreboard"), ErrFeedFormat)
	}
	if payload.Events == nil {
		return nil, crerr.Mark(crerr.New("scoreboard has no events field"), ErrFeedFormat)
	}

	return convertEvents(*payload.Events)
}

// convertEvents maps scoreboard events onto games, preserving feed order
func convertEvents(events []espnEvent) ([]models.Game, error) {
	games := make([]models.Game, 0, len(events))
	for _, event := range events {
		game, err := convertEvent(event)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, nil
}

func convertEvent(event espnEvent) (models.Game, error) {
	if len(event.Competitions) == 0 || len(event.Competitions[0].Competitors) == 0 {
		return models.Game{}, crerr.Mark(crerr.Newf("event %s has no competitors", event.ID), ErrFeedFormat)
	}
	competition := event.Competitions[0]

	game := models.Game{ID: event.ID}
	for i, competitor := range competition.Competitors {
		name := strings.TrimSpace(competitor.Team.ShortDisplayName)
		if name == "" {
			return models.Game{}, crerr.Mark(crerr.Newf("event %s competitor %d has no team name", event.ID, i), ErrFeedFormat)
		}

		switch competitor.HomeAway {
		case "home":
			game.Home = name
		case "away":
			game.Away = name
		default:
			if game.Home == "" {
				game.Home = name
			} else {
				game.Away = name
			}
		}

		if competitor.Winner {
			game.Winner = name
		}
	}

	date := competition.Date
	if date == "" {
		date = event.Date
	}
	game.StartTime = parseFeedTime(date)

	return game, nil
}

// parseFeedTime accepts ESPN's minute-precision timestamps ("2024-09-08T17:00Z")
// as well as full RFC 3339. Unparseable values yield the zero time.
func parseFeedTime(value string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04Z07:00", time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

// String identifies the feed in logs
func (e *ESPNService) String() string {
	return fmt.Sprintf("ESPN scoreboard (%s)", e.baseURL)
}
