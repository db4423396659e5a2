package apisports

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/futboss/internal/platform/logging"
	"github.com/riskibarqy/futboss/internal/platform/resilience"
	"github.com/riskibarqy/futboss/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*ClientConfig)) (*Client, *[]time.Duration) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := ClientConfig{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		MaxRetries: 2,
		Logger:     logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 5,
			OpenTimeout:      time.Minute,
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	client := NewClient(cfg)
	var slept []time.Duration
	client.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return client, &slept
}

func TestClient_TeamsByLeague(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/teams", r.URL.Path)
		assert.Equal(t, "39", r.URL.Query().Get("league"))
		assert.Equal(t, "2023", r.URL.Query().Get("season"))
		assert.Equal(t, "test-key", r.Header.Get("x-rapidapi-key"))

		_, _ = w.Write([]byte(`{
			"results": 3,
			"errors": [],
			"response": [
				{"team": {"id": 33, "name": "Manchester United", "country": "England", "logo": "https://media.api-sports.io/football/teams/33.png"}},
				{"team": {"id": 0, "name": "Broken"}},
				{"team": {"id": 40, "name": " Liverpool ", "country": "England", "logo": ""}}
			]
		}`))
	}, nil)

	clubs, err := client.TeamsByLeague(context.Background(), 39, 2023)
	require.NoError(t, err)
	require.Len(t, clubs, 2)
	assert.Equal(t, usecase.ExternalClub{
		ExternalID: "33",
		Name:       "Manchester United",
		Country:    "England",
		LogoURL:    "https://media.api-sports.io/football/teams/33.png",
	}, clubs[0])
	assert.Equal(t, "Liverpool", clubs[1].Name)
}

func TestClient_PlayersByTeam_FollowsPaging(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/players", r.URL.Path)
		assert.Equal(t, "33", r.URL.Query().Get("team"))

		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(`{
				"paging": {"current": 1, "total": 2},
				"errors": [],
				"response": [{
					"player": {"id": 882, "name": "Bruno Fernandes", "age": 29, "nationality": "Portugal", "photo": "p882.png"},
					"statistics": [{
						"games": {"appearences": 35, "minutes": 3000, "position": "Midfielder", "rating": "7.45"},
						"shots": {"total": 80},
						"goals": {"total": 10, "conceded": null, "assists": 8, "saves": null},
						"passes": {"total": 1500, "accuracy": 80},
						"tackles": {"total": 40, "blocks": 2, "interceptions": 15},
						"duels": {"total": 300, "won": 150},
						"dribbles": {"success": 30},
						"fouls": {"drawn": 50, "committed": 30},
						"cards": {"yellow": 6, "red": 0},
						"penalty": {"scored": 3, "missed": 1, "saved": null}
					}]
				}]
			}`))
		case "2":
			_, _ = w.Write([]byte(`{
				"paging": {"current": 2, "total": 2},
				"errors": [],
				"response": [{
					"player": {"id": 19088, "name": "Altay Bayindir", "age": null, "nationality": "Turkey", "photo": ""},
					"statistics": []
				}]
			}`))
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}, nil)

	players, err := client.PlayersByTeam(context.Background(), "33", 2023)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, int32(2), calls.Load())

	keeper := players[0]
	assert.Equal(t, "Altay Bayindir", keeper.Name)
	assert.Zero(t, keeper.Age)
	assert.Nil(t, keeper.Stats)

	bruno := players[1]
	assert.Equal(t, "882", bruno.ExternalID)
	assert.Equal(t, "Midfielder", bruno.PositionLabel)
	require.NotNil(t, bruno.Stats)
	assert.Equal(t, 35, bruno.Stats.Appearances)
	assert.Equal(t, 10, bruno.Stats.Goals)
	assert.Nil(t, bruno.Stats.GoalsConceded)
	assert.InDelta(t, 80.0, bruno.Stats.PassAccuracy, 0.001)
	assert.InDelta(t, 7.45, bruno.Stats.Rating, 0.001)
	assert.Equal(t, 150, bruno.Stats.DuelsWon)
}

func TestClient_RetriesTransientStatusHonoringRetryAfter(t *testing.T) {
	var calls atomic.Int32
	client, slept := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"errors": [], "response": []}`))
	}, func(cfg *ClientConfig) {
		cfg.Backoff = resilience.BackoffConfig{Initial: 100 * time.Millisecond, Max: time.Second}
	})

	_, err := client.TeamsByLeague(context.Background(), 39, 2023)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []time.Duration{3 * time.Second}, *slept)
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client, slept := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}, nil)

	_, err := client.TeamsByLeague(context.Background(), 39, 2023)
	require.Error(t, err)
	assert.ErrorIs(t, err, errProviderRejected)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, *slept)
}

func TestClient_ErrorsObjectIsRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors": {"token": "Error/Missing application key."}, "response": []}`))
	}, nil)

	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errProviderRejected)
	assert.Contains(t, err.Error(), "Missing application key")
}

func TestClient_OpensCircuitAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, func(cfg *ClientConfig) {
		cfg.MaxRetries = 0
		cfg.CircuitBreaker.FailureThreshold = 2
	})

	for range 2 {
		err := client.Ping(context.Background())
		require.ErrorIs(t, err, errProviderTransient)
	}

	err := client.Ping(context.Background())
	require.ErrorIs(t, err, usecase.ErrDependencyUnavailable)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, resilience.CircuitStateOpen, client.Breaker().State)
}

func TestClient_MissingKeyIsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected without a key")
	}, func(cfg *ClientConfig) {
		cfg.APIKey = ""
	})

	err := client.Ping(context.Background())
	assert.ErrorIs(t, err, usecase.ErrDependencyUnavailable)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Zero(t, parseRetryAfter("", now))
	assert.Equal(t, 5*time.Second, parseRetryAfter("5", now))
	assert.Equal(t, maxRetryAfter, parseRetryAfter("3600", now))
	assert.Equal(t, 30*time.Second, parseRetryAfter(now.Add(30*time.Second).Format(http.TimeFormat), now))
	assert.Zero(t, parseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
}
