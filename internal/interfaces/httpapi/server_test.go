package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/futboss/internal/domain/fantasy"
	"github.com/riskibarqy/futboss/internal/infrastructure/account/jwt"
	"github.com/riskibarqy/futboss/internal/infrastructure/account/password"
	"github.com/riskibarqy/futboss/internal/infrastructure/repository/memory"
	idgen "github.com/riskibarqy/futboss/internal/platform/id"
	"github.com/riskibarqy/futboss/internal/platform/logging"
	"github.com/riskibarqy/futboss/internal/platform/ttlstore"
	"github.com/riskibarqy/futboss/internal/usecase"
)

type testServerOptions struct {
	production       bool
	internalJobToken string
	rateLimitMax     int
	authRateLimitMax int
}

func newTestServer(t *testing.T, opts testServerOptions) http.Handler {
	t.Helper()

	logger := logging.NewNop()
	store := ttlstore.NewMemory()

	tokens, err := jwt.NewManager("test-secret-0123456789", "futboss-test")
	require.NoError(t, err)

	catalog := memory.NewCatalog(memory.SeedClubs(), memory.SeedRecords(), idgen.NewSequence("catalog"))
	teams := memory.NewTeamRepository()

	authService := usecase.NewAuthService(
		memory.NewUserRepository(),
		password.NewBcryptHasher(1),
		tokens,
		store,
		idgen.NewSequence("user"),
		usecase.AuthConfig{RegisteredTTL: time.Hour, GuestTTL: time.Hour},
		logger,
	)
	catalogService := usecase.NewCatalogService(catalog.Players(), catalog.Clubs(), logger)
	rosterService := usecase.NewRosterService(teams, catalog.Players(), idgen.NewSequence("team"), fantasy.DefaultRules(), logger)
	syncService := usecase.NewDataSyncService(
		nil,
		catalog.Clubs(),
		catalog.Clubs(),
		catalog.Players(),
		catalog.Players(),
		memory.NewPurger(catalog, teams),
		nil,
		usecase.DataSyncConfig{Production: opts.production},
		logger,
	)

	handler := NewHandler(authService, catalogService, rosterService, syncService, logger, false)
	return NewRouter(handler, authService, logger, RouterConfig{
		InternalJobToken: opts.internalJobToken,
		RateLimitStore:   store,
		RateLimitWindow:  time.Minute,
		RateLimitMax:     opts.rateLimitMax,
		AuthRateLimitMax: opts.authRateLimitMax,
	})
}

type apiResponse struct {
	Status  int            `json:"-"`
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
	Error   struct {
		Message string         `json:"message"`
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	Header http.Header `json:"-"`
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any, headers ...string) apiResponse {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = sonic.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.RemoteAddr = "192.0.2.1:1234"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out apiResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	out.Status = rec.Code
	out.Header = rec.Header()
	return out
}

func registerUser(t *testing.T, router http.Handler, username string) string {
	t.Helper()
	resp := doRequest(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    username + "@example.com",
		"username": username,
		"password": "Secret123",
	})
	require.Equal(t, http.StatusCreated, resp.Status, resp.Error.Message)
	token, _ := resp.Data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestServer(t, testServerOptions{})

	resp := doRequest(t, router, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "ok", resp.Data["status"])
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestServer(t, testServerOptions{})

	resp := doRequest(t, router, http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, usecase.CodeNotFound, resp.Error.Code)
}

func TestRouter_AuthFlow(t *testing.T) {
	router := newTestServer(t, testServerOptions{})
	token := registerUser(t, router, "ana_futbol")

	dup := doRequest(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "other@example.com",
		"username": "ana_futbol",
		"password": "Secret123",
	})
	require.Equal(t, http.StatusConflict, dup.Status)
	assert.Equal(t, usecase.CodeUserExists, dup.Error.Code)

	bad := doRequest(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"emailOrUsername": "ana_futbol",
		"password":        "Wrong123",
	})
	require.Equal(t, http.StatusUnauthorized, bad.Status)
	assert.Equal(t, usecase.CodeInvalidCredentials, bad.Error.Code)

	login := doRequest(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"emailOrUsername": "ana_futbol@example.com",
		"password":        "Secret123",
	})
	require.Equal(t, http.StatusOK, login.Status)
	assert.NotEmpty(t, login.Data["token"])

	me := doRequest(t, router, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, me.Status)
	userData := me.Data["user"].(map[string]any)
	assert.Equal(t, "ana_futbol", userData["username"])
	assert.Equal(t, false, userData["isGuest"])

	status := doRequest(t, router, http.MethodGet, "/api/auth/status", token, nil)
	require.Equal(t, http.StatusOK, status.Status)
	assert.Equal(t, true, status.Data["authenticated"])

	logout := doRequest(t, router, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, logout.Status)

	revoked := doRequest(t, router, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, revoked.Status)
}

func TestRouter_RegisterValidation(t *testing.T) {
	router := newTestServer(t, testServerOptions{})

	resp := doRequest(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "not-an-email",
		"username": "ab",
		"password": "weak",
	})
	require.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, usecase.CodeValidation, resp.Error.Code)
	fields, ok := resp.Error.Details["fields"].([]any)
	require.True(t, ok)
	assert.Len(t, fields, 3)
}

func TestRouter_RejectsUnknownFields(t *testing.T) {
	router := newTestServer(t, testServerOptions{})

	resp := doRequest(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"emailOrUsername": "ana",
		"password":        "Secret123",
		"role":            "admin",
	})
	require.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "invalid JSON payload", resp.Error.Message)
}

func TestRouter_GuestRestrictions(t *testing.T) {
	router := newTestServer(t, testServerOptions{})

	guest := doRequest(t, router, http.MethodPost, "/api/auth/guest", "", nil)
	require.Equal(t, http.StatusOK, guest.Status)
	token := guest.Data["token"].(string)
	assert.Equal(t, true, guest.Data["user"].(map[string]any)["isGuest"])

	list := doRequest(t, router, http.MethodGet, "/api/fantasy-teams", token, nil)
	require.Equal(t, http.StatusOK, list.Status)
	assert.Equal(t, usecase.GuestNoTeamsMessage, list.Data["message"])
	assert.EqualValues(t, 0, list.Data["count"])

	create := doRequest(t, router, http.MethodPost, "/api/fantasy-teams", token, map[string]any{"name": "Guest XI"})
	require.Equal(t, http.StatusForbidden, create.Status)
	assert.Equal(t, usecase.CodeGuestRestricted, create.Error.Code)

	anonymous := doRequest(t, router, http.MethodGet, "/api/fantasy-teams", "", nil)
	assert.Equal(t, http.StatusUnauthorized, anonymous.Status)
}

func TestRouter_TeamBudget(t *testing.T) {
	router := newTestServer(t, testServerOptions{})
	token := registerUser(t, router, "budget_boss")

	tooExpensive := doRequest(t, router, http.MethodPost, "/api/fantasy-teams", token, map[string]any{
		"name":    "Galacticos",
		"players": []string{"player-vinicius"},
	})
	require.Equal(t, http.StatusBadRequest, tooExpensive.Status)
	assert.Equal(t, usecase.CodeBudgetExceeded, tooExpensive.Error.Code)

	created := doRequest(t, router, http.MethodPost, "/api/fantasy-teams", token, map[string]any{
		"name":      "Los Blancos",
		"formation": "4-3-3",
		"players":   []string{"player-rodrygo"},
	})
	require.Equal(t, http.StatusCreated, created.Status, created.Error.Message)
	team := created.Data["team"].(map[string]any)
	teamID := team["id"].(string)
	assert.EqualValues(t, 65_000_000, team["totalValue"])
	assert.EqualValues(t, 35_000_000, team["remainingBudget"])

	insufficient := doRequest(t, router, http.MethodPost, "/api/fantasy-teams/"+teamID+"/players", token, map[string]string{
		"playerId": "player-pedri",
	})
	require.Equal(t, http.StatusBadRequest, insufficient.Status)
	assert.Equal(t, usecase.CodeInsufficientBudget, insufficient.Error.Code)

	added := doRequest(t, router, http.MethodPost, "/api/fantasy-teams/"+teamID+"/players", token, map[string]string{
		"playerId": "player-endrick",
	})
	require.Equal(t, http.StatusCreated, added.Status, added.Error.Message)
	assert.EqualValues(t, 0, added.Data["remainingBudget"])

	duplicate := doRequest(t, router, http.MethodPost, "/api/fantasy-teams/"+teamID+"/players", token, map[string]string{
		"playerId": "player-rodrygo",
	})
	require.Equal(t, http.StatusConflict, duplicate.Status)
	assert.Equal(t, usecase.CodePlayerAlreadyInTeam, duplicate.Error.Code)

	removed := doRequest(t, router, http.MethodDelete, "/api/fantasy-teams/"+teamID+"/players/player-rodrygo", token, nil)
	require.Equal(t, http.StatusOK, removed.Status)
	assert.EqualValues(t, 65_000_000, removed.Data["refund"])
	assert.EqualValues(t, 65_000_000, removed.Data["remainingBudget"])

	detail := doRequest(t, router, http.MethodGet, "/api/fantasy-teams/"+teamID, token, nil)
	require.Equal(t, http.StatusOK, detail.Status)
	assert.EqualValues(t, 1, detail.Data["team"].(map[string]any)["playerCount"])

	otherToken := registerUser(t, router, "rival_boss")
	hidden := doRequest(t, router, http.MethodGet, "/api/fantasy-teams/"+teamID, otherToken, nil)
	require.Equal(t, http.StatusNotFound, hidden.Status)
	assert.Equal(t, usecase.CodeTeamNotFound, hidden.Error.Code)

	deleted := doRequest(t, router, http.MethodDelete, "/api/fantasy-teams/"+teamID, token, nil)
	require.Equal(t, http.StatusOK, deleted.Status)
	assert.Equal(t, "fantasy team deleted", deleted.Message)
}

func TestRouter_Catalog(t *testing.T) {
	router := newTestServer(t, testServerOptions{})

	player := doRequest(t, router, http.MethodGet, "/api/players/player-vinicius", "", nil)
	require.Equal(t, http.StatusOK, player.Status)
	assert.Equal(t, "Vinícius Jr.", player.Data["player"].(map[string]any)["name"])

	missing := doRequest(t, router, http.MethodGet, "/api/players/player-unknown", "", nil)
	require.Equal(t, http.StatusNotFound, missing.Status)
	assert.Equal(t, usecase.CodePlayerNotFound, missing.Error.Code)

	badQuery := doRequest(t, router, http.MethodGet, "/api/players?page=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, badQuery.Status)

	clubPlayers := doRequest(t, router, http.MethodGet, "/api/clubs/"+memory.ClubIDRealMadrid+"/players", "", nil)
	require.Equal(t, http.StatusOK, clubPlayers.Status)
	assert.EqualValues(t, 3, clubPlayers.Data["count"])
	assert.Equal(t, "Real Madrid", clubPlayers.Data["club"].(map[string]any)["name"])

	byLeague := doRequest(t, router, http.MethodGet, "/api/clubs/league/La%20Liga", "", nil)
	require.Equal(t, http.StatusOK, byLeague.Status)
	assert.EqualValues(t, 2, byLeague.Data["count"])

	unknownTail := doRequest(t, router, http.MethodGet, "/api/clubs/"+memory.ClubIDRealMadrid+"/fixtures", "", nil)
	assert.Equal(t, http.StatusNotFound, unknownTail.Status)

	clubs := doRequest(t, router, http.MethodGet, "/api/clubs?country=Brazil", "", nil)
	require.Equal(t, http.StatusOK, clubs.Status)
	assert.Len(t, clubs.Data["clubs"], 2)
}

func TestRouter_DataSync(t *testing.T) {
	t.Run("requires internal token", func(t *testing.T) {
		router := newTestServer(t, testServerOptions{internalJobToken: "job-token"})

		resp := doRequest(t, router, http.MethodGet, "/api/data-sync/sync/status", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Status)

		resp = doRequest(t, router, http.MethodGet, "/api/data-sync/sync/status", "", nil, internalJobTokenHeader, "job-token")
		require.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, false, resp.Data["syncInProgress"])
	})

	t.Run("sync without provider", func(t *testing.T) {
		router := newTestServer(t, testServerOptions{})

		resp := doRequest(t, router, http.MethodPost, "/api/data-sync/sync/full", "", nil)
		require.Equal(t, http.StatusServiceUnavailable, resp.Status)
		assert.Equal(t, usecase.CodeProviderUnavailable, resp.Error.Code)

		check := doRequest(t, router, http.MethodGet, "/api/data-sync/provider/check", "", nil)
		require.Equal(t, http.StatusServiceUnavailable, check.Status)
		assert.Equal(t, false, check.Data["available"])
	})

	t.Run("clear all refused in production", func(t *testing.T) {
		router := newTestServer(t, testServerOptions{production: true})

		resp := doRequest(t, router, http.MethodDelete, "/api/data-sync/clear/all", "", nil)
		require.Equal(t, http.StatusForbidden, resp.Status)
		assert.Equal(t, usecase.CodeProductionOnly, resp.Error.Code)
	})

	t.Run("clear all outside production", func(t *testing.T) {
		router := newTestServer(t, testServerOptions{})

		resp := doRequest(t, router, http.MethodDelete, "/api/data-sync/clear/all", "", nil)
		require.Equal(t, http.StatusOK, resp.Status)
		assert.EqualValues(t, 9, resp.Data["players"])
		assert.EqualValues(t, 4, resp.Data["clubs"])

		stats := doRequest(t, router, http.MethodGet, "/api/data-sync/stats", "", nil)
		require.Equal(t, http.StatusOK, stats.Status)
		assert.EqualValues(t, 0, stats.Data["totalPlayers"])
	})
}

func TestRouter_RateLimits(t *testing.T) {
	t.Run("general limit", func(t *testing.T) {
		router := newTestServer(t, testServerOptions{rateLimitMax: 2})

		for range 2 {
			resp := doRequest(t, router, http.MethodGet, "/api/players", "", nil)
			require.Equal(t, http.StatusOK, resp.Status)
		}
		resp := doRequest(t, router, http.MethodGet, "/api/players", "", nil)
		require.Equal(t, http.StatusTooManyRequests, resp.Status)
		assert.Equal(t, usecase.CodeRateLimitExceeded, resp.Error.Code)
		assert.NotEmpty(t, resp.Header.Get("Retry-After"))

		health := doRequest(t, router, http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusOK, health.Status)
	})

	t.Run("auth limit", func(t *testing.T) {
		router := newTestServer(t, testServerOptions{authRateLimitMax: 1})
		body := map[string]string{"emailOrUsername": "nobody", "password": "Secret123"}

		first := doRequest(t, router, http.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, first.Status)

		second := doRequest(t, router, http.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, http.StatusTooManyRequests, second.Status)
		assert.Contains(t, second.Error.Message, "authentication")

		guest := doRequest(t, router, http.MethodPost, "/api/auth/guest", "", nil)
		assert.Equal(t, http.StatusOK, guest.Status)
	})

	t.Run("forwarded header does not reset auth limit", func(t *testing.T) {
		router := newTestServer(t, testServerOptions{authRateLimitMax: 2})
		body := map[string]string{"emailOrUsername": "nobody", "password": "Secret123"}

		var statuses []int
		for i := range 6 {
			resp := doRequest(t, router, http.MethodPost, "/api/auth/login", "", body,
				"X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1),
				"X-Real-IP", fmt.Sprintf("198.51.100.%d", i+1))
			statuses = append(statuses, resp.Status)
		}

		assert.Equal(t, []int{
			http.StatusUnauthorized, http.StatusUnauthorized,
			http.StatusTooManyRequests, http.StatusTooManyRequests,
			http.StatusTooManyRequests, http.StatusTooManyRequests,
		}, statuses)
	})
}
