package apisports

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/futboss/internal/domain/player"
	"github.com/riskibarqy/futboss/internal/platform/logging"
	"github.com/riskibarqy/futboss/internal/platform/resilience"
	"github.com/riskibarqy/futboss/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const (
	defaultBaseURL    = "https://v3.football.api-sports.io"
	apiKeyHeader      = "x-rapidapi-key"
	maxResponseBytes  = 6 << 20
	maxRetryAfter     = time.Minute
	maxPlayerPages    = 50
	rateLimitErrorKey = "rateLimit"
)

var (
	errProviderTransient = crerr.New("api-sports transient failure")
	errProviderRejected  = crerr.New("api-sports rejected request")
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Backoff        resilience.BackoffConfig
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the API-Sports football v3 API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxRetries int
	backoff    resilience.BackoffConfig
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.Group[[]byte]
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	log := logger.Component("apisports")

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		maxRetries: max(cfg.MaxRetries, 0),
		backoff:    cfg.Backoff,
		logger:     log,
		breaker: resilience.NewCircuitBreaker(cfg.CircuitBreaker,
			resilience.WithTransitionHook(func(from, to resilience.CircuitState) {
				log.Warn("api-sports circuit breaker transition", "from", from, "to", to)
			})),
		sleep: sleepContext,
	}
}

// Breaker exposes the breaker state for health reporting.
func (c *Client) Breaker() resilience.Snapshot {
	return c.breaker.Snapshot()
}

func (c *Client) TeamsByLeague(ctx context.Context, leagueID, season int) ([]usecase.ExternalClub, error) {
	if leagueID <= 0 {
		return nil, fmt.Errorf("league id must be greater than zero")
	}

	var payload envelope[[]teamItem]
	query := url.Values{}
	query.Set("league", strconv.Itoa(leagueID))
	query.Set("season", strconv.Itoa(season))
	if err := c.doJSON(ctx, "/teams", query, &payload); err != nil {
		return nil, fmt.Errorf("fetch teams league=%d season=%d: %w", leagueID, season, err)
	}

	out := make([]usecase.ExternalClub, 0, len(payload.Response))
	for _, item := range payload.Response {
		name := strings.TrimSpace(item.Team.Name)
		if item.Team.ID <= 0 || name == "" {
			continue
		}
		out = append(out, usecase.ExternalClub{
			ExternalID: strconv.FormatInt(item.Team.ID, 10),
			Name:       name,
			Country:    strings.TrimSpace(item.Team.Country),
			LogoURL:    strings.TrimSpace(item.Team.Logo),
		})
	}
	return out, nil
}

func (c *Client) PlayersByTeam(ctx context.Context, teamID string, season int) ([]usecase.ExternalPlayer, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, fmt.Errorf("team id is required")
	}

	byID := make(map[int64]usecase.ExternalPlayer, 64)
	for page, total := 1, 1; page <= total && page <= maxPlayerPages; page++ {
		var payload envelope[[]playerItem]
		query := url.Values{}
		query.Set("team", teamID)
		query.Set("season", strconv.Itoa(season))
		query.Set("page", strconv.Itoa(page))
		if err := c.doJSON(ctx, "/players", query, &payload); err != nil {
			return nil, fmt.Errorf("fetch players team=%s season=%d page=%d: %w", teamID, season, page, err)
		}

		for _, item := range payload.Response {
			mapped, ok := mapPlayer(item)
			if !ok {
				continue
			}
			byID[item.Player.ID] = mapped
		}
		total = payload.Paging.Total
	}

	out := make([]usecase.ExternalPlayer, 0, len(byID))
	for _, item := range byID {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Ping calls the account status endpoint, which does not count against quota.
func (c *Client) Ping(ctx context.Context) error {
	var payload envelope[any]
	if err := c.doJSON(ctx, "/status", nil, &payload); err != nil {
		return fmt.Errorf("fetch provider status: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, path string, query url.Values, target any) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: api-sports key is not configured", usecase.ErrDependencyUnavailable)
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	raw, err, _ := c.flight.Do(fullURL, func() ([]byte, error) {
		var body []byte
		err := c.breaker.Execute(func() error {
			var reqErr error
			body, reqErr = c.executeRequest(ctx, fullURL)
			return reqErr
		}, isTransient)
		return body, err
	})
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "api-sports circuit breaker rejected request", "state", c.breaker.State())
		return fmt.Errorf("%w: football data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func isTransient(err error) bool {
	return crerr.Is(err, errProviderTransient)
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, retryAfter, err := c.requestOnce(ctx, fullURL)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !crerr.Is(err, errProviderTransient) || attempt == c.maxRetries {
			break
		}

		delay := max(c.backoff.Delay(attempt), retryAfter)
		c.logger.DebugContext(ctx, "retrying api-sports request", "url", fullURL, "attempt", attempt+1, "delay", delay.String())
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	c.logger.WarnContext(ctx, "api-sports request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

// requestOnce performs one GET. The returned duration is the server's
// Retry-After hint, zero when absent.
func (c *Client) requestOnce(ctx context.Context, fullURL string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, crerr.Wrapf(errProviderTransient, "send request: %s", sanitize(err.Error(), c.apiKey))
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
		return nil, 0, crerr.Wrapf(errProviderTransient, "read response body: %v", err)
	}

	retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if isRetryableStatus(resp.StatusCode) {
			return nil, retryAfter, crerr.Wrapf(errProviderTransient, "provider status=%d body=%s", resp.StatusCode, abbreviateBody(buf.B))
		}
		return nil, 0, crerr.Wrapf(errProviderRejected, "provider status=%d body=%s", resp.StatusCode, abbreviateBody(buf.B))
	}

	// API-Sports reports quota and key problems with a 200 and an errors object.
	var probe struct {
		Errors any `json:"errors"`
	}
	if err := sonic.Unmarshal(buf.B, &probe); err != nil {
		return nil, 0, fmt.Errorf("decode provider payload: %w", err)
	}
	if messages := providerErrors(probe.Errors); len(messages) > 0 {
		if _, limited := messages[rateLimitErrorKey]; limited {
			return nil, retryAfter, crerr.Wrapf(errProviderTransient, "provider rate limit: %s", messages[rateLimitErrorKey])
		}
		return nil, 0, crerr.Wrapf(errProviderRejected, "provider errors: %s", joinErrors(messages))
	}

	return append([]byte(nil), buf.B...), 0, nil
}

func mapPlayer(item playerItem) (usecase.ExternalPlayer, bool) {
	name := strings.TrimSpace(item.Player.Name)
	if item.Player.ID <= 0 || name == "" {
		return usecase.ExternalPlayer{}, false
	}

	out := usecase.ExternalPlayer{
		ExternalID:  strconv.FormatInt(item.Player.ID, 10),
		Name:        name,
		Age:         deref(item.Player.Age),
		Nationality: strings.TrimSpace(item.Player.Nationality),
		PhotoURL:    strings.TrimSpace(item.Player.Photo),
	}
	if len(item.Statistics) == 0 {
		return out, true
	}

	stats := item.Statistics[0]
	out.PositionLabel = stats.Games.Position
	out.Stats = &player.RawStats{
		Appearances:     deref(stats.Games.Appearences),
		Minutes:         deref(stats.Games.Minutes),
		Goals:           deref(stats.Goals.Total),
		Assists:         deref(stats.Goals.Assists),
		Shots:           deref(stats.Shots.Total),
		Saves:           deref(stats.Goals.Saves),
		GoalsConceded:   stats.Goals.Conceded,
		Passes:          deref(stats.Passes.Total),
		PassAccuracy:    deref(stats.Passes.Accuracy),
		Tackles:         deref(stats.Tackles.Total),
		Interceptions:   deref(stats.Tackles.Interceptions),
		Blocks:          deref(stats.Tackles.Blocks),
		DuelsWon:        deref(stats.Duels.Won),
		DuelsTotal:      deref(stats.Duels.Total),
		Dribbles:        deref(stats.Dribbles.Success),
		FoulsDrawn:      deref(stats.Fouls.Drawn),
		FoulsCommitted:  deref(stats.Fouls.Committed),
		YellowCards:     deref(stats.Cards.Yellow),
		RedCards:        deref(stats.Cards.Red),
		PenaltiesScored: deref(stats.Penalty.Scored),
		PenaltiesMissed: deref(stats.Penalty.Missed),
		PenaltiesSaved:  deref(stats.Penalty.Saved),
		Rating:          parseRating(stats.Games.Rating),
	}
	return out, true
}

// providerErrors flattens the errors field, which is [] when empty and an
// object keyed by kind otherwise.
func providerErrors(raw any) map[string]string {
	out := make(map[string]string)
	switch v := raw.(type) {
	case map[string]any:
		for key, value := range v {
			out[key] = fmt.Sprint(value)
		}
	case []any:
		for i, value := range v {
			out[strconv.Itoa(i)] = fmt.Sprint(value)
		}
	}
	return out
}

func joinErrors(messages map[string]string) string {
	keys := make([]string, 0, len(messages))
	for key := range messages {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+messages[key])
	}
	return strings.Join(parts, "; ")
}

// parseRetryAfter accepts delta-seconds or an HTTP date and caps the result.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	var delay time.Duration
	if seconds, err := strconv.Atoi(value); err == nil {
		delay = time.Duration(seconds) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		delay = at.Sub(now)
	}
	return min(max(delay, 0), maxRetryAfter)
}

func parseRating(raw *string) float64 {
	if raw == nil {
		return 0
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil {
		return 0
	}
	return value
}

func deref[T int | float64](value *T) T {
	if value == nil {
		return 0
	}
	return *value
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func sanitize(value, key string) string {
	value = strings.TrimSpace(value)
	if key != "" {
		value = strings.ReplaceAll(value, key, "REDACTED")
	}
	return value
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
