package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/futboss/internal/domain/club"
	"github.com/riskibarqy/futboss/internal/domain/player"
	"github.com/riskibarqy/futboss/internal/platform/logging"
)

const (
	SyncStatusSuccess = "success"
	SyncStatusPartial = "partial"
	SyncStatusFailed  = "failed"

	defaultSyncSeason     = 2023
	defaultSyncMaxWorkers = 2
	syncRecommendedEvery  = 24 * time.Hour
)

// ExternalClub is a provider team payload.
type ExternalClub struct {
	ExternalID string
	Name       string
	Country    string
	LogoURL    string
}

// ExternalPlayer is a provider squad member. Stats is nil when the provider
// reports no statistics for the season.
type ExternalPlayer struct {
	ExternalID    string
	Name          string
	Age           int
	Nationality   string
	PhotoURL      string
	PositionLabel string
	Stats         *player.RawStats
}

// FootballDataProvider is the upstream football data source.
type FootballDataProvider interface {
	TeamsByLeague(ctx context.Context, leagueID, season int) ([]ExternalClub, error)
	// PlayersByTeam follows provider paging and returns the whole squad.
	PlayersByTeam(ctx context.Context, teamID string, season int) ([]ExternalPlayer, error)
	Ping(ctx context.Context) error
}

// CatalogCache drops cached catalog reads after a write.
type CatalogCache interface {
	InvalidateCatalog(ctx context.Context) int
}

type SyncLeague struct {
	ID      int
	Name    string
	Country string
}

func DefaultSyncLeagues() []SyncLeague {
	return []SyncLeague{
		{ID: 39, Name: "Premier League", Country: "England"},
		{ID: 140, Name: "La Liga", Country: "Spain"},
		{ID: 135, Name: "Serie A", Country: "Italy"},
		{ID: 78, Name: "Bundesliga", Country: "Germany"},
		{ID: 61, Name: "Ligue 1", Country: "France"},
		{ID: 71, Name: "Série A", Country: "Brazil"},
		{ID: 128, Name: "Liga Profesional", Country: "Argentina"},
	}
}

// ParseSyncLeagues reads "id:name:country" entries separated by commas.
func ParseSyncLeagues(raw string) ([]SyncLeague, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var out []SyncLeague
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ":", 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("invalid sync league %q: expected id:name:country", part)
		}
		id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid sync league id %q", fields[0])
		}
		out = append(out, SyncLeague{
			ID:      id,
			Name:    strings.TrimSpace(fields[1]),
			Country: strings.TrimSpace(fields[2]),
		})
	}
	return out, nil
}

type DataSyncConfig struct {
	Season     int
	Leagues    []SyncLeague
	MaxWorkers int
	// Production disables ClearAll.
	Production bool
}

type SyncFailure struct {
	Target  string `json:"target"`
	Message string `json:"message"`
}

type StageResult struct {
	Status     string        `json:"status"`
	Tasks      int           `json:"tasks"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Created    int           `json:"created"`
	Updated    int           `json:"updated"`
	Skipped    int           `json:"skipped"`
	Failures   []SyncFailure `json:"failures,omitempty"`
	DurationMs int64         `json:"durationMs"`
}

type SyncResult struct {
	Status     string       `json:"status"`
	Clubs      *StageResult `json:"clubs,omitempty"`
	Players    *StageResult `json:"players,omitempty"`
	Scores     *StageResult `json:"scores,omitempty"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	DurationMs int64        `json:"durationMs"`
}

type SyncStatus struct {
	SyncInProgress      bool       `json:"syncInProgress"`
	LastSyncDate        *time.Time `json:"lastSyncDate"`
	NextSyncRecommended time.Time  `json:"nextSyncRecommended"`
}

type CatalogSummary struct {
	TotalClubs        int                     `json:"totalClubs"`
	TotalPlayers      int                     `json:"totalPlayers"`
	SyncedPlayers     int                     `json:"syncedPlayers"`
	PlayersByPosition map[player.Position]int `json:"playersByPosition"`
}

type ProviderCheck struct {
	Available bool      `json:"available"`
	LatencyMs int64     `json:"latencyMs"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// DataSyncService pulls clubs and players from the football provider into
// the catalog. Only one sync stage runs at a time per process.
type DataSyncService struct {
	provider   FootballDataProvider
	clubs      club.Repository
	clubSync   club.SyncRepository
	players    player.Repository
	playerSync player.SyncRepository
	purger     club.Purger
	cache      CatalogCache
	cfg        DataSyncConfig
	logger     *logging.Logger
	now        func() time.Time
	rnd        player.Random
	running    atomic.Bool
	lastSyncMu sync.RWMutex
	lastSync   *time.Time
}

func NewDataSyncService(
	provider FootballDataProvider,
	clubs club.Repository,
	clubSync club.SyncRepository,
	players player.Repository,
	playerSync player.SyncRepository,
	purger club.Purger,
	cache CatalogCache,
	cfg DataSyncConfig,
	logger *logging.Logger,
) *DataSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Season <= 0 {
		cfg.Season = defaultSyncSeason
	}
	if len(cfg.Leagues) == 0 {
		cfg.Leagues = DefaultSyncLeagues()
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultSyncMaxWorkers
	}

	return &DataSyncService{
		provider:   provider,
		clubs:      clubs,
		clubSync:   clubSync,
		players:    players,
		playerSync: playerSync,
		purger:     purger,
		cache:      cache,
		cfg:        cfg,
		logger:     logger.Component("data_sync_service"),
		now:        time.Now,
		rnd:        newLockedRandom(),
	}
}

func (s *DataSyncService) SyncAll(ctx context.Context) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DataSyncService.SyncAll")
	defer span.End()

	return s.exclusive(ctx, func(ctx context.Context, result *SyncResult) error {
		clubs, err := s.syncClubs(ctx)
		if err != nil {
			return err
		}
		result.Clubs = &clubs
		if clubs.Status == SyncStatusFailed {
			return nil
		}

		players, err := s.syncPlayers(ctx)
		if err != nil {
			return err
		}
		result.Players = &players
		return nil
	})
}

func (s *DataSyncService) SyncClubs(ctx context.Context) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DataSyncService.SyncClubs")
	defer span.End()

	return s.exclusive(ctx, func(ctx context.Context, result *SyncResult) error {
		clubs, err := s.syncClubs(ctx)
		if err != nil {
			return err
		}
		result.Clubs = &clubs
		return nil
	})
}

func (s *DataSyncService) SyncPlayers(ctx context.Context) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DataSyncService.SyncPlayers")
	defer span.End()

	return s.exclusive(ctx, func(ctx context.Context, result *SyncResult) error {
		players, err := s.syncPlayers(ctx)
		if err != nil {
			return err
		}
		result.Players = &players
		return nil
	})
}

// UpdatePlayerScores recomputes every synced player's score from stored stats
// and folds it into the rolling average.
func (s *DataSyncService) UpdatePlayerScores(ctx context.Context) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DataSyncService.UpdatePlayerScores")
	defer span.End()

	return s.exclusive(ctx, func(ctx context.Context, result *SyncResult) error {
		started := s.now()
		records, err := s.playerSync.ListSynced(ctx)
		if err != nil {
			return fmt.Errorf("list synced players: %w", err)
		}

		stage := StageResult{Tasks: len(records)}
		for _, record := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if record.Stats == nil {
				stage.Skipped++
				continue
			}

			raw := record.Stats.Raw()
			fresh := float64(player.CalculateScore(&raw, s.rnd))
			average := player.BlendAverage(record.Player.AverageScore, fresh)
			if err := s.playerSync.UpdateScores(ctx, record.Player.ID, fresh, average, s.now().UTC()); err != nil {
				stage.Failed++
				stage.Failures = append(stage.Failures, SyncFailure{Target: record.Player.Name, Message: err.Error()})
				s.logger.WarnContext(ctx, "update player score failed", "player_id", record.Player.ID, "error", err)
				continue
			}
			stage.Succeeded++
			stage.Updated++
		}

		stage.Status = stageStatus(stage)
		stage.DurationMs = s.now().Sub(started).Milliseconds()
		result.Scores = &stage
		return nil
	})
}

func (s *DataSyncService) Status() SyncStatus {
	s.lastSyncMu.RLock()
	defer s.lastSyncMu.RUnlock()

	status := SyncStatus{
		SyncInProgress:      s.running.Load(),
		NextSyncRecommended: s.now().UTC(),
	}
	if s.lastSync != nil {
		last := *s.lastSync
		status.LastSyncDate = &last
		status.NextSyncRecommended = last.Add(syncRecommendedEvery)
	}
	return status
}

func (s *DataSyncService) CatalogSummary(ctx context.Context) (CatalogSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DataSyncService.CatalogSummary")
	defer span.End()

	var (
		out      CatalogSummary
		players  player.Summary
		synced   int
		clubRows int
	)
	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		_, clubRows, err = s.clubs.List(ctx, club.Filter{Limit: 1})
		if err != nil {
			return fmt.Errorf("count clubs: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		players, err = s.players.Summary(ctx, 0)
		if err != nil {
			return fmt.Errorf("summarize players: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		synced, err = s.playerSync.CountSynced(ctx)
		if err != nil {
			return fmt.Errorf("count synced players: %w", err)
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		return CatalogSummary{}, err
	}

	out.TotalClubs = clubRows
	out.TotalPlayers = players.Total
	out.SyncedPlayers = synced
	out.PlayersByPosition = make(map[player.Position]int, len(player.AllPositions))
	for _, row := range players.ByPosition {
		out.PlayersByPosition[row.Position] = row.Count
	}
	return out, nil
}

func (s *DataSyncService) CheckProvider(ctx context.Context) ProviderCheck {
	ctx, span := startUsecaseSpan(ctx, "usecase.DataSyncService.CheckProvider")
	defer span.End()

	started := s.now()
	out := ProviderCheck{Available: true, CheckedAt: started.UTC()}
	if s.provider == nil {
		out.Available = false
		out.Message = "football data provider is not configured"
		return out
	}
	if err := s.provider.Ping(ctx); err != nil {
		out.Available = false
		out.Message = err.Error()
	}
	out.LatencyMs = s.now().Sub(started).Milliseconds()
	return out
}

// ClearAll wipes teams, players and clubs. It is refused in production.
func (s *DataSyncService) ClearAll(ctx context.Context) (club.PurgeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DataSyncService.ClearAll")
	defer span.End()

	if s.cfg.Production {
		return club.PurgeResult{}, NewCodedError(ErrForbidden, CodeProductionOnly, "clearing data is not allowed in production")
	}
	if s.purger == nil {
		return club.PurgeResult{}, fmt.Errorf("%w: catalog purger is not configured", ErrDependencyUnavailable)
	}
	if !s.running.CompareAndSwap(false, true) {
		return club.PurgeResult{}, syncInProgress()
	}
	defer s.running.Store(false)

	out, err := s.purger.PurgeCatalog(ctx)
	if err != nil {
		return club.PurgeResult{}, fmt.Errorf("purge catalog: %w", err)
	}
	s.invalidateCache(ctx)

	s.logger.WarnContext(ctx, "catalog cleared",
		"clubs", out.Clubs,
		"players", out.Players,
		"teams", out.Teams,
	)
	return out, nil
}

func (s *DataSyncService) exclusive(ctx context.Context, fn func(ctx context.Context, result *SyncResult) error) (SyncResult, error) {
	if s.provider == nil {
		return SyncResult{}, NewCodedError(ErrDependencyUnavailable, CodeProviderUnavailable, "football data provider is not configured")
	}
	if !s.running.CompareAndSwap(false, true) {
		return SyncResult{}, syncInProgress()
	}
	defer s.running.Store(false)

	started := s.now().UTC()
	result := SyncResult{StartedAt: started}
	if err := fn(ctx, &result); err != nil {
		return SyncResult{}, err
	}

	result.FinishedAt = s.now().UTC()
	result.DurationMs = result.FinishedAt.Sub(started).Milliseconds()
	result.Status = overallStatus(result.Clubs, result.Players, result.Scores)
	s.invalidateCache(ctx)

	if result.Status != SyncStatusFailed {
		finished := result.FinishedAt
		s.lastSyncMu.Lock()
		s.lastSync = &finished
		s.lastSyncMu.Unlock()
	}

	s.logger.InfoContext(ctx, "data sync finished", "status", result.Status, "duration_ms", result.DurationMs)
	return result, nil
}

type syncTask struct {
	target string
	run    func(ctx context.Context) (created, updated, skipped int, err error)
}

// runStage executes tasks on a bounded ants pool. A task error is recorded
// and the remaining tasks keep running.
func (s *DataSyncService) runStage(ctx context.Context, tasks []syncTask) (StageResult, error) {
	started := s.now()
	stage := StageResult{Tasks: len(tasks)}
	if len(tasks) == 0 {
		stage.Status = SyncStatusSuccess
		return stage, nil
	}

	workers, err := ants.NewPool(min(s.cfg.MaxWorkers, len(tasks)))
	if err != nil {
		return StageResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workers.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, task := range tasks {
		wg.Add(1)
		if err := workers.Submit(func() {
			defer wg.Done()

			created, updated, skipped, err := task.run(ctx)

			mu.Lock()
			defer mu.Unlock()
			stage.Created += created
			stage.Updated += updated
			stage.Skipped += skipped
			if err != nil {
				stage.Failed++
				stage.Failures = append(stage.Failures, SyncFailure{Target: task.target, Message: err.Error()})
				s.logger.WarnContext(ctx, "sync task failed", "target", task.target, "error", err)
				return
			}
			stage.Succeeded++
		}); err != nil {
			wg.Done()
			return StageResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	wg.Wait()

	sort.SliceStable(stage.Failures, func(i, j int) bool {
		return stage.Failures[i].Target < stage.Failures[j].Target
	})
	stage.Status = stageStatus(stage)
	stage.DurationMs = s.now().Sub(started).Milliseconds()
	return stage, nil
}

func (s *DataSyncService) syncClubs(ctx context.Context) (StageResult, error) {
	tasks := make([]syncTask, 0, len(s.cfg.Leagues))
	for _, league := range s.cfg.Leagues {
		tasks = append(tasks, syncTask{
			target: fmt.Sprintf("league:%d", league.ID),
			run: func(ctx context.Context) (int, int, int, error) {
				return s.syncLeagueClubs(ctx, league)
			},
		})
	}
	return s.runStage(ctx, tasks)
}

func (s *DataSyncService) syncLeagueClubs(ctx context.Context, league SyncLeague) (created, updated, skipped int, err error) {
	items, err := s.provider.TeamsByLeague(ctx, league.ID, s.cfg.Season)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("fetch teams for league %d: %w", league.ID, err)
	}

	for _, item := range items {
		country := strings.TrimSpace(item.Country)
		if country == "" {
			country = league.Country
		}
		row := club.Club{
			Name:        strings.TrimSpace(item.Name),
			League:      league.Name,
			Country:     country,
			LogoURL:     item.LogoURL,
			APISportsID: item.ExternalID,
		}
		if err := row.Validate(); err != nil {
			skipped++
			s.logger.WarnContext(ctx, "skip invalid provider club", "league_id", league.ID, "external_id", item.ExternalID, "error", err)
			continue
		}

		_, isNew, err := s.clubSync.UpsertByName(ctx, row)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return created, updated, skipped, ctxErr
			}
			skipped++
			s.logger.WarnContext(ctx, "upsert club failed", "club", row.Name, "error", err)
			continue
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	return created, updated, skipped, nil
}

func (s *DataSyncService) syncPlayers(ctx context.Context) (StageResult, error) {
	clubs, err := s.clubSync.ListWithExternalID(ctx)
	if err != nil {
		return StageResult{}, fmt.Errorf("list clubs with external id: %w", err)
	}

	tasks := make([]syncTask, 0, len(clubs))
	for _, c := range clubs {
		tasks = append(tasks, syncTask{
			target: "club:" + c.Name,
			run: func(ctx context.Context) (int, int, int, error) {
				return s.syncClubPlayers(ctx, c)
			},
		})
	}
	return s.runStage(ctx, tasks)
}

func (s *DataSyncService) syncClubPlayers(ctx context.Context, c club.Club) (created, updated, skipped int, err error) {
	items, err := s.provider.PlayersByTeam(ctx, c.APISportsID, s.cfg.Season)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("fetch players for club %s: %w", c.Name, err)
	}

	for _, item := range items {
		record, err := s.mapPlayer(c, item)
		if err != nil {
			skipped++
			s.logger.WarnContext(ctx, "skip invalid provider player", "club", c.Name, "external_id", item.ExternalID, "error", err)
			continue
		}

		_, isNew, err := s.playerSync.UpsertByName(ctx, record)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return created, updated, skipped, ctxErr
			}
			skipped++
			s.logger.WarnContext(ctx, "upsert player failed", "player", record.Player.Name, "error", err)
			continue
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	return created, updated, skipped, nil
}

func (s *DataSyncService) mapPlayer(c club.Club, item ExternalPlayer) (player.Record, error) {
	position := player.MapVendorPosition(item.PositionLabel)
	score := player.CalculateScore(item.Stats, s.rnd)
	syncedAt := s.now().UTC()

	record := player.Record{
		Player: player.Player{
			Name:         strings.TrimSpace(item.Name),
			Position:     position,
			CurrentTeam:  c.Name,
			ClubID:       c.ID,
			MarketValue:  player.CalculateMarketValue(item.Age, position, score, s.rnd),
			CurrentScore: float64(score),
			AverageScore: float64(score),
			Nationality:  item.Nationality,
			Age:          item.Age,
			PhotoURL:     item.PhotoURL,
			APISportsID:  item.ExternalID,
			LastSyncAt:   &syncedAt,
		},
	}
	if err := record.Player.Validate(); err != nil {
		return player.Record{}, err
	}
	if item.Stats != nil {
		stats := item.Stats.ToStats(s.cfg.Season)
		scouts := player.CalculateScouts(item.Stats, position)
		record.Stats = &stats
		record.Scouts = &scouts
	}
	return record, nil
}

func (s *DataSyncService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if dropped := s.cache.InvalidateCatalog(ctx); dropped > 0 {
		s.logger.DebugContext(ctx, "catalog cache invalidated", "entries", dropped)
	}
}

func syncInProgress() *CodedError {
	return NewCodedError(ErrConflict, CodeSyncInProgress, "sync already running")
}

// stageStatus is failed when no task succeeded and at least one failed.
func stageStatus(stage StageResult) string {
	switch {
	case stage.Failed == 0:
		return SyncStatusSuccess
	case stage.Succeeded == 0:
		return SyncStatusFailed
	default:
		return SyncStatusPartial
	}
}

func overallStatus(stages ...*StageResult) string {
	status := SyncStatusSuccess
	for _, stage := range stages {
		if stage == nil {
			continue
		}
		switch stage.Status {
		case SyncStatusFailed:
			return SyncStatusFailed
		case SyncStatusPartial:
			status = SyncStatusPartial
		}
	}
	return status
}

type lockedRandom struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newLockedRandom() *lockedRandom {
	return &lockedRandom{rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

func (r *lockedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

func (r *lockedRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.IntN(n)
}
