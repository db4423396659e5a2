package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/futboss/internal/domain/club"
	"github.com/riskibarqy/futboss/internal/domain/fantasy"
	"github.com/riskibarqy/futboss/internal/domain/player"
	"github.com/riskibarqy/futboss/internal/infrastructure/repository/memory"
	idgen "github.com/riskibarqy/futboss/internal/platform/id"
	"github.com/riskibarqy/futboss/internal/platform/logging"
)

type fakeProvider struct {
	mu      sync.Mutex
	teams   map[int][]ExternalClub
	squads  map[string][]ExternalPlayer
	fail    map[string]error
	pingErr error
	block   chan struct{}
}

func (p *fakeProvider) TeamsByLeague(ctx context.Context, leagueID, _ int) ([]ExternalClub, error) {
	p.mu.Lock()
	block := p.block
	p.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.teams[leagueID], nil
}

func (p *fakeProvider) PlayersByTeam(_ context.Context, teamID string, _ int) ([]ExternalPlayer, error) {
	if err := p.fail[teamID]; err != nil {
		return nil, err
	}
	return p.squads[teamID], nil
}

func (p *fakeProvider) Ping(context.Context) error {
	return p.pingErr
}

type countingCache struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCache) InvalidateCatalog(context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return 1
}

type syncFixture struct {
	service  *DataSyncService
	catalog  *memory.Catalog
	teams    *memory.TeamRepository
	provider *fakeProvider
	cache    *countingCache
}

func newSyncFixture(t *testing.T, provider *fakeProvider, production bool) *syncFixture {
	t.Helper()

	catalog := memory.NewCatalog(memory.SeedClubs(), memory.SeedRecords(), idgen.NewSequence("catalog"))
	teams := memory.NewTeamRepository()
	cache := &countingCache{}

	var source FootballDataProvider
	if provider != nil {
		source = provider
	}
	service := NewDataSyncService(
		source,
		catalog.Clubs(),
		catalog.Clubs(),
		catalog.Players(),
		catalog.Players(),
		memory.NewPurger(catalog, teams),
		cache,
		DataSyncConfig{
			Season:     2024,
			Leagues:    []SyncLeague{{ID: 140, Name: "La Liga", Country: "Spain"}},
			MaxWorkers: 2,
			Production: production,
		},
		logging.NewNop(),
	)
	return &syncFixture{service: service, catalog: catalog, teams: teams, provider: provider, cache: cache}
}

func laLigaProvider() *fakeProvider {
	conceded := 12
	return &fakeProvider{
		teams: map[int][]ExternalClub{
			140: {
				{ExternalID: "541", Name: "Real Madrid", LogoURL: "https://media.api-sports.io/football/teams/541.png"},
				{ExternalID: "547", Name: "Girona", Country: "Spain"},
				{ExternalID: "999", Name: "  "},
			},
		},
		squads: map[string][]ExternalPlayer{
			"541": {
				{
					ExternalID:    "762",
					Name:          "Vinícius Jr.",
					Age:           24,
					Nationality:   "Brazil",
					PositionLabel: "Attacker",
					Stats:         &player.RawStats{Appearances: 30, Minutes: 2500, Goals: 15, Assists: 6, Rating: 7.6},
				},
				{
					ExternalID:    "18",
					Name:          "Thibaut Courtois",
					Age:           32,
					Nationality:   "Belgium",
					PositionLabel: "Goalkeeper",
					Stats:         &player.RawStats{Appearances: 20, Saves: 60, GoalsConceded: &conceded},
				},
				{ExternalID: "0", Name: ""},
			},
		},
		fail: map[string]error{
			"547": errors.New("provider timeout"),
		},
	}
}

func TestDataSyncService_WithoutProvider(t *testing.T) {
	f := newSyncFixture(t, nil, false)
	ctx := context.Background()

	for name, run := range map[string]func(context.Context) (SyncResult, error){
		"all":     f.service.SyncAll,
		"clubs":   f.service.SyncClubs,
		"players": f.service.SyncPlayers,
		"scores":  f.service.UpdatePlayerScores,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := run(ctx)
			requireCode(t, err, ErrDependencyUnavailable, CodeProviderUnavailable)
		})
	}

	check := f.service.CheckProvider(ctx)
	assert.False(t, check.Available)
	assert.NotEmpty(t, check.Message)

	status := f.service.Status()
	assert.False(t, status.SyncInProgress)
	assert.Nil(t, status.LastSyncDate)
}

func TestDataSyncService_SyncAll(t *testing.T) {
	f := newSyncFixture(t, laLigaProvider(), false)
	ctx := context.Background()

	result, err := f.service.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncStatusPartial, result.Status)

	require.NotNil(t, result.Clubs)
	assert.Equal(t, SyncStatusSuccess, result.Clubs.Status)
	assert.Equal(t, 1, result.Clubs.Created)
	assert.Equal(t, 1, result.Clubs.Updated)
	assert.Equal(t, 1, result.Clubs.Skipped)

	require.NotNil(t, result.Players)
	assert.Equal(t, SyncStatusPartial, result.Players.Status)
	assert.Equal(t, 2, result.Players.Tasks)
	assert.Equal(t, 1, result.Players.Succeeded)
	assert.Equal(t, 1, result.Players.Failed)
	assert.Equal(t, 1, result.Players.Created)
	assert.Equal(t, 1, result.Players.Updated)
	assert.Equal(t, 1, result.Players.Skipped)
	require.Len(t, result.Players.Failures, 1)
	assert.Equal(t, "club:Girona", result.Players.Failures[0].Target)

	madrid, found, err := f.catalog.Clubs().GetByID(ctx, memory.ClubIDRealMadrid)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "541", madrid.APISportsID)
	assert.Equal(t, "Spain", madrid.Country)

	vini, found, err := f.catalog.Players().GetRecord(ctx, "player-vinicius")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "762", vini.Player.APISportsID)
	require.NotNil(t, vini.Stats)
	assert.Equal(t, 15, vini.Stats.Goals)
	assert.Equal(t, 2024, vini.Stats.Season)
	require.NotNil(t, vini.Scouts)

	synced, err := f.catalog.Players().CountSynced(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)

	status := f.service.Status()
	require.NotNil(t, status.LastSyncDate)
	assert.Equal(t, status.LastSyncDate.Add(24*time.Hour), status.NextSyncRecommended)
	assert.Positive(t, f.cache.calls)
}

func TestDataSyncService_SyncAllIsIdempotent(t *testing.T) {
	f := newSyncFixture(t, laLigaProvider(), false)
	ctx := context.Background()

	_, err := f.service.SyncAll(ctx)
	require.NoError(t, err)
	before, err := f.service.CatalogSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, before.TotalPlayers)

	second, err := f.service.SyncAll(ctx)
	require.NoError(t, err)

	require.NotNil(t, second.Clubs)
	assert.Zero(t, second.Clubs.Created)
	assert.Equal(t, 2, second.Clubs.Updated)

	require.NotNil(t, second.Players)
	assert.Zero(t, second.Players.Created)
	assert.Equal(t, 2, second.Players.Updated)

	after, err := f.service.CatalogSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.TotalClubs, after.TotalClubs)
	assert.Equal(t, before.TotalPlayers, after.TotalPlayers)
	assert.Equal(t, before.SyncedPlayers, after.SyncedPlayers)
}

func TestDataSyncService_UpdatePlayerScores(t *testing.T) {
	f := newSyncFixture(t, laLigaProvider(), false)
	ctx := context.Background()

	_, err := f.service.SyncAll(ctx)
	require.NoError(t, err)

	result, err := f.service.UpdatePlayerScores(ctx)
	require.NoError(t, err)
	require.NotNil(t, result.Scores)
	assert.Equal(t, SyncStatusSuccess, result.Scores.Status)
	assert.Equal(t, 2, result.Scores.Tasks)
	assert.Equal(t, 2, result.Scores.Updated)

	vini, _, err := f.catalog.Players().GetByID(ctx, "player-vinicius")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, vini.CurrentScore, 30.0)
	assert.LessOrEqual(t, vini.CurrentScore, 99.0)
}

func TestDataSyncService_RejectsConcurrentRuns(t *testing.T) {
	provider := laLigaProvider()
	provider.block = make(chan struct{})
	f := newSyncFixture(t, provider, false)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := f.service.SyncClubs(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return f.service.Status().SyncInProgress }, time.Second, 5*time.Millisecond)

	_, err := f.service.SyncPlayers(ctx)
	requireCode(t, err, ErrConflict, CodeSyncInProgress)

	_, err = f.service.ClearAll(ctx)
	requireCode(t, err, ErrConflict, CodeSyncInProgress)

	close(provider.block)
	require.NoError(t, <-done)
	assert.False(t, f.service.Status().SyncInProgress)
}

func TestDataSyncService_CheckProvider(t *testing.T) {
	provider := laLigaProvider()
	f := newSyncFixture(t, provider, false)

	check := f.service.CheckProvider(context.Background())
	assert.True(t, check.Available)

	provider.pingErr = errors.New("api-sports returned 401")
	check = f.service.CheckProvider(context.Background())
	assert.False(t, check.Available)
	assert.Contains(t, check.Message, "401")
}

func TestDataSyncService_CatalogSummary(t *testing.T) {
	f := newSyncFixture(t, nil, false)

	summary, err := f.service.CatalogSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalClubs)
	assert.Equal(t, 9, summary.TotalPlayers)
	assert.Zero(t, summary.SyncedPlayers)
	assert.Equal(t, 5, summary.PlayersByPosition[player.PositionForward])
	assert.Equal(t, 4, summary.PlayersByPosition[player.PositionMidfielder])
}

func TestDataSyncService_ClearAll(t *testing.T) {
	t.Run("production refuses", func(t *testing.T) {
		f := newSyncFixture(t, nil, true)
		_, err := f.service.ClearAll(context.Background())
		requireCode(t, err, ErrForbidden, CodeProductionOnly)
	})

	t.Run("purges catalog and teams", func(t *testing.T) {
		f := newSyncFixture(t, nil, false)
		ctx := context.Background()

		roster := NewRosterService(f.teams, f.catalog.Players(), idgen.NewSequence("team"), fantasy.DefaultRules(), logging.NewNop())
		_, err := roster.CreateTeam(ctx, registeredSession("owner-1"), CreateTeamInput{Name: "Doomed", PlayerIDs: []string{"player-veiga"}})
		require.NoError(t, err)

		purged, err := f.service.ClearAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, club.PurgeResult{TeamPlayers: 1, Teams: 1, Players: 9, Clubs: 4}, purged)

		summary, err := f.service.CatalogSummary(ctx)
		require.NoError(t, err)
		assert.Zero(t, summary.TotalClubs)
		assert.Zero(t, summary.TotalPlayers)
		assert.Positive(t, f.cache.calls)
	})
}

func TestParseSyncLeagues(t *testing.T) {
	leagues, err := ParseSyncLeagues("39:Premier League:England, 71:Série A:Brazil,")
	require.NoError(t, err)
	assert.Equal(t, []SyncLeague{
		{ID: 39, Name: "Premier League", Country: "England"},
		{ID: 71, Name: "Série A", Country: "Brazil"},
	}, leagues)

	leagues, err = ParseSyncLeagues("  ")
	require.NoError(t, err)
	assert.Nil(t, leagues)

	_, err = ParseSyncLeagues("39:Premier League")
	require.Error(t, err)
	_, err = ParseSyncLeagues("x:Premier League:England")
	require.Error(t, err)
}

func TestStageStatus(t *testing.T) {
	assert.Equal(t, SyncStatusSuccess, stageStatus(StageResult{Succeeded: 2}))
	assert.Equal(t, SyncStatusPartial, stageStatus(StageResult{Succeeded: 1, Failed: 1}))
	assert.Equal(t, SyncStatusFailed, stageStatus(StageResult{Failed: 2}))

	assert.Equal(t, SyncStatusFailed, overallStatus(&StageResult{Status: SyncStatusSuccess}, &StageResult{Status: SyncStatusFailed}))
	assert.Equal(t, SyncStatusPartial, overallStatus(&StageResult{Status: SyncStatusPartial}, nil))
	assert.Equal(t, SyncStatusSuccess, overallStatus(nil, nil, nil))
}
