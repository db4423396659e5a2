package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/futboss/internal/domain/club"
	"github.com/riskibarqy/futboss/internal/domain/fantasy"
	"github.com/riskibarqy/futboss/internal/domain/player"
	idgen "github.com/riskibarqy/futboss/internal/platform/id"
)

func newSeededCatalog() *Catalog {
	return NewCatalog(SeedClubs(), SeedRecords(), idgen.NewSequence("row"))
}

func TestPlayerRepositoryListFilters(t *testing.T) {
	players := newSeededCatalog().Players()
	ctx := t.Context()

	items, total, err := players.List(ctx, player.Filter{Position: player.PositionMidfielder})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, items, 4)

	items, total, err = players.List(ctx, player.Filter{Club: "barcelona"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, item := range items {
		assert.Equal(t, ClubIDBarcelona, item.ClubID)
	}

	minValue := int64(60_000_000)
	items, _, err = players.List(ctx, player.Filter{
		MinValue: &minValue,
		Sort:     player.Sort{Field: player.SortByMarketValue, Desc: true},
	})
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "Jude Bellingham", items[0].Name)
	assert.Equal(t, "Rodrygo", items[3].Name)

	items, _, err = players.List(ctx, player.Filter{Search: "URUG"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Arrascaeta", items[0].Name)
}

func TestPlayerRepositoryListPagination(t *testing.T) {
	players := newSeededCatalog().Players()

	items, total, err := players.List(t.Context(), player.Filter{Limit: 4, Offset: 8})
	require.NoError(t, err)
	assert.Equal(t, 9, total)
	assert.Len(t, items, 1)

	items, total, err = players.List(t.Context(), player.Filter{Limit: 4, Offset: 40})
	require.NoError(t, err)
	assert.Equal(t, 9, total)
	assert.Empty(t, items)
}

func TestPlayerRepositorySummary(t *testing.T) {
	summary, err := newSeededCatalog().Players().Summary(t.Context(), 2)
	require.NoError(t, err)

	assert.Equal(t, 9, summary.Total)
	assert.Equal(t, float64(150_000_000), summary.MarketValue.Max)
	assert.Equal(t, float64(12_000_000), summary.MarketValue.Min)
	assert.Equal(t, 8.5, summary.CurrentScore.Max)
	require.Len(t, summary.ByPosition, 2)
	assert.Equal(t, player.PositionMidfielder, summary.ByPosition[0].Position)
	assert.Equal(t, 4, summary.ByPosition[0].Count)
	require.Len(t, summary.TopNationalities, 2)
	assert.Equal(t, player.Bucket{Key: "Brazil", Count: 5}, summary.TopNationalities[0])
}

func TestPlayerRepositoryUpsertByNameIsIdempotent(t *testing.T) {
	catalog := NewCatalog(nil, nil, idgen.NewSequence("p"))
	players := catalog.Players()
	ctx := t.Context()

	record := player.Record{
		Player: player.Player{Name: "Pedri", Position: player.PositionMidfielder, MarketValue: 10, APISportsID: "9"},
		Stats:  &player.Stats{Season: 2023, Goals: 3},
	}
	first, created, err := players.UpsertByName(ctx, record)
	require.NoError(t, err)
	assert.True(t, created)

	record.Player.MarketValue = 20
	record.Stats = nil
	second, created, err := players.UpsertByName(ctx, record)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(20), second.MarketValue)

	stored, ok, err := players.GetRecord(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, stored.Stats)
	assert.Equal(t, 3, stored.Stats.Goals)

	count, err := players.CountSynced(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPlayerRepositoryUpdateScores(t *testing.T) {
	players := newSeededCatalog().Players()
	at := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, players.UpdateScores(t.Context(), "player-pedri", 80, 75.5, at))
	got, ok, err := players.GetByID(t.Context(), "player-pedri")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 80.0, got.CurrentScore)
	assert.Equal(t, 75.5, got.AverageScore)
	require.NotNil(t, got.LastSyncAt)

	err = players.UpdateScores(t.Context(), "missing", 1, 1, at)
	assert.ErrorIs(t, err, player.ErrNotFound)
}

func TestClubRepositoryListAndSummary(t *testing.T) {
	clubs := newSeededCatalog().Clubs()
	ctx := t.Context()

	items, total, err := clubs.List(ctx, club.Filter{League: "liga"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "FC Barcelona", items[0].Name)
	assert.Equal(t, 2, items[0].PlayerCount)

	summary, err := clubs.Summary(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total)
	require.NotEmpty(t, summary.TopByValue)
	assert.Equal(t, ClubIDRealMadrid, summary.TopByValue[0].ClubID)
	assert.Equal(t, int64(335_000_000), summary.TopByValue[0].TotalValue)
}

func TestClubRepositoryUpsertByName(t *testing.T) {
	clubs := newSeededCatalog().Clubs()
	ctx := t.Context()

	updated, created, err := clubs.UpsertByName(ctx, club.Club{Name: "Palmeiras", League: "Série A", Country: "Brazil", APISportsID: "121"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, ClubIDPalmeiras, updated.ID)
	assert.Equal(t, "/logos/palmeiras.png", updated.LogoURL)

	inserted, created, err := clubs.UpsertByName(ctx, club.Club{Name: "Santos", League: "Série A", Country: "Brazil", APISportsID: "128"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, inserted.ID)

	synced, err := clubs.ListWithExternalID(ctx)
	require.NoError(t, err)
	require.Len(t, synced, 2)
	assert.Equal(t, "Palmeiras", synced[0].Name)
}

func TestPurgerClearsCatalogAndTeams(t *testing.T) {
	catalog := newSeededCatalog()
	teams := NewTeamRepository(fantasy.Team{
		ID:      "team-1",
		OwnerID: "user-1",
		Players: []fantasy.TeamPlayer{{ID: "e1", PlayerID: "player-pedri"}},
	})

	out, err := NewPurger(catalog, teams).PurgeCatalog(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 4, out.Clubs)
	assert.Equal(t, 9, out.Players)
	assert.Equal(t, 1, out.Teams)
	assert.Equal(t, 1, out.TeamPlayers)

	_, total, err := catalog.Players().List(t.Context(), player.Filter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}
