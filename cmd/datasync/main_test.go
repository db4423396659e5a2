package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/futboss/internal/domain/club"
	"github.com/riskibarqy/futboss/internal/infrastructure/repository/memory"
	idgen "github.com/riskibarqy/futboss/internal/platform/id"
	"github.com/riskibarqy/futboss/internal/platform/logging"
	"github.com/riskibarqy/futboss/internal/usecase"
)

func newSyncService(production bool) *usecase.DataSyncService {
	catalog := memory.NewCatalog(memory.SeedClubs(), memory.SeedRecords(), idgen.NewSequence("catalog"))
	return usecase.NewDataSyncService(
		nil,
		catalog.Clubs(),
		catalog.Clubs(),
		catalog.Players(),
		catalog.Players(),
		memory.NewPurger(catalog, memory.NewTeamRepository()),
		nil,
		usecase.DataSyncConfig{Production: production},
		logging.NewNop(),
	)
}

func TestValidCommand(t *testing.T) {
	for _, cmd := range []string{"all", "clubs", "players", "scores", "status", "summary", "check", "clear"} {
		assert.True(t, validCommand(cmd), cmd)
	}
	assert.False(t, validCommand("fixtures"))
	assert.False(t, validCommand(""))
}

func TestRun_WithoutProvider(t *testing.T) {
	ctx := context.Background()
	svc := newSyncService(false)

	_, _, err := run(ctx, svc, "all")
	require.Error(t, err)

	out, failed, err := run(ctx, svc, "check")
	require.NoError(t, err)
	assert.True(t, failed)
	assert.False(t, out.(usecase.ProviderCheck).Available)

	out, failed, err = run(ctx, svc, "summary")
	require.NoError(t, err)
	assert.False(t, failed)
	assert.Equal(t, 9, out.(usecase.CatalogSummary).TotalPlayers)
}

func TestRun_Clear(t *testing.T) {
	ctx := context.Background()

	out, _, err := run(ctx, newSyncService(false), "clear")
	require.NoError(t, err)
	assert.Equal(t, 9, out.(club.PurgeResult).Players)
	assert.Equal(t, 4, out.(club.PurgeResult).Clubs)

	_, _, err = run(ctx, newSyncService(true), "clear")
	require.Error(t, err)
}
