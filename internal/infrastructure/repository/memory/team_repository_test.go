package memory

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/futboss/internal/domain/fantasy"
)

func TestTeamRepositoryMutateIsAtomic(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewTeamRepository(fantasy.Team{ID: "t1", OwnerID: "u1", Name: "Alpha", Budget: 100, CreatedAt: now})
	ctx := t.Context()

	_, err := repo.Mutate(ctx, "u1", "t1", func(team *fantasy.Team) error {
		team.Name = "Changed"
		return errors.New("boom")
	})
	require.Error(t, err)

	stored, ok, err := repo.GetByOwner(ctx, "u1", "t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Alpha", stored.Name)

	_, err = repo.Mutate(ctx, "someone-else", "t1", func(*fantasy.Team) error { return nil })
	assert.ErrorIs(t, err, fantasy.ErrTeamNotFound)
}

func TestTeamRepositoryConcurrentAddsRespectBudget(t *testing.T) {
	repo := NewTeamRepository(fantasy.Team{ID: "t1", OwnerID: "u1", Budget: 100})
	ctx := t.Context()
	now := time.Now()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Mutate(ctx, "u1", "t1", func(team *fantasy.Team) error {
				return team.AddPlayer(fantasy.TeamPlayer{
					PlayerID:         string(rune('a' + i)),
					AcquisitionValue: 30,
				}, now)
			})
		}()
	}
	wg.Wait()

	stored, _, err := repo.GetByOwner(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.Len(t, stored.Players, 3)
	assert.Equal(t, int64(90), stored.TotalValue)
}

func TestTeamRepositoryDeleteChecksOwner(t *testing.T) {
	repo := NewTeamRepository(fantasy.Team{ID: "t1", OwnerID: "u1"})

	deleted, err := repo.Delete(t.Context(), "u2", "t1")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.Delete(t.Context(), "u1", "t1")
	require.NoError(t, err)
	assert.True(t, deleted)

	teams, err := repo.ListByOwner(t.Context(), "u1")
	require.NoError(t, err)
	assert.Empty(t, teams)
}
