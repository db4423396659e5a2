package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/riskibarqy/futboss/internal/domain/fantasy"
)

// TeamRepository stores fantasy teams. Mutate holds the write lock for the
// whole load-apply-store cycle, which serializes roster changes.
type TeamRepository struct {
	mu    sync.RWMutex
	teams map[string]fantasy.Team
}

func NewTeamRepository(teams ...fantasy.Team) *TeamRepository {
	r := &TeamRepository{teams: make(map[string]fantasy.Team, len(teams))}
	for _, item := range teams {
		r.teams[item.ID] = item.Clone()
	}
	return r
}

func (r *TeamRepository) ListByOwner(_ context.Context, ownerID string) ([]fantasy.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fantasy.Team, 0)
	for _, item := range r.teams {
		if item.OwnerID == ownerID {
			out = append(out, item.Clone())
		}
	}
	slices.SortFunc(out, func(a, b fantasy.Team) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (r *TeamRepository) GetByOwner(_ context.Context, ownerID, teamID string) (fantasy.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.teams[teamID]
	if !ok || item.OwnerID != ownerID {
		return fantasy.Team{}, false, nil
	}
	return item.Clone(), true, nil
}

func (r *TeamRepository) Create(_ context.Context, team fantasy.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.teams[team.ID]; exists {
		return fmt.Errorf("fantasy team %s already exists", team.ID)
	}
	r.teams[team.ID] = team.Clone()
	return nil
}

func (r *TeamRepository) Mutate(_ context.Context, ownerID, teamID string, fn fantasy.MutateFunc) (fantasy.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.teams[teamID]
	if !ok || current.OwnerID != ownerID {
		return fantasy.Team{}, fmt.Errorf("%w: %s", fantasy.ErrTeamNotFound, teamID)
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return fantasy.Team{}, err
	}
	r.teams[teamID] = next.Clone()
	return next, nil
}

func (r *TeamRepository) Delete(_ context.Context, ownerID, teamID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.teams[teamID]
	if !ok || item.OwnerID != ownerID {
		return false, nil
	}
	delete(r.teams, teamID)
	return true, nil
}

// purgeLocked drops every team and reports team and roster row counts.
// Caller holds mu.
func (r *TeamRepository) purgeLocked() (teams, entries int) {
	for _, item := range r.teams {
		entries += len(item.Players)
	}
	teams = len(r.teams)
	r.teams = make(map[string]fantasy.Team)
	return teams, entries
}
