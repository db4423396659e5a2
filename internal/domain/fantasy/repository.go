package fantasy

import "context"

// MutateFunc changes a loaded team in place. Returning an error discards
// every change.
type MutateFunc func(team *Team) error

// Repository describes fantasy team persistence needs from use cases.
type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]Team, error)
	GetByOwner(ctx context.Context, ownerID, teamID string) (Team, bool, error)
	// Create stores the team and its roster atomically.
	Create(ctx context.Context, team Team) error
	// Mutate loads the owner's team exclusively, applies fn and persists the
	// roster diff together with the new aggregate. Missing or foreign teams
	// yield ErrTeamNotFound.
	Mutate(ctx context.Context, ownerID, teamID string, fn MutateFunc) (Team, error)
	Delete(ctx context.Context, ownerID, teamID string) (bool, error)
}
