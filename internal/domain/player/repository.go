package player

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("player not found")

// Repository describes catalog reads needed by use cases.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Player, int, error)
	GetByID(ctx context.Context, playerID string) (Player, bool, error)
	GetByIDs(ctx context.Context, playerIDs []string) ([]Player, error)
	GetRecord(ctx context.Context, playerID string) (Record, bool, error)
	Summary(ctx context.Context, topN int) (Summary, error)
}

// SyncRepository is the write side used by the data-sync job.
type SyncRepository interface {
	// UpsertByName writes the player with its stats and scouts as one unit,
	// matching an existing row by name.
	UpsertByName(ctx context.Context, record Record) (Player, bool, error)
	ListSynced(ctx context.Context) ([]Record, error)
	UpdateScores(ctx context.Context, playerID string, current, average float64, at time.Time) error
	CountSynced(ctx context.Context) (int, error)
}
