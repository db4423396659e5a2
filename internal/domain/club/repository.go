package club

import "context"

// Repository describes club reads needed by use cases.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Club, int, error)
	GetByID(ctx context.Context, clubID string) (Club, bool, error)
	Summary(ctx context.Context, topN int) (Summary, error)
}

// SyncRepository is the write side used by the data-sync job.
type SyncRepository interface {
	UpsertByName(ctx context.Context, c Club) (Club, bool, error)
	ListWithExternalID(ctx context.Context) ([]Club, error)
}

// PurgeResult counts rows removed when the catalog is cleared.
type PurgeResult struct {
	TeamPlayers int
	Teams       int
	Stats       int
	Scouts      int
	Players     int
	Clubs       int
}

// Purger removes every club and player together with the fantasy teams that
// reference them.
type Purger interface {
	PurgeCatalog(ctx context.Context) (PurgeResult, error)
}
