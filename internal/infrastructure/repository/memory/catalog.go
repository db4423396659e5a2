package memory

import (
	"cmp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/futboss/internal/domain/club"
	"github.com/riskibarqy/futboss/internal/domain/player"
	idgen "github.com/riskibarqy/futboss/internal/platform/id"
)

// Catalog holds clubs and players in one lock domain so club player counts
// and club-name filters stay consistent with the player rows.
type Catalog struct {
	mu      sync.RWMutex
	clubs   map[string]club.Club
	players map[string]player.Record
	ids     idgen.Generator
	now     func() time.Time
}

func NewCatalog(clubs []club.Club, records []player.Record, ids idgen.Generator) *Catalog {
	if ids == nil {
		ids = idgen.NewUUIDGenerator()
	}
	c := &Catalog{
		clubs:   make(map[string]club.Club, len(clubs)),
		players: make(map[string]player.Record, len(records)),
		ids:     ids,
		now:     time.Now,
	}
	for _, item := range clubs {
		c.clubs[item.ID] = item
	}
	for _, record := range records {
		c.players[record.Player.ID] = cloneRecord(record)
	}
	return c
}

func (c *Catalog) Clubs() *ClubRepository {
	return &ClubRepository{catalog: c}
}

func (c *Catalog) Players() *PlayerRepository {
	return &PlayerRepository{catalog: c}
}

// clubNameLocked resolves a player's club display name. Caller holds mu.
func (c *Catalog) clubNameLocked(p player.Player) string {
	if item, ok := c.clubs[p.ClubID]; ok {
		return item.Name
	}
	return ""
}

func (c *Catalog) clubPlayerCountsLocked() map[string]int {
	out := make(map[string]int, len(c.clubs))
	for _, record := range c.players {
		if record.Player.ClubID != "" {
			out[record.Player.ClubID]++
		}
	}
	return out
}

func cloneRecord(record player.Record) player.Record {
	out := record
	if record.Stats != nil {
		stats := *record.Stats
		out.Stats = &stats
	}
	if record.Scouts != nil {
		scouts := *record.Scouts
		out.Scouts = &scouts
	}
	if record.Player.LastSyncAt != nil {
		at := *record.Player.LastSyncAt
		out.Player.LastSyncAt = &at
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// paginate applies offset/limit; a non-positive limit returns everything
// after the offset.
func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return append([]T(nil), items...)
}

// topBuckets orders counts descending with ties by key and keeps n entries;
// n <= 0 keeps all.
func topBuckets(counts map[string]int, n int) []club.Bucket {
	out := make([]club.Bucket, 0, len(counts))
	for key, count := range counts {
		out = append(out, club.Bucket{Key: key, Count: count})
	}
	slices.SortFunc(out, func(a, b club.Bucket) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
