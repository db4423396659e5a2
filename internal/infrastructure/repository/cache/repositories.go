package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/riskibarqy/futboss/internal/domain/club"
	"github.com/riskibarqy/futboss/internal/domain/player"
	basecache "github.com/riskibarqy/futboss/internal/platform/cache"
)

const (
	catalogPrefix = "catalog:"
	playerPrefix  = catalogPrefix + "player:"
	clubPrefix    = catalogPrefix + "club:"
)

// Catalog drops every cached catalog read. Writers call it after syncing.
type Catalog struct {
	cache *basecache.Store
}

func NewCatalog(cache *basecache.Store) *Catalog {
	return &Catalog{cache: cache}
}

func (c *Catalog) InvalidateCatalog(ctx context.Context) int {
	if c == nil || c.cache == nil {
		return 0
	}
	return c.cache.DeletePrefix(ctx, catalogPrefix)
}

type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store) *PlayerRepository {
	return &PlayerRepository{next: next, cache: cache}
}

func (r *PlayerRepository) List(ctx context.Context, filter player.Filter) ([]player.Player, int, error) {
	key := playerPrefix + "list:" + playerFilterKey(filter)
	page, err := basecache.Load(ctx, r.cache, key, func(ctx context.Context) (cachedPlayerPage, error) {
		items, total, err := r.next.List(ctx, filter)
		if err != nil {
			return cachedPlayerPage{}, err
		}
		return cachedPlayerPage{items: append([]player.Player(nil), items...), total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return append([]player.Player(nil), page.items...), page.total, nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, playerPrefix+"id:"+playerID, func(ctx context.Context) (cachedPlayerByID, error) {
		item, exists, err := r.next.GetByID(ctx, playerID)
		if err != nil {
			return cachedPlayerByID{}, err
		}
		return cachedPlayerByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return player.Player{}, false, err
	}
	return cached.value, cached.exists, nil
}

// GetByIDs is not cached; roster hydration asks for arbitrary id sets.
func (r *PlayerRepository) GetByIDs(ctx context.Context, playerIDs []string) ([]player.Player, error) {
	return r.next.GetByIDs(ctx, playerIDs)
}

func (r *PlayerRepository) GetRecord(ctx context.Context, playerID string) (player.Record, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, playerPrefix+"record:"+playerID, func(ctx context.Context) (cachedPlayerRecord, error) {
		record, exists, err := r.next.GetRecord(ctx, playerID)
		if err != nil {
			return cachedPlayerRecord{}, err
		}
		return cachedPlayerRecord{value: record, exists: exists}, nil
	})
	if err != nil {
		return player.Record{}, false, err
	}
	return cloneRecord(cached.value), cached.exists, nil
}

func (r *PlayerRepository) Summary(ctx context.Context, topN int) (player.Summary, error) {
	return basecache.Load(ctx, r.cache, playerPrefix+"summary:"+strconv.Itoa(topN), func(ctx context.Context) (player.Summary, error) {
		return r.next.Summary(ctx, topN)
	})
}

type cachedPlayerPage struct {
	items []player.Player
	total int
}

type cachedPlayerByID struct {
	value  player.Player
	exists bool
}

type cachedPlayerRecord struct {
	value  player.Record
	exists bool
}

type ClubRepository struct {
	next  club.Repository
	cache *basecache.Store
}

func NewClubRepository(next club.Repository, cache *basecache.Store) *ClubRepository {
	return &ClubRepository{next: next, cache: cache}
}

func (r *ClubRepository) List(ctx context.Context, filter club.Filter) ([]club.Club, int, error) {
	key := clubPrefix + "list:" + clubFilterKey(filter)
	page, err := basecache.Load(ctx, r.cache, key, func(ctx context.Context) (cachedClubPage, error) {
		items, total, err := r.next.List(ctx, filter)
		if err != nil {
			return cachedClubPage{}, err
		}
		return cachedClubPage{items: append([]club.Club(nil), items...), total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return append([]club.Club(nil), page.items...), page.total, nil
}

func (r *ClubRepository) GetByID(ctx context.Context, clubID string) (club.Club, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, clubPrefix+"id:"+clubID, func(ctx context.Context) (cachedClubByID, error) {
		item, exists, err := r.next.GetByID(ctx, clubID)
		if err != nil {
			return cachedClubByID{}, err
		}
		return cachedClubByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return club.Club{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *ClubRepository) Summary(ctx context.Context, topN int) (club.Summary, error) {
	return basecache.Load(ctx, r.cache, clubPrefix+"summary:"+strconv.Itoa(topN), func(ctx context.Context) (club.Summary, error) {
		return r.next.Summary(ctx, topN)
	})
}

type cachedClubPage struct {
	items []club.Club
	total int
}

type cachedClubByID struct {
	value  club.Club
	exists bool
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
	return out
}

func playerFilterKey(f player.Filter) string {
	parts := []string{
		string(f.Position),
		f.ClubID,
		strings.ToLower(f.Club),
		strings.ToLower(f.Nationality),
		strings.ToLower(f.Search),
		optionalInt(f.MinValue),
		optionalInt(f.MaxValue),
		optionalFloat(f.MinScore),
		optionalFloat(f.MaxScore),
		string(f.Sort.Field),
		strconv.FormatBool(f.Sort.Desc),
		strconv.Itoa(f.Limit),
		strconv.Itoa(f.Offset),
	}
	return strings.Join(parts, "|")
}

func clubFilterKey(f club.Filter) string {
	parts := []string{
		strings.ToLower(f.League),
		strings.ToLower(f.Country),
		strings.ToLower(f.Search),
		string(f.Sort.Field),
		strconv.FormatBool(f.Sort.Desc),
		strconv.Itoa(f.Limit),
		strconv.Itoa(f.Offset),
	}
	return strings.Join(parts, "|")
}

func optionalInt(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func optionalFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}
