package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/riskibarqy/futboss/internal/domain/player"
)

type PlayerRepository struct {
	catalog *Catalog
}

func (r *PlayerRepository) List(_ context.Context, filter player.Filter) ([]player.Player, int, error) {
	r.catalog.mu.RLock()
	defer r.catalog.mu.RUnlock()

	items := make([]player.Player, 0, len(r.catalog.players))
	for _, record := range r.catalog.players {
		if !r.matchPlayer(record.Player, filter) {
			continue
		}
		items = append(items, record.Player)
	}

	sortPlayers(items, filter.Sort)
	return paginate(items, filter.Offset, filter.Limit), len(items), nil
}

func (r *PlayerRepository) GetByID(_ context.Context, playerID string) (player.Player, bool, error) {
	r.catalog.mu.RLock()
	defer r.catalog.mu.RUnlock()

	record, ok := r.catalog.players[playerID]
	if !ok {
		return player.Player{}, false, nil
	}
	return cloneRecord(record).Player, true, nil
}

func (r *PlayerRepository) GetByIDs(_ context.Context, playerIDs []string) ([]player.Player, error) {
	r.catalog.mu.RLock()
	defer r.catalog.mu.RUnlock()

	out := make([]player.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		record, ok := r.catalog.players[id]
		if !ok {
			continue
		}
		out = append(out, cloneRecord(record).Player)
	}
	return out, nil
}

func (r *PlayerRepository) GetRecord(_ context.Context, playerID string) (player.Record, bool, error) {
	r.catalog.mu.RLock()
	defer r.catalog.mu.RUnlock()

	record, ok := r.catalog.players[playerID]
	if !ok {
		return player.Record{}, false, nil
	}
	return cloneRecord(record), true, nil
}

func (r *PlayerRepository) Summary(_ context.Context, topN int) (player.Summary, error) {
	r.catalog.mu.RLock()
	defer r.catalog.mu.RUnlock()

	out := player.Summary{Total: len(r.catalog.players)}
	if out.Total == 0 {
		return out, nil
	}

	type positionAgg struct {
		count    int
		scoreSum float64
		valueSum float64
	}
	byPosition := make(map[player.Position]*positionAgg)
	nationalities := make(map[string]int)

	var valueSum, scoreSum, averageSum float64
	first := true
	for _, record := range r.catalog.players {
		p := record.Player
		value := float64(p.MarketValue)
		if first {
			out.MarketValue.Min, out.MarketValue.Max = value, value
			out.CurrentScore.Min, out.CurrentScore.Max = p.CurrentScore, p.CurrentScore
			first = false
		}
		out.MarketValue.Min = min(out.MarketValue.Min, value)
		out.MarketValue.Max = max(out.MarketValue.Max, value)
		out.CurrentScore.Min = min(out.CurrentScore.Min, p.CurrentScore)
		out.CurrentScore.Max = max(out.CurrentScore.Max, p.CurrentScore)
		valueSum += value
		scoreSum += p.CurrentScore
		averageSum += p.AverageScore

		agg, ok := byPosition[p.Position]
		if !ok {
			agg = &positionAgg{}
			byPosition[p.Position] = agg
		}
		agg.count++
		agg.scoreSum += p.CurrentScore
		agg.valueSum += value

		if p.Nationality != "" {
			nationalities[p.Nationality]++
		}
	}

	total := float64(out.Total)
	out.MarketValue.Average = valueSum / total
	out.CurrentScore.Average = scoreSum / total
	out.AverageScore = averageSum / total

	for _, pos := range player.OrderedPositions {
		agg, ok := byPosition[pos]
		if !ok {
			continue
		}
		out.ByPosition = append(out.ByPosition, player.PositionSummary{
			Position:     pos,
			Count:        agg.count,
			AverageScore: agg.scoreSum / float64(agg.count),
			AverageValue: agg.valueSum / float64(agg.count),
		})
	}
	if topN > 0 {
		for _, b := range topBuckets(nationalities, topN) {
			out.TopNationalities = append(out.TopNationalities, player.Bucket(b))
		}
	}
	return out, nil
}

func (r *PlayerRepository) UpsertByName(_ context.Context, record player.Record) (player.Player, bool, error) {
	if err := record.Player.Validate(); err != nil {
		return player.Player{}, false, err
	}

	r.catalog.mu.Lock()
	defer r.catalog.mu.Unlock()

	now := r.catalog.now().UTC()
	next := cloneRecord(record)
	for id, existing := range r.catalog.players {
		if existing.Player.Name != record.Player.Name {
			continue
		}
		next.Player.ID = id
		next.Player.CreatedAt = existing.Player.CreatedAt
		next.Player.UpdatedAt = now
		if next.Player.APIID == "" {
			next.Player.APIID = existing.Player.APIID
		}
		if next.Stats == nil {
			next.Stats = existing.Stats
		}
		if next.Scouts == nil {
			next.Scouts = existing.Scouts
		}
		r.catalog.players[id] = next
		return cloneRecord(next).Player, false, nil
	}

	id, err := r.catalog.ids.NewID()
	if err != nil {
		return player.Player{}, false, err
	}
	next.Player.ID = id
	next.Player.CreatedAt = now
	next.Player.UpdatedAt = now
	r.catalog.players[id] = next
	return cloneRecord(next).Player, true, nil
}

func (r *PlayerRepository) ListSynced(_ context.Context) ([]player.Record, error) {
	r.catalog.mu.RLock()
	defer r.catalog.mu.RUnlock()

	out := make([]player.Record, 0, len(r.catalog.players))
	for _, record := range r.catalog.players {
		if isSynced(record.Player) {
			out = append(out, cloneRecord(record))
		}
	}
	slices.SortFunc(out, func(a, b player.Record) int {
		return cmp.Compare(a.Player.Name, b.Player.Name)
	})
	return out, nil
}

func (r *PlayerRepository) UpdateScores(_ context.Context, playerID string, current, average float64, at time.Time) error {
	r.catalog.mu.Lock()
	defer r.catalog.mu.Unlock()

	record, ok := r.catalog.players[playerID]
	if !ok {
		return fmt.Errorf("%w: %s", player.ErrNotFound, playerID)
	}
	record.Player.CurrentScore = current
	record.Player.AverageScore = average
	record.Player.LastSyncAt = &at
	record.Player.UpdatedAt = at
	r.catalog.players[playerID] = record
	return nil
}

func (r *PlayerRepository) CountSynced(_ context.Context) (int, error) {
	r.catalog.mu.RLock()
	defer r.catalog.mu.RUnlock()

	count := 0
	for _, record := range r.catalog.players {
		if isSynced(record.Player) {
			count++
		}
	}
	return count, nil
}

func isSynced(p player.Player) bool {
	return strings.TrimSpace(p.APISportsID) != ""
}

func (r *PlayerRepository) matchPlayer(p player.Player, filter player.Filter) bool {
	if filter.Position != "" && p.Position != filter.Position {
		return false
	}
	if filter.ClubID != "" && p.ClubID != filter.ClubID {
		return false
	}
	clubName := r.catalog.clubNameLocked(p)
	if filter.Club != "" && !containsFold(clubName, filter.Club) && !containsFold(p.CurrentTeam, filter.Club) {
		return false
	}
	if filter.Nationality != "" && !containsFold(p.Nationality, filter.Nationality) {
		return false
	}
	if filter.Search != "" &&
		!containsFold(p.Name, filter.Search) &&
		!containsFold(p.CurrentTeam, filter.Search) &&
		!containsFold(p.Nationality, filter.Search) &&
		!containsFold(clubName, filter.Search) {
		return false
	}
	if filter.MinValue != nil && p.MarketValue < *filter.MinValue {
		return false
	}
	if filter.MaxValue != nil && p.MarketValue > *filter.MaxValue {
		return false
	}
	if filter.MinScore != nil && p.CurrentScore < *filter.MinScore {
		return false
	}
	if filter.MaxScore != nil && p.CurrentScore > *filter.MaxScore {
		return false
	}
	return true
}

func sortPlayers(items []player.Player, sortBy player.Sort) {
	slices.SortStableFunc(items, func(a, b player.Player) int {
		var c int
		switch sortBy.Field {
		case player.SortByMarketValue:
			c = cmp.Compare(a.MarketValue, b.MarketValue)
		case player.SortByCurrentScore:
			c = cmp.Compare(a.CurrentScore, b.CurrentScore)
		case player.SortByAverageScore:
			c = cmp.Compare(a.AverageScore, b.AverageScore)
		case player.SortByAge:
			c = cmp.Compare(a.Age, b.Age)
		case player.SortByPosition:
			c = cmp.Compare(a.Position, b.Position)
		case player.SortByNationality:
			c = cmp.Compare(a.Nationality, b.Nationality)
		default:
			c = cmp.Compare(a.Name, b.Name)
		}
		if sortBy.Desc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		return c
	})
}
