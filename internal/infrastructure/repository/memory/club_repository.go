package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/riskibarqy/futboss/internal/domain/club"
)

type ClubRepository struct {
	catalog *Catalog
}

func (r *ClubRepository) List(_ context.Context, filter club.Filter) ([]club.Club, int, error) {
	r.catalog.mu.RLock()
	defer r.catalog.mu.RUnlock()

	counts := r.catalog.clubPlayerCountsLocked()
	items := make([]club.Club, 0, len(r.catalog.clubs))
	for _, item := range r.catalog.clubs {
		if !matchClub(item, filter) {
			continue
		}
		item.PlayerCount = counts[item.ID]
		items = append(items, item)
	}

	sortClubs(items, filter.Sort)
	return paginate(items, filter.Offset, filter.Limit), len(items), nil
}

func (r *ClubRepository) GetByID(_ context.Context, clubID string) (club.Club, bool, error) {
	r.catalog.mu.RLock()
	defer r.catalog.mu.RUnlock()

	item, ok := r.catalog.clubs[clubID]
	if !ok {
		return club.Club{}, false, nil
	}
	item.PlayerCount = r.catalog.clubPlayerCountsLocked()[clubID]
	return item, true, nil
}

func (r *ClubRepository) Summary(_ context.Context, topN int) (club.Summary, error) {
	r.catalog.mu.RLock()
	defer r.catalog.mu.RUnlock()

	leagues := make(map[string]int)
	countries := make(map[string]int)
	for _, item := range r.catalog.clubs {
		leagues[item.League]++
		countries[item.Country]++
	}

	valuations := make(map[string]*club.Valuation)
	for _, record := range r.catalog.players {
		item, ok := r.catalog.clubs[record.Player.ClubID]
		if !ok {
			continue
		}
		v, ok := valuations[item.ID]
		if !ok {
			v = &club.Valuation{ClubID: item.ID, Name: item.Name, League: item.League}
			valuations[item.ID] = v
		}
		v.PlayerCount++
		v.TotalValue += record.Player.MarketValue
	}
	ranked := make([]club.Valuation, 0, len(valuations))
	for _, v := range valuations {
		ranked = append(ranked, *v)
	}
	slices.SortFunc(ranked, func(a, b club.Valuation) int {
		if a.TotalValue != b.TotalValue {
			return cmp.Compare(b.TotalValue, a.TotalValue)
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	return club.Summary{
		Total:        len(r.catalog.clubs),
		ByLeague:     topBuckets(leagues, 0),
		TopCountries: topBuckets(countries, topN),
		TopByValue:   ranked,
	}, nil
}

func (r *ClubRepository) UpsertByName(_ context.Context, c club.Club) (club.Club, bool, error) {
	if err := c.Validate(); err != nil {
		return club.Club{}, false, err
	}

	r.catalog.mu.Lock()
	defer r.catalog.mu.Unlock()

	now := r.catalog.now().UTC()
	for id, existing := range r.catalog.clubs {
		if existing.Name != c.Name {
			continue
		}
		existing.League = c.League
		existing.Country = c.Country
		if c.LogoURL != "" {
			existing.LogoURL = c.LogoURL
		}
		if c.APIID != "" {
			existing.APIID = c.APIID
		}
		if c.APISportsID != "" {
			existing.APISportsID = c.APISportsID
		}
		existing.UpdatedAt = now
		r.catalog.clubs[id] = existing
		return existing, false, nil
	}

	id, err := r.catalog.ids.NewID()
	if err != nil {
		return club.Club{}, false, err
	}
	c.ID = id
	c.PlayerCount = 0
	c.CreatedAt = now
	c.UpdatedAt = now
	r.catalog.clubs[id] = c
	return c, true, nil
}

func (r *ClubRepository) ListWithExternalID(_ context.Context) ([]club.Club, error) {
	r.catalog.mu.RLock()
	defer r.catalog.mu.RUnlock()

	out := make([]club.Club, 0, len(r.catalog.clubs))
	for _, item := range r.catalog.clubs {
		if strings.TrimSpace(item.APISportsID) != "" {
			out = append(out, item)
		}
	}
	sortClubs(out, club.Sort{Field: club.SortByName})
	return out, nil
}

func matchClub(item club.Club, filter club.Filter) bool {
	if filter.League != "" && !containsFold(item.League, filter.League) {
		return false
	}
	if filter.Country != "" && !containsFold(item.Country, filter.Country) {
		return false
	}
	if filter.Search != "" &&
		!containsFold(item.Name, filter.Search) &&
		!containsFold(item.League, filter.Search) &&
		!containsFold(item.Country, filter.Search) {
		return false
	}
	return true
}

func sortClubs(items []club.Club, sortBy club.Sort) {
	slices.SortStableFunc(items, func(a, b club.Club) int {
		var c int
		switch sortBy.Field {
		case club.SortByLeague:
			c = cmp.Compare(a.League, b.League)
		case club.SortByCountry:
			c = cmp.Compare(a.Country, b.Country)
		case club.SortByCreatedAt:
			c = a.CreatedAt.Compare(b.CreatedAt)
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
