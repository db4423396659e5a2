package memory

import (
	"context"

	"github.com/riskibarqy/futboss/internal/domain/club"
	"github.com/riskibarqy/futboss/internal/domain/player"
)

// Purger clears the catalog and every fantasy team referencing it.
type Purger struct {
	catalog *Catalog
	teams   *TeamRepository
}

func NewPurger(catalog *Catalog, teams *TeamRepository) *Purger {
	return &Purger{catalog: catalog, teams: teams}
}

func (p *Purger) PurgeCatalog(_ context.Context) (club.PurgeResult, error) {
	var out club.PurgeResult
	if p.teams != nil {
		p.teams.mu.Lock()
		defer p.teams.mu.Unlock()
		out.Teams, out.TeamPlayers = p.teams.purgeLocked()
	}

	p.catalog.mu.Lock()
	defer p.catalog.mu.Unlock()

	for _, record := range p.catalog.players {
		if record.Stats != nil {
			out.Stats++
		}
		if record.Scouts != nil {
			out.Scouts++
		}
	}
	out.Players = len(p.catalog.players)
	out.Clubs = len(p.catalog.clubs)
	p.catalog.players = make(map[string]player.Record)
	p.catalog.clubs = make(map[string]club.Club)
	return out, nil
}
