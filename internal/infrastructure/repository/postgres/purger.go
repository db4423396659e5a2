package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/futboss/internal/domain/club"
	qb "github.com/riskibarqy/futboss/internal/platform/querybuilder"
)

// Purger clears the catalog and every fantasy team in one transaction.
type Purger struct {
	db *sqlx.DB
}

func NewPurger(db *sqlx.DB) *Purger {
	return &Purger{db: db}
}

func (p *Purger) PurgeCatalog(ctx context.Context) (club.PurgeResult, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return club.PurgeResult{}, fmt.Errorf("begin tx for catalog purge: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var out club.PurgeResult
	// children first so cascades do not hide the counts
	steps := []struct {
		table string
		count *int
	}{
		{table: "team_players", count: &out.TeamPlayers},
		{table: "fantasy_teams", count: &out.Teams},
		{table: "player_stats", count: &out.Stats},
		{table: "player_scouts", count: &out.Scouts},
		{table: "players", count: &out.Players},
		{table: "clubs", count: &out.Clubs},
	}
	for _, step := range steps {
		query, args, err := qb.DeleteFrom(step.table).ToSQL()
		if err != nil {
			return club.PurgeResult{}, fmt.Errorf("build purge %s query: %w", step.table, err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return club.PurgeResult{}, fmt.Errorf("purge %s: %w", step.table, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return club.PurgeResult{}, fmt.Errorf("purge %s rows affected: %w", step.table, err)
		}
		*step.count = int(affected)
	}

	if err := tx.Commit(); err != nil {
		return club.PurgeResult{}, fmt.Errorf("commit catalog purge tx: %w", err)
	}
	return out, nil
}
