package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/futboss/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the demo catalog when the clubs table is empty.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM clubs`); err != nil {
		return fmt.Errorf("count clubs for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, c := range memory.SeedClubs() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO clubs (id, name, league, country, logo_url, created_at, updated_at)
VALUES (:id, :name, :league, :country, :logo_url, :created_at, :updated_at)
ON CONFLICT (name) DO NOTHING`, map[string]any{
			"id":         c.ID,
			"name":       c.Name,
			"league":     c.League,
			"country":    c.Country,
			"logo_url":   c.LogoURL,
			"created_at": c.CreatedAt,
			"updated_at": c.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("bind seed club %s query: %w", c.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed club %s: %w", c.ID, err)
		}
	}

	for _, p := range memory.SeedPlayers() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO players (
    id, name, position, current_team, club_id, market_value, current_score, average_score,
    nationality, age, created_at, updated_at
) VALUES (
    :id, :name, :position, :current_team, :club_id, :market_value, :current_score, :average_score,
    :nationality, :age, :created_at, :updated_at
)
ON CONFLICT (name) DO NOTHING`, map[string]any{
			"id":            p.ID,
			"name":          p.Name,
			"position":      string(p.Position),
			"current_team":  p.CurrentTeam,
			"club_id":       nullString(p.ClubID),
			"market_value":  p.MarketValue,
			"current_score": p.CurrentScore,
			"average_score": p.AverageScore,
			"nationality":   p.Nationality,
			"age":           p.Age,
			"created_at":    p.CreatedAt,
			"updated_at":    p.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("bind seed player %s query: %w", p.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed player %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	return nil
}
