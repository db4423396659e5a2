package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/futboss/internal/domain/club"
	idgen "github.com/riskibarqy/futboss/internal/platform/id"
	qb "github.com/riskibarqy/futboss/internal/platform/querybuilder"
)

const clubPlayerCountJoin = `(
    SELECT club_id, COUNT(*) AS player_count
    FROM players
    WHERE club_id IS NOT NULL
    GROUP BY club_id
) pc ON pc.club_id = c.id`

var clubSelectColumns = []string{
	"c.id",
	"c.name",
	"c.league",
	"c.country",
	"c.logo_url",
	"c.api_id",
	"c.api_sports_id",
	"COALESCE(pc.player_count, 0) AS player_count",
	"c.created_at",
	"c.updated_at",
}

var clubSortColumns = map[club.SortField]string{
	club.SortByName:      "c.name",
	club.SortByLeague:    "c.league",
	club.SortByCountry:   "c.country",
	club.SortByCreatedAt: "c.created_at",
}

type ClubRepository struct {
	db  *sqlx.DB
	ids idgen.Generator
	now func() time.Time
}

func NewClubRepository(db *sqlx.DB, ids idgen.Generator) *ClubRepository {
	if ids == nil {
		ids = idgen.NewUUIDGenerator()
	}
	return &ClubRepository{db: db, ids: ids, now: time.Now}
}

func (r *ClubRepository) List(ctx context.Context, filter club.Filter) ([]club.Club, int, error) {
	builder := qb.Select(clubSelectColumns...).From("clubs c").
		LeftJoin(clubPlayerCountJoin).
		Where(clubConditions(filter)...)

	countQuery, countArgs, err := builder.CountSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count clubs query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count clubs: %w", err)
	}

	query, args, err := builder.
		OrderBy(clubOrderBy(filter.Sort)...).
		Limit(filter.Limit).
		Offset(filter.Offset).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build select clubs query: %w", err)
	}

	var rows []clubTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("select clubs: %w", err)
	}

	out := make([]club.Club, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, total, nil
}

func (r *ClubRepository) GetByID(ctx context.Context, clubID string) (club.Club, bool, error) {
	query, args, err := qb.Select(clubSelectColumns...).From("clubs c").
		LeftJoin(clubPlayerCountJoin).
		Where(qb.Eq("c.id", clubID)).
		ToSQL()
	if err != nil {
		return club.Club{}, false, fmt.Errorf("build select club by id query: %w", err)
	}

	var row clubTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return club.Club{}, false, nil
		}
		return club.Club{}, false, fmt.Errorf("get club: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *ClubRepository) Summary(ctx context.Context, topN int) (club.Summary, error) {
	var out club.Summary
	if err := r.db.GetContext(ctx, &out.Total, `SELECT COUNT(*) FROM clubs`); err != nil {
		return club.Summary{}, fmt.Errorf("count clubs: %w", err)
	}

	byLeague, err := r.buckets(ctx, "league", 0)
	if err != nil {
		return club.Summary{}, err
	}
	out.ByLeague = byLeague

	countries, err := r.buckets(ctx, "country", topN)
	if err != nil {
		return club.Summary{}, err
	}
	out.TopCountries = countries

	query, args, err := qb.Select(
		"c.id AS club_id",
		"c.name",
		"c.league",
		"COUNT(p.id) AS player_count",
		"COALESCE(SUM(p.market_value), 0) AS total_value",
	).From("clubs c").
		Join("players p ON p.club_id = c.id").
		GroupBy("c.id", "c.name", "c.league").
		OrderBy("total_value DESC", "c.name ASC").
		Limit(topN).
		ToSQL()
	if err != nil {
		return club.Summary{}, fmt.Errorf("build club valuation query: %w", err)
	}

	var rows []struct {
		ClubID      string `db:"club_id"`
		Name        string `db:"name"`
		League      string `db:"league"`
		PlayerCount int    `db:"player_count"`
		TotalValue  int64  `db:"total_value"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return club.Summary{}, fmt.Errorf("select club valuations: %w", err)
	}
	for _, row := range rows {
		out.TopByValue = append(out.TopByValue, club.Valuation{
			ClubID:      row.ClubID,
			Name:        row.Name,
			League:      row.League,
			PlayerCount: row.PlayerCount,
			TotalValue:  row.TotalValue,
		})
	}
	return out, nil
}

// buckets groups clubs by column; limit <= 0 keeps every group.
func (r *ClubRepository) buckets(ctx context.Context, column string, limit int) ([]club.Bucket, error) {
	query, args, err := qb.Select(column+" AS key", "COUNT(*) AS count").
		From("clubs").
		GroupBy(column).
		OrderBy("count DESC", "key ASC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build club %s buckets query: %w", column, err)
	}

	var rows []struct {
		Key   string `db:"key"`
		Count int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select club %s buckets: %w", column, err)
	}
	out := make([]club.Bucket, 0, len(rows))
	for _, row := range rows {
		out = append(out, club.Bucket{Key: row.Key, Count: row.Count})
	}
	return out, nil
}

func (r *ClubRepository) UpsertByName(ctx context.Context, c club.Club) (club.Club, bool, error) {
	if err := c.Validate(); err != nil {
		return club.Club{}, false, err
	}
	id, err := r.ids.NewID()
	if err != nil {
		return club.Club{}, false, fmt.Errorf("generate club id: %w", err)
	}
	now := r.now().UTC()

	const upsertQuery = `
INSERT INTO clubs (id, name, league, country, logo_url, api_id, api_sports_id, created_at, updated_at)
VALUES (:id, :name, :league, :country, :logo_url, :api_id, :api_sports_id, :created_at, :updated_at)
ON CONFLICT (name)
DO UPDATE SET
    league = EXCLUDED.league,
    country = EXCLUDED.country,
    logo_url = COALESCE(NULLIF(EXCLUDED.logo_url, ''), clubs.logo_url),
    api_id = COALESCE(NULLIF(EXCLUDED.api_id, ''), clubs.api_id),
    api_sports_id = COALESCE(NULLIF(EXCLUDED.api_sports_id, ''), clubs.api_sports_id),
    updated_at = EXCLUDED.updated_at
RETURNING id, name, league, country, logo_url, api_id, api_sports_id, created_at, updated_at, (xmax = 0) AS inserted`

	sqlQuery, args, err := sqlx.Named(upsertQuery, map[string]any{
		"id":            id,
		"name":          strings.TrimSpace(c.Name),
		"league":        c.League,
		"country":       c.Country,
		"logo_url":      c.LogoURL,
		"api_id":        c.APIID,
		"api_sports_id": c.APISportsID,
		"created_at":    now,
		"updated_at":    now,
	})
	if err != nil {
		return club.Club{}, false, fmt.Errorf("bind upsert club query: %w", err)
	}
	sqlQuery = r.db.Rebind(sqlQuery)

	var row struct {
		clubTableModel
		Inserted bool `db:"inserted"`
	}
	if err := r.db.GetContext(ctx, &row, sqlQuery, args...); err != nil {
		return club.Club{}, false, fmt.Errorf("upsert club name=%s: %w", c.Name, err)
	}
	return row.toDomain(), row.Inserted, nil
}

func (r *ClubRepository) ListWithExternalID(ctx context.Context) ([]club.Club, error) {
	query, args, err := qb.Select(clubSelectColumns...).From("clubs c").
		LeftJoin(clubPlayerCountJoin).
		Where(qb.Expr("c.api_sports_id <> ''")).
		OrderBy("c.name ASC", "c.id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select synced clubs query: %w", err)
	}

	var rows []clubTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select synced clubs: %w", err)
	}
	out := make([]club.Club, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func clubConditions(filter club.Filter) []qb.Condition {
	conds := make([]qb.Condition, 0, 3)
	if filter.League != "" {
		conds = append(conds, qb.Contains("c.league", filter.League))
	}
	if filter.Country != "" {
		conds = append(conds, qb.Contains("c.country", filter.Country))
	}
	if filter.Search != "" {
		conds = append(conds, qb.Or(
			qb.Contains("c.name", filter.Search),
			qb.Contains("c.league", filter.Search),
			qb.Contains("c.country", filter.Search),
		))
	}
	return conds
}

func clubOrderBy(sortBy club.Sort) []string {
	column, ok := clubSortColumns[sortBy.Field]
	if !ok {
		column = clubSortColumns[club.SortByName]
	}
	return []string{column + " " + orderDirection(sortBy.Desc), "c.id ASC"}
}
