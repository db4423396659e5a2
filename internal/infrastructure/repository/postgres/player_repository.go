package postgres

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/futboss/internal/domain/player"
	idgen "github.com/riskibarqy/futboss/internal/platform/id"
	qb "github.com/riskibarqy/futboss/internal/platform/querybuilder"
)

var playerSelectColumns = []string{
	"p.id",
	"p.name",
	"p.position",
	"p.current_team",
	"p.club_id",
	"p.market_value",
	"p.current_score",
	"p.average_score",
	"p.nationality",
	"p.age",
	"p.photo_url",
	"p.api_id",
	"p.api_sports_id",
	"p.last_sync_at",
	"p.created_at",
	"p.updated_at",
}

var playerSortColumns = map[player.SortField]string{
	player.SortByName:         "p.name",
	player.SortByMarketValue:  "p.market_value",
	player.SortByCurrentScore: "p.current_score",
	player.SortByAverageScore: "p.average_score",
	player.SortByAge:          "p.age",
	player.SortByPosition:     "p.position",
	player.SortByNationality:  "p.nationality",
}

const (
	playerClubJoin     = "clubs c ON c.id = p.club_id"
	playerSyncedClause = "p.api_sports_id <> ''"
)

type PlayerRepository struct {
	db  *sqlx.DB
	ids idgen.Generator
	now func() time.Time
}

func NewPlayerRepository(db *sqlx.DB, ids idgen.Generator) *PlayerRepository {
	if ids == nil {
		ids = idgen.NewUUIDGenerator()
	}
	return &PlayerRepository{db: db, ids: ids, now: time.Now}
}

func (r *PlayerRepository) List(ctx context.Context, filter player.Filter) ([]player.Player, int, error) {
	builder := qb.Select(playerSelectColumns...).From("players p").
		LeftJoin(playerClubJoin).
		Where(playerConditions(filter)...)

	countQuery, countArgs, err := builder.CountSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count players query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count players: %w", err)
	}

	query, args, err := builder.
		OrderBy(playerOrderBy(filter.Sort)...).
		Limit(filter.Limit).
		Offset(filter.Offset).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build select players query: %w", err)
	}

	players, err := r.selectPlayers(ctx, query, args)
	if err != nil {
		return nil, 0, err
	}
	return players, total, nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players p").
		Where(qb.Eq("p.id", playerID)).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player by id query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("get player: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *PlayerRepository) GetByIDs(ctx context.Context, playerIDs []string) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return []player.Player{}, nil
	}

	query, args, err := qb.Select(playerSelectColumns...).From("players p").
		Where(qb.In("p.id", stringSliceToAny(playerIDs))).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players by ids query: %w", err)
	}

	found, err := r.selectPlayers(ctx, query, args)
	if err != nil {
		return nil, err
	}

	// keep the caller's order
	byID := make(map[string]player.Player, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]player.Player, 0, len(found))
	for _, id := range playerIDs {
		if p, ok := byID[id]; ok {
			out = append(out, p)
			delete(byID, id)
		}
	}
	return out, nil
}

func (r *PlayerRepository) GetRecord(ctx context.Context, playerID string) (player.Record, bool, error) {
	p, ok, err := r.GetByID(ctx, playerID)
	if err != nil || !ok {
		return player.Record{}, ok, err
	}

	stats, err := r.statsByPlayer(ctx, qb.Eq("player_id", playerID))
	if err != nil {
		return player.Record{}, false, err
	}
	scouts, err := r.scoutsByPlayer(ctx, qb.Eq("player_id", playerID))
	if err != nil {
		return player.Record{}, false, err
	}
	return player.Record{Player: p, Stats: stats[playerID], Scouts: scouts[playerID]}, true, nil
}

func (r *PlayerRepository) Summary(ctx context.Context, topN int) (player.Summary, error) {
	const totalsQuery = `
SELECT
    COUNT(*) AS total,
    COALESCE(AVG(market_value), 0) AS value_avg,
    COALESCE(MAX(market_value), 0) AS value_max,
    COALESCE(MIN(market_value), 0) AS value_min,
    COALESCE(AVG(current_score), 0) AS score_avg,
    COALESCE(MAX(current_score), 0) AS score_max,
    COALESCE(MIN(current_score), 0) AS score_min,
    COALESCE(AVG(average_score), 0) AS average_score
FROM players`

	var totals struct {
		Total        int     `db:"total"`
		ValueAvg     float64 `db:"value_avg"`
		ValueMax     float64 `db:"value_max"`
		ValueMin     float64 `db:"value_min"`
		ScoreAvg     float64 `db:"score_avg"`
		ScoreMax     float64 `db:"score_max"`
		ScoreMin     float64 `db:"score_min"`
		AverageScore float64 `db:"average_score"`
	}
	if err := r.db.GetContext(ctx, &totals, totalsQuery); err != nil {
		return player.Summary{}, fmt.Errorf("summarize players: %w", err)
	}

	out := player.Summary{
		Total:        totals.Total,
		MarketValue:  player.Range{Average: totals.ValueAvg, Max: totals.ValueMax, Min: totals.ValueMin},
		CurrentScore: player.Range{Average: totals.ScoreAvg, Max: totals.ScoreMax, Min: totals.ScoreMin},
		AverageScore: totals.AverageScore,
	}
	if out.Total == 0 {
		return out, nil
	}

	query, args, err := qb.Select(
		"position",
		"COUNT(*) AS count",
		"AVG(current_score) AS average_score",
		"AVG(market_value) AS average_value",
	).From("players").
		GroupBy("position").
		ToSQL()
	if err != nil {
		return player.Summary{}, fmt.Errorf("build player position summary query: %w", err)
	}
	var positions []struct {
		Position     string  `db:"position"`
		Count        int     `db:"count"`
		AverageScore float64 `db:"average_score"`
		AverageValue float64 `db:"average_value"`
	}
	if err := r.db.SelectContext(ctx, &positions, query, args...); err != nil {
		return player.Summary{}, fmt.Errorf("select player position summary: %w", err)
	}
	for _, row := range positions {
		out.ByPosition = append(out.ByPosition, player.PositionSummary{
			Position:     player.Position(row.Position),
			Count:        row.Count,
			AverageScore: row.AverageScore,
			AverageValue: row.AverageValue,
		})
	}
	slices.SortFunc(out.ByPosition, func(a, b player.PositionSummary) int {
		return slices.Index(player.OrderedPositions, a.Position) - slices.Index(player.OrderedPositions, b.Position)
	})

	if topN <= 0 {
		return out, nil
	}
	query, args, err = qb.Select("nationality AS key", "COUNT(*) AS count").
		From("players").
		Where(qb.Expr("nationality <> ''")).
		GroupBy("nationality").
		OrderBy("count DESC", "key ASC").
		Limit(topN).
		ToSQL()
	if err != nil {
		return player.Summary{}, fmt.Errorf("build player nationality summary query: %w", err)
	}
	var nationalities []struct {
		Key   string `db:"key"`
		Count int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &nationalities, query, args...); err != nil {
		return player.Summary{}, fmt.Errorf("select player nationality summary: %w", err)
	}
	for _, row := range nationalities {
		out.TopNationalities = append(out.TopNationalities, player.Bucket{Key: row.Key, Count: row.Count})
	}
	return out, nil
}

func (r *PlayerRepository) UpsertByName(ctx context.Context, record player.Record) (player.Player, bool, error) {
	if err := record.Player.Validate(); err != nil {
		return player.Player{}, false, err
	}
	id, err := r.ids.NewID()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("generate player id: %w", err)
	}
	now := r.now().UTC()
	p := record.Player

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return player.Player{}, false, fmt.Errorf("begin tx for player upsert: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const upsertPlayerQuery = `
INSERT INTO players (
    id, name, position, current_team, club_id, market_value, current_score, average_score,
    nationality, age, photo_url, api_id, api_sports_id, last_sync_at, created_at, updated_at
) VALUES (
    :id, :name, :position, :current_team, :club_id, :market_value, :current_score, :average_score,
    :nationality, :age, :photo_url, :api_id, :api_sports_id, :last_sync_at, :created_at, :updated_at
)
ON CONFLICT (name)
DO UPDATE SET
    position = EXCLUDED.position,
    current_team = EXCLUDED.current_team,
    club_id = EXCLUDED.club_id,
    market_value = EXCLUDED.market_value,
    current_score = EXCLUDED.current_score,
    average_score = EXCLUDED.average_score,
    nationality = EXCLUDED.nationality,
    age = EXCLUDED.age,
    photo_url = EXCLUDED.photo_url,
    api_id = COALESCE(NULLIF(EXCLUDED.api_id, ''), players.api_id),
    api_sports_id = EXCLUDED.api_sports_id,
    last_sync_at = EXCLUDED.last_sync_at,
    updated_at = EXCLUDED.updated_at
RETURNING id, name, position, current_team, club_id, market_value, current_score, average_score,
    nationality, age, photo_url, api_id, api_sports_id, last_sync_at, created_at, updated_at,
    (xmax = 0) AS inserted`

	upsertSQL, upsertArgs, err := sqlx.Named(upsertPlayerQuery, map[string]any{
		"id":            id,
		"name":          strings.TrimSpace(p.Name),
		"position":      string(p.Position),
		"current_team":  p.CurrentTeam,
		"club_id":       nullString(p.ClubID),
		"market_value":  p.MarketValue,
		"current_score": p.CurrentScore,
		"average_score": p.AverageScore,
		"nationality":   p.Nationality,
		"age":           p.Age,
		"photo_url":     p.PhotoURL,
		"api_id":        p.APIID,
		"api_sports_id": p.APISportsID,
		"last_sync_at":  p.LastSyncAt,
		"created_at":    now,
		"updated_at":    now,
	})
	if err != nil {
		return player.Player{}, false, fmt.Errorf("bind upsert player query: %w", err)
	}
	upsertSQL = tx.Rebind(upsertSQL)

	var row struct {
		playerTableModel
		Inserted bool `db:"inserted"`
	}
	if err := tx.GetContext(ctx, &row, upsertSQL, upsertArgs...); err != nil {
		return player.Player{}, false, fmt.Errorf("upsert player name=%s: %w", p.Name, err)
	}

	if record.Stats != nil {
		if err := execNamed(ctx, tx, upsertPlayerStatsQuery, newPlayerStatsTableModel(row.ID, *record.Stats, now)); err != nil {
			return player.Player{}, false, fmt.Errorf("upsert stats player=%s: %w", row.ID, err)
		}
	}
	if record.Scouts != nil {
		if err := execNamed(ctx, tx, upsertPlayerScoutsQuery, newPlayerScoutsTableModel(row.ID, *record.Scouts, now)); err != nil {
			return player.Player{}, false, fmt.Errorf("upsert scouts player=%s: %w", row.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return player.Player{}, false, fmt.Errorf("commit player upsert tx: %w", err)
	}
	return row.toDomain(), row.Inserted, nil
}

const upsertPlayerStatsQuery = `
INSERT INTO player_stats (
    player_id, season, games, minutes, goals, assists, yellow_cards, red_cards, saves,
    clean_sheets, goals_conceded, passes, pass_accuracy, tackles, interceptions, blocks,
    duels_won, duels_total, dribbles, fouls_drawn, fouls_committed, penalties_scored,
    penalties_missed, rating, updated_at
) VALUES (
    :player_id, :season, :games, :minutes, :goals, :assists, :yellow_cards, :red_cards, :saves,
    :clean_sheets, :goals_conceded, :passes, :pass_accuracy, :tackles, :interceptions, :blocks,
    :duels_won, :duels_total, :dribbles, :fouls_drawn, :fouls_committed, :penalties_scored,
    :penalties_missed, :rating, :updated_at
)
ON CONFLICT (player_id)
DO UPDATE SET
    season = EXCLUDED.season,
    games = EXCLUDED.games,
    minutes = EXCLUDED.minutes,
    goals = EXCLUDED.goals,
    assists = EXCLUDED.assists,
    yellow_cards = EXCLUDED.yellow_cards,
    red_cards = EXCLUDED.red_cards,
    saves = EXCLUDED.saves,
    clean_sheets = EXCLUDED.clean_sheets,
    goals_conceded = EXCLUDED.goals_conceded,
    passes = EXCLUDED.passes,
    pass_accuracy = EXCLUDED.pass_accuracy,
    tackles = EXCLUDED.tackles,
    interceptions = EXCLUDED.interceptions,
    blocks = EXCLUDED.blocks,
    duels_won = EXCLUDED.duels_won,
    duels_total = EXCLUDED.duels_total,
    dribbles = EXCLUDED.dribbles,
    fouls_drawn = EXCLUDED.fouls_drawn,
    fouls_committed = EXCLUDED.fouls_committed,
    penalties_scored = EXCLUDED.penalties_scored,
    penalties_missed = EXCLUDED.penalties_missed,
    rating = EXCLUDED.rating,
    updated_at = EXCLUDED.updated_at`

const upsertPlayerScoutsQuery = `
INSERT INTO player_scouts (
    player_id, goals, assists, finalization, tackles, interceptions, blocks, saves,
    clean_sheets, penalties_saved, discipline, passes, duels, total, updated_at
) VALUES (
    :player_id, :goals, :assists, :finalization, :tackles, :interceptions, :blocks, :saves,
    :clean_sheets, :penalties_saved, :discipline, :passes, :duels, :total, :updated_at
)
ON CONFLICT (player_id)
DO UPDATE SET
    goals = EXCLUDED.goals,
    assists = EXCLUDED.assists,
    finalization = EXCLUDED.finalization,
    tackles = EXCLUDED.tackles,
    interceptions = EXCLUDED.interceptions,
    blocks = EXCLUDED.blocks,
    saves = EXCLUDED.saves,
    clean_sheets = EXCLUDED.clean_sheets,
    penalties_saved = EXCLUDED.penalties_saved,
    discipline = EXCLUDED.discipline,
    passes = EXCLUDED.passes,
    duels = EXCLUDED.duels,
    total = EXCLUDED.total,
    updated_at = EXCLUDED.updated_at`

func execNamed(ctx context.Context, tx *sqlx.Tx, query string, arg any) error {
	sqlQuery, args, err := sqlx.Named(query, arg)
	if err != nil {
		return fmt.Errorf("bind query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...); err != nil {
		return err
	}
	return nil
}

func (r *PlayerRepository) ListSynced(ctx context.Context) ([]player.Record, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players p").
		Where(qb.Expr(playerSyncedClause)).
		OrderBy("p.name ASC", "p.id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select synced players query: %w", err)
	}
	players, err := r.selectPlayers(ctx, query, args)
	if err != nil {
		return nil, err
	}

	syncedOnly := qb.Expr("player_id IN (SELECT p.id FROM players p WHERE " + playerSyncedClause + ")")
	stats, err := r.statsByPlayer(ctx, syncedOnly)
	if err != nil {
		return nil, err
	}
	scouts, err := r.scoutsByPlayer(ctx, syncedOnly)
	if err != nil {
		return nil, err
	}

	out := make([]player.Record, 0, len(players))
	for _, p := range players {
		out = append(out, player.Record{Player: p, Stats: stats[p.ID], Scouts: scouts[p.ID]})
	}
	return out, nil
}

func (r *PlayerRepository) UpdateScores(ctx context.Context, playerID string, current, average float64, at time.Time) error {
	query, args, err := qb.Update("players").
		Set("current_score", current).
		Set("average_score", average).
		Set("last_sync_at", at).
		Set("updated_at", at).
		Where(qb.Eq("id", playerID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update player scores query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update player scores: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", player.ErrNotFound, playerID)
	}
	return nil
}

func (r *PlayerRepository) CountSynced(ctx context.Context) (int, error) {
	query, args, err := qb.Select("p.id").From("players p").
		Where(qb.Expr(playerSyncedClause)).
		CountSQL()
	if err != nil {
		return 0, fmt.Errorf("build count synced players query: %w", err)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count synced players: %w", err)
	}
	return count, nil
}

func (r *PlayerRepository) selectPlayers(ctx context.Context, query string, args []any) ([]player.Player, error) {
	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}
	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PlayerRepository) statsByPlayer(ctx context.Context, where qb.Condition) (map[string]*player.Stats, error) {
	query, args, err := qb.Select("*").From("player_stats").Where(where).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select player stats query: %w", err)
	}
	var rows []playerStatsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select player stats: %w", err)
	}
	out := make(map[string]*player.Stats, len(rows))
	for _, row := range rows {
		out[row.PlayerID] = row.toDomain()
	}
	return out, nil
}

func (r *PlayerRepository) scoutsByPlayer(ctx context.Context, where qb.Condition) (map[string]*player.Scouts, error) {
	query, args, err := qb.Select("*").From("player_scouts").Where(where).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select player scouts query: %w", err)
	}
	var rows []playerScoutsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select player scouts: %w", err)
	}
	out := make(map[string]*player.Scouts, len(rows))
	for _, row := range rows {
		out[row.PlayerID] = row.toDomain()
	}
	return out, nil
}

func playerConditions(filter player.Filter) []qb.Condition {
	conds := make([]qb.Condition, 0, 8)
	if filter.Position != "" {
		conds = append(conds, qb.Eq("p.position", string(filter.Position)))
	}
	if filter.ClubID != "" {
		conds = append(conds, qb.Eq("p.club_id", filter.ClubID))
	}
	if filter.Club != "" {
		conds = append(conds, qb.Or(
			qb.Contains("c.name", filter.Club),
			qb.Contains("p.current_team", filter.Club),
		))
	}
	if filter.Nationality != "" {
		conds = append(conds, qb.Contains("p.nationality", filter.Nationality))
	}
	if filter.Search != "" {
		conds = append(conds, qb.Or(
			qb.Contains("p.name", filter.Search),
			qb.Contains("p.current_team", filter.Search),
			qb.Contains("p.nationality", filter.Search),
			qb.Contains("c.name", filter.Search),
		))
	}
	if filter.MinValue != nil {
		conds = append(conds, qb.Gte("p.market_value", *filter.MinValue))
	}
	if filter.MaxValue != nil {
		conds = append(conds, qb.Lte("p.market_value", *filter.MaxValue))
	}
	if filter.MinScore != nil {
		conds = append(conds, qb.Gte("p.current_score", *filter.MinScore))
	}
	if filter.MaxScore != nil {
		conds = append(conds, qb.Lte("p.current_score", *filter.MaxScore))
	}
	return conds
}

func playerOrderBy(sortBy player.Sort) []string {
	column, ok := playerSortColumns[sortBy.Field]
	if !ok {
		column = playerSortColumns[player.SortByName]
	}
	return []string{column + " " + orderDirection(sortBy.Desc), "p.id ASC"}
}
