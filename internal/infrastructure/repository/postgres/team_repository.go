package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/futboss/internal/domain/fantasy"
	qb "github.com/riskibarqy/futboss/internal/platform/querybuilder"
)

const teamPlayersUniqueConstraint = "team_players_team_player_key"

var teamSelectColumns = []string{
	"id",
	"owner_id",
	"name",
	"formation",
	"total_value",
	"budget",
	"created_at",
	"updated_at",
}

var teamPlayerSelectColumns = []string{
	"id",
	"team_id",
	"player_id",
	"position",
	"acquisition_value",
	"added_at",
}

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) ListByOwner(ctx context.Context, ownerID string) ([]fantasy.Team, error) {
	query, args, err := qb.Select(teamSelectColumns...).From("fantasy_teams").
		Where(qb.Eq("owner_id", ownerID)).
		OrderBy("created_at DESC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams by owner query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams by owner: %w", err)
	}
	if len(rows) == 0 {
		return []fantasy.Team{}, nil
	}

	teamIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		teamIDs = append(teamIDs, row.ID)
	}
	entries, err := selectTeamPlayers(ctx, r.db, teamIDs)
	if err != nil {
		return nil, err
	}

	out := make([]fantasy.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain(entries[row.ID]))
	}
	return out, nil
}

func (r *TeamRepository) GetByOwner(ctx context.Context, ownerID, teamID string) (fantasy.Team, bool, error) {
	team, ok, err := getOwnedTeam(ctx, r.db, ownerID, teamID, "")
	if err != nil {
		return fantasy.Team{}, false, err
	}
	return team, ok, nil
}

func (r *TeamRepository) Create(ctx context.Context, team fantasy.Team) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for team create: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.InsertModel("fantasy_teams", teamTableModel{
		ID:         team.ID,
		OwnerID:    team.OwnerID,
		Name:       team.Name,
		Formation:  string(team.Formation),
		TotalValue: team.TotalValue,
		Budget:     team.Budget,
		CreatedAt:  team.CreatedAt,
		UpdatedAt:  team.UpdatedAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert team query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert team: %w", mapRosterConflict(err))
	}

	if err := insertTeamPlayers(ctx, tx, team.ID, team.Players); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit team create tx: %w", err)
	}
	return nil
}

// Mutate locks the team row for the duration of fn so concurrent roster
// changes on the same team apply one after another.
func (r *TeamRepository) Mutate(ctx context.Context, ownerID, teamID string, fn fantasy.MutateFunc) (fantasy.Team, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fantasy.Team{}, fmt.Errorf("begin tx for team mutate: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, ok, err := getOwnedTeam(ctx, tx, ownerID, teamID, "FOR UPDATE")
	if err != nil {
		return fantasy.Team{}, err
	}
	if !ok {
		return fantasy.Team{}, fmt.Errorf("%w: %s", fantasy.ErrTeamNotFound, teamID)
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return fantasy.Team{}, err
	}

	removed, added := diffRoster(current.Players, next.Players)
	if len(removed) > 0 {
		query, args, err := qb.DeleteFrom("team_players").
			Where(
				qb.Eq("team_id", teamID),
				qb.In("id", stringSliceToAny(removed)),
			).
			ToSQL()
		if err != nil {
			return fantasy.Team{}, fmt.Errorf("build delete team players query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fantasy.Team{}, fmt.Errorf("delete team players team=%s: %w", teamID, err)
		}
	}
	if err := insertTeamPlayers(ctx, tx, teamID, added); err != nil {
		return fantasy.Team{}, err
	}

	query, args, err := qb.Update("fantasy_teams").
		Set("name", next.Name).
		Set("formation", string(next.Formation)).
		Set("total_value", next.TotalValue).
		Set("updated_at", next.UpdatedAt).
		Where(qb.Eq("id", teamID), qb.Eq("owner_id", ownerID)).
		ToSQL()
	if err != nil {
		return fantasy.Team{}, fmt.Errorf("build update team query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fantasy.Team{}, fmt.Errorf("update team=%s: %w", teamID, mapRosterConflict(err))
	}

	if err := tx.Commit(); err != nil {
		return fantasy.Team{}, fmt.Errorf("commit team mutate tx: %w", err)
	}
	return next, nil
}

func (r *TeamRepository) Delete(ctx context.Context, ownerID, teamID string) (bool, error) {
	query, args, err := qb.DeleteFrom("fantasy_teams").
		Where(qb.Eq("id", teamID), qb.Eq("owner_id", ownerID)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete team query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete team=%s: %w", teamID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete team=%s rows affected: %w", teamID, err)
	}
	return affected > 0, nil
}

func getOwnedTeam(ctx context.Context, q sqlx.QueryerContext, ownerID, teamID, lock string) (fantasy.Team, bool, error) {
	query, args, err := qb.Select(teamSelectColumns...).From("fantasy_teams").
		Where(qb.Eq("id", teamID), qb.Eq("owner_id", ownerID)).
		Suffix(lock).
		ToSQL()
	if err != nil {
		return fantasy.Team{}, false, fmt.Errorf("build select team query: %w", err)
	}

	var row teamTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fantasy.Team{}, false, nil
		}
		return fantasy.Team{}, false, fmt.Errorf("get team=%s: %w", teamID, err)
	}

	entries, err := selectTeamPlayers(ctx, q, []string{row.ID})
	if err != nil {
		return fantasy.Team{}, false, err
	}
	return row.toDomain(entries[row.ID]), true, nil
}

func selectTeamPlayers(ctx context.Context, q sqlx.QueryerContext, teamIDs []string) (map[string][]fantasy.TeamPlayer, error) {
	query, args, err := qb.Select(teamPlayerSelectColumns...).From("team_players").
		Where(qb.In("team_id", stringSliceToAny(teamIDs))).
		OrderBy("added_at ASC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select team players query: %w", err)
	}

	var rows []teamPlayerTableModel
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select team players: %w", err)
	}

	out := make(map[string][]fantasy.TeamPlayer, len(teamIDs))
	for _, row := range rows {
		out[row.TeamID] = append(out[row.TeamID], row.toDomain())
	}
	return out, nil
}

func insertTeamPlayers(ctx context.Context, tx *sqlx.Tx, teamID string, entries []fantasy.TeamPlayer) error {
	if len(entries) == 0 {
		return nil
	}

	builder := qb.InsertInto("team_players").Columns(teamPlayerSelectColumns...)
	for _, entry := range entries {
		entry.TeamID = teamID
		row := newTeamPlayerTableModel(entry)
		builder = builder.Values(row.ID, row.TeamID, row.PlayerID, row.Position, row.AcquisitionValue, row.AddedAt)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert team players query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert team players team=%s: %w", teamID, mapRosterConflict(err))
	}
	return nil
}

// diffRoster returns the entry ids dropped from before and the entries new in after.
func diffRoster(before, after []fantasy.TeamPlayer) ([]string, []fantasy.TeamPlayer) {
	kept := make(map[string]struct{}, len(after))
	for _, entry := range after {
		kept[entry.ID] = struct{}{}
	}
	existing := make(map[string]struct{}, len(before))
	removed := make([]string, 0)
	for _, entry := range before {
		existing[entry.ID] = struct{}{}
		if _, ok := kept[entry.ID]; !ok {
			removed = append(removed, entry.ID)
		}
	}
	added := make([]fantasy.TeamPlayer, 0)
	for _, entry := range after {
		if _, ok := existing[entry.ID]; !ok {
			added = append(added, entry)
		}
	}
	return removed, added
}

func mapRosterConflict(err error) error {
	if constraint, ok := uniqueViolation(err); ok && constraint == teamPlayersUniqueConstraint {
		return fantasy.ErrPlayerAlreadyInTeam
	}
	if constraint, ok := checkViolation(err); ok && constraint == teamBudgetConstraint {
		return fantasy.ErrExceededBudget
	}
	return err
}
