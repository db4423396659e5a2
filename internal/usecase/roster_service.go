package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/futboss/internal/domain/fantasy"
	"github.com/riskibarqy/futboss/internal/domain/player"
	"github.com/riskibarqy/futboss/internal/domain/user"
	idgen "github.com/riskibarqy/futboss/internal/platform/id"
	"github.com/riskibarqy/futboss/internal/platform/logging"
)

const listTeamsHydrationWorkers = 4

const GuestNoTeamsMessage = "guest users do not have fantasy teams"

type CreateTeamInput struct {
	Name      string
	Formation string
	PlayerIDs []string
}

type UpdateTeamInput struct {
	Name      *string
	Formation *string
}

type AddPlayerInput struct {
	PlayerID string
	Position string
}

// RosterEntry is a roster slot with the catalog player it points to. Player
// is nil when the catalog row is gone.
type RosterEntry struct {
	Entry  fantasy.TeamPlayer
	Player *player.Player
}

type TeamStats struct {
	TotalPlayers      int
	RemainingBudget   int64
	AverageScore      float64
	PositionBreakdown map[player.Position]int
}

type TeamDetail struct {
	Team   fantasy.Team
	Roster []RosterEntry
	Stats  TeamStats
}

type TeamList struct {
	Teams   []TeamDetail
	Message string
}

type RosterChange struct {
	Team   fantasy.Team
	Entry  fantasy.TeamPlayer
	Player player.Player
}

// RosterService owns every fantasy team mutation. Budget and uniqueness
// rules are enforced inside fantasy.Repository.Mutate so concurrent changes
// to the same team serialize.
type RosterService struct {
	teams   fantasy.Repository
	players player.Repository
	idGen   idgen.Generator
	rules   fantasy.Rules
	logger  *logging.Logger
	now     func() time.Time
}

func NewRosterService(
	teams fantasy.Repository,
	players player.Repository,
	idGen idgen.Generator,
	rules fantasy.Rules,
	logger *logging.Logger,
) *RosterService {
	if logger == nil {
		logger = logging.Default()
	}
	if rules.Budget <= 0 {
		rules = fantasy.DefaultRules()
	}
	return &RosterService{
		teams:   teams,
		players: players,
		idGen:   idGen,
		rules:   rules,
		logger:  logger.Component("roster_service"),
		now:     time.Now,
	}
}

func (s *RosterService) ListTeams(ctx context.Context, session user.Session) (TeamList, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.ListTeams")
	defer span.End()

	if user.IsGuest(session) {
		return TeamList{Teams: []TeamDetail{}, Message: GuestNoTeamsMessage}, nil
	}
	sess, err := requireRegistered(session)
	if err != nil {
		return TeamList{}, err
	}

	teams, err := s.teams.ListByOwner(ctx, sess.UserID)
	if err != nil {
		return TeamList{}, fmt.Errorf("list fantasy teams: %w", err)
	}

	details := make([]TeamDetail, len(teams))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(listTeamsHydrationWorkers)
	for i, team := range teams {
		p.Go(func(ctx context.Context) error {
			detail, err := s.hydrate(ctx, team)
			if err != nil {
				return err
			}
			details[i] = detail
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return TeamList{}, err
	}
	return TeamList{Teams: details}, nil
}

func (s *RosterService) CreateTeam(ctx context.Context, session user.Session, input CreateTeamInput) (TeamDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.CreateTeam")
	defer span.End()

	sess, err := requireRegistered(session)
	if err != nil {
		return TeamDetail{}, err
	}

	name := strings.TrimSpace(input.Name)
	if err := fantasy.ValidateTeamName(name); err != nil {
		return TeamDetail{}, validationError(err.Error()).WithDetails(map[string]any{"field": "name"})
	}
	formation, err := fantasy.ParseFormation(input.Formation)
	if err != nil {
		return TeamDetail{}, validationError(err.Error()).WithDetails(map[string]any{"field": "formation"})
	}

	playerIDs, err := uniquePlayerIDs(input.PlayerIDs)
	if err != nil {
		return TeamDetail{}, err
	}

	roster := make([]fantasy.TeamPlayer, 0, len(playerIDs))
	if len(playerIDs) > 0 {
		found, err := s.players.GetByIDs(ctx, playerIDs)
		if err != nil {
			return TeamDetail{}, fmt.Errorf("get roster players: %w", err)
		}
		byID := make(map[string]player.Player, len(found))
		for _, item := range found {
			byID[item.ID] = item
		}
		if missing := missingIDs(playerIDs, byID); len(missing) > 0 {
			return TeamDetail{}, notFound(CodePlayersNotFound, "one or more players not found").
				WithDetails(map[string]any{"missing": missing})
		}

		for _, id := range playerIDs {
			entryID, err := s.idGen.NewID()
			if err != nil {
				return TeamDetail{}, fmt.Errorf("generate roster entry id: %w", err)
			}
			item := byID[id]
			roster = append(roster, fantasy.TeamPlayer{
				ID:               entryID,
				PlayerID:         item.ID,
				Position:         item.Position,
				AcquisitionValue: item.MarketValue,
			})
		}
	}

	teamID, err := s.idGen.NewID()
	if err != nil {
		return TeamDetail{}, fmt.Errorf("generate team id: %w", err)
	}

	team, err := fantasy.NewTeam(teamID, sess.UserID, name, formation, s.rules, roster, s.now().UTC())
	if err != nil {
		return TeamDetail{}, mapTeamError(err)
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return TeamDetail{}, fmt.Errorf("create fantasy team: %w", err)
	}

	s.logger.InfoContext(ctx, "fantasy team created",
		"team_id", team.ID,
		"owner_id", team.OwnerID,
		"players", len(team.Players),
		"total_value", team.TotalValue,
	)
	return s.hydrate(ctx, team)
}

func (s *RosterService) GetTeam(ctx context.Context, session user.Session, teamID string) (TeamDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.GetTeam")
	defer span.End()

	sess, err := requireRegistered(session)
	if err != nil {
		return TeamDetail{}, err
	}

	team, err := s.ownedTeam(ctx, sess.UserID, teamID)
	if err != nil {
		return TeamDetail{}, err
	}
	return s.hydrate(ctx, team)
}

func (s *RosterService) UpdateTeam(ctx context.Context, session user.Session, teamID string, input UpdateTeamInput) (fantasy.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.UpdateTeam")
	defer span.End()

	sess, err := requireRegistered(session)
	if err != nil {
		return fantasy.Team{}, err
	}
	if input.Name == nil && input.Formation == nil {
		return fantasy.Team{}, validationError("name or formation is required")
	}

	var name *string
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if err := fantasy.ValidateTeamName(trimmed); err != nil {
			return fantasy.Team{}, validationError(err.Error()).WithDetails(map[string]any{"field": "name"})
		}
		name = &trimmed
	}
	var formation *fantasy.Formation
	if input.Formation != nil {
		value := fantasy.Formation(strings.TrimSpace(*input.Formation))
		if _, ok := fantasy.TeamFormations[value]; !ok {
			return fantasy.Team{}, validationError("invalid formation").WithDetails(map[string]any{"field": "formation"})
		}
		formation = &value
	}

	team, err := s.teams.Mutate(ctx, sess.UserID, strings.TrimSpace(teamID), func(team *fantasy.Team) error {
		return team.Update(name, formation, s.now().UTC())
	})
	if err != nil {
		return fantasy.Team{}, mapTeamError(err)
	}
	return team, nil
}

func (s *RosterService) DeleteTeam(ctx context.Context, session user.Session, teamID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.DeleteTeam")
	defer span.End()

	sess, err := requireRegistered(session)
	if err != nil {
		return err
	}

	deleted, err := s.teams.Delete(ctx, sess.UserID, strings.TrimSpace(teamID))
	if err != nil {
		return fmt.Errorf("delete fantasy team: %w", err)
	}
	if !deleted {
		return notFound(CodeTeamNotFound, "fantasy team not found")
	}

	s.logger.InfoContext(ctx, "fantasy team deleted", "team_id", teamID, "owner_id", sess.UserID)
	return nil
}

func (s *RosterService) AddPlayer(ctx context.Context, session user.Session, teamID string, input AddPlayerInput) (RosterChange, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.AddPlayer",
		attribute.String("team.id", teamID),
		attribute.String("player.id", input.PlayerID),
	)
	defer span.End()

	sess, err := requireRegistered(session)
	if err != nil {
		return RosterChange{}, err
	}
	playerID := strings.TrimSpace(input.PlayerID)
	if playerID == "" {
		return RosterChange{}, validationError("player id is required").WithDetails(map[string]any{"field": "playerId"})
	}

	if _, err := s.ownedTeam(ctx, sess.UserID, teamID); err != nil {
		return RosterChange{}, err
	}

	item, exists, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return RosterChange{}, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return RosterChange{}, notFound(CodePlayerNotFound, "player not found")
	}

	position := item.Position
	if strings.TrimSpace(input.Position) != "" {
		parsed, ok := player.ParsePosition(input.Position)
		if !ok {
			return RosterChange{}, NewCodedError(ErrInvalidInput, CodeInvalidPosition, "invalid position").
				WithDetails(map[string]any{"validPositions": player.OrderedPositions})
		}
		position = parsed
	}

	entryID, err := s.idGen.NewID()
	if err != nil {
		return RosterChange{}, fmt.Errorf("generate roster entry id: %w", err)
	}
	entry := fantasy.TeamPlayer{
		ID:               entryID,
		PlayerID:         item.ID,
		Position:         position,
		AcquisitionValue: item.MarketValue,
	}

	team, err := s.teams.Mutate(ctx, sess.UserID, strings.TrimSpace(teamID), func(team *fantasy.Team) error {
		if err := team.AddPlayer(entry, s.now().UTC()); err != nil {
			return err
		}
		entry = team.Players[len(team.Players)-1]
		return nil
	})
	if err != nil {
		return RosterChange{}, mapRosterError(err)
	}

	s.logger.InfoContext(ctx, "player added to fantasy team",
		"team_id", team.ID,
		"player_id", item.ID,
		"acquisition_value", entry.AcquisitionValue,
		"total_value", team.TotalValue,
	)
	return RosterChange{Team: team, Entry: entry, Player: item}, nil
}

func (s *RosterService) RemovePlayer(ctx context.Context, session user.Session, teamID, playerID string) (RosterChange, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.RemovePlayer",
		attribute.String("team.id", teamID),
		attribute.String("player.id", playerID),
	)
	defer span.End()

	sess, err := requireRegistered(session)
	if err != nil {
		return RosterChange{}, err
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return RosterChange{}, validationError("player id is required")
	}

	var removed fantasy.TeamPlayer
	team, err := s.teams.Mutate(ctx, sess.UserID, strings.TrimSpace(teamID), func(team *fantasy.Team) error {
		var err error
		removed, err = team.RemovePlayer(playerID, s.now().UTC())
		return err
	})
	if err != nil {
		return RosterChange{}, mapRosterError(err)
	}

	out := RosterChange{Team: team, Entry: removed}
	if item, exists, err := s.players.GetByID(ctx, playerID); err != nil {
		s.logger.WarnContext(ctx, "load removed player failed", "player_id", playerID, "error", err)
	} else if exists {
		out.Player = item
	}

	s.logger.InfoContext(ctx, "player removed from fantasy team",
		"team_id", team.ID,
		"player_id", playerID,
		"refund", removed.AcquisitionValue,
		"total_value", team.TotalValue,
	)
	return out, nil
}

func (s *RosterService) ownedTeam(ctx context.Context, ownerID, teamID string) (fantasy.Team, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return fantasy.Team{}, validationError("team id is required")
	}
	team, exists, err := s.teams.GetByOwner(ctx, ownerID, teamID)
	if err != nil {
		return fantasy.Team{}, fmt.Errorf("get fantasy team: %w", err)
	}
	if !exists {
		return fantasy.Team{}, notFound(CodeTeamNotFound, "fantasy team not found")
	}
	return team, nil
}

func (s *RosterService) hydrate(ctx context.Context, team fantasy.Team) (TeamDetail, error) {
	detail := TeamDetail{
		Team:   team,
		Roster: make([]RosterEntry, 0, len(team.Players)),
		Stats: TeamStats{
			TotalPlayers:      len(team.Players),
			RemainingBudget:   team.RemainingBudget(),
			PositionBreakdown: team.PositionBreakdown(),
		},
	}
	if len(team.Players) == 0 {
		return detail, nil
	}

	found, err := s.players.GetByIDs(ctx, team.PlayerIDs())
	if err != nil {
		return TeamDetail{}, fmt.Errorf("get roster players: %w", err)
	}
	byID := make(map[string]player.Player, len(found))
	for _, item := range found {
		byID[item.ID] = item
	}

	var scoreSum float64
	var scored int
	for _, entry := range team.Players {
		row := RosterEntry{Entry: entry}
		if item, ok := byID[entry.PlayerID]; ok {
			row.Player = &item
			scoreSum += item.CurrentScore
			scored++
		}
		detail.Roster = append(detail.Roster, row)
	}
	if scored > 0 {
		detail.Stats.AverageScore = roundTo(scoreSum/float64(scored), 1)
	}
	return detail, nil
}

func uniquePlayerIDs(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			return nil, validationError("player ids must not be empty").WithDetails(map[string]any{"field": "players"})
		}
		if _, ok := seen[id]; ok {
			return nil, validationError("duplicate players in roster").
				WithDetails(map[string]any{"field": "players", "duplicate": id})
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func missingIDs(ids []string, found map[string]player.Player) []string {
	var out []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func mapTeamError(err error) error {
	var budgetErr *fantasy.BudgetError
	switch {
	case errors.As(err, &budgetErr):
		return NewCodedError(ErrBudgetExceeded, CodeBudgetExceeded, "team exceeds budget").
			WithDetails(map[string]any{
				"totalValue": budgetErr.TotalValue,
				"budget":     budgetErr.Budget,
			}).WithCause(err)
	case errors.Is(err, fantasy.ErrExceededBudget):
		// The store's budget check fired without the computed totals.
		return NewCodedError(ErrBudgetExceeded, CodeBudgetExceeded, "team exceeds budget").WithCause(err)
	case errors.Is(err, fantasy.ErrTeamNotFound):
		return notFound(CodeTeamNotFound, "fantasy team not found")
	case errors.Is(err, fantasy.ErrInvalidTeamName),
		errors.Is(err, fantasy.ErrInvalidFormation),
		errors.Is(err, fantasy.ErrInvalidTeamUpdate),
		errors.Is(err, fantasy.ErrDuplicatePlayer):
		return validationError(err.Error())
	default:
		return fmt.Errorf("fantasy team: %w", err)
	}
}

func mapRosterError(err error) error {
	var budgetErr *fantasy.BudgetError
	switch {
	case errors.As(err, &budgetErr):
		return NewCodedError(ErrBudgetExceeded, CodeInsufficientBudget, "insufficient budget").
			WithDetails(map[string]any{
				"playerValue":     budgetErr.PlayerValue,
				"availableBudget": budgetErr.Available(),
			}).WithCause(err)
	case errors.Is(err, fantasy.ErrExceededBudget):
		return NewCodedError(ErrBudgetExceeded, CodeInsufficientBudget, "insufficient budget").WithCause(err)
	case errors.Is(err, fantasy.ErrPlayerAlreadyInTeam):
		return NewCodedError(ErrConflict, CodePlayerAlreadyInTeam, "player already in team")
	case errors.Is(err, fantasy.ErrPlayerNotInTeam):
		return notFound(CodePlayerNotInTeam, "player not in team")
	default:
		return mapTeamError(err)
	}
}
