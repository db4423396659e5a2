package fantasy

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTeamNotFound        = errors.New("fantasy team not found")
	ErrPlayerAlreadyInTeam = errors.New("player already in team")
	ErrPlayerNotInTeam     = errors.New("player not in team")
	ErrExceededBudget      = errors.New("budget cap exceeded")
	ErrInvalidFormation    = errors.New("invalid formation")
	ErrInvalidTeamName     = errors.New("invalid team name")
	ErrInvalidTeamUpdate   = errors.New("invalid team update")
	ErrDuplicatePlayer     = errors.New("duplicate player in roster")
)

// DefaultBudget is the fixed ceiling every new team starts with.
const DefaultBudget int64 = 100_000_000

// Rules stores fantasy roster validation parameters.
type Rules struct {
	Budget int64
}

func DefaultRules() Rules {
	return Rules{Budget: DefaultBudget}
}

// BudgetError reports a rejected spend. For roster creation PlayerValue is
// zero and TotalValue is the attempted roster total.
type BudgetError struct {
	Budget      int64
	TotalValue  int64
	PlayerValue int64
}

func (e *BudgetError) Error() string {
	if e.PlayerValue == 0 {
		return fmt.Sprintf("%s: total=%d budget=%d", ErrExceededBudget, e.TotalValue, e.Budget)
	}
	return fmt.Sprintf("%s: player=%d available=%d", ErrExceededBudget, e.PlayerValue, e.Available())
}

func (e *BudgetError) Unwrap() error {
	return ErrExceededBudget
}

// Available is the remaining headroom before the rejected spend.
func (e *BudgetError) Available() int64 {
	return e.Budget - e.TotalValue
}

// NewTeam builds a team with its initial roster. The roster total must not
// exceed the budget and a player may appear only once.
func NewTeam(id, ownerID, name string, formation Formation, rules Rules, roster []TeamPlayer, now time.Time) (Team, error) {
	if id == "" {
		return Team{}, fmt.Errorf("team id is required")
	}
	if ownerID == "" {
		return Team{}, fmt.Errorf("owner id is required")
	}
	if err := ValidateTeamName(name); err != nil {
		return Team{}, err
	}
	if _, ok := TeamFormations[formation]; !ok {
		return Team{}, fmt.Errorf("%w: %s", ErrInvalidFormation, formation)
	}
	if rules.Budget <= 0 {
		return Team{}, fmt.Errorf("budget must be greater than zero")
	}

	seen := make(map[string]struct{}, len(roster))
	var total int64
	for _, entry := range roster {
		if _, exists := seen[entry.PlayerID]; exists {
			return Team{}, fmt.Errorf("%w: %s", ErrDuplicatePlayer, entry.PlayerID)
		}
		seen[entry.PlayerID] = struct{}{}
		total += entry.AcquisitionValue
	}
	if total > rules.Budget {
		return Team{}, &BudgetError{Budget: rules.Budget, TotalValue: total}
	}

	team := Team{
		ID:         id,
		OwnerID:    ownerID,
		Name:       name,
		Formation:  formation,
		TotalValue: total,
		Budget:     rules.Budget,
		Players:    make([]TeamPlayer, 0, len(roster)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, entry := range roster {
		entry.TeamID = id
		entry.AddedAt = now
		team.Players = append(team.Players, entry)
	}
	return team, nil
}
