package fantasy

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/riskibarqy/futboss/internal/domain/player"
)

// Formation is the tactical shape a fantasy team lines up in.
type Formation string

const DefaultFormation Formation = "4-4-2"

var TeamFormations = map[Formation]struct{}{
	"4-4-2":   {},
	"4-3-3":   {},
	"3-5-2":   {},
	"4-2-3-1": {},
	"5-3-2":   {},
	"3-4-3":   {},
	"4-5-1":   {},
}

func ParseFormation(raw string) (Formation, error) {
	value := Formation(strings.TrimSpace(raw))
	if value == "" {
		return DefaultFormation, nil
	}
	if _, ok := TeamFormations[value]; !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidFormation, raw)
	}
	return value, nil
}

const (
	minTeamNameLen = 3
	maxTeamNameLen = 50
)

var teamNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_]+$`)

func ValidateTeamName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < minTeamNameLen || n > maxTeamNameLen {
		return fmt.Errorf("%w: must be between %d and %d characters", ErrInvalidTeamName, minTeamNameLen, maxTeamNameLen)
	}
	if !teamNamePattern.MatchString(name) {
		return fmt.Errorf("%w: only letters, numbers, spaces, hyphens and underscores are allowed", ErrInvalidTeamName)
	}
	return nil
}

// TeamPlayer is one roster slot. AcquisitionValue is the market value
// locked in when the player was added.
type TeamPlayer struct {
	ID               string
	TeamID           string
	PlayerID         string
	Position         player.Position
	AcquisitionValue int64
	AddedAt          time.Time
}

// Team is a user's budget-constrained roster. TotalValue always equals the
// sum of the roster acquisition values and never exceeds Budget.
type Team struct {
	ID         string
	OwnerID    string
	Name       string
	Formation  Formation
	TotalValue int64
	Budget     int64
	Players    []TeamPlayer
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (t Team) RemainingBudget() int64 {
	return t.Budget - t.TotalValue
}

func (t Team) HasPlayer(playerID string) bool {
	_, ok := t.indexOf(playerID)
	return ok
}

func (t Team) indexOf(playerID string) (int, bool) {
	for i, entry := range t.Players {
		if entry.PlayerID == playerID {
			return i, true
		}
	}
	return -1, false
}

// PlayerIDs returns roster player ids in roster order.
func (t Team) PlayerIDs() []string {
	out := make([]string, 0, len(t.Players))
	for _, entry := range t.Players {
		out = append(out, entry.PlayerID)
	}
	return out
}

// PositionBreakdown counts roster entries per assigned position.
func (t Team) PositionBreakdown() map[player.Position]int {
	out := make(map[player.Position]int, len(player.AllPositions))
	for _, entry := range t.Players {
		out[entry.Position]++
	}
	return out
}

// AddPlayer appends the entry and grows TotalValue by its acquisition value.
// Nothing changes when the player is already rostered or the budget would be
// exceeded; reaching the budget exactly is allowed.
func (t *Team) AddPlayer(entry TeamPlayer, now time.Time) error {
	if entry.PlayerID == "" {
		return fmt.Errorf("player id is required")
	}
	if t.HasPlayer(entry.PlayerID) {
		return fmt.Errorf("%w: %s", ErrPlayerAlreadyInTeam, entry.PlayerID)
	}
	if entry.AcquisitionValue < 0 {
		return fmt.Errorf("acquisition value must not be negative")
	}
	if t.TotalValue+entry.AcquisitionValue > t.Budget {
		return &BudgetError{
			Budget:      t.Budget,
			TotalValue:  t.TotalValue,
			PlayerValue: entry.AcquisitionValue,
		}
	}

	entry.TeamID = t.ID
	if entry.AddedAt.IsZero() {
		entry.AddedAt = now
	}
	t.Players = append(t.Players, entry)
	t.TotalValue += entry.AcquisitionValue
	t.UpdatedAt = now
	return nil
}

// RemovePlayer drops the roster entry and refunds its recorded acquisition
// value. TotalValue never drops below zero.
func (t *Team) RemovePlayer(playerID string, now time.Time) (TeamPlayer, error) {
	idx, ok := t.indexOf(playerID)
	if !ok {
		return TeamPlayer{}, fmt.Errorf("%w: %s", ErrPlayerNotInTeam, playerID)
	}

	removed := t.Players[idx]
	t.Players = append(t.Players[:idx:idx], t.Players[idx+1:]...)
	t.TotalValue = max(0, t.TotalValue-removed.AcquisitionValue)
	t.UpdatedAt = now
	return removed, nil
}

// Update applies a partial rename/reformation. Nil fields are left unchanged.
func (t *Team) Update(name *string, formation *Formation, now time.Time) error {
	if name == nil && formation == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidTeamUpdate)
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if err := ValidateTeamName(trimmed); err != nil {
			return err
		}
		t.Name = trimmed
	}
	if formation != nil {
		if _, ok := TeamFormations[*formation]; !ok {
			return fmt.Errorf("%w: %s", ErrInvalidFormation, *formation)
		}
		t.Formation = *formation
	}
	t.UpdatedAt = now
	return nil
}

// Clone returns a deep copy so callers can mutate without aliasing the roster.
func (t Team) Clone() Team {
	out := t
	out.Players = append([]TeamPlayer(nil), t.Players...)
	return out
}
