package player

import (
	"fmt"
	"strings"
	"time"
)

// Position is the stored position enum of a catalog player.
type Position string

const (
	PositionGoalkeeper Position = "GOALKEEPER"
	PositionDefender   Position = "DEFENDER"
	PositionMidfielder Position = "MIDFIELDER"
	PositionForward    Position = "FORWARD"
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

// OrderedPositions lists positions from the back line forward.
var OrderedPositions = []Position{
	PositionGoalkeeper,
	PositionDefender,
	PositionMidfielder,
	PositionForward,
}

var positionAliases = map[string]Position{
	"GK":  PositionGoalkeeper,
	"DEF": PositionDefender,
	"MID": PositionMidfielder,
	"FWD": PositionForward,
}

// ParsePosition normalizes case and accepts the short codes GK/DEF/MID/FWD.
func ParsePosition(raw string) (Position, bool) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return "", false
	}
	if alias, ok := positionAliases[value]; ok {
		return alias, true
	}
	pos := Position(value)
	if _, ok := AllPositions[pos]; !ok {
		return "", false
	}
	return pos, true
}

// Player is a catalog athlete that fantasy teams can acquire.
type Player struct {
	ID           string
	Name         string
	Position     Position
	CurrentTeam  string
	ClubID       string
	MarketValue  int64
	CurrentScore float64
	AverageScore float64
	Nationality  string
	Age          int
	PhotoURL     string
	APIID        string
	APISportsID  string
	LastSyncAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p Player) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("player name is required")
	}
	if _, ok := AllPositions[p.Position]; !ok {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}
	if p.MarketValue < 0 {
		return fmt.Errorf("player market value must not be negative")
	}
	return nil
}

// Stats holds season counters for one player.
type Stats struct {
	Season          int
	Games           int
	Minutes         int
	Goals           int
	Assists         int
	YellowCards     int
	RedCards        int
	Saves           int
	CleanSheets     int
	GoalsConceded   int
	Passes          int
	PassAccuracy    float64
	Tackles         int
	Interceptions   int
	Blocks          int
	DuelsWon        int
	DuelsTotal      int
	Dribbles        int
	FoulsDrawn      int
	FoulsCommitted  int
	PenaltiesScored int
	PenaltiesMissed int
	Rating          float64
}

// Scouts are weighted sub-scores derived from Stats.
type Scouts struct {
	Goals          float64
	Assists        float64
	Finalization   float64
	Tackles        float64
	Interceptions  float64
	Blocks         float64
	Saves          float64
	CleanSheets    float64
	PenaltiesSaved float64
	Discipline     float64
	Passes         float64
	Duels          float64
	Total          float64
}

// Record is a player together with its one-to-one stats and scouts.
type Record struct {
	Player Player
	Stats  *Stats
	Scouts *Scouts
}
