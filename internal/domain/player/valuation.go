package player

import (
	"math"
	"strings"
)

const (
	baseScore       = 60.0
	minScore        = 30
	maxScore        = 99
	baseMarketValue = 1_000_000.0
	referenceScore  = 70.0
	defaultAge      = 25
)

// Random is the entropy used for missing-stat scores and value variation.
// *rand.Rand from math/rand/v2 satisfies it.
type Random interface {
	Float64() float64
	IntN(n int) int
}

// RawStats are the counting statistics a provider reports for a player season.
// GoalsConceded is nil when the provider omits it.
type RawStats struct {
	Appearances     int
	Minutes         int
	Goals           int
	Assists         int
	Shots           int
	Saves           int
	GoalsConceded   *int
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
	YellowCards     int
	RedCards        int
	PenaltiesScored int
	PenaltiesMissed int
	PenaltiesSaved  int
	Rating          float64
}

var vendorPositions = map[string]Position{
	"goalkeeper":   PositionGoalkeeper,
	"defender":     PositionDefender,
	"midfielder":   PositionMidfielder,
	"attacker":     PositionForward,
	"goleiro":      PositionGoalkeeper,
	"zagueiro":     PositionDefender,
	"lateral":      PositionDefender,
	"volante":      PositionMidfielder,
	"meio-campo":   PositionMidfielder,
	"meia":         PositionMidfielder,
	"atacante":     PositionForward,
	"centroavante": PositionForward,
}

// MapVendorPosition maps provider labels onto the catalog enum. Unknown labels
// become midfielders.
func MapVendorPosition(label string) Position {
	if pos, ok := vendorPositions[strings.ToLower(strings.TrimSpace(label))]; ok {
		return pos
	}
	return PositionMidfielder
}

// CalculateScore derives the synthetic 30..99 performance score. A nil stats
// value yields a random score in [50, 80).
func CalculateScore(stats *RawStats, rnd Random) int {
	if stats == nil {
		return 50 + rnd.IntN(30)
	}

	score := baseScore
	score += math.Min(float64(stats.Appearances)*0.5, 10)
	score += float64(stats.Goals) * 3
	score += float64(stats.Assists) * 2
	if stats.Passes > 0 && stats.PassAccuracy > 0 {
		score += float64(stats.Passes) * (stats.PassAccuracy / 100) / 50
	}
	score += float64(stats.Tackles) * 0.5
	score -= float64(stats.YellowCards)
	score -= float64(stats.RedCards) * 3

	return clampScore(int(math.Round(score)))
}

func clampScore(score int) int {
	return max(minScore, min(maxScore, score))
}

// CalculateMarketValue applies age, position and performance multipliers to
// the base value with a uniform variation in [0.8, 1.2).
func CalculateMarketValue(age int, position Position, score int, rnd Random) int64 {
	if age <= 0 {
		age = defaultAge
	}

	value := baseMarketValue
	switch {
	case age <= 23:
		value *= 1.5
	case age <= 28:
		value *= 2
	case age <= 32:
		value *= 1.2
	default:
		value *= 0.8
	}

	value *= positionValueMultiplier(position)
	value *= float64(score) / referenceScore
	value *= 0.8 + rnd.Float64()*0.4

	return int64(math.Round(value))
}

func positionValueMultiplier(position Position) float64 {
	switch position {
	case PositionForward:
		return 1.5
	case PositionMidfielder:
		return 1.3
	case PositionDefender:
		return 1.1
	default:
		return 1.0
	}
}

// CalculateScouts weights each statistical category. Goalkeeper-only
// categories stay zero for outfield players and discipline is a penalty.
func CalculateScouts(stats *RawStats, position Position) Scouts {
	if stats == nil {
		return Scouts{}
	}

	s := Scouts{
		Goals:         float64(stats.Goals) * 5,
		Assists:       float64(stats.Assists) * 3,
		Finalization:  float64(stats.Shots) * 0.5,
		Tackles:       float64(stats.Tackles) * 1.5,
		Interceptions: float64(stats.Interceptions) * 2,
		Blocks:        float64(stats.Blocks) * 2,
		Discipline:    -float64(stats.YellowCards + stats.RedCards*3),
		Passes:        float64(stats.Passes) * 0.1,
		Duels:         float64(stats.DuelsWon),
	}
	if position == PositionGoalkeeper {
		s.Saves = float64(stats.Saves) * 2
		if stats.GoalsConceded != nil && *stats.GoalsConceded == 0 {
			s.CleanSheets = 5
		}
		s.PenaltiesSaved = float64(stats.PenaltiesSaved) * 10
	}

	s.Total = s.Goals + s.Assists + s.Finalization + s.Tackles + s.Interceptions + s.Blocks +
		s.Saves + s.CleanSheets + s.PenaltiesSaved + s.Discipline + s.Passes + s.Duels
	return s
}

// ToStats flattens provider counters into the stored season stats.
func (r RawStats) ToStats(season int) Stats {
	conceded := 0
	cleanSheets := 0
	if r.GoalsConceded != nil {
		conceded = *r.GoalsConceded
		if conceded == 0 {
			cleanSheets = 1
		}
	}
	return Stats{
		Season:          season,
		Games:           r.Appearances,
		Minutes:         r.Minutes,
		Goals:           r.Goals,
		Assists:         r.Assists,
		YellowCards:     r.YellowCards,
		RedCards:        r.RedCards,
		Saves:           r.Saves,
		CleanSheets:     cleanSheets,
		GoalsConceded:   conceded,
		Passes:          r.Passes,
		PassAccuracy:    r.PassAccuracy,
		Tackles:         r.Tackles,
		Interceptions:   r.Interceptions,
		Blocks:          r.Blocks,
		DuelsWon:        r.DuelsWon,
		DuelsTotal:      r.DuelsTotal,
		Dribbles:        r.Dribbles,
		FoulsDrawn:      r.FoulsDrawn,
		FoulsCommitted:  r.FoulsCommitted,
		PenaltiesScored: r.PenaltiesScored,
		PenaltiesMissed: r.PenaltiesMissed,
		Rating:          r.Rating,
	}
}

// Raw rebuilds score inputs from stored stats, used when rescoring.
func (s Stats) Raw() RawStats {
	conceded := s.GoalsConceded
	return RawStats{
		Appearances:     s.Games,
		Minutes:         s.Minutes,
		Goals:           s.Goals,
		Assists:         s.Assists,
		Saves:           s.Saves,
		GoalsConceded:   &conceded,
		Passes:          s.Passes,
		PassAccuracy:    s.PassAccuracy,
		Tackles:         s.Tackles,
		Interceptions:   s.Interceptions,
		Blocks:          s.Blocks,
		DuelsWon:        s.DuelsWon,
		DuelsTotal:      s.DuelsTotal,
		Dribbles:        s.Dribbles,
		FoulsDrawn:      s.FoulsDrawn,
		FoulsCommitted:  s.FoulsCommitted,
		YellowCards:     s.YellowCards,
		RedCards:        s.RedCards,
		PenaltiesScored: s.PenaltiesScored,
		PenaltiesMissed: s.PenaltiesMissed,
		Rating:          s.Rating,
	}
}

// BlendAverage folds a fresh score into the rolling average (70% history),
// rounded to one decimal.
func BlendAverage(previous, fresh float64) float64 {
	return math.Round((previous*0.7+fresh*0.3)*10) / 10
}
