package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fixedRandom struct {
	float float64
	intn  int
}

func (r fixedRandom) Float64() float64 { return r.float }
func (r fixedRandom) IntN(n int) int   { return min(r.intn, n-1) }

func intPtr(v int) *int { return &v }

func TestMapVendorPosition(t *testing.T) {
	tests := map[string]Position{
		"Goalkeeper": PositionGoalkeeper,
		"Defender":   PositionDefender,
		"Midfielder": PositionMidfielder,
		"Attacker":   PositionForward,
		"Atacante":   PositionForward,
		"Zagueiro":   PositionDefender,
		"Winger":     PositionMidfielder,
		"":           PositionMidfielder,
	}

	for label, want := range tests {
		assert.Equal(t, want, MapVendorPosition(label), "label %q", label)
	}
}

func TestParsePosition(t *testing.T) {
	pos, ok := ParsePosition("forward")
	assert.True(t, ok)
	assert.Equal(t, PositionForward, pos)

	pos, ok = ParsePosition(" gk ")
	assert.True(t, ok)
	assert.Equal(t, PositionGoalkeeper, pos)

	_, ok = ParsePosition("striker")
	assert.False(t, ok)
}

func TestCalculateScore(t *testing.T) {
	tests := []struct {
		name  string
		stats *RawStats
		want  int
	}{
		{
			name:  "missing stats uses random in [50,80)",
			stats: nil,
			want:  60,
		},
		{
			name: "weighted combination",
			stats: &RawStats{
				Appearances:  10,
				Goals:        1,
				Assists:      1,
				Passes:       500,
				PassAccuracy: 80,
				Tackles:      4,
				YellowCards:  2,
			},
			want: 78,
		},
		{
			name: "clamped to ceiling",
			stats: &RawStats{
				Appearances:  30,
				Goals:        10,
				Assists:      5,
				Passes:       1000,
				PassAccuracy: 80,
				Tackles:      20,
				YellowCards:  4,
				RedCards:     1,
			},
			want: 99,
		},
		{
			name:  "clamped to floor",
			stats: &RawStats{RedCards: 15},
			want:  30,
		},
		{
			name:  "pass volume ignored without accuracy",
			stats: &RawStats{Passes: 5000},
			want:  60,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateScore(tc.stats, fixedRandom{intn: 10})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCalculateMarketValue(t *testing.T) {
	tests := []struct {
		name     string
		age      int
		position Position
		score    int
		random   float64
		want     int64
	}{
		{name: "young forward at reference score", age: 22, position: PositionForward, score: 70, random: 0.5, want: 2_250_000},
		{name: "experienced midfielder low variation", age: 30, position: PositionMidfielder, score: 84, random: 0, want: 1_497_600},
		{name: "missing age defaults to prime", age: 0, position: PositionGoalkeeper, score: 70, random: 0.5, want: 2_000_000},
		{name: "veteran defender", age: 35, position: PositionDefender, score: 70, random: 0.5, want: 880_000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateMarketValue(tc.age, tc.position, tc.score, fixedRandom{float: tc.random})
			assert.InDelta(t, tc.want, got, 1)
		})
	}
}

func TestCalculateMarketValue_VariationBounded(t *testing.T) {
	low := CalculateMarketValue(25, PositionForward, 70, fixedRandom{float: 0})
	high := CalculateMarketValue(25, PositionForward, 70, fixedRandom{float: 0.999999})

	assert.InDelta(t, 2_400_000, low, 1)
	assert.Less(t, high, int64(3_600_001))
	assert.Greater(t, high, int64(3_599_000))
}

func TestCalculateScouts(t *testing.T) {
	t.Run("goalkeeper categories", func(t *testing.T) {
		got := CalculateScouts(&RawStats{
			Saves:          10,
			GoalsConceded:  intPtr(0),
			PenaltiesSaved: 1,
			YellowCards:    1,
			Passes:         200,
			DuelsWon:       5,
		}, PositionGoalkeeper)

		assert.InDelta(t, 20, got.Saves, 1e-9)
		assert.InDelta(t, 5, got.CleanSheets, 1e-9)
		assert.InDelta(t, 10, got.PenaltiesSaved, 1e-9)
		assert.InDelta(t, -1, got.Discipline, 1e-9)
		assert.InDelta(t, 59, got.Total, 1e-9)
	})

	t.Run("outfield player ignores goalkeeper categories", func(t *testing.T) {
		got := CalculateScouts(&RawStats{
			Goals:         10,
			Assists:       4,
			Shots:         30,
			Tackles:       2,
			Interceptions: 1,
			Saves:         10,
			GoalsConceded: intPtr(0),
			YellowCards:   2,
			RedCards:      1,
			Passes:        100,
			DuelsWon:      20,
		}, PositionForward)

		assert.Zero(t, got.Saves)
		assert.Zero(t, got.CleanSheets)
		assert.InDelta(t, -5, got.Discipline, 1e-9)
		assert.InDelta(t, 107, got.Total, 1e-9)
	})

	t.Run("nil stats", func(t *testing.T) {
		assert.Equal(t, Scouts{}, CalculateScouts(nil, PositionDefender))
	})
}

func TestRawStats_ToStatsRoundTrip(t *testing.T) {
	raw := RawStats{Appearances: 12, Goals: 3, GoalsConceded: intPtr(0), PassAccuracy: 81}

	stats := raw.ToStats(2023)
	assert.Equal(t, 2023, stats.Season)
	assert.Equal(t, 1, stats.CleanSheets)
	assert.Equal(t, 12, stats.Games)

	back := stats.Raw()
	assert.Equal(t, CalculateScore(&raw, fixedRandom{}), CalculateScore(&back, fixedRandom{}))
}

func TestBlendAverage(t *testing.T) {
	assert.InDelta(t, 73.0, BlendAverage(70, 80), 1e-9)
	assert.InDelta(t, 7.5, BlendAverage(7.2, 8.2), 1e-9)
}
