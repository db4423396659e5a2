package memory

import (
	"time"

	"github.com/riskibarqy/futboss/internal/domain/club"
	"github.com/riskibarqy/futboss/internal/domain/player"
)

const (
	ClubIDRealMadrid = "club-real-madrid"
	ClubIDBarcelona  = "club-barcelona"
	ClubIDPalmeiras  = "club-palmeiras"
	ClubIDFlamengo   = "club-flamengo"
)

var seedTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func SeedClubs() []club.Club {
	return []club.Club{
		{ID: ClubIDRealMadrid, Name: "Real Madrid", League: "La Liga", Country: "Spain", LogoURL: "/logos/real-madrid.png", CreatedAt: seedTime, UpdatedAt: seedTime},
		{ID: ClubIDBarcelona, Name: "FC Barcelona", League: "La Liga", Country: "Spain", LogoURL: "/logos/barcelona.png", CreatedAt: seedTime, UpdatedAt: seedTime},
		{ID: ClubIDPalmeiras, Name: "Palmeiras", League: "Brasileirão", Country: "Brazil", LogoURL: "/logos/palmeiras.png", CreatedAt: seedTime, UpdatedAt: seedTime},
		{ID: ClubIDFlamengo, Name: "Flamengo", League: "Brasileirão", Country: "Brazil", LogoURL: "/logos/flamengo.png", CreatedAt: seedTime, UpdatedAt: seedTime},
	}
}

func SeedPlayers() []player.Player {
	return []player.Player{
		seedPlayer("player-rodrygo", "Rodrygo", player.PositionForward, ClubIDRealMadrid, "Real Madrid", 65_000_000, 7.9, 7.2, "Brazil", 23),
		seedPlayer("player-vinicius", "Vinícius Jr.", player.PositionForward, ClubIDRealMadrid, "Real Madrid", 120_000_000, 8.1, 7.8, "Brazil", 24),
		seedPlayer("player-bellingham", "Jude Bellingham", player.PositionMidfielder, ClubIDRealMadrid, "Real Madrid", 150_000_000, 8.5, 8.2, "England", 21),
		seedPlayer("player-lewandowski", "Robert Lewandowski", player.PositionForward, ClubIDBarcelona, "FC Barcelona", 45_000_000, 8.3, 8.0, "Poland", 35),
		seedPlayer("player-pedri", "Pedri", player.PositionMidfielder, ClubIDBarcelona, "FC Barcelona", 80_000_000, 7.8, 7.5, "Spain", 22),
		seedPlayer("player-endrick", "Endrick", player.PositionForward, ClubIDPalmeiras, "Palmeiras", 35_000_000, 7.5, 7.0, "Brazil", 18),
		seedPlayer("player-veiga", "Raphael Veiga", player.PositionMidfielder, ClubIDPalmeiras, "Palmeiras", 15_000_000, 7.6, 7.3, "Brazil", 29),
		seedPlayer("player-gabigol", "Gabriel Barbosa", player.PositionForward, ClubIDFlamengo, "Flamengo", 18_000_000, 7.4, 7.1, "Brazil", 28),
		seedPlayer("player-arrascaeta", "Arrascaeta", player.PositionMidfielder, ClubIDFlamengo, "Flamengo", 12_000_000, 7.7, 7.4, "Uruguay", 30),
	}
}

// SeedRecords wraps SeedPlayers without stats; seeded rows are not treated
// as synced.
func SeedRecords() []player.Record {
	players := SeedPlayers()
	out := make([]player.Record, 0, len(players))
	for _, p := range players {
		out = append(out, player.Record{Player: p})
	}
	return out
}

func seedPlayer(id, name string, pos player.Position, clubID, clubName string, value int64, current, average float64, nationality string, age int) player.Player {
	return player.Player{
		ID:           id,
		Name:         name,
		Position:     pos,
		CurrentTeam:  clubName,
		ClubID:       clubID,
		MarketValue:  value,
		CurrentScore: current,
		AverageScore: average,
		Nationality:  nationality,
		Age:          age,
		CreatedAt:    seedTime,
		UpdatedAt:    seedTime,
	}
}
