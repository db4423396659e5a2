package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/futboss/internal/domain/club"
	"github.com/riskibarqy/futboss/internal/domain/fantasy"
	"github.com/riskibarqy/futboss/internal/domain/player"
	"github.com/riskibarqy/futboss/internal/domain/user"
)

type userTableModel struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	Username     string     `db:"username"`
	PasswordHash string     `db:"password_hash"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	LastLoginAt  *time.Time `db:"last_login_at"`
}

func (m userTableModel) toDomain() user.User {
	return user.User{
		ID:           m.ID,
		Email:        m.Email,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		LastLoginAt:  m.LastLoginAt,
	}
}

type preferencesTableModel struct {
	UserID             string    `db:"user_id"`
	FavoriteTeam       string    `db:"favorite_team"`
	PreferredFormation string    `db:"preferred_formation"`
	Notifications      bool      `db:"notifications"`
	UpdatedAt          time.Time `db:"updated_at"`
}

type clubTableModel struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	League      string    `db:"league"`
	Country     string    `db:"country"`
	LogoURL     string    `db:"logo_url"`
	APIID       string    `db:"api_id"`
	APISportsID string    `db:"api_sports_id"`
	PlayerCount int       `db:"player_count"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (m clubTableModel) toDomain() club.Club {
	return club.Club{
		ID:          m.ID,
		Name:        m.Name,
		League:      m.League,
		Country:     m.Country,
		LogoURL:     m.LogoURL,
		APIID:       m.APIID,
		APISportsID: m.APISportsID,
		PlayerCount: m.PlayerCount,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type playerTableModel struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Position     string         `db:"position"`
	CurrentTeam  string         `db:"current_team"`
	ClubID       sql.NullString `db:"club_id"`
	MarketValue  int64          `db:"market_value"`
	CurrentScore float64        `db:"current_score"`
	AverageScore float64        `db:"average_score"`
	Nationality  string         `db:"nationality"`
	Age          int            `db:"age"`
	PhotoURL     string         `db:"photo_url"`
	APIID        string         `db:"api_id"`
	APISportsID  string         `db:"api_sports_id"`
	LastSyncAt   *time.Time     `db:"last_sync_at"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (m playerTableModel) toDomain() player.Player {
	return player.Player{
		ID:           m.ID,
		Name:         m.Name,
		Position:     player.Position(m.Position),
		CurrentTeam:  m.CurrentTeam,
		ClubID:       m.ClubID.String,
		MarketValue:  m.MarketValue,
		CurrentScore: m.CurrentScore,
		AverageScore: m.AverageScore,
		Nationality:  m.Nationality,
		Age:          m.Age,
		PhotoURL:     m.PhotoURL,
		APIID:        m.APIID,
		APISportsID:  m.APISportsID,
		LastSyncAt:   m.LastSyncAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type playerStatsTableModel struct {
	PlayerID        string    `db:"player_id"`
	Season          int       `db:"season"`
	Games           int       `db:"games"`
	Minutes         int       `db:"minutes"`
	Goals           int       `db:"goals"`
	Assists         int       `db:"assists"`
	YellowCards     int       `db:"yellow_cards"`
	RedCards        int       `db:"red_cards"`
	Saves           int       `db:"saves"`
	CleanSheets     int       `db:"clean_sheets"`
	GoalsConceded   int       `db:"goals_conceded"`
	Passes          int       `db:"passes"`
	PassAccuracy    float64   `db:"pass_accuracy"`
	Tackles         int       `db:"tackles"`
	Interceptions   int       `db:"interceptions"`
	Blocks          int       `db:"blocks"`
	DuelsWon        int       `db:"duels_won"`
	DuelsTotal      int       `db:"duels_total"`
	Dribbles        int       `db:"dribbles"`
	FoulsDrawn      int       `db:"fouls_drawn"`
	FoulsCommitted  int       `db:"fouls_committed"`
	PenaltiesScored int       `db:"penalties_scored"`
	PenaltiesMissed int       `db:"penalties_missed"`
	Rating          float64   `db:"rating"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func newPlayerStatsTableModel(playerID string, s player.Stats, at time.Time) playerStatsTableModel {
	return playerStatsTableModel{
		PlayerID:        playerID,
		Season:          s.Season,
		Games:           s.Games,
		Minutes:         s.Minutes,
		Goals:           s.Goals,
		Assists:         s.Assists,
		YellowCards:     s.YellowCards,
		RedCards:        s.RedCards,
		Saves:           s.Saves,
		CleanSheets:     s.CleanSheets,
		GoalsConceded:   s.GoalsConceded,
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
		PenaltiesScored: s.PenaltiesScored,
		PenaltiesMissed: s.PenaltiesMissed,
		Rating:          s.Rating,
		UpdatedAt:       at,
	}
}

func (m playerStatsTableModel) toDomain() *player.Stats {
	return &player.Stats{
		Season:          m.Season,
		Games:           m.Games,
		Minutes:         m.Minutes,
		Goals:           m.Goals,
		Assists:         m.Assists,
		YellowCards:     m.YellowCards,
		RedCards:        m.RedCards,
		Saves:           m.Saves,
		CleanSheets:     m.CleanSheets,
		GoalsConceded:   m.GoalsConceded,
		Passes:          m.Passes,
		PassAccuracy:    m.PassAccuracy,
		Tackles:         m.Tackles,
		Interceptions:   m.Interceptions,
		Blocks:          m.Blocks,
		DuelsWon:        m.DuelsWon,
		DuelsTotal:      m.DuelsTotal,
		Dribbles:        m.Dribbles,
		FoulsDrawn:      m.FoulsDrawn,
		FoulsCommitted:  m.FoulsCommitted,
		PenaltiesScored: m.PenaltiesScored,
		PenaltiesMissed: m.PenaltiesMissed,
		Rating:          m.Rating,
	}
}

type playerScoutsTableModel struct {
	PlayerID       string    `db:"player_id"`
	Goals          float64   `db:"goals"`
	Assists        float64   `db:"assists"`
	Finalization   float64   `db:"finalization"`
	Tackles        float64   `db:"tackles"`
	Interceptions  float64   `db:"interceptions"`
	Blocks         float64   `db:"blocks"`
	Saves          float64   `db:"saves"`
	CleanSheets    float64   `db:"clean_sheets"`
	PenaltiesSaved float64   `db:"penalties_saved"`
	Discipline     float64   `db:"discipline"`
	Passes         float64   `db:"passes"`
	Duels          float64   `db:"duels"`
	Total          float64   `db:"total"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func newPlayerScoutsTableModel(playerID string, s player.Scouts, at time.Time) playerScoutsTableModel {
	return playerScoutsTableModel{
		PlayerID:       playerID,
		Goals:          s.Goals,
		Assists:        s.Assists,
		Finalization:   s.Finalization,
		Tackles:        s.Tackles,
		Interceptions:  s.Interceptions,
		Blocks:         s.Blocks,
		Saves:          s.Saves,
		CleanSheets:    s.CleanSheets,
		PenaltiesSaved: s.PenaltiesSaved,
		Discipline:     s.Discipline,
		Passes:         s.Passes,
		Duels:          s.Duels,
		Total:          s.Total,
		UpdatedAt:      at,
	}
}

func (m playerScoutsTableModel) toDomain() *player.Scouts {
	return &player.Scouts{
		Goals:          m.Goals,
		Assists:        m.Assists,
		Finalization:   m.Finalization,
		Tackles:        m.Tackles,
		Interceptions:  m.Interceptions,
		Blocks:         m.Blocks,
		Saves:          m.Saves,
		CleanSheets:    m.CleanSheets,
		PenaltiesSaved: m.PenaltiesSaved,
		Discipline:     m.Discipline,
		Passes:         m.Passes,
		Duels:          m.Duels,
		Total:          m.Total,
	}
}

type teamTableModel struct {
	ID         string    `db:"id"`
	OwnerID    string    `db:"owner_id"`
	Name       string    `db:"name"`
	Formation  string    `db:"formation"`
	TotalValue int64     `db:"total_value"`
	Budget     int64     `db:"budget"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (m teamTableModel) toDomain(entries []fantasy.TeamPlayer) fantasy.Team {
	return fantasy.Team{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		Name:       m.Name,
		Formation:  fantasy.Formation(m.Formation),
		TotalValue: m.TotalValue,
		Budget:     m.Budget,
		Players:    entries,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type teamPlayerTableModel struct {
	ID               string    `db:"id"`
	TeamID           string    `db:"team_id"`
	PlayerID         string    `db:"player_id"`
	Position         string    `db:"position"`
	AcquisitionValue int64     `db:"acquisition_value"`
	AddedAt          time.Time `db:"added_at"`
}

func newTeamPlayerTableModel(entry fantasy.TeamPlayer) teamPlayerTableModel {
	return teamPlayerTableModel{
		ID:               entry.ID,
		TeamID:           entry.TeamID,
		PlayerID:         entry.PlayerID,
		Position:         string(entry.Position),
		AcquisitionValue: entry.AcquisitionValue,
		AddedAt:          entry.AddedAt,
	}
}

func (m teamPlayerTableModel) toDomain() fantasy.TeamPlayer {
	return fantasy.TeamPlayer{
		ID:               m.ID,
		TeamID:           m.TeamID,
		PlayerID:         m.PlayerID,
		Position:         player.Position(m.Position),
		AcquisitionValue: m.AcquisitionValue,
		AddedAt:          m.AddedAt,
	}
}
