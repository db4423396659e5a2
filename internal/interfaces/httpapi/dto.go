package httpapi

import (
	"time"

	"github.com/riskibarqy/futboss/internal/domain/club"
	"github.com/riskibarqy/futboss/internal/domain/fantasy"
	"github.com/riskibarqy/futboss/internal/domain/player"
	"github.com/riskibarqy/futboss/internal/domain/user"
	"github.com/riskibarqy/futboss/internal/usecase"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=20,username"`
	Password string `json:"password" validate:"required,min=6,strongpassword"`
}

type loginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Username *string `json:"username" validate:"omitempty,min=3,max=20,username"`
}

type createTeamRequest struct {
	Name      string   `json:"name" validate:"required,min=3,max=50,teamname"`
	Formation string   `json:"formation" validate:"omitempty,oneof=4-4-2 4-3-3 3-5-2 4-2-3-1 5-3-2 3-4-3 4-5-1"`
	Players   []string `json:"players" validate:"omitempty,dive,required"`
}

type updateTeamRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=3,max=50,teamname"`
	Formation *string `json:"formation" validate:"omitempty,oneof=4-4-2 4-3-3 3-5-2 4-2-3-1 5-3-2 3-4-3 4-5-1"`
}

type addTeamPlayerRequest struct {
	PlayerID string `json:"playerId" validate:"required"`
	Position string `json:"position" validate:"omitempty"`
}

type userDTO struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	IsGuest     bool       `json:"isGuest"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	LastLoginAt *time.Time `json:"lastLogin,omitempty"`
}

type preferencesDTO struct {
	FavoriteTeam       *string `json:"favoriteTeam"`
	PreferredFormation string  `json:"preferredFormation"`
	Notifications      bool    `json:"notifications"`
}

type authDTO struct {
	User        userDTO         `json:"user"`
	Preferences *preferencesDTO `json:"preferences,omitempty"`
	Token       string          `json:"token"`
	ExpiresIn   string          `json:"expiresIn"`
}

type verifyDTO struct {
	User        userDTO         `json:"user"`
	Preferences *preferencesDTO `json:"preferences,omitempty"`
}

type authStatusDTO struct {
	Authenticated bool     `json:"authenticated"`
	IsGuest       bool     `json:"isGuest"`
	User          *userDTO `json:"user,omitempty"`
}

type playerDTO struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Position     string     `json:"position"`
	CurrentTeam  string     `json:"currentTeam"`
	ClubID       *string    `json:"clubId"`
	MarketValue  int64      `json:"marketValue"`
	CurrentScore float64    `json:"currentScore"`
	AverageScore float64    `json:"averageScore"`
	Nationality  string     `json:"nationality"`
	Age          int        `json:"age"`
	PhotoURL     string     `json:"photoUrl,omitempty"`
	APIID        string     `json:"apiId,omitempty"`
	APISportsID  string     `json:"apiSportsId,omitempty"`
	LastSyncAt   *time.Time `json:"lastSyncAt,omitempty"`
	Club         *clubDTO   `json:"club,omitempty"`
	Stats        *statsDTO  `json:"stats,omitempty"`
	Scouts       *scoutsDTO `json:"scouts,omitempty"`
}

type statsDTO struct {
	Season          int     `json:"season"`
	Games           int     `json:"games"`
	Minutes         int     `json:"minutes"`
	Goals           int     `json:"goals"`
	Assists         int     `json:"assists"`
	YellowCards     int     `json:"yellowCards"`
	RedCards        int     `json:"redCards"`
	Saves           int     `json:"saves"`
	CleanSheets     int     `json:"cleanSheets"`
	GoalsConceded   int     `json:"goalsConceded"`
	Passes          int     `json:"passes"`
	PassAccuracy    float64 `json:"passAccuracy"`
	Tackles         int     `json:"tackles"`
	Interceptions   int     `json:"interceptions"`
	Blocks          int     `json:"blocks"`
	DuelsWon        int     `json:"duelsWon"`
	DuelsTotal      int     `json:"duelsTotal"`
	Dribbles        int     `json:"dribbles"`
	FoulsDrawn      int     `json:"foulsDrawn"`
	FoulsCommitted  int     `json:"foulsCommitted"`
	PenaltiesScored int     `json:"penaltiesScored"`
	PenaltiesMissed int     `json:"penaltiesMissed"`
	Rating          float64 `json:"rating"`
}

type scoutsDTO struct {
	Goals          float64 `json:"goals"`
	Assists        float64 `json:"assists"`
	Finalization   float64 `json:"finalization"`
	Tackles        float64 `json:"tackles"`
	Interceptions  float64 `json:"interceptions"`
	Blocks         float64 `json:"blocks"`
	Saves          float64 `json:"saves"`
	CleanSheets    float64 `json:"cleanSheets"`
	PenaltiesSaved float64 `json:"penaltiesSaved"`
	Discipline     float64 `json:"discipline"`
	Passes         float64 `json:"passes"`
	Duels          float64 `json:"duels"`
	Total          float64 `json:"total"`
}

type clubDTO struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	League      string        `json:"league"`
	Country     string        `json:"country"`
	LogoURL     string        `json:"logoUrl,omitempty"`
	APIID       string        `json:"apiId,omitempty"`
	APISportsID string        `json:"apiSportsId,omitempty"`
	PlayerCount int           `json:"playerCount"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	Players     []playerDTO   `json:"players,omitempty"`
	Stats       *clubStatsDTO `json:"stats,omitempty"`
}

type clubStatsDTO struct {
	TotalPlayers      int            `json:"totalPlayers"`
	AverageScore      float64        `json:"averageScore"`
	TotalValue        int64          `json:"totalValue"`
	PositionBreakdown map[string]int `json:"positionBreakdown"`
}

type rangeDTO struct {
	Average float64 `json:"avg"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
}

type playerSummaryDTO struct {
	General struct {
		Total        int      `json:"total"`
		MarketValue  rangeDTO `json:"marketValue"`
		CurrentScore rangeDTO `json:"currentScore"`
		AverageScore float64  `json:"averageScore"`
	} `json:"general"`
	ByPosition       []positionSummaryDTO `json:"byPosition"`
	TopNationalities []bucketDTO          `json:"topNationalities"`
}

type positionSummaryDTO struct {
	Position     string  `json:"position"`
	Count        int     `json:"count"`
	AverageScore float64 `json:"avgScore"`
	AverageValue float64 `json:"avgValue"`
}

type bucketDTO struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type clubSummaryDTO struct {
	General struct {
		Total int `json:"total"`
	} `json:"general"`
	ByLeague   []bucketDTO    `json:"byLeague"`
	ByCountry  []bucketDTO    `json:"byCountry"`
	TopByValue []valuationDTO `json:"topByValue"`
}

type valuationDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	League      string `json:"league"`
	PlayerCount int    `json:"playerCount"`
	TotalValue  int64  `json:"totalValue"`
}

type teamDTO struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Formation       string          `json:"formation"`
	TotalValue      int64           `json:"totalValue"`
	Budget          int64           `json:"budget"`
	RemainingBudget int64           `json:"remainingBudget"`
	PlayerCount     int             `json:"playerCount"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Players         []teamPlayerDTO `json:"teamPlayers"`
	Stats           *teamStatsDTO   `json:"stats,omitempty"`
}

type teamPlayerDTO struct {
	ID               string     `json:"id"`
	PlayerID         string     `json:"playerId"`
	Position         string     `json:"position"`
	AcquisitionValue int64      `json:"acquisitionValue"`
	AddedAt          time.Time  `json:"addedAt"`
	Player           *playerDTO `json:"player,omitempty"`
}

type teamStatsDTO struct {
	TotalPlayers      int            `json:"totalPlayers"`
	RemainingBudget   int64          `json:"remainingBudget"`
	AverageScore      float64        `json:"averageScore"`
	PositionBreakdown map[string]int `json:"positionBreakdown"`
}

type purgeDTO struct {
	TeamPlayers  int `json:"teamPlayers"`
	FantasyTeams int `json:"fantasyTeams"`
	PlayerStats  int `json:"playerStats"`
	PlayerScouts int `json:"playerScouts"`
	Players      int `json:"players"`
	Clubs        int `json:"clubs"`
}

func profileToDTO(p user.Profile) userDTO {
	out := userDTO{
		ID:          p.ID,
		Email:       p.Email,
		Username:    p.Username,
		IsGuest:     p.IsGuest,
		LastLoginAt: p.LastLoginAt,
	}
	if !p.CreatedAt.IsZero() {
		createdAt := p.CreatedAt
		out.CreatedAt = &createdAt
	}
	return out
}

func preferencesToDTO(p *user.Preferences) *preferencesDTO {
	if p == nil {
		return nil
	}
	out := &preferencesDTO{
		PreferredFormation: p.PreferredFormation,
		Notifications:      p.Notifications,
	}
	if p.FavoriteTeam != "" {
		favorite := p.FavoriteTeam
		out.FavoriteTeam = &favorite
	}
	return out
}

func authResultToDTO(r usecase.AuthResult) authDTO {
	return authDTO{
		User:        profileToDTO(r.User),
		Preferences: preferencesToDTO(r.Preferences),
		Token:       r.Token,
		ExpiresIn:   r.ExpiresIn,
	}
}

func playerToDTO(p player.Player) playerDTO {
	out := playerDTO{
		ID:           p.ID,
		Name:         p.Name,
		Position:     string(p.Position),
		CurrentTeam:  p.CurrentTeam,
		MarketValue:  p.MarketValue,
		CurrentScore: p.CurrentScore,
		AverageScore: p.AverageScore,
		Nationality:  p.Nationality,
		Age:          p.Age,
		PhotoURL:     p.PhotoURL,
		APIID:        p.APIID,
		APISportsID:  p.APISportsID,
		LastSyncAt:   p.LastSyncAt,
	}
	if p.ClubID != "" {
		clubID := p.ClubID
		out.ClubID = &clubID
	}
	return out
}

func playersToDTO(items []player.Player) []playerDTO {
	out := make([]playerDTO, 0, len(items))
	for _, item := range items {
		out = append(out, playerToDTO(item))
	}
	return out
}

func playerDetailToDTO(d usecase.PlayerDetail) playerDTO {
	out := playerToDTO(d.Player)
	if d.Club != nil {
		c := clubToDTO(*d.Club)
		out.Club = &c
	}
	if d.Stats != nil {
		s := statsToDTO(*d.Stats)
		out.Stats = &s
	}
	if d.Scouts != nil {
		s := scoutsDTO(*d.Scouts)
		out.Scouts = &s
	}
	return out
}

func statsToDTO(s player.Stats) statsDTO {
	return statsDTO(s)
}

func clubToDTO(c club.Club) clubDTO {
	return clubDTO{
		ID:          c.ID,
		Name:        c.Name,
		League:      c.League,
		Country:     c.Country,
		LogoURL:     c.LogoURL,
		APIID:       c.APIID,
		APISportsID: c.APISportsID,
		PlayerCount: c.PlayerCount,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func clubsToDTO(items []club.Club) []clubDTO {
	out := make([]clubDTO, 0, len(items))
	for _, item := range items {
		out = append(out, clubToDTO(item))
	}
	return out
}

func clubDetailToDTO(d usecase.ClubDetail) clubDTO {
	out := clubToDTO(d.Club)
	out.Players = playersToDTO(d.Players)
	out.Stats = &clubStatsDTO{
		TotalPlayers:      d.Stats.TotalPlayers,
		AverageScore:      d.Stats.AverageScore,
		TotalValue:        d.Stats.TotalValue,
		PositionBreakdown: positionBreakdownToDTO(d.Stats.PositionBreakdown),
	}
	return out
}

func playerSummaryToDTO(s player.Summary) playerSummaryDTO {
	var out playerSummaryDTO
	out.General.Total = s.Total
	out.General.MarketValue = rangeDTO(s.MarketValue)
	out.General.CurrentScore = rangeDTO(s.CurrentScore)
	out.General.AverageScore = s.AverageScore

	out.ByPosition = make([]positionSummaryDTO, 0, len(s.ByPosition))
	for _, row := range s.ByPosition {
		out.ByPosition = append(out.ByPosition, positionSummaryDTO{
			Position:     string(row.Position),
			Count:        row.Count,
			AverageScore: row.AverageScore,
			AverageValue: row.AverageValue,
		})
	}
	out.TopNationalities = make([]bucketDTO, 0, len(s.TopNationalities))
	for _, b := range s.TopNationalities {
		out.TopNationalities = append(out.TopNationalities, bucketDTO{Name: b.Key, Count: b.Count})
	}
	return out
}

func clubSummaryToDTO(s club.Summary) clubSummaryDTO {
	var out clubSummaryDTO
	out.General.Total = s.Total
	out.ByLeague = clubBucketsToDTO(s.ByLeague)
	out.ByCountry = clubBucketsToDTO(s.TopCountries)
	out.TopByValue = make([]valuationDTO, 0, len(s.TopByValue))
	for _, v := range s.TopByValue {
		out.TopByValue = append(out.TopByValue, valuationDTO{
			ID:          v.ClubID,
			Name:        v.Name,
			League:      v.League,
			PlayerCount: v.PlayerCount,
			TotalValue:  v.TotalValue,
		})
	}
	return out
}

func clubBucketsToDTO(items []club.Bucket) []bucketDTO {
	out := make([]bucketDTO, 0, len(items))
	for _, b := range items {
		out = append(out, bucketDTO{Name: b.Key, Count: b.Count})
	}
	return out
}

func positionBreakdownToDTO(counts map[player.Position]int) map[string]int {
	out := make(map[string]int, len(counts))
	for pos, n := range counts {
		if n > 0 {
			out[string(pos)] = n
		}
	}
	return out
}

func teamToDTO(t fantasy.Team) teamDTO {
	out := teamDTO{
		ID:              t.ID,
		Name:            t.Name,
		Formation:       string(t.Formation),
		TotalValue:      t.TotalValue,
		Budget:          t.Budget,
		RemainingBudget: t.RemainingBudget(),
		PlayerCount:     len(t.Players),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		Players:         make([]teamPlayerDTO, 0, len(t.Players)),
	}
	for _, entry := range t.Players {
		out.Players = append(out.Players, teamPlayerToDTO(entry, nil))
	}
	return out
}

func teamDetailToDTO(d usecase.TeamDetail) teamDTO {
	out := teamToDTO(d.Team)
	out.Players = make([]teamPlayerDTO, 0, len(d.Roster))
	for _, row := range d.Roster {
		out.Players = append(out.Players, teamPlayerToDTO(row.Entry, row.Player))
	}
	out.Stats = &teamStatsDTO{
		TotalPlayers:      d.Stats.TotalPlayers,
		RemainingBudget:   d.Stats.RemainingBudget,
		AverageScore:      d.Stats.AverageScore,
		PositionBreakdown: positionBreakdownToDTO(d.Stats.PositionBreakdown),
	}
	return out
}

func teamPlayerToDTO(entry fantasy.TeamPlayer, p *player.Player) teamPlayerDTO {
	out := teamPlayerDTO{
		ID:               entry.ID,
		PlayerID:         entry.PlayerID,
		Position:         string(entry.Position),
		AcquisitionValue: entry.AcquisitionValue,
		AddedAt:          entry.AddedAt,
	}
	if p != nil {
		dto := playerToDTO(*p)
		out.Player = &dto
	}
	return out
}

func purgeToDTO(r club.PurgeResult) purgeDTO {
	return purgeDTO{
		TeamPlayers:  r.TeamPlayers,
		FantasyTeams: r.Teams,
		PlayerStats:  r.Stats,
		PlayerScouts: r.Scouts,
		Players:      r.Players,
		Clubs:        r.Clubs,
	}
}
