package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/futboss/internal/domain/club"
	"github.com/riskibarqy/futboss/internal/domain/player"
	"github.com/riskibarqy/futboss/internal/platform/logging"
)

const (
	defaultPageLimit       = 20
	maxPageLimit           = 100
	defaultSearchLimit     = 10
	maxSearchLimit         = 50
	defaultClubPlayerLimit = 50
	minSearchQueryLength   = 2
	summaryTopN            = 10
)

type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNext      bool `json:"hasNext"`
	HasPrev      bool `json:"hasPrev"`
}

// NewPagination derives page metadata; totalPages is ceil(total/limit).
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNext:      page < totalPages,
		HasPrev:      page > 1,
	}
}

func normalizePage(page, limit, fallbackLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = fallbackLimit
	}
	return page, min(max(limit, 1), maxPageLimit)
}

// pageOffset is (page-1)*limit, saturating at math.MaxInt so a huge page
// number reads past the end instead of wrapping to a negative offset.
func pageOffset(page, limit int) int {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func isDescending(order string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "desc":
		return true
	case "asc":
		return false
	default:
		return fallback
	}
}

func sortOrderLabel(desc bool) string {
	if desc {
		return "desc"
	}
	return "asc"
}

type PlayerQuery struct {
	Position    string
	Club        string
	Nationality string
	Search      string
	MinValue    *int64
	MaxValue    *int64
	MinScore    *float64
	MaxScore    *float64
	SortBy      string
	SortOrder   string
	Page        int
	Limit       int
}

type PlayerPage struct {
	Players    []player.Player
	Pagination Pagination
	Filters    map[string]any
}

type PlayerDetail struct {
	Player player.Player
	Club   *club.Club
	Stats  *player.Stats
	Scouts *player.Scouts
}

type ClubQuery struct {
	League    string
	Country   string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

type ClubPage struct {
	Clubs      []club.Club
	Pagination Pagination
	Filters    map[string]any
}

type ClubStats struct {
	TotalPlayers      int
	AverageScore      float64
	TotalValue        int64
	PositionBreakdown map[player.Position]int
}

type ClubDetail struct {
	Club    club.Club
	Players []player.Player
	Stats   ClubStats
}

type ClubPlayersPage struct {
	Club       club.Club
	Players    []player.Player
	Pagination Pagination
}

// CatalogService serves read-only player and club queries.
type CatalogService struct {
	players player.Repository
	clubs   club.Repository
	logger  *logging.Logger
}

func NewCatalogService(players player.Repository, clubs club.Repository, logger *logging.Logger) *CatalogService {
	if logger == nil {
		logger = logging.Default()
	}
	return &CatalogService{
		players: players,
		clubs:   clubs,
		logger:  logger.Component("catalog_service"),
	}
}

func (s *CatalogService) ListPlayers(ctx context.Context, query PlayerQuery) (PlayerPage, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.ListPlayers")
	defer span.End()

	page, limit := normalizePage(query.Page, query.Limit, defaultPageLimit)
	sortField := player.ParseSortField(query.SortBy, player.SortByName)
	desc := isDescending(query.SortOrder, false)

	filter := player.Filter{
		Club:        strings.TrimSpace(query.Club),
		Nationality: strings.TrimSpace(query.Nationality),
		Search:      strings.TrimSpace(query.Search),
		MinValue:    query.MinValue,
		MaxValue:    query.MaxValue,
		MinScore:    query.MinScore,
		MaxScore:    query.MaxScore,
		Sort:        player.Sort{Field: sortField, Desc: desc},
		Limit:       limit,
		Offset:      pageOffset(page, limit),
	}
	// Out-of-enum positions are dropped rather than rejected.
	if pos, ok := player.ParsePosition(query.Position); ok {
		filter.Position = pos
	}

	items, total, err := s.players.List(ctx, filter)
	if err != nil {
		return PlayerPage{}, fmt.Errorf("list players: %w", err)
	}

	return PlayerPage{
		Players:    items,
		Pagination: NewPagination(page, limit, total),
		Filters:    playerFilterEcho(filter),
	}, nil
}

func (s *CatalogService) GetPlayer(ctx context.Context, playerID string) (PlayerDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.GetPlayer")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return PlayerDetail{}, validationError("player id is required")
	}

	record, exists, err := s.players.GetRecord(ctx, playerID)
	if err != nil {
		return PlayerDetail{}, fmt.Errorf("get player record: %w", err)
	}
	if !exists {
		return PlayerDetail{}, notFound(CodePlayerNotFound, "player not found")
	}

	out := PlayerDetail{
		Player: record.Player,
		Stats:  record.Stats,
		Scouts: record.Scouts,
	}
	if record.Player.ClubID != "" {
		c, found, err := s.clubs.GetByID(ctx, record.Player.ClubID)
		if err != nil {
			return PlayerDetail{}, fmt.Errorf("get player club: %w", err)
		}
		if found {
			out.Club = &c
		}
	}
	return out, nil
}

func (s *CatalogService) SearchPlayers(ctx context.Context, q string, limit int) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.SearchPlayers")
	defer span.End()

	term, err := searchTerm(q)
	if err != nil {
		return nil, err
	}

	items, _, err := s.players.List(ctx, player.Filter{
		Search: term,
		Sort:   player.Sort{Field: player.SortByCurrentScore, Desc: true},
		Limit:  searchLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search players: %w", err)
	}
	return items, nil
}

func (s *CatalogService) PlayersByPosition(ctx context.Context, position string, limit int, sortBy, sortOrder string) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.PlayersByPosition")
	defer span.End()

	pos, ok := player.ParsePosition(position)
	if !ok {
		return nil, NewCodedError(ErrInvalidInput, CodeInvalidPosition, "invalid position").
			WithDetails(map[string]any{"validPositions": player.OrderedPositions})
	}
	_, limit = normalizePage(1, limit, defaultPageLimit)

	items, _, err := s.players.List(ctx, player.Filter{
		Position: pos,
		Sort: player.Sort{
			Field: player.ParseSortField(sortBy, player.SortByCurrentScore),
			Desc:  isDescending(sortOrder, true),
		},
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list players by position: %w", err)
	}
	return items, nil
}

func (s *CatalogService) PlayerStats(ctx context.Context) (player.Summary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.PlayerStats")
	defer span.End()

	summary, err := s.players.Summary(ctx, summaryTopN)
	if err != nil {
		return player.Summary{}, fmt.Errorf("summarize players: %w", err)
	}
	return summary, nil
}

func (s *CatalogService) ListClubs(ctx context.Context, query ClubQuery) (ClubPage, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.ListClubs")
	defer span.End()

	page, limit := normalizePage(query.Page, query.Limit, defaultPageLimit)
	filter := club.Filter{
		League:  strings.TrimSpace(query.League),
		Country: strings.TrimSpace(query.Country),
		Search:  strings.TrimSpace(query.Search),
		Sort: club.Sort{
			Field: club.ParseSortField(query.SortBy, club.SortByName),
			Desc:  isDescending(query.SortOrder, false),
		},
		Limit:  limit,
		Offset: pageOffset(page, limit),
	}

	items, total, err := s.clubs.List(ctx, filter)
	if err != nil {
		return ClubPage{}, fmt.Errorf("list clubs: %w", err)
	}

	return ClubPage{
		Clubs:      items,
		Pagination: NewPagination(page, limit, total),
		Filters:    clubFilterEcho(filter),
	}, nil
}

func (s *CatalogService) GetClub(ctx context.Context, clubID string) (ClubDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.GetClub")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return ClubDetail{}, validationError("club id is required")
	}

	var (
		c       club.Club
		exists  bool
		members []player.Player
	)
	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		c, exists, err = s.clubs.GetByID(ctx, clubID)
		if err != nil {
			return fmt.Errorf("get club: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		members, _, err = s.players.List(ctx, player.Filter{
			ClubID: clubID,
			Sort:   player.Sort{Field: player.SortByCurrentScore, Desc: true},
		})
		if err != nil {
			return fmt.Errorf("list club players: %w", err)
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		return ClubDetail{}, err
	}
	if !exists {
		return ClubDetail{}, notFound(CodeClubNotFound, "club not found")
	}

	c.PlayerCount = len(members)
	return ClubDetail{
		Club:    c,
		Players: members,
		Stats:   summarizeSquad(members),
	}, nil
}

func (s *CatalogService) ClubPlayers(ctx context.Context, clubID string, query PlayerQuery) (ClubPlayersPage, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.ClubPlayers")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return ClubPlayersPage{}, validationError("club id is required")
	}

	page, limit := normalizePage(query.Page, query.Limit, defaultClubPlayerLimit)
	filter := player.Filter{
		ClubID: clubID,
		Sort: player.Sort{
			Field: player.ParseSortField(query.SortBy, player.SortByCurrentScore),
			Desc:  isDescending(query.SortOrder, true),
		},
		Limit:  limit,
		Offset: pageOffset(page, limit),
	}
	if pos, ok := player.ParsePosition(query.Position); ok {
		filter.Position = pos
	}

	var (
		c       club.Club
		exists  bool
		members []player.Player
		total   int
	)
	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		c, exists, err = s.clubs.GetByID(ctx, clubID)
		if err != nil {
			return fmt.Errorf("get club: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		members, total, err = s.players.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("list club players: %w", err)
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		return ClubPlayersPage{}, err
	}
	if !exists {
		return ClubPlayersPage{}, notFound(CodeClubNotFound, "club not found")
	}

	return ClubPlayersPage{
		Club:       c,
		Players:    members,
		Pagination: NewPagination(page, limit, total),
	}, nil
}

func (s *CatalogService) SearchClubs(ctx context.Context, q string, limit int) ([]club.Club, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.SearchClubs")
	defer span.End()

	term, err := searchTerm(q)
	if err != nil {
		return nil, err
	}

	items, _, err := s.clubs.List(ctx, club.Filter{
		Search: term,
		Sort:   club.Sort{Field: club.SortByName},
		Limit:  searchLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search clubs: %w", err)
	}
	return items, nil
}

func (s *CatalogService) ClubsByLeague(ctx context.Context, league string, limit int, sortBy, sortOrder string) ([]club.Club, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.ClubsByLeague")
	defer span.End()

	league = strings.TrimSpace(league)
	if league == "" {
		return nil, validationError("league is required")
	}
	_, limit = normalizePage(1, limit, defaultPageLimit)

	items, _, err := s.clubs.List(ctx, club.Filter{
		League: league,
		Sort: club.Sort{
			Field: club.ParseSortField(sortBy, club.SortByName),
			Desc:  isDescending(sortOrder, false),
		},
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list clubs by league: %w", err)
	}
	return items, nil
}

func (s *CatalogService) ClubStats(ctx context.Context) (club.Summary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.ClubStats")
	defer span.End()

	summary, err := s.clubs.Summary(ctx, summaryTopN)
	if err != nil {
		return club.Summary{}, fmt.Errorf("summarize clubs: %w", err)
	}
	return summary, nil
}

func searchTerm(q string) (string, error) {
	term := strings.TrimSpace(q)
	if len([]rune(term)) < minSearchQueryLength {
		return "", NewCodedError(ErrInvalidInput, CodeInvalidQuery, "search query must be at least 2 characters")
	}
	return term, nil
}

func searchLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	return min(limit, maxSearchLimit)
}

func summarizeSquad(members []player.Player) ClubStats {
	stats := ClubStats{
		TotalPlayers:      len(members),
		PositionBreakdown: make(map[player.Position]int, len(player.AllPositions)),
	}
	if len(members) == 0 {
		return stats
	}

	var scoreSum float64
	for _, item := range members {
		scoreSum += item.CurrentScore
		stats.TotalValue += item.MarketValue
		stats.PositionBreakdown[item.Position]++
	}
	stats.AverageScore = roundTo(scoreSum/float64(len(members)), 1)
	return stats
}

func playerFilterEcho(filter player.Filter) map[string]any {
	out := map[string]any{
		"sortBy":    string(filter.Sort.Field),
		"sortOrder": sortOrderLabel(filter.Sort.Desc),
	}
	if filter.Position != "" {
		out["position"] = string(filter.Position)
	}
	if filter.Club != "" {
		out["club"] = filter.Club
	}
	if filter.Nationality != "" {
		out["nationality"] = filter.Nationality
	}
	if filter.Search != "" {
		out["search"] = filter.Search
	}
	if filter.MinValue != nil {
		out["minValue"] = *filter.MinValue
	}
	if filter.MaxValue != nil {
		out["maxValue"] = *filter.MaxValue
	}
	if filter.MinScore != nil {
		out["minScore"] = *filter.MinScore
	}
	if filter.MaxScore != nil {
		out["maxScore"] = *filter.MaxScore
	}
	return out
}

func clubFilterEcho(filter club.Filter) map[string]any {
	out := map[string]any{
		"sortBy":    string(filter.Sort.Field),
		"sortOrder": sortOrderLabel(filter.Sort.Desc),
	}
	if filter.League != "" {
		out["league"] = filter.League
	}
	if filter.Country != "" {
		out["country"] = filter.Country
	}
	if filter.Search != "" {
		out["search"] = filter.Search
	}
	return out
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
