package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/futboss/internal/usecase"
)

func (h *Handler) ListClubs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListClubs")
	defer span.End()

	q := r.URL.Query()
	query := usecase.ClubQuery{
		League:    q.Get("league"),
		Country:   q.Get("country"),
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	var err error
	if query.Page, err = queryInt(q, "page"); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if query.Limit, err = queryInt(q, "limit"); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	page, err := h.catalogService.ListClubs(ctx, query)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"clubs":      clubsToDTO(page.Clubs),
		"pagination": page.Pagination,
		"filters":    page.Filters,
	})
}

func (h *Handler) GetClub(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetClub")
	defer span.End()

	detail, err := h.catalogService.GetClub(ctx, r.PathValue("clubID"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"club": clubDetailToDTO(detail)})
}

// ClubSubresource serves /api/clubs/league/{league} and
// /api/clubs/{id}/players.
func (h *Handler) ClubSubresource(w http.ResponseWriter, r *http.Request) {
	segment, tail := r.PathValue("segment"), r.PathValue("tail")
	switch {
	case segment == "league":
		h.clubsByLeague(w, r, tail)
	case tail == "players":
		h.clubPlayers(w, r, segment)
	default:
		h.NotFound(w, r)
	}
}

func (h *Handler) clubsByLeague(w http.ResponseWriter, r *http.Request, league string) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClubsByLeague")
	defer span.End()

	q := r.URL.Query()
	limit, err := queryInt(q, "limit")
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	clubs, err := h.catalogService.ClubsByLeague(ctx, league, limit, q.Get("sortBy"), q.Get("sortOrder"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"clubs":  clubsToDTO(clubs),
		"league": strings.TrimSpace(league),
		"count":  len(clubs),
	})
}

func (h *Handler) clubPlayers(w http.ResponseWriter, r *http.Request, clubID string) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClubPlayers")
	defer span.End()

	query, err := parsePlayerQuery(r.URL.Query())
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	page, err := h.catalogService.ClubPlayers(ctx, clubID, query)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"club": map[string]string{
			"id":   page.Club.ID,
			"name": page.Club.Name,
		},
		"players":    playersToDTO(page.Players),
		"count":      len(page.Players),
		"pagination": page.Pagination,
	})
}

func (h *Handler) SearchClubs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SearchClubs")
	defer span.End()

	q := r.URL.Query()
	limit, err := queryInt(q, "limit")
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	clubs, err := h.catalogService.SearchClubs(ctx, q.Get("q"), limit)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"clubs": clubsToDTO(clubs),
		"query": strings.TrimSpace(q.Get("q")),
		"count": len(clubs),
	})
}

func (h *Handler) ClubStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClubStats")
	defer span.End()

	summary, err := h.catalogService.ClubStats(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, clubSummaryToDTO(summary))
}
