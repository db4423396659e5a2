package httpapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/riskibarqy/futboss/internal/usecase"
)

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	query, err := parsePlayerQuery(r.URL.Query())
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	page, err := h.catalogService.ListPlayers(ctx, query)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"players":    playersToDTO(page.Players),
		"pagination": page.Pagination,
		"filters":    page.Filters,
	})
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayer")
	defer span.End()

	detail, err := h.catalogService.GetPlayer(ctx, r.PathValue("playerID"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"player": playerDetailToDTO(detail)})
}

func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SearchPlayers")
	defer span.End()

	q := r.URL.Query()
	limit, err := queryInt(q, "limit")
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	players, err := h.catalogService.SearchPlayers(ctx, q.Get("q"), limit)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"players": playersToDTO(players),
		"query":   strings.TrimSpace(q.Get("q")),
		"count":   len(players),
	})
}

func (h *Handler) PlayersByPosition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PlayersByPosition")
	defer span.End()

	q := r.URL.Query()
	limit, err := queryInt(q, "limit")
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	position := r.PathValue("position")
	players, err := h.catalogService.PlayersByPosition(ctx, position, limit, q.Get("sortBy"), q.Get("sortOrder"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"players":  playersToDTO(players),
		"position": strings.ToUpper(strings.TrimSpace(position)),
		"count":    len(players),
	})
}

func (h *Handler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PlayerStats")
	defer span.End()

	summary, err := h.catalogService.PlayerStats(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerSummaryToDTO(summary))
}

func parsePlayerQuery(q url.Values) (usecase.PlayerQuery, error) {
	out := usecase.PlayerQuery{
		Position:    q.Get("position"),
		Club:        q.Get("club"),
		Nationality: q.Get("nationality"),
		Search:      q.Get("search"),
		SortBy:      q.Get("sortBy"),
		SortOrder:   q.Get("sortOrder"),
	}

	var err error
	if out.Page, err = queryInt(q, "page"); err != nil {
		return usecase.PlayerQuery{}, err
	}
	if out.Limit, err = queryInt(q, "limit"); err != nil {
		return usecase.PlayerQuery{}, err
	}
	if out.MinValue, err = queryInt64Ptr(q, "minValue"); err != nil {
		return usecase.PlayerQuery{}, err
	}
	if out.MaxValue, err = queryInt64Ptr(q, "maxValue"); err != nil {
		return usecase.PlayerQuery{}, err
	}
	if out.MinScore, err = queryFloatPtr(q, "minScore"); err != nil {
		return usecase.PlayerQuery{}, err
	}
	if out.MaxScore, err = queryFloatPtr(q, "maxScore"); err != nil {
		return usecase.PlayerQuery{}, err
	}
	return out, nil
}
