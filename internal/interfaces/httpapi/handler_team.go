package httpapi

import (
	"net/http"

	"github.com/riskibarqy/futboss/internal/usecase"
)

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	list, err := h.rosterService.ListTeams(ctx, sessionFromContext(ctx))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	teams := make([]teamDTO, 0, len(list.Teams))
	for _, detail := range list.Teams {
		teams = append(teams, teamDetailToDTO(detail))
	}
	data := map[string]any{
		"teams": teams,
		"count": len(teams),
	}
	if list.Message != "" {
		data["message"] = list.Message
	}
	writeSuccess(ctx, w, http.StatusOK, data)
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateTeam")
	defer span.End()

	var req createTeamRequest
	if err := h.decodeAndValidate(r.WithContext(ctx), &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	detail, err := h.rosterService.CreateTeam(ctx, sessionFromContext(ctx), usecase.CreateTeamInput{
		Name:      req.Name,
		Formation: req.Formation,
		PlayerIDs: req.Players,
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeMessage(ctx, w, http.StatusCreated, "fantasy team created", map[string]any{"team": teamDetailToDTO(detail)})
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	detail, err := h.rosterService.GetTeam(ctx, sessionFromContext(ctx), r.PathValue("teamID"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"team": teamDetailToDTO(detail)})
}

func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateTeam")
	defer span.End()

	var req updateTeamRequest
	if err := h.decodeAndValidate(r.WithContext(ctx), &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	team, err := h.rosterService.UpdateTeam(ctx, sessionFromContext(ctx), r.PathValue("teamID"), usecase.UpdateTeamInput{
		Name:      req.Name,
		Formation: req.Formation,
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeMessage(ctx, w, http.StatusOK, "fantasy team updated", map[string]any{"team": teamToDTO(team)})
}

func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteTeam")
	defer span.End()

	if err := h.rosterService.DeleteTeam(ctx, sessionFromContext(ctx), r.PathValue("teamID")); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeMessage(ctx, w, http.StatusOK, "fantasy team deleted", nil)
}

func (h *Handler) AddTeamPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddTeamPlayer")
	defer span.End()

	var req addTeamPlayerRequest
	if err := h.decodeAndValidate(r.WithContext(ctx), &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	change, err := h.rosterService.AddPlayer(ctx, sessionFromContext(ctx), r.PathValue("teamID"), usecase.AddPlayerInput{
		PlayerID: req.PlayerID,
		Position: req.Position,
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeMessage(ctx, w, http.StatusCreated, "player added to team", map[string]any{
		"teamPlayer":      teamPlayerToDTO(change.Entry, &change.Player),
		"totalValue":      change.Team.TotalValue,
		"remainingBudget": change.Team.RemainingBudget(),
	})
}

func (h *Handler) RemoveTeamPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveTeamPlayer")
	defer span.End()

	change, err := h.rosterService.RemovePlayer(ctx, sessionFromContext(ctx), r.PathValue("teamID"), r.PathValue("playerID"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeMessage(ctx, w, http.StatusOK, "player removed from team", map[string]any{
		"refund":          change.Entry.AcquisitionValue,
		"totalValue":      change.Team.TotalValue,
		"remainingBudget": change.Team.RemainingBudget(),
	})
}
