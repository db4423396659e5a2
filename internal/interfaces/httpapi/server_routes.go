package httpapi

import "net/http"

func registerAuthRoutes(mux *http.ServeMux, handler *Handler, mw middleware, limit RateLimitRule) {
	mux.Handle("POST /api/auth/register", mw.rateLimit(limit, mw.clientIP.pathRateLimitKey, http.HandlerFunc(handler.Register)))
	mux.Handle("POST /api/auth/login", mw.rateLimit(limit, mw.clientIP.pathRateLimitKey, http.HandlerFunc(handler.Login)))
	mux.HandleFunc("POST /api/auth/guest", handler.LoginAsGuest)
	mux.Handle("GET /api/auth/verify", mw.requireAuth(http.HandlerFunc(handler.Verify)))
	mux.Handle("GET /api/auth/me", mw.requireAuth(http.HandlerFunc(handler.Verify)))
	mux.Handle("GET /api/auth/status", mw.optionalAuth(http.HandlerFunc(handler.AuthStatus)))
	mux.Handle("POST /api/auth/logout", mw.optionalAuth(http.HandlerFunc(handler.Logout)))
	mux.Handle("PUT /api/auth/profile", mw.requireAuth(http.HandlerFunc(handler.UpdateProfile)))
}

func registerPlayerRoutes(mux *http.ServeMux, handler *Handler, mw middleware) {
	mux.Handle("GET /api/players", mw.optionalAuth(http.HandlerFunc(handler.ListPlayers)))
	mux.Handle("GET /api/players/search", mw.optionalAuth(http.HandlerFunc(handler.SearchPlayers)))
	mux.Handle("GET /api/players/stats", mw.optionalAuth(http.HandlerFunc(handler.PlayerStats)))
	mux.Handle("GET /api/players/position/{position}", mw.optionalAuth(http.HandlerFunc(handler.PlayersByPosition)))
	mux.Handle("GET /api/players/{playerID}", mw.optionalAuth(http.HandlerFunc(handler.GetPlayer)))
}

// /api/clubs/league/{league} and /api/clubs/{id}/players overlap in the
// mux, so two-segment club paths go through one dispatcher.
func registerClubRoutes(mux *http.ServeMux, handler *Handler, mw middleware) {
	mux.Handle("GET /api/clubs", mw.optionalAuth(http.HandlerFunc(handler.ListClubs)))
	mux.Handle("GET /api/clubs/search", mw.optionalAuth(http.HandlerFunc(handler.SearchClubs)))
	mux.Handle("GET /api/clubs/stats", mw.optionalAuth(http.HandlerFunc(handler.ClubStats)))
	mux.Handle("GET /api/clubs/{clubID}", mw.optionalAuth(http.HandlerFunc(handler.GetClub)))
	mux.Handle("GET /api/clubs/{segment}/{tail}", mw.optionalAuth(http.HandlerFunc(handler.ClubSubresource)))
}

func registerFantasyTeamRoutes(mux *http.ServeMux, handler *Handler, mw middleware) {
	mux.Handle("GET /api/fantasy-teams", mw.requireAuth(http.HandlerFunc(handler.ListTeams)))
	mux.Handle("POST /api/fantasy-teams", mw.requireAuth(http.HandlerFunc(handler.CreateTeam)))
	mux.Handle("GET /api/fantasy-teams/{teamID}", mw.requireAuth(http.HandlerFunc(handler.GetTeam)))
	mux.Handle("PUT /api/fantasy-teams/{teamID}", mw.requireAuth(http.HandlerFunc(handler.UpdateTeam)))
	mux.Handle("DELETE /api/fantasy-teams/{teamID}", mw.requireAuth(http.HandlerFunc(handler.DeleteTeam)))
	mux.Handle("POST /api/fantasy-teams/{teamID}/players", mw.requireAuth(http.HandlerFunc(handler.AddTeamPlayer)))
	mux.Handle("DELETE /api/fantasy-teams/{teamID}/players/{playerID}", mw.requireAuth(http.HandlerFunc(handler.RemoveTeamPlayer)))
}

func registerDataSyncRoutes(mux *http.ServeMux, handler *Handler, mw middleware, internalJobToken string) {
	guard := func(fn http.HandlerFunc) http.Handler {
		return mw.requireInternalJobToken(internalJobToken, fn)
	}

	mux.Handle("POST /api/data-sync/sync/full", guard(handler.SyncAll))
	mux.Handle("POST /api/data-sync/sync/clubs", guard(handler.SyncClubs))
	mux.Handle("POST /api/data-sync/sync/players", guard(handler.SyncPlayers))
	mux.Handle("POST /api/data-sync/update/player-scores", guard(handler.UpdatePlayerScores))
	mux.Handle("GET /api/data-sync/sync/status", guard(handler.SyncStatus))
	mux.Handle("GET /api/data-sync/stats", guard(handler.CatalogSummary))
	mux.Handle("GET /api/data-sync/provider/check", guard(handler.CheckProvider))
	mux.Handle("DELETE /api/data-sync/clear/all", guard(handler.ClearAll))
}
