package httpapi

import (
	"context"
	"net/http"

	"github.com/riskibarqy/futboss/internal/usecase"
)

func (h *Handler) SyncAll(w http.ResponseWriter, r *http.Request) {
	h.runSync(w, r, "httpapi.Handler.SyncAll", "full sync finished", h.syncService.SyncAll)
}

func (h *Handler) SyncClubs(w http.ResponseWriter, r *http.Request) {
	h.runSync(w, r, "httpapi.Handler.SyncClubs", "club sync finished", h.syncService.SyncClubs)
}

func (h *Handler) SyncPlayers(w http.ResponseWriter, r *http.Request) {
	h.runSync(w, r, "httpapi.Handler.SyncPlayers", "player sync finished", h.syncService.SyncPlayers)
}

func (h *Handler) UpdatePlayerScores(w http.ResponseWriter, r *http.Request) {
	h.runSync(w, r, "httpapi.Handler.UpdatePlayerScores", "player scores updated", h.syncService.UpdatePlayerScores)
}

// runSync executes a stage inside the request. A failed stage still returns
// its summary with status=failed.
func (h *Handler) runSync(
	w http.ResponseWriter,
	r *http.Request,
	spanName string,
	message string,
	run func(ctx context.Context) (usecase.SyncResult, error),
) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	result, err := run(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "sync request failed", "operation", spanName, "error", err)
		h.writeError(ctx, w, err)
		return
	}

	if result.Status == usecase.SyncStatusFailed {
		message = "sync failed"
	}
	writeMessage(ctx, w, http.StatusOK, message, result)
}

func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncStatus")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.syncService.Status())
}

func (h *Handler) CatalogSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CatalogSummary")
	defer span.End()

	summary, err := h.syncService.CatalogSummary(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, summary)
}

func (h *Handler) CheckProvider(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CheckProvider")
	defer span.End()

	check := h.syncService.CheckProvider(ctx)
	status := http.StatusOK
	if !check.Available {
		status = http.StatusServiceUnavailable
	}
	writeSuccess(ctx, w, status, check)
}

func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearAll")
	defer span.End()

	purged, err := h.syncService.ClearAll(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeMessage(ctx, w, http.StatusOK, "all catalog data cleared", purgeToDTO(purged))
}
