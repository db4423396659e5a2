package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/futboss/internal/platform/logging"
	"github.com/riskibarqy/futboss/internal/platform/validation"
	"github.com/riskibarqy/futboss/internal/usecase"
)

type Handler struct {
	authService    *usecase.AuthService
	catalogService *usecase.CatalogService
	rosterService  *usecase.RosterService
	syncService    *usecase.DataSyncService
	logger         *logging.Logger
	validator      *validator.Validate
	errs           errorRenderer
	startedAt      time.Time
}

// NewHandler wires the HTTP handlers. exposeInternalErrors sends the cause
// of 500 responses to clients and is meant for development only.
func NewHandler(
	authService *usecase.AuthService,
	catalogService *usecase.CatalogService,
	rosterService *usecase.RosterService,
	syncService *usecase.DataSyncService,
	logger *logging.Logger,
	exposeInternalErrors bool,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Component("httpapi")

	return &Handler{
		authService:    authService,
		catalogService: catalogService,
		rosterService:  rosterService,
		syncService:    syncService,
		logger:         logger,
		validator:      validation.Default(),
		errs:           errorRenderer{logger: logger, exposeInternal: exposeInternalErrors},
		startedAt:      time.Now(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"status":        "ok",
		"timestamp":     time.Now().UTC(),
		"uptimeSeconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(r.Context(), w, usecase.NewCodedError(usecase.ErrNotFound, usecase.CodeNotFound, "route not found").
		WithDetails(map[string]any{"method": r.Method, "path": r.URL.Path}))
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	h.errs.writeError(ctx, w, err)
}

// decodeJSON reads a single JSON object and rejects unknown fields.
func (h *Handler) decodeJSON(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return usecase.NewCodedError(usecase.ErrInvalidInput, usecase.CodeValidation, "request body too large").
				WithDetails(map[string]any{"limit": tooLarge.Limit})
		case errors.Is(err, io.EOF):
			return usecase.NewCodedError(usecase.ErrInvalidInput, usecase.CodeValidation, "request body is required")
		default:
			return usecase.NewCodedError(usecase.ErrInvalidInput, usecase.CodeValidation, "invalid JSON payload").WithCause(err)
		}
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return usecase.NewCodedError(usecase.ErrInvalidInput, usecase.CodeValidation, "invalid request data").
			WithDetails(map[string]any{"fields": validation.FieldErrors(err)})
	}
	return nil
}

// decodeAndValidate combines decodeJSON and validateRequest.
func (h *Handler) decodeAndValidate(r *http.Request, dst any) error {
	if err := h.decodeJSON(r, dst); err != nil {
		return err
	}
	return h.validateRequest(r.Context(), dst)
}

func invalidQuery(name, message string) error {
	return usecase.NewCodedError(usecase.ErrInvalidInput, usecase.CodeValidation, message).
		WithDetails(map[string]any{"field": name})
}

// queryInt returns 0 for an absent parameter.
func queryInt(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidQuery(name, name+" must be an integer")
	}
	return v, nil
}

func queryInt64Ptr(q url.Values, name string) (*int64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, invalidQuery(name, name+" must be an integer")
	}
	return &v, nil
}

func queryFloatPtr(q url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, invalidQuery(name, name+" must be a number")
	}
	return &v, nil
}
