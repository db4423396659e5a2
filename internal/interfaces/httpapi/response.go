package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/futboss/internal/platform/logging"
	"github.com/riskibarqy/futboss/internal/usecase"
)

const internalErrorMessage = "internal server error"

type successEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

type mappedError struct {
	HTTPStatus int
	Code       string
	Message    string
	Details    map[string]any
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	_, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(ctx, w, status, successEnvelope{Success: true, Data: data})
}

func writeMessage(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	writeJSON(ctx, w, status, successEnvelope{Success: true, Message: message, Data: data})
}

// errorRenderer writes failure envelopes. Server-side failures are logged;
// their cause is only sent to the client when exposeInternal is set.
type errorRenderer struct {
	logger         *logging.Logger
	exposeInternal bool
}

func (e errorRenderer) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(err)
	if mapped.HTTPStatus >= http.StatusInternalServerError {
		e.logger.ErrorContext(ctx, "request failed", "status", mapped.HTTPStatus, "error", err)
		if e.exposeInternal && mapped.HTTPStatus == http.StatusInternalServerError {
			mapped.Message = err.Error()
		}
	}
	if mapped.HTTPStatus == http.StatusTooManyRequests {
		if seconds, ok := retryAfterSeconds(mapped.Details); ok {
			w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
		}
	}

	writeJSON(ctx, w, mapped.HTTPStatus, errorEnvelope{Error: errorBody{
		Message: mapped.Message,
		Code:    mapped.Code,
		Details: mapped.Details,
	}})
}

// mapError turns usecase errors into a status and client code. Coded errors
// keep their own code and details; anything unclassified is a 500 whose
// message is withheld.
func mapError(err error) mappedError {
	status, code := classify(err)

	var coded *usecase.CodedError
	if errors.As(err, &coded) && status != http.StatusInternalServerError {
		return mappedError{
			HTTPStatus: status,
			Code:       coded.Code,
			Message:    coded.Message,
			Details:    coded.Details,
		}
	}
	if status == http.StatusInternalServerError {
		return mappedError{HTTPStatus: status, Code: code, Message: internalErrorMessage}
	}
	return mappedError{HTTPStatus: status, Code: code, Message: err.Error()}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest, usecase.CodeValidation
	case errors.Is(err, usecase.ErrBudgetExceeded):
		return http.StatusBadRequest, usecase.CodeBudgetExceeded
	case errors.Is(err, usecase.ErrUnauthorized):
		return http.StatusUnauthorized, usecase.CodeAuthRequired
	case errors.Is(err, usecase.ErrForbidden):
		return http.StatusForbidden, usecase.CodeForbidden
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound, usecase.CodeNotFound
	case errors.Is(err, usecase.ErrConflict):
		return http.StatusConflict, usecase.CodeConflict
	case errors.Is(err, usecase.ErrRateLimited):
		return http.StatusTooManyRequests, usecase.CodeRateLimitExceeded
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return http.StatusServiceUnavailable, usecase.CodeUnavailable
	default:
		return http.StatusInternalServerError, usecase.CodeInternal
	}
}

func retryAfterSeconds(details map[string]any) (int64, bool) {
	switch v := details["retryAfter"].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}
