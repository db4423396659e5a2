package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/futboss/internal/platform/logging"
	"github.com/riskibarqy/futboss/internal/usecase"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestWriteSuccess_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "message")
	assert.NotContains(t, body, "error")
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", data["status"])
}

func TestWriteMessage_IncludesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	writeMessage(context.Background(), rec, http.StatusCreated, "user created", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "user created", body["message"])
}

func TestWriteError_CodedError(t *testing.T) {
	renderer := errorRenderer{logger: logging.NewNop()}
	rec := httptest.NewRecorder()
	err := usecase.NewCodedError(usecase.ErrConflict, usecase.CodeUserExists, "email already registered").
		WithDetails(map[string]any{"field": "email"})

	renderer.writeError(context.Background(), rec, err)

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.NotContains(t, body, "success")
	errorObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, usecase.CodeUserExists, errorObj["code"])
	assert.Equal(t, "email already registered", errorObj["message"])
	assert.Equal(t, map[string]any{"field": "email"}, errorObj["details"])
}

func TestWriteError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	errorRenderer{logger: logging.NewNop()}.writeError(context.Background(), rec, fmt.Errorf("dial tcp 10.0.0.1:5432: refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	errorObj := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, usecase.CodeInternal, errorObj["code"])
	assert.Equal(t, internalErrorMessage, errorObj["message"])
}

func TestWriteError_ExposesInternalCauseInDevelopment(t *testing.T) {
	rec := httptest.NewRecorder()
	errorRenderer{logger: logging.NewNop(), exposeInternal: true}.writeError(context.Background(), rec, fmt.Errorf("boom"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	errorObj := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, "boom", errorObj["message"])
}

func TestWriteError_RetryAfterHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	err := usecase.NewCodedError(usecase.ErrRateLimited, usecase.CodeRateLimitExceeded, "slow down").
		WithDetails(map[string]any{"retryAfter": int64(42)})

	errorRenderer{logger: logging.NewNop()}.writeError(context.Background(), rec, err)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "wrapped invalid input",
			err:        fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
			wantCode:   usecase.CodeValidation,
		},
		{
			name:       "budget exceeded",
			err:        usecase.NewCodedError(usecase.ErrBudgetExceeded, usecase.CodeInsufficientBudget, "insufficient budget"),
			wantStatus: http.StatusBadRequest,
			wantCode:   usecase.CodeInsufficientBudget,
		},
		{
			name:       "expired token",
			err:        usecase.NewCodedError(usecase.ErrUnauthorized, usecase.CodeExpiredToken, "token expired"),
			wantStatus: http.StatusUnauthorized,
			wantCode:   usecase.CodeExpiredToken,
		},
		{
			name:       "guest restricted",
			err:        usecase.NewCodedError(usecase.ErrForbidden, usecase.CodeGuestRestricted, "registered account required"),
			wantStatus: http.StatusForbidden,
			wantCode:   usecase.CodeGuestRestricted,
		},
		{
			name:       "plain not found",
			err:        fmt.Errorf("%w: club", usecase.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   usecase.CodeNotFound,
		},
		{
			name:       "dependency unavailable",
			err:        fmt.Errorf("%w: provider down", usecase.ErrDependencyUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   usecase.CodeUnavailable,
		},
		{
			name:       "unclassified",
			err:        fmt.Errorf("unexpected"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   usecase.CodeInternal,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mapped := mapError(tc.err)
			assert.Equal(t, tc.wantStatus, mapped.HTTPStatus)
			assert.Equal(t, tc.wantCode, mapped.Code)
		})
	}
}
