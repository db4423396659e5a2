package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/riskibarqy/futboss/internal/domain/user"
	"github.com/riskibarqy/futboss/internal/platform/logging"
	"github.com/riskibarqy/futboss/internal/platform/ttlstore"
	"github.com/riskibarqy/futboss/internal/usecase"
)

type failingCounter struct{}

func (failingCounter) Increment(context.Context, string, time.Duration) (ttlstore.Hit, error) {
	return ttlstore.Hit{}, errors.New("redis: connection refused")
}

type stubAuthenticator struct {
	sessions map[string]user.Session
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (user.Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return nil, usecase.NewCodedError(usecase.ErrUnauthorized, usecase.CodeInvalidToken, "invalid token")
	}
	return session, nil
}

func newTestMiddleware(limits ttlstore.Counter, auth Authenticator) middleware {
	logger := logging.NewNop()
	return middleware{
		auth:   auth,
		limits: limits,
		errs:   errorRenderer{logger: logger},
		logger: logger,
	}
}

func TestRateLimit_RejectsAfterLimit(t *testing.T) {
	mw := newTestMiddleware(ttlstore.NewMemory(), nil)
	rule := RateLimitRule{Name: "auth", Limit: 2, Window: time.Minute, Message: "too many authentication attempts"}
	handler := mw.rateLimit(rule, newClientIPResolver(nil).rateLimitKey, okHandler())

	for i := range 2 {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(1-i), rec.Header().Get("X-RateLimit-Remaining"))
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "203.0.113.7:5001"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retryAfter, 1)
	assert.LessOrEqual(t, retryAfter, 60)

	errorObj := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, usecase.CodeRateLimitExceeded, errorObj["code"])
	assert.Equal(t, "too many authentication attempts", errorObj["message"])

	other := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	other.RemoteAddr = "198.51.100.2:5000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_FailsOpenWhenStoreErrors(t *testing.T) {
	mw := newTestMiddleware(failingCounter{}, nil)
	handler := mw.rateLimit(RateLimitRule{Name: "api", Limit: 1, Window: time.Minute}, newClientIPResolver(nil).rateLimitKey, okHandler())

	for range 3 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/players", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimit_DisabledRule(t *testing.T) {
	mw := newTestMiddleware(ttlstore.NewMemory(), nil)
	handler := mw.rateLimit(RateLimitRule{Name: "api"}, newClientIPResolver(nil).rateLimitKey, okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/players", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestRequireAuth(t *testing.T) {
	guest := user.NewGuestSession("guest-token-id", time.Now().Add(time.Hour))
	mw := newTestMiddleware(nil, stubAuthenticator{sessions: map[string]user.Session{"valid": guest}})

	var seen user.Session
	handler := mw.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = sessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, usecase.CodeMissingToken, decodeBody(t, rec)["error"].(map[string]any)["code"])
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, usecase.CodeInvalidToken, decodeBody(t, rec)["error"].(map[string]any)["code"])
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "bearer valid")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, guest, seen)
	})
}

func TestOptionalAuth_IgnoresInvalidToken(t *testing.T) {
	mw := newTestMiddleware(nil, stubAuthenticator{})
	called := false
	handler := mw.optionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Nil(t, sessionFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/players", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireInternalJobToken(t *testing.T) {
	mw := newTestMiddleware(nil, nil)
	handler := mw.requireInternalJobToken("s3cret", okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/data-sync/sync/full", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/data-sync/sync/full", nil)
	req.Header.Set(internalJobTokenHeader, "wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/data-sync/sync/full", nil)
	req.Header.Set(internalJobTokenHeader, "s3cret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoverPanic(t *testing.T) {
	mw := newTestMiddleware(nil, nil)
	handler := mw.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map write")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/players", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	errorObj := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, usecase.CodeInternal, errorObj["code"])
	assert.Equal(t, internalErrorMessage, errorObj["message"])
}

func TestClientIPResolver_Resolve(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	tests := []struct {
		name    string
		trusted []netip.Prefix
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "untrusted peer ignores headers", headers: map[string]string{"X-Forwarded-For": "198.51.100.4", "Fly-Client-IP": "203.0.113.1"}, remote: "192.0.2.1:80", want: "192.0.2.1"},
		{name: "no proxies configured", trusted: nil, headers: map[string]string{"X-Real-IP": "198.51.100.9"}, remote: "10.0.0.1:80", want: "10.0.0.1"},
		{name: "fly header via proxy", trusted: trusted, headers: map[string]string{"Fly-Client-IP": "203.0.113.1"}, remote: "10.0.0.1:80", want: "203.0.113.1"},
		{name: "right-most untrusted hop", trusted: trusted, headers: map[string]string{"X-Forwarded-For": "6.6.6.6, 198.51.100.4, 10.0.0.2"}, remote: "10.0.0.1:80", want: "198.51.100.4"},
		{name: "all hops trusted", trusted: trusted, headers: map[string]string{"X-Forwarded-For": "10.0.0.3"}, remote: "10.0.0.1:80", want: "10.0.0.1"},
		{name: "bad hop stops the walk", trusted: trusted, headers: map[string]string{"X-Forwarded-For": "198.51.100.4, proxy"}, remote: "10.0.0.1:80", want: "10.0.0.1"},
		{name: "real ip via proxy", trusted: trusted, headers: map[string]string{"X-Real-IP": "198.51.100.9"}, remote: "10.0.0.1:80", want: "198.51.100.9"},
		{name: "remote addr", remote: "192.0.2.10:443", want: "192.0.2.10"},
		{name: "ipv4 mapped", remote: "[::ffff:192.0.2.11]:443", want: "192.0.2.11"},
		{name: "garbage", remote: "not-an-ip", want: "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, newClientIPResolver(tc.trusted).resolve(req))
		})
	}
}

func TestRateLimit_SpoofedForwardedForSharesBucket(t *testing.T) {
	mw := newTestMiddleware(ttlstore.NewMemory(), nil)
	rule := RateLimitRule{Name: "auth", Limit: 1, Window: time.Minute}
	handler := mw.rateLimit(rule, mw.clientIP.pathRateLimitKey, okHandler())

	codes := make([]int, 0, 3)
	for _, forwarded := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "192.0.2.1:5000"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := logging.FromZap(zap.New(core))
	handler := RequestID(RequestLogging(logger, okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/api/players", nil)
	req.Header.Set(requestIDHeader, "edge-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "edge-42", rec.Header().Get(requestIDHeader))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "edge-42", logs.All()[0].ContextMap()["request_id"])

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/players", nil))
	minted := rec.Header().Get(requestIDHeader)
	assert.Len(t, minted, 36)
	assert.Equal(t, minted, logs.All()[1].ContextMap()["request_id"])
}
