package httpapi

import (
	"context"
	"crypto/subtle"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/futboss/internal/domain/user"
	"github.com/riskibarqy/futboss/internal/platform/logging"
	"github.com/riskibarqy/futboss/internal/platform/ttlstore"
	"github.com/riskibarqy/futboss/internal/usecase"
)

const (
	internalJobTokenHeader = "X-Internal-Job-Token"
	requestIDHeader        = "X-Request-ID"
	maxRequestIDLength     = 128
)

// Authenticator resolves bearer tokens into sessions. Failures are
// usecase.CodedError values of kind ErrUnauthorized.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (user.Session, error)
}

// RateLimitRule is a fixed-window ceiling. A zero Limit or Window disables it.
type RateLimitRule struct {
	Name    string
	Limit   int
	Window  time.Duration
	Message string
}

type middleware struct {
	auth     Authenticator
	limits   ttlstore.Counter
	clientIP clientIPResolver
	errs     errorRenderer
	logger   *logging.Logger
}

func (m middleware) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.RequireAuth")
		defer span.End()

		token, ok := bearerToken(r)
		if !ok {
			m.errs.writeError(ctx, w, usecase.NewCodedError(usecase.ErrUnauthorized, usecase.CodeMissingToken, "access token required"))
			return
		}

		session, err := m.auth.Authenticate(ctx, token)
		if err != nil {
			m.errs.writeError(ctx, w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(ctx, session)))
	})
}

// optionalAuth attaches a session when the token is valid and otherwise
// continues anonymously.
func (m middleware) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		session, err := m.auth.Authenticate(ctx, token)
		if err != nil {
			m.logger.DebugContext(ctx, "optional auth ignored token", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(ctx, session)))
	})
}

// requireInternalJobToken guards internal routes with a shared secret. An
// empty token leaves the routes open.
func (m middleware) requireInternalJobToken(token string, next http.Handler) http.Handler {
	expectedToken := strings.TrimSpace(token)
	if expectedToken == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		providedToken := strings.TrimSpace(r.Header.Get(internalJobTokenHeader))
		if providedToken == "" || subtle.ConstantTimeCompare([]byte(providedToken), []byte(expectedToken)) != 1 {
			m.errs.writeError(ctx, w, usecase.NewCodedError(usecase.ErrUnauthorized, usecase.CodeInvalidToken, "invalid internal job token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m middleware) rateLimit(rule RateLimitRule, key func(*http.Request) string, next http.Handler) http.Handler {
	if m.limits == nil || rule.Limit <= 0 || rule.Window <= 0 {
		return next
	}
	limit := strconv.Itoa(rule.Limit)
	message := rule.Message
	if message == "" {
		message = "too many requests, please try again later"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		hit, err := m.limits.Increment(ctx, "ratelimit:"+rule.Name+":"+key(r), rule.Window)
		if err != nil {
			m.logger.WarnContext(ctx, "rate limit store failed", "rule", rule.Name, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		remaining := max(int64(rule.Limit)-hit.Count, 0)
		w.Header().Set("X-RateLimit-Limit", limit)
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if hit.Count > int64(rule.Limit) {
			retryAfter := max(int64(math.Ceil(hit.ResetIn.Seconds())), 1)
			m.errs.writeError(ctx, w, usecase.NewCodedError(usecase.ErrRateLimited, usecase.CodeRateLimitExceeded, message).
				WithDetails(map[string]any{"retryAfter": retryAfter}))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m middleware) limitBody(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func (m middleware) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				m.logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeJSON(ctx, w, http.StatusInternalServerError, errorEnvelope{Error: errorBody{
					Message: internalErrorMessage,
					Code:    usecase.CodeInternal,
				}})
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func RequestLogging(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		logger.InfoContext(ctx, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}

// RequestID echoes a caller supplied X-Request-ID or mints one, and binds it
// to the request's log context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWith(r.Context(), "request_id", id)))
	})
}

func RequestTracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "futboss-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return shouldTraceRequest(r.URL.Path)
		}),
	)
}

func shouldTraceRequest(path string) bool {
	normalized := strings.ToLower(strings.TrimSpace(path))
	switch normalized {
	case "/healthz", "/health", "/livez", "/readyz":
		return false
	default:
		return true
	}
}

func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowAll := false
	allowMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		candidate := strings.TrimSpace(origin)
		if candidate == "" {
			continue
		}
		if candidate == "*" {
			allowAll = true
			continue
		}
		allowMap[candidate] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		allowed := allowAll
		if !allowed {
			_, allowed = allowMap[origin]
		}
		if allowed {
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,Accept,"+requestIDHeader+","+internalJobTokenHeader)
			w.Header().Set("Access-Control-Expose-Headers", "X-RateLimit-Limit,X-RateLimit-Remaining,Retry-After,"+requestIDHeader)
			w.Header().Set("Access-Control-Max-Age", "600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
