package httpapi

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/riskibarqy/futboss/internal/platform/logging"
	"github.com/riskibarqy/futboss/internal/platform/ttlstore"
)

const defaultMaxBodyBytes = 1 << 20

type RouterConfig struct {
	CORSAllowedOrigins []string
	// InternalJobToken guards /api/data-sync when set.
	InternalJobToken string
	RateLimitStore   ttlstore.Counter
	RateLimitWindow  time.Duration
	RateLimitMax     int
	AuthRateLimitMax int
	// TrustedProxies may set forwarding headers that rate limits key on.
	TrustedProxies []netip.Prefix
	MaxBodyBytes   int64
}

func NewRouter(handler *Handler, auth Authenticator, logger *logging.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.InternalJobToken == "" {
		logger.Warn("internal job token is empty, data-sync routes are unauthenticated")
	}

	mw := middleware{
		auth:     auth,
		limits:   cfg.RateLimitStore,
		clientIP: newClientIPResolver(cfg.TrustedProxies),
		errs:     handler.errs,
		logger:   logger.Component("httpapi"),
	}
	authLimit := RateLimitRule{
		Name:    "auth",
		Limit:   cfg.AuthRateLimitMax,
		Window:  cfg.RateLimitWindow,
		Message: "too many authentication attempts, please try again later",
	}
	generalLimit := RateLimitRule{
		Name:   "api",
		Limit:  cfg.RateLimitMax,
		Window: cfg.RateLimitWindow,
	}

	api := http.NewServeMux()
	registerAuthRoutes(api, handler, mw, authLimit)
	registerPlayerRoutes(api, handler, mw)
	registerClubRoutes(api, handler, mw)
	registerFantasyTeamRoutes(api, handler, mw)
	registerDataSyncRoutes(api, handler, mw, cfg.InternalJobToken)
	api.HandleFunc("/api/", handler.NotFound)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.Handle("/api/", mw.rateLimit(generalLimit, mw.clientIP.rateLimitKey, api))
	mux.HandleFunc("/", handler.NotFound)

	return RequestTracing(RequestID(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, mw.recoverPanic(mw.limitBody(cfg.MaxBodyBytes, mux))))))
}
