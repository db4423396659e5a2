package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/futboss/external/apisports"
	"github.com/riskibarqy/futboss/internal/config"
	"github.com/riskibarqy/futboss/internal/domain/club"
	"github.com/riskibarqy/futboss/internal/domain/fantasy"
	"github.com/riskibarqy/futboss/internal/domain/player"
	"github.com/riskibarqy/futboss/internal/infrastructure/account/jwt"
	"github.com/riskibarqy/futboss/internal/infrastructure/account/password"
	"github.com/riskibarqy/futboss/internal/infrastructure/ratelimit/redis"
	"github.com/riskibarqy/futboss/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/futboss/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/futboss/internal/platform/cache"
	idgen "github.com/riskibarqy/futboss/internal/platform/id"
	"github.com/riskibarqy/futboss/internal/platform/logging"
	"github.com/riskibarqy/futboss/internal/platform/resilience"
	"github.com/riskibarqy/futboss/internal/platform/ttlstore"
	"github.com/riskibarqy/futboss/internal/usecase"
)

// App owns the services and the resources they hold open.
type App struct {
	cfg    config.Config
	logger *logging.Logger

	Auth    *usecase.AuthService
	Catalog *usecase.CatalogService
	Roster  *usecase.RosterService
	Sync    *usecase.DataSyncService

	ttl     ttlstore.Store
	closers []func() error
}

// New opens storage, the TTL store and the football provider, then builds the
// services on top of them.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	a := &App{cfg: cfg, logger: logger.Component("app")}

	store, err := openStorage(ctx, cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.close)

	ttl, closeTTL, err := openTTLStore(ctx, cfg, a.logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.ttl = ttl
	a.closers = append(a.closers, closeTTL)

	tokens, err := jwt.NewManager(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("build jwt manager: %w", err)
	}

	var denylist ttlstore.Marker
	if cfg.TokenDenylistEnabled {
		denylist = ttl
	}

	clubs, players := store.clubs, store.players
	var catalogCache usecase.CatalogCache
	if cfg.CacheEnabled {
		readCache := basecache.NewStore(cfg.CacheTTL, basecache.WithMaxEntries(cfg.CacheMaxEntries))
		clubs = cache.NewClubRepository(store.clubs, readCache)
		players = cache.NewPlayerRepository(store.players, readCache)
		catalogCache = cache.NewCatalog(readCache)
	}

	a.Auth = usecase.NewAuthService(
		store.users,
		password.NewBcryptHasher(cfg.BcryptCost),
		tokens,
		denylist,
		idgen.NewUUIDGenerator(),
		usecase.AuthConfig{RegisteredTTL: cfg.JWTExpiresIn, GuestTTL: cfg.GuestTokenTTL},
		logger,
	)
	a.Catalog = usecase.NewCatalogService(players, clubs, logger)
	a.Roster = usecase.NewRosterService(
		store.teams,
		players,
		idgen.NewUUIDGenerator(),
		fantasy.Rules{Budget: cfg.DefaultTeamBudget},
		logger,
	)
	a.Sync = a.newDataSyncService(store, clubs, players, catalogCache, logger)

	return a, nil
}

func (a *App) newDataSyncService(
	store storage,
	clubs club.Repository,
	players player.Repository,
	catalogCache usecase.CatalogCache,
	logger *logging.Logger,
) *usecase.DataSyncService {
	var provider usecase.FootballDataProvider
	if a.cfg.APISportsAPIKey != "" {
		provider = apisports.NewClient(apisports.ClientConfig{
			BaseURL:    a.cfg.APISportsBaseURL,
			APIKey:     a.cfg.APISportsAPIKey,
			Timeout:    a.cfg.APISportsTimeout,
			MaxRetries: a.cfg.APISportsMaxRetries,
			Backoff:    resilience.DefaultBackoffConfig(),
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          a.cfg.APISportsCircuitEnabled,
				FailureThreshold: a.cfg.APISportsCircuitFailureCount,
				OpenTimeout:      a.cfg.APISportsCircuitOpenTimeout,
				HalfOpenMaxReq:   a.cfg.APISportsCircuitHalfOpenMaxReq,
			},
		})
	} else {
		a.logger.Warn("APISPORTS_API_KEY is empty, data sync is unavailable")
	}

	return usecase.NewDataSyncService(
		provider,
		clubs,
		store.clubSync,
		players,
		store.playerSync,
		store.purger,
		catalogCache,
		usecase.DataSyncConfig{
			Season:     a.cfg.SyncSeason,
			Leagues:    a.cfg.SyncLeagues,
			MaxWorkers: a.cfg.SyncMaxWorkers,
			Production: a.cfg.IsProduction(),
		},
		logger,
	)
}

// NewHTTPServer mounts the REST API on an http.Server configured from cfg.
func (a *App) NewHTTPServer() (*http.Server, error) {
	if a.cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	handler := httpapi.NewHandler(a.Auth, a.Catalog, a.Roster, a.Sync, a.logger, a.cfg.AppEnv == config.EnvDev)
	router := httpapi.NewRouter(handler, a.Auth, a.logger, httpapi.RouterConfig{
		CORSAllowedOrigins: a.cfg.CORSAllowedOrigins,
		InternalJobToken:   a.cfg.InternalJobToken,
		RateLimitStore:     a.ttl,
		RateLimitWindow:    a.cfg.RateLimitWindow,
		RateLimitMax:       a.cfg.RateLimitMaxRequests,
		AuthRateLimitMax:   a.cfg.AuthRateLimitMax,
		TrustedProxies:     a.cfg.TrustedProxies,
	})

	return &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
	}, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openTTLStore(ctx context.Context, cfg config.Config, logger *logging.Logger) (ttlstore.Store, func() error, error) {
	if cfg.RateLimitBackend != config.RateLimitBackendRedis {
		return ttlstore.NewMemory(), func() error { return nil }, nil
	}

	client, err := redis.Dial(ctx, redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("redis connected", "addr", cfg.RedisAddr, "db", cfg.RedisDB)

	return redis.NewStore(client, cfg.ServiceName+":"), client.Close, nil
}
