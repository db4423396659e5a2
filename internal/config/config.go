package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/futboss/internal/platform/logging"
	"github.com/riskibarqy/futboss/internal/usecase"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

const (
	minJWTSecretLength = 32
	devJWTSecret       = "futboss-dev-secret-do-not-use-in-prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	LogLevel           logging.Level
	CORSAllowedOrigins []string
	TrustedProxies     []netip.Prefix

	DBURL                         string
	DBMaxOpenConns                int
	DBMaxIdleConns                int
	DBConnMaxLifetime             time.Duration
	DBDisablePreparedBinaryResult bool
	DBAutoMigrate                 bool
	MigrationsDir                 string
	SeedEnabled                   bool

	JWTSecret            string
	JWTIssuer            string
	JWTExpiresIn         time.Duration
	GuestTokenTTL        time.Duration
	TokenDenylistEnabled bool
	BcryptCost           int

	RateLimitBackend     string
	RateLimitWindow      time.Duration
	RateLimitMaxRequests int
	AuthRateLimitMax     int
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	RedisPoolSize        int

	CacheEnabled      bool
	CacheTTL          time.Duration
	CacheMaxEntries   int
	DefaultTeamBudget int64

	APISportsBaseURL               string
	APISportsAPIKey                string
	APISportsTimeout               time.Duration
	APISportsMaxRetries            int
	APISportsCircuitEnabled        bool
	APISportsCircuitFailureCount   int
	APISportsCircuitOpenTimeout    time.Duration
	APISportsCircuitHalfOpenMaxReq int

	SyncSeason       int
	SyncLeagues      []usecase.SyncLeague
	SyncMaxWorkers   int
	InternalJobToken string

	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	PprofEnabled               bool
	PprofAddr                  string
}

// IsProduction reports whether destructive maintenance endpoints must be refused.
func (c Config) IsProduction() bool {
	return c.AppEnv == EnvProd
}

// UseMemoryStore reports whether repositories run in-process instead of on Postgres.
func (c Config) UseMemoryStore() bool {
	return strings.TrimSpace(c.DBURL) == ""
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logLevel, err := logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}

	readTimeout, err := getEnvAsDuration("HTTP_READ_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsDuration("HTTP_WRITE_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}
	shutdownTimeout, err := getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}

	corsDefault := "*"
	if appEnv == EnvDev {
		corsDefault = "http://localhost:3000"
	}
	corsAllowedOrigins := splitCSV(getEnv("CORS_ALLOWED_ORIGINS", corsDefault))
	if len(corsAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	trustedProxies, err := parseTrustedProxies(getEnv("TRUSTED_PROXIES", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse TRUSTED_PROXIES: %w", err)
	}

	dbMaxOpenConns, err := getEnvAsInt("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_MAX_OPEN_CONNS: %w", err)
	}
	if dbMaxOpenConns < 1 {
		return Config{}, fmt.Errorf("DB_MAX_OPEN_CONNS must be >= 1")
	}
	dbMaxIdleConns, err := getEnvAsInt("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_MAX_IDLE_CONNS: %w", err)
	}
	if dbMaxIdleConns < 0 {
		return Config{}, fmt.Errorf("DB_MAX_IDLE_CONNS must be >= 0")
	}
	dbConnMaxLifetime, err := getEnvAsDuration("DB_CONN_MAX_LIFETIME", "30m")
	if err != nil {
		return Config{}, err
	}
	dbDisablePreparedBinaryResult, err := getEnvAsBool("DB_DISABLE_PREPARED_BINARY_RESULT", false)
	if err != nil {
		return Config{}, err
	}
	dbAutoMigrate, err := getEnvAsBool("DB_AUTO_MIGRATE", false)
	if err != nil {
		return Config{}, err
	}
	seedEnabled, err := getEnvAsBool("SEED_ENABLED", appEnv == EnvDev)
	if err != nil {
		return Config{}, err
	}

	jwtSecret := strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if jwtSecret == "" {
		if appEnv == EnvProd {
			return Config{}, fmt.Errorf("JWT_SECRET is required when APP_ENV=%s", EnvProd)
		}
		jwtSecret = devJWTSecret
	}
	if appEnv == EnvProd && len(jwtSecret) < minJWTSecretLength {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least %d characters when APP_ENV=%s", minJWTSecretLength, EnvProd)
	}
	jwtExpiresIn, err := getEnvAsDuration("JWT_EXPIRES_IN", "7d")
	if err != nil {
		return Config{}, err
	}
	guestTokenTTL, err := getEnvAsDuration("GUEST_TOKEN_TTL", "24h")
	if err != nil {
		return Config{}, err
	}
	tokenDenylistEnabled, err := getEnvAsBool("TOKEN_DENYLIST_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	bcryptCost, err := getEnvAsInt("BCRYPT_COST", 12)
	if err != nil {
		return Config{}, fmt.Errorf("parse BCRYPT_COST: %w", err)
	}
	if bcryptCost < 4 || bcryptCost > 31 {
		return Config{}, fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	rateLimitBackend := strings.ToLower(strings.TrimSpace(getEnv("RATE_LIMIT_BACKEND", RateLimitBackendMemory)))
	switch rateLimitBackend {
	case RateLimitBackendMemory, RateLimitBackendRedis:
	default:
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_BACKEND %q: valid values are %s, %s", rateLimitBackend, RateLimitBackendMemory, RateLimitBackendRedis)
	}
	rateLimitWindow, err := getEnvAsDuration("RATE_LIMIT_WINDOW", "15m")
	if err != nil {
		return Config{}, err
	}
	rateLimitMaxRequests, err := getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100)
	if err != nil {
		return Config{}, fmt.Errorf("parse RATE_LIMIT_MAX_REQUESTS: %w", err)
	}
	authRateLimitMax, err := getEnvAsInt("AUTH_RATE_LIMIT_MAX", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse AUTH_RATE_LIMIT_MAX: %w", err)
	}
	if rateLimitMaxRequests < 0 || authRateLimitMax < 0 {
		return Config{}, fmt.Errorf("rate limit ceilings must be >= 0")
	}

	redisAddr := strings.TrimSpace(getEnv("REDIS_ADDR", ""))
	if rateLimitBackend == RateLimitBackendRedis && redisAddr == "" {
		return Config{}, fmt.Errorf("REDIS_ADDR is required when RATE_LIMIT_BACKEND=%s", RateLimitBackendRedis)
	}
	redisDB, err := getEnvAsInt("REDIS_DB", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse REDIS_DB: %w", err)
	}
	redisPoolSize, err := getEnvAsInt("REDIS_POOL_SIZE", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse REDIS_POOL_SIZE: %w", err)
	}

	cacheEnabled, err := getEnvAsBool("CACHE_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := getEnvAsDuration("CACHE_TTL", "5m")
	if err != nil {
		return Config{}, err
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}
	cacheMaxEntries, err := getEnvAsInt("CACHE_MAX_ENTRIES", 10000)
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_MAX_ENTRIES: %w", err)
	}
	if cacheMaxEntries < 0 {
		return Config{}, fmt.Errorf("CACHE_MAX_ENTRIES must be >= 0")
	}
	defaultTeamBudget, err := strconv.ParseInt(strings.TrimSpace(getEnv("DEFAULT_TEAM_BUDGET", "100000000")), 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse DEFAULT_TEAM_BUDGET: %w", err)
	}
	if defaultTeamBudget <= 0 {
		return Config{}, fmt.Errorf("DEFAULT_TEAM_BUDGET must be > 0")
	}

	apiSportsTimeout, err := getEnvAsDuration("APISPORTS_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	if apiSportsTimeout <= 0 {
		return Config{}, fmt.Errorf("APISPORTS_TIMEOUT must be > 0")
	}
	apiSportsMaxRetries, err := getEnvAsInt("APISPORTS_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse APISPORTS_MAX_RETRIES: %w", err)
	}
	if apiSportsMaxRetries < 0 {
		return Config{}, fmt.Errorf("APISPORTS_MAX_RETRIES must be >= 0")
	}
	apiSportsCircuitEnabled, err := getEnvAsBool("APISPORTS_CIRCUIT_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	apiSportsCircuitFailureCount, err := getEnvAsInt("APISPORTS_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse APISPORTS_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if apiSportsCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("APISPORTS_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	apiSportsCircuitOpenTimeout, err := getEnvAsDuration("APISPORTS_CIRCUIT_OPEN_TIMEOUT", "30s")
	if err != nil {
		return Config{}, err
	}
	if apiSportsCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("APISPORTS_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	apiSportsCircuitHalfOpenMaxReq, err := getEnvAsInt("APISPORTS_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse APISPORTS_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if apiSportsCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("APISPORTS_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	syncSeason, err := getEnvAsInt("SYNC_SEASON", 2023)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_SEASON: %w", err)
	}
	syncLeagues, err := usecase.ParseSyncLeagues(getEnv("SYNC_LEAGUES", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_LEAGUES: %w", err)
	}
	syncMaxWorkers, err := getEnvAsInt("SYNC_MAX_WORKERS", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_MAX_WORKERS: %w", err)
	}
	if syncMaxWorkers < 1 {
		return Config{}, fmt.Errorf("SYNC_MAX_WORKERS must be >= 1")
	}

	uptraceEnabled, err := getEnvAsBool("UPTRACE_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := getEnvAsBool("PPROF_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))

	pyroscopeEnabled, err := getEnvAsBool("PYROSCOPE_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return Config{}, err
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_NAME", "futboss-api"),
		ServiceVersion:     getEnv("APP_VERSION", "dev"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		ShutdownTimeout:    shutdownTimeout,
		LogLevel:           logLevel,
		CORSAllowedOrigins: corsAllowedOrigins,
		TrustedProxies:     trustedProxies,

		DBURL:                         strings.TrimSpace(getEnv("DB_URL", "")),
		DBMaxOpenConns:                dbMaxOpenConns,
		DBMaxIdleConns:                dbMaxIdleConns,
		DBConnMaxLifetime:             dbConnMaxLifetime,
		DBDisablePreparedBinaryResult: dbDisablePreparedBinaryResult,
		DBAutoMigrate:                 dbAutoMigrate,
		MigrationsDir:                 strings.TrimSpace(getEnv("MIGRATIONS_DIR", "db/migrations")),
		SeedEnabled:                   seedEnabled,

		JWTSecret:            jwtSecret,
		JWTIssuer:            getEnv("JWT_ISSUER", "futboss"),
		JWTExpiresIn:         jwtExpiresIn,
		GuestTokenTTL:        guestTokenTTL,
		TokenDenylistEnabled: tokenDenylistEnabled,
		BcryptCost:           bcryptCost,

		RateLimitBackend:     rateLimitBackend,
		RateLimitWindow:      rateLimitWindow,
		RateLimitMaxRequests: rateLimitMaxRequests,
		AuthRateLimitMax:     authRateLimitMax,
		RedisAddr:            redisAddr,
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              redisDB,
		RedisPoolSize:        redisPoolSize,

		CacheEnabled:      cacheEnabled,
		CacheTTL:          cacheTTL,
		CacheMaxEntries:   cacheMaxEntries,
		DefaultTeamBudget: defaultTeamBudget,

		APISportsBaseURL:               strings.TrimSpace(getEnv("APISPORTS_BASE_URL", "https://v3.football.api-sports.io")),
		APISportsAPIKey:                strings.TrimSpace(getEnv("APISPORTS_API_KEY", "")),
		APISportsTimeout:               apiSportsTimeout,
		APISportsMaxRetries:            apiSportsMaxRetries,
		APISportsCircuitEnabled:        apiSportsCircuitEnabled,
		APISportsCircuitFailureCount:   apiSportsCircuitFailureCount,
		APISportsCircuitOpenTimeout:    apiSportsCircuitOpenTimeout,
		APISportsCircuitHalfOpenMaxReq: apiSportsCircuitHalfOpenMaxReq,

		SyncSeason:       syncSeason,
		SyncLeagues:      syncLeagues,
		SyncMaxWorkers:   syncMaxWorkers,
		InternalJobToken: strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),

		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := parseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

// parseDuration extends time.ParseDuration with a whole-day "d" suffix, so
// "7d" is 168h.
func parseDuration(raw string) (time.Duration, error) {
	value := strings.TrimSpace(raw)
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(value)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

// parseTrustedProxies accepts CIDRs or bare addresses, comma separated.
func parseTrustedProxies(raw string) ([]netip.Prefix, error) {
	items := splitCSV(raw)
	out := make([]netip.Prefix, 0, len(items))
	for _, item := range items {
		if !strings.Contains(item, "/") {
			addr, err := netip.ParseAddr(item)
			if err != nil {
				return nil, err
			}
			addr = addr.Unmap()
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(item)
		if err != nil {
			return nil, err
		}
		out = append(out, prefix.Masked())
	}
	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
