package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/logging"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/resilience"
)

const (
	CacheBackendFile     = "file"
	CacheBackendMemory   = "memory"
	CacheBackendSQLite   = "sqlite"
	CacheBackendPostgres = "postgres"
	CacheBackendRedis    = "redis"
)

// Config stores runtime configuration for the pipeline binaries.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	LogLevel                   logging.Level
	LogFormat                  logging.Format
	CNPageURL                  string
	CNStatsURL                 string
	CNHeroMapURL               string
	CNScriptPathMarker         string
	CNRateLimitInterval        time.Duration
	CNHTTPTimeout              time.Duration
	CNMaxAttempts              int
	CNBackoff                  []time.Duration
	CNDiscoveryTTL             time.Duration
	CNCircuit                  resilience.CircuitBreakerConfig
	StatsCacheTTL              time.Duration
	HeroMapCacheTTL            time.Duration
	CacheBackend               string
	CacheDir                   string
	CacheDBURL                 string
	CacheAutoMigrate           bool
	CacheDBDisablePrepared     bool
	CacheReadTTL               time.Duration
	RedisAddr                  string
	RedisPassword              string
	RedisDB                    int
	RedisKeyPrefix             string
	RefreshWorkers             int
	RefreshStatsSchedule       string
	RefreshHeroMapSchedule     string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logFormatDefault := string(logging.FormatConsole)
	if appEnv == EnvProd {
		logFormatDefault = string(logging.FormatJSON)
	}
	logFormat, err := parseLogFormat(getEnv("LOG_FORMAT", logFormatDefault))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                 appEnv,
		ServiceName:            getEnv("APP_SERVICE_NAME", "wr-cn-meta-draft"),
		ServiceVersion:         getEnv("APP_SERVICE_VERSION", "dev"),
		LogLevel:               logging.ParseLevel(getEnv("LOG_LEVEL", "info")),
		LogFormat:              logFormat,
		CNPageURL:              strings.TrimSpace(getEnv("CN_PAGE_URL", "")),
		CNStatsURL:             strings.TrimSpace(getEnv("CN_STATS_URL", "")),
		CNHeroMapURL:           strings.TrimSpace(getEnv("CN_HERO_MAP_URL", "")),
		CNScriptPathMarker:     strings.TrimSpace(getEnv("CN_SCRIPT_PATH_MARKER", "")),
		CacheDir:               getEnv("CACHE_DIR", "./data"),
		CacheDBURL:             strings.TrimSpace(getEnv("CACHE_DB_URL", "")),
		RedisAddr:              strings.TrimSpace(getEnv("REDIS_ADDR", "localhost:6379")),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisKeyPrefix:         getEnv("REDIS_KEY_PREFIX", "wr-cn-meta:"),
		RefreshStatsSchedule:   strings.TrimSpace(getEnv("REFRESH_STATS_SCHEDULE", "@every 6h")),
		RefreshHeroMapSchedule: strings.TrimSpace(getEnv("REFRESH_HERO_MAP_SCHEDULE", "@weekly")),
		UptraceDSN:             strings.TrimSpace(getEnv("UPTRACE_DSN", "")),
		PyroscopeServerAddress: strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:     strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
	}
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))

	if cfg.CNRateLimitInterval, err = getEnvAsDuration("CN_RATE_LIMIT_INTERVAL", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CNRateLimitInterval < 0 {
		return Config{}, fmt.Errorf("CN_RATE_LIMIT_INTERVAL must be >= 0")
	}
	if cfg.CNHTTPTimeout, err = getEnvAsDuration("CN_HTTP_TIMEOUT", 20*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CNHTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("CN_HTTP_TIMEOUT must be > 0")
	}

	cfg.CNMaxAttempts, err = getEnvAsInt("CN_MAX_ATTEMPTS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse CN_MAX_ATTEMPTS: %w", err)
	}
	if cfg.CNMaxAttempts < 1 {
		return Config{}, fmt.Errorf("CN_MAX_ATTEMPTS must be >= 1")
	}

	cfg.CNBackoff, err = parseDurations(getEnv("CN_BACKOFF", "2s,4s,8s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CN_BACKOFF: %w", err)
	}
	if len(cfg.CNBackoff) == 0 {
		return Config{}, fmt.Errorf("CN_BACKOFF cannot be empty")
	}

	if cfg.CNDiscoveryTTL, err = getEnvAsDuration("CN_DISCOVERY_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}

	circuitEnabled, err := strconv.ParseBool(getEnv("CN_CIRCUIT_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CN_CIRCUIT_ENABLED: %w", err)
	}
	circuitFailureCount, err := getEnvAsInt("CN_CIRCUIT_FAILURE_COUNT", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse CN_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if circuitFailureCount < 1 {
		return Config{}, fmt.Errorf("CN_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	circuitOpenTimeout, err := getEnvAsDuration("CN_CIRCUIT_OPEN_TIMEOUT", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	if circuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("CN_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	circuitHalfOpenMaxReq, err := getEnvAsInt("CN_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse CN_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if circuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("CN_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	cfg.CNCircuit = resilience.CircuitBreakerConfig{
		Enabled:          circuitEnabled,
		FailureThreshold: circuitFailureCount,
		OpenTimeout:      circuitOpenTimeout,
		HalfOpenMaxReq:   circuitHalfOpenMaxReq,
	}

	if cfg.StatsCacheTTL, err = getEnvAsDuration("STATS_CACHE_TTL", 6*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.StatsCacheTTL <= 0 {
		return Config{}, fmt.Errorf("STATS_CACHE_TTL must be > 0")
	}
	if cfg.HeroMapCacheTTL, err = getEnvAsDuration("HERO_MAP_CACHE_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.HeroMapCacheTTL <= 0 {
		return Config{}, fmt.Errorf("HERO_MAP_CACHE_TTL must be > 0")
	}

	cfg.CacheBackend, err = parseCacheBackend(getEnv("CACHE_BACKEND", CacheBackendFile))
	if err != nil {
		return Config{}, err
	}
	if (cfg.CacheBackend == CacheBackendSQLite || cfg.CacheBackend == CacheBackendPostgres) && cfg.CacheDBURL == "" {
		return Config{}, fmt.Errorf("CACHE_DB_URL is required when CACHE_BACKEND=%s", cfg.CacheBackend)
	}
	if cfg.CacheAutoMigrate, err = strconv.ParseBool(getEnv("CACHE_AUTO_MIGRATE", "true")); err != nil {
		return Config{}, fmt.Errorf("parse CACHE_AUTO_MIGRATE: %w", err)
	}
	if cfg.CacheDBDisablePrepared, err = strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true")); err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	if cfg.CacheReadTTL, err = getEnvAsDuration("CACHE_READ_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return Config{}, fmt.Errorf("parse REDIS_DB: %w", err)
	}
	if cfg.CacheBackend == CacheBackendRedis && cfg.RedisAddr == "" {
		return Config{}, fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
	}

	cfg.RefreshWorkers, err = getEnvAsInt("REFRESH_WORKERS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_WORKERS: %w", err)
	}
	if cfg.RefreshWorkers < 1 {
		return Config{}, fmt.Errorf("REFRESH_WORKERS must be >= 1")
	}

	if cfg.UptraceEnabled, err = strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false")); err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false")); err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
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

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	return out, nil
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

func parseDurations(raw string) ([]time.Duration, error) {
	items := splitCSV(raw)
	out := make([]time.Duration, 0, len(items))
	for _, item := range items {
		d, err := time.ParseDuration(item)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", item, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("duration %q must be >= 0", item)
		}
		out = append(out, d)
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

func parseCacheBackend(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case CacheBackendFile, CacheBackendMemory, CacheBackendSQLite, CacheBackendPostgres, CacheBackendRedis:
		return value, nil
	default:
		return "", fmt.Errorf("invalid CACHE_BACKEND %q: valid values are file, memory, sqlite, postgres, redis", v)
	}
}

func parseLogFormat(v string) (logging.Format, error) {
	value := logging.Format(strings.ToLower(strings.TrimSpace(v)))
	switch value {
	case logging.FormatJSON, logging.FormatConsole:
		return value, nil
	default:
		return "", fmt.Errorf("invalid LOG_FORMAT %q: valid values are json, console", v)
	}
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
