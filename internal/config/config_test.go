package config

import (
	"testing"
	"time"

	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/logging"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.CNRateLimitInterval != 10*time.Second {
		t.Fatalf("unexpected rate limit interval: %s", cfg.CNRateLimitInterval)
	}
	if cfg.CNHTTPTimeout != 20*time.Second || cfg.CNMaxAttempts != 3 {
		t.Fatalf("unexpected fetch settings: timeout=%s attempts=%d", cfg.CNHTTPTimeout, cfg.CNMaxAttempts)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(cfg.CNBackoff) != len(want) {
		t.Fatalf("unexpected backoff: %v", cfg.CNBackoff)
	}
	for i := range want {
		if cfg.CNBackoff[i] != want[i] {
			t.Fatalf("unexpected backoff: %v", cfg.CNBackoff)
		}
	}
	if cfg.StatsCacheTTL != 6*time.Hour || cfg.HeroMapCacheTTL != 7*24*time.Hour {
		t.Fatalf("unexpected cache ttls: stats=%s heroes=%s", cfg.StatsCacheTTL, cfg.HeroMapCacheTTL)
	}
	if cfg.CacheBackend != CacheBackendFile || cfg.CacheDir != "./data" {
		t.Fatalf("unexpected cache backend: %s %s", cfg.CacheBackend, cfg.CacheDir)
	}
	if cfg.CNCircuit.Enabled {
		t.Fatalf("expected circuit breaker disabled by default")
	}
	if cfg.LogFormat != logging.FormatConsole {
		t.Fatalf("unexpected log format for dev: %s", cfg.LogFormat)
	}
}

func TestLoad_DefaultsByEnv(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogFormat != logging.FormatJSON {
		t.Fatalf("expected json logs in prod, got %s", cfg.LogFormat)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "foo=bar, uptrace-dsn='https://token@api.uptrace.dev?grpc=4317'")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("APP_SERVICE_NAME", "meta-refresher")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://pyroscope:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "meta-refresher" {
		t.Fatalf("unexpected PyroscopeAppName: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CacheBackendValidation(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		dbURL   string
		wantErr bool
	}{
		{name: "unknown backend", backend: "mongo", wantErr: true},
		{name: "sqlite needs url", backend: "sqlite", wantErr: true},
		{name: "postgres with url", backend: "Postgres", dbURL: "postgres://localhost/meta"},
		{name: "memory", backend: "memory"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv("CACHE_BACKEND", tc.backend)
			t.Setenv("CACHE_DB_URL", tc.dbURL)

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for backend %q", tc.backend)
				}
				return
			}
			if err != nil {
				t.Fatalf("load config: %v", err)
			}
			if cfg.CacheBackend == "" {
				t.Fatalf("expected backend to be set")
			}
		})
	}
}

func TestLoad_FetchSettingsParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("CN_RATE_LIMIT_INTERVAL", "0s")
	t.Setenv("CN_BACKOFF", "1s, 3s")
	t.Setenv("CN_CIRCUIT_ENABLED", "true")
	t.Setenv("CN_CIRCUIT_FAILURE_COUNT", "5")
	t.Setenv("CN_CIRCUIT_OPEN_TIMEOUT", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.CNRateLimitInterval != 0 {
		t.Fatalf("expected throttle disabled, got %s", cfg.CNRateLimitInterval)
	}
	if len(cfg.CNBackoff) != 2 || cfg.CNBackoff[1] != 3*time.Second {
		t.Fatalf("unexpected backoff: %v", cfg.CNBackoff)
	}
	if !cfg.CNCircuit.Enabled || cfg.CNCircuit.FailureThreshold != 5 || cfg.CNCircuit.OpenTimeout != 90*time.Second {
		t.Fatalf("unexpected circuit config: %+v", cfg.CNCircuit)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"CN_MAX_ATTEMPTS":    "0",
		"CN_BACKOFF":         "soon",
		"STATS_CACHE_TTL":    "-1h",
		"REFRESH_WORKERS":    "0",
		"LOG_FORMAT":         "xml",
		"CACHE_AUTO_MIGRATE": "maybe",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}
