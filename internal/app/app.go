package app

import (
	"context"
	"net/http"
	"time"

	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bowjoww/wr-cn-meta-draft/external/cnmeta"
	"github.com/bowjoww/wr-cn-meta-draft/internal/config"
	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
	"github.com/bowjoww/wr-cn-meta-draft/internal/infrastructure/repository"
	repocache "github.com/bowjoww/wr-cn-meta-draft/internal/infrastructure/repository/cache"
	"github.com/bowjoww/wr-cn-meta-draft/internal/infrastructure/repository/file"
	"github.com/bowjoww/wr-cn-meta-draft/internal/infrastructure/repository/memory"
	"github.com/bowjoww/wr-cn-meta-draft/internal/infrastructure/repository/redisstore"
	"github.com/bowjoww/wr-cn-meta-draft/internal/infrastructure/repository/sqlstore"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/logging"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/resilience"
	"github.com/bowjoww/wr-cn-meta-draft/internal/usecase"
)

// App is the wired pipeline shared by the binaries.
type App struct {
	Meta    *usecase.MetaService
	Refresh *usecase.RefreshService

	closers []func() error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repo, closeRepo, err := newRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider := newProvider(cfg, logger)

	stats := usecase.NewStatsPayloadCache(usecase.StatsPayloadCacheConfig{
		Repository: repo,
		Provider:   provider,
		TTL:        cfg.StatsCacheTTL,
		Logger:     logger.Named("stats_cache"),
	})
	heroes := usecase.NewHeroMapStore(usecase.HeroMapStoreConfig{
		Repository: repo,
		Provider:   provider,
		TTL:        cfg.HeroMapCacheTTL,
		Logger:     logger.Named("hero_map"),
	})

	logger.Info("pipeline ready",
		"cache_backend", cfg.CacheBackend,
		"rate_limit_interval", cfg.CNRateLimitInterval.String(),
		"circuit_enabled", cfg.CNCircuit.Enabled,
	)

	return &App{
		Meta: usecase.NewMetaService(usecase.MetaServiceConfig{
			Stats:    stats,
			HeroMap:  heroes,
			Provider: provider,
			Logger:   logger.Named("meta"),
		}),
		Refresh: usecase.NewRefreshService(stats, heroes, cfg.RefreshWorkers, logger.Named("refresh")),
		closers: []func() error{closeRepo},
	}, nil
}

func (a *App) Close() error {
	var errs error
	for _, closeFn := range a.closers {
		if closeFn == nil {
			continue
		}
		if err := closeFn(); err != nil {
			errs = crerr.CombineErrors(errs, err)
		}
	}
	return errs
}

func newProvider(cfg config.Config, logger *logging.Logger) *cnmeta.Client {
	breaker := resilience.NewCircuitBreakerFromConfig(cfg.CNCircuit)
	if breaker != nil {
		breakerLogger := logger.Named("circuit")
		breaker.OnStateChange(func(from, to resilience.CircuitState) {
			breakerLogger.Warn("cn circuit state changed", "from", string(from), "to", string(to))
		})
	}

	pageURL := cfg.CNPageURL
	if pageURL == "" {
		pageURL = cnmeta.DefaultPageURL
	}

	fetcher := cnmeta.NewFetcher(cnmeta.FetcherConfig{
		HTTPClient: &http.Client{
			Timeout:   cfg.CNHTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Throttle:       resilience.NewThrottle(resilience.ThrottleConfig{Interval: cfg.CNRateLimitInterval}),
		Timeout:        cfg.CNHTTPTimeout,
		MaxAttempts:    cfg.CNMaxAttempts,
		Backoff:        cfg.CNBackoff,
		Referer:        pageURL,
		Logger:         logger.Named("fetcher"),
		CircuitBreaker: breaker,
	})

	return cnmeta.NewClient(cnmeta.ClientConfig{
		Getter: fetcher,
		Discoverer: cnmeta.NewDiscoverer(cnmeta.DiscovererConfig{
			Getter:           fetcher,
			PageURL:          pageURL,
			ScriptPathMarker: cfg.CNScriptPathMarker,
			StatsURL:         cfg.CNStatsURL,
			HeroMapURL:       cfg.CNHeroMapURL,
			Logger:           logger.Named("discovery"),
		}),
		DiscoveryTTL: cfg.CNDiscoveryTTL,
		Logger:       logger.Named("cnmeta"),
	})
}

func newRepository(ctx context.Context, cfg config.Config) (meta.CacheRepository, func() error, error) {
	switch cfg.CacheBackend {
	case config.CacheBackendMemory:
		return repository.NewDocuments(memory.NewStore()), nil, nil
	case config.CacheBackendSQLite, config.CacheBackendPostgres:
		dialect, _, err := sqlstore.ParseURL(cfg.CacheDBURL)
		if err != nil {
			return nil, nil, err
		}
		if string(dialect) != cfg.CacheBackend {
			return nil, nil, crerr.Newf("CACHE_DB_URL is a %s url but CACHE_BACKEND=%s", dialect, cfg.CacheBackend)
		}
		store, err := sqlstore.Open(ctx, sqlstore.Config{
			URL:                         cfg.CacheDBURL,
			AutoMigrate:                 cfg.CacheAutoMigrate,
			DisablePreparedBinaryResult: cfg.CacheDBDisablePrepared,
		})
		if err != nil {
			return nil, nil, err
		}
		return withReadCache(repository.NewDocuments(store), cfg), store.Close, nil
	case config.CacheBackendRedis:
		client := redisstore.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, crerr.Wrapf(err, "ping redis %s", cfg.RedisAddr)
		}
		store := redisstore.NewStore(redisstore.Config{
			Client:    client,
			KeyPrefix: cfg.RedisKeyPrefix,
			TTLs: map[string]time.Duration{
				meta.StatsDocument:   cfg.StatsCacheTTL,
				meta.HeroMapDocument: cfg.HeroMapCacheTTL,
			},
		})
		return withReadCache(repository.NewDocuments(store), cfg), client.Close, nil
	default:
		return repository.NewDocuments(file.NewStore(cfg.CacheDir)), nil, nil
	}
}

func withReadCache(repo meta.CacheRepository, cfg config.Config) meta.CacheRepository {
	if cfg.CacheReadTTL <= 0 {
		return repo
	}
	return repocache.NewCacheRepository(repo, cfg.CacheReadTTL)
}
