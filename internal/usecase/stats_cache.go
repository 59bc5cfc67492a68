package usecase

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/logging"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/resilience"
)

const DefaultStatsTTL = 6 * time.Hour

type StatsPayloadCacheConfig struct {
	Repository meta.CacheRepository
	Provider   meta.Provider
	TTL        time.Duration
	Now        func() time.Time
	Logger     *logging.Logger
}

// StatsPayloadCache serves whole upstream payloads per tier, fetching when
// the tier is missing or older than the TTL.
type StatsPayloadCache struct {
	repo     meta.CacheRepository
	provider meta.Provider
	ttl      time.Duration
	now      func() time.Time
	logger   *logging.Logger

	// writeMu serializes the load-merge-save of the stats document.
	writeMu sync.Mutex
	flight  resilience.SingleFlight
}

func NewStatsPayloadCache(cfg StatsPayloadCacheConfig) *StatsPayloadCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &StatsPayloadCache{
		repo:     cfg.Repository,
		provider: cfg.Provider,
		ttl:      ttl,
		now:      now,
		logger:   logger,
	}
}

func (c *StatsPayloadCache) TTL() time.Duration {
	return c.ttl
}

// Load returns the whole stats document.
func (c *StatsPayloadCache) Load(ctx context.Context) (meta.RawStatsCache, bool, error) {
	cache, ok, err := c.repo.LoadStats(ctx)
	if err != nil {
		return meta.RawStatsCache{}, false, crerr.Wrap(err, "load stats cache")
	}
	return cache, ok, nil
}

// GetCachedPayload returns the stored payload for tier regardless of age.
func (c *StatsPayloadCache) GetCachedPayload(ctx context.Context, tier meta.Tier) (meta.RawPayload, bool, error) {
	cache, ok, err := c.Load(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	payload, _, ok := cache.PayloadFor(tier)
	return payload, ok, nil
}

// GetOrFetch returns the cached payload for tier while it is fresh, else
// fetches, stores and returns a new one. Concurrent misses for the same
// tier share one fetch.
func (c *StatsPayloadCache) GetOrFetch(ctx context.Context, tier meta.Tier) (meta.RawPayload, error) {
	cache, _, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	if payload, fetchedAt, ok := cache.PayloadFor(tier); ok && c.fresh(fetchedAt) {
		return payload, nil
	}

	v, err, shared := c.flight.Do(ctx, "stats:"+string(tier), func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), tier)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.DebugContext(ctx, "stats fetch shared", "tier", tier)
	}
	return v, nil
}

// Refresh fetches tier unconditionally.
func (c *StatsPayloadCache) Refresh(ctx context.Context, tier meta.Tier) (meta.RawPayload, error) {
	return c.fetch(ctx, tier)
}

func (c *StatsPayloadCache) fetch(ctx context.Context, tier meta.Tier) (meta.RawPayload, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsPayloadCache.fetch", tierAttr(tier))
	defer span.End()

	payload, sourceURL, err := c.provider.FetchStatsPayload(ctx, tier)
	if err != nil {
		recordSpanError(span, err)
		return nil, crerr.Wrapf(err, "fetch stats payload tier=%s", tier)
	}
	if err := c.Store(ctx, tier, payload, sourceURL); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("meta.source_url", sourceURL))
	return payload, nil
}

// Store merges payload into the stats document under tier.
func (c *StatsPayloadCache) Store(ctx context.Context, tier meta.Tier, payload meta.RawPayload, sourceURL string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	cache, _, err := c.Load(ctx)
	if err != nil {
		return err
	}

	next := cache.WithPayload(tier, payload, sourceURL, c.now().UTC())
	if err := c.repo.SaveStats(ctx, next); err != nil {
		return crerr.Wrapf(err, "store stats payload tier=%s", tier)
	}

	c.logger.InfoContext(ctx, "stats payload cached", "tier", tier, "source_url", sourceURL)
	return nil
}

// Age is the time since the document was last written. It reports false
// when nothing is cached.
func (c *StatsPayloadCache) Age(ctx context.Context) (time.Duration, bool, error) {
	cache, ok, err := c.Load(ctx)
	if err != nil || !ok || cache.FetchedAt.IsZero() {
		return 0, false, err
	}
	return c.now().Sub(cache.FetchedAt), true, nil
}

func (c *StatsPayloadCache) IsFresh(ctx context.Context) (bool, error) {
	cache, ok, err := c.Load(ctx)
	if err != nil || !ok {
		return false, err
	}
	return c.fresh(cache.FetchedAt), nil
}

func (c *StatsPayloadCache) fresh(fetchedAt time.Time) bool {
	if fetchedAt.IsZero() {
		return false
	}
	return c.now().Sub(fetchedAt) <= c.ttl
}

// expiresWithin reports whether fetchedAt goes stale within margin of now.
func (c *StatsPayloadCache) expiresWithin(fetchedAt time.Time, margin time.Duration) bool {
	if fetchedAt.IsZero() {
		return true
	}
	return c.now().Sub(fetchedAt) >= c.ttl-margin
}
