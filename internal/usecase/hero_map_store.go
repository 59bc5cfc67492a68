package usecase

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/logging"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/resilience"
)

const DefaultHeroMapTTL = 7 * 24 * time.Hour

type HeroMapStoreConfig struct {
	Repository meta.CacheRepository
	Provider   meta.Provider
	TTL        time.Duration
	Now        func() time.Time
	Logger     *logging.Logger
}

// HeroMapStore keeps the hero identity map, refetching it once it is older
// than the TTL.
type HeroMapStore struct {
	repo     meta.CacheRepository
	provider meta.Provider
	ttl      time.Duration
	now      func() time.Time
	logger   *logging.Logger
	flight   resilience.SingleFlight
}

func NewHeroMapStore(cfg HeroMapStoreConfig) *HeroMapStore {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultHeroMapTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &HeroMapStore{
		repo:     cfg.Repository,
		provider: cfg.Provider,
		ttl:      ttl,
		now:      now,
		logger:   logger,
	}
}

func (s *HeroMapStore) TTL() time.Duration {
	return s.ttl
}

// Cached returns the stored hero map without refreshing it.
func (s *HeroMapStore) Cached(ctx context.Context) (meta.HeroMapCache, bool, error) {
	cache, ok, err := s.repo.LoadHeroMap(ctx)
	if err != nil {
		return meta.HeroMapCache{}, false, crerr.Wrap(err, "load hero map cache")
	}
	return cache, ok && len(cache.Items) > 0, nil
}

// Get returns the stored hero map while it is younger than the TTL, else
// refreshes it.
func (s *HeroMapStore) Get(ctx context.Context) (meta.HeroMapCache, error) {
	cache, ok, err := s.Cached(ctx)
	if err != nil {
		return meta.HeroMapCache{}, err
	}
	if ok && !cache.FetchedAt.IsZero() && s.now().Sub(cache.FetchedAt) < s.ttl {
		return cache, nil
	}
	return s.Refresh(ctx)
}

// Refresh refetches the hero script and reruns extraction.
func (s *HeroMapStore) Refresh(ctx context.Context) (meta.HeroMapCache, error) {
	v, err, _ := s.flight.Do(ctx, "hero_map", func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return meta.HeroMapCache{}, err
	}
	return v.(meta.HeroMapCache), nil
}

func (s *HeroMapStore) refresh(ctx context.Context) (meta.HeroMapCache, error) {
	items, sourceURL, err := s.provider.FetchHeroMap(ctx)
	if err != nil {
		return meta.HeroMapCache{}, crerr.Wrap(err, "fetch hero map")
	}

	cache := meta.HeroMapCache{
		FetchedAt: s.now().UTC(),
		SourceURL: sourceURL,
		Items:     items,
	}
	if err := s.repo.SaveHeroMap(ctx, cache); err != nil {
		return meta.HeroMapCache{}, crerr.Wrap(err, "store hero map")
	}

	s.logger.InfoContext(ctx, "hero map refreshed", "heroes", len(items), "source_url", sourceURL)
	return cache, nil
}
