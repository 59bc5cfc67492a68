package cache

import (
	"context"
	"time"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
	basecache "github.com/bowjoww/wr-cn-meta-draft/internal/platform/cache"
)

const (
	statsKey   = "doc:" + meta.StatsDocument
	heroMapKey = "doc:" + meta.HeroMapDocument
)

// CacheRepository memoizes document loads from a remote backend for ttl.
// Saves go straight through and replace the memoized copy.
type CacheRepository struct {
	next    meta.CacheRepository
	stats   *basecache.Store[cachedStats]
	heroMap *basecache.Store[cachedHeroMap]
}

type cachedStats struct {
	value  meta.RawStatsCache
	exists bool
}

type cachedHeroMap struct {
	value  meta.HeroMapCache
	exists bool
}

func NewCacheRepository(next meta.CacheRepository, ttl time.Duration) *CacheRepository {
	return &CacheRepository{
		next:    next,
		stats:   basecache.NewStore[cachedStats](ttl),
		heroMap: basecache.NewStore[cachedHeroMap](ttl),
	}
}

func (r *CacheRepository) LoadStats(ctx context.Context) (meta.RawStatsCache, bool, error) {
	cached, err := r.stats.GetOrLoad(ctx, statsKey, func(ctx context.Context) (cachedStats, error) {
		value, exists, err := r.next.LoadStats(ctx)
		if err != nil {
			return cachedStats{}, err
		}
		return cachedStats{value: value, exists: exists}, nil
	})
	if err != nil {
		return meta.RawStatsCache{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *CacheRepository) SaveStats(ctx context.Context, cache meta.RawStatsCache) error {
	if err := r.next.SaveStats(ctx, cache); err != nil {
		r.stats.Delete(ctx, statsKey)
		return err
	}
	r.stats.Set(ctx, statsKey, cachedStats{value: cache, exists: true})
	return nil
}

func (r *CacheRepository) LoadHeroMap(ctx context.Context) (meta.HeroMapCache, bool, error) {
	cached, err := r.heroMap.GetOrLoad(ctx, heroMapKey, func(ctx context.Context) (cachedHeroMap, error) {
		value, exists, err := r.next.LoadHeroMap(ctx)
		if err != nil {
			return cachedHeroMap{}, err
		}
		return cachedHeroMap{value: value, exists: exists}, nil
	})
	if err != nil {
		return meta.HeroMapCache{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *CacheRepository) SaveHeroMap(ctx context.Context, cache meta.HeroMapCache) error {
	if err := r.next.SaveHeroMap(ctx, cache); err != nil {
		r.heroMap.Delete(ctx, heroMapKey)
		return err
	}
	r.heroMap.Set(ctx, heroMapKey, cachedHeroMap{value: cache, exists: true})
	return nil
}
