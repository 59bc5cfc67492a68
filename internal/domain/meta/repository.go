package meta

import (
	"context"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/hero"
)

// CacheRepository persists the two cache documents. Load reports false when
// nothing has been stored yet.
type CacheRepository interface {
	LoadStats(ctx context.Context) (RawStatsCache, bool, error)
	SaveStats(ctx context.Context, cache RawStatsCache) error
	LoadHeroMap(ctx context.Context) (HeroMapCache, bool, error)
	SaveHeroMap(ctx context.Context, cache HeroMapCache) error
}

// Provider fetches payloads from the upstream source.
type Provider interface {
	FetchStatsPayload(ctx context.Context, tier Tier) (RawPayload, string, error)
	FetchHeroMap(ctx context.Context) (hero.Map, string, error)
	Discover(ctx context.Context) (Endpoints, error)
}
