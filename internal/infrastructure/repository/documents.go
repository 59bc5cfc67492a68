package repository

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
)

// DocumentStore reads and writes named JSON documents. Read reports false
// when the document does not exist.
type DocumentStore interface {
	Read(ctx context.Context, name string) ([]byte, bool, error)
	Write(ctx context.Context, name string, fetchedAt time.Time, payload []byte) error
}

// Documents implements meta.CacheRepository over any DocumentStore.
type Documents struct {
	store DocumentStore
}

func NewDocuments(store DocumentStore) *Documents {
	return &Documents{store: store}
}

func (d *Documents) LoadStats(ctx context.Context) (meta.RawStatsCache, bool, error) {
	raw, ok, err := d.store.Read(ctx, meta.StatsDocument)
	if err != nil || !ok {
		return meta.RawStatsCache{}, false, err
	}

	cache, err := meta.DecodeStatsCache(raw)
	if err != nil {
		return meta.RawStatsCache{}, false, crerr.Wrapf(err, "load %s", meta.StatsDocument)
	}
	return cache, true, nil
}

func (d *Documents) SaveStats(ctx context.Context, cache meta.RawStatsCache) error {
	raw, err := meta.EncodeStatsCache(cache)
	if err != nil {
		return err
	}
	if err := d.store.Write(ctx, meta.StatsDocument, cache.FetchedAt, raw); err != nil {
		return crerr.Wrapf(err, "save %s", meta.StatsDocument)
	}
	return nil
}

func (d *Documents) LoadHeroMap(ctx context.Context) (meta.HeroMapCache, bool, error) {
	raw, ok, err := d.store.Read(ctx, meta.HeroMapDocument)
	if err != nil || !ok {
		return meta.HeroMapCache{}, false, err
	}

	cache, err := meta.DecodeHeroMapCache(raw)
	if err != nil {
		return meta.HeroMapCache{}, false, crerr.Wrapf(err, "load %s", meta.HeroMapDocument)
	}
	return cache, true, nil
}

func (d *Documents) SaveHeroMap(ctx context.Context, cache meta.HeroMapCache) error {
	raw, err := meta.EncodeHeroMapCache(cache)
	if err != nil {
		return err
	}
	if err := d.store.Write(ctx, meta.HeroMapDocument, cache.FetchedAt, raw); err != nil {
		return crerr.Wrapf(err, "save %s", meta.HeroMapDocument)
	}
	return nil
}
