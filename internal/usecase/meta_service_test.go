package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
	metamock "github.com/bowjoww/wr-cn-meta-draft/internal/mocks/domain/meta"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/logging"
)

func newTestMetaService(repo meta.CacheRepository, provider meta.Provider) *MetaService {
	logger := logging.NewNop()
	stats := NewStatsPayloadCache(StatsPayloadCacheConfig{Repository: repo, Provider: provider, Now: fixedNow, Logger: logger})
	heroes := NewHeroMapStore(HeroMapStoreConfig{Repository: repo, Provider: provider, Now: fixedNow, Logger: logger})
	return NewMetaService(MetaServiceConfig{Stats: stats, HeroMap: heroes, Provider: provider, Now: fixedNow, Logger: logger})
}

func TestMetaService_FreshCacheNeverFetches(t *testing.T) {
	t.Parallel()

	repo := metamock.NewCacheRepository(t)
	provider := metamock.NewProvider(t)
	repo.On("LoadStats", mock.Anything).Return(cachedStats(time.Hour), true, nil)
	repo.On("LoadHeroMap", mock.Anything).Return(testHeroMap(), true, nil)

	rows, err := newTestMetaService(repo, provider).FetchNormalizedRows(context.Background(), MetaQuery{Role: "top", Tier: "diamond"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Garen", rows[0].Champion)
	provider.AssertNotCalled(t, "FetchStatsPayload", mock.Anything, mock.Anything)
}

func TestMetaService_StaleCacheFetchesOnce(t *testing.T) {
	t.Parallel()

	repo := metamock.NewCacheRepository(t)
	provider := metamock.NewProvider(t)
	repo.On("LoadStats", mock.Anything).Return(cachedStats(7*time.Hour), true, nil)
	repo.On("LoadHeroMap", mock.Anything).Return(testHeroMap(), true, nil)
	repo.On("SaveStats", mock.Anything, mock.MatchedBy(func(cache meta.RawStatsCache) bool {
		return cache.FetchedAt.Equal(testNow)
	})).Return(nil).Once()
	provider.On("FetchStatsPayload", mock.Anything, meta.TierDiamond).
		Return(statsPayload(), "https://example.test/stats", nil).
		Once()

	rows, err := newTestMetaService(repo, provider).FetchNormalizedRows(context.Background(), MetaQuery{Role: "jungle", Tier: "diamond"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "LeeSin", rows[0].Champion)
}

func TestMetaService_InvalidArgumentsNeverReachNetwork(t *testing.T) {
	t.Parallel()

	tests := []MetaQuery{
		{Role: "bot", Tier: "diamond"},
		{Role: "top", Tier: "iron"},
		{Role: "top", Tier: "diamond", Sort: "kda"},
		{Role: "top", Tier: "diamond", NameLang: "kr"},
		{Role: "top", Tier: "diamond", Limit: -1},
	}

	for _, query := range tests {
		repo := metamock.NewCacheRepository(t)
		provider := metamock.NewProvider(t)

		_, err := newTestMetaService(repo, provider).FetchNormalizedRows(context.Background(), query)
		if !crerr.Is(err, meta.ErrInvalidArgument) {
			t.Fatalf("query %+v: expected ErrInvalidArgument, got %v", query, err)
		}
	}
}

func TestMetaService_HeroMapFailureDegradesToSyntheticNames(t *testing.T) {
	t.Parallel()

	repo := metamock.NewCacheRepository(t)
	provider := metamock.NewProvider(t)
	repo.On("LoadStats", mock.Anything).Return(cachedStats(time.Hour), true, nil)
	repo.On("LoadHeroMap", mock.Anything).Return(meta.HeroMapCache{}, false, nil)
	provider.On("FetchHeroMap", mock.Anything).Return(nil, "https://example.test/hero_list.js", errors.New("boom")).Once()

	rows, err := newTestMetaService(repo, provider).FetchNormalizedRows(context.Background(), MetaQuery{Role: "mid", Tier: "diamond"})
	require.NoError(t, err)
	require.Equal(t, "hero_13", rows[0].Champion)
}

func TestMetaService_NameLangReResolvesChampion(t *testing.T) {
	t.Parallel()

	repo := metamock.NewCacheRepository(t)
	provider := metamock.NewProvider(t)
	repo.On("LoadStats", mock.Anything).Return(cachedStats(time.Hour), true, nil)
	repo.On("LoadHeroMap", mock.Anything).Return(testHeroMap(), true, nil)

	service := newTestMetaService(repo, provider)
	rows, err := service.FetchNormalizedRows(context.Background(), MetaQuery{Role: "top", Tier: "diamond", NameLang: "cn"})
	require.NoError(t, err)
	require.Equal(t, "盖伦", rows[0].Champion)

	rows, err = service.FetchNormalizedRows(context.Background(), MetaQuery{Role: "support", Tier: "diamond", NameLang: "global"})
	require.NoError(t, err)
	require.Equal(t, "锤石", rows[0].Champion)
}

func TestMetaService_ServesFreshLegacyRows(t *testing.T) {
	t.Parallel()

	legacy := meta.RawStatsCache{
		FetchedAt: testNow.Add(-time.Hour),
		LegacyItems: map[string][]meta.NormalizedChampionRow{
			"top:master": {
				{HeroID: "1", Champion: "Garen", Role: meta.RoleTop, Tier: meta.TierMaster, WinRate: 0.5, PickRate: 0.2, BanRate: 0.1},
				{HeroID: "2", Champion: "Darius", Role: meta.RoleTop, Tier: meta.TierMaster, WinRate: 0.52, PickRate: 0.3, BanRate: 0.2},
			},
		},
	}

	repo := metamock.NewCacheRepository(t)
	provider := metamock.NewProvider(t)
	repo.On("LoadStats", mock.Anything).Return(legacy, true, nil)

	rows, err := newTestMetaService(repo, provider).FetchNormalizedRows(context.Background(), MetaQuery{Role: "top", Tier: "master"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Darius", rows[0].Champion)
	require.InDelta(t, 0.21, rows[1].PriorityScore, 1e-12)
}

func TestMetaService_SortAndLimit(t *testing.T) {
	t.Parallel()

	payload := map[string]any{
		"result": float64(0),
		"data": map[string]any{"1": []any{
			map[string]any{"hero_id": "1", "position": "3", "win_rate": "0.55", "appear_rate": "0.05", "forbid_rate": "0.01"},
			map[string]any{"hero_id": "2", "position": "3", "win_rate": "0.48", "appear_rate": "0.20", "forbid_rate": "0.30"},
			map[string]any{"hero_id": "3", "position": "3", "win_rate": "0.51", "appear_rate": "0.10", "forbid_rate": "0.05"},
		}},
	}
	cache := meta.RawStatsCache{}.WithPayload(meta.TierDiamond, payload, "https://example.test/stats", testNow)

	repo := metamock.NewCacheRepository(t)
	provider := metamock.NewProvider(t)
	repo.On("LoadStats", mock.Anything).Return(cache, true, nil)
	repo.On("LoadHeroMap", mock.Anything).Return(testHeroMap(), true, nil)
	service := newTestMetaService(repo, provider)

	rows, err := service.FetchNormalizedRows(context.Background(), MetaQuery{Role: "mid", Tier: "diamond", Sort: "winrate", Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, []string{"1", "3"}, []string{rows[0].HeroID, rows[1].HeroID})

	rows, err = service.FetchNormalizedRows(context.Background(), MetaQuery{Role: "mid", Tier: "diamond", Sort: "banrate", Dir: "asc"})
	require.NoError(t, err)
	require.Equal(t, []string{"1", "3", "2"}, []string{rows[0].HeroID, rows[1].HeroID, rows[2].HeroID})
}

func TestMetaService_SourceStatus(t *testing.T) {
	t.Parallel()

	repo := metamock.NewCacheRepository(t)
	provider := metamock.NewProvider(t)
	repo.On("LoadStats", mock.Anything).Return(cachedStats(7*time.Hour), true, nil)
	repo.On("LoadHeroMap", mock.Anything).Return(testHeroMap(), true, nil)

	status, err := newTestMetaService(repo, provider).SourceStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, SourceStale, status.Source)
	require.Equal(t, int64(7*3600), status.CacheAgeSeconds)
	require.Equal(t, int64(6*3600), status.CacheTTLSeconds)
	require.Equal(t, []meta.Tier{meta.TierDiamond}, status.TiersCached)
	require.True(t, status.HeroMapAvailable)
	require.NotNil(t, status.HeroMapAgeSeconds)
	require.Equal(t, int64(24*3600), *status.HeroMapAgeSeconds)
}

func TestMetaService_SourceStatusEmpty(t *testing.T) {
	t.Parallel()

	repo := metamock.NewCacheRepository(t)
	provider := metamock.NewProvider(t)
	repo.On("LoadStats", mock.Anything).Return(meta.RawStatsCache{}, false, nil)
	repo.On("LoadHeroMap", mock.Anything).Return(meta.HeroMapCache{}, false, nil)

	status, err := newTestMetaService(repo, provider).SourceStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, SourceEmpty, status.Source)
	require.Nil(t, status.LastFetch)
	require.Empty(t, status.TiersCached)
	require.False(t, status.HeroMapAvailable)
}

func TestMetaService_SnapshotDerivesEveryRoleFromOnePayload(t *testing.T) {
	t.Parallel()

	repo := metamock.NewCacheRepository(t)
	provider := metamock.NewProvider(t)
	repo.On("LoadStats", mock.Anything).Return(cachedStats(time.Hour), true, nil)
	repo.On("LoadHeroMap", mock.Anything).Return(testHeroMap(), true, nil)

	snapshot, err := newTestMetaService(repo, provider).Snapshot(context.Background(), "diamond", MetaQuery{})
	require.NoError(t, err)
	require.Empty(t, snapshot.Errors)
	require.Len(t, snapshot.Rows, 5)

	seen := map[string]meta.Role{}
	for role, rows := range snapshot.Rows {
		require.Len(t, rows, 1)
		if other, ok := seen[rows[0].HeroID]; ok {
			t.Fatalf("hero %s appears for both %s and %s", rows[0].HeroID, other, role)
		}
		seen[rows[0].HeroID] = role
	}
	require.Equal(t, "15", snapshot.Rows[meta.RoleSupport][0].HeroID)
}

func TestMetaService_SummarizeByPosition(t *testing.T) {
	t.Parallel()

	repo := metamock.NewCacheRepository(t)
	provider := metamock.NewProvider(t)
	repo.On("LoadStats", mock.Anything).Return(cachedStats(time.Hour), true, nil)
	repo.On("LoadHeroMap", mock.Anything).Return(testHeroMap(), true, nil)

	summaries, err := newTestMetaService(repo, provider).SummarizeByPosition(context.Background(), "diamond")
	require.NoError(t, err)
	require.NotEmpty(t, summaries)
	for _, summary := range summaries {
		if summary.Position == 2 {
			require.Equal(t, 1, summary.EntryCount)
			require.Equal(t, "LeeSin", summary.TopByBanRate[0].Champion)
			return
		}
	}
	t.Fatalf("position 2 missing from %+v", summaries)
}
