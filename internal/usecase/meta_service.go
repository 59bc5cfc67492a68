package usecase

import (
	"context"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/sourcegraph/conc/pool"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/hero"
	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/logging"
)

const (
	SourceCNCache = "cn_cache"
	SourceStale   = "stale"
	SourceEmpty   = "empty"
)

// MetaQuery selects and shapes normalized rows. Empty optional fields take
// their defaults.
type MetaQuery struct {
	Role     string `json:"role" validate:"required,oneof=top jungle mid adc support"`
	Tier     string `json:"tier" validate:"required,oneof=diamond master challenger"`
	Sort     string `json:"sort,omitempty" validate:"omitempty,oneof=priority_score power_score draft_score winrate pickrate banrate"`
	Dir      string `json:"dir,omitempty" validate:"omitempty,oneof=asc desc"`
	View     string `json:"view,omitempty" validate:"omitempty,oneof=priority power draft"`
	NameLang string `json:"name_lang,omitempty" validate:"omitempty,oneof=auto global cn"`
	Limit    int    `json:"limit,omitempty" validate:"gte=0"`
}

func (q MetaQuery) normalized() MetaQuery {
	q.Role = strings.ToLower(strings.TrimSpace(q.Role))
	q.Tier = strings.ToLower(strings.TrimSpace(q.Tier))
	q.Sort = strings.ToLower(strings.TrimSpace(q.Sort))
	q.Dir = strings.ToLower(strings.TrimSpace(q.Dir))
	q.View = strings.ToLower(strings.TrimSpace(q.View))
	q.NameLang = strings.ToLower(strings.TrimSpace(q.NameLang))
	return q
}

func (q MetaQuery) sortKey() meta.SortKey {
	if q.Sort != "" {
		return meta.SortKey(q.Sort)
	}
	return meta.View(q.View).DefaultSort()
}

func (q MetaQuery) sortDir() meta.SortDir {
	if q.Dir == "" {
		return meta.SortDesc
	}
	return meta.SortDir(q.Dir)
}

// Snapshot holds every role of one tier derived from a single cached
// payload.
type Snapshot struct {
	Tier   meta.Tier                                  `json:"tier"`
	Rows   map[meta.Role][]meta.NormalizedChampionRow `json:"rows"`
	Errors map[meta.Role]string                       `json:"errors,omitempty"`
}

type MetaServiceConfig struct {
	Stats    *StatsPayloadCache
	HeroMap  *HeroMapStore
	Provider meta.Provider
	Now      func() time.Time
	Logger   *logging.Logger
}

type MetaService struct {
	stats     *StatsPayloadCache
	heroMap   *HeroMapStore
	provider  meta.Provider
	validator *validator.Validate
	now       func() time.Time
	logger    *logging.Logger
}

func NewMetaService(cfg MetaServiceConfig) *MetaService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &MetaService{
		stats:     cfg.Stats,
		heroMap:   cfg.HeroMap,
		provider:  cfg.Provider,
		validator: validator.New(),
		now:       now,
		logger:    logger,
	}
}

// FetchNormalizedRows returns scored rows for one role and tier, fetching
// the tier payload when the cache is missing or stale.
func (s *MetaService) FetchNormalizedRows(ctx context.Context, query MetaQuery) ([]meta.NormalizedChampionRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MetaService.FetchNormalizedRows")
	defer span.End()

	query = query.normalized()
	if err := s.validator.StructCtx(ctx, query); err != nil {
		return nil, crerr.Wrapf(meta.ErrInvalidArgument, "invalid query: %v", err)
	}
	role, err := meta.ParseRole(query.Role)
	if err != nil {
		return nil, err
	}
	tier, err := meta.ParseTier(query.Tier)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(roleAttr(role), tierAttr(tier))

	if rows, ok, err := s.legacyRows(ctx, role, tier); err != nil {
		return nil, err
	} else if ok {
		return shapeRows(rows, query), nil
	}

	payload, err := s.stats.GetOrFetch(ctx, tier)
	if err != nil {
		return nil, err
	}

	rows, err := meta.BuildRows(payload, role, tier, s.heroes(ctx))
	if err != nil {
		return nil, err
	}
	return shapeRows(rows, query), nil
}

// legacyRows serves pre-normalized rows from a fresh legacy document that
// has no raw payload for tier.
func (s *MetaService) legacyRows(ctx context.Context, role meta.Role, tier meta.Tier) ([]meta.NormalizedChampionRow, bool, error) {
	cache, ok, err := s.stats.Load(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	if _, _, hasPayload := cache.PayloadFor(tier); hasPayload {
		return nil, false, nil
	}
	if cache.FetchedAt.IsZero() || s.now().Sub(cache.FetchedAt) > s.stats.TTL() {
		return nil, false, nil
	}

	rows, ok := cache.LegacyRows(role, tier)
	if !ok {
		return nil, false, nil
	}
	meta.ScoreRows(rows)
	return rows, true, nil
}

func shapeRows(rows []meta.NormalizedChampionRow, query MetaQuery) []meta.NormalizedChampionRow {
	meta.ApplyNameLang(rows, meta.NameLang(query.NameLang))
	meta.SortRows(rows, query.sortKey(), query.sortDir())
	if query.Limit > 0 && len(rows) > query.Limit {
		rows = rows[:query.Limit]
	}
	return rows
}

// heroes returns the hero map, or an empty map when it cannot be loaded.
// Rows then fall back to their own names.
func (s *MetaService) heroes(ctx context.Context) hero.Map {
	cache, err := s.heroMap.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "hero map unavailable, using synthesized names", "error", err)
		return hero.Map{}
	}
	return cache.Items
}

func (s *MetaService) GetCachedPayload(ctx context.Context, rawTier string) (meta.RawPayload, bool, error) {
	tier, err := meta.ParseTier(rawTier)
	if err != nil {
		return nil, false, err
	}
	return s.stats.GetCachedPayload(ctx, tier)
}

func (s *MetaService) RefreshHeroMap(ctx context.Context) (meta.HeroMapCache, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MetaService.RefreshHeroMap")
	defer span.End()

	return s.heroMap.Refresh(ctx)
}

func (s *MetaService) CacheAge(ctx context.Context) (time.Duration, bool, error) {
	return s.stats.Age(ctx)
}

func (s *MetaService) IsFresh(ctx context.Context) (bool, error) {
	return s.stats.IsFresh(ctx)
}

// SummarizeByPosition aggregates the raw entries of one tier per position.
func (s *MetaService) SummarizeByPosition(ctx context.Context, rawTier string) ([]meta.PositionSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MetaService.SummarizeByPosition")
	defer span.End()

	tier, err := meta.ParseTier(rawTier)
	if err != nil {
		return nil, err
	}
	payload, err := s.stats.GetOrFetch(ctx, tier)
	if err != nil {
		return nil, err
	}
	return meta.SummarizeByPosition(payload, tier, s.heroes(ctx))
}

// SourceStatus reports cache freshness without touching the network.
func (s *MetaService) SourceStatus(ctx context.Context) (meta.SourceStatus, error) {
	status := meta.SourceStatus{
		Source:          SourceEmpty,
		CacheTTLSeconds: int64(s.stats.TTL() / time.Second),
		TiersCached:     []meta.Tier{},
	}

	cache, ok, err := s.stats.Load(ctx)
	if err != nil {
		return meta.SourceStatus{}, err
	}
	if ok && !cache.IsEmpty() {
		status.TiersCached = cache.Tiers()
		if cache.SourceURL != "" {
			sourceURL := cache.SourceURL
			status.SourceURL = &sourceURL
		}
		if !cache.FetchedAt.IsZero() {
			fetchedAt := cache.FetchedAt
			age := s.now().Sub(fetchedAt)
			status.LastFetch = &fetchedAt
			status.CacheAgeSeconds = int64(age / time.Second)
			status.Source = SourceStale
			if age <= s.stats.TTL() {
				status.Source = SourceCNCache
			}
		}
	}

	heroes, ok, err := s.heroMap.Cached(ctx)
	if err != nil {
		return meta.SourceStatus{}, err
	}
	if ok {
		status.HeroMapAvailable = true
		if !heroes.FetchedAt.IsZero() {
			age := int64(s.now().Sub(heroes.FetchedAt) / time.Second)
			status.HeroMapAgeSeconds = &age
		}
	}

	return status, nil
}

type roleRows struct {
	role meta.Role
	rows []meta.NormalizedChampionRow
	err  error
}

// Snapshot derives all five roles from one cached payload of tier. A role
// that fails is reported in Errors; the others are still returned.
func (s *MetaService) Snapshot(ctx context.Context, rawTier string, query MetaQuery) (Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MetaService.Snapshot")
	defer span.End()

	tier, err := meta.ParseTier(rawTier)
	if err != nil {
		return Snapshot{}, err
	}
	span.SetAttributes(tierAttr(tier))
	query.Role = string(meta.RoleTop)
	query.Tier = string(tier)
	query = query.normalized()
	if err := s.validator.StructCtx(ctx, query); err != nil {
		return Snapshot{}, crerr.Wrapf(meta.ErrInvalidArgument, "invalid query: %v", err)
	}

	payload, err := s.stats.GetOrFetch(ctx, tier)
	if err != nil {
		return Snapshot{}, err
	}
	heroes := s.heroes(ctx)

	roles := meta.AllRoles()
	p := pool.NewWithResults[roleRows]().WithMaxGoroutines(len(roles))
	for _, role := range roles {
		role := role
		p.Go(func() roleRows {
			rows, err := meta.BuildRows(payload, role, tier, heroes)
			if err != nil {
				return roleRows{role: role, err: err}
			}
			return roleRows{role: role, rows: shapeRows(rows, query)}
		})
	}

	snapshot := Snapshot{
		Tier:   tier,
		Rows:   make(map[meta.Role][]meta.NormalizedChampionRow, len(roles)),
		Errors: map[meta.Role]string{},
	}
	for _, result := range p.Wait() {
		if result.err != nil {
			snapshot.Errors[result.role] = result.err.Error()
			continue
		}
		snapshot.Rows[result.role] = result.rows
	}
	if len(snapshot.Rows) == 0 {
		return Snapshot{}, crerr.Wrapf(meta.ErrEmptyResult, "no role produced rows for tier %s", tier)
	}
	return snapshot, nil
}

func (s *MetaService) Discover(ctx context.Context) (meta.Endpoints, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MetaService.Discover")
	defer span.End()

	return s.provider.Discover(ctx)
}
