package usecase

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/logging"
)

const (
	warmStatusSuccess = "success"
	warmStatusFailed  = "failed"
	warmStatusSkipped = "skipped"

	DefaultRefreshWorkers = 3

	// DefaultRefreshMargin is how early a scheduled warm refetches a tier
	// ahead of its TTL, so a schedule equal to the TTL never sees a tier
	// that is a few seconds short of stale.
	DefaultRefreshMargin = 10 * time.Minute
)

type WarmInput struct {
	Tiers      []string
	MaxWorkers int

	// Force refetches tiers that are still fresh.
	Force bool
}

type WarmResult struct {
	TaskCount    int              `json:"task_count"`
	SuccessCount int              `json:"success_count"`
	FailedCount  int              `json:"failed_count"`
	SkippedCount int              `json:"skipped_count"`
	WorkerCount  int              `json:"worker_count"`
	Tasks        []WarmTaskResult `json:"tasks"`
}

type WarmTaskResult struct {
	Tier       meta.Tier `json:"tier"`
	Status     string    `json:"status"`
	DurationMs int64     `json:"duration_ms"`
	Message    string    `json:"message,omitempty"`
}

// RefreshService keeps the caches warm outside of request paths.
type RefreshService struct {
	stats   *StatsPayloadCache
	heroMap *HeroMapStore
	workers int
	margin  time.Duration
	logger  *logging.Logger
}

func NewRefreshService(stats *StatsPayloadCache, heroMap *HeroMapStore, workers int, logger *logging.Logger) *RefreshService {
	if workers <= 0 {
		workers = DefaultRefreshWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RefreshService{
		stats:   stats,
		heroMap: heroMap,
		workers: workers,
		margin:  refreshMargin(stats.TTL()),
		logger:  logger,
	}
}

// Warm fetches the requested tiers, all tiers when none are given. Every
// fetch still passes through the shared throttle, so workers only overlap
// cache reads and decoding.
func (s *RefreshService) Warm(ctx context.Context, input WarmInput) (WarmResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.Warm")
	defer span.End()

	tiers, err := parseTiers(input.Tiers)
	if err != nil {
		return WarmResult{}, err
	}

	workerCount := input.MaxWorkers
	if workerCount <= 0 {
		workerCount = s.workers
	}
	if workerCount > len(tiers) {
		workerCount = len(tiers)
	}

	result := WarmResult{
		TaskCount:   len(tiers),
		WorkerCount: workerCount,
		Tasks:       make([]WarmTaskResult, 0, len(tiers)),
	}

	p, err := ants.NewPool(workerCount)
	if err != nil {
		return WarmResult{}, crerr.Wrap(err, "create worker pool")
	}
	defer p.Release()

	results := make(chan WarmTaskResult, len(tiers))
	var successCount, failedCount, skippedCount atomic.Int32

	var workers sync.WaitGroup
	for _, tier := range tiers {
		tier := tier
		workers.Add(1)
		if err := p.Submit(func() {
			defer workers.Done()

			row := s.warmTier(ctx, tier, input.Force)
			switch row.Status {
			case warmStatusSuccess:
				successCount.Add(1)
			case warmStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}
			results <- row
		}); err != nil {
			workers.Done()
			return WarmResult{}, crerr.Wrap(err, "submit task to worker pool")
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return tierOrder(result.Tasks[i].Tier) < tierOrder(result.Tasks[j].Tier)
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())

	s.logger.InfoContext(ctx, "stats warm finished",
		"tasks", result.TaskCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"skipped", result.SkippedCount,
	)
	return result, nil
}

func (s *RefreshService) warmTier(ctx context.Context, tier meta.Tier, force bool) WarmTaskResult {
	start := time.Now()
	row := WarmTaskResult{Tier: tier, Status: warmStatusSuccess}

	if !force {
		if _, fetchedAt, ok := s.cachedAt(ctx, tier); ok && !s.stats.expiresWithin(fetchedAt, s.margin) {
			row.Status = warmStatusSkipped
			row.Message = "cache is fresh past the refresh margin"
			row.DurationMs = time.Since(start).Milliseconds()
			return row
		}
	}

	if _, err := s.stats.Refresh(ctx, tier); err != nil {
		row.Status = warmStatusFailed
		row.Message = err.Error()
		s.logger.WarnContext(ctx, "stats warm failed", "tier", tier, "error", err)
	}
	row.DurationMs = time.Since(start).Milliseconds()
	return row
}

func (s *RefreshService) cachedAt(ctx context.Context, tier meta.Tier) (meta.RawPayload, time.Time, bool) {
	cache, ok, err := s.stats.Load(ctx)
	if err != nil || !ok {
		return nil, time.Time{}, false
	}
	return cache.PayloadFor(tier)
}

// RefreshHeroMap refetches the hero map.
func (s *RefreshService) RefreshHeroMap(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.RefreshHeroMap")
	defer span.End()

	_, err := s.heroMap.Refresh(ctx)
	return err
}

// refreshMargin caps DefaultRefreshMargin at a quarter of short TTLs.
func refreshMargin(ttl time.Duration) time.Duration {
	if quarter := ttl / 4; quarter < DefaultRefreshMargin {
		return quarter
	}
	return DefaultRefreshMargin
}

func parseTiers(raw []string) ([]meta.Tier, error) {
	if len(raw) == 0 {
		return meta.AllTiers(), nil
	}

	seen := make(map[meta.Tier]struct{}, len(raw))
	out := make([]meta.Tier, 0, len(raw))
	for _, value := range raw {
		tier, err := meta.ParseTier(value)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[tier]; ok {
			continue
		}
		seen[tier] = struct{}{}
		out = append(out, tier)
	}
	return out, nil
}

func tierOrder(tier meta.Tier) int {
	for i, candidate := range meta.AllTiers() {
		if candidate == tier {
			return i
		}
	}
	return len(meta.AllTiers())
}
