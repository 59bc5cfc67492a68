package meta

import (
	"time"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/hero"
)

type Role string

const (
	RoleTop     Role = "top"
	RoleJungle  Role = "jungle"
	RoleMid     Role = "mid"
	RoleADC     Role = "adc"
	RoleSupport Role = "support"
)

type Tier string

const (
	TierDiamond    Tier = "diamond"
	TierMaster     Tier = "master"
	TierChallenger Tier = "challenger"
)

// RawPayload is an unmodified decoded upstream JSON tree.
type RawPayload = any

// NormalizedChampionRow is one hero's normalized statistics for a role and tier.
type NormalizedChampionRow struct {
	HeroID         string  `json:"hero_id,omitempty"`
	HeroNameCN     string  `json:"hero_name_cn,omitempty"`
	HeroNameGlobal string  `json:"hero_name_global,omitempty"`
	Champion       string  `json:"champion"`
	Role           Role    `json:"role"`
	Tier           Tier    `json:"tier"`
	Position       *int    `json:"position,omitempty"`
	WinRate        float64 `json:"winrate"`
	PickRate       float64 `json:"pickrate"`
	BanRate        float64 `json:"banrate"`
	PriorityScore  float64 `json:"priority_score"`
	PowerScore     float64 `json:"power_score"`
	DraftScore     float64 `json:"draft_score"`
}

// RawStatsCache holds whole upstream payloads per tier. LegacyItems is the
// deprecated pre-normalized shape and is only ever read.
type RawStatsCache struct {
	FetchedAt        time.Time
	SourceURL        string
	RawPayloadByTier map[Tier]RawPayload
	TierFetchedAt    map[Tier]time.Time
	LegacyItems      map[string][]NormalizedChampionRow
}

// PayloadFor returns the payload for tier and the time it was fetched.
func (c RawStatsCache) PayloadFor(tier Tier) (RawPayload, time.Time, bool) {
	payload, ok := c.RawPayloadByTier[tier]
	if !ok || payload == nil {
		return nil, time.Time{}, false
	}
	if fetchedAt, ok := c.TierFetchedAt[tier]; ok && !fetchedAt.IsZero() {
		return payload, fetchedAt, true
	}
	return payload, c.FetchedAt, true
}

// LegacyRows returns pre-normalized rows stored under "role:tier".
func (c RawStatsCache) LegacyRows(role Role, tier Tier) ([]NormalizedChampionRow, bool) {
	rows := c.LegacyItems[LegacyKey(role, tier)]
	if len(rows) == 0 {
		return nil, false
	}
	out := make([]NormalizedChampionRow, len(rows))
	copy(out, rows)
	return out, true
}

// WithPayload returns a copy holding payload for tier. Legacy items are
// dropped because the legacy shape is never written.
func (c RawStatsCache) WithPayload(tier Tier, payload RawPayload, sourceURL string, now time.Time) RawStatsCache {
	next := RawStatsCache{
		FetchedAt:        now,
		SourceURL:        sourceURL,
		RawPayloadByTier: make(map[Tier]RawPayload, len(c.RawPayloadByTier)+1),
		TierFetchedAt:    make(map[Tier]time.Time, len(c.RawPayloadByTier)+1),
	}
	for t, p := range c.RawPayloadByTier {
		next.RawPayloadByTier[t] = p
		if _, fetchedAt, ok := c.PayloadFor(t); ok {
			next.TierFetchedAt[t] = fetchedAt
		}
	}
	next.RawPayloadByTier[tier] = payload
	next.TierFetchedAt[tier] = now
	return next
}

// Tiers lists cached tiers in canonical order.
func (c RawStatsCache) Tiers() []Tier {
	out := make([]Tier, 0, len(c.RawPayloadByTier))
	for _, tier := range AllTiers() {
		if _, ok := c.RawPayloadByTier[tier]; ok {
			out = append(out, tier)
		}
	}
	return out
}

func (c RawStatsCache) IsEmpty() bool {
	return c.FetchedAt.IsZero() && len(c.RawPayloadByTier) == 0 && len(c.LegacyItems) == 0
}

// HeroMapCache wraps a hero map with its fetch metadata.
type HeroMapCache struct {
	FetchedAt time.Time
	SourceURL string
	Items     hero.Map
}

// PositionSummary is a per-position diagnostic aggregate of raw entries.
type PositionSummary struct {
	Position     int            `json:"position"`
	Role         Role           `json:"role,omitempty"`
	EntryCount   int            `json:"entry_count"`
	HeroCount    int            `json:"hero_count"`
	TopByBanRate []BanRateEntry `json:"top_by_banrate"`
	Lanes        map[string]int `json:"lanes,omitempty"`
	DominantLane string         `json:"dominant_lane,omitempty"`
}

type BanRateEntry struct {
	HeroID   string  `json:"hero_id"`
	Champion string  `json:"champion"`
	BanRate  float64 `json:"banrate"`
}

// SourceStatus describes the freshness of the local caches.
type SourceStatus struct {
	Source            string     `json:"source"`
	CacheAgeSeconds   int64      `json:"cache_age_seconds"`
	CacheTTLSeconds   int64      `json:"cache_ttl_seconds"`
	LastFetch         *time.Time `json:"last_fetch"`
	SourceURL         *string    `json:"source_url"`
	TiersCached       []Tier     `json:"tiers_cached"`
	HeroMapAvailable  bool       `json:"hero_map_available"`
	HeroMapAgeSeconds *int64     `json:"hero_map_age_seconds"`
}

// Endpoints is the result of scraping the landing page.
type Endpoints struct {
	PageURL    string   `json:"page_url"`
	HeroMapURL string   `json:"hero_map_url"`
	StatsURL   string   `json:"stats_url"`
	ScriptURLs []string `json:"script_urls"`
	APIURLs    []string `json:"api_urls"`
}
