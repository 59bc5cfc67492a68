package meta

import (
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/hero"
)

// Document names shared by every cache backend.
const (
	StatsDocument   = "cn_meta_cache"
	HeroMapDocument = "hero_map_cache"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

type statsDocument struct {
	FetchedAt        string                             `json:"fetched_at"`
	SourceURL        string                             `json:"source_url"`
	RawPayloadByTier map[string]any                     `json:"raw_payload_by_tier,omitempty"`
	TierFetchedAt    map[string]string                  `json:"tier_fetched_at,omitempty"`
	Items            map[string][]NormalizedChampionRow `json:"items,omitempty"`
}

type heroMapDocument struct {
	FetchedAt string                   `json:"fetched_at"`
	SourceURL string                   `json:"source_url"`
	Items     map[string]hero.Identity `json:"items"`
}

// EncodeStatsCache renders the persisted stats document. The legacy items
// shape is never written.
func EncodeStatsCache(cache RawStatsCache) ([]byte, error) {
	doc := statsDocument{
		FetchedAt:        formatTimestamp(cache.FetchedAt),
		SourceURL:        cache.SourceURL,
		RawPayloadByTier: make(map[string]any, len(cache.RawPayloadByTier)),
		TierFetchedAt:    make(map[string]string, len(cache.TierFetchedAt)),
	}
	for tier, payload := range cache.RawPayloadByTier {
		doc.RawPayloadByTier[string(tier)] = payload
	}
	for tier, fetchedAt := range cache.TierFetchedAt {
		doc.TierFetchedAt[string(tier)] = formatTimestamp(fetchedAt)
	}

	out, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode stats cache: %w", err)
	}
	return out, nil
}

// DecodeStatsCache reads both the current and the legacy stats shapes.
func DecodeStatsCache(raw []byte) (RawStatsCache, error) {
	var doc statsDocument
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return RawStatsCache{}, fmt.Errorf("decode stats cache: %w", err)
	}

	cache := RawStatsCache{
		FetchedAt:        parseTimestamp(doc.FetchedAt),
		SourceURL:        doc.SourceURL,
		RawPayloadByTier: make(map[Tier]RawPayload, len(doc.RawPayloadByTier)),
		TierFetchedAt:    make(map[Tier]time.Time, len(doc.TierFetchedAt)),
	}
	for key, payload := range doc.RawPayloadByTier {
		tier, err := ParseTier(key)
		if err != nil {
			continue
		}
		cache.RawPayloadByTier[tier] = payload
	}
	for key, value := range doc.TierFetchedAt {
		tier, err := ParseTier(key)
		if err != nil {
			continue
		}
		if ts := parseTimestamp(value); !ts.IsZero() {
			cache.TierFetchedAt[tier] = ts
		}
	}
	if len(doc.Items) > 0 {
		cache.LegacyItems = doc.Items
	}

	return cache, nil
}

func EncodeHeroMapCache(cache HeroMapCache) ([]byte, error) {
	doc := heroMapDocument{
		FetchedAt: formatTimestamp(cache.FetchedAt),
		SourceURL: cache.SourceURL,
		Items:     make(map[string]hero.Identity, len(cache.Items)),
	}
	for heroID, identity := range cache.Items {
		doc.Items[heroID] = identity
	}

	out, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode hero map cache: %w", err)
	}
	return out, nil
}

func DecodeHeroMapCache(raw []byte) (HeroMapCache, error) {
	var doc heroMapDocument
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return HeroMapCache{}, fmt.Errorf("decode hero map cache: %w", err)
	}

	cache := HeroMapCache{
		FetchedAt: parseTimestamp(doc.FetchedAt),
		SourceURL: doc.SourceURL,
		Items:     make(hero.Map, len(doc.Items)),
	}
	for key, identity := range doc.Items {
		heroID, ok := hero.NormalizeID(key)
		if !ok {
			continue
		}
		identity.HeroID = heroID
		cache.Items[heroID] = identity
	}

	return cache, nil
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp accepts RFC 3339 and offset-less ISO timestamps, the latter
// read as UTC. Unparseable values yield the zero time.
func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
