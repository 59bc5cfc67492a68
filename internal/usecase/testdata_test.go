package usecase

import (
	"strconv"
	"time"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/hero"
	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time {
	return testNow
}

// statsPayload has one distinct hero per position: hero 10+p at position p.
func statsPayload() meta.RawPayload {
	entries := make([]any, 0, 5)
	for position := 1; position <= 5; position++ {
		entries = append(entries, map[string]any{
			"hero_id":     strconv.Itoa(10 + position),
			"position":    strconv.Itoa(position),
			"win_rate":    "0.5" + strconv.Itoa(position),
			"appear_rate": "0.1",
			"forbid_rate": "0.0" + strconv.Itoa(position),
		})
	}
	return map[string]any{
		"result": float64(0),
		"data": map[string]any{
			"1": map[string]any{"list": entries},
		},
	}
}

func testHeroMap() meta.HeroMapCache {
	return meta.HeroMapCache{
		FetchedAt: testNow.Add(-24 * time.Hour),
		SourceURL: "https://example.test/hero_list.js",
		Items: hero.Map{
			"11": {HeroID: "11", NameCN: "盖伦", NameGlobal: "Garen"},
			"12": {HeroID: "12", NameCN: "李青", NameGlobal: "LeeSin"},
			"15": {HeroID: "15", NameCN: "锤石"},
		},
	}
}

func cachedStats(age time.Duration) meta.RawStatsCache {
	return meta.RawStatsCache{}.WithPayload(meta.TierDiamond, statsPayload(), "https://example.test/stats", testNow.Add(-age))
}
