package meta

import (
	"sort"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/hero"
)

const (
	// SummaryTopN bounds the per-position banrate leaderboard.
	SummaryTopN = 5

	unknownPosition = 0
)

// SummarizeByPosition aggregates every raw entry of a tier payload per
// position. It is a schema-drift diagnostic, so entries are not deduplicated
// and unknown positions are reported under 0.
func SummarizeByPosition(payload RawPayload, tier Tier, heroes hero.Map) ([]PositionSummary, error) {
	entries, err := CollectEntries(payload, tier)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		summary PositionSummary
		heroes  map[string]struct{}
		ranked  []BanRateEntry
	}

	buckets := make(map[int]*bucket)
	for _, entry := range entries {
		position, ok := getInt(entry, fieldPosition)
		if !ok {
			position = unknownPosition
		}
		if _, known := RoleForPosition(position); !known {
			position = unknownPosition
		}

		b, ok := buckets[position]
		if !ok {
			b = &bucket{
				summary: PositionSummary{Position: position, Lanes: map[string]int{}},
				heroes:  map[string]struct{}{},
			}
			if role, known := RoleForPosition(position); known {
				b.summary.Role = role
			}
			buckets[position] = b
		}

		heroID, _ := hero.NormalizeID(entry[fieldHeroID])
		b.summary.EntryCount++
		b.heroes[heroID] = struct{}{}
		if lane := firstNonEmpty(getString(entry, "lane"), getString(entry, "lane_name")); lane != "" {
			b.summary.Lanes[lane]++
		}
		b.ranked = append(b.ranked, BanRateEntry{
			HeroID:   heroID,
			Champion: heroLabel(entry, heroID, heroes),
			BanRate:  NormalizeRate(entry, fieldBanRate),
		})
	}

	positions := make([]int, 0, len(buckets))
	for position := range buckets {
		positions = append(positions, position)
	}
	sort.Ints(positions)

	out := make([]PositionSummary, 0, len(positions))
	for _, position := range positions {
		b := buckets[position]
		sort.SliceStable(b.ranked, func(i, j int) bool {
			if b.ranked[i].BanRate != b.ranked[j].BanRate {
				return b.ranked[i].BanRate > b.ranked[j].BanRate
			}
			return b.ranked[i].HeroID < b.ranked[j].HeroID
		})
		if len(b.ranked) > SummaryTopN {
			b.ranked = b.ranked[:SummaryTopN]
		}
		b.summary.HeroCount = len(b.heroes)
		b.summary.TopByBanRate = b.ranked
		b.summary.DominantLane = dominantLane(b.summary.Lanes)
		if len(b.summary.Lanes) == 0 {
			b.summary.Lanes = nil
		}
		out = append(out, b.summary)
	}

	return out, nil
}

func heroLabel(entry map[string]any, heroID string, heroes hero.Map) string {
	identity := heroes[heroID]
	return firstNonEmpty(identity.NameGlobal, identity.NameCN, getString(entry, "hero_name"), getString(entry, "hero_title"), hero.SyntheticLabel(heroID))
}

func dominantLane(lanes map[string]int) string {
	best, bestCount := "", 0
	for lane, count := range lanes {
		if count > bestCount || (count == bestCount && lane < best) {
			best, bestCount = lane, count
		}
	}
	return best
}
