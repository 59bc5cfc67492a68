package meta

import (
	"sort"

	crerr "github.com/cockroachdb/errors"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/hero"
	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/scoring"
)

const (
	fieldHeroID   = "hero_id"
	fieldPosition = "position"
	fieldWinRate  = "win_rate"
	fieldPickRate = "appear_rate"
	fieldBanRate  = "forbid_rate"
	percentSuffix = "_percent"
)

var rateFields = []string{fieldWinRate, fieldPickRate, fieldBanRate}

// BuildRows derives the normalized rows of one role from a whole tier payload.
// Entries are selected by their own position field only; duplicates per
// hero are collapsed to the highest (priority, banrate, pickrate) row.
// Power and draft scores are attached over the returned set.
func BuildRows(payload RawPayload, role Role, tier Tier, heroes hero.Map) ([]NormalizedChampionRow, error) {
	position, ok := role.Position()
	if !ok {
		return nil, crerr.Wrapf(ErrInvalidArgument, "unsupported role %q", role)
	}
	if _, ok := tier.Key(); !ok {
		return nil, crerr.Wrapf(ErrInvalidArgument, "unsupported tier %q", tier)
	}

	entries, err := CollectEntries(payload, tier)
	if err != nil {
		return nil, err
	}

	byHero := make(map[string]NormalizedChampionRow)
	order := make([]string, 0)
	for _, entry := range entries {
		entryPosition, ok := getInt(entry, fieldPosition)
		if !ok || entryPosition != position {
			continue
		}

		row, ok := normalizeEntry(entry, role, tier, entryPosition, heroes)
		if !ok || row.Champion == "" {
			continue
		}

		current, exists := byHero[row.HeroID]
		if !exists {
			order = append(order, row.HeroID)
			byHero[row.HeroID] = row
			continue
		}
		if outranks(row, current) {
			byHero[row.HeroID] = row
		}
	}

	if len(byHero) == 0 {
		return nil, crerr.Wrapf(ErrEmptyResult, "empty payload for role=%s position=%d tier=%s", role, position, tier)
	}

	rows := make([]NormalizedChampionRow, 0, len(byHero))
	for _, heroID := range order {
		rows = append(rows, byHero[heroID])
	}
	ScoreRows(rows)
	SortRows(rows, SortPriority, SortDesc)

	return rows, nil
}

// CollectEntries walks the tier candidates of payload and returns every
// object that carries the minimum statistic fields, in walk order.
func CollectEntries(payload RawPayload, tier Tier) ([]map[string]any, error) {
	root, ok := payload.(map[string]any)
	if !ok {
		return nil, crerr.Wrap(ErrExtractionFailure, "payload is not a JSON object")
	}
	data, ok := root["data"].(map[string]any)
	if !ok {
		return nil, crerr.Wrap(ErrExtractionFailure, "payload has no data object")
	}

	entries := make([]map[string]any, 0)
	for _, candidate := range candidateNodes(data, tier) {
		entries = append(entries, walkEntries(candidate)...)
	}
	if len(entries) == 0 {
		return nil, crerr.Wrapf(ErrExtractionFailure, "no statistic rows found for tier=%s", tier)
	}

	return entries, nil
}

// candidateNodes unions the tier bucket and the all-tiers bucket; the
// whole data object is used only when neither exists.
func candidateNodes(data map[string]any, tier Tier) []any {
	out := make([]any, 0, 2)
	if key, ok := tier.Key(); ok {
		if node, ok := data[key]; ok && node != nil {
			out = append(out, node)
		}
	}
	if node, ok := data[AllTiersKey]; ok && node != nil {
		out = append(out, node)
	}
	if len(out) == 0 {
		out = append(out, any(data))
	}
	return out
}

// walkEntries is a depth-first walk with an explicit stack. Qualifying
// objects are collected and still descended into.
func walkEntries(node any) []map[string]any {
	out := make([]map[string]any, 0)
	stack := []any{node}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch value := current.(type) {
		case map[string]any:
			if isStatEntry(value) {
				out = append(out, value)
			}
			keys := make([]string, 0, len(value))
			for key, child := range value {
				switch child.(type) {
				case map[string]any, []any:
					keys = append(keys, key)
				}
			}
			sort.Strings(keys)
			for i := len(keys) - 1; i >= 0; i-- {
				stack = append(stack, value[keys[i]])
			}
		case []any:
			for i := len(value) - 1; i >= 0; i-- {
				stack = append(stack, value[i])
			}
		}
	}

	return out
}

func isStatEntry(item map[string]any) bool {
	if !hasValue(item, fieldHeroID) || !hasValue(item, fieldPosition) {
		return false
	}
	for _, field := range rateFields {
		if !hasValue(item, field) && !hasValue(item, field+percentSuffix) {
			return false
		}
	}
	return true
}

func normalizeEntry(entry map[string]any, role Role, tier Tier, position int, heroes hero.Map) (NormalizedChampionRow, bool) {
	heroID, ok := hero.NormalizeID(entry[fieldHeroID])
	if !ok {
		return NormalizedChampionRow{}, false
	}

	identity := heroes[heroID]
	nameCN := firstNonEmpty(identity.NameCN, getString(entry, "hero_name"), getString(entry, "hero_title"))
	row := NormalizedChampionRow{
		HeroID:         heroID,
		HeroNameCN:     nameCN,
		HeroNameGlobal: identity.NameGlobal,
		Champion:       firstNonEmpty(identity.NameGlobal, nameCN, hero.SyntheticLabel(heroID)),
		Role:           role,
		Tier:           tier,
		Position:       &position,
		WinRate:        NormalizeRate(entry, fieldWinRate),
		PickRate:       NormalizeRate(entry, fieldPickRate),
		BanRate:        NormalizeRate(entry, fieldBanRate),
	}
	row.PriorityScore = scoring.Priority(row.WinRate, row.PickRate, row.BanRate)

	return row, true
}

// NormalizeRate reads field as a ratio. Values above 1 are percentages.
// When the raw field is missing the "_percent" field divided by 100 is
// used, and 0 when both are missing.
func NormalizeRate(entry map[string]any, field string) float64 {
	if value, ok := asFloat64(entry[field]); ok {
		if value > 1 {
			value /= 100
		}
		return clampRate(value)
	}
	if value, ok := asFloat64(entry[field+percentSuffix]); ok {
		return clampRate(value / 100)
	}
	return 0
}

func clampRate(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value > 1:
		return 1
	default:
		return value
	}
}

func outranks(candidate, current NormalizedChampionRow) bool {
	if candidate.PriorityScore != current.PriorityScore {
		return candidate.PriorityScore > current.PriorityScore
	}
	if candidate.BanRate != current.BanRate {
		return candidate.BanRate > current.BanRate
	}
	return candidate.PickRate > current.PickRate
}

// ScoreRows attaches priority, power and draft scores computed over rows.
func ScoreRows(rows []NormalizedChampionRow) {
	set := make([]scoring.Rates, len(rows))
	for i, row := range rows {
		set[i] = scoring.Rates{WinRate: row.WinRate, PickRate: row.PickRate, BanRate: row.BanRate}
	}
	for i, scores := range scoring.Annotate(set) {
		rows[i].PriorityScore = scores.Priority
		rows[i].PowerScore = scores.Power
		rows[i].DraftScore = scores.Draft
	}
}
