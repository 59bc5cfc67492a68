package meta

import (
	"sort"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/hero"
)

type SortKey string

const (
	SortPriority SortKey = "priority_score"
	SortPower    SortKey = "power_score"
	SortDraft    SortKey = "draft_score"
	SortWinRate  SortKey = "winrate"
	SortPickRate SortKey = "pickrate"
	SortBanRate  SortKey = "banrate"
)

type SortDir string

const (
	SortDesc SortDir = "desc"
	SortAsc  SortDir = "asc"
)

type View string

const (
	ViewPriority View = "priority"
	ViewPower    View = "power"
	ViewDraft    View = "draft"
)

type NameLang string

const (
	NameLangAuto   NameLang = "auto"
	NameLangGlobal NameLang = "global"
	NameLangCN     NameLang = "cn"
)

// DefaultSort returns the sort key a view ranks by.
func (v View) DefaultSort() SortKey {
	switch v {
	case ViewPower:
		return SortPower
	case ViewDraft:
		return SortDraft
	default:
		return SortPriority
	}
}

func (k SortKey) value(row NormalizedChampionRow) float64 {
	switch k {
	case SortPower:
		return row.PowerScore
	case SortDraft:
		return row.DraftScore
	case SortWinRate:
		return row.WinRate
	case SortPickRate:
		return row.PickRate
	case SortBanRate:
		return row.BanRate
	default:
		return row.PriorityScore
	}
}

// SortRows orders rows by key in place. Ties fall back to hero id so the
// output is deterministic.
func SortRows(rows []NormalizedChampionRow, key SortKey, dir SortDir) {
	sort.SliceStable(rows, func(i, j int) bool {
		left, right := key.value(rows[i]), key.value(rows[j])
		if left != right {
			if dir == SortAsc {
				return left < right
			}
			return left > right
		}
		return rows[i].HeroID < rows[j].HeroID
	})
}

// ApplyNameLang re-resolves Champion from the stored names.
func ApplyNameLang(rows []NormalizedChampionRow, lang NameLang) {
	for i := range rows {
		row := &rows[i]
		fallback := row.Champion
		if fallback == "" && row.HeroID != "" {
			fallback = hero.SyntheticLabel(row.HeroID)
		}
		switch lang {
		case NameLangCN:
			row.Champion = firstNonEmpty(row.HeroNameCN, row.HeroNameGlobal, fallback)
		case NameLangGlobal, NameLangAuto, "":
			row.Champion = firstNonEmpty(row.HeroNameGlobal, row.HeroNameCN, fallback)
		}
	}
}
