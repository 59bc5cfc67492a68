package hero

import (
	"strconv"
	"strings"
)

// Identity names one hero in both languages. Either name may be empty.
type Identity struct {
	HeroID     string `json:"-"`
	NameCN     string `json:"hero_name_cn,omitempty"`
	NameGlobal string `json:"hero_name_global,omitempty"`
}

// Map is keyed by the integer-normalized hero id.
type Map map[string]Identity

func SyntheticLabel(heroID string) string {
	return "hero_" + heroID
}

// NormalizeID converts an upstream id (number or numeric string) into its
// canonical integer string. ok is false when the value is not integral.
func NormalizeID(v any) (string, bool) {
	switch value := v.(type) {
	case float64:
		if value != float64(int64(value)) {
			return "", false
		}
		return strconv.FormatInt(int64(value), 10), true
	case int:
		return strconv.Itoa(value), true
	case int64:
		return strconv.FormatInt(value, 10), true
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return "", false
		}
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return strconv.FormatInt(n, 10), true
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || f != float64(int64(f)) {
			return "", false
		}
		return strconv.FormatInt(int64(f), 10), true
	default:
		return "", false
	}
}
