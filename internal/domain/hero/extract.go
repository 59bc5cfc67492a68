package hero

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
)

// ErrNoIdentities marks an extraction that decoded nothing usable.
var ErrNoIdentities = crerr.New("no hero identities extracted")

var (
	idAliases     = []string{"heroId", "hero_id", "heroid", "id"}
	nameAliases   = []string{"name", "hero_name", "heroName", "title"}
	posterAliases = []string{"poster", "posterUrl", "poster_url"}

	posterSuffixRegex = regexp.MustCompile(`^(.+)_\d+\.[A-Za-z0-9]+$`)
)

// Attempt records why one candidate of one strategy failed.
type Attempt struct {
	Strategy string
	Reason   string
}

// ExtractionError lists every failed attempt in order.
type ExtractionError struct {
	Attempts []Attempt
}

func (e *ExtractionError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Strategy+": "+a.Reason)
	}
	return "hero map extraction failed: " + strings.Join(parts, "; ")
}

func (e *ExtractionError) Unwrap() error {
	return ErrNoIdentities
}

// Extract parses a hero-list script into a Map by trying Strategies in
// order. The first candidate that decodes and yields at least one
// identity wins.
func Extract(script string) (Map, error) {
	var attempts []Attempt

	for _, strategy := range Strategies {
		candidates := strategy.Candidates(script)
		if len(candidates) == 0 {
			attempts = append(attempts, Attempt{Strategy: strategy.Name, Reason: "no candidate found"})
			continue
		}

		for idx, candidate := range candidates {
			name := strategy.Name
			if len(candidates) > 1 {
				name = fmt.Sprintf("%s[%d]", strategy.Name, idx)
			}

			tree, err := decodeCandidate(candidate)
			if err != nil {
				attempts = append(attempts, Attempt{Strategy: name, Reason: "decode: " + abbreviate(err.Error())})
				continue
			}

			items := Walk(tree)
			if len(items) == 0 {
				attempts = append(attempts, Attempt{Strategy: name, Reason: "decoded but no hero identities"})
				continue
			}
			return items, nil
		}
	}

	return nil, &ExtractionError{Attempts: attempts}
}

func decodeCandidate(candidate string) (any, error) {
	var tree any
	if err := sonic.UnmarshalString(NormalizeRelaxedJSON(candidate), &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// Walk collects identities depth-first. A qualifying object is not
// descended into and the first identity seen for an id is kept.
func Walk(tree any) Map {
	out := make(Map)
	stack := []any{tree}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch value := node.(type) {
		case map[string]any:
			if identity, ok := identityFromObject(value); ok {
				if _, exists := out[identity.HeroID]; !exists {
					out[identity.HeroID] = identity
				}
				continue
			}
			keys := make([]string, 0, len(value))
			for key := range value {
				keys = append(keys, key)
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

func identityFromObject(obj map[string]any) (Identity, bool) {
	var heroID string
	for _, alias := range idAliases {
		raw, ok := obj[alias]
		if !ok {
			continue
		}
		if id, ok := NormalizeID(raw); ok {
			heroID = id
			break
		}
	}
	if heroID == "" {
		return Identity{}, false
	}

	identity := Identity{
		HeroID:     heroID,
		NameCN:     firstString(obj, nameAliases),
		NameGlobal: GlobalNameFromPoster(firstString(obj, posterAliases)),
	}
	if identity.NameCN == "" && identity.NameGlobal == "" {
		return Identity{}, false
	}
	return identity, true
}

// GlobalNameFromPoster derives the global name from a poster filename such
// as ".../Annie_0.jpg". It returns "" when the suffix is absent.
func GlobalNameFromPoster(poster string) string {
	poster = strings.TrimSpace(poster)
	if poster == "" {
		return ""
	}
	if idx := strings.IndexAny(poster, "?#"); idx >= 0 {
		poster = poster[:idx]
	}
	base := path.Base(poster)
	match := posterSuffixRegex.FindStringSubmatch(base)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

func firstString(obj map[string]any, aliases []string) string {
	for _, alias := range aliases {
		if value, ok := obj[alias].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func abbreviate(s string) string {
	const max = 160
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
