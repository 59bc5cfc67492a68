package hero

import (
	"regexp"
	"strings"
)

// Strategy cuts candidate payload strings out of script text. An empty
// result means the strategy did not apply.
type Strategy struct {
	Name       string
	Candidates func(text string) []string
}

var assignmentRegex = regexp.MustCompile(`(?s)[A-Za-z_$][\w$.]*\s*=\s*([\[{].*?[\]}])\s*;`)

// Strategies is the ordered fallback chain used by Extract.
var Strategies = []Strategy{
	{Name: "assignment", Candidates: assignmentCandidates},
	{Name: "bracket_slice", Candidates: sliceCandidates('[', ']')},
	{Name: "brace_slice", Candidates: sliceCandidates('{', '}')},
}

func assignmentCandidates(text string) []string {
	matches := assignmentRegex.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, match := range matches {
		if len(match) > 1 {
			out = append(out, match[1])
		}
	}
	return out
}

func sliceCandidates(open, close byte) func(string) []string {
	return func(text string) []string {
		start := strings.IndexByte(text, open)
		end := strings.LastIndexByte(text, close)
		if start < 0 || end <= start {
			return nil
		}
		return []string{text[start : end+1]}
	}
}
