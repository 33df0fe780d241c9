package cli

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance bounds how far a suggestion may be from the input.
const maxSuggestDistance = 4

type entry struct {
	id    string
	title string
}

// resolve finds ref among entries by id, then by case-insensitive title.
// When nothing matches the error names the closest title.
func resolve(kind, ref string, entries []entry) (string, error) {
	for _, e := range entries {
		if e.id == ref {
			return e.id, nil
		}
	}
	for _, e := range entries {
		if strings.EqualFold(e.title, ref) {
			return e.id, nil
		}
	}
	if s, ok := suggest(ref, entries); ok {
		return "", fmt.Errorf("%s %q not found, did you mean %q (%s)?", kind, ref, s.title, s.id)
	}
	return "", fmt.Errorf("%s %q not found", kind, ref)
}

func suggest(ref string, entries []entry) (entry, bool) {
	best, bestDist := entry{}, maxSuggestDistance+1
	needle := strings.ToLower(ref)
	for _, e := range entries {
		d := levenshtein.ComputeDistance(needle, strings.ToLower(e.title))
		if d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, bestDist <= maxSuggestDistance
}
