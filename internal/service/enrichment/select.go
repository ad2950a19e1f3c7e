package enrichment

import (
	"unicode/utf8"

	"github.com/havliksimon/anki-card-creator/internal/provider"
)

// pickCandidate returns the index of the candidate to use for term.
// Among candidates whose term equals term exactly, the one with the longest
// definition wins and the earliest wins a tie. Without an exact match the
// first candidate is used.
//
// The rule is a heuristic kept for compatibility with previously exported
// cards.
func pickCandidate(candidates []provider.DictionaryCandidate, term string) int {
	best, bestLen := -1, -1
	for i, c := range candidates {
		if c.Term != term {
			continue
		}
		if n := utf8.RuneCountInString(c.Definition); n > bestLen {
			best, bestLen = i, n
		}
	}
	if best < 0 {
		return 0
	}
	return best
}
