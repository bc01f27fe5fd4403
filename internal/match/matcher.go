// Package match ranks taxonomy use cases against an organization's
// enriched profile text by token-set overlap.
package match

import (
	"sort"
	"strings"

	"github.com/sells-group/sourcing-cli/internal/model"
)

// maxMatches caps how many ranked matches are kept per run.
const maxMatches = 20

// Tokenize lowercases s, replaces non-alphanumeric runes with spaces,
// splits on whitespace, and keeps tokens of length >= 3 as a set. Profile
// text and taxonomy items must go through this same function so overlap
// is symmetric.
func Tokenize(s string) map[string]bool {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	tokens := map[string]bool{}
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) >= 3 {
			tokens[tok] = true
		}
	}
	return tokens
}

// Overlap counts tokens present in both sets.
func Overlap(a, b map[string]bool) int {
	n := 0
	for tok := range a {
		if b[tok] {
			n++
		}
	}
	return n
}

// Scored is a use case with its overlap score against a profile.
type Scored struct {
	Edge  model.UseCaseEdge
	Score int
}

// Rank scores every item against the profile text, keeps those with a
// nonzero overlap, and returns them sorted by score descending (stable on
// input order for ties), capped at 20. This is unweighted token overlap,
// not TF-IDF or edit distance; an empty result is a valid outcome.
func Rank(profileText string, items []model.UseCaseEdge) []Scored {
	profile := Tokenize(profileText)

	var scored []Scored
	for _, item := range items {
		s := Overlap(profile, Tokenize(item.Category+" "+item.SubUseCase))
		if s >= 1 {
			scored = append(scored, Scored{Edge: item, Score: s})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > maxMatches {
		scored = scored[:maxMatches]
	}
	return scored
}
