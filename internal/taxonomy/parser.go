// Package taxonomy parses semi-structured industry portfolio pages into
// priority topics and (category, sub-use-case) pairs, and imports them.
package taxonomy

import (
	"strings"

	"github.com/sells-group/sourcing-cli/internal/corpus"
)

// Window sizes for the two page sections, counted in extracted lines after
// the section marker.
const (
	priorityTopicsWindow = 40
	useCasesWindow       = 220
)

// Pair is one (category, sub-use-case) edge parsed from a page.
type Pair struct {
	Category string
	Sub      string
}

// HeaderInferencer infers which lines of a filtered use-cases window are
// category headers. The pairing walk is independent of the heuristic used.
type HeaderInferencer interface {
	InferHeaders(window []string) map[string]bool
}

// RepetitionInferencer infers headers from repetition: the source pages
// render each category once per sub-item as a breadcrumb, so a line that
// repeats is a header. This is a heuristic tied to page structure, not a
// grammar; treat the thresholds as load-bearing.
type RepetitionInferencer struct {
	MinCount int // occurrences required to call a line a header
	MaxLen   int // headers longer than this are ignored
}

// InferHeaders returns the lines occurring at least MinCount times with
// length at most MaxLen.
func (r RepetitionInferencer) InferHeaders(window []string) map[string]bool {
	counts := make(map[string]int, len(window))
	for _, l := range window {
		counts[l]++
	}

	headers := map[string]bool{}
	for l, n := range counts {
		if n >= r.MinCount && len(l) <= r.MaxLen {
			headers[l] = true
		}
	}
	return headers
}

// Parser turns extracted page lines into topics and use-case pairs using
// the configured lexicons and header-inference strategy.
type Parser struct {
	stop       map[string]bool
	noise      map[string]bool
	inferencer HeaderInferencer
}

// NewParser builds a Parser from the corpus lexicons. A nil inferencer
// defaults to repetition-based inference (>= 2 occurrences, <= 80 chars).
func NewParser(c *corpus.Corpus, inferencer HeaderInferencer) *Parser {
	if inferencer == nil {
		inferencer = RepetitionInferencer{MinCount: 2, MaxLen: 80}
	}
	return &Parser{
		stop:       lowerSet(c.TaxonomyStopLines),
		noise:      lowerSet(c.TaxonomyNoiseLines),
		inferencer: inferencer,
	}
}

// PriorityTopics returns the deduplicated topics listed after the
// "Priority topics" marker. A missing marker yields an empty result.
func (p *Parser) PriorityTopics(lines []string) []string {
	start := findMarker(lines, "priority topics")
	if start == -1 {
		return nil
	}

	var out []string
	seen := map[string]bool{}
	end := min(len(lines), start+1+priorityTopicsWindow)
	for _, l := range lines[start+1 : end] {
		lower := strings.ToLower(l)
		if lower == "use cases" || strings.Contains(lower, "related to other industries") {
			break
		}
		if len(l) < 3 || len(l) > 80 || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// UseCases parses the section after the "Use cases" marker into
// (category, sub-use-case) pairs. Pass 1 materializes the filtered window
// and infers headers from it; pass 2 walks the window in order, assigning
// sub-items to the current category. Lines before the first header are
// dropped. Pairs are deduplicated case-insensitively.
func (p *Parser) UseCases(lines []string) []Pair {
	start := findMarker(lines, "use cases")
	if start == -1 {
		return nil
	}

	end := min(len(lines), start+1+useCasesWindow)
	var window []string
	for _, l := range lines[start+1 : end] {
		lower := strings.ToLower(l)
		if p.stop[lower] {
			break
		}
		if p.noise[lower] {
			continue
		}
		window = append(window, l)
	}

	headers := p.inferencer.InferHeaders(window)

	var pairs []Pair
	seen := map[string]bool{}
	category := ""
	for _, l := range window {
		if headers[l] {
			category = l
			continue
		}
		if category == "" || len(l) > 140 {
			continue
		}
		key := strings.ToLower(category + "||" + l)
		if seen[key] {
			continue
		}
		seen[key] = true
		pairs = append(pairs, Pair{Category: category, Sub: l})
	}
	return pairs
}

func findMarker(lines []string, marker string) int {
	for i, l := range lines {
		if strings.EqualFold(l, marker) {
			return i
		}
	}
	return -1
}

func lowerSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[strings.ToLower(s)] = true
	}
	return m
}
