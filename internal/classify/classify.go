// Package classify derives enrichment artifacts from normalized homepage
// text and the static reference corpora. Every function here is pure:
// identical input text yields byte-identical artifacts, and absence of
// signal is always an explicit sentinel string, never an empty result.
package classify

import (
	"fmt"
	"strings"

	"github.com/sells-group/sourcing-cli/internal/corpus"
)

// Sentinel artifacts emitted when no signal was found. Downstream rendering
// and export rely on these never being empty strings.
const (
	NoOfferingsSentinel    = "No clear products/services found from the accessible website text."
	NoCapabilitiesSentinel = "No clear partner capability matches found from homepage text. (Needs manual review.)"
	LimitedGTMSentinel     = "Limited GTM signals detected on homepage; requires manual review."
)

const (
	capabilityTrailer = "Joint-solution hypothesis: bundle the organization's offering with the partner capabilities above (integration + co-selling), subject to technical diligence."
	gtmTrailer        = "GTM hypothesis: a strategic partner's global channel ecosystem and enterprise account access could accelerate distribution, assuming integration and positioning fit."
)

// SummarizeOfferings scans homepage text for lines that look like product or
// service offerings. Short cue-matching lines (menu items) are preferred;
// when fewer than 6 are found it falls back to cue-matching sentences.
func SummarizeOfferings(text string, cues []string) string {
	var picked []string
	seen := map[string]bool{}

	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if len(l) < 6 || len(l) > 90 {
			continue
		}
		if !matchesCue(l, cues) || seen[l] {
			continue
		}
		seen[l] = true
		picked = append(picked, l)
		if len(picked) >= 12 {
			break
		}
	}

	if len(picked) < 6 {
		sentences := splitSentences(text)
		if len(sentences) > 250 {
			sentences = sentences[:250]
		}
		for _, s := range sentences {
			s = strings.TrimSpace(s)
			if len(s) < 40 || len(s) > 240 {
				continue
			}
			if !matchesCue(s, cues) || seen[s] {
				continue
			}
			seen[s] = true
			picked = append(picked, s)
			if len(picked) >= 10 {
				break
			}
		}
	}

	if len(picked) == 0 {
		return NoOfferingsSentinel
	}

	var b strings.Builder
	for i, p := range picked {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, p)
	}
	return b.String()
}

// CapabilityAlignment tests each catalog item for case-insensitive substring
// containment in the text (both the item and its alphanumeric-stripped form)
// and renders the unique hits as a bulleted list with a fixed joint-solution
// trailer.
func CapabilityAlignment(text string, catalog []corpus.CapabilityGroup) string {
	t := strings.ToLower(text)

	type hit struct{ group, item string }
	var hits []hit
	seen := map[string]bool{}

	for _, g := range catalog {
		for _, item := range g.Items {
			token := strings.ToLower(item)
			token2 := stripNonAlnum(token)
			if token2 == "" {
				continue
			}
			if !strings.Contains(t, token2) && !strings.Contains(t, token) {
				continue
			}
			key := g.Group + ":" + item
			if seen[key] {
				continue
			}
			seen[key] = true
			hits = append(hits, hit{group: g.Group, item: item})
		}
	}

	if len(hits) == 0 {
		return NoCapabilitiesSentinel
	}
	if len(hits) > 12 {
		hits = hits[:12]
	}

	var b strings.Builder
	b.WriteString("Potential partner capability overlaps (from website text):\n")
	for _, h := range hits {
		fmt.Fprintf(&b, "- %s: %s\n", h.group, h.item)
	}
	b.WriteString("\n")
	b.WriteString(capabilityTrailer)
	return b.String()
}

// GTMSignals walks the ordered trigger table and collects the sentence for
// every trigger group that matches the text. No matches yields the single
// limited-signals sentence. A fixed GTM-hypothesis trailer is appended
// either way.
func GTMSignals(text string, table []corpus.GTMSignal) string {
	t := strings.ToLower(text)

	var signals []string
	for _, sig := range table {
		for _, trig := range sig.Triggers {
			if strings.Contains(t, trig) {
				signals = append(signals, sig.Sentence)
				break
			}
		}
	}
	if len(signals) == 0 {
		signals = append(signals, LimitedGTMSentinel)
	}

	var b strings.Builder
	b.WriteString("GTM leverage signals:\n")
	for _, s := range signals {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	b.WriteString("\n")
	b.WriteString(gtmTrailer)
	return b.String()
}

func matchesCue(s string, cues []string) bool {
	lower := strings.ToLower(s)
	for _, cue := range cues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitSentences segments text into spans ending at [.!?] followed by
// whitespace, keeping the terminator with its span.
func splitSentences(text string) []string {
	var out []string
	start := 0
	rs := []rune(text)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(rs) && !isSpace(rs[i+1]) {
			continue
		}
		out = append(out, string(rs[start:i+1]))
		// Skip the whitespace run after the terminator.
		j := i + 1
		for j < len(rs) && isSpace(rs[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(rs) {
		out = append(out, string(rs[start:]))
	}
	return out
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
