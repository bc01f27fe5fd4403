// Package discover finds an organization's canonical website by generating
// and scoring candidate homepage URLs.
package discover

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/sourcing-cli/internal/model"
)

var (
	legalSuffixRe = regexp.MustCompile(`(?i)\b(inc|llc|ltd|limited|corp|corporation|co|company|plc|gmbh|ag|pte|sas|sarl)\b`)
	nonAlnumRe    = regexp.MustCompile(`[^a-zA-Z0-9 ]`)
	spaceRe       = regexp.MustCompile(`\s+`)

	deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// CleanName normalizes an organization name for slug generation and
// scoring: folds diacritics, strips legal-entity suffixes, drops
// non-alphanumeric characters, and collapses whitespace.
func CleanName(name string) string {
	if folded, _, err := transform.String(deaccent, name); err == nil {
		name = folded
	}
	name = legalSuffixRe.ReplaceAllString(name, "")
	name = nonAlnumRe.ReplaceAllString(name, " ")
	name = spaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// Slug returns the concatenated base slug ("Acme Networks" -> "acmenetworks").
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(CleanName(name)), " ", "")
}

// SlugHyphen returns the hyphen-joined base slug ("Acme Networks" -> "acme-networks").
func SlugHyphen(name string) string {
	return strings.ReplaceAll(strings.ToLower(CleanName(name)), " ", "-")
}

// Candidates generates the ordered candidate homepage URLs for a name:
// one per (base slug x TLD x {bare, www.}), slug-major / TLD-minor. The
// list is deterministic for a given name. An empty normalized name yields
// no candidates.
func Candidates(name string, tlds []string) []model.CandidateSite {
	var bases []string
	seen := map[string]bool{}
	for _, b := range []string{Slug(name), SlugHyphen(name)} {
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		bases = append(bases, b)
	}

	var out []model.CandidateSite
	for _, b := range bases {
		for _, tld := range tlds {
			domain := b + tld
			out = append(out,
				model.CandidateSite{URL: "https://" + domain, Domain: domain},
				model.CandidateSite{URL: "https://www." + domain, Domain: domain},
			)
		}
	}
	return out
}
