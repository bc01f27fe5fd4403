// Package htmltext converts untrusted HTML documents into normalized plain
// text for downstream classification and taxonomy parsing.
package htmltext

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// maxTextChars bounds the normalized text returned by Text. Truncation
// happens after normalization so the cap applies to the final form.
const maxTextChars = 20000

var (
	hspaceRe = regexp.MustCompile(`[ \t]{2,}`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
)

// parse loads HTML and strips script/style/noscript/svg subtrees, converts
// <br> to newlines, and injects a leading newline before block-level and
// heading content so adjacent blocks don't merge into one word run.
func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "htmltext: parse")
	}

	doc.Find("script, style, noscript, svg").Remove()
	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml("\n")
	})
	doc.Find("p, li, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) != "" {
			s.PrependHtml("\n")
		}
	})

	return doc, nil
}

func normalize(raw string) string {
	text := strings.ReplaceAll(raw, "\r", "")
	text = hspaceRe.ReplaceAllString(text, " ")
	text = blankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Text extracts visible page text as one normalized blob, capped at 20,000
// characters.
func Text(html string) (string, error) {
	doc, err := parse(html)
	if err != nil {
		return "", err
	}

	text := normalize(doc.Find("body").Text())
	if runes := []rune(text); len(runes) > maxTextChars {
		text = string(runes[:maxTextChars])
	}
	return text, nil
}

// Lines extracts visible page text as an ordered sequence of non-empty,
// trimmed lines. Used for semi-structured taxonomy pages.
func Lines(html string) ([]string, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}

	raw := strings.ReplaceAll(doc.Find("body").Text(), "\r", "")
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		l = strings.TrimSpace(hspaceRe.ReplaceAllString(l, " "))
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

// TitleAndHeading returns the page <title> and the text of the first <h1>.
func TitleAndHeading(html string) (title, heading string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", eris.Wrap(err, "htmltext: parse")
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())
	heading = strings.TrimSpace(doc.Find("h1").First().Text())
	return title, heading, nil
}
