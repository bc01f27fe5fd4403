package discover

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/sourcing-cli/internal/htmltext"
)

// maxBodyChars caps how much of a candidate homepage is read for scoring.
const maxBodyChars = 200000

// Probe is the outcome of fetching and scoring one candidate homepage.
// An unreachable page is a distinct outcome, not a score of zero: callers
// must not conflate fetch failure with zero lexical confidence.
type Probe struct {
	URL       string
	Reachable bool
	Score     int
}

// Scorer fetches candidate homepages and scores their lexical alignment
// with an organization name.
type Scorer struct {
	client *http.Client
}

// NewScorer creates a Scorer with the given per-fetch timeout. Redirects
// are followed; non-2xx and non-HTML responses count as unreachable.
func NewScorer(timeout time.Duration) *Scorer {
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	return &Scorer{
		client: &http.Client{Timeout: timeout},
	}
}

// Probe fetches url and scores it against name. A timed-out or failed
// fetch is abandoned and reported unreachable; it is not retried within
// the same resolution attempt.
func (s *Scorer) Probe(ctx context.Context, url, name string) *Probe {
	html, ok := s.fetchHTML(ctx, url)
	if !ok {
		return &Probe{URL: url}
	}
	return &Probe{URL: url, Reachable: true, Score: ScoreHomepage(html, name)}
}

func (s *Scorer) fetchHTML(ctx context.Context, url string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; SourcingBot/1.0)")
	req.Header.Set("Accept", "text/html,*/*")

	resp, err := s.client.Do(req)
	if err != nil {
		zap.L().Debug("discover: fetch failed", zap.String("url", url), zap.Error(err))
		return "", false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyChars))
	if err != nil {
		return "", false
	}
	return string(body), true
}

// ScoreHomepage computes the confidence score for a fetched homepage:
// for each of the first 3 normalized-name tokens of length >= 3, +2 when
// the token appears in the page title and +3 when it appears in the first
// heading. A token may score in both.
func ScoreHomepage(html, name string) int {
	title, heading, err := htmltext.TitleAndHeading(html)
	if err != nil {
		return 0
	}
	return scoreAgainst(strings.ToLower(title), strings.ToLower(heading), name)
}

func scoreAgainst(title, heading, name string) int {
	tokens := strings.Fields(strings.ToLower(CleanName(name)))
	if len(tokens) > 3 {
		tokens = tokens[:3]
	}

	score := 0
	for _, tok := range tokens {
		if len(tok) < 3 {
			continue
		}
		if strings.Contains(title, tok) {
			score += 2
		}
		if strings.Contains(heading, tok) {
			score += 3
		}
	}
	return score
}
