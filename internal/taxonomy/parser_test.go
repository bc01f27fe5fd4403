package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sourcing-cli/internal/corpus"
)

func newTestParser() *Parser {
	return NewParser(corpus.Default(), nil)
}

func TestPriorityTopics_Basic(t *testing.T) {
	lines := []string{
		"Some intro",
		"Priority topics",
		"Zero Trust",
		"Cloud Security",
		"Use cases",
		"Network",
	}
	got := newTestParser().PriorityTopics(lines)
	assert.Equal(t, []string{"Zero Trust", "Cloud Security"}, got)
}

func TestPriorityTopics_MissingMarker(t *testing.T) {
	assert.Empty(t, newTestParser().PriorityTopics([]string{"no markers here"}))
}

func TestPriorityTopics_StopsAtUnrelatedIndustries(t *testing.T) {
	lines := []string{
		"Priority topics",
		"Zero Trust",
		"Related to other industries",
		"Leaked Topic",
	}
	got := newTestParser().PriorityTopics(lines)
	assert.Equal(t, []string{"Zero Trust"}, got)
}

func TestPriorityTopics_LengthAndDedupe(t *testing.T) {
	long := make([]byte, 81)
	for i := range long {
		long[i] = 'x'
	}
	lines := []string{
		"Priority topics",
		"ab", // too short
		string(long),
		"Zero Trust",
		"Zero Trust",
	}
	got := newTestParser().PriorityTopics(lines)
	assert.Equal(t, []string{"Zero Trust"}, got)
}

func TestPriorityTopics_WindowBound(t *testing.T) {
	lines := []string{"Priority topics"}
	for range 45 {
		lines = append(lines, "Topic Filler Line")
	}
	lines = append(lines, "Beyond Window")
	got := newTestParser().PriorityTopics(lines)
	assert.NotContains(t, got, "Beyond Window")
}

func TestUseCases_ScenarioWalkthrough(t *testing.T) {
	lines := []string{
		"Priority topics",
		"Zero Trust",
		"Cloud Security",
		"Use cases",
		"Network",
		"VPN",
		"Secure Access",
		"Network",
		"Segmentation",
	}
	p := newTestParser()

	topics := p.PriorityTopics(lines)
	assert.ElementsMatch(t, []string{"Zero Trust", "Cloud Security"}, topics)

	pairs := p.UseCases(lines)
	assert.Equal(t, []Pair{
		{Category: "Network", Sub: "VPN"},
		{Category: "Network", Sub: "Secure Access"},
		{Category: "Network", Sub: "Segmentation"},
	}, pairs)
}

func TestUseCases_SingleOccurrenceIsNotAHeader(t *testing.T) {
	lines := []string{
		"Use cases",
		"Network", // appears once: never a category
		"VPN",
	}
	pairs := newTestParser().UseCases(lines)
	assert.Empty(t, pairs)
}

func TestUseCases_LinesBeforeFirstHeaderDropped(t *testing.T) {
	lines := []string{
		"Use cases",
		"Orphan Item",
		"Security",
		"Threat Hunting",
		"Security",
		"Incident Response",
	}
	pairs := newTestParser().UseCases(lines)
	assert.Equal(t, []Pair{
		{Category: "Security", Sub: "Threat Hunting"},
		{Category: "Security", Sub: "Incident Response"},
	}, pairs)
}

func TestUseCases_StopLineEndsWindow(t *testing.T) {
	lines := []string{
		"Use cases",
		"Network",
		"VPN",
		"Network",
		"Architecture Map",
		"After Stop",
	}
	pairs := newTestParser().UseCases(lines)
	require.Len(t, pairs, 1)
	assert.Equal(t, Pair{Category: "Network", Sub: "VPN"}, pairs[0])
}

func TestUseCases_NoiseLinesSkipped(t *testing.T) {
	lines := []string{
		"Use cases",
		"New",
		"Network",
		"Filter and search",
		"VPN",
		"Network",
	}
	pairs := newTestParser().UseCases(lines)
	assert.Equal(t, []Pair{{Category: "Network", Sub: "VPN"}}, pairs)
}

func TestUseCases_CaseInsensitiveDedupe(t *testing.T) {
	lines := []string{
		"Use cases",
		"Network",
		"VPN",
		"Network",
		"vpn",
	}
	pairs := newTestParser().UseCases(lines)
	assert.Equal(t, []Pair{{Category: "Network", Sub: "VPN"}}, pairs)
}

func TestUseCases_MissingMarker(t *testing.T) {
	assert.Empty(t, newTestParser().UseCases([]string{"Priority topics", "Zero Trust"}))
}

func TestRepetitionInferencer(t *testing.T) {
	inf := RepetitionInferencer{MinCount: 2, MaxLen: 80}

	window := []string{"Network", "VPN", "Network", "Security", "Security", "Security"}
	headers := inf.InferHeaders(window)

	assert.True(t, headers["Network"])
	assert.True(t, headers["Security"])
	assert.False(t, headers["VPN"])
}

func TestRepetitionInferencer_LongLinesIgnored(t *testing.T) {
	long := string(make([]byte, 81))
	headers := RepetitionInferencer{MinCount: 2, MaxLen: 80}.InferHeaders([]string{long, long})
	assert.False(t, headers[long])
}

// fixedInferencer demonstrates the pairing walk is independent of the
// header heuristic.
type fixedInferencer struct{ headers map[string]bool }

func (f fixedInferencer) InferHeaders(_ []string) map[string]bool { return f.headers }

func TestUseCases_SwappableInference(t *testing.T) {
	lines := []string{
		"Use cases",
		"Network", // single occurrence, but the injected strategy calls it a header
		"VPN",
	}
	p := NewParser(corpus.Default(), fixedInferencer{headers: map[string]bool{"Network": true}})
	pairs := p.UseCases(lines)
	assert.Equal(t, []Pair{{Category: "Network", Sub: "VPN"}}, pairs)
}
