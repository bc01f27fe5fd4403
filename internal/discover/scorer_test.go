package discover

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScoreAgainst(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		heading string
		want    int
	}{
		{"Acme", "acme cloud", "welcome to acme", 5},
		{"Acme", "acme cloud", "", 2},
		{"Acme", "", "acme", 3},
		{"Acme", "", "", 0},
		{"Acme Networks", "acme networks", "acme networks", 10},
		// Tokens shorter than 3 chars are ignored.
		{"Go AI", "go ai", "go ai", 0},
		// Only the first 3 tokens count.
		{"alpha beta gamma delta", "delta", "delta", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scoreAgainst(tt.title, tt.heading, tt.name),
			"scoreAgainst(%q, %q, %q)", tt.title, tt.heading, tt.name)
	}
}

func TestScoreAgainst_Monotone(t *testing.T) {
	// Adding a matched token never decreases the score.
	base := scoreAgainst("acme", "", "Acme Networks")
	more := scoreAgainst("acme networks", "", "Acme Networks")
	assert.GreaterOrEqual(t, more, base)
}

func TestScoreHomepage(t *testing.T) {
	html := `<html><head><title>Acme — Cloud GPU</title></head>
	<body><h1>Acme Compute Platform</h1></body></html>`
	assert.Equal(t, 5, ScoreHomepage(html, "Acme, Inc."))
}

func TestProbe_Reachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Acme</title></head><body><h1>Acme</h1></body></html>`))
	}))
	defer srv.Close()

	p := NewScorer(2 * time.Second).Probe(context.Background(), srv.URL, "Acme")
	assert.True(t, p.Reachable)
	assert.Equal(t, 5, p.Score)
}

func TestProbe_NonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Acme"}`))
	}))
	defer srv.Close()

	p := NewScorer(2 * time.Second).Probe(context.Background(), srv.URL, "Acme")
	assert.False(t, p.Reachable)
}

func TestProbe_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewScorer(2 * time.Second).Probe(context.Background(), srv.URL, "Acme")
	assert.False(t, p.Reachable)
}

func TestProbe_Unreachable(t *testing.T) {
	// Unreachable is a distinct outcome, not a zero-confidence score.
	p := NewScorer(500 * time.Millisecond).Probe(context.Background(), "http://127.0.0.1:1", "Acme")
	assert.False(t, p.Reachable)
	assert.Zero(t, p.Score)
}

func TestProbe_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	start := time.Now()
	p := NewScorer(200 * time.Millisecond).Probe(context.Background(), srv.URL, "Acme")
	assert.False(t, p.Reachable)
	assert.Less(t, time.Since(start), time.Second)
}
