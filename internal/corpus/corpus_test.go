package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.NotEmpty(t, c.Capabilities)
	assert.NotEmpty(t, c.PeerSets)
	assert.Contains(t, c.OfferingCues, "platform")
	assert.Contains(t, c.OfferingCues, "kubernetes")
	require.Len(t, c.GTMSignals, 6)
	assert.Equal(t, []string{"enterprise"}, c.GTMSignals[0].Triggers)
	assert.Contains(t, c.TaxonomyStopLines, "architecture map")
	assert.Contains(t, c.TaxonomyNoiseLines, "priority topics")
}

func TestLoadNoOverrides(t *testing.T) {
	c, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, Default().OfferingCues, c.OfferingCues)
	assert.Equal(t, Default().Capabilities, c.Capabilities)
}

func TestLoadCapabilityOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capabilities.yaml")
	doc := `
capabilities:
  - group: Security
    items:
      - Zero Trust
      - Secure Access
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	c, err := Load(path, "")
	require.NoError(t, err)
	require.Len(t, c.Capabilities, 1)
	assert.Equal(t, "Security", c.Capabilities[0].Group)
	assert.Equal(t, []string{"Zero Trust", "Secure Access"}, c.Capabilities[0].Items)
	// Untouched corpora keep defaults.
	assert.NotEmpty(t, c.PeerSets)
}

func TestLoadPeerSetOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "peers.yaml")
	doc := `
queries:
  - keyword: fintech
    peers: [Stripe, Adyen]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	c, err := Load("", path)
	require.NoError(t, err)
	require.Len(t, c.PeerSets, 1)
	assert.Equal(t, "fintech", c.PeerSets[0].Keyword)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("/nonexistent/capabilities.yaml", "")
	assert.Error(t, err)

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("capabilities: []"), 0o600))
	_, err = Load(empty, "")
	assert.Error(t, err)
}
