// Package corpus holds the static reference corpora used by classification
// and taxonomy parsing. Corpora are loaded once at startup and treated as
// read-only; they are passed explicitly to the functions that consume them,
// never read from process globals.
package corpus

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// CapabilityGroup is one group of partner capabilities checked against
// homepage text during enrichment.
type CapabilityGroup struct {
	Group string   `yaml:"group"`
	Items []string `yaml:"items"`
}

// PeerSet maps a trigger keyword to suggested peer organizations.
type PeerSet struct {
	Keyword string   `yaml:"keyword"`
	Peers   []string `yaml:"peers"`
}

// GTMSignal pairs substring triggers with the sentence emitted when any
// trigger matches. The table is ordered; output order follows table order.
type GTMSignal struct {
	Triggers []string
	Sentence string
}

// Corpus bundles every reference corpus the pipeline needs.
type Corpus struct {
	Capabilities []CapabilityGroup
	PeerSets     []PeerSet
	OfferingCues []string
	GTMSignals   []GTMSignal

	// Taxonomy parsing lexicons. A stop line ends the use-cases scan; a
	// noise line is skipped without ending it.
	TaxonomyStopLines  []string
	TaxonomyNoiseLines []string
}

// Default returns the compiled-in corpus.
func Default() *Corpus {
	return &Corpus{
		Capabilities: defaultCapabilities(),
		PeerSets:     defaultPeerSets(),
		OfferingCues: []string{
			"product", "products", "solution", "solutions", "platform",
			"service", "services", "gpu", "compute", "inference", "training",
			"cloud", "security", "network", "storage", "kubernetes",
			"observability",
		},
		GTMSignals: []GTMSignal{
			{Triggers: []string{"enterprise"}, Sentence: "Enterprise focus (partner channel relevant)"},
			{Triggers: []string{"partners", "channel"}, Sentence: "Mentions partners/channel (possible co-sell motion)"},
			{Triggers: []string{"integrat"}, Sentence: "Mentions integrations (ecosystem leverage)"},
			{Triggers: []string{"managed service", "msp"}, Sentence: "MSP/MSSP motion (partner ecosystem)"},
			{Triggers: []string{"security"}, Sentence: "Security-led messaging (security GTM adjacency)"},
			{Triggers: []string{"network"}, Sentence: "Network adjacency (networking GTM adjacency)"},
		},
		TaxonomyStopLines: []string{
			"architecture map", "applied filters:", "clear all", "back",
		},
		TaxonomyNoiseLines: []string{
			"close filter and search use cases to find exactly what you’re looking for.",
			"new",
			"filter and search",
			"priority topics",
			"related to other industries",
			"related to government",
		},
	}
}

// Load returns the default corpus with optional YAML overrides applied for
// the capability catalog and peer sets. Empty paths keep the defaults.
func Load(capabilitiesPath, peerSetsPath string) (*Corpus, error) {
	c := Default()

	if capabilitiesPath != "" {
		var doc struct {
			Capabilities []CapabilityGroup `yaml:"capabilities"`
		}
		if err := readYAML(capabilitiesPath, &doc); err != nil {
			return nil, eris.Wrap(err, "corpus: load capabilities")
		}
		if len(doc.Capabilities) == 0 {
			return nil, eris.Errorf("corpus: %s has no capabilities", capabilitiesPath)
		}
		c.Capabilities = doc.Capabilities
	}

	if peerSetsPath != "" {
		var doc struct {
			Queries []PeerSet `yaml:"queries"`
		}
		if err := readYAML(peerSetsPath, &doc); err != nil {
			return nil, eris.Wrap(err, "corpus: load peer sets")
		}
		c.PeerSets = doc.Queries
	}

	return c, nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "corpus: read %s", path)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return eris.Wrapf(err, "corpus: parse %s", path)
	}
	return nil
}

func defaultCapabilities() []CapabilityGroup {
	return []CapabilityGroup{
		{Group: "Networking", Items: []string{
			"SD-WAN", "Wireless", "Switching", "Routing", "Network Automation",
			"Data Center Networking",
		}},
		{Group: "Security", Items: []string{
			"Zero Trust", "Firewall", "Secure Access", "XDR",
			"Multi-Factor Authentication", "Email Security", "Cloud Security",
		}},
		{Group: "Observability", Items: []string{
			"Full-Stack Observability", "Application Monitoring",
			"Network Assurance", "Internet Monitoring",
		}},
		{Group: "Collaboration", Items: []string{
			"Calling", "Meetings", "Contact Center", "Devices",
		}},
		{Group: "Compute", Items: []string{
			"Unified Computing", "Hyperconverged Infrastructure",
			"Edge Computing", "GPU Infrastructure",
		}},
		{Group: "Cloud", Items: []string{
			"Hybrid Cloud", "Kubernetes", "Cloud Native", "Multicloud Defense",
		}},
	}
}

func defaultPeerSets() []PeerSet {
	return []PeerSet{
		{Keyword: "gpu", Peers: []string{"CoreWeave", "Lambda", "Crusoe", "Together AI"}},
		{Keyword: "cloud", Peers: []string{"DigitalOcean", "OVHcloud", "Vultr", "Scaleway"}},
		{Keyword: "security", Peers: []string{"Wiz", "CrowdStrike", "SentinelOne", "Arctic Wolf"}},
		{Keyword: "network", Peers: []string{"Arista Networks", "Juniper Networks", "Cloudflare"}},
		{Keyword: "observability", Peers: []string{"Datadog", "Dynatrace", "Grafana Labs"}},
		{Keyword: "storage", Peers: []string{"Pure Storage", "VAST Data", "Wasabi"}},
		{Keyword: "kubernetes", Peers: []string{"SUSE", "Mirantis", "Spectro Cloud"}},
	}
}
