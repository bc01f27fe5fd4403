package model

// CandidateSite is a plausible homepage URL generated from a normalized
// organization name, pre-verification. Candidates are transient and never
// persisted.
type CandidateSite struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
	Score  int    `json:"score"`
}
