// Package types contains common types used across the application
package types

// ScoreBreakdown holds the three signals behind a candidate's score.
// Every value is in [0,1].
type ScoreBreakdown struct {
	CareerSimilarity      float64 `json:"careerSimilarity"`
	InstitutionSimilarity float64 `json:"institutionSimilarity"`
	OrganizationProximity float64 `json:"organizationProximity"`
	Blended               float64 `json:"blended"`
}

// AlignmentStep is one cell on the alignment path between the user's and a
// candidate's event sequences.
type AlignmentStep struct {
	UserIndex      int     `json:"userIndex"`
	CandidateIndex int     `json:"candidateIndex"`
	PairDistance   float64 `json:"pairDistance"`
}

// RerankResult is the scored outcome for one candidate.
type RerankResult struct {
	CandidateID string          `json:"candidateId"`
	Score       float64         `json:"score"`
	Breakdown   ScoreBreakdown  `json:"breakdown"`
	Alignment   []AlignmentStep `json:"alignment,omitempty"`
	// LoadError is set when the candidate's data could not be loaded and it
	// was scored zero.
	LoadError string `json:"loadError,omitempty"`
}

// Counters are the process-wide request counters.
type Counters struct {
	TotalRequests uint64 `json:"totalRequests"`
	CacheHits     uint64 `json:"cacheHits"`
	Reranks       uint64 `json:"reranks"`
	Errors        uint64 `json:"errors"`
}

// Timings reports how long each stage of a computed request took.
type Timings struct {
	EmbedMs float64 `json:"embed_ms"`
	LoadMs  float64 `json:"load_ms"`
	ScoreMs float64 `json:"score_ms"`
	TotalMs float64 `json:"total_ms"`
}
