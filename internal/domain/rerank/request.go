package rerank

import (
	"math"
	"strings"

	"github.com/okian/careerrank/internal/domain/model"
	"github.com/okian/careerrank/internal/domain/types"
)

// Request is a scoring request as received from clients.
type Request struct {
	UserEvents   []model.TimelineEvent `json:"userEvents"`
	CandidateIDs []string              `json:"candidateIds"`
	// Gamma is the Soft-DTW smoothing. Nil selects the configured default.
	Gamma            *float64      `json:"gamma,omitempty"`
	Goal             model.Goal    `json:"goal"`
	Profile          model.Profile `json:"profile"`
	IncludeAlignment bool          `json:"includeAlignment"`
	// TopN limits the returned results after sorting. Zero returns all.
	TopN int `json:"topN,omitempty"`
}

// Response is the ranked outcome of a request.
type Response struct {
	Results       []types.RerankResult `json:"results"`
	Cached        bool                 `json:"cached"`
	CorrelationID string               `json:"correlationId"`
	Timings       *types.Timings       `json:"timings,omitempty"`
}

// normalized is a validated request with defaults applied. It is the input
// to both the pipeline and the fingerprint.
type normalized struct {
	UserEvents       []model.TimelineEvent `json:"userEvents"`
	CandidateIDs     []string              `json:"candidateIds"`
	Gamma            float64               `json:"gamma"`
	Goal             model.Goal            `json:"goal"`
	Profile          model.Profile         `json:"profile"`
	IncludeAlignment bool                  `json:"includeAlignment"`
	topN             int
}

func (r Request) normalize(defaultGamma float64, maxCandidates int) (normalized, error) {
	n := normalized{
		UserEvents:       make([]model.TimelineEvent, 0, len(r.UserEvents)),
		CandidateIDs:     make([]string, 0, len(r.CandidateIDs)),
		Gamma:            defaultGamma,
		IncludeAlignment: r.IncludeAlignment,
		topN:             r.TopN,
		Goal: model.Goal{
			TargetOrganization: strings.TrimSpace(r.Goal.TargetOrganization),
			TargetPeriod:       strings.TrimSpace(r.Goal.TargetPeriod),
		},
		Profile: model.Profile{
			Institution: strings.TrimSpace(r.Profile.Institution),
			Field:       strings.TrimSpace(r.Profile.Field),
		},
	}

	for i, e := range r.UserEvents {
		if e.IsEmpty() {
			return normalized{}, invalidRequest("userEvents[%d] has no role, organization or period", i)
		}
		n.UserEvents = append(n.UserEvents, model.TimelineEvent{
			Role:         strings.TrimSpace(e.Role),
			Organization: strings.TrimSpace(e.Organization),
			PeriodLabel:  strings.TrimSpace(e.PeriodLabel),
		})
	}

	if len(r.CandidateIDs) == 0 {
		return normalized{}, invalidRequest("candidateIds is empty")
	}
	seen := make(map[string]struct{}, len(r.CandidateIDs))
	for i, id := range r.CandidateIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return normalized{}, invalidRequest("candidateIds[%d] is empty", i)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		n.CandidateIDs = append(n.CandidateIDs, id)
	}
	if maxCandidates > 0 && len(n.CandidateIDs) > maxCandidates {
		return normalized{}, invalidRequest("%d candidates exceeds limit %d", len(n.CandidateIDs), maxCandidates)
	}

	if r.Gamma != nil {
		g := *r.Gamma
		if !(g > 0) || math.IsInf(g, 1) {
			return normalized{}, invalidRequest("gamma %v must be positive", g)
		}
		n.Gamma = g
	}
	if r.TopN < 0 {
		return normalized{}, invalidRequest("topN %d is negative", r.TopN)
	}
	return n, nil
}
