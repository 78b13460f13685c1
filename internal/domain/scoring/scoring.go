// Package scoring implements the heuristic organization and institution
// scorers and the blender that combines them with career similarity.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/careerrank/internal/domain/types"
)

// Proximity levels returned by OrganizationProximity.
const (
	ProximityExact     = 1.0
	ProximityNeighbor  = 0.8
	ProximityMajor     = 0.65
	ProximityBaseline  = 0.3
	weightSumTolerance = 1e-9
)

// Weights are the blend coefficients. They must be non-negative and sum to 1.
type Weights struct {
	Career       float64
	Institution  float64
	Organization float64
}

// DefaultWeights returns 0.4/0.4/0.2.
func DefaultWeights() Weights {
	return Weights{Career: 0.4, Institution: 0.4, Organization: 0.2}
}

// Validate reports weights that would let the blended score leave [0,1].
func (w Weights) Validate() error {
	for _, v := range []float64{w.Career, w.Institution, w.Organization} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %v: %w", v, ErrInvalidWeights)
		}
	}
	if sum := w.Career + w.Institution + w.Organization; math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("weights sum to %v, want 1: %w", sum, ErrInvalidWeights)
	}
	return nil
}

// Scorer holds the heuristic tables and blend weights. It is immutable after
// construction and safe for concurrent use.
type Scorer struct {
	weights Weights
	idx     index
}

// New creates a Scorer. Invalid options are reported as errors rather than
// silently replaced.
func New(opts ...Option) (*Scorer, error) {
	cfg := options{
		weights: DefaultWeights(),
		tables:  DefaultTables(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.weights.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.tables.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: cfg.weights, idx: buildIndex(cfg.tables)}, nil
}

// Weights returns the blend weights.
func (s *Scorer) Weights() Weights { return s.weights }

// TablesVersion returns the version of the loaded tables.
func (s *Scorer) TablesVersion() string { return s.idx.version }

// OrganizationProximity scores how close a candidate's organizations are to
// target. Matching is case-insensitive and ignores surrounding whitespace.
func (s *Scorer) OrganizationProximity(orgs []string, target string) float64 {
	t := normalize(target)
	if t == "" {
		return ProximityBaseline
	}

	normalized := make([]string, 0, len(orgs))
	for _, o := range orgs {
		if o = normalize(o); o != "" {
			if o == t {
				return ProximityExact
			}
			normalized = append(normalized, o)
		}
	}

	if neigh, ok := s.idx.neighbors[t]; ok {
		for _, o := range normalized {
			if _, hit := neigh[o]; hit {
				return ProximityNeighbor
			}
		}
	}

	if _, ok := s.idx.major[t]; ok {
		for _, o := range normalized {
			if _, hit := s.idx.major[o]; hit {
				return ProximityMajor
			}
		}
	}
	return ProximityBaseline
}

// InstitutionSimilarity scores how well any of the candidate's institution
// strings matches target. It returns 0 when either side is empty.
func (s *Scorer) InstitutionSimilarity(target string, candidates []string) float64 {
	t := normalize(target)
	if t == "" || len(candidates) == 0 {
		return 0
	}
	targetWords := strings.Fields(t)
	targetEntries := s.aliasEntries(tokens(t))

	best := 0.0
	for _, c := range candidates {
		c = normalize(c)
		if c == "" {
			continue
		}
		if strings.Contains(c, t) || s.sharesAlias(targetEntries, tokens(c)) {
			return 1
		}
		found := 0
		for _, w := range targetWords {
			if len(w) > 2 && strings.Contains(c, w) {
				found++
			}
		}
		if frac := float64(found) / float64(len(targetWords)); frac > best {
			best = frac
		}
	}
	return best
}

// aliasEntries returns the alias entries whose forms appear in text.
func (s *Scorer) aliasEntries(text []string) []int {
	var out []int
	for i, forms := range s.idx.aliases {
		for _, f := range forms {
			if containsPhrase(text, f) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

func (s *Scorer) sharesAlias(entries []int, text []string) bool {
	for _, i := range entries {
		for _, f := range s.idx.aliases[i] {
			if containsPhrase(text, f) {
				return true
			}
		}
	}
	return false
}

// Blend combines the three signals. Inputs are clamped to [0,1] so the
// result stays in [0,1].
func (s *Scorer) Blend(career, institution, organization float64) types.ScoreBreakdown {
	career, institution, organization = clamp01(career), clamp01(institution), clamp01(organization)
	blended := s.weights.Career*career +
		s.weights.Institution*institution +
		s.weights.Organization*organization
	return types.ScoreBreakdown{
		CareerSimilarity:      career,
		InstitutionSimilarity: institution,
		OrganizationProximity: organization,
		Blended:               clamp01(blended),
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
