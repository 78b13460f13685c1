package model

// Vector is a fixed-length embedding produced by the embedding provider.
// Values are stored as float32; arithmetic on them is done in float64.
type Vector []float32

// Sequence is an ordered list of embeddings, one per career event.
// Order is the alignment axis and is never re-sorted.
type Sequence []Vector

// Candidate is the read-only projection of a stored candidate used when scoring.
type Candidate struct {
	ID            string   `json:"id"`
	URL           string   `json:"url,omitempty"`
	Sequence      Sequence `json:"sequence"`
	Organizations []string `json:"organizations,omitempty"`
	Institutions  []string `json:"institutions,omitempty"`
}

// Clone returns a deep copy of the candidate.
func (c Candidate) Clone() Candidate {
	out := c
	out.Sequence = c.Sequence.Clone()
	out.Organizations = append([]string(nil), c.Organizations...)
	out.Institutions = append([]string(nil), c.Institutions...)
	return out
}

// Clone returns a deep copy of the sequence.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	for i, v := range s {
		out[i] = append(Vector(nil), v...)
	}
	return out
}
