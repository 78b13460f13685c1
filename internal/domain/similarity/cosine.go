// Package similarity provides vector similarity primitives over embeddings.
package similarity

import (
	"fmt"
	"math"

	"github.com/okian/careerrank/internal/domain/model"
)

// Epsilon keeps cosine similarity finite when either vector is all zeros.
const Epsilon = 1e-8

// Cosine returns dot(a,b) / (|a|*|b| + Epsilon).
// Vectors of different length are a caller error.
func Cosine(a, b model.Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine %d vs %d: %w", len(a), len(b), ErrDimensionMismatch)
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + Epsilon), nil
}

// Distance returns 1 - Cosine(a, b).
func Distance(a, b model.Vector) (float64, error) {
	c, err := Cosine(a, b)
	if err != nil {
		return 0, err
	}
	return 1 - c, nil
}
