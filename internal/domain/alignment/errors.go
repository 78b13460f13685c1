package alignment

import (
	"errors"

	"github.com/okian/careerrank/internal/domain/similarity"
)

// Sentinel errors for alignment preconditions.
var (
	ErrEmptySequence     = errors.New("alignment requires non-empty sequences")
	ErrInvalidGamma      = errors.New("gamma must be positive and finite")
	ErrDimensionMismatch = similarity.ErrDimensionMismatch
)
