package repository

import (
	"errors"

	"github.com/okian/careerrank/internal/domain/model"
)

// Sentinel kinds for candidate store errors.
var (
	ErrNotFound         = model.ErrCandidateNotFound
	ErrInvalidCandidate = errors.New("invalid candidate")
	ErrSeedFile         = errors.New("invalid seed file")
)
