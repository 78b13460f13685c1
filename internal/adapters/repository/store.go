// Package repository provides candidate stores backed by memory or Redis.
package repository

import (
	"context"

	"github.com/okian/careerrank/internal/domain/model"
)

// Store reads the projection of a candidate needed for scoring.
type Store interface {
	// LoadSequence returns the candidate's event embeddings in timeline order.
	// The sequence may be empty. Unknown candidates return ErrNotFound.
	LoadSequence(ctx context.Context, candidateID string) (model.Sequence, error)
	// LoadOrganizations returns the organizations the candidate worked at.
	LoadOrganizations(ctx context.Context, candidateID string) ([]string, error)
	// LoadInstitutions returns education related strings for the candidate.
	LoadInstitutions(ctx context.Context, candidateID string) ([]string, error)
}

// Writer stores candidates.
type Writer interface {
	// Upsert replaces everything stored for c.ID.
	Upsert(ctx context.Context, c model.Candidate) error
	// Count returns the number of stored candidates.
	Count(ctx context.Context) (int, error)
}

// ReadWriter is a Store that can also be written.
type ReadWriter interface {
	Store
	Writer
	Close() error
}
