package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/okian/careerrank/internal/domain/model"
	"github.com/okian/careerrank/pkg/logger"
	"github.com/okian/careerrank/pkg/metrics"
)

const backendMemory = "memory"

// MemoryStore keeps candidates in a map. Reads return copies so callers can
// never mutate stored data.
type MemoryStore struct {
	mu         sync.RWMutex
	candidates map[string]model.Candidate
	logger     logger.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		candidates: make(map[string]model.Candidate),
		logger:     logger.Get().Named("memory-store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadSeedFile reads a JSON array of candidates.
func LoadSeedFile(path string) ([]model.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	var cs []model.Candidate
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSeedFile, path, err)
	}
	for i, c := range cs {
		if err := validateCandidate(c); err != nil {
			return nil, fmt.Errorf("%w: %s: entry %d: %w", ErrSeedFile, path, i, err)
		}
	}
	return cs, nil
}

// WriteSeedFile writes candidates as a JSON array.
func WriteSeedFile(path string, cs []model.Candidate) error {
	data, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("encode seed file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write seed file %s: %w", path, err)
	}
	return nil
}

func (s *MemoryStore) get(op, id string) (model.Candidate, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency(backendMemory, op, float64(time.Since(start).Microseconds())/1000)
	}()

	s.mu.RLock()
	c, ok := s.candidates[id]
	s.mu.RUnlock()
	if !ok {
		return model.Candidate{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return c, nil
}

// LoadSequence implements Store.
func (s *MemoryStore) LoadSequence(ctx context.Context, id string) (model.Sequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := s.get("load_sequence", id)
	if err != nil {
		return nil, err
	}
	return c.Sequence.Clone(), nil
}

// LoadOrganizations implements Store.
func (s *MemoryStore) LoadOrganizations(ctx context.Context, id string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := s.get("load_organizations", id)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.Organizations...), nil
}

// LoadInstitutions implements Store.
func (s *MemoryStore) LoadInstitutions(ctx context.Context, id string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := s.get("load_institutions", id)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.Institutions...), nil
}

// Upsert implements Writer.
func (s *MemoryStore) Upsert(ctx context.Context, c model.Candidate) error {
	if err := validateCandidate(c); err != nil {
		return err
	}
	s.mu.Lock()
	s.candidates[c.ID] = c.Clone()
	s.mu.Unlock()
	s.logger.Debug(ctx, "candidate stored", logger.String("candidate_id", c.ID), logger.Int("events", len(c.Sequence)))
	return nil
}

// Count implements Writer.
func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.candidates), nil
}

// Close implements ReadWriter.
func (s *MemoryStore) Close() error { return nil }

func validateCandidate(c model.Candidate) error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidCandidate)
	}
	for i := 1; i < len(c.Sequence); i++ {
		if len(c.Sequence[i]) != len(c.Sequence[0]) {
			return fmt.Errorf("%w: %s: event %d has dimension %d, want %d",
				ErrInvalidCandidate, c.ID, i, len(c.Sequence[i]), len(c.Sequence[0]))
		}
	}
	return nil
}
