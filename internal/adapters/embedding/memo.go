package embedding

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/coocood/freecache"

	"github.com/okian/careerrank/internal/domain/model"
	"github.com/okian/careerrank/pkg/logger"
	"github.com/okian/careerrank/pkg/metrics"
)

// Memo remembers embeddings per (model, text) so repeated timelines do not
// call the provider again. It is safe for concurrent use.
type Memo struct {
	inner      Embedder
	cache      *freecache.Cache
	ttlSeconds int
	logger     logger.Logger
}

// NewMemo decorates inner with a memo of sizeBytes. A zero or negative size
// returns inner unchanged. freecache enforces a minimum size of 512 KiB.
func NewMemo(inner Embedder, sizeBytes int, ttl time.Duration) Embedder {
	if sizeBytes <= 0 {
		return inner
	}
	return &Memo{
		inner:      inner,
		cache:      freecache.NewCache(sizeBytes),
		ttlSeconds: int(ttl / time.Second),
		logger:     logger.Get().Named("embedding-memo"),
	}
}

// Embed returns a remembered vector or asks the wrapped embedder.
func (m *Memo) Embed(ctx context.Context, text string) (model.Vector, error) {
	key := m.key(text)
	if blob, err := m.cache.Get(key); err == nil {
		if v, derr := model.DecodeVector(blob); derr == nil {
			metrics.RecordEmbedding("memo")
			return v, nil
		}
	} else if !errors.Is(err, freecache.ErrNotFound) {
		m.logger.Warn(ctx, "embedding memo read failed", logger.Error(err))
	}

	v, err := m.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	metrics.RecordEmbedding("provider")
	if err := m.cache.Set(key, model.EncodeVector(v), m.ttlSeconds); err != nil {
		m.logger.Debug(ctx, "embedding memo write skipped", logger.Error(err))
	}
	return v, nil
}

// Model returns the wrapped model name.
func (m *Memo) Model() string { return m.inner.Model() }

// EntryCount returns the number of remembered embeddings.
func (m *Memo) EntryCount() int64 { return m.cache.EntryCount() }

// HitRate returns the memo hit ratio.
func (m *Memo) HitRate() float64 { return m.cache.HitRate() }

func (m *Memo) key(text string) []byte {
	d := xxhash.New()
	_, _ = d.WriteString(m.inner.Model())
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(text)
	return binary.BigEndian.AppendUint64(nil, d.Sum64())
}
