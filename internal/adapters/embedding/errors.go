package embedding

import "errors"

// Sentinel errors for the embedding adapter.
var (
	ErrNoEmbedding         = errors.New("no embedding returned")
	ErrDimension           = errors.New("embedding dimension mismatch")
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
	ErrMissingAPIKey       = errors.New("embedding provider API key required")
)
