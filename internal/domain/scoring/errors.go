package scoring

import "errors"

// Sentinel errors for scorer configuration.
var (
	ErrInvalidWeights = errors.New("invalid blend weights")
	ErrInvalidTables  = errors.New("invalid scoring tables")
)
