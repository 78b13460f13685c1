package model

import "errors"

// ErrCandidateNotFound is returned by stores for unknown candidate ids.
var ErrCandidateNotFound = errors.New("candidate not found")
