package queue

import "errors"

// Sentinel kinds for mailbox errors.
var (
	ErrFull   = errors.New("queue full")
	ErrClosed = errors.New("queue closed")
)
