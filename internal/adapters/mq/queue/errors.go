package queue

import "errors"

// Sentinel errors for queue consumers.
var (
	ErrQueueFull = errors.New("queue is full")
)
