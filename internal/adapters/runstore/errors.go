package runstore

import "errors"

// Sentinel kinds for run store errors.
var (
	ErrNotFound     = errors.New("run not found")
	ErrDuplicate    = errors.New("run already exists")
	ErrFinished     = errors.New("run already finished")
	ErrInvalidLimit = errors.New("invalid run limit")
)
