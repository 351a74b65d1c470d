package model

import "errors"

// Sentinel errors for request validation.
var (
	ErrMinQuota            = errors.New("min quota must be at least 1")
	ErrQuotaOrder          = errors.New("max quota must be at least min quota")
	ErrOptionWeight        = errors.New("option weight must be non-negative")
	ErrEmptyID             = errors.New("empty identifier")
	ErrDuplicateID         = errors.New("duplicate identifier")
	ErrUnknownParticipant  = errors.New("preferences reference unknown participant")
	ErrDuplicatePreference = errors.New("duplicate option in preference list")
)
