// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/kismet/internal/domain/engine"
)

// SolveRequest represents one assignment problem submitted by clients.
// Preferences hold ranked option lists, most preferred first; scores are
// derived from list position, so the wire format never carries them.
type SolveRequest struct {
	RequestID    string              // unique id for idempotency
	Participants []string            // participant identifiers, may include ones without preferences
	Options      []string            // known options subject to quota bounds
	Preferences  map[string][]string // participant -> ranked options, most preferred first
	MinQuota     int                 // minimum assignees per active option
	MaxQuota     int                 // maximum assignees per active option
	OptionWeight float64             // objective reward per active option
}

// SolveJob pairs a validated request with the run it was registered
// under; this is the payload flowing through the queue to the workers.
type SolveJob struct {
	RunID   string
	Request SolveRequest
}

// NewRequestID returns a fresh request identifier for submissions that
// did not supply one.
func NewRequestID() string {
	return uuid.NewString()
}

// Validate checks the request's structural integrity and quota
// parameters. It returns the first problem found, wrapped around one of
// the package sentinels.
func (r *SolveRequest) Validate() error {
	if r.MinQuota < 1 {
		return ErrMinQuota
	}
	if r.MaxQuota < r.MinQuota {
		return ErrQuotaOrder
	}
	if r.OptionWeight < 0 {
		return ErrOptionWeight
	}

	participants := make(map[string]struct{}, len(r.Participants))
	for _, p := range r.Participants {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: participant", ErrEmptyID)
		}
		if _, dup := participants[p]; dup {
			return fmt.Errorf("%w: participant %q", ErrDuplicateID, p)
		}
		participants[p] = struct{}{}
	}

	options := make(map[string]struct{}, len(r.Options))
	for _, o := range r.Options {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("%w: option", ErrEmptyID)
		}
		if _, dup := options[o]; dup {
			return fmt.Errorf("%w: option %q", ErrDuplicateID, o)
		}
		options[o] = struct{}{}
	}

	for participant, prefs := range r.Preferences {
		if _, known := participants[participant]; !known {
			return fmt.Errorf("%w: %q", ErrUnknownParticipant, participant)
		}
		listed := make(map[string]struct{}, len(prefs))
		for _, option := range prefs {
			if strings.TrimSpace(option) == "" {
				return fmt.Errorf("%w: preference of %q", ErrEmptyID, participant)
			}
			if _, dup := listed[option]; dup {
				return fmt.Errorf("%w: %q lists %q twice", ErrDuplicatePreference, participant, option)
			}
			listed[option] = struct{}{}
		}
	}

	return nil
}

// Problem converts the request into the engine's input shape, deriving
// each preference score from its list position: a list of k choices
// scores k for the first choice down to 1 for the last.
func (r *SolveRequest) Problem() engine.Problem {
	prefs := make(map[string][]engine.Preference, len(r.Preferences))
	for participant, options := range r.Preferences {
		if len(options) == 0 {
			continue
		}
		list := make([]engine.Preference, len(options))
		for i, option := range options {
			list[i] = engine.Preference{
				Option: option,
				Score:  engine.ScoreForRank(len(options), i+1),
			}
		}
		prefs[participant] = list
	}

	return engine.Problem{
		Participants: r.Participants,
		Options:      r.Options,
		Preferences:  prefs,
		MinQuota:     r.MinQuota,
		MaxQuota:     r.MaxQuota,
		OptionWeight: r.OptionWeight,
	}
}
