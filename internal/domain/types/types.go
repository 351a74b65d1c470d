// Package types contains common types used across the application
package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/kismet/internal/domain/engine"
	"github.com/okian/kismet/internal/domain/model"
)

// State is a run's position in its lifecycle. The zero value is
// StatePending, the state a run is born in.
type State int

// Run states.
const (
	StatePending State = iota
	StateRunning
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StatePending: "pending",
	StateRunning: "running",
	StateDone:    "done",
	StateFailed:  "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "pending"
}

// MarshalJSON encodes the state as its string name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state from its string name.
func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("types: unmarshal state: %w", err)
	}
	*s = StatePending
	for state, n := range stateNames {
		if n == name {
			*s = state
			break
		}
	}
	return nil
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Run is the full record of one solve, from submission to terminal
// outcome. Result is nil until the run reaches StateDone; Err is empty
// unless the run reached StateFailed.
type Run struct {
	ID          string             `json:"id"`
	RequestID   string             `json:"request_id"`
	State       State              `json:"state"`
	SubmittedAt time.Time          `json:"submitted_at"`
	StartedAt   time.Time          `json:"started_at,omitzero"`
	FinishedAt  time.Time          `json:"finished_at,omitzero"`
	Request     model.SolveRequest `json:"-"`
	Result      *engine.Result     `json:"result,omitempty"`
	Err         string             `json:"error,omitempty"`
}
