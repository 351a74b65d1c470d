// Package engine implements the preference-assignment optimization core:
// it formulates a binary integer program from participants, options, and
// ranked preferences, hands it to a solver backend, and interprets the
// solution into a concrete assignment with quality metrics.
package engine

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Status is the terminal outcome of one solve invocation.
// The zero value is StatusNotSolved so an unset status can never be
// mistaken for a solved one.
type Status int

// Solve statuses.
const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
)

var statusNames = map[Status]string{
	StatusNotSolved:  "not_solved",
	StatusOptimal:    "optimal",
	StatusInfeasible: "infeasible",
	StatusUnbounded:  "unbounded",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "not_solved"
}

// MarshalJSON encodes the status as its string name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status from its string name. Unknown names
// decode to StatusNotSolved.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("engine: unmarshal status: %w", err)
	}
	*s = StatusNotSolved
	for status, n := range statusNames {
		if n == name {
			*s = status
			break
		}
	}
	return nil
}

// AssignmentStatus describes one participant's outcome within a solution.
// The zero value is Unassigned.
type AssignmentStatus int

// Assignment statuses.
const (
	// Unassigned means the participant had preferences but no assignment
	// variable was selected. Under a correctly constrained optimal
	// solution this should not occur; it is representable so solver
	// anomalies degrade to data instead of panics.
	Unassigned AssignmentStatus = iota
	// Assigned means the participant is bound to exactly one option.
	Assigned
	// NoPreferences means the participant supplied an empty preference
	// list and never entered the optimization.
	NoPreferences
)

var assignmentStatusNames = map[AssignmentStatus]string{
	Unassigned:    "unassigned",
	Assigned:      "assigned",
	NoPreferences: "no_preferences",
}

func (a AssignmentStatus) String() string {
	if name, ok := assignmentStatusNames[a]; ok {
		return name
	}
	return "unassigned"
}

// MarshalJSON encodes the assignment status as its string name.
func (a AssignmentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an assignment status from its string name.
func (a *AssignmentStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("engine: unmarshal assignment status: %w", err)
	}
	*a = Unassigned
	for status, n := range assignmentStatusNames {
		if n == name {
			*a = status
			break
		}
	}
	return nil
}

// Preference is one entry of a participant's ranked preference list.
// Score is the externally derived utility of the option for this
// participant; see ScoreForRank for the standard derivation.
type Preference struct {
	Option string `json:"option"`
	Score  int    `json:"score"`
}

// Problem is the full input of one solve call. All fields are treated as
// read-only; the engine never mutates them.
type Problem struct {
	// Participants lists every participant identifier, including those
	// without preferences. Iteration order fixes variable declaration
	// order, which solver tie-breaking may depend on.
	Participants []string
	// Options lists the known options subject to capacity bounds.
	// Preferences may name options outside this list; such options are
	// assignable but never capacity-constrained, counted, or activated.
	Options []string
	// Preferences maps a participant to their ranked preference list,
	// most preferred first. A missing or empty entry means the
	// participant has no preferences. No option may appear twice in one
	// list; the engine assumes this was enforced at ingestion.
	Preferences map[string][]Preference
	// MinQuota and MaxQuota bound the number of assignees of an active
	// option. MinQuota must be at least 1 and MaxQuota at least MinQuota.
	MinQuota int
	MaxQuota int
	// OptionWeight is the objective reward per active option; it trades
	// off concentrating participants against spreading them. Must be
	// non-negative.
	OptionWeight float64
}

// Assignment is the outcome for a single participant.
type Assignment struct {
	Participant string           `json:"participant"`
	Status      AssignmentStatus `json:"status"`
	Option      string           `json:"option,omitempty"`
	Rank        int              `json:"rank,omitempty"`
	Score       int              `json:"score,omitempty"`
}

// RankHistogram counts participants by the preference rank they were
// assigned, with separate buckets for unassigned and no-preference
// participants.
type RankHistogram struct {
	ByRank        map[int]int `json:"by_rank"`
	Unassigned    int         `json:"unassigned"`
	NoPreferences int         `json:"no_preferences"`
}

// Metrics describes the quality of an optimal solution. It is only
// computed when the solve status is StatusOptimal.
type Metrics struct {
	// PreferenceSatisfaction is the sum of preference scores over all
	// assigned participants.
	PreferenceSatisfaction int `json:"preference_satisfaction"`
	// ActiveOptions is the number of options with at least one assignee.
	ActiveOptions int `json:"active_options"`
	// AverageSatisfaction is PreferenceSatisfaction divided by the total
	// participant count, zero when there are no participants.
	AverageSatisfaction float64 `json:"average_satisfaction"`
	// ObjectiveValue is the solver's objective at the optimum.
	ObjectiveValue float64       `json:"objective_value"`
	RankHistogram  RankHistogram `json:"rank_histogram"`
	// UnusedOptions lists known options with zero assignees, ascending.
	UnusedOptions []string `json:"unused_options"`
	// ConstraintViolations holds human-readable descriptions of option
	// counts outside the quota bounds. A correct model and solver leave
	// it empty; it exists to surface bugs instead of hiding them.
	ConstraintViolations []string `json:"constraint_violations"`
}

// Result is the immutable artifact of one solve call.
type Result struct {
	Status Status `json:"status"`
	// Assignments maps every participant to their outcome.
	Assignments map[string]Assignment `json:"assignments"`
	// OptionMembers maps each option that received assignees to its
	// participants, in participant declaration order.
	OptionMembers map[string][]string `json:"option_members"`
	// OptionCounts maps every known option to its assignee count,
	// including zero counts.
	OptionCounts map[string]int `json:"option_counts"`
	// Metrics is nil unless Status is StatusOptimal. Absence means
	// "no solution to describe", which is distinct from a solution with
	// all-zero scores.
	Metrics *Metrics `json:"metrics,omitempty"`
}

// Record is one flat export row, the shape consumed by presentation and
// export collaborators.
type Record struct {
	Participant string           `json:"participant_id"`
	Option      string           `json:"assigned_option"`
	Rank        int              `json:"preference_rank,omitempty"`
	Score       int              `json:"preference_score"`
	Status      AssignmentStatus `json:"status"`
}

// Records flattens the per-participant assignments into export rows
// sorted ascending by participant identifier.
func (r *Result) Records() []Record {
	records := make([]Record, 0, len(r.Assignments))
	for _, a := range r.Assignments {
		records = append(records, Record{
			Participant: a.Participant,
			Option:      a.Option,
			Rank:        a.Rank,
			Score:       a.Score,
			Status:      a.Status,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Participant < records[j].Participant
	})
	return records
}
