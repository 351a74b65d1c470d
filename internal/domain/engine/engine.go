package engine

import (
	"context"
	"fmt"

	"github.com/okian/kismet/pkg/logger"
)

// BinaryThreshold is the cutoff above which a solver-returned value for
// a binary variable is interpreted as selected. Backends built on LP
// relaxation return floats even for binary variables, so decoding needs
// an explicit rule, applied uniformly: strictly greater than 0.5, so a
// value of exactly 0.5 is not selected.
const BinaryThreshold = 0.5

// Solver owns the end-to-end solve lifecycle: parameter validation,
// model construction, backend invocation, and interpretation of the raw
// solution into a Result. A Solver is stateless across calls; every
// Solve builds fresh model state, so concurrent calls are safe.
type Solver struct {
	backend Backend
	log     logger.Logger
}

// New creates a solver. A backend must be supplied with WithBackend
// before Solve is called.
func New(opts ...Option) *Solver {
	s := &Solver{
		log: logger.Named("engine"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve validates the quota parameters, formulates the binary program,
// runs the backend, and interprets the outcome.
//
// Invalid parameters and backend invocation failures return an error.
// Infeasible, unbounded, and not-solved outcomes are not errors: they
// come back as a Result with the corresponding status, empty
// assignments, all-zero option counts, and no metrics.
func (s *Solver) Solve(ctx context.Context, prob Problem) (*Result, error) {
	const op = "engine.Solve"

	if err := validateParams(&prob); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.backend == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoBackend)
	}

	builder := newModelBuilder(&prob)
	s.log.Debug(ctx, "model built",
		logger.Int("participants", len(prob.Participants)),
		logger.Int("options", len(prob.Options)),
		logger.Int("variables", builder.model.NumVars()),
		logger.Int("constraints", len(builder.model.Constraints)))

	sol, err := s.backend.Solve(ctx, builder.model)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug(ctx, "solve finished",
		logger.String("status", sol.Status.String()),
		logger.Float64("objective", sol.Objective))

	return s.interpret(&prob, builder, sol), nil
}

// validateParams fails fast on bad parameters, before any model work.
func validateParams(prob *Problem) error {
	if prob.MinQuota < 1 {
		return ErrMinQuota
	}
	if prob.MaxQuota < prob.MinQuota {
		return ErrQuotaOrder
	}
	if prob.OptionWeight < 0 {
		return ErrOptionWeight
	}
	return nil
}

// interpret turns a backend solution into the Result. Assignments and
// metrics are produced only for an optimal solution; every other status
// yields empty assignments and zero counts for all known options.
func (s *Solver) interpret(prob *Problem, builder *modelBuilder, sol Solution) *Result {
	result := &Result{
		Status:        sol.Status,
		Assignments:   make(map[string]Assignment, len(prob.Participants)),
		OptionMembers: make(map[string][]string),
		OptionCounts:  make(map[string]int, len(prob.Options)),
	}
	for _, option := range prob.Options {
		result.OptionCounts[option] = 0
	}
	if sol.Status != StatusOptimal {
		return result
	}

	for _, participant := range prob.Participants {
		prefs := prob.Preferences[participant]
		if len(prefs) == 0 {
			result.Assignments[participant] = Assignment{
				Participant: participant,
				Status:      NoPreferences,
			}
			continue
		}

		// Scan the preference list in rank order and take the first
		// selected variable. A participant with preferences but no
		// selected variable is a solver anomaly; record Unassigned
		// rather than failing.
		assignment := Assignment{Participant: participant, Status: Unassigned}
		for i, v := range builder.assignVars[participant] {
			if !selected(sol.Values, v) {
				continue
			}
			pref := prefs[i]
			assignment = Assignment{
				Participant: participant,
				Status:      Assigned,
				Option:      pref.Option,
				Rank:        i + 1,
				Score:       pref.Score,
			}
			break
		}
		result.Assignments[participant] = assignment

		if assignment.Status == Assigned {
			result.OptionMembers[assignment.Option] = append(result.OptionMembers[assignment.Option], participant)
			// Counts cover known options only; assignments to options
			// outside the option list are tolerated but not counted.
			if _, known := result.OptionCounts[assignment.Option]; known {
				result.OptionCounts[assignment.Option]++
			}
		}
	}

	result.Metrics = computeMetrics(prob, result, sol.Objective)
	return result
}

// selected applies BinaryThreshold to one variable value. Values missing
// from the solution vector count as unselected.
func selected(values []float64, v VarID) bool {
	if int(v) < 0 || int(v) >= len(values) {
		return false
	}
	return values[v] > BinaryThreshold
}
