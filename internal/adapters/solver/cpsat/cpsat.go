// Package cpsat solves binary programs with the CP-SAT solver from
// Google OR-Tools. It is the primary production backend: exact, fast on
// large models, and deterministic when confined to a single search
// worker with a fixed seed.
package cpsat

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"
	"google.golang.org/protobuf/proto"

	"github.com/okian/kismet/internal/domain/engine"
)

// objectiveScale converts the model's float objective coefficients to
// the integers CP-SAT requires. Preference scores are already integral;
// the option weight is not, so every coefficient is scaled up by this
// factor and the returned objective scaled back down. Weights are
// thereby honored to three decimal places.
const objectiveScale = 1000

// statusTable maps every CP-SAT status onto the domain status. CP-SAT
// has no unbounded status: a maximization over binary variables is
// always bounded. FEASIBLE means the search stopped before proving
// optimality, which the domain treats as not solved rather than
// optimal.
var statusTable = map[cmpb.CpSolverStatus]engine.Status{
	cmpb.CpSolverStatus_OPTIMAL:       engine.StatusOptimal,
	cmpb.CpSolverStatus_FEASIBLE:      engine.StatusNotSolved,
	cmpb.CpSolverStatus_INFEASIBLE:    engine.StatusInfeasible,
	cmpb.CpSolverStatus_MODEL_INVALID: engine.StatusNotSolved,
	cmpb.CpSolverStatus_UNKNOWN:       engine.StatusNotSolved,
}

func mapStatus(code cmpb.CpSolverStatus) engine.Status {
	if s, ok := statusTable[code]; ok {
		return s
	}
	return engine.StatusNotSolved
}

// Backend is the OR-Tools CP-SAT solver backend.
type Backend struct {
	maxTime time.Duration
	seed    int32
}

// New creates a CP-SAT backend. Without options the solve runs without a
// wall-clock limit and with seed zero.
func New(opts ...Option) *Backend {
	b := &Backend{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Solve translates the model into a CP-SAT proto and runs the solver.
// The solve is confined to one search worker so equal models with equal
// seeds reproduce the same optimum among ties. A context deadline is
// forwarded as the solver's wall-clock limit.
func (b *Backend) Solve(ctx context.Context, m *engine.Model) (engine.Solution, error) {
	const op = "cpsat.Solve"

	if err := ctx.Err(); err != nil {
		return engine.Solution{}, fmt.Errorf("%s: %w", op, err)
	}
	if m.NumVars() == 0 {
		// Nothing to decide; an empty model is trivially optimal.
		return engine.Solution{Status: engine.StatusOptimal}, nil
	}

	builder := cpmodel.NewCpModelBuilder()

	vars := make([]cpmodel.BoolVar, m.NumVars())
	for i, name := range m.VarNames {
		vars[i] = builder.NewBoolVar().WithName(name)
	}

	for _, ct := range m.Constraints {
		expr := cpmodel.NewLinearExpr()
		for _, t := range ct.Terms {
			// Constraint coefficients are integral by construction
			// (unit terms and quota bounds).
			expr.AddTerm(vars[t.Var], int64(math.Round(t.Coef)))
		}
		builder.AddLinearConstraint(expr, clampBound(ct.Lo), clampBound(ct.Hi))
	}

	objective := cpmodel.NewLinearExpr()
	for _, t := range m.Objective {
		objective.AddTerm(vars[t.Var], int64(math.Round(t.Coef*objectiveScale)))
	}
	builder.Maximize(objective)

	model, err := builder.Model()
	if err != nil {
		return engine.Solution{}, fmt.Errorf("%s: build model: %w", op, err)
	}

	resp, err := cpmodel.SolveCpModelWithParameters(model, b.parameters(ctx))
	if err != nil {
		return engine.Solution{}, fmt.Errorf("%s: %w", op, err)
	}

	sol := engine.Solution{Status: mapStatus(resp.GetStatus())}
	if sol.Status != engine.StatusOptimal {
		return sol, nil
	}

	sol.Values = make([]float64, len(vars))
	for i, v := range vars {
		if cpmodel.SolutionBooleanValue(resp, v) {
			sol.Values[i] = 1
		}
	}
	sol.Objective = resp.GetObjectiveValue() / objectiveScale
	return sol, nil
}

// parameters assembles the solver parameters: single-worker search with
// a fixed seed for reproducibility, bounded by the configured maximum
// solve time and, when tighter, the context deadline.
func (b *Backend) parameters(ctx context.Context) *sppb.SatParameters {
	params := &sppb.SatParameters{
		RandomSeed: proto.Int32(b.seed),
		NumWorkers: proto.Int32(1),
	}

	budget := b.maxTime
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); budget <= 0 || remaining < budget {
			budget = remaining
		}
	}
	if budget > 0 {
		params.MaxTimeInSeconds = proto.Float64(budget.Seconds())
	}

	return params
}

// clampBound converts an infinite constraint bound to the proto's int64
// range end.
func clampBound(v float64) int64 {
	switch {
	case math.IsInf(v, 1):
		return math.MaxInt64
	case math.IsInf(v, -1):
		return math.MinInt64
	default:
		return int64(math.Round(v))
	}
}
