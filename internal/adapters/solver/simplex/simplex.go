// Package simplex solves binary programs with the pure-Go lpsimplex
// library: LP relaxations solved by the simplex method, driven to
// integrality by deterministic depth-first branch and bound. It needs no
// native solver installation, which also makes it the backend of choice
// for tests.
package simplex

import (
	"context"
	"fmt"
	"math"

	"github.com/willauld/lpsimplex"

	"github.com/okian/kismet/internal/domain/engine"
)

// Default search limits.
const (
	defaultMaxNodes      = 200000
	defaultMaxIterations = 4000
	defaultTolerance     = 1.0e-12
)

// Integrality and bound-comparison tolerances for branch and bound.
const (
	intTolerance = 1e-6
	boundEpsilon = 1e-9
)

// lpsimplex status codes (scipy linprog conventions).
const (
	lpOptimal        = 0
	lpIterationLimit = 1
	lpInfeasible     = 2
	lpUnbounded      = 3
)

// statusTable maps the LP status of the root relaxation onto the domain
// status. Any code outside the table is treated as not solved.
var statusTable = map[int]engine.Status{
	lpOptimal:        engine.StatusOptimal,
	lpIterationLimit: engine.StatusNotSolved,
	lpInfeasible:     engine.StatusInfeasible,
	lpUnbounded:      engine.StatusUnbounded,
}

func mapStatus(code int) engine.Status {
	if s, ok := statusTable[code]; ok {
		return s
	}
	return engine.StatusNotSolved
}

// Backend is the lpsimplex-based solver backend.
type Backend struct {
	maxNodes      int
	maxIterations int
	tolerance     float64
}

// New creates a simplex backend with default search limits.
func New(opts ...Option) *Backend {
	b := &Backend{
		maxNodes:      defaultMaxNodes,
		maxIterations: defaultMaxIterations,
		tolerance:     defaultTolerance,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Solve translates the model into standard LP form and runs branch and
// bound over LP relaxations. The search is fully deterministic: Dantzig
// pivoting in the simplex core, most-fractional lowest-index branching,
// one-branch explored before zero-branch, so identical models always
// produce identical solutions.
func (b *Backend) Solve(ctx context.Context, m *engine.Model) (engine.Solution, error) {
	const op = "simplex.Solve"

	n := m.NumVars()
	if n == 0 {
		// Nothing to decide; an empty model is trivially optimal.
		return engine.Solution{Status: engine.StatusOptimal}, nil
	}

	s := newSearch(b, m)
	if err := s.branch(ctx, true); err != nil {
		return engine.Solution{}, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case s.rootStatus != engine.StatusOptimal:
		// The root relaxation already settled the outcome.
		return engine.Solution{Status: s.rootStatus}, nil
	case s.exhausted:
		// Search budget ran out before optimality was proven.
		return engine.Solution{Status: engine.StatusNotSolved}, nil
	case s.incumbent == nil:
		// Complete search found no integral point: integer-infeasible
		// even though the relaxation was not.
		return engine.Solution{Status: engine.StatusInfeasible}, nil
	default:
		return engine.Solution{
			Status:    engine.StatusOptimal,
			Values:    s.incumbent,
			Objective: s.incumbentObj,
		}, nil
	}
}

// search carries the branch-and-bound state for one Solve call.
// Variables are kept in [0,1] by explicit inequality rows; branch
// fixings are equality rows pushed onto aeq/beq and popped on backtrack.
type search struct {
	backend *Backend

	c   []float64
	aub [][]float64
	bub []float64
	aeq [][]float64
	beq []float64

	// unit[v] is the canonical basis row for variable v, shared by the
	// upper-bound rows and the branch fixings.
	unit [][]float64

	nodes        int
	exhausted    bool
	rootStatus   engine.Status
	incumbent    []float64
	incumbentObj float64
}

func newSearch(b *Backend, m *engine.Model) *search {
	n := m.NumVars()
	s := &search{
		backend: b,
		c:       make([]float64, n),
		unit:    make([][]float64, n),
	}

	// lpsimplex minimizes; negate the maximization objective.
	for _, t := range m.Objective {
		s.c[t.Var] -= t.Coef
	}

	// Binary domain: x >= 0 is the solver default, x <= 1 as rows.
	for v := 0; v < n; v++ {
		row := make([]float64, n)
		row[v] = 1
		s.unit[v] = row
		s.aub = append(s.aub, row)
		s.bub = append(s.bub, 1)
	}

	for _, ct := range m.Constraints {
		row := make([]float64, n)
		for _, t := range ct.Terms {
			row[t.Var] += t.Coef
		}
		if ct.Lo == ct.Hi {
			s.aeq = append(s.aeq, row)
			s.beq = append(s.beq, ct.Lo)
			continue
		}
		if !math.IsInf(ct.Hi, 1) {
			s.aub = append(s.aub, row)
			s.bub = append(s.bub, ct.Hi)
		}
		if !math.IsInf(ct.Lo, -1) {
			neg := make([]float64, n)
			for i, v := range row {
				neg[i] = -v
			}
			s.aub = append(s.aub, neg)
			s.bub = append(s.bub, -ct.Lo)
		}
	}

	return s
}

// branch solves the relaxation under the current fixings and recurses on
// the most fractional variable.
func (s *search) branch(ctx context.Context, root bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.nodes++
	if s.nodes > s.backend.maxNodes {
		s.exhausted = true
		return nil
	}

	res := lpsimplex.LPSimplex(s.c, s.aub, s.bub, s.aeq, s.beq, nil,
		lpsimplex.Callbackfunc(nil), false, s.backend.maxIterations, s.backend.tolerance, false)

	if root {
		s.rootStatus = mapStatus(res.Status)
		if s.rootStatus != engine.StatusOptimal {
			return nil
		}
	}
	if !res.Success {
		if res.Status == lpInfeasible {
			// This subtree has no feasible point; prune.
			return nil
		}
		// Iteration limit or an unexpected failure below the root
		// leaves the optimality proof incomplete.
		s.exhausted = true
		return nil
	}

	relaxObj := -res.Fun
	if s.incumbent != nil && relaxObj <= s.incumbentObj+boundEpsilon {
		// The relaxation bound cannot beat the incumbent; prune.
		return nil
	}

	frac := fractionalVar(res.X)
	if frac < 0 {
		values := make([]float64, len(res.X))
		copy(values, res.X)
		s.incumbent = values
		s.incumbentObj = relaxObj
		return nil
	}

	for _, fix := range []float64{1, 0} {
		s.aeq = append(s.aeq, s.unit[frac])
		s.beq = append(s.beq, fix)
		err := s.branch(ctx, false)
		s.aeq = s.aeq[:len(s.aeq)-1]
		s.beq = s.beq[:len(s.beq)-1]
		if err != nil {
			return err
		}
	}
	return nil
}

// fractionalVar returns the most fractional variable index, lowest index
// winning ties, or -1 when the point is integral.
func fractionalVar(x []float64) int {
	best := -1
	bestDist := intTolerance
	for i, v := range x {
		dist := math.Abs(v - math.Round(v))
		if dist > bestDist {
			best = i
			bestDist = dist
		}
	}
	return best
}
