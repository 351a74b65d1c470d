package engine

import "context"

// VarID indexes a decision variable within a Model.
type VarID int

// Term is one linear term, Coef times the variable.
type Term struct {
	Var  VarID
	Coef float64
}

// LinearConstraint bounds a linear expression to the inclusive interval
// [Lo, Hi]. Use math.Inf for one-sided constraints.
type LinearConstraint struct {
	Terms []Term
	Lo    float64
	Hi    float64
}

// Model is a backend-neutral binary program. Every variable is binary;
// the objective is maximized.
type Model struct {
	// VarNames holds a debug name per variable; its length is the
	// variable count and VarID values index into it.
	VarNames    []string
	Constraints []LinearConstraint
	Objective   []Term
}

// NumVars returns the number of decision variables.
func (m *Model) NumVars() int { return len(m.VarNames) }

// addVar appends a binary variable and returns its id.
func (m *Model) addVar(name string) VarID {
	m.VarNames = append(m.VarNames, name)
	return VarID(len(m.VarNames) - 1)
}

// Solution is a backend's answer to a Model.
type Solution struct {
	Status Status
	// Values holds one value per variable, indexed by VarID. Backends
	// may return fractional values for binary variables; consumers must
	// decode them with BinaryThreshold. Only meaningful when Status is
	// StatusOptimal.
	Values []float64
	// Objective is the objective value at the optimum, in the model's
	// own scale.
	Objective float64
}

// Backend runs a binary program to completion. Implementations translate
// the Model into their library's native form, solve it, and map the
// library's status codes onto the domain Status via a total lookup with
// StatusNotSolved as the fail-safe default.
//
// A Backend returns an error only for invocation failures (a broken
// library call, a cancelled context). Infeasibility and friends are
// statuses, not errors.
type Backend interface {
	Solve(ctx context.Context, m *Model) (Solution, error)
}
