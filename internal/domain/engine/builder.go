package engine

import (
	"fmt"
	"math"
)

// pairKey identifies one (participant, option) assignment variable.
type pairKey struct {
	participant string
	option      string
}

// ModelSize reports the dimensions of the binary program Solve would
// formulate for prob, without building it. Counts follow the
// formulation exactly: one assignment variable per preference-list
// entry, one assignment constraint per participant with a non-empty
// list, and one activation variable plus two quota constraints per
// known option with demand.
func ModelSize(prob Problem) (variables, constraints int) {
	demanded := make(map[string]struct{})
	for _, participant := range prob.Participants {
		prefs := prob.Preferences[participant]
		if len(prefs) == 0 {
			continue
		}
		variables += len(prefs)
		constraints++
		for _, pref := range prefs {
			demanded[pref.Option] = struct{}{}
		}
	}
	for _, option := range prob.Options {
		if _, ok := demanded[option]; ok {
			variables++
			constraints += 2
		}
	}
	return variables, constraints
}

// modelBuilder translates one Problem into a backend-neutral binary
// program. Model size is proportional to the number of preference-list
// entries, never participants times options: assignment variables exist
// only for listed pairs, and activation variables only for options at
// least one participant listed.
type modelBuilder struct {
	prob  *Problem
	model *Model

	// assignVars holds each participant's variables in preference-list
	// order; extraction scans them in rank order.
	assignVars map[string][]VarID
	// pairVars indexes the same variables by (participant, option) for
	// constraint assembly.
	pairVars map[pairKey]VarID
	// activeVars maps each option with candidate demand to its
	// activation variable. Options nobody listed have no variable and
	// are trivially inactive.
	activeVars map[string]VarID
	// candidates is the inverted index from option to the participants
	// who listed it anywhere in their preferences, in participant
	// declaration order.
	candidates map[string][]string
}

func newModelBuilder(prob *Problem) *modelBuilder {
	b := &modelBuilder{
		prob:       prob,
		model:      &Model{},
		assignVars: make(map[string][]VarID, len(prob.Participants)),
		pairVars:   make(map[pairKey]VarID),
		activeVars: make(map[string]VarID, len(prob.Options)),
		candidates: make(map[string][]string, len(prob.Options)),
	}
	b.buildIndex()
	b.buildVariablesAndObjective()
	b.addConstraints()
	return b
}

// buildIndex builds the option -> candidate participants inverted index.
func (b *modelBuilder) buildIndex() {
	for _, participant := range b.prob.Participants {
		for _, pref := range b.prob.Preferences[participant] {
			b.candidates[pref.Option] = append(b.candidates[pref.Option], participant)
		}
	}
}

// buildVariablesAndObjective declares one binary assignment variable per
// preference-list entry and one binary activation variable per option
// with demand, and assembles the maximization objective
//
//	sum(x * score) + optionWeight * sum(y)
//
// Declaration order is deterministic: assignment variables in
// participant order then preference order, activation variables in
// option order.
func (b *modelBuilder) buildVariablesAndObjective() {
	for _, participant := range b.prob.Participants {
		prefs := b.prob.Preferences[participant]
		if len(prefs) == 0 {
			continue
		}
		vars := make([]VarID, 0, len(prefs))
		for _, pref := range prefs {
			v := b.model.addVar(fmt.Sprintf("x[%s,%s]", participant, pref.Option))
			vars = append(vars, v)
			b.pairVars[pairKey{participant, pref.Option}] = v
			b.model.Objective = append(b.model.Objective, Term{Var: v, Coef: float64(pref.Score)})
		}
		b.assignVars[participant] = vars
	}

	for _, option := range b.prob.Options {
		if len(b.candidates[option]) == 0 {
			continue
		}
		y := b.model.addVar(fmt.Sprintf("y[%s]", option))
		b.activeVars[option] = y
		b.model.Objective = append(b.model.Objective, Term{Var: y, Coef: b.prob.OptionWeight})
	}
}

// addConstraints adds the exactly-one-assignment constraint per
// participant with preferences and the big-M-free quota coupling per
// option with demand:
//
//	count >= minQuota * y   (closed option forces count 0)
//	count <= maxQuota * y   (open option stays within quota)
func (b *modelBuilder) addConstraints() {
	for _, participant := range b.prob.Participants {
		vars := b.assignVars[participant]
		if len(vars) == 0 {
			continue
		}
		terms := make([]Term, len(vars))
		for i, v := range vars {
			terms[i] = Term{Var: v, Coef: 1}
		}
		b.model.Constraints = append(b.model.Constraints, LinearConstraint{Terms: terms, Lo: 1, Hi: 1})
	}

	for _, option := range b.prob.Options {
		y, ok := b.activeVars[option]
		if !ok {
			continue
		}

		count := make([]Term, 0, len(b.candidates[option])+1)
		for _, participant := range b.candidates[option] {
			count = append(count, Term{Var: b.pairVars[pairKey{participant, option}], Coef: 1})
		}

		lower := append(append([]Term{}, count...), Term{Var: y, Coef: -float64(b.prob.MinQuota)})
		b.model.Constraints = append(b.model.Constraints, LinearConstraint{
			Terms: lower,
			Lo:    0,
			Hi:    math.Inf(1),
		})

		upper := append(append([]Term{}, count...), Term{Var: y, Coef: -float64(b.prob.MaxQuota)})
		b.model.Constraints = append(b.model.Constraints, LinearConstraint{
			Terms: upper,
			Lo:    math.Inf(-1),
			Hi:    0,
		})
	}
}
