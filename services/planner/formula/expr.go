// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package formula

import (
	"strconv"

	"github.com/aig-upf/fs-private-sub005/services/planner/atoms"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/state"
)

// Expr produces the value an effect writes.
type Expr interface {
	Evaluate(s *state.State) (problem.Value, error)
	Variables() []problem.VariableID
	String() string
}

// Witnessed is one value an expression can take in a relaxed state,
// together with the reached atoms that justify it.
type Witnessed struct {
	Value     problem.Value
	Witnesses []atoms.Atom
}

// RelaxedEvaluator is implemented by expressions that can enumerate their
// possible values in a relaxed state.
type RelaxedEvaluator interface {
	RelaxedValues(r RelaxedState) []Witnessed
}

// Const is a constant value.
type Const struct {
	Value problem.Value
}

func (e Const) Evaluate(*state.State) (problem.Value, error) { return e.Value, nil }
func (e Const) Variables() []problem.VariableID             { return nil }
func (e Const) String() string                              { return strconv.Itoa(int(e.Value)) }

// RelaxedValues returns the constant with no witnesses.
func (e Const) RelaxedValues(RelaxedState) []Witnessed {
	return []Witnessed{{Value: e.Value}}
}

// Ref reads the current value of another variable.
type Ref struct {
	Var problem.VariableID
}

func (e Ref) Evaluate(s *state.State) (problem.Value, error) { return s.Value(e.Var) }
func (e Ref) Variables() []problem.VariableID               { return []problem.VariableID{e.Var} }
func (e Ref) String() string                                { return "v" + strconv.Itoa(int(e.Var)) }

// RelaxedValues returns every reached value of Var, each witnessed by its
// own atom.
func (e Ref) RelaxedValues(r RelaxedState) []Witnessed {
	reached := r.ReachedValues(e.Var)
	out := make([]Witnessed, len(reached))
	for i, y := range reached {
		out[i] = Witnessed{Value: y, Witnesses: []atoms.Atom{{Var: e.Var, Val: y}}}
	}
	return out
}
