// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package action defines ground actions and the effect application rule.
package action

import (
	"slices"

	"github.com/aig-upf/fs-private-sub005/services/planner/formula"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/state"
)

// Effect writes the value of an expression into a variable, optionally
// guarded by a condition.
type Effect struct {
	Var   problem.VariableID
	Value formula.Expr

	// Condition guards the effect. Nil means unconditional.
	Condition formula.Formula
}

// Unconditional reports whether the effect has no condition.
func (e Effect) Unconditional() bool {
	if e.Condition == nil {
		return true
	}
	_, ok := e.Condition.(formula.True)
	return ok
}

// Action is a fully instantiated action.
type Action struct {
	// ID is the position of the action in its task's action list.
	ID   int
	Name string

	// Precondition must hold for the action to apply. Nil means true.
	Precondition formula.Formula

	Effects []Effect
}

// String returns the action name.
func (a *Action) String() string {
	return a.Name
}

// Applicable reports whether the precondition holds in s.
func (a *Action) Applicable(s *state.State) (bool, error) {
	return formula.Holds(a.Precondition, s)
}

// ReadVariables returns the sorted variables read by the precondition.
func (a *Action) ReadVariables() []problem.VariableID {
	return formula.Variables(a.Precondition)
}

// Validate checks the action against the problem declaration.
//
// Outputs:
//   - error: DomainError for effect targets or formula variables that are
//     not declared, ConfigurationError for a missing value expression or
//     two unconditional effects on the same variable.
func (a *Action) Validate(p *problem.Problem) error {
	for _, v := range a.ReadVariables() {
		if !p.HasVariable(v) {
			return problem.UnknownVariable("action.Validate "+a.Name, v)
		}
	}
	var written []problem.VariableID
	for i, eff := range a.Effects {
		if !p.HasVariable(eff.Var) {
			return problem.UnknownVariable("action.Validate "+a.Name, eff.Var)
		}
		if eff.Value == nil {
			return problem.Configurationf("action.Validate", "action %s effect %d has no value", a.Name, i)
		}
		if c, ok := eff.Value.(formula.Const); ok && !p.InDomain(eff.Var, c.Value) {
			return problem.ValueOutOfDomain("action.Validate "+a.Name, eff.Var, c.Value)
		}
		for _, v := range eff.Value.Variables() {
			if !p.HasVariable(v) {
				return problem.UnknownVariable("action.Validate "+a.Name, v)
			}
		}
		for _, v := range formula.Variables(eff.Condition) {
			if !p.HasVariable(v) {
				return problem.UnknownVariable("action.Validate "+a.Name, v)
			}
		}
		if eff.Unconditional() {
			if slices.Contains(written, eff.Var) {
				return problem.Configurationf("action.Validate",
					"action %s writes variable %s twice", a.Name, p.VariableName(eff.Var))
			}
			written = append(written, eff.Var)
		}
	}
	return nil
}

// Apply computes the successor of s under a.
//
// Description:
//
//	Effect conditions and value expressions are all evaluated in s, then
//	the collected updates are written at once. The precondition is not
//	checked; callers do that through an applicability analyzer.
//
// Outputs:
//   - *state.State: The successor state.
//   - error: ConfigurationError if two firing effects write the same
//     variable, DomainError if an effect produces a value outside the
//     target's domain, or any error from the formula capability verbatim.
func Apply(p *problem.Problem, a *Action, s *state.State) (*state.State, error) {
	updates := make([]state.Update, 0, len(a.Effects))
	for _, eff := range a.Effects {
		fires, err := formula.Holds(eff.Condition, s)
		if err != nil {
			return nil, err
		}
		if !fires {
			continue
		}
		x, err := eff.Value.Evaluate(s)
		if err != nil {
			return nil, err
		}
		if err := p.CheckAtom("action.Apply "+a.Name, eff.Var, x); err != nil {
			return nil, err
		}
		for _, u := range updates {
			if u.Var == eff.Var {
				return nil, problem.Configurationf("action.Apply",
					"action %s writes variable %s twice in one application", a.Name, p.VariableName(eff.Var))
			}
		}
		updates = append(updates, state.Update{Var: eff.Var, Val: x})
	}
	return s.With(updates), nil
}

// Names returns the names of a plan's actions.
func Names(plan []*Action) []string {
	out := make([]string, len(plan))
	for i, a := range plan {
		out[i] = a.Name
	}
	return out
}
