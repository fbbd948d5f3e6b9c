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
	"fmt"

	"github.com/aig-upf/fs-private-sub005/services/planner/atoms"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
)

// RelaxedChecker decides formulas against a relaxed state.
//
// Description:
//
//	The RPG builder is parameterized by a RelaxedChecker so the relaxed
//	semantics can come from the compositional node rules in this package
//	or from a constraint solver. Implementations must be monotone: if a
//	formula holds in r it must hold in any superset of r.
type RelaxedChecker interface {
	// Check reports whether f holds in r and returns the reached atoms
	// that witness it. A nil formula holds with no witnesses.
	Check(f Formula, r RelaxedState) (bool, []atoms.Atom, error)
}

// CompositionalChecker evaluates formulas through their own Relaxed method.
type CompositionalChecker struct{}

// Check implements RelaxedChecker.
//
// Outputs:
//   - bool: Whether f holds under delete relaxation.
//   - []atoms.Atom: Witness atoms, deduplicated.
//   - error: CapabilityError if f, or any operand nested in it, does not
//     implement RelaxedInterpreter.
func (CompositionalChecker) Check(f Formula, r RelaxedState) (bool, []atoms.Atom, error) {
	if f == nil {
		return true, nil, nil
	}
	return relaxed(f, r)
}

// relaxed evaluates f through its Relaxed method.
func relaxed(f Formula, r RelaxedState) (bool, []atoms.Atom, error) {
	ri, ok := f.(RelaxedInterpreter)
	if !ok {
		return false, nil, &problem.CapabilityError{
			Op:  "formula.CompositionalChecker",
			Err: fmt.Errorf("formula %s has no relaxed semantics", f.String()),
		}
	}
	return ri.Relaxed(r)
}

// RelaxedValues enumerates the relaxed values of e.
//
// Outputs:
//   - []Witnessed: Possible values with their witnesses.
//   - error: CapabilityError if e does not implement RelaxedEvaluator.
func RelaxedValues(e Expr, r RelaxedState) ([]Witnessed, error) {
	re, ok := e.(RelaxedEvaluator)
	if !ok {
		return nil, &problem.CapabilityError{
			Op:  "formula.RelaxedValues",
			Err: fmt.Errorf("expression %s has no relaxed semantics", e.String()),
		}
	}
	return re.RelaxedValues(r), nil
}

// MapRelaxedState is a RelaxedState backed by per-variable value lists.
// It is mostly useful for tests and for checking single states.
type MapRelaxedState map[problem.VariableID][]problem.Value

// Reached implements RelaxedState.
func (m MapRelaxedState) Reached(v problem.VariableID, x problem.Value) bool {
	for _, y := range m[v] {
		if y == x {
			return true
		}
	}
	return false
}

// ReachedValues implements RelaxedState.
func (m MapRelaxedState) ReachedValues(v problem.VariableID) []problem.Value {
	return m[v]
}
