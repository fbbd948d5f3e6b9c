// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package state provides the immutable planner state.
//
// A State assigns one value to every variable of a problem. It carries a
// content hash computed at construction so duplicate detection and map
// keys are cheap. States are never mutated; successors are built with With.
package state

import (
	"encoding/binary"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/aig-upf/fs-private-sub005/services/planner/atoms"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
)

// Update is one (variable := value) assignment.
type Update struct {
	Var problem.VariableID
	Val problem.Value
}

// State is a full assignment of values to variables.
//
// Thread Safety: State is immutable and safe for concurrent use.
type State struct {
	values []problem.Value
	hash   uint64
}

// New builds a state from a per-variable value slice.
//
// Outputs:
//   - *State: The state. values is copied.
//   - error: ConfigurationError if the length does not match the problem,
//     DomainError if a value is outside its variable's domain.
func New(p *problem.Problem, values []problem.Value) (*State, error) {
	if len(values) != p.NumVariables() {
		return nil, problem.Configurationf("state.New", "got %d values for %d variables",
			len(values), p.NumVariables())
	}
	for v, x := range values {
		if err := p.CheckAtom("state.New", problem.VariableID(v), x); err != nil {
			return nil, err
		}
	}
	return build(slices.Clone(values)), nil
}

func build(values []problem.Value) *State {
	return &State{values: values, hash: hashValues(values)}
}

func hashValues(values []problem.Value) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, x := range values {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(x)))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// With returns a successor state with updates applied. Updates are not
// domain checked; callers validate them (see action.Apply).
func (s *State) With(updates []Update) *State {
	if len(updates) == 0 {
		return s
	}
	values := slices.Clone(s.values)
	for _, u := range updates {
		values[u.Var] = u.Val
	}
	return build(values)
}

// NumVariables returns the number of variables.
func (s *State) NumVariables() int {
	return len(s.values)
}

// Value returns the value of v.
func (s *State) Value(v problem.VariableID) (problem.Value, error) {
	if v < 0 || int(v) >= len(s.values) {
		return 0, problem.UnknownVariable("state.Value", v)
	}
	return s.values[v], nil
}

// Values returns a copy of the per-variable values, for archival.
func (s *State) Values() []problem.Value {
	return slices.Clone(s.values)
}

// Hash returns the content hash.
func (s *State) Hash() uint64 {
	return s.hash
}

// Equal reports whether both states assign the same values.
func (s *State) Equal(o *State) bool {
	if s == o {
		return true
	}
	if o == nil || s.hash != o.hash {
		return false
	}
	return slices.Equal(s.values, o.values)
}

// Contains reports whether atom a is true in s.
func (s *State) Contains(a atoms.Atom) bool {
	if a.Var < 0 || int(a.Var) >= len(s.values) {
		return false
	}
	return s.values[a.Var] == a.Val
}

// Atoms returns the sorted identifiers of the atoms true in s.
func (s *State) Atoms(ix *atoms.Index) ([]atoms.AtomID, error) {
	return ix.AtomsOf(s)
}

// Diff returns the variables whose values differ between s and o. Both
// states must belong to the same problem.
func (s *State) Diff(o *State) []problem.VariableID {
	var out []problem.VariableID
	for v := range s.values {
		if s.values[v] != o.values[v] {
			out = append(out, problem.VariableID(v))
		}
	}
	return out
}

// String renders the state as "{a=true, b=false}".
func (s *State) String(p *problem.Problem) string {
	parts := make([]string, len(s.values))
	for v, x := range s.values {
		parts[v] = p.AtomString(problem.VariableID(v), x)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
