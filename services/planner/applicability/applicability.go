// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package applicability computes the actions applicable in a state.
//
// Description:
//
//	Two interchangeable analyzers are provided. Direct re-interprets every
//	precondition. Indexed precomputes, per action, the variables its
//	precondition reads, and when given the parent state and the parent's
//	applicable set it re-checks only actions whose read variables changed.
//	Both return actions in task order and produce identical results.
//
// Thread Safety: Analyzers are read-only after construction and safe for
// concurrent use.
package applicability

import (
	"github.com/aig-upf/fs-private-sub005/services/planner/action"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/state"
)

// Analyzer returns the actions applicable in a state.
type Analyzer interface {
	Applicable(s *state.State) ([]*action.Action, error)
}

// Incremental is an Analyzer that can reuse the parent's applicable set.
type Incremental interface {
	Analyzer

	// ApplicableFrom returns the actions applicable in s, a successor of
	// parent whose applicable set was parentApplicable.
	ApplicableFrom(parent *state.State, parentApplicable []*action.Action, s *state.State) ([]*action.Action, error)
}

// Direct evaluates every precondition.
type Direct struct {
	actions []*action.Action
}

// NewDirect creates a Direct analyzer over actions.
func NewDirect(actions []*action.Action) *Direct {
	return &Direct{actions: actions}
}

// Applicable implements Analyzer. Formula errors are returned verbatim.
func (d *Direct) Applicable(s *state.State) ([]*action.Action, error) {
	var out []*action.Action
	for _, a := range d.actions {
		ok, err := a.Applicable(s)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// Indexed re-checks only actions affected by a state change.
type Indexed struct {
	p       *problem.Problem
	actions []*action.Action

	// position of each action in actions, keyed by pointer
	position map[*action.Action]int

	// readers[v] lists, in task order, the actions whose precondition reads v
	readers [][]int
}

// NewIndexed builds the per-variable reader index.
//
// Outputs:
//   - *Indexed: The analyzer.
//   - error: DomainError if a precondition reads an undeclared variable.
func NewIndexed(p *problem.Problem, actions []*action.Action) (*Indexed, error) {
	ix := &Indexed{
		p:        p,
		actions:  actions,
		position: make(map[*action.Action]int, len(actions)),
		readers:  make([][]int, p.NumVariables()),
	}
	for i, a := range actions {
		ix.position[a] = i
		for _, v := range a.ReadVariables() {
			if !p.HasVariable(v) {
				return nil, problem.UnknownVariable("applicability.NewIndexed", v)
			}
			ix.readers[v] = append(ix.readers[v], i)
		}
	}
	return ix, nil
}

// Applicable implements Analyzer by checking every action.
func (ix *Indexed) Applicable(s *state.State) ([]*action.Action, error) {
	var out []*action.Action
	for _, a := range ix.actions {
		ok, err := a.Applicable(s)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// ApplicableFrom implements Incremental.
//
// Description:
//
//	Actions that read no changed variable keep their parent verdict. The
//	rest are re-interpreted in s. The result is in task order.
func (ix *Indexed) ApplicableFrom(parent *state.State, parentApplicable []*action.Action, s *state.State) ([]*action.Action, error) {
	if s.NumVariables() != ix.p.NumVariables() || parent.NumVariables() != ix.p.NumVariables() {
		return nil, problem.Configurationf("applicability.ApplicableFrom",
			"state has %d variables, problem has %d", s.NumVariables(), ix.p.NumVariables())
	}

	before := make([]bool, len(ix.actions))
	for _, a := range parentApplicable {
		pos, ok := ix.position[a]
		if !ok {
			return nil, problem.Configurationf("applicability.ApplicableFrom",
				"action %s is not part of this analyzer", a.Name)
		}
		before[pos] = true
	}

	dirty := make([]bool, len(ix.actions))
	for _, v := range parent.Diff(s) {
		for _, i := range ix.readers[v] {
			dirty[i] = true
		}
	}

	var out []*action.Action
	for i, a := range ix.actions {
		if dirty[i] {
			ok, err := a.Applicable(s)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		} else if !before[i] {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Readers returns how many actions read v. Used for diagnostics.
func (ix *Indexed) Readers(v problem.VariableID) int {
	if !ix.p.HasVariable(v) {
		return 0
	}
	return len(ix.readers[v])
}
