// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"fmt"

	"github.com/aig-upf/fs-private-sub005/services/planner/action"
	"github.com/aig-upf/fs-private-sub005/services/planner/atoms"
	"github.com/aig-upf/fs-private-sub005/services/planner/formula"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/state"
)

// Task is a grounded planning task.
type Task struct {
	Problem *problem.Problem

	// Index interns every atom of Problem. Nil builds and seals a fresh
	// index. A shared index must be sealed before concurrent use.
	Index *atoms.Index

	Init    *state.State
	Goal    formula.Formula
	Actions []*action.Action
}

// prepare validates the task and fills in the atom index.
func (t Task) prepare() (Task, error) {
	if t.Problem == nil {
		return t, problem.Configurationf("search.Task", "problem is nil")
	}
	if t.Init == nil {
		return t, problem.Configurationf("search.Task", "initial state is nil")
	}
	if t.Init.NumVariables() != t.Problem.NumVariables() {
		return t, problem.Configurationf("search.Task",
			"initial state has %d values, problem declares %d variables", t.Init.NumVariables(), t.Problem.NumVariables())
	}
	for _, v := range formula.Variables(t.Goal) {
		if !t.Problem.HasVariable(v) {
			return t, problem.UnknownVariable("search.Task goal", v)
		}
	}
	for i, a := range t.Actions {
		if a == nil {
			return t, problem.Configurationf("search.Task", "action %d is nil", i)
		}
		if err := a.Validate(t.Problem); err != nil {
			return t, fmt.Errorf("action %s: %w", a.Name, err)
		}
	}

	if t.Index == nil {
		t.Index = atoms.NewProblemIndex(t.Problem)
	} else if t.Index.Problem() != t.Problem {
		return t, problem.Configurationf("search.Task", "atom index belongs to another problem")
	}
	if t.Index.Len() < t.Problem.NumAtoms() {
		return t, problem.Configurationf("search.Task",
			"atom index holds %d atoms, problem declares %d", t.Index.Len(), t.Problem.NumAtoms())
	}
	if !t.Index.Sealed() {
		t.Index.Seal()
	}
	return t, nil
}
