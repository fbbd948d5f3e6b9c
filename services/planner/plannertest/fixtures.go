// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package plannertest provides small planning problems shared by the
// planner package tests.
package plannertest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aig-upf/fs-private-sub005/services/planner/action"
	"github.com/aig-upf/fs-private-sub005/services/planner/atoms"
	"github.com/aig-upf/fs-private-sub005/services/planner/formula"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/state"
)

// Fixture bundles everything a test needs to run a search.
type Fixture struct {
	Problem *problem.Problem
	Index   *atoms.Index
	Init    *state.State
	Goal    formula.Formula
	Actions []*action.Action
}

// Bool variable values.
const (
	F problem.Value = 0
	T problem.Value = 1
)

// Switches builds three boolean variables a, b, c, all false initially,
// with set_a (always applicable, a := true) and set_b (requires a, b :=
// true). Nothing achieves c. The goal is b = true.
func Switches(t testing.TB) *Fixture {
	t.Helper()
	p, err := problem.New("switches", []problem.Variable{
		{Name: "a", Kind: problem.KindBool, Domain: problem.BoolDomain()},
		{Name: "b", Kind: problem.KindBool, Domain: problem.BoolDomain()},
		{Name: "c", Kind: problem.KindBool, Domain: problem.BoolDomain()},
	})
	require.NoError(t, err)

	init, err := state.New(p, []problem.Value{F, F, F})
	require.NoError(t, err)

	actions := []*action.Action{
		{ID: 0, Name: "set_a", Precondition: formula.True{},
			Effects: []action.Effect{{Var: 0, Value: formula.Const{Value: T}}}},
		{ID: 1, Name: "set_b", Precondition: formula.Eq{Var: 0, Value: T},
			Effects: []action.Effect{{Var: 1, Value: formula.Const{Value: T}}}},
	}

	ix := atoms.NewProblemIndex(p)
	ix.Seal()
	return &Fixture{
		Problem: p,
		Index:   ix,
		Init:    init,
		Goal:    formula.Eq{Var: 1, Value: T},
		Actions: actions,
	}
}

// Chain builds a counter variable pos in [0, n] starting at 0, with one
// action inc_i per step moving pos from i to i+1, and a boolean flag that
// a single action toggles from anywhere. The goal is pos = n.
func Chain(t testing.TB, n int) *Fixture {
	t.Helper()
	p, err := problem.New(fmt.Sprintf("chain-%d", n), []problem.Variable{
		{Name: "pos", Kind: problem.KindInt, Domain: problem.IntRange(0, n)},
		{Name: "flag", Kind: problem.KindBool, Domain: problem.BoolDomain()},
	})
	require.NoError(t, err)

	init, err := state.New(p, []problem.Value{0, F})
	require.NoError(t, err)

	var actions []*action.Action
	for i := range n {
		actions = append(actions, &action.Action{
			ID:           len(actions),
			Name:         fmt.Sprintf("inc_%d", i),
			Precondition: formula.Eq{Var: 0, Value: problem.Value(i)},
			Effects:      []action.Effect{{Var: 0, Value: formula.Const{Value: problem.Value(i + 1)}}},
		})
	}
	actions = append(actions, &action.Action{
		ID:      len(actions),
		Name:    "toggle",
		Effects: []action.Effect{{Var: 1, Value: formula.Const{Value: T}}},
	})

	ix := atoms.NewProblemIndex(p)
	ix.Seal()
	return &Fixture{
		Problem: p,
		Index:   ix,
		Init:    init,
		Goal:    formula.Eq{Var: 0, Value: problem.Value(n)},
		Actions: actions,
	}
}

// Grid builds a w x h grid with a robot at (0, 0) and moves in four
// directions. The goal is the opposite corner.
func Grid(t testing.TB, w, h int) *Fixture {
	t.Helper()
	p, err := problem.New(fmt.Sprintf("grid-%dx%d", w, h), []problem.Variable{
		{Name: "x", Kind: problem.KindInt, Domain: problem.IntRange(0, w-1)},
		{Name: "y", Kind: problem.KindInt, Domain: problem.IntRange(0, h-1)},
	})
	require.NoError(t, err)

	init, err := state.New(p, []problem.Value{0, 0})
	require.NoError(t, err)

	var actions []*action.Action
	add := func(name string, v problem.VariableID, from, to int) {
		actions = append(actions, &action.Action{
			ID:           len(actions),
			Name:         name,
			Precondition: formula.Eq{Var: v, Value: problem.Value(from)},
			Effects:      []action.Effect{{Var: v, Value: formula.Const{Value: problem.Value(to)}}},
		})
	}
	for i := 0; i+1 < w; i++ {
		add(fmt.Sprintf("right_%d", i), 0, i, i+1)
		add(fmt.Sprintf("left_%d", i+1), 0, i+1, i)
	}
	for j := 0; j+1 < h; j++ {
		add(fmt.Sprintf("up_%d", j), 1, j, j+1)
		add(fmt.Sprintf("down_%d", j+1), 1, j+1, j)
	}

	ix := atoms.NewProblemIndex(p)
	ix.Seal()
	return &Fixture{
		Problem: p,
		Index:   ix,
		Init:    init,
		Goal: formula.And{Fs: []formula.Formula{
			formula.Eq{Var: 0, Value: problem.Value(w - 1)},
			formula.Eq{Var: 1, Value: problem.Value(h - 1)},
		}},
		Actions: actions,
	}
}

// MustState builds a state of f's problem or fails the test.
func (f *Fixture) MustState(t testing.TB, values ...problem.Value) *state.State {
	t.Helper()
	s, err := state.New(f.Problem, values)
	require.NoError(t, err)
	return s
}
