// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rpg

import (
	"slices"

	"github.com/aig-upf/fs-private-sub005/services/planner/action"
	"github.com/aig-upf/fs-private-sub005/services/planner/atoms"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
)

// Unreachable is the layer of atoms never reached and the h value of dead ends.
const Unreachable = -1

// Support records how an atom was first reached.
type Support struct {
	// Action is the index of the achieving action in the builder's list.
	Action int

	// Effect is the index of the achieving effect within the action.
	Effect int

	// Layer is the layer the supported atom entered.
	Layer int

	// Witnesses are atoms of earlier layers that justified the
	// precondition, the effect condition and the written value.
	Witnesses []atoms.AtomID
}

// Graph is a built relaxed planning graph.
//
// Graph also implements formula.RelaxedState over its cumulative atom set.
type Graph struct {
	ix      *atoms.Index
	actions []*action.Action

	// layers[i] holds the atoms first reached in layer i, in reach order
	layers [][]atoms.AtomID

	// per AtomID: first layer, or Unreachable
	atomLayer []int

	// per AtomID: index into supports, or -1 for seed atoms
	atomSupport []int

	supports []Support

	// per variable: reached values in reach order
	reached [][]problem.Value

	goalLayer     int
	goalWitnesses []atoms.AtomID
}

func newGraph(ix *atoms.Index, actions []*action.Action) *Graph {
	g := &Graph{
		ix:          ix,
		actions:     actions,
		atomLayer:   make([]int, ix.Len()),
		atomSupport: make([]int, ix.Len()),
		reached:     make([][]problem.Value, ix.Problem().NumVariables()),
		goalLayer:   Unreachable,
	}
	for i := range g.atomLayer {
		g.atomLayer[i] = Unreachable
		g.atomSupport[i] = -1
	}
	return g
}

// reach adds id to the newest layer with the given support index.
func (g *Graph) reach(id atoms.AtomID, support int) {
	layer := len(g.layers) - 1
	g.layers[layer] = append(g.layers[layer], id)
	g.atomLayer[id] = layer
	g.atomSupport[id] = support
	a, _ := g.ix.AtomOf(id)
	g.reached[a.Var] = append(g.reached[a.Var], a.Val)
}

// Reached implements formula.RelaxedState.
func (g *Graph) Reached(v problem.VariableID, x problem.Value) bool {
	id, ok := g.ix.Lookup(v, x)
	return ok && g.atomLayer[id] != Unreachable
}

// ReachedValues implements formula.RelaxedState.
func (g *Graph) ReachedValues(v problem.VariableID) []problem.Value {
	if v < 0 || int(v) >= len(g.reached) {
		return nil
	}
	return g.reached[v]
}

// NumLayers returns the number of layers, including layer 0.
func (g *Graph) NumLayers() int {
	return len(g.layers)
}

// NewAtoms returns the atoms first reached in layer i.
func (g *Graph) NewAtoms(i int) []atoms.AtomID {
	if i < 0 || i >= len(g.layers) {
		return nil
	}
	return g.layers[i]
}

// CumulativeLayer returns every atom reached in layers 0..i, sorted.
func (g *Graph) CumulativeLayer(i int) []atoms.AtomID {
	var out []atoms.AtomID
	for l := 0; l <= i && l < len(g.layers); l++ {
		out = append(out, g.layers[l]...)
	}
	slices.Sort(out)
	return out
}

// AtomLayer returns the first layer of id, or Unreachable.
func (g *Graph) AtomLayer(id atoms.AtomID) int {
	if id < 0 || int(id) >= len(g.atomLayer) {
		return Unreachable
	}
	return g.atomLayer[id]
}

// SupportOf returns the support of id. Seed and unreached atoms have none.
func (g *Graph) SupportOf(id atoms.AtomID) (Support, bool) {
	if id < 0 || int(id) >= len(g.atomSupport) || g.atomSupport[id] < 0 {
		return Support{}, false
	}
	return g.supports[g.atomSupport[id]], true
}

// GoalReached reports whether some layer satisfied the goal.
func (g *Graph) GoalReached() bool {
	return g.goalLayer != Unreachable
}

// HMax returns the first layer satisfying the goal, or Unreachable.
func (g *Graph) HMax() int {
	return g.goalLayer
}

// GoalWitnesses returns the atoms that satisfied the goal.
func (g *Graph) GoalWitnesses() []atoms.AtomID {
	return g.goalWitnesses
}

// HFF returns the length of the relaxed plan, or Unreachable.
func (g *Graph) HFF() int {
	if !g.GoalReached() {
		return Unreachable
	}
	return len(g.RelaxedPlan())
}

// RelaxedPlan extracts a relaxed plan by chaining supports backwards from
// the goal witnesses.
//
// Description:
//
//	Each support's action is added once, together with the supports of
//	its witness atoms, until only seed atoms remain. The plan is ordered
//	by the earliest layer each action supports, then by action index, so
//	it is executable in the relaxed sense. Returns nil for dead ends and
//	for goals satisfied in layer 0.
func (g *Graph) RelaxedPlan() []*action.Action {
	if !g.GoalReached() || g.goalLayer == 0 {
		return nil
	}

	firstLayer := make(map[int]int) // action index -> earliest supported layer
	visited := make([]bool, len(g.atomLayer))
	stack := slices.Clone(g.goalWitnesses)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		sup, ok := g.SupportOf(id)
		if !ok {
			continue
		}
		if l, seen := firstLayer[sup.Action]; !seen || sup.Layer < l {
			firstLayer[sup.Action] = sup.Layer
		}
		stack = append(stack, sup.Witnesses...)
	}

	order := make([]int, 0, len(firstLayer))
	for a := range firstLayer {
		order = append(order, a)
	}
	slices.SortFunc(order, func(x, y int) int {
		if firstLayer[x] != firstLayer[y] {
			return firstLayer[x] - firstLayer[y]
		}
		return x - y
	})

	plan := make([]*action.Action, len(order))
	for i, a := range order {
		plan[i] = g.actions[a]
	}
	return plan
}
