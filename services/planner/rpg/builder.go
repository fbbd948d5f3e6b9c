// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rpg builds delete-relaxed planning graphs and extracts the h_max
// and h_FF heuristics from them.
//
// Description:
//
//	Layer 0 holds the atoms of the seed. Each following layer adds the
//	atoms produced by every action whose precondition holds in the
//	cumulative atom set, interpreted under delete relaxation. Every new
//	atom gets exactly one Support, the first achiever, and supports are
//	never revised. Construction stops as soon as the goal holds or a
//	layer adds nothing.
//
// Thread Safety:
//
//	A Builder is read-only after construction and may build graphs for
//	many seeds concurrently. A Graph is owned by its caller.
package rpg

import (
	"context"

	"github.com/aig-upf/fs-private-sub005/services/planner/action"
	"github.com/aig-upf/fs-private-sub005/services/planner/atoms"
	"github.com/aig-upf/fs-private-sub005/services/planner/formula"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/state"
)

// Builder builds relaxed planning graphs for a fixed action set and goal.
type Builder struct {
	p       *problem.Problem
	ix      *atoms.Index
	actions []*action.Action
	goal    formula.Formula
	checker formula.RelaxedChecker

	// fireOnce[i] is true when action i produces the same atoms whenever
	// it fires, so it never needs re-evaluation after firing.
	fireOnce []bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithChecker sets the relaxed formula checker. The default is
// formula.CompositionalChecker.
func WithChecker(c formula.RelaxedChecker) Option {
	return func(b *Builder) {
		if c != nil {
			b.checker = c
		}
	}
}

// NewBuilder creates a Builder.
//
// Inputs:
//   - p: The problem.
//   - ix: Atom index holding every atom of p. Usually sealed.
//   - actions: Ground actions; Support.Action indexes into this slice.
//   - goal: Goal formula. Nil means true.
//
// Outputs:
//   - *Builder: The builder.
//   - error: ConfigurationError if ix does not cover every atom of p.
func NewBuilder(p *problem.Problem, ix *atoms.Index, actions []*action.Action, goal formula.Formula, opts ...Option) (*Builder, error) {
	if ix.Len() < p.NumAtoms() {
		return nil, problem.Configurationf("rpg.NewBuilder",
			"atom index holds %d atoms, problem declares %d", ix.Len(), p.NumAtoms())
	}
	b := &Builder{
		p:        p,
		ix:       ix,
		actions:  actions,
		goal:     goal,
		checker:  formula.CompositionalChecker{},
		fireOnce: make([]bool, len(actions)),
	}
	for _, opt := range opts {
		opt(b)
	}
	for i, a := range actions {
		b.fireOnce[i] = staticEffects(a)
	}
	return b, nil
}

func staticEffects(a *action.Action) bool {
	for _, eff := range a.Effects {
		if !eff.Unconditional() {
			return false
		}
		if _, ok := eff.Value.(formula.Const); !ok {
			return false
		}
	}
	return true
}

// pending is an atom waiting to enter the next layer.
type pending struct {
	id      atoms.AtomID
	support Support
}

// Build builds the graph seeded with the atoms of s.
func (b *Builder) Build(ctx context.Context, s *state.State) (*Graph, error) {
	seed, err := b.ix.AtomsOf(s)
	if err != nil {
		return nil, err
	}
	return b.BuildFromAtoms(ctx, seed)
}

// BuildFromAtoms builds the graph seeded with an arbitrary atom set.
//
// Outputs:
//   - *Graph: The graph. HMax is Unreachable when the fixpoint was hit
//     without satisfying the goal.
//   - error: ctx.Err() on cancellation (checked once per layer),
//     DomainError for unknown atoms or effect values outside the domain,
//     CapabilityError or formula errors from the relaxed checker.
func (b *Builder) BuildFromAtoms(ctx context.Context, seed []atoms.AtomID) (*Graph, error) {
	g := newGraph(b.ix, b.actions)
	g.layers = append(g.layers, nil)
	for _, id := range seed {
		if id < 0 || int(id) >= len(g.atomLayer) {
			return nil, problem.Configurationf("rpg.Build", "seed atom %d is not interned", id)
		}
		if g.atomLayer[id] == Unreachable {
			g.reach(id, -1)
		}
	}

	done, err := b.checkGoal(g)
	if err != nil || done {
		return g, err
	}

	fired := make([]bool, len(b.actions))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := len(g.layers)

		var additions []pending
		queued := make(map[atoms.AtomID]struct{})
		for i, a := range b.actions {
			if fired[i] {
				continue
			}
			holds, preWitnesses, err := b.checker.Check(a.Precondition, g)
			if err != nil {
				return nil, err
			}
			if !holds {
				continue
			}
			if b.fireOnce[i] {
				fired[i] = true
			}
			for e, eff := range a.Effects {
				produced, err := b.effectAtoms(g, eff, preWitnesses)
				if err != nil {
					return nil, err
				}
				for _, pr := range produced {
					if g.atomLayer[pr.id] != Unreachable {
						continue
					}
					if _, dup := queued[pr.id]; dup {
						continue
					}
					queued[pr.id] = struct{}{}
					pr.support.Action = i
					pr.support.Effect = e
					pr.support.Layer = next
					additions = append(additions, pr)
				}
			}
		}

		if len(additions) == 0 {
			return g, nil
		}

		g.layers = append(g.layers, make([]atoms.AtomID, 0, len(additions)))
		for _, add := range additions {
			g.supports = append(g.supports, add.support)
			g.reach(add.id, len(g.supports)-1)
		}

		done, err := b.checkGoal(g)
		if err != nil || done {
			return g, err
		}
	}
}

// effectAtoms returns the atoms eff can produce in g, each with the
// witnesses that justify it.
func (b *Builder) effectAtoms(g *Graph, eff action.Effect, preWitnesses []atoms.Atom) ([]pending, error) {
	holds, condWitnesses, err := b.checker.Check(eff.Condition, g)
	if err != nil || !holds {
		return nil, err
	}
	values, err := formula.RelaxedValues(eff.Value, g)
	if err != nil {
		return nil, err
	}

	out := make([]pending, 0, len(values))
	for _, w := range values {
		id, ok := b.ix.Lookup(eff.Var, w.Value)
		if !ok {
			return nil, problem.ValueOutOfDomain("rpg.Build", eff.Var, w.Value)
		}
		witnesses, err := b.toIDs(preWitnesses, condWitnesses, w.Witnesses)
		if err != nil {
			return nil, err
		}
		out = append(out, pending{id: id, support: Support{Witnesses: witnesses}})
	}
	return out, nil
}

func (b *Builder) toIDs(groups ...[]atoms.Atom) ([]atoms.AtomID, error) {
	var out []atoms.AtomID
	seen := make(map[atoms.AtomID]struct{})
	for _, group := range groups {
		for _, a := range group {
			id, ok := b.ix.Lookup(a.Var, a.Val)
			if !ok {
				return nil, problem.ValueOutOfDomain("rpg.Build", a.Var, a.Val)
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

func (b *Builder) checkGoal(g *Graph) (bool, error) {
	holds, witnesses, err := b.checker.Check(b.goal, g)
	if err != nil || !holds {
		return false, err
	}
	ids, err := b.toIDs(witnesses)
	if err != nil {
		return false, err
	}
	g.goalLayer = len(g.layers) - 1
	g.goalWitnesses = ids
	return true, nil
}
