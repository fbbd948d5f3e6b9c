// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package satcheck interprets planner formulas with the gini SAT solver.
//
// Description:
//
//	Each formula is compiled into a combinational circuit over one literal
//	per (variable, reached value) pair, with an exactly-one constraint per
//	variable. Satisfiability of the circuit means some choice of a single
//	reached value per variable makes the formula true. Against a singleton
//	state this is exact interpretation; against an RPG layer it is a
//	stricter relaxation than the compositional one because a variable
//	cannot serve two different values to two conjuncts.
//
// Thread Safety: Checker is stateless; every Check builds a fresh solver.
package satcheck

import (
	"fmt"
	"slices"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/aig-upf/fs-private-sub005/services/planner/atoms"
	"github.com/aig-upf/fs-private-sub005/services/planner/formula"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/state"
)

// Checker is a formula.RelaxedChecker backed by gini.
type Checker struct{}

// New returns a Checker.
func New() *Checker {
	return &Checker{}
}

// encoding maps reached atoms to circuit literals.
type encoding struct {
	c    *logic.C
	r    formula.RelaxedState
	lits map[atoms.Atom]z.Lit
	vars []problem.VariableID
}

func (e *encoding) lit(v problem.VariableID, x problem.Value) (z.Lit, bool) {
	if !e.r.Reached(v, x) {
		return 0, false
	}
	e.declare(v)
	return e.lits[atoms.Atom{Var: v, Val: x}], true
}

// declare allocates one literal per reached value of v on first use.
func (e *encoding) declare(v problem.VariableID) {
	if slices.Contains(e.vars, v) {
		return
	}
	e.vars = append(e.vars, v)
	for _, y := range e.r.ReachedValues(v) {
		e.lits[atoms.Atom{Var: v, Val: y}] = e.c.Lit()
	}
}

func (e *encoding) compile(f formula.Formula) (z.Lit, error) {
	switch t := f.(type) {
	case nil, formula.True:
		return e.c.T, nil
	case formula.False:
		return e.c.F, nil
	case formula.Eq:
		if m, ok := e.lit(t.Var, t.Value); ok {
			return m, nil
		}
		return e.c.F, nil
	case formula.Neq:
		e.declare(t.Var)
		if m, ok := e.lit(t.Var, t.Value); ok {
			return m.Not(), nil
		}
		return e.c.T, nil
	case formula.Not:
		m, err := e.compile(t.F)
		if err != nil {
			return 0, err
		}
		return m.Not(), nil
	case formula.And:
		ms, err := e.compileAll(t.Fs)
		if err != nil {
			return 0, err
		}
		if len(ms) == 0 {
			return e.c.T, nil
		}
		return e.c.Ands(ms...), nil
	case formula.Or:
		ms, err := e.compileAll(t.Fs)
		if err != nil {
			return 0, err
		}
		if len(ms) == 0 {
			return e.c.F, nil
		}
		return e.c.Ors(ms...), nil
	default:
		return 0, &problem.CapabilityError{
			Op:  "satcheck.compile",
			Err: fmt.Errorf("unsupported formula node %T", f),
		}
	}
}

func (e *encoding) compileAll(fs []formula.Formula) ([]z.Lit, error) {
	ms := make([]z.Lit, 0, len(fs))
	for _, f := range fs {
		m, err := e.compile(f)
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, nil
}

// exactlyOne returns the conjunction of exactly-one constraints over the
// literals of every declared variable.
func (e *encoding) exactlyOne() z.Lit {
	root := e.c.T
	for _, v := range e.vars {
		values := e.r.ReachedValues(v)
		if len(values) == 0 {
			return e.c.F
		}
		ms := make([]z.Lit, len(values))
		for i, y := range values {
			ms[i] = e.lits[atoms.Atom{Var: v, Val: y}]
		}
		if len(ms) == 1 {
			root = e.c.And(root, ms[0])
			continue
		}
		card := e.c.CardSort(ms)
		root = e.c.And(root, e.c.And(card.Geq(1), card.Leq(1)))
	}
	return root
}

// Check implements formula.RelaxedChecker.
//
// Outputs:
//   - bool: Whether a consistent choice of reached values satisfies f.
//   - []atoms.Atom: The chosen atoms of the variables f reads, in variable
//     declaration order of the encoding.
//   - error: CapabilityError for node types the encoder does not know, or
//     if the solver was interrupted.
func (ch *Checker) Check(f formula.Formula, r formula.RelaxedState) (bool, []atoms.Atom, error) {
	if f == nil {
		return true, nil, nil
	}
	e := &encoding{c: logic.NewC(), r: r, lits: make(map[atoms.Atom]z.Lit)}
	goal, err := e.compile(f)
	if err != nil {
		return false, nil, err
	}
	if goal == e.c.F {
		return false, nil, nil
	}
	root := e.c.And(goal, e.exactlyOne())
	if root == e.c.F {
		return false, nil, nil
	}

	g := gini.New()
	e.c.ToCnf(g)
	g.Assume(root)
	switch g.Solve() {
	case 1:
	case -1:
		return false, nil, nil
	default:
		return false, nil, &problem.CapabilityError{
			Op:  "satcheck.Check",
			Err: fmt.Errorf("solver returned no answer for %s", f.String()),
		}
	}

	var witnesses []atoms.Atom
	for _, v := range e.vars {
		for _, y := range r.ReachedValues(v) {
			a := atoms.Atom{Var: v, Val: y}
			if g.Value(e.lits[a]) {
				witnesses = append(witnesses, a)
			}
		}
	}
	return true, witnesses, nil
}

// singleton is the relaxed view of one concrete state.
type singleton struct {
	s *state.State
}

func (o singleton) Reached(v problem.VariableID, x problem.Value) bool {
	y, err := o.s.Value(v)
	return err == nil && y == x
}

func (o singleton) ReachedValues(v problem.VariableID) []problem.Value {
	y, err := o.s.Value(v)
	if err != nil {
		return nil
	}
	return []problem.Value{y}
}

// Formula is a formula interpreted by the SAT backend.
type Formula struct {
	inner   formula.Formula
	checker *Checker
}

// Wrap returns f interpreted through gini.
func Wrap(f formula.Formula) *Formula {
	return &Formula{inner: f, checker: New()}
}

// Interpret implements formula.Formula.
func (f *Formula) Interpret(s *state.State) (bool, error) {
	for _, v := range f.inner.Variables() {
		if _, err := s.Value(v); err != nil {
			return false, err
		}
	}
	ok, _, err := f.checker.Check(f.inner, singleton{s: s})
	return ok, err
}

// Variables implements formula.Formula.
func (f *Formula) Variables() []problem.VariableID {
	return f.inner.Variables()
}

func (f *Formula) String() string {
	return "sat(" + f.inner.String() + ")"
}

// Relaxed implements formula.RelaxedInterpreter with the SAT semantics.
func (f *Formula) Relaxed(r formula.RelaxedState) (bool, []atoms.Atom, error) {
	return f.checker.Check(f.inner, r)
}
