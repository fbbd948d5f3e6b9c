// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package formula defines the formula capability consumed by the planner
// core and ships a direct recursive implementation of it.
//
// Description:
//
//	The search engine, applicability analyzer and RPG builder only ever
//	see the Formula and Expr interfaces. The node types in this package
//	(Eq, Neq, Not, And, Or, True, False, Const, Ref) evaluate directly
//	against a state. Alternative backends, such as the SAT-based checker
//	in formula/satcheck, plug in behind the same interfaces.
//
// Thread Safety: All node types are immutable and safe for concurrent use.
package formula

import (
	"slices"
	"strconv"
	"strings"

	"github.com/aig-upf/fs-private-sub005/services/planner/atoms"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/state"
)

// Formula is a boolean condition over state variables.
type Formula interface {
	// Interpret evaluates the formula in s. Errors are returned verbatim
	// to the caller and abort the current search.
	Interpret(s *state.State) (bool, error)

	// Variables returns the sorted, deduplicated variables the formula reads.
	Variables() []problem.VariableID

	// String renders the formula for logs.
	String() string
}

// RelaxedState is a delete-relaxed state: every variable may hold any
// number of reached values at once.
type RelaxedState interface {
	Reached(v problem.VariableID, x problem.Value) bool
	ReachedValues(v problem.VariableID) []problem.Value
}

// RelaxedInterpreter is implemented by formulas that can evaluate themselves
// under delete-relaxed semantics. Witnesses are the reached atoms the
// evaluation relied on. Composite formulas return a CapabilityError when
// an operand has no relaxed semantics.
type RelaxedInterpreter interface {
	Relaxed(r RelaxedState) (bool, []atoms.Atom, error)
}

// Holds reports whether f is satisfied in s, treating a nil formula as true.
func Holds(f Formula, s *state.State) (bool, error) {
	if f == nil {
		return true, nil
	}
	return f.Interpret(s)
}

// Variables returns the variables read by f, or nil for a nil formula.
func Variables(f Formula) []problem.VariableID {
	if f == nil {
		return nil
	}
	return f.Variables()
}

// String renders f, or "true" for a nil formula.
func String(f Formula) string {
	if f == nil {
		return "true"
	}
	return f.String()
}

// True is the constant true formula.
type True struct{}

func (True) Interpret(*state.State) (bool, error) { return true, nil }
func (True) Variables() []problem.VariableID      { return nil }
func (True) String() string                       { return "true" }

func (True) Relaxed(RelaxedState) (bool, []atoms.Atom, error) { return true, nil, nil }

// False is the constant false formula.
type False struct{}

func (False) Interpret(*state.State) (bool, error) { return false, nil }
func (False) Variables() []problem.VariableID      { return nil }
func (False) String() string                       { return "false" }

func (False) Relaxed(RelaxedState) (bool, []atoms.Atom, error) { return false, nil, nil }

// Eq holds when Var has value Value.
type Eq struct {
	Var   problem.VariableID
	Value problem.Value
}

func (f Eq) Interpret(s *state.State) (bool, error) {
	x, err := s.Value(f.Var)
	if err != nil {
		return false, err
	}
	return x == f.Value, nil
}

func (f Eq) Variables() []problem.VariableID { return []problem.VariableID{f.Var} }

func (f Eq) String() string {
	return "v" + strconv.Itoa(int(f.Var)) + "=" + strconv.Itoa(int(f.Value))
}

// Relaxed holds when the atom was reached.
func (f Eq) Relaxed(r RelaxedState) (bool, []atoms.Atom, error) {
	if r.Reached(f.Var, f.Value) {
		return true, []atoms.Atom{{Var: f.Var, Val: f.Value}}, nil
	}
	return false, nil, nil
}

// Neq holds when Var does not have value Value.
type Neq struct {
	Var   problem.VariableID
	Value problem.Value
}

func (f Neq) Interpret(s *state.State) (bool, error) {
	x, err := s.Value(f.Var)
	if err != nil {
		return false, err
	}
	return x != f.Value, nil
}

func (f Neq) Variables() []problem.VariableID { return []problem.VariableID{f.Var} }

func (f Neq) String() string {
	return "v" + strconv.Itoa(int(f.Var)) + "!=" + strconv.Itoa(int(f.Value))
}

// Relaxed holds when some other value of Var was reached. The first such
// value in reach order is the witness.
func (f Neq) Relaxed(r RelaxedState) (bool, []atoms.Atom, error) {
	for _, y := range r.ReachedValues(f.Var) {
		if y != f.Value {
			return true, []atoms.Atom{{Var: f.Var, Val: y}}, nil
		}
	}
	return false, nil, nil
}

// Not negates F.
type Not struct {
	F Formula
}

func (f Not) Interpret(s *state.State) (bool, error) {
	ok, err := f.F.Interpret(s)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (f Not) Variables() []problem.VariableID { return f.F.Variables() }
func (f Not) String() string                  { return "not(" + f.F.String() + ")" }

// Relaxed drops the negation: a negated condition is always satisfiable
// under delete relaxation.
func (f Not) Relaxed(RelaxedState) (bool, []atoms.Atom, error) {
	return true, nil, nil
}

// And is the conjunction of Fs. An empty conjunction is true.
type And struct {
	Fs []Formula
}

func (f And) Interpret(s *state.State) (bool, error) {
	for _, sub := range f.Fs {
		ok, err := sub.Interpret(s)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (f And) Variables() []problem.VariableID { return mergeVariables(f.Fs) }
func (f And) String() string                  { return join("and", f.Fs) }

// Relaxed requires every conjunct, collecting all their witnesses.
func (f And) Relaxed(r RelaxedState) (bool, []atoms.Atom, error) {
	var witnesses []atoms.Atom
	for _, sub := range f.Fs {
		holds, w, err := relaxed(sub, r)
		if err != nil || !holds {
			return false, nil, err
		}
		witnesses = append(witnesses, w...)
	}
	return true, dedupAtoms(witnesses), nil
}

// Or is the disjunction of Fs. An empty disjunction is false.
type Or struct {
	Fs []Formula
}

func (f Or) Interpret(s *state.State) (bool, error) {
	for _, sub := range f.Fs {
		ok, err := sub.Interpret(s)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (f Or) Variables() []problem.VariableID { return mergeVariables(f.Fs) }
func (f Or) String() string                  { return join("or", f.Fs) }

// Relaxed holds when some disjunct holds; the first satisfied disjunct
// supplies the witnesses.
func (f Or) Relaxed(r RelaxedState) (bool, []atoms.Atom, error) {
	for _, sub := range f.Fs {
		holds, w, err := relaxed(sub, r)
		if err != nil {
			return false, nil, err
		}
		if holds {
			return true, w, nil
		}
	}
	return false, nil, nil
}

// Conjunction builds an And, flattening nested conjunctions and dropping
// True operands. It returns True for no operands and the single operand
// when only one remains.
func Conjunction(fs ...Formula) Formula {
	var out []Formula
	for _, f := range fs {
		switch t := f.(type) {
		case nil, True:
		case And:
			out = append(out, t.Fs...)
		default:
			out = append(out, f)
		}
	}
	switch len(out) {
	case 0:
		return True{}
	case 1:
		return out[0]
	}
	return And{Fs: out}
}

func mergeVariables(fs []Formula) []problem.VariableID {
	var out []problem.VariableID
	for _, f := range fs {
		out = append(out, f.Variables()...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func join(op string, fs []Formula) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.String()
	}
	return op + "(" + strings.Join(parts, ", ") + ")"
}

func dedupAtoms(in []atoms.Atom) []atoms.Atom {
	if len(in) < 2 {
		return in
	}
	seen := make(map[atoms.Atom]struct{}, len(in))
	out := in[:0]
	for _, a := range in {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
