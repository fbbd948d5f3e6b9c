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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aig-upf/fs-private-sub005/services/planner/atoms"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/state"
)

func testState(t *testing.T, values ...problem.Value) *state.State {
	t.Helper()
	vars := []problem.Variable{
		{Name: "a", Kind: problem.KindBool, Domain: problem.BoolDomain()},
		{Name: "b", Kind: problem.KindBool, Domain: problem.BoolDomain()},
		{Name: "pos", Kind: problem.KindInt, Domain: problem.IntRange(0, 3)},
	}
	p, err := problem.New("f", vars)
	require.NoError(t, err)
	s, err := state.New(p, values)
	require.NoError(t, err)
	return s
}

// opaque is a formula with no relaxed semantics.
type opaque struct{ err error }

func (o opaque) Interpret(*state.State) (bool, error) { return false, o.err }
func (opaque) Variables() []problem.VariableID        { return nil }
func (opaque) String() string                         { return "opaque" }

func TestInterpret(t *testing.T) {
	s := testState(t, 1, 0, 2)

	tests := []struct {
		name string
		f    Formula
		want bool
	}{
		{"true", True{}, true},
		{"false", False{}, false},
		{"eq holds", Eq{Var: 0, Value: 1}, true},
		{"eq fails", Eq{Var: 1, Value: 1}, false},
		{"neq", Neq{Var: 2, Value: 3}, true},
		{"not", Not{F: Eq{Var: 1, Value: 1}}, true},
		{"and", And{Fs: []Formula{Eq{Var: 0, Value: 1}, Eq{Var: 2, Value: 2}}}, true},
		{"and fails", And{Fs: []Formula{Eq{Var: 0, Value: 1}, Eq{Var: 2, Value: 3}}}, false},
		{"empty and", And{}, true},
		{"or", Or{Fs: []Formula{Eq{Var: 1, Value: 1}, Eq{Var: 2, Value: 2}}}, true},
		{"empty or", Or{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.f.Interpret(s)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("nil holds", func(t *testing.T) {
		ok, err := Holds(nil, s)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "true", String(nil))
		assert.Nil(t, Variables(nil))
	})

	t.Run("unknown variable", func(t *testing.T) {
		_, err := Eq{Var: 9, Value: 0}.Interpret(s)
		assert.True(t, errors.Is(err, problem.ErrDomain))
	})

	t.Run("errors propagate verbatim", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := And{Fs: []Formula{True{}, opaque{err: boom}}}.Interpret(s)
		assert.Same(t, boom, err)
		_, err = Or{Fs: []Formula{False{}, opaque{err: boom}}}.Interpret(s)
		assert.Same(t, boom, err)
		_, err = Not{F: opaque{err: boom}}.Interpret(s)
		assert.Same(t, boom, err)
	})
}

func TestVariables(t *testing.T) {
	f := And{Fs: []Formula{
		Eq{Var: 2, Value: 1},
		Or{Fs: []Formula{Neq{Var: 0, Value: 0}, Eq{Var: 2, Value: 0}}},
	}}
	assert.Equal(t, []problem.VariableID{0, 2}, f.Variables())
}

func TestConjunction(t *testing.T) {
	assert.Equal(t, True{}, Conjunction())
	assert.Equal(t, Eq{Var: 1, Value: 1}, Conjunction(True{}, Eq{Var: 1, Value: 1}, nil))

	got := Conjunction(And{Fs: []Formula{Eq{Var: 0, Value: 1}}}, Eq{Var: 1, Value: 0})
	assert.Equal(t, And{Fs: []Formula{Eq{Var: 0, Value: 1}, Eq{Var: 1, Value: 0}}}, got)
}

func TestCompositionalChecker(t *testing.T) {
	r := MapRelaxedState{0: {0, 1}, 1: {0}, 2: {2}}
	var c CompositionalChecker

	tests := []struct {
		name      string
		f         Formula
		want      bool
		witnesses []atoms.Atom
	}{
		{"nil", nil, true, nil},
		{"reached eq", Eq{Var: 0, Value: 1}, true, []atoms.Atom{{Var: 0, Val: 1}}},
		{"unreached eq", Eq{Var: 1, Value: 1}, false, nil},
		{"neq with other value", Neq{Var: 2, Value: 3}, true, []atoms.Atom{{Var: 2, Val: 2}}},
		{"neq only value", Neq{Var: 2, Value: 2}, false, nil},
		{"not dropped", Not{F: Eq{Var: 0, Value: 0}}, true, nil},
		{"both values of a", And{Fs: []Formula{Eq{Var: 0, Value: 0}, Eq{Var: 0, Value: 1}}}, true,
			[]atoms.Atom{{Var: 0, Val: 0}, {Var: 0, Val: 1}}},
		{"or first satisfied", Or{Fs: []Formula{Eq{Var: 1, Value: 1}, Eq{Var: 2, Value: 2}}}, true,
			[]atoms.Atom{{Var: 2, Val: 2}}},
		{"and dedups", And{Fs: []Formula{Eq{Var: 2, Value: 2}, Eq{Var: 2, Value: 2}}}, true,
			[]atoms.Atom{{Var: 2, Val: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, w, err := c.Check(tt.f, r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.witnesses, w)
		})
	}

	t.Run("capability error", func(t *testing.T) {
		for _, f := range []Formula{
			opaque{},
			And{Fs: []Formula{True{}, opaque{}}},
			Or{Fs: []Formula{Eq{Var: 1, Value: 1}, opaque{}}},
			And{Fs: []Formula{Or{Fs: []Formula{False{}, opaque{}}}}},
		} {
			_, _, err := c.Check(f, r)
			assert.True(t, errors.Is(err, problem.ErrCapability), f.String())
		}
	})
}

func TestExpr(t *testing.T) {
	s := testState(t, 1, 0, 3)

	x, err := Const{Value: 2}.Evaluate(s)
	require.NoError(t, err)
	assert.Equal(t, problem.Value(2), x)

	x, err = Ref{Var: 2}.Evaluate(s)
	require.NoError(t, err)
	assert.Equal(t, problem.Value(3), x)

	r := MapRelaxedState{2: {0, 3}}
	vals, err := RelaxedValues(Ref{Var: 2}, r)
	require.NoError(t, err)
	assert.Equal(t, []Witnessed{
		{Value: 0, Witnesses: []atoms.Atom{{Var: 2, Val: 0}}},
		{Value: 3, Witnesses: []atoms.Atom{{Var: 2, Val: 3}}},
	}, vals)

	vals, err = RelaxedValues(Const{Value: 1}, r)
	require.NoError(t, err)
	assert.Equal(t, []Witnessed{{Value: 1}}, vals)
}
