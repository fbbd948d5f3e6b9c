// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aig-upf/fs-private-sub005/services/planner/atoms"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
)

func testProblem(t *testing.T) *problem.Problem {
	t.Helper()
	p, err := problem.New("abc", []problem.Variable{
		{Name: "a", Kind: problem.KindBool, Domain: problem.BoolDomain()},
		{Name: "b", Kind: problem.KindBool, Domain: problem.BoolDomain()},
		{Name: "pos", Kind: problem.KindInt, Domain: problem.IntRange(0, 4)},
	})
	require.NoError(t, err)
	return p
}

func TestNew(t *testing.T) {
	p := testProblem(t)

	t.Run("valid", func(t *testing.T) {
		in := []problem.Value{0, 1, 3}
		s, err := New(p, in)
		require.NoError(t, err)
		in[0] = 1
		v, err := s.Value(0)
		require.NoError(t, err)
		assert.Equal(t, problem.Value(0), v, "state must not alias the input slice")
	})

	t.Run("wrong arity", func(t *testing.T) {
		_, err := New(p, []problem.Value{0, 1})
		assert.True(t, errors.Is(err, problem.ErrConfiguration))
	})

	t.Run("out of domain", func(t *testing.T) {
		_, err := New(p, []problem.Value{0, 1, 9})
		assert.True(t, errors.Is(err, problem.ErrDomain))
	})
}

func TestState_WithIsPure(t *testing.T) {
	p := testProblem(t)
	s, err := New(p, []problem.Value{0, 0, 0})
	require.NoError(t, err)

	succ := s.With([]Update{{Var: 0, Val: 1}, {Var: 2, Val: 4}})
	assert.Equal(t, []problem.Value{0, 0, 0}, s.Values())
	assert.Equal(t, []problem.Value{1, 0, 4}, succ.Values())
	assert.NotEqual(t, s.Hash(), succ.Hash())
	assert.Equal(t, []problem.VariableID{0, 2}, s.Diff(succ))

	assert.Same(t, s, s.With(nil))
}

func TestState_HashAndEqual(t *testing.T) {
	p := testProblem(t)
	s1, err := New(p, []problem.Value{1, 0, 2})
	require.NoError(t, err)
	s2, err := New(p, []problem.Value{0, 0, 0})
	require.NoError(t, err)
	s2 = s2.With([]Update{{Var: 0, Val: 1}, {Var: 2, Val: 2}})

	assert.Equal(t, s1.Hash(), s2.Hash())
	assert.True(t, s1.Equal(s2))

	s3 := s2.With([]Update{{Var: 1, Val: 1}})
	assert.False(t, s1.Equal(s3))
	assert.False(t, s1.Equal(nil))
}

func TestState_Atoms(t *testing.T) {
	p := testProblem(t)
	ix := atoms.NewProblemIndex(p)
	s, err := New(p, []problem.Value{1, 0, 3})
	require.NoError(t, err)

	assert.True(t, s.Contains(atoms.Atom{Var: 2, Val: 3}))
	assert.False(t, s.Contains(atoms.Atom{Var: 2, Val: 1}))
	assert.False(t, s.Contains(atoms.Atom{Var: 7, Val: 1}))

	ids, err := s.Atoms(ix)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	for _, id := range ids {
		a, err := ix.AtomOf(id)
		require.NoError(t, err)
		assert.True(t, s.Contains(a))
	}

	_, err = s.Value(5)
	assert.True(t, errors.Is(err, problem.ErrDomain))
	assert.Equal(t, "{a=true, b=false, pos=3}", s.String(p))
}
