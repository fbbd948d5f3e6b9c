// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package problem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("builds dense ids", func(t *testing.T) {
		p, err := New("switches", []Variable{
			{Name: "a", Kind: KindBool, Domain: BoolDomain()},
			{Name: "pos", Kind: KindInt, Domain: IntRange(0, 3)},
		})
		require.NoError(t, err)

		assert.Equal(t, "switches", p.Name())
		assert.Equal(t, 2, p.NumVariables())
		assert.Equal(t, 6, p.NumAtoms())

		v, ok := p.VariableByName("pos")
		require.True(t, ok)
		assert.Equal(t, VariableID(1), v)
	})

	tests := []struct {
		name string
		vars []Variable
	}{
		{"empty name", []Variable{{Domain: BoolDomain()}}},
		{"duplicate name", []Variable{{Name: "a", Domain: BoolDomain()}, {Name: "a", Domain: BoolDomain()}}},
		{"empty domain", []Variable{{Name: "a"}}},
		{"duplicate value", []Variable{{Name: "a", Domain: []Value{1, 1}}}},
		{"value names mismatch", []Variable{{Name: "a", Domain: []Value{0, 1}, ValueNames: []string{"x"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("bad", tt.vars)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}

func TestProblem_DomainChecks(t *testing.T) {
	p, err := New("p", []Variable{
		{Name: "holding", Kind: KindObject, Domain: []Value{0, 1, 2}, ValueNames: []string{"none", "blockA", "blockB"}},
		{Name: "on", Kind: KindBool, Domain: BoolDomain()},
	})
	require.NoError(t, err)

	assert.True(t, p.InDomain(0, 2))
	assert.False(t, p.InDomain(0, 3))
	assert.False(t, p.InDomain(5, 0))

	err = p.CheckAtom("test", 0, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDomain))

	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.True(t, de.HasValue)
	assert.Equal(t, Value(7), de.Value)

	err = p.CheckAtom("test", 9, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDomain))

	_, err = p.Variable(-1)
	assert.True(t, errors.Is(err, ErrDomain))
}

func TestProblem_Names(t *testing.T) {
	p, err := New("p", []Variable{
		{Name: "holding", Kind: KindObject, Domain: []Value{0, 1}, ValueNames: []string{"none", "blockA"}},
		{Name: "on", Kind: KindBool, Domain: BoolDomain()},
		{Name: "pos", Kind: KindInt, Domain: IntRange(-1, 1)},
	})
	require.NoError(t, err)

	assert.Equal(t, "holding=blockA", p.AtomString(0, 1))
	assert.Equal(t, "on=true", p.AtomString(1, 1))
	assert.Equal(t, "on=false", p.AtomString(1, 0))
	assert.Equal(t, "pos=-1", p.AtomString(2, -1))
	assert.Equal(t, "#7", p.VariableName(7))
}

func TestErrors_Is(t *testing.T) {
	assert.True(t, errors.Is(Configurationf("op", "bad %d", 1), ErrConfiguration))
	assert.True(t, errors.Is(&IndexError{Op: "intern"}, ErrIndexSealed))

	inner := errors.New("solver crashed")
	capErr := &CapabilityError{Op: "interpret", Err: inner}
	assert.True(t, errors.Is(capErr, ErrCapability))
	assert.True(t, errors.Is(capErr, inner))
	assert.Same(t, inner, errors.Unwrap(capErr))
}

func TestIntRange(t *testing.T) {
	assert.Equal(t, []Value{2, 3, 4}, IntRange(2, 4))
	assert.Nil(t, IntRange(3, 2))
}
