// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aig-upf/fs-private-sub005/services/planner/action"
	"github.com/aig-upf/fs-private-sub005/services/planner/formula"
	"github.com/aig-upf/fs-private-sub005/services/planner/plannertest"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/state"
)

func TestPlan(t *testing.T) {
	f := plannertest.Switches(t)
	setA, setB := f.Actions[0], f.Actions[1]

	t.Run("valid plan", func(t *testing.T) {
		final, err := Plan(f.Problem, f.Init, f.Goal, []*action.Action{setA, setB})
		require.NoError(t, err)
		assert.Equal(t, []problem.Value{plannertest.T, plannertest.T, plannertest.F}, final.Values())
	})

	t.Run("precondition fails", func(t *testing.T) {
		_, err := Plan(f.Problem, f.Init, f.Goal, []*action.Action{setB})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPreconditionFailed)

		var stepErr *StepError
		require.True(t, errors.As(err, &stepErr))
		assert.Equal(t, 0, stepErr.Step)
		assert.Equal(t, "set_b", stepErr.Action)
	})

	t.Run("goal not reached", func(t *testing.T) {
		_, err := Plan(f.Problem, f.Init, f.Goal, []*action.Action{setA})
		assert.ErrorIs(t, err, ErrGoalNotReached)

		var stepErr *StepError
		require.True(t, errors.As(err, &stepErr))
		assert.Equal(t, 1, stepErr.Step)
	})

	t.Run("empty plan on satisfied goal", func(t *testing.T) {
		_, err := Plan(f.Problem, f.Init, formula.Eq{Var: 2, Value: plannertest.F}, nil)
		assert.NoError(t, err)
	})
}

type failing struct{ formula.True }

var errBoom = errors.New("boom")

func (failing) Interpret(*state.State) (bool, error) { return false, errBoom }

func TestPlan_FormulaErrorsPropagate(t *testing.T) {
	f := plannertest.Switches(t)
	bad := &action.Action{Name: "bad", Precondition: failing{}}

	_, err := Plan(f.Problem, f.Init, f.Goal, []*action.Action{bad})
	assert.ErrorIs(t, err, errBoom)

	_, err = Plan(f.Problem, f.Init, failing{}, nil)
	assert.ErrorIs(t, err, errBoom)
}
