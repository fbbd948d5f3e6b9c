// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validate replays plans against their problem.
package validate

import (
	"errors"
	"fmt"

	"github.com/aig-upf/fs-private-sub005/services/planner/action"
	"github.com/aig-upf/fs-private-sub005/services/planner/formula"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/state"
)

var (
	// ErrPreconditionFailed marks a plan step whose action is not applicable.
	ErrPreconditionFailed = errors.New("precondition not satisfied")

	// ErrGoalNotReached marks a plan whose final state misses the goal.
	ErrGoalNotReached = errors.New("goal not reached")
)

// StepError reports the plan step that failed.
type StepError struct {
	// Step is the zero-based position in the plan, or len(plan) for the
	// final goal check.
	Step   int
	Action string
	Err    error
}

func (e *StepError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("step %d: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Action, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Plan applies plan to init and checks every precondition and the goal.
//
// Outputs:
//   - *state.State: The final state, also on goal failure.
//   - error: A *StepError wrapping ErrPreconditionFailed, ErrGoalNotReached
//     or the error raised while applying a step.
func Plan(p *problem.Problem, init *state.State, goal formula.Formula, plan []*action.Action) (*state.State, error) {
	s := init
	for i, a := range plan {
		ok, err := a.Applicable(s)
		if err != nil {
			return s, &StepError{Step: i, Action: a.Name, Err: err}
		}
		if !ok {
			return s, &StepError{Step: i, Action: a.Name, Err: ErrPreconditionFailed}
		}
		s, err = action.Apply(p, a, s)
		if err != nil {
			return s, &StepError{Step: i, Action: a.Name, Err: err}
		}
	}

	ok, err := formula.Holds(goal, s)
	if err != nil {
		return s, &StepError{Step: len(plan), Err: err}
	}
	if !ok {
		return s, &StepError{Step: len(plan), Err: ErrGoalNotReached}
	}
	return s, nil
}
