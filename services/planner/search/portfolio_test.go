// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aig-upf/fs-private-sub005/services/planner/formula"
	"github.com/aig-upf/fs-private-sub005/services/planner/plannertest"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
)

func TestPortfolio_FirstSolvedWins(t *testing.T) {
	task := taskOf(plannertest.Grid(t, 4, 4))

	iw1 := DefaultConfig()
	hff := DefaultConfig()
	hff.Strategy = StrategyHFF
	bfws := DefaultConfig()
	bfws.Strategy = StrategyBFWS
	bfws.Width = 2

	res, err := Portfolio(context.Background(), task, iw1, hff, bfws)
	require.NoError(t, err)
	requireSound(t, task, res)
	assert.NotEqual(t, StrategyNovelty, res.Strategy, "IW(1) cannot solve this grid")
}

func TestPortfolio_PrefersCompleteExhaustion(t *testing.T) {
	task := taskOf(plannertest.Switches(t))
	task.Goal = formula.Eq{Var: 2, Value: plannertest.T}

	pruned := DefaultConfig()
	complete := DefaultConfig()
	complete.PruneNotNovel = false
	complete.DuplicateDetection = true

	res, err := Portfolio(context.Background(), task, pruned, complete)
	require.NoError(t, err)
	assert.Equal(t, StatusExhausted, res.Status)
	assert.Equal(t, int64(0), res.Stats.Pruned)
	assert.Positive(t, res.Stats.Duplicates)
}

func TestPortfolio_Errors(t *testing.T) {
	task := taskOf(plannertest.Switches(t))

	_, err := Portfolio(context.Background(), task)
	assert.ErrorIs(t, err, problem.ErrConfiguration)

	bad := DefaultConfig()
	bad.Width = 0
	_, err = Portfolio(context.Background(), task, DefaultConfig(), bad)
	assert.ErrorIs(t, err, problem.ErrConfiguration)
}

func TestIteratedWidth(t *testing.T) {
	t.Run("solves at width two", func(t *testing.T) {
		task := taskOf(plannertest.Grid(t, 4, 4))
		res, err := IteratedWidth(context.Background(), task, DefaultConfig(), 3)
		require.NoError(t, err)
		requireSound(t, task, res)
		assert.Equal(t, 2, res.Width)
		// Stats include the exhausted IW(1) pass.
		assert.Greater(t, res.Stats.Expanded, int64(7))
	})

	t.Run("exhausted at the bound", func(t *testing.T) {
		task := taskOf(plannertest.Grid(t, 4, 4))
		res, err := IteratedWidth(context.Background(), task, DefaultConfig(), 1)
		require.NoError(t, err)
		assert.Equal(t, StatusExhausted, res.Status)
		assert.Equal(t, 1, res.Width)
	})

	t.Run("bounded", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Budget.MaxExpansions = 1
		res, err := IteratedWidth(context.Background(), taskOf(plannertest.Grid(t, 4, 4)), cfg, 3)
		require.NoError(t, err)
		assert.Equal(t, StatusBoundedIncomplete, res.Status)
		assert.Equal(t, 1, res.Width)
	})

	t.Run("invalid bound", func(t *testing.T) {
		_, err := IteratedWidth(context.Background(), taskOf(plannertest.Grid(t, 2, 2)), DefaultConfig(), 0)
		assert.ErrorIs(t, err, problem.ErrConfiguration)
	})
}
