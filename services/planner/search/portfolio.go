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
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
)

// Portfolio runs one engine per configuration concurrently.
//
// Description:
//
//	Every engine is built before any starts, so configuration errors are
//	reported without running anything. The first engine to solve the task
//	cancels the others and its result is returned. When none solves it,
//	an Exhausted result from a configuration without pruning is preferred,
//	then any Exhausted result, then the first bounded result. A run error
//	cancels the portfolio and is returned unless a plan was already found.
//
// Inputs:
//   - ctx: Context for cancellation.
//   - task: The task. Its atom index is sealed and shared by all engines.
//   - cfgs: One configuration per engine. At least one is required.
//
// Outputs:
//   - *Result: The selected result.
//   - error: Construction or run errors.
//
// Thread Safety: Each engine owns its open list and novelty tables.
func Portfolio(ctx context.Context, task Task, cfgs ...Config) (*Result, error) {
	if len(cfgs) == 0 {
		return nil, problem.Configurationf("search.Portfolio", "no configurations")
	}

	// Prepare once so every engine shares one sealed index.
	task, err := task.prepare()
	if err != nil {
		return nil, err
	}
	engines := make([]*Engine, len(cfgs))
	for i, cfg := range cfgs {
		engines[i], err = NewEngine(task, cfg)
		if err != nil {
			return nil, fmt.Errorf("portfolio member %d (%s): %w", i, cfg.Strategy, err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*Result, len(engines))
	var (
		once   sync.Once
		winner = -1
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, e := range engines {
		g.Go(func() error {
			res, err := e.Run(gctx)
			if err != nil {
				return fmt.Errorf("portfolio member %d (%s): %w", i, e.cfg.Strategy, err)
			}
			results[i] = res
			if res.Solved() {
				once.Do(func() {
					winner = i
					cancel()
				})
			}
			return nil
		})
	}
	err = g.Wait()

	if winner >= 0 {
		return results[winner], nil
	}
	if err != nil {
		return nil, err
	}
	return mostInformative(results, cfgs), nil
}

// mostInformative picks the result to report when nothing was solved.
func mostInformative(results []*Result, cfgs []Config) *Result {
	for i, r := range results {
		if r.Status == StatusExhausted && r.Stats.Pruned == 0 && r.Stats.DeadEnds == 0 && !cfgs[i].PruneNotNovel {
			return r
		}
	}
	for _, r := range results {
		if r.Status == StatusExhausted {
			return r
		}
	}
	return results[0]
}
