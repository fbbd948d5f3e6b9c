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
	"log/slog"

	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
)

// IteratedWidth runs IW(1), IW(2), ... up to maxWidth with fresh novelty
// tables for each width, stopping at the first plan.
//
// cfg supplies the budget, analyzer and observability settings; the
// strategy is forced to StrategyNovelty with pruning. Each iteration gets
// its own budget. Cancellation or budget exhaustion stops the loop with
// StatusBoundedIncomplete. The returned Stats accumulate all iterations
// and Width reports the last width tried.
func IteratedWidth(ctx context.Context, task Task, cfg Config, maxWidth int) (*Result, error) {
	if maxWidth <= 0 {
		return nil, problem.Configurationf("search.IteratedWidth", "max width must be positive, got %d", maxWidth)
	}
	task, err := task.prepare()
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		total Stats
		last  *Result
	)
	for w := 1; w <= maxWidth; w++ {
		iw := cfg
		iw.Strategy = StrategyNovelty
		iw.Width = w
		iw.PruneNotNovel = true

		res, err := Solve(ctx, task, iw)
		if err != nil {
			return nil, err
		}
		total.add(res.Stats)
		res.Stats = total
		last = res

		if res.Status != StatusExhausted {
			return res, nil
		}
		logger.DebugContext(ctx, "width exhausted, increasing",
			slog.Int("width", w),
			slog.Int64("expanded", total.Expanded))
	}
	return last, nil
}
