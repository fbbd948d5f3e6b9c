// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search implements best-first planning search with width-based
// novelty pruning and relaxed planning graph heuristics.
//
// # Strategies
//
//   - novelty: order by novelty then g. With pruning this is IW(W).
//   - hmax, hff: greedy best-first search on the relaxed graph heuristic.
//   - bfws: novelty within h_FF partitions, then h_FF.
//
// Ties are broken by g and then by insertion order. A successor that
// satisfies the goal ends the run when it is generated.
//
// # Lifecycle
//
// An Engine is built by NewEngine, which validates the task and the
// configuration, and runs once. Every run ends Solved, Exhausted or
// BoundedIncomplete, or returns an error with no result:
//
//	res, err := search.Solve(ctx, task, search.DefaultConfig())
//	if err != nil {
//	    return fmt.Errorf("solve: %w", err)
//	}
//	if res.Solved() {
//	    fmt.Println(res.PlanNames())
//	}
//
// Portfolio and IteratedWidth compose engines.
//
// # Thread Safety
//
// An Engine is single-threaded. Independent engines may share a task whose
// atom index is sealed.
package search
