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
	"fmt"
	"time"

	"github.com/aig-upf/fs-private-sub005/services/planner/action"
)

// Status is the terminal state of a run. The zero value means the run
// aborted with an error.
type Status string

const (
	// StatusSolved means a plan was found.
	StatusSolved Status = "solved"

	// StatusExhausted means the open list emptied. With novelty pruning or
	// dead-end discarding this is not a proof of unsolvability.
	StatusExhausted Status = "exhausted"

	// StatusBoundedIncomplete means a budget limit or cancellation stopped
	// the run.
	StatusBoundedIncomplete Status = "bounded_incomplete"
)

// Stats counts the work done by a run.
type Stats struct {
	Expanded     int64         `json:"expanded"`
	Generated    int64         `json:"generated"`
	Pruned       int64         `json:"pruned"`
	Duplicates   int64         `json:"duplicates"`
	DeadEnds     int64         `json:"dead_ends"`
	NodesCreated int64         `json:"nodes_created"`
	RPGBuilds    int64         `json:"rpg_builds"`
	MaxG         int           `json:"max_g"`
	Elapsed      time.Duration `json:"elapsed"`
}

// add accumulates o into s.
func (s *Stats) add(o Stats) {
	s.Expanded += o.Expanded
	s.Generated += o.Generated
	s.Pruned += o.Pruned
	s.Duplicates += o.Duplicates
	s.DeadEnds += o.DeadEnds
	s.NodesCreated += o.NodesCreated
	s.RPGBuilds += o.RPGBuilds
	s.MaxG = max(s.MaxG, o.MaxG)
	s.Elapsed += o.Elapsed
}

// Result is the outcome of a run.
type Result struct {
	Status Status
	Plan   []*action.Action

	// Cost is the plan length.
	Cost int

	// Reason names the exhausted limit for StatusBoundedIncomplete.
	Reason string

	Strategy Strategy
	Width    int
	Stats    Stats
}

// Solved reports whether the run found a plan.
func (r *Result) Solved() bool {
	return r != nil && r.Status == StatusSolved
}

// PlanNames returns the names of the plan's actions.
func (r *Result) PlanNames() []string {
	return action.Names(r.Plan)
}

func (r *Result) String() string {
	switch r.Status {
	case StatusSolved:
		return fmt.Sprintf("%s: plan of length %d (%s, W=%d, expanded=%d)", r.Status, r.Cost, r.Strategy, r.Width, r.Stats.Expanded)
	case StatusBoundedIncomplete:
		return fmt.Sprintf("%s: %s limit (%s, W=%d, expanded=%d)", r.Status, r.Reason, r.Strategy, r.Width, r.Stats.Expanded)
	default:
		return fmt.Sprintf("%s (%s, W=%d, expanded=%d)", r.Status, r.Strategy, r.Width, r.Stats.Expanded)
	}
}
