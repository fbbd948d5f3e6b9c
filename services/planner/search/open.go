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
	"container/heap"

	"github.com/aig-upf/fs-private-sub005/services/planner/action"
	"github.com/aig-upf/fs-private-sub005/services/planner/state"
)

// node is a search node stored in the engine arena.
type node struct {
	state  *state.State
	parent int32 // -1 for the root
	action *action.Action
	g      int

	novelty int
	h       int

	// applicable is filled when the node is expanded with an incremental
	// analyzer and reused by its children.
	applicable []*action.Action
}

// score orders open list entries. Lower is better.
type score struct {
	primary   int
	secondary int
}

type entry struct {
	node  int32
	score score
	g     int
	seq   int64
}

// openList is a min-heap on (primary, secondary, g, insertion order).
type openList []entry

func (o openList) Len() int { return len(o) }

func (o openList) Less(i, j int) bool {
	a, b := o[i], o[j]
	if a.score.primary != b.score.primary {
		return a.score.primary < b.score.primary
	}
	if a.score.secondary != b.score.secondary {
		return a.score.secondary < b.score.secondary
	}
	if a.g != b.g {
		return a.g < b.g
	}
	return a.seq < b.seq
}

func (o openList) Swap(i, j int) { o[i], o[j] = o[j], o[i] }

func (o *openList) Push(x any) { *o = append(*o, x.(entry)) }

func (o *openList) Pop() any {
	old := *o
	n := len(old)
	e := old[n-1]
	*o = old[:n-1]
	return e
}

func (o *openList) push(e entry) { heap.Push(o, e) }

func (o *openList) pop() entry { return heap.Pop(o).(entry) }
