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
	"errors"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"github.com/aig-upf/fs-private-sub005/services/planner/action"
	"github.com/aig-upf/fs-private-sub005/services/planner/applicability"
	"github.com/aig-upf/fs-private-sub005/services/planner/formula"
	"github.com/aig-upf/fs-private-sub005/services/planner/novelty"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/rpg"
	"github.com/aig-upf/fs-private-sub005/services/planner/state"
	"github.com/aig-upf/fs-private-sub005/services/planner/telemetry"
)

// Engine runs one best-first search over a task.
//
// The engine performs the loop:
//  1. POP: Take the best node from the open list
//  2. EXPAND: Compute its applicable actions and successor states
//  3. CHECK: Return at once if a successor satisfies the goal
//  4. SCORE: Evaluate novelty and/or the relaxed graph heuristic
//  5. PUSH: Accept successors that are neither pruned nor dead ends
//
// Thread Safety: Not safe for concurrent use. Run independent engines for
// parallel search; the task's sealed atom index may be shared.
type Engine struct {
	task   Task
	cfg    Config
	logger *slog.Logger

	analyzer    applicability.Analyzer
	incremental applicability.Incremental // nil unless cfg.Incremental
	builder     *rpg.Builder              // nil unless the strategy uses the RPG
	novelty     *novelty.Evaluator        // StrategyNovelty
	partitioned *novelty.Partitioned      // StrategyBFWS

	nodes    []node
	open     openList
	seen     map[uint64][]int32
	seq      int64
	stats    Stats
	budget   *Budget
	progress rate.Sometimes
	ran      bool
}

// NewEngine validates task and cfg and prepares an engine.
//
// Outputs:
//   - *Engine: Engine in the ready state.
//   - error: ConfigurationError for an invalid configuration or an empty
//     action set whose goal the initial state misses, DomainError for
//     actions or goals outside the problem, or formula errors raised
//     while checking the initial state.
func NewEngine(task Task, cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	task, err := task.prepare()
	if err != nil {
		return nil, err
	}

	if len(task.Actions) == 0 {
		ok, err := formula.Holds(task.Goal, task.Init)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, problem.Configurationf("search.NewEngine",
				"no actions and the initial state does not satisfy the goal")
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.ProgressInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	e := &Engine{
		task:     task,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "search"), slog.String("strategy", string(cfg.Strategy))),
		progress: rate.Sometimes{Interval: interval},
	}

	if cfg.Incremental {
		ix, err := applicability.NewIndexed(task.Problem, task.Actions)
		if err != nil {
			return nil, err
		}
		e.analyzer, e.incremental = ix, ix
	} else {
		e.analyzer = applicability.NewDirect(task.Actions)
	}

	if cfg.Strategy.usesRPG() {
		e.builder, err = rpg.NewBuilder(task.Problem, task.Index, task.Actions, task.Goal, rpg.WithChecker(cfg.Checker))
		if err != nil {
			return nil, err
		}
	}
	switch cfg.Strategy {
	case StrategyNovelty:
		e.novelty, err = novelty.New(task.Index, cfg.Width)
	case StrategyBFWS:
		e.partitioned, err = novelty.NewPartitioned(task.Index, cfg.Width)
	}
	if err != nil {
		return nil, err
	}
	if cfg.DuplicateDetection {
		e.seen = make(map[uint64][]int32)
	}
	return e, nil
}

// Solve builds an engine for task and runs it.
func Solve(ctx context.Context, task Task, cfg Config) (*Result, error) {
	e, err := NewEngine(task, cfg)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx)
}

// Run executes the search. It may be called once.
//
// Outputs:
//   - *Result: Terminal status, plan and statistics. Nil on error.
//   - error: ErrAlreadyRun on a second call, or the ConfigurationError,
//     DomainError, CapabilityError or formula error that aborted the run.
//     Budget exhaustion and cancellation are reported through
//     StatusBoundedIncomplete, never as errors.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.ran {
		return nil, ErrAlreadyRun
	}
	e.ran = true
	e.budget = NewBudget(e.cfg.Budget)

	ctx, span := e.cfg.Tracer.StartRun(ctx, e.task.Problem.Name(), e.cfg)
	logger := telemetry.LoggerWithTrace(ctx, e.logger)
	logger.InfoContext(ctx, "search started",
		slog.String("problem", e.task.Problem.Name()),
		slog.Int("width", e.cfg.Width),
		slog.Int("actions", len(e.task.Actions)),
		slog.Int("atoms", e.task.Index.Len()),
	)

	res, err := e.search(ctx, logger)
	e.stats.Elapsed = e.budget.Elapsed()
	if res != nil {
		res.Strategy = e.cfg.Strategy
		res.Width = e.cfg.Width
		res.Stats = e.stats
		if res.Status == StatusBoundedIncomplete {
			e.cfg.Tracer.TraceBudgetExhaustion(ctx, e.budget)
		}
	}

	e.cfg.Tracer.EndRun(span, res, err)
	e.record(ctx, res, err)
	if err != nil {
		logger.WarnContext(ctx, "search failed",
			slog.String("error", err.Error()),
			slog.Int64("expanded", e.stats.Expanded))
	} else {
		logger.InfoContext(ctx, "search finished",
			slog.String("status", string(res.Status)),
			slog.Int("plan_length", res.Cost),
			slog.Int64("expanded", e.stats.Expanded),
			slog.Int64("generated", e.stats.Generated),
			slog.Int64("pruned", e.stats.Pruned),
			slog.Duration("elapsed", e.stats.Elapsed))
	}

	e.release()
	if err != nil {
		return nil, err
	}
	return res, nil
}

// search is the main loop.
func (e *Engine) search(ctx context.Context, logger *slog.Logger) (*Result, error) {
	init := e.task.Init
	ok, err := formula.Holds(e.task.Goal, init)
	if err != nil {
		return nil, err
	}
	if ok {
		e.cfg.Tracer.TraceGoal(ctx, 0)
		return &Result{Status: StatusSolved, Plan: []*action.Action{}}, nil
	}

	sc, accepted, err := e.evaluate(ctx, init, true)
	if err != nil {
		return e.interrupted(ctx, err)
	}
	if !accepted {
		return &Result{Status: StatusExhausted}, nil
	}
	e.markSeen(init, e.push(node{state: init, parent: -1, novelty: sc.novelty, h: sc.h}, sc))

	for e.open.Len() > 0 {
		if ctx.Err() != nil {
			return e.bounded(ctx)
		}
		if e.budget.Exhausted() {
			return e.bounded(ctx)
		}

		top := e.open.pop()
		e.stats.Expanded++
		e.budget.RecordExpansion()
		e.progress.Do(func() {
			logger.DebugContext(ctx, "search progress",
				slog.Int64("expanded", e.stats.Expanded),
				slog.Int64("generated", e.stats.Generated),
				slog.Int("open", e.open.Len()),
				slog.Int("g", top.g),
				slog.Int("primary", top.score.primary))
		})

		applicable, err := e.applicable(top.node)
		if err != nil {
			return nil, err
		}

		parent := &e.nodes[top.node]
		for _, a := range applicable {
			succ, err := action.Apply(e.task.Problem, a, parent.state)
			if err != nil {
				return nil, err
			}
			e.stats.Generated++

			if e.isDuplicate(succ) {
				e.stats.Duplicates++
				continue
			}

			goal, err := formula.Holds(e.task.Goal, succ)
			if err != nil {
				return nil, err
			}
			if goal {
				plan := append(e.plan(top.node), a)
				e.stats.MaxG = max(e.stats.MaxG, len(plan))
				e.cfg.Tracer.TraceGoal(ctx, len(plan))
				return &Result{Status: StatusSolved, Plan: plan, Cost: len(plan)}, nil
			}

			sc, accepted, err := e.evaluate(ctx, succ, false)
			if err != nil {
				return e.interrupted(ctx, err)
			}
			if !accepted {
				continue
			}
			idx := e.push(node{
				state:   succ,
				parent:  top.node,
				action:  a,
				g:       parent.g + 1,
				novelty: sc.novelty,
				h:       sc.h,
			}, sc)
			e.markSeen(succ, idx)
			// push may grow the arena.
			parent = &e.nodes[top.node]
		}
	}

	return &Result{Status: StatusExhausted}, nil
}

// nodeScore is the evaluation of one state.
type nodeScore struct {
	score
	novelty int
	h       int
}

// evaluate scores s according to the strategy. accepted is false for
// pruned states and dead ends. The root is never pruned for novelty.
func (e *Engine) evaluate(ctx context.Context, s *state.State, root bool) (nodeScore, bool, error) {
	var sc nodeScore

	if e.builder != nil {
		g, err := e.builder.Build(ctx, s)
		if err != nil {
			return sc, false, err
		}
		e.stats.RPGBuilds++
		if e.cfg.Strategy == StrategyHMax {
			sc.h = g.HMax()
		} else {
			sc.h = g.HFF()
		}
		if sc.h == rpg.Unreachable {
			e.stats.DeadEnds++
			return sc, false, nil
		}
	}

	switch e.cfg.Strategy {
	case StrategyNovelty:
		n, err := e.novelty.Evaluate(s)
		if err != nil {
			return sc, false, err
		}
		sc.novelty = n
		sc.primary = n
		if !root && e.cfg.PruneNotNovel && n == e.novelty.NotNovel() {
			e.stats.Pruned++
			return sc, false, nil
		}
	case StrategyBFWS:
		n, err := e.partitioned.Evaluate(sc.h, s)
		if err != nil {
			return sc, false, err
		}
		sc.novelty = n
		sc.primary, sc.secondary = n, sc.h
		if !root && e.cfg.PruneNotNovel && n == e.partitioned.NotNovel() {
			e.stats.Pruned++
			return sc, false, nil
		}
	default:
		sc.primary = sc.h
	}
	return sc, true, nil
}

// applicable returns the actions applicable in node i.
func (e *Engine) applicable(i int32) ([]*action.Action, error) {
	n := &e.nodes[i]
	if e.incremental == nil {
		return e.analyzer.Applicable(n.state)
	}

	var (
		out []*action.Action
		err error
	)
	if n.parent < 0 || e.nodes[n.parent].applicable == nil {
		out, err = e.incremental.Applicable(n.state)
	} else {
		p := &e.nodes[n.parent]
		out, err = e.incremental.ApplicableFrom(p.state, p.applicable, n.state)
	}
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*action.Action{}
	}
	n.applicable = out
	return out, nil
}

// push appends n to the arena and the open list and returns its index.
func (e *Engine) push(n node, sc nodeScore) int32 {
	idx := int32(len(e.nodes))
	e.nodes = append(e.nodes, n)
	e.stats.NodesCreated++
	e.stats.MaxG = max(e.stats.MaxG, n.g)
	e.budget.RecordNode()
	e.open.push(entry{node: idx, score: sc.score, g: n.g, seq: e.seq})
	e.seq++
	return idx
}

// plan reconstructs the action sequence leading to node i.
func (e *Engine) plan(i int32) []*action.Action {
	var out []*action.Action
	for ; i >= 0 && e.nodes[i].parent >= 0; i = e.nodes[i].parent {
		out = append(out, e.nodes[i].action)
	}
	slices.Reverse(out)
	return out
}

func (e *Engine) markSeen(s *state.State, idx int32) {
	if e.seen == nil {
		return
	}
	e.seen[s.Hash()] = append(e.seen[s.Hash()], idx)
}

// isDuplicate reports whether s equals a state already in the arena.
func (e *Engine) isDuplicate(s *state.State) bool {
	if e.seen == nil {
		return false
	}
	for _, idx := range e.seen[s.Hash()] {
		if e.nodes[idx].state.Equal(s) {
			return true
		}
	}
	return false
}

// bounded reports budget exhaustion or cancellation.
func (e *Engine) bounded(ctx context.Context) (*Result, error) {
	if ctx.Err() != nil {
		e.budget.markCancelled()
	}
	return &Result{Status: StatusBoundedIncomplete, Reason: e.budget.ExhaustedBy()}, nil
}

// interrupted maps a cancellation seen inside the RPG builder onto a
// bounded result and passes every other error through.
func (e *Engine) interrupted(ctx context.Context, err error) (*Result, error) {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return e.bounded(ctx)
	}
	return nil, err
}

// record sends the run sample to the metrics sink.
func (e *Engine) record(ctx context.Context, res *Result, err error) {
	sample := telemetry.RunSample{
		Strategy:   string(e.cfg.Strategy),
		Elapsed:    e.stats.Elapsed,
		Expanded:   e.stats.Expanded,
		Generated:  e.stats.Generated,
		Pruned:     e.stats.Pruned,
		DeadEnds:   e.stats.DeadEnds,
		Duplicates: e.stats.Duplicates,
		RPGBuilds:  e.stats.RPGBuilds,
	}
	if err != nil {
		sample.ErrorKind = errorKind(err)
	} else {
		sample.Status = string(res.Status)
		sample.PlanLength = res.Cost
	}
	// Metrics recording must not be cancelled with the run.
	e.cfg.Metrics.RecordRun(context.WithoutCancel(ctx), sample)
}

// release drops the arena and tables so a finished engine holds no states.
func (e *Engine) release() {
	e.nodes = nil
	e.open = nil
	e.seen = nil
	e.novelty = nil
	e.partitioned = nil
}

// Stats returns the statistics of the last run.
func (e *Engine) Stats() Stats {
	return e.stats
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, problem.ErrConfiguration):
		return "configuration"
	case errors.Is(err, problem.ErrDomain):
		return "domain"
	case errors.Is(err, problem.ErrCapability):
		return "capability"
	case errors.Is(err, problem.ErrIndexSealed):
		return "index"
	default:
		return "formula"
	}
}
