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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const searchTracerName = "planner.search"

// Tracer provides OpenTelemetry tracing for search runs.
//
// Thread Safety: Safe for concurrent use.
type Tracer struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	enabled bool
}

// NewTracer creates a new tracer.
//
// Inputs:
//   - logger: Logger for structured logging (can be nil for slog.Default()).
//   - enabled: Whether spans are emitted.
//
// Outputs:
//   - *Tracer: Tracer instance.
func NewTracer(logger *slog.Logger, enabled bool) *Tracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracer{
		tracer:  otel.Tracer(searchTracerName),
		logger:  logger,
		enabled: enabled,
	}
}

// StartRun starts a span for an entire search run.
//
// Inputs:
//   - ctx: Parent context.
//   - problemName: Name of the problem being solved.
//   - cfg: Run configuration.
//
// Outputs:
//   - context.Context: Context with span.
//   - trace.Span: The created span (a no-op span if tracing is disabled).
func (t *Tracer) StartRun(ctx context.Context, problemName string, cfg Config) (context.Context, trace.Span) {
	if t == nil || !t.enabled {
		return ctx, noop.Span{}
	}

	return t.tracer.Start(ctx, "planner.search.run",
		trace.WithAttributes(
			attribute.String("planner.problem", problemName),
			attribute.String("planner.strategy", string(cfg.Strategy)),
			attribute.Int("planner.width", cfg.Width),
			attribute.Bool("planner.prune", cfg.PruneNotNovel),
			attribute.Int("planner.budget.max_nodes", cfg.Budget.MaxNodes),
			attribute.Int("planner.budget.max_expansions", cfg.Budget.MaxExpansions),
			attribute.String("planner.budget.time_limit", cfg.Budget.TimeLimit.String()),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndRun completes the run span.
//
// Inputs:
//   - span: The span to end.
//   - res: The run result (nil if the run failed).
//   - err: Error if the run failed.
func (t *Tracer) EndRun(span trace.Span, res *Result, err error) {
	if span == nil {
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if res != nil {
		span.SetAttributes(
			attribute.String("planner.result.status", string(res.Status)),
			attribute.Int("planner.result.plan_length", res.Cost),
			attribute.Int64("planner.result.expanded", res.Stats.Expanded),
			attribute.Int64("planner.result.generated", res.Stats.Generated),
			attribute.Int64("planner.result.pruned", res.Stats.Pruned),
			attribute.String("planner.result.elapsed", res.Stats.Elapsed.String()),
		)
	}

	span.End()
}

// TraceBudgetExhaustion records budget exhaustion.
//
// Inputs:
//   - ctx: Context with span.
//   - budget: Budget tracker with current usage.
func (t *Tracer) TraceBudgetExhaustion(ctx context.Context, budget *Budget) {
	if t == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.AddEvent("budget_exhausted",
		trace.WithAttributes(
			attribute.String("reason", budget.ExhaustedBy()),
			attribute.Int64("nodes_used", budget.Nodes()),
			attribute.Int64("expansions_used", budget.Expansions()),
		),
	)

	t.logger.InfoContext(ctx, "search budget exhausted",
		slog.String("reason", budget.ExhaustedBy()),
		slog.String("budget", budget.String()),
	)
}

// TraceGoal records the generation of a goal state.
func (t *Tracer) TraceGoal(ctx context.Context, planLength int) {
	if t == nil || !t.enabled {
		return
	}
	trace.SpanFromContext(ctx).AddEvent("goal_reached",
		trace.WithAttributes(attribute.Int("plan_length", planLength)),
	)
}
