// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics contains the planner's counters and histograms.
//
// All metrics use the "planner_" prefix.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// RunsTotal counts finished searches by strategy and status.
	RunsTotal metric.Int64Counter

	// RunDuration records search wall time in seconds.
	RunDuration metric.Float64Histogram

	// ExpansionsTotal counts expanded nodes.
	ExpansionsTotal metric.Int64Counter

	// GeneratedTotal counts generated successors.
	GeneratedTotal metric.Int64Counter

	// PrunedTotal counts successors discarded, by reason.
	PrunedTotal metric.Int64Counter

	// RPGBuildsTotal counts relaxed planning graph constructions.
	RPGBuildsTotal metric.Int64Counter

	// PlanLength records the length of found plans.
	PlanLength metric.Int64Histogram

	// ErrorsTotal counts searches aborted by an error, by kind.
	ErrorsTotal metric.Int64Counter
}

// NewMetrics registers the planner metrics with meter.
//
// Inputs:
//
//	meter - The OTel meter, usually otel.Meter("planner").
//
// Outputs:
//
//	*Metrics - The registered instruments.
//	error - Non-nil if registration fails.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.RunsTotal, err = meter.Int64Counter(
		"planner_runs_total",
		metric.WithDescription("Finished searches"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create runs_total: %w", err)
	}

	m.RunDuration, err = meter.Float64Histogram(
		"planner_run_duration_seconds",
		metric.WithDescription("Search wall time in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300),
	)
	if err != nil {
		return nil, fmt.Errorf("create run_duration_seconds: %w", err)
	}

	m.ExpansionsTotal, err = meter.Int64Counter(
		"planner_expansions_total",
		metric.WithDescription("Expanded search nodes"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create expansions_total: %w", err)
	}

	m.GeneratedTotal, err = meter.Int64Counter(
		"planner_generated_total",
		metric.WithDescription("Generated successor states"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create generated_total: %w", err)
	}

	m.PrunedTotal, err = meter.Int64Counter(
		"planner_pruned_total",
		metric.WithDescription("Discarded successor states"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pruned_total: %w", err)
	}

	m.RPGBuildsTotal, err = meter.Int64Counter(
		"planner_rpg_builds_total",
		metric.WithDescription("Relaxed planning graph constructions"),
		metric.WithUnit("{graph}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create rpg_builds_total: %w", err)
	}

	m.PlanLength, err = meter.Int64Histogram(
		"planner_plan_length",
		metric.WithDescription("Length of found plans"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create plan_length: %w", err)
	}

	m.ErrorsTotal, err = meter.Int64Counter(
		"planner_errors_total",
		metric.WithDescription("Searches aborted by an error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create errors_total: %w", err)
	}

	return m, nil
}

// RunSample is what the search engine reports when a run ends.
type RunSample struct {
	Strategy   string
	Status     string
	Elapsed    time.Duration
	Expanded   int64
	Generated  int64
	Pruned     int64
	DeadEnds   int64
	Duplicates int64
	RPGBuilds  int64
	PlanLength int

	// ErrorKind is set when the run aborted with an error.
	ErrorKind string
}

// RecordRun records one finished run. A nil receiver is a no-op.
func (m *Metrics) RecordRun(ctx context.Context, s RunSample) {
	if m == nil {
		return
	}
	strategy := attribute.String("strategy", s.Strategy)

	if s.ErrorKind != "" {
		m.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(strategy, attribute.String("kind", s.ErrorKind)))
	} else {
		m.RunsTotal.Add(ctx, 1, metric.WithAttributes(strategy, attribute.String("status", s.Status)))
	}
	m.RunDuration.Record(ctx, s.Elapsed.Seconds(), metric.WithAttributes(strategy))
	m.ExpansionsTotal.Add(ctx, s.Expanded, metric.WithAttributes(strategy))
	m.GeneratedTotal.Add(ctx, s.Generated, metric.WithAttributes(strategy))
	m.PrunedTotal.Add(ctx, s.Pruned, metric.WithAttributes(strategy, attribute.String("reason", "not_novel")))
	m.PrunedTotal.Add(ctx, s.DeadEnds, metric.WithAttributes(strategy, attribute.String("reason", "dead_end")))
	m.PrunedTotal.Add(ctx, s.Duplicates, metric.WithAttributes(strategy, attribute.String("reason", "duplicate")))
	m.RPGBuildsTotal.Add(ctx, s.RPGBuilds, metric.WithAttributes(strategy))
	if s.Status == "solved" {
		m.PlanLength.Record(ctx, int64(s.PlanLength), metric.WithAttributes(strategy))
	}
}
