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
	"log/slog"
	"time"

	"github.com/aig-upf/fs-private-sub005/services/planner/formula"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/telemetry"
)

// Strategy selects the primary ordering of the open list.
type Strategy string

const (
	// StrategyNovelty orders by novelty, then g. With pruning this is IW(W).
	StrategyNovelty Strategy = "novelty"

	// StrategyHMax orders by the h_max value of the node's relaxed graph.
	StrategyHMax Strategy = "hmax"

	// StrategyHFF orders by the relaxed plan length h_FF.
	StrategyHFF Strategy = "hff"

	// StrategyBFWS orders by novelty measured among nodes with the same
	// h_FF, then by h_FF.
	StrategyBFWS Strategy = "bfws"
)

// Strategies lists every supported strategy.
func Strategies() []Strategy {
	return []Strategy{StrategyNovelty, StrategyHMax, StrategyHFF, StrategyBFWS}
}

// ParseStrategy converts a name into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies() {
		if string(s) == name {
			return s, nil
		}
	}
	return "", problem.Configurationf("search.ParseStrategy", "unknown strategy %q", name)
}

// usesNovelty reports whether the strategy computes novelty.
func (s Strategy) usesNovelty() bool {
	return s == StrategyNovelty || s == StrategyBFWS
}

// usesRPG reports whether the strategy builds a relaxed planning graph per node.
func (s Strategy) usesRPG() bool {
	return s == StrategyHMax || s == StrategyHFF || s == StrategyBFWS
}

// Config configures one search run.
type Config struct {
	// Strategy selects the open list ordering.
	Strategy Strategy

	// Width is the novelty bound W. Must be positive.
	Width int

	// PruneNotNovel discards successors whose novelty exceeds Width.
	// Only novelty-based strategies compute novelty.
	PruneNotNovel bool

	// DuplicateDetection discards successors equal to a state already
	// generated in this run.
	DuplicateDetection bool

	// Incremental uses the indexed applicability analyzer, which reuses
	// the parent's applicable set.
	Incremental bool

	// Budget bounds the run.
	Budget BudgetConfig

	// Checker interprets formulas on relaxed graphs. Nil selects the
	// compositional checker.
	Checker formula.RelaxedChecker

	// ProgressInterval throttles progress logging. Zero uses 5s.
	ProgressInterval time.Duration

	// Logger receives run logs. Nil uses slog.Default().
	Logger *slog.Logger

	// Metrics, when set, receives one sample per finished run.
	Metrics *telemetry.Metrics

	// Tracer, when set, emits spans per run.
	Tracer *Tracer
}

// DefaultConfig returns IW(1): novelty ordering, width 1, pruning enabled.
func DefaultConfig() Config {
	return Config{
		Strategy:           StrategyNovelty,
		Width:              1,
		PruneNotNovel:      true,
		DuplicateDetection: false,
		Incremental:        true,
		Budget:             DefaultBudgetConfig(),
		ProgressInterval:   5 * time.Second,
	}
}

// validate checks the configuration.
func (c Config) validate() error {
	if c.Width <= 0 {
		return problem.Configurationf("search.Config", "width must be positive, got %d", c.Width)
	}
	if _, err := ParseStrategy(string(c.Strategy)); err != nil {
		return err
	}
	if c.Budget.MaxNodes < 0 || c.Budget.MaxExpansions < 0 || c.Budget.TimeLimit < 0 {
		return problem.Configurationf("search.Config", "budget limits must not be negative")
	}
	return nil
}
