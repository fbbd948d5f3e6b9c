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
)

// Exhaustion reasons reported in Result.Reason.
const (
	ReasonTime       = "time"
	ReasonNodes      = "nodes"
	ReasonExpansions = "expansions"
	ReasonCancelled  = "cancelled"
)

// BudgetConfig contains search resource limits. Zero disables a limit.
type BudgetConfig struct {
	// MaxNodes bounds the search nodes created.
	MaxNodes int `json:"max_nodes" yaml:"max_nodes" validate:"gte=0"`

	// MaxExpansions bounds node expansions.
	MaxExpansions int `json:"max_expansions" yaml:"max_expansions" validate:"gte=0"`

	// TimeLimit bounds wall clock time.
	TimeLimit time.Duration `json:"time_limit" yaml:"time_limit" validate:"gte=0"`
}

// DefaultBudgetConfig returns the default limits: five minutes of wall time
// and no node or expansion bound.
func DefaultBudgetConfig() BudgetConfig {
	return BudgetConfig{
		TimeLimit: 5 * time.Minute,
	}
}

// Budget tracks resource consumption during one search run.
//
// Thread Safety: Owned by a single engine. Not safe for concurrent use.
type Budget struct {
	config    BudgetConfig
	startTime time.Time

	nodes      int64
	expansions int64

	exhausted   bool
	exhaustedBy string // Which limit was hit
}

// NewBudget creates a budget whose clock starts now.
func NewBudget(config BudgetConfig) *Budget {
	return &Budget{
		config:    config,
		startTime: time.Now(),
	}
}

// RecordNode records a created search node.
func (b *Budget) RecordNode() {
	b.nodes++
}

// RecordExpansion records an expanded node.
func (b *Budget) RecordExpansion() {
	b.expansions++
}

// Nodes returns the number of nodes created.
func (b *Budget) Nodes() int64 {
	return b.nodes
}

// Expansions returns the number of expansions.
func (b *Budget) Expansions() int64 {
	return b.expansions
}

// Elapsed returns time elapsed since the budget was created.
func (b *Budget) Elapsed() time.Duration {
	return time.Since(b.startTime)
}

// Exhausted checks all limits and reports whether any has been hit.
func (b *Budget) Exhausted() bool {
	return b.checkLimits() != nil
}

// ExhaustedBy returns which limit caused exhaustion (empty if not exhausted).
func (b *Budget) ExhaustedBy() string {
	return b.exhaustedBy
}

// markCancelled records cooperative cancellation as the exhaustion reason.
func (b *Budget) markCancelled() {
	if !b.exhausted {
		b.exhausted = true
		b.exhaustedBy = ReasonCancelled
	}
}

// checkLimits checks all limits and returns an error if any is exceeded.
func (b *Budget) checkLimits() error {
	if b.exhausted {
		return ErrBudgetExhausted
	}

	if b.config.TimeLimit > 0 && time.Since(b.startTime) >= b.config.TimeLimit {
		b.exhausted = true
		b.exhaustedBy = ReasonTime
		return ErrTimeLimitExceeded
	}

	if b.config.MaxNodes > 0 && b.nodes >= int64(b.config.MaxNodes) {
		b.exhausted = true
		b.exhaustedBy = ReasonNodes
		return ErrNodeLimitExceeded
	}

	if b.config.MaxExpansions > 0 && b.expansions >= int64(b.config.MaxExpansions) {
		b.exhausted = true
		b.exhaustedBy = ReasonExpansions
		return ErrExpansionLimitExceeded
	}

	return nil
}

// String returns a human-readable budget status. Log lines carry it.
func (b *Budget) String() string {
	exhaustedStatus := ""
	if b.exhausted {
		exhaustedStatus = fmt.Sprintf(" [EXHAUSTED by %s]", b.exhaustedBy)
	}

	return fmt.Sprintf("Budget{nodes=%d/%d, expansions=%d/%d, time=%v/%v}%s",
		b.nodes, b.config.MaxNodes,
		b.expansions, b.config.MaxExpansions,
		b.Elapsed().Round(time.Millisecond), b.config.TimeLimit,
		exhaustedStatus)
}
