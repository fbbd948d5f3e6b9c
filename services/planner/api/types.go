// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"github.com/aig-upf/fs-private-sub005/services/planner/archive"
	"github.com/aig-upf/fs-private-sub005/services/planner/search"
)

// SolveRequest is the body of POST /v1/planner/solve.
type SolveRequest struct {
	// Problem is a problem document in YAML or JSON.
	Problem string `json:"problem" binding:"required"`

	// Options override the server's search configuration.
	Options SolveOptions `json:"options"`
}

// SolveOptions override the server's search configuration for one request.
// Zero values keep the server default.
type SolveOptions struct {
	Strategy string `json:"strategy,omitempty" binding:"omitempty,oneof=novelty hmax hff bfws"`
	Width    int    `json:"width,omitempty" binding:"omitempty,gte=1"`

	// MaxWidth runs iterated width up to this bound.
	MaxWidth int `json:"max_width,omitempty" binding:"omitempty,gte=1"`

	// Portfolio runs these strategies concurrently.
	Portfolio []string `json:"portfolio,omitempty" binding:"omitempty,unique,dive,oneof=novelty hmax hff bfws"`

	PruneNotNovel      *bool `json:"prune_not_novel,omitempty"`
	DuplicateDetection *bool `json:"duplicate_detection,omitempty"`

	MaxNodes      int   `json:"max_nodes,omitempty" binding:"omitempty,gte=1"`
	MaxExpansions int   `json:"max_expansions,omitempty" binding:"omitempty,gte=1"`
	TimeLimitMs   int64 `json:"time_limit_ms,omitempty" binding:"omitempty,gte=1"`

	// Archive set to false skips archiving this run.
	Archive *bool `json:"archive,omitempty"`
}

// SolveResponse is the result of a solve request.
type SolveResponse struct {
	// RunID identifies the archived record. Empty when not archived.
	RunID string `json:"run_id,omitempty"`

	Problem  string       `json:"problem"`
	Digest   string       `json:"digest"`
	Status   string       `json:"status"`
	Reason   string       `json:"reason,omitempty"`
	Strategy string       `json:"strategy"`
	Width    int          `json:"width"`
	Plan     []string     `json:"plan,omitempty"`
	Cost     int          `json:"cost"`
	Stats    search.Stats `json:"stats"`

	// Valid reports whether replaying the plan reaches the goal. Set for
	// solved runs only.
	Valid *bool `json:"valid,omitempty"`
}

// ListRunsQuery holds the query parameters of GET /v1/planner/runs.
type ListRunsQuery struct {
	Limit   int    `form:"limit" binding:"omitempty,gte=1,lte=500"`
	Problem string `form:"problem"`
	Status  string `form:"status" binding:"omitempty,oneof=solved exhausted bounded_incomplete error"`
}

// ListRunsResponse lists archived runs, newest first.
type ListRunsResponse struct {
	Runs  []*archive.Record `json:"runs"`
	Count int               `json:"count"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status     string   `json:"status"`
	Version    string   `json:"version"`
	Archive    bool     `json:"archive"`
	Strategies []string `json:"strategies"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code.
	Code string `json:"code,omitempty"`

	// Details provides additional error context.
	Details string `json:"details,omitempty"`
}
