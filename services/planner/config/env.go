// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
)

// Environment variables read by Load.
const (
	EnvStrategy       = "PLANNER_STRATEGY"
	EnvWidth          = "PLANNER_WIDTH"
	EnvMaxWidth       = "PLANNER_MAX_WIDTH"
	EnvPrune          = "PLANNER_PRUNE_NOT_NOVEL"
	EnvDuplicates     = "PLANNER_DUPLICATE_DETECTION"
	EnvIncremental    = "PLANNER_INCREMENTAL"
	EnvPortfolio      = "PLANNER_PORTFOLIO"
	EnvChecker        = "PLANNER_CHECKER"
	EnvMaxNodes       = "PLANNER_MAX_NODES"
	EnvMaxExpansions  = "PLANNER_MAX_EXPANSIONS"
	EnvTimeLimit      = "PLANNER_TIME_LIMIT"
	EnvArchiveEnabled = "PLANNER_ARCHIVE_ENABLED"
	EnvArchivePath    = "PLANNER_ARCHIVE_PATH"
	EnvArchiveMemory  = "PLANNER_ARCHIVE_IN_MEMORY"
	EnvLogLevel       = "PLANNER_LOG_LEVEL"
	EnvLogJSON        = "PLANNER_LOG_JSON"
	EnvTracing        = "PLANNER_TRACING_ENABLED"
	EnvMetrics        = "PLANNER_METRICS_ENABLED"
	EnvServerAddr     = "PLANNER_SERVER_ADDR"
)

// loadEnv applies PLANNER_* overrides. Unparseable values are reported
// together rather than silently dropped.
func loadEnv(cfg *PlannerConfig) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, problem.Configurationf("config.Load", "%s=%q is not an integer", key, v))
				return
			}
			*dst = i
		}
	}
	boolean := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, problem.Configurationf("config.Load", "%s=%q is not a boolean", key, v))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, problem.Configurationf("config.Load", "%s=%q is not a duration", key, v))
				return
			}
			*dst = d
		}
	}

	// Search
	str(EnvStrategy, &cfg.Search.Strategy)
	integer(EnvWidth, &cfg.Search.Width)
	integer(EnvMaxWidth, &cfg.Search.MaxWidth)
	boolean(EnvPrune, &cfg.Search.PruneNotNovel)
	boolean(EnvDuplicates, &cfg.Search.DuplicateDetection)
	boolean(EnvIncremental, &cfg.Search.Incremental)
	if v := os.Getenv(EnvPortfolio); v != "" {
		cfg.Search.Portfolio = splitList(v)
	}
	str(EnvChecker, &cfg.Heuristic.Checker)

	// Budget
	integer(EnvMaxNodes, &cfg.Budget.MaxNodes)
	integer(EnvMaxExpansions, &cfg.Budget.MaxExpansions)
	duration(EnvTimeLimit, &cfg.Budget.TimeLimit)

	// Archive
	boolean(EnvArchiveEnabled, &cfg.Archive.Enabled)
	str(EnvArchivePath, &cfg.Archive.Path)
	boolean(EnvArchiveMemory, &cfg.Archive.InMemory)

	// Observability
	str(EnvLogLevel, &cfg.Observability.LogLevel)
	boolean(EnvLogJSON, &cfg.Observability.LogJSON)
	boolean(EnvTracing, &cfg.Observability.TracingEnabled)
	boolean(EnvMetrics, &cfg.Observability.MetricsEnabled)

	// Server
	str(EnvServerAddr, &cfg.Server.Addr)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
