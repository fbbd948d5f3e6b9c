// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/aig-upf/fs-private-sub005/pkg/ux"
	"github.com/aig-upf/fs-private-sub005/services/planner/api"
	"github.com/aig-upf/fs-private-sub005/services/planner/archive"
	"github.com/aig-upf/fs-private-sub005/services/planner/config"
	"github.com/aig-upf/fs-private-sub005/services/planner/loader"
	"github.com/aig-upf/fs-private-sub005/services/planner/search"
	"github.com/aig-upf/fs-private-sub005/services/planner/validate"
)

type solveFlags struct {
	strategy      string
	width         int
	maxWidth      int
	portfolio     []string
	noPrune       bool
	dedup         bool
	maxNodes      int
	maxExpansions int
	timeLimit     time.Duration
	checker       string
	jsonOutput    bool
	archive       bool
	watch         bool
}

func newSolveCmd(a *app) *cobra.Command {
	f := &solveFlags{}
	cmd := &cobra.Command{
		Use:   "solve FILE",
		Short: "Solve a planning problem",
		Long: `Solve the problem in FILE and print the plan.

Exit codes:
  0  a plan was found
  1  the run failed
  2  the problem or options are invalid
  3  the search space was exhausted without a plan
  4  a node, expansion or time limit stopped the search first; a plan
     may still exist

Examples:
  planner solve problem.yaml
  planner solve problem.yaml --strategy bfws
  planner solve problem.yaml --max-width 3
  planner solve problem.yaml --portfolio novelty,hff --time-limit 30s
  planner solve problem.yaml --json
  planner solve problem.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, a, f, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.strategy, "strategy", "", "Search strategy: novelty, hmax, hff, bfws")
	flags.IntVarP(&f.width, "width", "w", 0, "Novelty width bound")
	flags.IntVar(&f.maxWidth, "max-width", 0, "Run iterated width from 1 up to this bound")
	flags.StringSliceVar(&f.portfolio, "portfolio", nil, "Run these strategies concurrently and keep the first plan")
	flags.BoolVar(&f.noPrune, "no-prune", false, "Keep nodes that are not novel")
	flags.BoolVar(&f.dedup, "dedup", false, "Discard states already generated")
	flags.IntVar(&f.maxNodes, "max-nodes", 0, "Node budget (0 = unlimited)")
	flags.IntVar(&f.maxExpansions, "max-expansions", 0, "Expansion budget (0 = unlimited)")
	flags.DurationVar(&f.timeLimit, "time-limit", 0, "Time budget, e.g. 30s")
	flags.StringVar(&f.checker, "checker", "", "Relaxed formula checker: compositional, sat")
	flags.BoolVar(&f.jsonOutput, "json", false, "Print the result as JSON")
	flags.BoolVar(&f.archive, "archive", false, "Store the run in the archive")
	flags.BoolVar(&f.watch, "watch", false, "Solve again whenever FILE changes, until interrupted")
	return cmd
}

// apply copies the flags the user set onto cfg.
func (f *solveFlags) apply(cmd *cobra.Command, cfg *config.PlannerConfig) {
	changed := cmd.Flags().Changed
	if changed("strategy") {
		cfg.Search.Strategy = f.strategy
	}
	if changed("width") {
		cfg.Search.Width = f.width
	}
	if changed("max-width") {
		cfg.Search.MaxWidth = f.maxWidth
	}
	if changed("portfolio") {
		cfg.Search.Portfolio = f.portfolio
	}
	if f.noPrune {
		cfg.Search.PruneNotNovel = false
	}
	if f.dedup {
		cfg.Search.DuplicateDetection = true
	}
	if changed("max-nodes") {
		cfg.Budget.MaxNodes = f.maxNodes
	}
	if changed("max-expansions") {
		cfg.Budget.MaxExpansions = f.maxExpansions
	}
	if changed("time-limit") {
		cfg.Budget.TimeLimit = f.timeLimit
	}
	if changed("checker") {
		cfg.Heuristic.Checker = f.checker
	}
	if f.archive {
		cfg.Archive.Enabled = true
	}
	// The request cap only binds HTTP callers.
	cfg.Server.MaxTimeLimit = 0
}

func runSolve(cmd *cobra.Command, a *app, f *solveFlags, path string) error {
	cfg := a.cfg
	f.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	doc, err := loader.Load(path)
	if !f.watch {
		if err != nil {
			return err
		}
		return solveDocument(cmd, a, f, cfg, doc)
	}

	p := a.printer(cmd)
	report := func(doc *loader.Document, err error) {
		if err == nil {
			err = solveDocument(cmd, a, f, cfg, doc)
		}
		if err != nil && !isNoPlan(err) {
			p.Error(err.Error())
		}
	}
	report(doc, err)
	p.Info(fmt.Sprintf("Watching %s for changes (Ctrl-C to stop)", path))
	return loader.Watch(cmd.Context(), path, 0, report)
}

// solveDocument runs one search on doc and prints the outcome.
func solveDocument(cmd *cobra.Command, a *app, f *solveFlags, cfg config.PlannerConfig, doc *loader.Document) error {
	ctx := cmd.Context()
	logger := a.logger.Slog().With("command", "solve")
	problemName := doc.Task.Problem.Name()

	sc := cfg.ToSearchConfig()
	sc.Logger = logger
	res, runErr := runSearch(ctx, doc.Task, cfg, sc)

	var runID string
	if cfg.Archive.Enabled {
		runID = archiveRun(ctx, logger, cfg, archive.NewRecord(problemName, doc.Digest, sc, res, runErr))
	}
	if runErr != nil {
		return runErr
	}

	resp := api.SolveResponse{
		RunID:    runID,
		Problem:  problemName,
		Digest:   doc.Digest,
		Status:   string(res.Status),
		Reason:   res.Reason,
		Strategy: string(res.Strategy),
		Width:    res.Width,
		Plan:     res.PlanNames(),
		Cost:     res.Cost,
		Stats:    res.Stats,
	}
	if res.Solved() {
		_, verr := validate.Plan(doc.Task.Problem, doc.Task.Init, doc.Task.Goal, res.Plan)
		if verr != nil {
			return fmt.Errorf("plan failed validation: %w", verr)
		}
		valid := true
		resp.Valid = &valid
	}

	if f.jsonOutput {
		if err := writeJSON(cmd, resp); err != nil {
			return err
		}
	} else {
		printSolve(a.printer(cmd), resp)
	}

	if !res.Solved() {
		return noPlanError(res)
	}
	return nil
}

// runSearch dispatches to iterated width, a portfolio, or a single engine.
func runSearch(ctx context.Context, task search.Task, cfg config.PlannerConfig, sc search.Config) (*search.Result, error) {
	switch {
	case cfg.Search.MaxWidth > 0:
		return search.IteratedWidth(ctx, task, sc, cfg.Search.MaxWidth)
	case len(cfg.Search.Portfolio) > 0:
		cfgs := cfg.PortfolioConfigs()
		for i := range cfgs {
			cfgs[i].Logger = sc.Logger
		}
		return search.Portfolio(ctx, task, cfgs...)
	default:
		return search.Solve(ctx, task, sc)
	}
}

// archiveRun stores rec and returns its ID. Archive failures are logged;
// the run outcome stands.
func archiveRun(ctx context.Context, logger *slog.Logger, cfg config.PlannerConfig, rec *archive.Record) string {
	store, err := archive.Open(cfg.Archive.StoreConfig(logger))
	if err != nil {
		logger.Warn("Failed to open archive", "error", err)
		return ""
	}
	defer store.Close()

	if err := store.Put(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("Failed to archive run", "error", err)
		return ""
	}
	return rec.ID
}

func printSolve(p *ux.Printer, resp api.SolveResponse) {
	p.Title(resp.Problem)
	switch search.Status(resp.Status) {
	case search.StatusSolved:
		p.Success(fmt.Sprintf("Plan found: %d steps", resp.Cost))
		p.Steps(resp.Plan)
	case search.StatusBoundedIncomplete:
		p.Warning(fmt.Sprintf("Search stopped by %s limit", resp.Reason))
	default:
		p.Warning("Search space exhausted without a plan")
	}

	fields := []ux.Field{
		{Key: "status", Value: resp.Status},
		{Key: "strategy", Value: resp.Strategy},
		{Key: "width", Value: resp.Width},
		{Key: "expanded", Value: resp.Stats.Expanded},
		{Key: "generated", Value: resp.Stats.Generated},
		{Key: "pruned", Value: resp.Stats.Pruned},
		{Key: "elapsed", Value: resp.Stats.Elapsed.Round(time.Microsecond)},
		{Key: "digest", Value: resp.Digest},
	}
	if resp.RunID != "" {
		fields = append(fields, ux.Field{Key: "run", Value: resp.RunID})
	}
	p.Fields(fields...)
}
