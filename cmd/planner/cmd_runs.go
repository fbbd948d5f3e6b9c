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
	"encoding/json"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/aig-upf/fs-private-sub005/pkg/ux"
	"github.com/aig-upf/fs-private-sub005/services/planner/archive"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
)

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived runs",
	}
	cmd.AddCommand(newRunsListCmd(a), newRunsShowCmd(a))
	return cmd
}

// openArchive opens the configured archive for reading.
func (a *app) openArchive() (*archive.Store, error) {
	if a.cfg.Archive.InMemory {
		return nil, problem.Configurationf("planner runs", "archive.in_memory has no runs to inspect")
	}
	return archive.Open(a.cfg.Archive.StoreConfig(a.logger.Slog()))
}

func newRunsListCmd(a *app) *cobra.Command {
	var (
		opts       archive.ListOptions
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		Long: `List archived runs, newest first.

Examples:
  planner runs list
  planner runs list --problem logistics --status solved --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openArchive()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if jsonOutput {
				if runs == nil {
					runs = []*archive.Record{}
				}
				return writeJSON(cmd, runs)
			}

			p := a.printer(cmd)
			if len(runs) == 0 {
				p.Info("No runs archived")
				return nil
			}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.ID,
					r.CreatedAt.Local().Format(time.DateTime),
					r.Problem,
					r.Strategy,
					r.Status,
					strconv.Itoa(r.Cost),
				}
			}
			p.Table([]string{"ID", "CREATED", "PROBLEM", "STRATEGY", "STATUS", "COST"}, rows)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&opts.Limit, "limit", 20, "Maximum runs to show (0 = all)")
	flags.StringVar(&opts.Problem, "problem", "", "Only runs of this problem")
	flags.StringVar(&opts.Status, "status", "", "Only runs with this status")
	flags.BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	return cmd
}

func newRunsShowCmd(a *app) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openArchive()
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, rec)
			}
			printRecord(a.printer(cmd), rec)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run as JSON")
	return cmd
}

func printRecord(p *ux.Printer, rec *archive.Record) {
	p.Title(rec.Problem)
	fields := []ux.Field{
		{Key: "id", Value: rec.ID},
		{Key: "created", Value: rec.CreatedAt.Local().Format(time.DateTime)},
		{Key: "status", Value: rec.Status},
		{Key: "strategy", Value: rec.Strategy},
		{Key: "width", Value: rec.Width},
		{Key: "cost", Value: rec.Cost},
		{Key: "expanded", Value: rec.Stats.Expanded},
		{Key: "digest", Value: rec.Digest},
	}
	if rec.Reason != "" {
		fields = append(fields, ux.Field{Key: "reason", Value: rec.Reason})
	}
	if rec.Error != "" {
		fields = append(fields, ux.Field{Key: "error", Value: rec.Error})
	}
	p.Fields(fields...)
	p.Steps(rec.Plan)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
