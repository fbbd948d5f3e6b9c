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
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aig-upf/fs-private-sub005/pkg/ux"
	"github.com/aig-upf/fs-private-sub005/services/planner/action"
	"github.com/aig-upf/fs-private-sub005/services/planner/atoms"
	"github.com/aig-upf/fs-private-sub005/services/planner/loader"
	"github.com/aig-upf/fs-private-sub005/services/planner/rpg"
)

// rpgOutput is the JSON form of a relaxed planning graph.
type rpgOutput struct {
	Problem       string     `json:"problem"`
	Layers        [][]string `json:"layers"`
	GoalReached   bool       `json:"goal_reached"`
	GoalWitnesses []string   `json:"goal_witnesses"`
	HMax          int        `json:"hmax"`
	HFF           int        `json:"hff"`
	RelaxedPlan   []string   `json:"relaxed_plan"`
}

func newRPGCmd(a *app) *cobra.Command {
	var (
		checker    string
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "rpg FILE",
		Short: "Show the relaxed planning graph of the initial state",
		Long: `Build the relaxed planning graph from the initial state of FILE and
print the atoms first reached in each layer, the goal atoms, the hmax
and hff estimates and the extracted relaxed plan.

Examples:
  planner rpg problem.yaml
  planner rpg problem.yaml --checker sat --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("checker") {
				cfg.Heuristic.Checker = checker
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			doc, err := loader.Load(args[0])
			if err != nil {
				return err
			}
			t := doc.Task
			b, err := rpg.NewBuilder(t.Problem, t.Index, t.Actions, t.Goal,
				rpg.WithChecker(cfg.Heuristic.RelaxedChecker()))
			if err != nil {
				return err
			}
			g, err := b.Build(cmd.Context(), t.Init)
			if err != nil {
				return err
			}

			atomNames := func(ids []atoms.AtomID) []string {
				names := make([]string, len(ids))
				for j, id := range ids {
					names[j] = t.Index.String(id)
				}
				return names
			}
			out := rpgOutput{
				Problem:       t.Problem.Name(),
				Layers:        make([][]string, g.NumLayers()),
				GoalReached:   g.GoalReached(),
				GoalWitnesses: atomNames(g.GoalWitnesses()),
				HMax:          g.HMax(),
				HFF:           g.HFF(),
				RelaxedPlan:   action.Names(g.RelaxedPlan()),
			}
			for i := range g.NumLayers() {
				out.Layers[i] = atomNames(g.NewAtoms(i))
			}

			if jsonOutput {
				return writeJSON(cmd, out)
			}
			printRPG(a.printer(cmd), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&checker, "checker", "", "Relaxed formula checker: compositional, sat")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the graph as JSON")
	return cmd
}

func printRPG(p *ux.Printer, out rpgOutput) {
	p.Title(out.Problem)

	rows := make([][]string, len(out.Layers))
	for i, names := range out.Layers {
		rows[i] = []string{strconv.Itoa(i), strconv.Itoa(len(names)), strings.Join(names, " ")}
	}
	p.Table([]string{"LAYER", "NEW", "ATOMS"}, rows)

	if !out.GoalReached {
		p.Warning("Goal is relaxed-unreachable: the initial state is a dead end")
		return
	}
	p.Fields(
		ux.Field{Key: "goal", Value: strings.Join(out.GoalWitnesses, " ")},
		ux.Field{Key: "hmax", Value: out.HMax},
		ux.Field{Key: "hff", Value: out.HFF},
	)
	p.Steps(out.RelaxedPlan)
}
