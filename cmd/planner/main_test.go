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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aig-upf/fs-private-sub005/services/planner/api"
	"github.com/aig-upf/fs-private-sub005/services/planner/archive"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/search"
)

const (
	switchesFile = "testdata/switches.yaml"
	deadEndFile  = "testdata/dead_end.yaml"
)

// execute runs the CLI with machine output and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(envConfigPath, "")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--output", "machine", "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func decodeJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

func TestSolve_JSON(t *testing.T) {
	out, _, err := execute(t, "solve", switchesFile, "--json")
	require.NoError(t, err)

	resp := decodeJSON[api.SolveResponse](t, out)
	assert.Equal(t, "switches", resp.Problem)
	assert.Equal(t, "solved", resp.Status)
	assert.Equal(t, []string{"set_a", "set_b"}, resp.Plan)
	assert.Equal(t, 2, resp.Cost)
	require.NotNil(t, resp.Valid)
	assert.True(t, *resp.Valid)
	assert.Empty(t, resp.RunID)
}

func TestSolve_MachineText(t *testing.T) {
	out, _, err := execute(t, "solve", switchesFile)
	require.NoError(t, err)
	assert.Contains(t, out, "OK: Plan found: 2 steps\nset_a\nset_b\n")
	assert.Contains(t, out, "status\tsolved\n")
}

func TestSolve_Options(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bfws", []string{"--strategy", "bfws"}},
		{"hmax with sat checker", []string{"--strategy", "hmax", "--checker", "sat"}},
		{"portfolio", []string{"--portfolio", "novelty,hff"}},
		{"iterated width", []string{"--max-width", "2"}},
		{"no pruning with dedup", []string{"--no-prune", "--dedup"}},
		{"width two", []string{"-w", "2", "--time-limit", "10s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, append([]string{"solve", switchesFile, "--json"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, "solved", decodeJSON[api.SolveResponse](t, out).Status)
		})
	}
}

func TestSolve_NoPlan(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantStatus string
		wantReason string
		wantCode   int
	}{
		{"dead end", []string{"solve", deadEndFile, "--json"}, "exhausted", "", exitNoPlan},
		{"expansion budget", []string{"solve", switchesFile, "--json", "--max-expansions", "1"}, "bounded_incomplete", "expansions", exitIncomplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, exitCode(err))
			assert.True(t, isNoPlan(err))

			resp := decodeJSON[api.SolveResponse](t, out)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantReason, resp.Reason)
			assert.Empty(t, resp.Plan)
		})
	}
}

func TestSolve_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"unknown strategy", []string{"solve", switchesFile, "--strategy", "astar"}, exitUsage},
		{"duplicate portfolio", []string{"solve", switchesFile, "--portfolio", "hff,hff"}, exitUsage},
		{"bad log level", []string{"solve", switchesFile, "--log-level", "loud"}, exitUsage},
		{"missing file", []string{"solve", "testdata/nope.yaml"}, exitFailure},
		{"no file", []string{"solve"}, exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, exitCode(err))
		})
	}
}

func TestSolve_ArchiveAndRuns(t *testing.T) {
	t.Setenv("PLANNER_ARCHIVE_PATH", t.TempDir())

	out, _, err := execute(t, "solve", switchesFile, "--json", "--archive")
	require.NoError(t, err)
	resp := decodeJSON[api.SolveResponse](t, out)
	require.NotEmpty(t, resp.RunID)

	_, _, err = execute(t, "solve", deadEndFile, "--json", "--archive")
	require.Error(t, err)

	out, _, err = execute(t, "runs", "list", "--json")
	require.NoError(t, err)
	runs := decodeJSON[[]*archive.Record](t, out)
	require.Len(t, runs, 2)
	assert.Equal(t, "switches-dead-end", runs[0].Problem)
	assert.Equal(t, resp.RunID, runs[1].ID)

	out, _, err = execute(t, "runs", "list", "--status", "solved")
	require.NoError(t, err)
	assert.Contains(t, out, "ID\tCREATED\tPROBLEM\tSTRATEGY\tSTATUS\tCOST\n")
	assert.Contains(t, out, resp.RunID)
	assert.NotContains(t, out, "switches-dead-end")

	out, _, err = execute(t, "runs", "show", resp.RunID, "--json")
	require.NoError(t, err)
	rec := decodeJSON[archive.Record](t, out)
	assert.Equal(t, []string{"set_a", "set_b"}, rec.Plan)
	assert.Equal(t, "solved", rec.Status)

	out, _, err = execute(t, "runs", "show", resp.RunID)
	require.NoError(t, err)
	assert.Contains(t, out, "set_b\n")

	_, _, err = execute(t, "runs", "show", "not-a-uuid")
	assert.ErrorIs(t, err, archive.ErrInvalidID)
}

func TestRuns_EmptyArchive(t *testing.T) {
	t.Setenv("PLANNER_ARCHIVE_PATH", t.TempDir())

	out, _, err := execute(t, "runs", "list", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	out, _, err = execute(t, "runs", "list")
	require.NoError(t, err)
	assert.Equal(t, "No runs archived\n", out)
}

func TestRuns_InMemoryArchive(t *testing.T) {
	t.Setenv("PLANNER_ARCHIVE_IN_MEMORY", "true")
	_, _, err := execute(t, "runs", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, problem.ErrConfiguration)
}

func TestRPG_JSON(t *testing.T) {
	out, _, err := execute(t, "rpg", switchesFile, "--json")
	require.NoError(t, err)

	g := decodeJSON[rpgOutput](t, out)
	assert.Equal(t, "switches", g.Problem)
	assert.True(t, g.GoalReached)
	assert.Equal(t, 2, g.HMax)
	assert.Equal(t, 2, g.HFF)
	assert.Equal(t, []string{"set_a", "set_b"}, g.RelaxedPlan)
	require.Len(t, g.Layers, 3)
	assert.Len(t, g.Layers[0], 3)
	assert.Len(t, g.Layers[1], 1)
	assert.Len(t, g.Layers[2], 1)
	assert.Equal(t, g.Layers[2], g.GoalWitnesses)
}

func TestRPG_DeadEnd(t *testing.T) {
	out, errOut, err := execute(t, "rpg", deadEndFile)
	require.NoError(t, err)
	assert.Contains(t, out, "LAYER\tNEW\tATOMS\n")
	assert.Contains(t, errOut, "WARN: Goal is relaxed-unreachable")
}

func TestRPG_BadChecker(t *testing.T) {
	_, _, err := execute(t, "rpg", switchesFile, "--checker", "bdd")
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
	assert.Equal(t, exitUsage, exitCode(problem.Configurationf("op", "bad")))
	assert.Equal(t, exitNoPlan, exitCode(noPlanError(&search.Result{Status: search.StatusExhausted})))
	bounded := noPlanError(&search.Result{Status: search.StatusBoundedIncomplete, Reason: "time"})
	assert.Equal(t, exitIncomplete, exitCode(bounded))
	assert.Contains(t, bounded.Error(), "time limit")
	assert.False(t, isNoPlan(errors.New("boom")))
}

func TestSolve_Watch(t *testing.T) {
	t.Setenv(envConfigPath, "")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--output", "machine", "--log-level", "error", "solve", switchesFile, "--watch"})
	require.NoError(t, cmd.ExecuteContext(ctx))

	assert.Contains(t, out.String(), "OK: Plan found: 2 steps")
	assert.Contains(t, out.String(), "Watching testdata/switches.yaml for changes")
}
