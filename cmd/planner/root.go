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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aig-upf/fs-private-sub005/pkg/logging"
	"github.com/aig-upf/fs-private-sub005/pkg/ux"
	"github.com/aig-upf/fs-private-sub005/services/planner/api"
	"github.com/aig-upf/fs-private-sub005/services/planner/config"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/search"
)

// Exit codes. exitNoPlan means the search space was exhausted;
// exitIncomplete means a budget stopped the search first.
const (
	exitFailure    = 1
	exitUsage      = 2
	exitNoPlan     = 3
	exitIncomplete = 4
	envConfigPath  = "PLANNER_CONFIG"
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// exitCode maps an error to a process exit code. Configuration and domain
// errors are usage errors.
func exitCode(err error) int {
	var ee *exitError
	switch {
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, problem.ErrConfiguration), errors.Is(err, problem.ErrDomain):
		return exitUsage
	default:
		return exitFailure
	}
}

// app holds state shared by every subcommand. It is populated by the root
// command's PersistentPreRunE.
type app struct {
	configPath string
	logLevel   string
	output     string

	cfg    config.PlannerConfig
	logger *logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "planner",
		Short: "Width-based classical planner",
		Long: `planner solves classical planning problems described in YAML or JSON
using width-based search: IW(k), best-first width search and
relaxed planning graph heuristics.

Configuration is read from --config (or PLANNER_CONFIG), then
overridden by PLANNER_* environment variables and command flags.`,
		Version:       api.ServiceVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Close()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML or JSON config file (env: PLANNER_CONFIG)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.output, "output", "", "Output style: standard, minimal, machine (env: PLANNER_OUTPUT)")

	cmd.AddCommand(
		newSolveCmd(a),
		newRPGCmd(a),
		newServeCmd(a),
		newRunsCmd(a),
	)
	return cmd
}

// setup loads configuration and sets up logging and output style.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		path = os.Getenv(envConfigPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if _, err := logging.ParseLevel(a.logLevel); err != nil {
			return problem.Configurationf("planner", "--log-level: %v", err)
		}
		cfg.Observability.LogLevel = a.logLevel
	}
	a.cfg = cfg

	lc := cfg.Observability.LoggingConfig()
	lc.Output = cmd.ErrOrStderr()
	a.logger = logging.New(lc)

	ux.InitPersonality(a.output)
	return nil
}

func (a *app) printer(cmd *cobra.Command) *ux.Printer {
	return ux.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// noPlanError reports a finished run without a plan.
func noPlanError(res *search.Result) error {
	if res.Status == search.StatusBoundedIncomplete {
		return &exitError{code: exitIncomplete, err: fmt.Errorf("no plan found: %s (%s limit)", res.Status, res.Reason)}
	}
	return &exitError{code: exitNoPlan, err: fmt.Errorf("no plan found: %s", res.Status)}
}

// isNoPlan reports whether err only says that no plan was found.
func isNoPlan(err error) bool {
	code := exitCode(err)
	return code == exitNoPlan || code == exitIncomplete
}
