// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads planner configuration from defaults, a YAML or JSON
// file and PLANNER_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/aig-upf/fs-private-sub005/pkg/logging"
	"github.com/aig-upf/fs-private-sub005/services/planner/archive"
	"github.com/aig-upf/fs-private-sub005/services/planner/formula"
	"github.com/aig-upf/fs-private-sub005/services/planner/formula/satcheck"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/search"
	"github.com/aig-upf/fs-private-sub005/services/planner/telemetry"
)

var validate = validator.New()

// PlannerConfig contains all planner configuration.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after creation.
type PlannerConfig struct {
	// Search contains engine settings.
	Search SearchConfig `json:"search" yaml:"search"`

	// Heuristic contains relaxed planning graph settings.
	Heuristic HeuristicConfig `json:"heuristic" yaml:"heuristic"`

	// Budget bounds each run.
	Budget search.BudgetConfig `json:"budget" yaml:"budget"`

	// Archive contains run archive settings.
	Archive ArchiveConfig `json:"archive" yaml:"archive"`

	// Observability contains logging, tracing and metrics settings.
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`

	// Server contains HTTP service settings.
	Server ServerConfig `json:"server" yaml:"server"`
}

// SearchConfig contains engine settings.
type SearchConfig struct {
	Strategy           string        `json:"strategy" yaml:"strategy" validate:"oneof=novelty hmax hff bfws"`
	Width              int           `json:"width" yaml:"width" validate:"gte=1"`
	PruneNotNovel      bool          `json:"prune_not_novel" yaml:"prune_not_novel"`
	DuplicateDetection bool          `json:"duplicate_detection" yaml:"duplicate_detection"`
	Incremental        bool          `json:"incremental" yaml:"incremental"`
	ProgressInterval   time.Duration `json:"progress_interval" yaml:"progress_interval" validate:"gte=0"`

	// MaxWidth bounds iterated width. Zero disables it.
	MaxWidth int `json:"max_width" yaml:"max_width" validate:"gte=0"`

	// Portfolio lists strategies run concurrently. Empty runs Strategy alone.
	Portfolio []string `json:"portfolio" yaml:"portfolio" validate:"omitempty,unique,dive,oneof=novelty hmax hff bfws"`
}

// HeuristicConfig contains relaxed planning graph settings.
type HeuristicConfig struct {
	// Checker selects relaxed formula interpretation: "compositional" or "sat".
	Checker string `json:"checker" yaml:"checker" validate:"oneof=compositional sat"`
}

// ArchiveConfig contains run archive settings.
type ArchiveConfig struct {
	Enabled    bool          `json:"enabled" yaml:"enabled"`
	Path       string        `json:"path" yaml:"path"`
	InMemory   bool          `json:"in_memory" yaml:"in_memory"`
	SyncWrites bool          `json:"sync_writes" yaml:"sync_writes"`
	GCInterval time.Duration `json:"gc_interval" yaml:"gc_interval" validate:"gte=0"`
	Retention  time.Duration `json:"retention" yaml:"retention" validate:"gte=0"`
}

// ObservabilityConfig contains logging, tracing and metrics settings.
type ObservabilityConfig struct {
	LogLevel       string           `json:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogJSON        bool             `json:"log_json" yaml:"log_json"`
	LogDir         string           `json:"log_dir" yaml:"log_dir"`
	TracingEnabled bool             `json:"tracing_enabled" yaml:"tracing_enabled"`
	MetricsEnabled bool             `json:"metrics_enabled" yaml:"metrics_enabled"`
	Telemetry      telemetry.Config `json:"telemetry" yaml:"telemetry"`
}

// ServerConfig contains HTTP service settings.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gte=0"`

	// MaxBodyBytes caps the size of a solve request.
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" validate:"gt=0"`

	// MaxTimeLimit caps the time limit a request may ask for.
	MaxTimeLimit time.Duration `json:"max_time_limit" yaml:"max_time_limit" validate:"gte=0"`
}

// Default returns the default configuration.
//
// Outputs:
//   - PlannerConfig: IW(1) search, compositional checker, archive off,
//     server on :8090.
func Default() PlannerConfig {
	return PlannerConfig{
		Search: SearchConfig{
			Strategy:         string(search.StrategyNovelty),
			Width:            1,
			PruneNotNovel:    true,
			Incremental:      true,
			ProgressInterval: 5 * time.Second,
		},
		Heuristic: HeuristicConfig{
			Checker: "compositional",
		},
		Budget: search.DefaultBudgetConfig(),
		Archive: ArchiveConfig{
			Path:       "~/.planner/archive",
			GCInterval: 10 * time.Minute,
			Retention:  30 * 24 * time.Hour,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			TracingEnabled: true,
			MetricsEnabled: true,
			Telemetry:      telemetry.DefaultConfig(),
		},
		Server: ServerConfig{
			Addr:            ":8090",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    8 << 20,
			MaxTimeLimit:    5 * time.Minute,
		},
	}
}

// Load loads configuration with priority: env > file > defaults.
//
// Inputs:
//   - path: Path to a YAML or JSON config file. Empty or missing uses defaults.
//
// Outputs:
//   - PlannerConfig: Merged configuration.
//   - error: Non-nil if the file is unreadable or the result is invalid.
//     Validation failures match problem.ErrConfiguration.
func Load(path string) (PlannerConfig, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *PlannerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

// Validate checks field constraints and cross-field rules.
//
// Outputs:
//   - error: A problem.ConfigurationError describing every violation.
func (c PlannerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return problem.Configurationf("config.Validate", "%s", describe(err))
	}
	if c.Archive.Enabled && !c.Archive.InMemory && strings.TrimSpace(c.Archive.Path) == "" {
		return problem.Configurationf("config.Validate", "archive.path is required unless archive.in_memory is set")
	}
	if !c.Search.PruneNotNovel && c.Search.MaxWidth > 0 {
		return problem.Configurationf("config.Validate", "search.max_width requires search.prune_not_novel")
	}
	if c.Server.MaxTimeLimit > 0 && c.Budget.TimeLimit > c.Server.MaxTimeLimit {
		return problem.Configurationf("config.Validate", "budget.time_limit %s exceeds server.max_time_limit %s",
			c.Budget.TimeLimit, c.Server.MaxTimeLimit)
	}
	return nil
}

// describe flattens validator errors into one line.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "PlannerConfig.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// RelaxedChecker returns the relaxed formula checker named by the heuristic section.
func (c HeuristicConfig) RelaxedChecker() formula.RelaxedChecker {
	if c.Checker == "sat" {
		return satcheck.New()
	}
	return formula.CompositionalChecker{}
}

// ToSearchConfig converts the file configuration into an engine
// configuration. Logger, Metrics and Tracer are left for the caller.
func (c PlannerConfig) ToSearchConfig() search.Config {
	cfg := search.DefaultConfig()
	cfg.Strategy = search.Strategy(c.Search.Strategy)
	cfg.Width = c.Search.Width
	cfg.PruneNotNovel = c.Search.PruneNotNovel
	cfg.DuplicateDetection = c.Search.DuplicateDetection
	cfg.Incremental = c.Search.Incremental
	cfg.ProgressInterval = c.Search.ProgressInterval
	cfg.Budget = c.Budget
	cfg.Checker = c.Heuristic.RelaxedChecker()
	return cfg
}

// PortfolioConfigs returns one engine configuration per portfolio
// strategy, or nil when no portfolio is configured.
func (c PlannerConfig) PortfolioConfigs() []search.Config {
	if len(c.Search.Portfolio) == 0 {
		return nil
	}
	base := c.ToSearchConfig()
	out := make([]search.Config, len(c.Search.Portfolio))
	for i, s := range c.Search.Portfolio {
		cfg := base
		cfg.Strategy = search.Strategy(s)
		out[i] = cfg
	}
	return out
}

// LoggingConfig converts the observability section for pkg/logging.
func (c ObservabilityConfig) LoggingConfig() logging.Config {
	level, _ := logging.ParseLevel(c.LogLevel)
	return logging.Config{
		Level:   level,
		LogDir:  c.LogDir,
		Service: c.Telemetry.ServiceName,
		JSON:    c.LogJSON,
	}
}

// StoreConfig converts the archive section for archive.Open. A leading
// "~" in Path is expanded to the home directory.
func (c ArchiveConfig) StoreConfig(logger *slog.Logger) archive.Config {
	if c.InMemory {
		cfg := archive.InMemoryConfig()
		cfg.Logger = logger
		cfg.Retention = c.Retention
		return cfg
	}
	path := c.Path
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	cfg := archive.DefaultConfig(path)
	cfg.SyncWrites = c.SyncWrites
	cfg.GCInterval = c.GCInterval
	cfg.Retention = c.Retention
	cfg.Logger = logger
	return cfg
}
