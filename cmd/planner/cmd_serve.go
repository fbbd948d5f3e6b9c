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
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/aig-upf/fs-private-sub005/services/planner/api"
	"github.com/aig-upf/fs-private-sub005/services/planner/archive"
	"github.com/aig-upf/fs-private-sub005/services/planner/search"
	"github.com/aig-upf/fs-private-sub005/services/planner/telemetry"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the planner HTTP API",
		Long: `Serve the planner over HTTP until interrupted.

Endpoints:
  POST /v1/planner/solve
  GET  /v1/planner/runs
  GET  /v1/planner/runs/:id
  GET  /v1/planner/health
  GET  /metrics            (Prometheus exporter only)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8090)")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	cfg := a.cfg
	logger := a.logger.Slog()
	gin.SetMode(gin.ReleaseMode)

	tel := cfg.Observability.Telemetry
	tel.ServiceVersion = api.ServiceVersion
	if !cfg.Observability.TracingEnabled {
		tel.TraceExporter = telemetry.ExporterNone
	}
	if !cfg.Observability.MetricsEnabled {
		tel.MetricExporter = telemetry.ExporterNone
	}
	providers, err := telemetry.Init(ctx, tel)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(sctx); err != nil {
			logger.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	handlers := api.NewHandlers(cfg).
		WithLogger(logger).
		WithTracer(search.NewTracer(logger, cfg.Observability.TracingEnabled))

	if cfg.Observability.MetricsEnabled {
		metrics, err := telemetry.NewMetrics(otel.Meter(tel.ServiceName))
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		handlers.WithMetrics(metrics)
	}

	if cfg.Archive.Enabled {
		store, err := archive.Open(cfg.Archive.StoreConfig(logger))
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer store.Close()
		handlers.WithArchive(store)
	}

	router := api.NewRouter(tel.ServiceName, handlers, providers.MetricsHandler())
	return api.Serve(ctx, cfg.Server, router, logger)
}
