// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry provides OpenTelemetry-based observability for the
// planner.
//
// OTel is the abstraction layer: planner code calls otel.Tracer() and
// otel.Meter() directly, and the backend is chosen by exporter configuration.
//
// # Traces
//
// Default exporter is "none", which leaves the global no-op provider in
// place. "otlp" ships spans over gRPC and "stdout" pretty-prints them.
//
// # Metrics
//
// Default exporter is Prometheus on a registry owned by the returned
// Providers, exposed through Providers.MetricsHandler for the /metrics route
// of the planner service. Planner counters and histograms are created by
// NewMetrics and recorded by the search engine at the end of every run.
//
// # Usage
//
//	providers, err := telemetry.Init(ctx, telemetry.DefaultConfig())
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer providers.Shutdown(context.Background())
//
//	metrics, err := telemetry.NewMetrics(otel.Meter("planner"))
//	router := api.NewRouter("planner", handlers, providers.MetricsHandler())
//
// # Environment Variables
//
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint (default: localhost:4317)
//   - OTEL_TRACES_EXPORTER: otlp, stdout, or none (default: none)
//   - OTEL_METRICS_EXPORTER: prometheus, stdout, or none (default: prometheus)
//   - PLANNER_ENV: environment name (default: development)
//
// # Thread Safety
//
// All exported functions are safe for concurrent use after Init() returns.
package telemetry
