// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("PLANNER_ENV", "ci")

	cfg := DefaultConfig()
	assert.Equal(t, "planner", cfg.ServiceName)
	assert.Equal(t, "none", cfg.TraceExporter)
	assert.Equal(t, "ci", cfg.Environment)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, 1.0, cfg.SampleRatio)
}

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	_, err := Init(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestInit_NoopExporters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = ExporterNone
	cfg.MetricExporter = ExporterNone

	p, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, p.Tracer)
	assert.Nil(t, p.Meter)
	assert.Nil(t, p.MetricsHandler())
	assert.NoError(t, p.Shutdown(context.Background()))

	var none *Providers
	assert.Nil(t, none.MetricsHandler())
	assert.NoError(t, none.Shutdown(context.Background()))
}

func TestInit_StdoutTracer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "stdout"
	cfg.MetricExporter = ExporterNone

	p, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, p.Tracer)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_PrometheusRegistry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = ExporterNone
	cfg.MetricExporter = "prometheus"

	p, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	require.NotNil(t, p.MetricsHandler())

	m, err := NewMetrics(p.Meter.Meter("planner-test"))
	require.NoError(t, err)
	m.RecordRun(context.Background(), RunSample{Strategy: "novelty", Status: "solved", Expanded: 3})

	w := httptest.NewRecorder()
	p.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "planner_expansions_total")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestInit_UnknownExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "carrier-pigeon"
	_, err := Init(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownExporter))

	cfg.TraceExporter = ExporterNone
	cfg.MetricExporter = "fax"
	_, err = Init(context.Background(), cfg)
	assert.True(t, errors.Is(err, ErrUnknownExporter))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestMetrics_RecordRun(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	m, err := NewMetrics(provider.Meter("planner-test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordRun(ctx, RunSample{
		Strategy:   "novelty",
		Status:     "solved",
		Elapsed:    20 * time.Millisecond,
		Expanded:   2,
		Generated:  3,
		Pruned:     1,
		PlanLength: 2,
	})
	m.RecordRun(ctx, RunSample{Strategy: "hff", ErrorKind: "configuration"})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					got[md.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), got["planner_runs_total"])
	assert.Equal(t, int64(1), got["planner_errors_total"])
	assert.Equal(t, int64(2), got["planner_expansions_total"])
	assert.Equal(t, int64(3), got["planner_generated_total"])
	assert.Equal(t, int64(1), got["planner_pruned_total"])

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.RecordRun(ctx, RunSample{}) })
}

func TestLoggerWithTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LoggerWithTrace(context.Background(), logger).Info("no span")
	assert.NotContains(t, buf.String(), "trace_id")
	assert.Empty(t, TraceID(context.Background()))

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	buf.Reset()
	LoggerWithTrace(ctx, logger).Info("with span")
	assert.True(t, strings.Contains(buf.String(), `"trace_id"`))
	assert.Equal(t, span.SpanContext().TraceID().String(), TraceID(ctx))
}
