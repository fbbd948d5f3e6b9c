// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/aig-upf/fs-private-sub005/services/planner/archive"
	"github.com/aig-upf/fs-private-sub005/services/planner/config"
)

const switchesDoc = `name: switches
variables:
  - {name: a, type: bool}
  - {name: b, type: bool}
  - {name: c, type: bool}
init: {a: false, b: false, c: false}
goal: {eq: [b, true]}
actions:
  - name: set_a
    effects: [{var: a, value: true}]
  - name: set_b
    precondition: {eq: [a, true]}
    effects: [{var: b, value: true}]
`

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T, withArchive bool, mutate ...func(*config.PlannerConfig)) (*gin.Engine, *archive.Store) {
	t.Helper()
	cfg := config.Default()
	for _, m := range mutate {
		m(&cfg)
	}
	h := NewHandlers(cfg)

	var store *archive.Store
	if withArchive {
		var err error
		store, err = archive.Open(archive.InMemoryConfig())
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		h.WithArchive(store)
	}

	router := gin.New()
	RegisterRoutes(router.Group("/v1"), h)
	return router, store
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHandleHealth(t *testing.T) {
	router, _ := setupRouter(t, false)
	w := do(t, router, http.MethodGet, "/v1/planner/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.False(t, resp.Archive)
	assert.Contains(t, resp.Strategies, "bfws")
}

func TestHandleSolve_ArchivesRun(t *testing.T) {
	router, _ := setupRouter(t, true)

	w := do(t, router, http.MethodPost, "/v1/planner/solve", SolveRequest{Problem: switchesDoc})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	resp := decode[SolveResponse](t, w)
	assert.Equal(t, "solved", resp.Status)
	assert.Equal(t, []string{"set_a", "set_b"}, resp.Plan)
	assert.Equal(t, 2, resp.Cost)
	assert.Equal(t, "novelty", resp.Strategy)
	require.NotNil(t, resp.Valid)
	assert.True(t, *resp.Valid)
	assert.Len(t, resp.Digest, 64)
	require.NotEmpty(t, resp.RunID)

	w = do(t, router, http.MethodGet, "/v1/planner/runs/"+resp.RunID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode[archive.Record](t, w)
	assert.Equal(t, "switches", rec.Problem)
	assert.Equal(t, resp.Plan, rec.Plan)

	w = do(t, router, http.MethodGet, "/v1/planner/runs?status=solved", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[ListRunsResponse](t, w)
	assert.Equal(t, 1, list.Count)
}

func TestHandleSolve_Options(t *testing.T) {
	router, _ := setupRouter(t, true)
	no := false

	tests := []struct {
		name       string
		problem    string
		opts       SolveOptions
		wantStatus string
		wantReason string
	}{
		{"hff", switchesDoc, SolveOptions{Strategy: "hff"}, "solved", ""},
		{"portfolio", switchesDoc, SolveOptions{Portfolio: []string{"novelty", "bfws"}}, "solved", ""},
		{"iterated width", switchesDoc, SolveOptions{MaxWidth: 2}, "solved", ""},
		{"expansion budget", switchesDoc, SolveOptions{MaxExpansions: 1}, "bounded_incomplete", "expansions"},
		{"unreachable", strings.Replace(switchesDoc, "goal: {eq: [b, true]}", "goal: {eq: [c, true]}", 1), SolveOptions{Archive: &no}, "exhausted", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/v1/planner/solve", SolveRequest{Problem: tt.problem, Options: tt.opts})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			resp := decode[SolveResponse](t, w)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantReason, resp.Reason)
			if tt.opts.Archive != nil {
				assert.Empty(t, resp.RunID)
			}
		})
	}
}

func TestHandleSolve_Errors(t *testing.T) {
	router, _ := setupRouter(t, false)

	tests := []struct {
		name     string
		body     any
		wantCode int
		wantErr  string
	}{
		{"missing problem", map[string]any{}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown strategy", SolveRequest{Problem: switchesDoc, Options: SolveOptions{Strategy: "astar"}}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"problem syntax", SolveRequest{Problem: "name: [oops"}, http.StatusBadRequest, "INVALID_PROBLEM"},
		{"unknown variable", SolveRequest{Problem: strings.Replace(switchesDoc, "{eq: [b, true]}", "{eq: [z, true]}", 1)}, http.StatusUnprocessableEntity, "INVALID_PROBLEM"},
		{"bad portfolio", SolveRequest{Problem: switchesDoc, Options: SolveOptions{Portfolio: []string{"hff", "hff"}}}, http.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/v1/planner/solve", tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantErr, decode[ErrorResponse](t, w).Code)
		})
	}
}

func TestHandleSolve_BodyTooLarge(t *testing.T) {
	router, _ := setupRouter(t, false, func(c *config.PlannerConfig) { c.Server.MaxBodyBytes = 32 })
	w := do(t, router, http.MethodPost, "/v1/planner/solve", SolveRequest{Problem: switchesDoc})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestSearchConfig_CapsTimeLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.MaxTimeLimit = time.Second
	h := NewHandlers(cfg)

	sc := h.searchConfig(SolveOptions{TimeLimitMs: 60_000, Width: 2}, nil)
	assert.Equal(t, time.Second, sc.Budget.TimeLimit)
	assert.Equal(t, 2, sc.Width)

	sc = h.searchConfig(SolveOptions{TimeLimitMs: 10}, nil)
	assert.Equal(t, 10*time.Millisecond, sc.Budget.TimeLimit)
}

func TestRuns_ArchiveDisabled(t *testing.T) {
	router, _ := setupRouter(t, false)

	w := do(t, router, http.MethodGet, "/v1/planner/runs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, router, http.MethodGet, "/v1/planner/runs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleGetRun_Errors(t *testing.T) {
	router, _ := setupRouter(t, true)

	w := do(t, router, http.MethodGet, "/v1/planner/runs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decode[ErrorResponse](t, w).Code)

	w = do(t, router, http.MethodGet, "/v1/planner/runs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleListRuns(t *testing.T) {
	router, store := setupRouter(t, true)
	ctx := context.Background()
	for _, p := range []string{"a", "b", "a"} {
		require.NoError(t, store.Put(ctx, &archive.Record{Problem: p, Status: "solved"}))
	}

	w := do(t, router, http.MethodGet, "/v1/planner/runs?problem=a&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[ListRunsResponse](t, w)
	assert.Equal(t, 1, list.Count)

	w = do(t, router, http.MethodGet, "/v1/planner/runs?limit=1000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/v1/planner/runs?problem=a%7Bb", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/v1/planner/runs?status=exhausted", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"runs":[]`)
}

func TestNewRouter(t *testing.T) {
	router := NewRouter("planner-test", NewHandlers(config.Default()), nil)
	w := do(t, router, http.MethodGet, "/v1/planner/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewRouter_MetricsAndTraceHeader(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("planner_runs_total 1\n"))
	})
	router := NewRouter("planner-test", NewHandlers(config.Default()), metrics)

	w := do(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "planner_runs_total")

	w = do(t, router, http.MethodPost, "/v1/planner/solve", SolveRequest{Problem: switchesDoc})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, w.Header().Get("X-Trace-ID"), 32)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServeListener_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	cfg := config.Default().Server
	go func() {
		done <- ServeListener(ctx, ln, cfg, NewRouter("planner-test", NewHandlers(config.Default()), nil), nil)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/v1/planner/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
