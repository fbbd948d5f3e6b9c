// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package api exposes the planner over HTTP with gin.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aig-upf/fs-private-sub005/pkg/validation"
	"github.com/aig-upf/fs-private-sub005/services/planner/archive"
	"github.com/aig-upf/fs-private-sub005/services/planner/config"
	"github.com/aig-upf/fs-private-sub005/services/planner/loader"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/search"
	"github.com/aig-upf/fs-private-sub005/services/planner/telemetry"
	"github.com/aig-upf/fs-private-sub005/services/planner/validate"
)

// ServiceVersion is the planner service version.
const ServiceVersion = "0.1.0"

const defaultListLimit = 50

// Handlers contains the HTTP handlers for the planner.
type Handlers struct {
	cfg     config.PlannerConfig
	store   *archive.Store
	metrics *telemetry.Metrics
	tracer  *search.Tracer
	logger  *slog.Logger
}

// NewHandlers creates handlers that solve with cfg.
func NewHandlers(cfg config.PlannerConfig) *Handlers {
	return &Handlers{cfg: cfg, logger: slog.Default()}
}

// WithArchive enables run archiving and the /runs endpoints.
func (h *Handlers) WithArchive(store *archive.Store) *Handlers {
	h.store = store
	return h
}

// WithMetrics records one sample per solve.
func (h *Handlers) WithMetrics(m *telemetry.Metrics) *Handlers {
	h.metrics = m
	return h
}

// WithTracer emits a span per solve.
func (h *Handlers) WithTracer(t *search.Tracer) *Handlers {
	h.tracer = t
	return h
}

// WithLogger replaces slog.Default().
func (h *Handlers) WithLogger(logger *slog.Logger) *Handlers {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// HandleSolve handles POST /v1/planner/solve.
//
// Description:
//
//	Compiles the problem document, runs the configured search (single
//	engine, portfolio or iterated width), replays a found plan and
//	archives the run.
//
// Request Body:
//
//	SolveRequest
//
// Response:
//
//	200 OK: SolveResponse (any terminal status, including exhausted)
//	400 Bad Request: Malformed body or problem syntax
//	413 Request Entity Too Large: Body exceeds server.max_body_bytes
//	422 Unprocessable Entity: Problem or options fail validation
//	500 Internal Server Error: Search failure
func (h *Handlers) HandleSolve(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleSolve")

	if h.cfg.Server.MaxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Server.MaxBodyBytes)
	}

	var req SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: "Request body too large",
				Code:  "REQUEST_TOO_LARGE",
			})
			return
		}
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	doc, err := loader.Parse([]byte(req.Problem))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, problem.ErrConfiguration) || errors.Is(err, problem.ErrDomain) {
			status = http.StatusUnprocessableEntity
		}
		logger.Warn("Invalid problem", "error", err)
		c.JSON(status, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_PROBLEM",
		})
		return
	}

	cfg := h.searchConfig(req.Options, logger)
	problemName := doc.Task.Problem.Name()
	logger.Info("Solving", "problem", problemName, "digest", doc.Digest, "strategy", cfg.Strategy)

	res, err := h.run(c.Request.Context(), doc.Task, cfg, req.Options)
	if err != nil {
		status, code := http.StatusInternalServerError, "SOLVE_FAILED"
		if errors.Is(err, problem.ErrConfiguration) {
			status, code = http.StatusUnprocessableEntity, "INVALID_OPTIONS"
		}
		logger.Error("Solve failed", "error", err)
		h.save(c.Request.Context(), logger, req.Options, archive.NewRecord(problemName, doc.Digest, cfg, nil, err))
		c.JSON(status, ErrorResponse{
			Error: err.Error(),
			Code:  code,
		})
		return
	}

	resp := SolveResponse{
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
		valid := verr == nil
		resp.Valid = &valid
		if !valid {
			logger.Error("Plan failed validation", "error", verr)
		}
	}

	rec := archive.NewRecord(problemName, doc.Digest, cfg, res, nil)
	if h.save(c.Request.Context(), logger, req.Options, rec) {
		resp.RunID = rec.ID
	}

	logger.Info("Solve finished",
		"status", resp.Status,
		"cost", resp.Cost,
		"expanded", resp.Stats.Expanded,
		"run_id", resp.RunID)
	c.JSON(http.StatusOK, resp)
}

// searchConfig applies request options over the server configuration.
func (h *Handlers) searchConfig(opts SolveOptions, logger *slog.Logger) search.Config {
	cfg := h.cfg.ToSearchConfig()
	cfg.Logger = logger
	cfg.Metrics = h.metrics
	cfg.Tracer = h.tracer

	if opts.Strategy != "" {
		cfg.Strategy = search.Strategy(opts.Strategy)
	}
	if opts.Width > 0 {
		cfg.Width = opts.Width
	}
	if opts.PruneNotNovel != nil {
		cfg.PruneNotNovel = *opts.PruneNotNovel
	}
	if opts.DuplicateDetection != nil {
		cfg.DuplicateDetection = *opts.DuplicateDetection
	}
	if opts.MaxNodes > 0 {
		cfg.Budget.MaxNodes = opts.MaxNodes
	}
	if opts.MaxExpansions > 0 {
		cfg.Budget.MaxExpansions = opts.MaxExpansions
	}
	if opts.TimeLimitMs > 0 {
		cfg.Budget.TimeLimit = time.Duration(opts.TimeLimitMs) * time.Millisecond
	}
	if limit := h.cfg.Server.MaxTimeLimit; limit > 0 && (cfg.Budget.TimeLimit == 0 || cfg.Budget.TimeLimit > limit) {
		cfg.Budget.TimeLimit = limit
	}
	return cfg
}

// run dispatches to iterated width, a portfolio, or a single engine.
func (h *Handlers) run(ctx context.Context, task search.Task, cfg search.Config, opts SolveOptions) (*search.Result, error) {
	maxWidth := opts.MaxWidth
	if maxWidth == 0 {
		maxWidth = h.cfg.Search.MaxWidth
	}
	portfolio := opts.Portfolio
	if len(portfolio) == 0 {
		portfolio = h.cfg.Search.Portfolio
	}

	switch {
	case maxWidth > 0:
		return search.IteratedWidth(ctx, task, cfg, maxWidth)
	case len(portfolio) > 0:
		cfgs := make([]search.Config, len(portfolio))
		for i, s := range portfolio {
			cfgs[i] = cfg
			cfgs[i].Strategy = search.Strategy(s)
		}
		return search.Portfolio(ctx, task, cfgs...)
	default:
		return search.Solve(ctx, task, cfg)
	}
}

// save stores rec unless archiving is off. Failures are logged, not
// returned: the solve result is still valid.
func (h *Handlers) save(ctx context.Context, logger *slog.Logger, opts SolveOptions, rec *archive.Record) bool {
	if h.store == nil || (opts.Archive != nil && !*opts.Archive) {
		return false
	}
	if err := h.store.Put(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("Failed to archive run", "error", err)
		return false
	}
	return true
}

// HandleGetRun handles GET /v1/planner/runs/:id.
//
// Response:
//
//	200 OK: archive.Record
//	400 Bad Request: ID is not a UUID
//	404 Not Found: No such run
//	503 Service Unavailable: Archive disabled
func (h *Handlers) HandleGetRun(c *gin.Context) {
	if !h.requireArchive(c) {
		return
	}

	id := c.Param("id")
	rec, err := h.store.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, archive.ErrInvalidID):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_ID"})
	case errors.Is(err, archive.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Run not found", Code: "NOT_FOUND"})
	case err != nil:
		h.logger.Error("Failed to read run", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "ARCHIVE_ERROR"})
	default:
		c.JSON(http.StatusOK, rec)
	}
}

// HandleListRuns handles GET /v1/planner/runs.
//
// Query Parameters:
//
//	limit - Maximum records (1-500, default 50)
//	problem - Problem name filter
//	status - Status filter
//
// Response:
//
//	200 OK: ListRunsResponse
//	400 Bad Request: Invalid query
//	503 Service Unavailable: Archive disabled
func (h *Handlers) HandleListRuns(c *gin.Context) {
	if !h.requireArchive(c) {
		return
	}

	var q ListRunsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid query",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}
	if q.Problem != "" {
		name, err := validation.SanitizeIdentifier(q.Problem)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid query",
				Code:    "INVALID_REQUEST",
				Details: err.Error(),
			})
			return
		}
		q.Problem = name
	}
	if q.Limit == 0 {
		q.Limit = defaultListLimit
	}

	runs, err := h.store.List(c.Request.Context(), archive.ListOptions{
		Limit:   q.Limit,
		Problem: q.Problem,
		Status:  q.Status,
	})
	if err != nil {
		h.logger.Error("Failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "ARCHIVE_ERROR"})
		return
	}
	if runs == nil {
		runs = []*archive.Record{}
	}
	c.JSON(http.StatusOK, ListRunsResponse{Runs: runs, Count: len(runs)})
}

// HandleHealth handles GET /v1/planner/health. Always 200 while running.
func (h *Handlers) HandleHealth(c *gin.Context) {
	strategies := make([]string, 0, len(search.Strategies()))
	for _, s := range search.Strategies() {
		strategies = append(strategies, string(s))
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "healthy",
		Version:    ServiceVersion,
		Archive:    h.store != nil,
		Strategies: strategies,
	})
}

func (h *Handlers) requireArchive(c *gin.Context) bool {
	if h.store != nil {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Error: "Run archive is disabled",
		Code:  "ARCHIVE_DISABLED",
	})
	return false
}

// getOrCreateRequestID echoes or assigns X-Request-ID and, when the
// request is traced, exposes the trace as X-Trace-ID.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	if traceID := telemetry.TraceID(c.Request.Context()); traceID != "" {
		c.Header("X-Trace-ID", traceID)
	}
	return requestID
}
