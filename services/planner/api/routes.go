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
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RegisterRoutes registers the planner routes with the router.
//
// Description:
//
//	Registers all /v1/planner/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/planner/solve - Solve a problem document
//	GET  /v1/planner/runs - List archived runs
//	GET  /v1/planner/runs/:id - Get one archived run
//	GET  /v1/planner/health - Health check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	planner := rg.Group("/planner")
	{
		planner.POST("/solve", handlers.HandleSolve)

		planner.GET("/runs", handlers.HandleListRuns)
		planner.GET("/runs/:id", handlers.HandleGetRun)

		planner.GET("/health", handlers.HandleHealth)
	}
}

// NewRouter builds the gin engine: recovery, OTel middleware, the /v1
// routes and, when metrics is non-nil, /metrics.
func NewRouter(serviceName string, handlers *Handlers, metrics http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))

	RegisterRoutes(router.Group("/v1"), handlers)

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}
	return router
}
