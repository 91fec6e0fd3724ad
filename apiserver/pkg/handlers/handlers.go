/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	executorhandlers "github.com/labforge/homeops/apiserver/pkg/handlers/executor-handlers"
	jobhandlers "github.com/labforge/homeops/apiserver/pkg/handlers/job-handlers"
	"github.com/labforge/homeops/apiserver/pkg/handlers/middleware"
	streamhandlers "github.com/labforge/homeops/apiserver/pkg/handlers/stream-handlers"
	vaulthandlers "github.com/labforge/homeops/apiserver/pkg/handlers/vault-handlers"
	workflowhandlers "github.com/labforge/homeops/apiserver/pkg/handlers/workflow-handlers"
	apiutils "github.com/labforge/homeops/apiserver/pkg/utils"
	commonconfig "github.com/labforge/homeops/common/pkg/config"
	"github.com/labforge/homeops/common/pkg/crypto"
	dbclient "github.com/labforge/homeops/common/pkg/database/client"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/executors"
	"github.com/labforge/homeops/common/pkg/pubsub"
	"github.com/labforge/homeops/common/pkg/queue"
	"github.com/labforge/homeops/common/pkg/workflow"
)

type healthResp struct {
	Status string `json:"status"`
	DB     string `json:"db"`
	Queue  string `json:"queue"`
}

// InitHttpHandlers builds the Gin engine and mounts every route group.
// The health probe stays outside the middleware chain; everything
// under /api/v1/automation runs through authorization and, when
// enabled, tracing and auditing.
func InitHttpHandlers(cfg *commonconfig.Config, store *dbclient.Client, registry *executors.Registry,
	engine *workflow.Engine, cipher *crypto.Crypto, taskQueue *queue.Client, bus *pubsub.Bus,
	auditor *middleware.Auditor) *gin.Engine {
	e := gin.New()
	e.Use(apiutils.Logger(), gin.Recovery())
	e.NoRoute(func(c *gin.Context) {
		apiutils.AbortWithApiError(c, commonerrors.NewNotFoundWithMessage(c.Request.RequestURI+" not found"))
	})
	e.GET("/healthz", healthz(store, taskQueue, bus))

	mw := []gin.HandlerFunc{middleware.Authorize(&cfg.Auth)}
	if cfg.Tracing.Enable {
		mw = append(mw, middleware.HandleTracing(&cfg.Tracing))
	}
	if auditor != nil {
		mw = append(mw, auditor.Handler())
	}

	jobhandlers.InitJobRouters(e, jobhandlers.NewHandler(store, registry, cipher, engine, bus), mw...)
	workflowhandlers.InitWorkflowRouters(e, workflowhandlers.NewHandler(store, registry, engine), mw...)
	vaulthandlers.InitVaultRouters(e, vaulthandlers.NewHandler(store, cipher), mw...)
	executorhandlers.InitExecutorRouters(e, executorhandlers.NewHandler(registry), mw...)
	streamhandlers.InitStreamRouters(e, streamhandlers.NewHandler(store, bus), mw...)

	return e
}

// healthz reports readiness of the two backing services. The redis
// check covers the task queue and the log bus together; they share the
// server.
func healthz(store *dbclient.Client, taskQueue *queue.Client, bus *pubsub.Bus) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		resp := &healthResp{Status: "ok", DB: "ok", Queue: "ok"}

		if err := store.Ping(ctx); err != nil {
			klog.ErrorS(err, "health check failed on the database")
			resp.DB = "unavailable"
		}
		if err := taskQueue.Ping(ctx); err != nil {
			klog.ErrorS(err, "health check failed on the task queue")
			resp.Queue = "unavailable"
		} else if err := bus.Ping(ctx); err != nil {
			klog.ErrorS(err, "health check failed on the log bus")
			resp.Queue = "unavailable"
		}

		code := http.StatusOK
		if resp.DB != "ok" || resp.Queue != "ok" {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	}
}
