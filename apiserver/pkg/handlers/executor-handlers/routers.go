/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package executorhandlers

import (
	"github.com/gin-gonic/gin"
)

// InitExecutorRouters initializes the executor discovery routers
func InitExecutorRouters(e *gin.Engine, h *Handler, mw ...gin.HandlerFunc) {
	group := e.Group("/api/v1/automation", mw...)

	group.GET("/executors", h.ListExecutors)
	group.GET("/executors/:type/actions", h.ListActions)
	group.GET("/executors/:type/actions/:name/schema", h.GetActionSchema)
}
