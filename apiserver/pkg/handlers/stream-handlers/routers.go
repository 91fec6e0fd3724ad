/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package streamhandlers

import (
	"github.com/gin-gonic/gin"
)

// InitStreamRouters initializes the live log stream routers
func InitStreamRouters(e *gin.Engine, h *Handler, mw ...gin.HandlerFunc) {
	group := e.Group("/api/v1/automation", mw...)

	group.GET("/jobs/:id/logs/stream", h.StreamJobLogsSSE)
	group.GET("/jobs/:id/logs/ws", h.StreamJobLogsWS)
}
