/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package jobhandlers

import (
	"github.com/gin-gonic/gin"
)

// InitJobRouters initializes routes
func InitJobRouters(e *gin.Engine, h *Handler, mw ...gin.HandlerFunc) {
	group := e.Group("/api/v1/automation", mw...)
	{
		group.POST("/jobs", h.CreateJob)
		group.GET("/jobs", h.ListJobs)
		group.GET("/jobs/:id", h.GetJob)
		group.GET("/jobs/:id/logs", h.GetJobLogs)
		group.POST("/jobs/:id/cancel", h.CancelJob)
		group.POST("/jobs/:id/rerun", h.RerunJob)
	}
}
