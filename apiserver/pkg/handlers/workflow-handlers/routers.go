/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package workflowhandlers

import (
	"github.com/gin-gonic/gin"
)

// InitWorkflowRouters initializes routes
func InitWorkflowRouters(e *gin.Engine, h *Handler, mw ...gin.HandlerFunc) {
	group := e.Group("/api/v1/automation", mw...)
	{
		group.POST("/workflows", h.CreateWorkflowTemplate)
		group.GET("/workflows", h.ListWorkflowTemplates)
		group.GET("/workflows/:id", h.GetWorkflowTemplate)
		group.PUT("/workflows/:id", h.UpdateWorkflowTemplate)
		group.DELETE("/workflows/:id", h.DeleteWorkflowTemplate)
		group.POST("/workflows/:id/start", h.StartWorkflow)

		group.GET("/workflow-instances", h.ListWorkflowInstances)
		group.GET("/workflow-instances/:id", h.GetWorkflowInstance)
		group.POST("/workflow-instances/:id/cancel", h.CancelWorkflowInstance)
	}
}
