/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package vaulthandlers

import (
	"github.com/gin-gonic/gin"
)

// InitVaultRouters initializes the vault secret management routers
func InitVaultRouters(e *gin.Engine, h *Handler, mw ...gin.HandlerFunc) {
	group := e.Group("/api/v1/automation", mw...)

	group.POST("/vault/secrets", h.CreateVaultSecret)
	group.GET("/vault/secrets", h.ListVaultSecrets)
	group.GET("/vault/secrets/:id", h.GetVaultSecret)
	group.PUT("/vault/secrets/:id", h.UpdateVaultSecret)
	group.DELETE("/vault/secrets/:id", h.DeleteVaultSecret)
}
