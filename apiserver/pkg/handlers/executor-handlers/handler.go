/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package executorhandlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apiutils "github.com/labforge/homeops/apiserver/pkg/utils"
	"github.com/labforge/homeops/common/pkg/executors"
)

type handleFunc func(*gin.Context) (interface{}, error)

// handle executes the handler function and processes the response/error
func handle(c *gin.Context, fn handleFunc) {
	response, err := fn(c)
	if err != nil {
		apiutils.AbortWithApiError(c, err)
		return
	}
	code := http.StatusOK
	if c.Writer.Status() > 0 {
		code = c.Writer.Status()
	}
	switch responseType := response.(type) {
	case []byte:
		c.Data(code, apiutils.JsonContentType, responseType)
	case string:
		c.Data(code, apiutils.JsonContentType, []byte(responseType))
	default:
		c.JSON(code, responseType)
	}
}

// Handler exposes the executor discovery endpoints.
type Handler struct {
	registry *executors.Registry
}

func NewHandler(registry *executors.Registry) *Handler {
	return &Handler{registry: registry}
}

// ListExecutors lists the registered executor types
func (h *Handler) ListExecutors(c *gin.Context) {
	handle(c, h.listExecutors)
}

// ListActions lists the actions of one executor
func (h *Handler) ListActions(c *gin.Context) {
	handle(c, h.listActions)
}

// GetActionSchema returns the config schema of one action
func (h *Handler) GetActionSchema(c *gin.Context) {
	handle(c, h.getActionSchema)
}

func (h *Handler) listExecutors(c *gin.Context) (interface{}, error) {
	types := h.registry.Types()
	resp := &ListExecutorsResp{
		Total: len(types),
		Items: make([]*ExecutorItem, 0, len(types)),
	}
	for _, executorType := range types {
		resp.Items = append(resp.Items, &ExecutorItem{Type: executorType})
	}
	return resp, nil
}

func (h *Handler) listActions(c *gin.Context) (interface{}, error) {
	executor, err := h.registry.Get(c.Param("type"))
	if err != nil {
		return nil, err
	}
	actions, err := executor.ListActions(c.Request.Context())
	if err != nil {
		return nil, err
	}
	resp := &ListActionsResp{
		Total: len(actions),
		Items: make([]executors.ActionInfo, 0, len(actions)),
	}
	resp.Items = append(resp.Items, actions...)
	return resp, nil
}

func (h *Handler) getActionSchema(c *gin.Context) (interface{}, error) {
	executor, err := h.registry.Get(c.Param("type"))
	if err != nil {
		return nil, err
	}
	actionName := c.Param("name")
	if err := executor.Validate(actionName); err != nil {
		return nil, err
	}
	schema, err := executor.ActionSchema(actionName)
	if err != nil {
		return nil, err
	}
	return &ActionSchemaResp{
		ActionName:   actionName,
		ConfigSchema: schema,
	}, nil
}
