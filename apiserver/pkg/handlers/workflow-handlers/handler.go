/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package workflowhandlers

import (
	"fmt"
	"net/http"
	"strings"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"

	apiutils "github.com/labforge/homeops/apiserver/pkg/utils"
	dbclient "github.com/labforge/homeops/common/pkg/database/client"
	dbutils "github.com/labforge/homeops/common/pkg/database/utils"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/executors"
	"github.com/labforge/homeops/common/pkg/workflow"
)

const apiActor = "api"

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

type Handler struct {
	store    dbclient.Interface
	registry *executors.Registry
	engine   *workflow.Engine
}

func NewHandler(store dbclient.Interface, registry *executors.Registry, engine *workflow.Engine) *Handler {
	return &Handler{
		store:    store,
		registry: registry,
		engine:   engine,
	}
}

// CreateWorkflowTemplate handles creation of a new template
func (h *Handler) CreateWorkflowTemplate(c *gin.Context) {
	handle(c, h.createWorkflowTemplate)
}

// ListWorkflowTemplates lists templates
func (h *Handler) ListWorkflowTemplates(c *gin.Context) {
	handle(c, h.listWorkflowTemplates)
}

// GetWorkflowTemplate gets template details
func (h *Handler) GetWorkflowTemplate(c *gin.Context) {
	handle(c, h.getWorkflowTemplate)
}

// UpdateWorkflowTemplate replaces a template
func (h *Handler) UpdateWorkflowTemplate(c *gin.Context) {
	handle(c, h.updateWorkflowTemplate)
}

// DeleteWorkflowTemplate removes a template
func (h *Handler) DeleteWorkflowTemplate(c *gin.Context) {
	handle(c, h.deleteWorkflowTemplate)
}

// StartWorkflow starts an instance from a template
func (h *Handler) StartWorkflow(c *gin.Context) {
	handle(c, h.startWorkflow)
}

// ListWorkflowInstances lists instances with optional filters
func (h *Handler) ListWorkflowInstances(c *gin.Context) {
	handle(c, h.listWorkflowInstances)
}

// GetWorkflowInstance gets instance details including its jobs
func (h *Handler) GetWorkflowInstance(c *gin.Context) {
	handle(c, h.getWorkflowInstance)
}

// CancelWorkflowInstance handles cancellation
func (h *Handler) CancelWorkflowInstance(c *gin.Context) {
	handle(c, h.cancelWorkflowInstance)
}

func (h *Handler) createWorkflowTemplate(c *gin.Context) (interface{}, error) {
	var req WorkflowTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, commonerrors.NewBadRequest(err.Error())
	}
	if req.Name == "" {
		return nil, commonerrors.NewBadRequest("the template name is required")
	}
	if err := workflow.ValidateSteps(req.Steps, h.registry); err != nil {
		return nil, err
	}
	raw, err := workflow.EncodeSteps(req.Steps)
	if err != nil {
		return nil, err
	}

	id, err := h.store.InsertWorkflowTemplate(c.Request.Context(), &dbclient.WorkflowTemplate{
		Name:        req.Name,
		Description: dbutils.NullString(req.Description),
		Steps:       raw,
	})
	if err != nil {
		return nil, err
	}
	tpl, err := h.store.GetWorkflowTemplate(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	return cvtTemplate(tpl)
}

func (h *Handler) listWorkflowTemplates(c *gin.Context) (interface{}, error) {
	limit, offset, err := apiutils.PageParams(c)
	if err != nil {
		return nil, err
	}

	orderBy := []string{"created_at DESC", "id DESC"}
	list, err := h.store.SelectWorkflowTemplates(c.Request.Context(), nil, orderBy, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := h.store.CountWorkflowTemplates(c.Request.Context(), nil)
	if err != nil {
		return nil, err
	}

	resp := ListWorkflowTemplatesResp{
		Total: total,
		Items: make([]*WorkflowTemplateItem, 0, len(list)),
	}
	for _, tpl := range list {
		item, err := cvtTemplate(tpl)
		if err != nil {
			return nil, err
		}
		resp.Items = append(resp.Items, item)
	}
	return resp, nil
}

func (h *Handler) getWorkflowTemplate(c *gin.Context) (interface{}, error) {
	id, err := apiutils.PathId(c)
	if err != nil {
		return nil, err
	}
	tpl, err := h.store.GetWorkflowTemplate(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	return cvtTemplate(tpl)
}

func (h *Handler) updateWorkflowTemplate(c *gin.Context) (interface{}, error) {
	id, err := apiutils.PathId(c)
	if err != nil {
		return nil, err
	}
	var req WorkflowTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, commonerrors.NewBadRequest(err.Error())
	}
	if req.Name == "" {
		return nil, commonerrors.NewBadRequest("the template name is required")
	}
	if err := workflow.ValidateSteps(req.Steps, h.registry); err != nil {
		return nil, err
	}
	raw, err := workflow.EncodeSteps(req.Steps)
	if err != nil {
		return nil, err
	}

	err = h.store.UpdateWorkflowTemplate(c.Request.Context(), &dbclient.WorkflowTemplate{
		Id:          id,
		Name:        req.Name,
		Description: dbutils.NullString(req.Description),
		Steps:       raw,
	})
	if err != nil {
		return nil, err
	}
	tpl, err := h.store.GetWorkflowTemplate(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	return cvtTemplate(tpl)
}

func (h *Handler) deleteWorkflowTemplate(c *gin.Context) (interface{}, error) {
	id, err := apiutils.PathId(c)
	if err != nil {
		return nil, err
	}
	if err := h.store.DeleteWorkflowTemplate(c.Request.Context(), id); err != nil {
		return nil, err
	}
	return nil, nil
}

func (h *Handler) startWorkflow(c *gin.Context) (interface{}, error) {
	id, err := apiutils.PathId(c)
	if err != nil {
		return nil, err
	}
	var req StartWorkflowReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, commonerrors.NewBadRequest(err.Error())
	}

	instance, err := h.engine.Start(c.Request.Context(), id, &workflow.StartRequest{
		DeviceIds:         req.DeviceIds,
		RollbackOnFailure: req.RollbackOnFailure,
		ExtraVars:         req.ExtraVars,
		VaultSecretId:     req.VaultSecretId,
		Actor:             apiActor,
	})
	if err != nil {
		return nil, err
	}
	// Re-read for the post-dispatch state; the first steps may already
	// have failed.
	current, err := h.store.GetWorkflowInstance(c.Request.Context(), instance.Id)
	if err != nil {
		return nil, err
	}
	return cvtInstance(current), nil
}

func (h *Handler) listWorkflowInstances(c *gin.Context) (interface{}, error) {
	limit, offset, err := apiutils.PageParams(c)
	if err != nil {
		return nil, err
	}

	conds := sqrl.And{}
	if status := c.Query("status"); status != "" {
		conds = append(conds, sqrl.Eq{"status": strings.ToUpper(status)})
	}
	templateId, err := apiutils.Int64Query(c, "template_id")
	if err != nil {
		return nil, err
	}
	if templateId != nil {
		conds = append(conds, sqrl.Eq{"template_id": *templateId})
	}
	var query sqrl.Sqlizer
	if len(conds) > 0 {
		query = conds
	}

	orderBy := []string{"created_at DESC", "id DESC"}
	list, err := h.store.SelectWorkflowInstances(c.Request.Context(), query, orderBy, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := h.store.CountWorkflowInstances(c.Request.Context(), query)
	if err != nil {
		return nil, err
	}

	resp := ListWorkflowInstancesResp{
		Total: total,
		Items: make([]*WorkflowInstanceItem, 0, len(list)),
	}
	for _, instance := range list {
		resp.Items = append(resp.Items, cvtInstance(instance))
	}
	return resp, nil
}

func (h *Handler) getWorkflowInstance(c *gin.Context) (interface{}, error) {
	id, err := apiutils.PathId(c)
	if err != nil {
		return nil, err
	}
	instance, err := h.store.GetWorkflowInstance(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	steps, err := workflow.ParseSteps(instance.TemplateSnapshot)
	if err != nil {
		return nil, commonerrors.NewInternalError(
			fmt.Sprintf("the snapshot of workflow instance %d cannot be parsed", id))
	}
	jobs, err := h.store.ListInstanceJobs(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}

	resp := GetWorkflowInstanceResp{
		WorkflowInstanceItem: *cvtInstance(instance),
		Steps:                steps,
		Jobs:                 make([]*InstanceJobItem, 0, len(jobs)),
	}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, cvtInstanceJob(job))
	}
	return resp, nil
}

func (h *Handler) cancelWorkflowInstance(c *gin.Context) (interface{}, error) {
	id, err := apiutils.PathId(c)
	if err != nil {
		return nil, err
	}
	if err := h.engine.Cancel(c.Request.Context(), id, apiActor); err != nil {
		return nil, err
	}
	instance, err := h.store.GetWorkflowInstance(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	return cvtInstance(instance), nil
}
