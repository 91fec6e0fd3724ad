/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package jobhandlers

import (
	"net/http"
	"strings"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"

	apiutils "github.com/labforge/homeops/apiserver/pkg/utils"
	"github.com/labforge/homeops/common/pkg/crypto"
	dbclient "github.com/labforge/homeops/common/pkg/database/client"
	dbutils "github.com/labforge/homeops/common/pkg/database/utils"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/executors"
	"github.com/labforge/homeops/common/pkg/pubsub"
	"github.com/labforge/homeops/common/pkg/workflow"
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

type Handler struct {
	store   dbclient.Interface
	service *Service
}

func NewHandler(store dbclient.Interface, registry *executors.Registry, cipher *crypto.Crypto,
	engine *workflow.Engine, bus *pubsub.Bus) *Handler {
	return &Handler{
		store:   store,
		service: NewService(store, registry, cipher, engine, bus),
	}
}

// CreateJob handles creation of a standalone job
func (h *Handler) CreateJob(c *gin.Context) {
	handle(c, h.createJob)
}

// ListJobs lists jobs with optional filters
func (h *Handler) ListJobs(c *gin.Context) {
	handle(c, h.listJobs)
}

// GetJob gets job details
func (h *Handler) GetJob(c *gin.Context) {
	handle(c, h.getJob)
}

// GetJobLogs returns the persisted log snapshot
func (h *Handler) GetJobLogs(c *gin.Context) {
	handle(c, h.getJobLogs)
}

// CancelJob handles cancellation
func (h *Handler) CancelJob(c *gin.Context) {
	handle(c, h.cancelJob)
}

// RerunJob clones a terminal job and enqueues the clone
func (h *Handler) RerunJob(c *gin.Context) {
	handle(c, h.rerunJob)
}

func (h *Handler) createJob(c *gin.Context) (interface{}, error) {
	var req CreateJobReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, commonerrors.NewBadRequest(err.Error())
	}

	job, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		return nil, err
	}
	return cvtJob(job), nil
}

func (h *Handler) listJobs(c *gin.Context) (interface{}, error) {
	limit, offset, err := apiutils.PageParams(c)
	if err != nil {
		return nil, err
	}

	conds := sqrl.And{}
	if status := c.Query("status"); status != "" {
		conds = append(conds, sqrl.Eq{"status": strings.ToUpper(status)})
	}
	if executorType := c.Query("executor_type"); executorType != "" {
		conds = append(conds, sqrl.Eq{"executor_type": executorType})
	}
	instanceId, err := apiutils.Int64Query(c, "workflow_instance_id")
	if err != nil {
		return nil, err
	}
	if instanceId != nil {
		conds = append(conds, sqrl.Eq{"workflow_instance_id": *instanceId})
	}
	deviceId, err := apiutils.Int64Query(c, "device_id")
	if err != nil {
		return nil, err
	}
	if deviceId != nil {
		// The primary target sits in its own column; secondary targets
		// in the array.
		conds = append(conds, sqrl.Or{
			sqrl.Eq{"primary_device_id": *deviceId},
			sqrl.Expr("? = ANY(device_ids)", *deviceId),
		})
	}
	var query sqrl.Sqlizer
	if len(conds) > 0 {
		query = conds
	}

	orderBy := []string{"created_at DESC", "id DESC"}
	list, err := h.store.SelectJobs(c.Request.Context(), query, orderBy, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := h.store.CountJobs(c.Request.Context(), query)
	if err != nil {
		return nil, err
	}

	resp := ListJobsResp{
		Total: total,
		Items: make([]*JobItem, 0, len(list)),
	}
	for _, job := range list {
		resp.Items = append(resp.Items, cvtJob(job))
	}
	return resp, nil
}

func (h *Handler) getJob(c *gin.Context) (interface{}, error) {
	id, err := apiutils.PathId(c)
	if err != nil {
		return nil, err
	}
	job, err := h.store.GetJob(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	return cvtJob(job), nil
}

func (h *Handler) getJobLogs(c *gin.Context) (interface{}, error) {
	id, err := apiutils.PathId(c)
	if err != nil {
		return nil, err
	}
	job, err := h.store.GetJob(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	return JobLogsResp{
		Id:        job.Id,
		Status:    job.Status,
		LogOutput: dbutils.ParseNullString(job.LogOutput),
	}, nil
}

func (h *Handler) cancelJob(c *gin.Context) (interface{}, error) {
	id, err := apiutils.PathId(c)
	if err != nil {
		return nil, err
	}
	job, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	return cvtJob(job), nil
}

func (h *Handler) rerunJob(c *gin.Context) (interface{}, error) {
	id, err := apiutils.PathId(c)
	if err != nil {
		return nil, err
	}
	job, err := h.service.Rerun(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	return cvtJob(job), nil
}
