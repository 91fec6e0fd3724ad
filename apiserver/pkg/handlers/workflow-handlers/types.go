/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package workflowhandlers

import (
	"database/sql"
	"fmt"

	dbclient "github.com/labforge/homeops/common/pkg/database/client"
	dbutils "github.com/labforge/homeops/common/pkg/database/utils"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/workflow"
	jsonutils "github.com/labforge/homeops/utils/pkg/json"
)

// WorkflowTemplateReq defines the payload for creating or replacing a
// template.
type WorkflowTemplateReq struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Steps       []workflow.Step `json:"steps"`
}

// WorkflowTemplateItem is the view model for a template.
type WorkflowTemplateItem struct {
	Id          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Steps       []workflow.Step `json:"steps"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// ListWorkflowTemplatesResp is the template list response.
type ListWorkflowTemplatesResp struct {
	Total int                     `json:"total"`
	Items []*WorkflowTemplateItem `json:"items"`
}

// StartWorkflowReq defines the payload for starting an instance from a
// template.
type StartWorkflowReq struct {
	DeviceIds         []int64                `json:"device_ids"`
	RollbackOnFailure bool                   `json:"rollback_on_failure"`
	ExtraVars         map[string]interface{} `json:"extra_vars"`
	VaultSecretId     *int64                 `json:"vault_secret_id"`
}

// WorkflowInstanceItem is the view model for an instance.
type WorkflowInstanceItem struct {
	Id                int64                  `json:"id"`
	TemplateId        *int64                 `json:"template_id,omitempty"`
	Status            string                 `json:"status"`
	DeviceIds         []int64                `json:"device_ids"`
	RollbackOnFailure bool                   `json:"rollback_on_failure"`
	ExtraVars         map[string]interface{} `json:"extra_vars,omitempty"`
	ErrorMessage      string                 `json:"error_message,omitempty"`
	CreatedAt         string                 `json:"created_at"`
	StartedAt         string                 `json:"started_at,omitempty"`
	CompletedAt       string                 `json:"completed_at,omitempty"`
}

// ListWorkflowInstancesResp is the instance list response.
type ListWorkflowInstancesResp struct {
	Total int                     `json:"total"`
	Items []*WorkflowInstanceItem `json:"items"`
}

// InstanceJobItem is the lean job view embedded in an instance detail.
// Full job records live under the jobs API.
type InstanceJobItem struct {
	Id            int64  `json:"id"`
	ActionName    string `json:"action_name"`
	ExecutorType  string `json:"executor_type"`
	Status        string `json:"status"`
	Progress      int    `json:"progress"`
	StepOrder     *int64 `json:"step_order,omitempty"`
	IsRollback    bool   `json:"is_rollback"`
	ErrorCategory string `json:"error_category,omitempty"`
	StartedAt     string `json:"started_at,omitempty"`
	CompletedAt   string `json:"completed_at,omitempty"`
}

// GetWorkflowInstanceResp is the instance detail response, including
// the frozen step snapshot and the owned jobs.
type GetWorkflowInstanceResp struct {
	WorkflowInstanceItem
	Steps []workflow.Step    `json:"steps"`
	Jobs  []*InstanceJobItem `json:"jobs"`
}

// cvtTemplate converts a template row to its view model. Stored steps
// are authored through this API, so a parse failure means the row was
// corrupted behind our back.
func cvtTemplate(tpl *dbclient.WorkflowTemplate) (*WorkflowTemplateItem, error) {
	steps, err := workflow.ParseSteps(tpl.Steps)
	if err != nil {
		return nil, commonerrors.NewInternalError(
			fmt.Sprintf("the steps of workflow template %d cannot be parsed", tpl.Id))
	}
	return &WorkflowTemplateItem{
		Id:          tpl.Id,
		Name:        tpl.Name,
		Description: dbutils.ParseNullString(tpl.Description),
		Steps:       steps,
		CreatedAt:   dbutils.ParseNullTimeToString(tpl.CreatedAt),
		UpdatedAt:   dbutils.ParseNullTimeToString(tpl.UpdatedAt),
	}, nil
}

// cvtInstance converts an instance row to its view model.
func cvtInstance(instance *dbclient.WorkflowInstance) *WorkflowInstanceItem {
	item := &WorkflowInstanceItem{
		Id:                instance.Id,
		Status:            instance.Status,
		DeviceIds:         instance.DeviceIds,
		RollbackOnFailure: instance.RollbackOnFailure,
		ExtraVars:         decodeVars(instance.ExtraVars),
		ErrorMessage:      dbutils.ParseNullString(instance.ErrorMessage),
		CreatedAt:         dbutils.ParseNullTimeToString(instance.CreatedAt),
		StartedAt:         dbutils.ParseNullTimeToString(instance.StartedAt),
		CompletedAt:       dbutils.ParseNullTimeToString(instance.CompletedAt),
	}
	if instance.TemplateId.Valid {
		item.TemplateId = &instance.TemplateId.Int64
	}
	if item.DeviceIds == nil {
		item.DeviceIds = []int64{}
	}
	return item
}

func cvtInstanceJob(job *dbclient.Job) *InstanceJobItem {
	item := &InstanceJobItem{
		Id:            job.Id,
		ActionName:    job.ActionName,
		ExecutorType:  job.ExecutorType,
		Status:        job.Status,
		Progress:      job.Progress,
		IsRollback:    job.IsRollback,
		ErrorCategory: dbutils.ParseNullString(job.ErrorCategory),
		StartedAt:     dbutils.ParseNullTimeToString(job.StartedAt),
		CompletedAt:   dbutils.ParseNullTimeToString(job.CompletedAt),
	}
	if job.StepOrder.Valid {
		item.StepOrder = &job.StepOrder.Int64
	}
	return item
}

func decodeVars(raw sql.NullString) map[string]interface{} {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	vars := map[string]interface{}{}
	if err := jsonutils.UnmarshalString(raw.String, &vars); err != nil {
		return nil
	}
	return vars
}
