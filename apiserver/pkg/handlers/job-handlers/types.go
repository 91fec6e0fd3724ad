/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package jobhandlers

import (
	"database/sql"

	dbclient "github.com/labforge/homeops/common/pkg/database/client"
	dbutils "github.com/labforge/homeops/common/pkg/database/utils"
	jsonutils "github.com/labforge/homeops/utils/pkg/json"
)

// CreateJobReq defines the payload for creating a standalone job. The
// first device id is the primary target; the rest are secondary hosts
// of a multi-target run.
type CreateJobReq struct {
	ExecutorType  string                 `json:"executor_type"`
	ActionName    string                 `json:"action_name"`
	ActionConfig  map[string]interface{} `json:"action_config"`
	ExtraVars     map[string]interface{} `json:"extra_vars"`
	DeviceIds     []int64                `json:"device_ids"`
	VaultSecretId *int64                 `json:"vault_secret_id"`
}

// JobItem is the view model for a job.
type JobItem struct {
	Id                 int64                  `json:"id"`
	ExecutorType       string                 `json:"executor_type"`
	ActionName         string                 `json:"action_name"`
	ActionConfig       map[string]interface{} `json:"action_config,omitempty"`
	ExtraVars          map[string]interface{} `json:"extra_vars,omitempty"`
	DeviceIds          []int64                `json:"device_ids"`
	VaultSecretId      *int64                 `json:"vault_secret_id,omitempty"`
	Status             string                 `json:"status"`
	Progress           int                    `json:"progress"`
	TaskCount          int                    `json:"task_count"`
	TasksCompleted     int                    `json:"tasks_completed"`
	ErrorCategory      string                 `json:"error_category,omitempty"`
	CancelRequested    bool                   `json:"cancel_requested"`
	WorkflowInstanceId *int64                 `json:"workflow_instance_id,omitempty"`
	StepOrder          *int64                 `json:"step_order,omitempty"`
	IsRollback         bool                   `json:"is_rollback,omitempty"`
	WorkerTaskId       string                 `json:"worker_task_id,omitempty"`
	CreatedAt          string                 `json:"created_at"`
	StartedAt          string                 `json:"started_at,omitempty"`
	CompletedAt        string                 `json:"completed_at,omitempty"`
	CancelledAt        string                 `json:"cancelled_at,omitempty"`
}

// ListJobsResp is the list response.
type ListJobsResp struct {
	Total int        `json:"total"`
	Items []*JobItem `json:"items"`
}

// JobLogsResp is the persisted log snapshot of one job.
type JobLogsResp struct {
	Id        int64  `json:"id"`
	Status    string `json:"status"`
	LogOutput string `json:"log_output"`
}

// cvtJob converts a job row to its view model. The exposed device_ids
// list always starts with the primary device.
func cvtJob(job *dbclient.Job) *JobItem {
	devices := make([]int64, 0, len(job.DeviceIds)+1)
	devices = append(devices, job.PrimaryDeviceId)
	devices = append(devices, job.DeviceIds...)

	item := &JobItem{
		Id:              job.Id,
		ExecutorType:    job.ExecutorType,
		ActionName:      job.ActionName,
		ActionConfig:    decodeVars(job.ActionConfig),
		ExtraVars:       decodeVars(job.ExtraVars),
		DeviceIds:       devices,
		Status:          job.Status,
		Progress:        job.Progress,
		TaskCount:       job.TaskCount,
		TasksCompleted:  job.TasksCompleted,
		ErrorCategory:   dbutils.ParseNullString(job.ErrorCategory),
		CancelRequested: job.CancelRequested,
		IsRollback:      job.IsRollback,
		WorkerTaskId:    dbutils.ParseNullString(job.WorkerTaskId),
		CreatedAt:       dbutils.ParseNullTimeToString(job.CreatedAt),
		StartedAt:       dbutils.ParseNullTimeToString(job.StartedAt),
		CompletedAt:     dbutils.ParseNullTimeToString(job.CompletedAt),
		CancelledAt:     dbutils.ParseNullTimeToString(job.CancelledAt),
	}
	if job.VaultSecretId.Valid {
		item.VaultSecretId = &job.VaultSecretId.Int64
	}
	if job.WorkflowInstanceId.Valid {
		item.WorkflowInstanceId = &job.WorkflowInstanceId.Int64
	}
	if job.StepOrder.Valid {
		item.StepOrder = &job.StepOrder.Int64
	}
	return item
}

func encodeVars(vars map[string]interface{}) sql.NullString {
	if len(vars) == 0 {
		return sql.NullString{}
	}
	return dbutils.NullString(jsonutils.MarshalToString(vars))
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
