/*
 * Copyright (c) 2025, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/labforge/homeops/common/pkg/constvar"
)

type Interface interface {
	JobInterface
	WorkflowTemplateInterface
	WorkflowInstanceInterface
	VaultSecretInterface
	DeviceInterface
	AuditLogInterface
}

type JobInterface interface {
	InsertJob(ctx context.Context, job *Job) (int64, error)
	GetJob(ctx context.Context, id int64) (*Job, error)
	SelectJobs(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*Job, error)
	CountJobs(ctx context.Context, query sqrl.Sqlizer) (int, error)
	ListInstanceJobs(ctx context.Context, instanceId int64) ([]*Job, error)
	TransitionJob(ctx context.Context, id int64, from, to constvar.JobStatus, mutation *JobMutation, actor string) error
	SetJobTaskCount(ctx context.Context, id int64, taskCount int) error
	SetJobProgress(ctx context.Context, id int64, progress, tasksCompleted int) error
	SetJobWorkerTask(ctx context.Context, id int64, workerTaskId string) error
	RequestJobCancel(ctx context.Context, id int64) error
	GetJobCancelRequested(ctx context.Context, id int64) (bool, error)
}

type WorkflowTemplateInterface interface {
	InsertWorkflowTemplate(ctx context.Context, tpl *WorkflowTemplate) (int64, error)
	GetWorkflowTemplate(ctx context.Context, id int64) (*WorkflowTemplate, error)
	SelectWorkflowTemplates(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*WorkflowTemplate, error)
	CountWorkflowTemplates(ctx context.Context, query sqrl.Sqlizer) (int, error)
	UpdateWorkflowTemplate(ctx context.Context, tpl *WorkflowTemplate) error
	DeleteWorkflowTemplate(ctx context.Context, id int64) error
}

type WorkflowInstanceInterface interface {
	InsertWorkflowInstance(ctx context.Context, instance *WorkflowInstance) (int64, error)
	GetWorkflowInstance(ctx context.Context, id int64) (*WorkflowInstance, error)
	SelectWorkflowInstances(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*WorkflowInstance, error)
	CountWorkflowInstances(ctx context.Context, query sqrl.Sqlizer) (int, error)
	TransitionWorkflowInstance(ctx context.Context, id int64, from, to constvar.WorkflowStatus, mutation *WorkflowInstanceMutation, actor string) error
}

type VaultSecretInterface interface {
	InsertVaultSecret(ctx context.Context, secret *VaultSecret) (int64, error)
	GetVaultSecret(ctx context.Context, id int64) (*VaultSecret, error)
	GetVaultSecretByName(ctx context.Context, name string) (*VaultSecret, error)
	SelectVaultSecrets(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*VaultSecret, error)
	CountVaultSecrets(ctx context.Context, query sqrl.Sqlizer) (int, error)
	UpdateVaultSecret(ctx context.Context, secret *VaultSecret) error
	DeleteVaultSecret(ctx context.Context, id int64) error
}

type DeviceInterface interface {
	GetDevice(ctx context.Context, id int64) (*Device, error)
	GetDevices(ctx context.Context, ids []int64) ([]*Device, error)
}

type AuditLogInterface interface {
	InsertAuditLog(ctx context.Context, auditLog *AuditLog) error
	InsertAuditLogs(ctx context.Context, auditLogs []*AuditLog) error
	SelectAuditLogs(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*AuditLog, error)
	CountAuditLogs(ctx context.Context, query sqrl.Sqlizer) (int, error)
}
