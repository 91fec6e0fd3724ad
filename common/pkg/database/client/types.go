/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/lib/pq"
)

// Job is one automation execution against a device. Rows belonging to a
// workflow additionally carry the instance relation and a step order,
// negated for rollback jobs.
type Job struct {
	Id                 int64          `db:"id"`
	ExecutorType       string         `db:"executor_type"`
	ActionName         string         `db:"action_name"`
	ActionConfig       sql.NullString `db:"action_config"`
	ExtraVars          sql.NullString `db:"extra_vars"`
	PrimaryDeviceId    int64          `db:"primary_device_id"`
	DeviceIds          pq.Int64Array  `db:"device_ids"`
	VaultSecretId      sql.NullInt64  `db:"vault_secret_id"`
	Status             string         `db:"status"`
	Progress           int            `db:"progress"`
	TaskCount          int            `db:"task_count"`
	TasksCompleted     int            `db:"tasks_completed"`
	LogOutput          sql.NullString `db:"log_output"`
	ErrorCategory      sql.NullString `db:"error_category"`
	CancelRequested    bool           `db:"cancel_requested"`
	CreatedAt          pq.NullTime    `db:"created_at"`
	StartedAt          pq.NullTime    `db:"started_at"`
	CompletedAt        pq.NullTime    `db:"completed_at"`
	CancelledAt        pq.NullTime    `db:"cancelled_at"`
	WorkerTaskId       sql.NullString `db:"worker_task_id"`
	WorkflowInstanceId sql.NullInt64  `db:"workflow_instance_id"`
	StepOrder          sql.NullInt64  `db:"step_order"`
	DependsOnJobIds    pq.Int64Array  `db:"depends_on_job_ids"`
	IsRollback         bool           `db:"is_rollback"`
}

// GetJobFieldTags returns the JobFieldTags value.
func GetJobFieldTags() map[string]string {
	j := Job{}
	return getFieldTags(j)
}

type WorkflowTemplate struct {
	Id          int64          `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	Steps       string         `db:"steps"`
	CreatedAt   pq.NullTime    `db:"created_at"`
	UpdatedAt   pq.NullTime    `db:"updated_at"`
}

// GetWorkflowTemplateFieldTags returns the WorkflowTemplateFieldTags value.
func GetWorkflowTemplateFieldTags() map[string]string {
	t := WorkflowTemplate{}
	return getFieldTags(t)
}

// WorkflowInstance is one execution of a template. The snapshot freezes
// the step list so the run keeps its meaning when the template changes.
type WorkflowInstance struct {
	Id                int64          `db:"id"`
	TemplateId        sql.NullInt64  `db:"template_id"`
	TemplateSnapshot  string         `db:"template_snapshot"`
	Status            string         `db:"status"`
	DeviceIds         pq.Int64Array  `db:"device_ids"`
	RollbackOnFailure bool           `db:"rollback_on_failure"`
	ExtraVars         sql.NullString `db:"extra_vars"`
	ErrorMessage      sql.NullString `db:"error_message"`
	CreatedAt         pq.NullTime    `db:"created_at"`
	StartedAt         pq.NullTime    `db:"started_at"`
	CompletedAt       pq.NullTime    `db:"completed_at"`
}

// GetWorkflowInstanceFieldTags returns the WorkflowInstanceFieldTags value.
func GetWorkflowInstanceFieldTags() map[string]string {
	i := WorkflowInstance{}
	return getFieldTags(i)
}

// VaultSecret stores an encrypted credential. The column only ever
// holds the AES-GCM blob; plaintext exists in memory at dispatch time.
type VaultSecret struct {
	Id               int64          `db:"id"`
	Name             string         `db:"name"`
	Description      sql.NullString `db:"description"`
	EncryptedContent string         `db:"encrypted_content"`
	CreatedAt        pq.NullTime    `db:"created_at"`
	UpdatedAt        pq.NullTime    `db:"updated_at"`
}

// GetVaultSecretFieldTags returns the VaultSecretFieldTags value.
func GetVaultSecretFieldTags() map[string]string {
	s := VaultSecret{}
	return getFieldTags(s)
}

// Device is inventory adjacency maintained outside the automation core.
// The core only reads it.
type Device struct {
	Id        int64          `db:"id"`
	Name      string         `db:"name"`
	IpAddress string         `db:"ip_address"`
	SshUser   sql.NullString `db:"ssh_user"`
	CreatedAt pq.NullTime    `db:"created_at"`
}

// GetDeviceFieldTags returns the DeviceFieldTags value.
func GetDeviceFieldTags() map[string]string {
	d := Device{}
	return getFieldTags(d)
}

type AuditLog struct {
	Id             int64          `db:"id"`
	Actor          sql.NullString `db:"actor"`
	ClientIp       sql.NullString `db:"client_ip"`
	HttpMethod     sql.NullString `db:"http_method"`
	RequestPath    sql.NullString `db:"request_path"`
	ResourceType   sql.NullString `db:"resource_type"`
	ResourceId     sql.NullString `db:"resource_id"`
	Action         string         `db:"action"`
	Detail         sql.NullString `db:"detail"`
	ResponseStatus sql.NullInt64  `db:"response_status"`
	LatencyMs      sql.NullInt64  `db:"latency_ms"`
	TraceId        sql.NullString `db:"trace_id"`
	CreatedAt      pq.NullTime    `db:"created_at"`
}

// GetAuditLogFieldTags returns the AuditLogFieldTags value.
func GetAuditLogFieldTags() map[string]string {
	a := AuditLog{}
	return getFieldTags(a)
}

// getFieldTags retrieves FieldTags for internal use.
func getFieldTags(obj interface{}) map[string]string {
	result := make(map[string]string)
	t := reflect.TypeOf(obj)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		result[strings.ToLower(field.Name)] = field.Tag.Get("db")
	}
	return result
}

// generateCommand generates SQL command string using reflection
// Iterates through struct fields and builds column and value lists
// Skips fields with specified ignoreTag
// Returns formatted SQL command with columns and values
func generateCommand(obj interface{}, format, ignoreTag string) string {
	t := reflect.TypeOf(obj)
	columns := make([]string, 0, t.NumField())
	values := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("db")
		if tag == ignoreTag {
			continue
		}
		columns = append(columns, tag)
		values = append(values, fmt.Sprintf(":%s", tag))
	}
	cmd := fmt.Sprintf(format, strings.Join(columns, ", "), strings.Join(values, ", "))
	return cmd
}

// GetFieldTag returns the FieldTag value.
func GetFieldTag(tags map[string]string, name string) string {
	name = strings.ToLower(name)
	return tags[name]
}
