/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package constvar

import (
	"fmt"

	"github.com/labforge/homeops/utils/pkg/sets"
)

// JobStatus represents the lifecycle state of an automation job.
type JobStatus string

const (
	// JobStatusPending represents a job created but not yet claimed by a worker
	JobStatusPending JobStatus = "PENDING"
	// JobStatusRunning represents a job being executed by a worker slot
	JobStatusRunning JobStatus = "RUNNING"
	// JobStatusCompleted represents a job that finished successfully (terminal)
	JobStatusCompleted JobStatus = "COMPLETED"
	// JobStatusFailed represents a job that finished with an error (terminal)
	JobStatusFailed JobStatus = "FAILED"
	// JobStatusCancelled represents a job stopped on request (terminal)
	JobStatusCancelled JobStatus = "CANCELLED"
)

var terminalJobStatuses = sets.NewSetByKeys(
	string(JobStatusCompleted),
	string(JobStatusFailed),
	string(JobStatusCancelled),
)

// Terminal reports whether the status is immutable.
func (s JobStatus) Terminal() bool {
	return terminalJobStatuses.Has(string(s))
}

// WorkflowStatus represents the lifecycle state of a workflow instance.
type WorkflowStatus string

const (
	WorkflowStatusPending     WorkflowStatus = "PENDING"
	WorkflowStatusRunning     WorkflowStatus = "RUNNING"
	WorkflowStatusCompleted   WorkflowStatus = "COMPLETED"
	WorkflowStatusFailed      WorkflowStatus = "FAILED"
	WorkflowStatusCancelled   WorkflowStatus = "CANCELLED"
	WorkflowStatusRollingBack WorkflowStatus = "ROLLING_BACK"
	WorkflowStatusRolledBack  WorkflowStatus = "ROLLED_BACK"
)

var terminalWorkflowStatuses = sets.NewSetByKeys(
	string(WorkflowStatusCompleted),
	string(WorkflowStatusFailed),
	string(WorkflowStatusCancelled),
	string(WorkflowStatusRolledBack),
)

// Terminal reports whether the status is immutable.
func (s WorkflowStatus) Terminal() bool {
	return terminalWorkflowStatuses.Has(string(s))
}

// ErrorCategory classifies why a job failed. Categories drive the
// retry policy: only transient categories are retried by the queue.
type ErrorCategory string

const (
	ErrorCategoryValidation       ErrorCategory = "validation"
	ErrorCategoryNotFound         ErrorCategory = "not_found"
	ErrorCategoryAuthentication   ErrorCategory = "authentication"
	ErrorCategoryPermission       ErrorCategory = "permission"
	ErrorCategoryConnectivity     ErrorCategory = "connectivity"
	ErrorCategoryTimeout          ErrorCategory = "timeout"
	ErrorCategoryExecution        ErrorCategory = "execution"
	ErrorCategoryQueueUnavailable ErrorCategory = "queue_unavailable"
	ErrorCategoryVaultInvalid     ErrorCategory = "vault_invalid"
)

var retryableCategories = sets.NewSetByKeys(
	string(ErrorCategoryConnectivity),
	string(ErrorCategoryTimeout),
	string(ErrorCategoryExecution),
)

// Retryable reports whether the queue may re-dispatch a job that
// failed with this category.
func (c ErrorCategory) Retryable() bool {
	return retryableCategories.Has(string(c))
}

// Executor types form a closed set registered at startup.
const (
	ExecutorTypeAnsible = "ansible"
)

// Database table names.
const (
	TPAutomationJob    = "automation_jobs"
	TPWorkflowTemplate = "workflow_templates"
	TPWorkflowInstance = "workflow_instances"
	TPVaultSecret      = "vault_secrets"
	TPDevice           = "devices"
	TPAuditLog         = "audit_logs"
)

// Task queue keys.
const (
	JobStreamKey   = "homeops:jobs:stream"
	JobStreamGroup = "homeops-workers"
	JobRetryKey    = "homeops:jobs:retry"
)

// JobLogChannelFormat names the pub/sub channel carrying one job's
// output lines, e.g. job:42:logs.
const JobLogChannelFormat = "job:%d:logs"

// JobLogChannel returns the pub/sub channel name for a job's log stream.
func JobLogChannel(jobID int64) string {
	return fmt.Sprintf(JobLogChannelFormat, jobID)
}

// StreamCompleteSentinel is the literal published after the last line
// of a job's log stream. Nothing follows it on the channel.
const StreamCompleteSentinel = "[[STREAM_COMPLETE]]"

// LogTruncationMarker is appended once when a job's output exceeds
// MaxLogOutputSize; everything after it is discarded.
const LogTruncationMarker = "\n\n... [OUTPUT TRUNCATED - exceeded 100KB limit]"

// Validation patterns.
const (
	ActionNamePattern = `^[A-Za-z0-9_-]+$`
	VarKeyPattern     = `^[A-Za-z_][A-Za-z0-9_]*$`
	SecretNamePattern = `^[A-Za-z][A-Za-z0-9_-]{0,99}$`
)

// Execution limits and cadences.
const (
	MaxActionNameLength       = 100
	MaxLogOutputSize          = 100 * 1024
	CancellationCheckInterval = 10
	ProgressPersistInterval   = 3
	SubprocessTimeoutSeconds  = 500
	WorkerSoftDeadlineSeconds = 540
	WorkerHardDeadlineSeconds = 600
	TermGraceSeconds          = 5
	RunnerTaskTimeoutSeconds  = 300
	MaxQueueAttempts          = 3
	RetryBackoffBaseSeconds   = 5
	RetryBackoffCapSeconds    = 300
	VisibilityTimeoutSeconds  = 600
)

// Pagination bounds for list endpoints.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)
