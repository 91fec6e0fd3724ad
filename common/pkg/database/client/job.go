/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"fmt"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"k8s.io/klog/v2"

	"github.com/labforge/homeops/common/pkg/constvar"
	dbutils "github.com/labforge/homeops/common/pkg/database/utils"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
)

var (
	insertJobFormat = `INSERT INTO ` + constvar.TPAutomationJob + ` (%s) VALUES (%s)`
)

// jobLattice lists the legal status transitions. RUNNING -> RUNNING
// exists only for queue retry re-claims; terminal states have no
// successors.
var jobLattice = map[constvar.JobStatus][]constvar.JobStatus{
	constvar.JobStatusPending: {constvar.JobStatusRunning, constvar.JobStatusCancelled},
	constvar.JobStatusRunning: {
		constvar.JobStatusRunning,
		constvar.JobStatusCompleted,
		constvar.JobStatusFailed,
		constvar.JobStatusCancelled,
	},
}

func legalJobTransition(from, to constvar.JobStatus) bool {
	for _, next := range jobLattice[from] {
		if next == to {
			return true
		}
	}
	return false
}

// JobMutation carries the columns a transition may write alongside the
// status change. Nil fields are left untouched.
type JobMutation struct {
	Progress       *int
	TaskCount      *int
	TasksCompleted *int
	LogOutput      *string
	ErrorCategory  *constvar.ErrorCategory
	WorkerTaskId   *string
	StartedAt      *time.Time
	CompletedAt    *time.Time
	CancelledAt    *time.Time
}

// InsertJob writes a new PENDING job and returns its id.
func (c *Client) InsertJob(ctx context.Context, job *Job) (int64, error) {
	if job == nil {
		return 0, commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}

	job.Status = string(constvar.JobStatusPending)
	job.CreatedAt = dbutils.NullTime(time.Now().UTC())

	cmd := generateCommand(*job, insertJobFormat, "id") + " RETURNING id"
	rows, err := db.NamedQueryContext(ctx, cmd, job)
	if err != nil {
		klog.ErrorS(err, "failed to insert job", "action", job.ActionName)
		return 0, err
	}
	defer rows.Close()

	var id int64
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// GetJob retrieves a job by id.
func (c *Client) GetJob(ctx context.Context, id int64) (*Job, error) {
	dbTags := GetJobFieldTags()
	query := sqrl.Eq{GetFieldTag(dbTags, "Id"): id}
	jobs, err := c.SelectJobs(ctx, query, nil, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, commonerrors.NewNotFound(commonerrors.KindJob, fmt.Sprintf("%d", id))
	}
	return jobs[0], nil
}

// SelectJobs retrieves jobs matching the query.
func (c *Client) SelectJobs(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*Job, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}

	builder := sqrl.Select("*").PlaceholderFormat(sqrl.Dollar).From(constvar.TPAutomationJob)
	if query != nil {
		builder = builder.Where(query)
	}
	for _, order := range orderBy {
		builder = builder.OrderBy(order)
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	ctx2, cancel := c.requestCtx(ctx)
	defer cancel()
	var jobs []*Job
	if err = db.SelectContext(ctx2, &jobs, sql, args...); err != nil {
		return nil, err
	}
	return jobs, nil
}

// CountJobs returns the total count of jobs matching the criteria.
func (c *Client) CountJobs(ctx context.Context, query sqrl.Sqlizer) (int, error) {
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}
	builder := sqrl.Select("COUNT(*)").PlaceholderFormat(sqrl.Dollar).From(constvar.TPAutomationJob)
	if query != nil {
		builder = builder.Where(query)
	}
	sql, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	var cnt int
	err = db.GetContext(ctx, &cnt, sql, args...)
	return cnt, err
}

// ListInstanceJobs returns a workflow instance's jobs ordered by step.
func (c *Client) ListInstanceJobs(ctx context.Context, instanceId int64) ([]*Job, error) {
	dbTags := GetJobFieldTags()
	query := sqrl.Eq{GetFieldTag(dbTags, "WorkflowInstanceId"): instanceId}
	return c.SelectJobs(ctx, query, []string{"step_order asc", "id asc"}, 0, 0)
}

// TransitionJob performs the guarded status change. The row is updated
// only when its current status equals from; a zero row count is
// reported as not-found or as a conflict with the actual state. A
// successful transition is recorded in the audit trail under actor.
func (c *Client) TransitionJob(ctx context.Context, id int64, from, to constvar.JobStatus,
	mutation *JobMutation, actor string) error {
	if !legalJobTransition(from, to) {
		return commonerrors.NewConflict(
			fmt.Sprintf("job %d cannot transition from %s to %s", id, from, to))
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}

	dbTags := GetJobFieldTags()
	builder := sqrl.Update(constvar.TPAutomationJob).PlaceholderFormat(sqrl.Dollar).
		Set(GetFieldTag(dbTags, "Status"), string(to)).
		Where(sqrl.Eq{
			GetFieldTag(dbTags, "Id"):     id,
			GetFieldTag(dbTags, "Status"): string(from),
		})
	builder = applyJobMutation(builder, dbTags, mutation)
	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	ctx2, cancel := c.requestCtx(ctx)
	defer cancel()
	result, err := db.ExecContext(ctx2, sql, args...)
	if err != nil {
		klog.ErrorS(err, "failed to transition job", "id", id, "from", from, "to", to)
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		job, getErr := c.GetJob(ctx, id)
		if getErr != nil {
			return getErr
		}
		return commonerrors.NewConflict(
			fmt.Sprintf("job %d is %s, expected %s", id, job.Status, from))
	}

	c.auditTransition(ctx, actor, "job.transition", commonerrors.KindJob, id,
		string(from), string(to))
	return nil
}

// SetJobTaskCount records how many runner tasks the action contains.
func (c *Client) SetJobTaskCount(ctx context.Context, id int64, taskCount int) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	cmd := fmt.Sprintf(`UPDATE %s SET task_count=$1 WHERE id=$2`, constvar.TPAutomationJob)
	_, err = db.ExecContext(ctx, cmd, taskCount, id)
	if err != nil {
		klog.ErrorS(err, "failed to update job task count", "id", id)
	}
	return err
}

// SetJobProgress persists observed progress. Rows already terminal are
// left untouched so a slow worker cannot dirty a finished job.
func (c *Client) SetJobProgress(ctx context.Context, id int64, progress, tasksCompleted int) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	cmd := fmt.Sprintf(`UPDATE %s SET progress=$1, tasks_completed=$2 WHERE id=$3 AND status=$4`,
		constvar.TPAutomationJob)
	_, err = db.ExecContext(ctx, cmd, progress, tasksCompleted, id, string(constvar.JobStatusRunning))
	if err != nil {
		klog.ErrorS(err, "failed to update job progress", "id", id)
	}
	return err
}

// SetJobWorkerTask refreshes the queue back-reference when a retry
// delivery re-claims a job that is already RUNNING.
func (c *Client) SetJobWorkerTask(ctx context.Context, id int64, workerTaskId string) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	cmd := fmt.Sprintf(`UPDATE %s SET worker_task_id=$1 WHERE id=$2`, constvar.TPAutomationJob)
	_, err = db.ExecContext(ctx, cmd, workerTaskId, id)
	if err != nil {
		klog.ErrorS(err, "failed to update job worker task", "id", id)
	}
	return err
}

// RequestJobCancel flags a non-terminal job for cancellation. The
// worker honors the flag at its next poll; terminal jobs reject the
// request.
func (c *Client) RequestJobCancel(ctx context.Context, id int64) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	cmd := fmt.Sprintf(`UPDATE %s SET cancel_requested=true WHERE id=$1 AND status IN ($2, $3)`,
		constvar.TPAutomationJob)
	result, err := db.ExecContext(ctx, cmd, id,
		string(constvar.JobStatusPending), string(constvar.JobStatusRunning))
	if err != nil {
		klog.ErrorS(err, "failed to request job cancel", "id", id)
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		job, getErr := c.GetJob(ctx, id)
		if getErr != nil {
			return getErr
		}
		return commonerrors.NewConflictWithReason(commonerrors.JobNotPending,
			fmt.Sprintf("job %d is already %s", id, job.Status))
	}
	return nil
}

// GetJobCancelRequested reads only the cancellation flag.
func (c *Client) GetJobCancelRequested(ctx context.Context, id int64) (bool, error) {
	db, err := c.getDB()
	if err != nil {
		return false, err
	}
	cmd := fmt.Sprintf(`SELECT cancel_requested FROM %s WHERE id=$1`, constvar.TPAutomationJob)
	var requested bool
	if err := db.GetContext(ctx, &requested, cmd, id); err != nil {
		return false, err
	}
	return requested, nil
}

func applyJobMutation(builder sqrl.UpdateBuilder, dbTags map[string]string, mutation *JobMutation) sqrl.UpdateBuilder {
	if mutation == nil {
		return builder
	}
	if mutation.Progress != nil {
		builder = builder.Set(GetFieldTag(dbTags, "Progress"), *mutation.Progress)
	}
	if mutation.TaskCount != nil {
		builder = builder.Set(GetFieldTag(dbTags, "TaskCount"), *mutation.TaskCount)
	}
	if mutation.TasksCompleted != nil {
		builder = builder.Set(GetFieldTag(dbTags, "TasksCompleted"), *mutation.TasksCompleted)
	}
	if mutation.LogOutput != nil {
		builder = builder.Set(GetFieldTag(dbTags, "LogOutput"), *mutation.LogOutput)
	}
	if mutation.ErrorCategory != nil {
		builder = builder.Set(GetFieldTag(dbTags, "ErrorCategory"), string(*mutation.ErrorCategory))
	}
	if mutation.WorkerTaskId != nil {
		builder = builder.Set(GetFieldTag(dbTags, "WorkerTaskId"), *mutation.WorkerTaskId)
	}
	if mutation.StartedAt != nil {
		builder = builder.Set(GetFieldTag(dbTags, "StartedAt"), *mutation.StartedAt)
	}
	if mutation.CompletedAt != nil {
		builder = builder.Set(GetFieldTag(dbTags, "CompletedAt"), *mutation.CompletedAt)
	}
	if mutation.CancelledAt != nil {
		builder = builder.Set(GetFieldTag(dbTags, "CancelledAt"), *mutation.CancelledAt)
	}
	return builder
}
