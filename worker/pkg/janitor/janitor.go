/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package janitor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"

	commonconfig "github.com/labforge/homeops/common/pkg/config"
	"github.com/labforge/homeops/common/pkg/constvar"
	"github.com/labforge/homeops/common/pkg/database/client"
	dbutils "github.com/labforge/homeops/common/pkg/database/utils"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/pubsub"
	"github.com/labforge/homeops/common/pkg/queue"
	"github.com/labforge/homeops/common/pkg/redact"
	"github.com/labforge/homeops/common/pkg/workflow"
	"github.com/labforge/homeops/utils/pkg/backoff"
	"github.com/labforge/homeops/utils/pkg/channel"
	"github.com/labforge/homeops/utils/pkg/timeutil"
)

const (
	janitorActor = "janitor"
	reapAction   = "job.reap"

	reclaimBatch      = 64
	abandonedBatch    = 256
	retryMoveInterval = time.Second
)

// Janitor keeps the queue and the job table honest: entries whose
// consumer died are re-dispatched or failed, RUNNING rows nothing will
// ever finish are failed, and due retries are promoted back onto the
// stream. It runs inside the worker process next to the runtime.
type Janitor struct {
	schedule cron.Schedule
	store    client.Interface
	queue    *queue.Client
	bus      *pubsub.Bus
	engine   *workflow.Engine
	tomb     *channel.Tomb
	mover    *channel.Tomb
}

// New validates the sweep schedule and wires the janitor.
func New(cfg *commonconfig.JanitorConfig, store client.Interface, q *queue.Client, bus *pubsub.Bus, engine *workflow.Engine) (*Janitor, error) {
	schedule, err := timeutil.ParseCronStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %v", cfg.Schedule, err)
	}
	return &Janitor{
		schedule: schedule,
		store:    store,
		queue:    q,
		bus:      bus,
		engine:   engine,
		tomb:     channel.NewTomb(),
		mover:    channel.NewTomb(),
	}, nil
}

// Start launches the cron sweeps and the retry mover.
func (j *Janitor) Start() {
	go j.startCronJob()
	go j.moveRetries()
}

// Stop halts both loops. A sweep in flight finishes first.
func (j *Janitor) Stop() {
	j.tomb.Stop()
	j.mover.Stop()
}

func (j *Janitor) startCronJob() {
	// A sweep still running when the next trigger fires is skipped, so
	// slow sweeps never pile up.
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	c.Schedule(j.schedule, j)
	c.Start()
	klog.Infof("Janitor started")

	<-j.tomb.Stopping()
	c.Stop()
	j.tomb.Done()
	klog.Infof("Janitor stopped")
}

// moveRetries promotes due retry entries back onto the stream once a
// second, so backoff delays resolve promptly between sweeps.
func (j *Janitor) moveRetries() {
	defer j.mover.Done()
	ticker := time.NewTicker(retryMoveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-j.mover.Stopping():
			return
		case <-ticker.C:
			moved, err := j.queue.MoveDueRetries(context.Background(), time.Now())
			if err != nil {
				klog.ErrorS(err, "Failed to move due retries")
				continue
			}
			if moved > 0 {
				klog.V(2).InfoS("Moved due retries onto the stream", "count", moved)
			}
		}
	}
}

// Run executes one sweep pass. It implements the cron.Job interface.
func (j *Janitor) Run() {
	ctx := context.Background()
	j.sweepStuckEntries(ctx)
	j.sweepAbandonedJobs(ctx)
}

// sweepStuckEntries resolves queue entries claimed longer ago than the
// visibility timeout. The consumer that claimed them is presumed dead:
// with attempts left the task is rescheduled as a retry, otherwise the
// job is failed.
func (j *Janitor) sweepStuckEntries(ctx context.Context) {
	msgs, err := j.queue.Reclaim(ctx, janitorActor, constvar.VisibilityTimeoutSeconds*time.Second, reclaimBatch)
	if err != nil {
		klog.ErrorS(err, "Failed to reclaim stuck queue entries")
		return
	}
	for _, msg := range msgs {
		task := msg.Task
		if task.Attempt < constvar.MaxQueueAttempts {
			retry := *task
			retry.Attempt = task.Attempt + 1
			delay := backoff.NextDelay(retry.Attempt,
				constvar.RetryBackoffBaseSeconds*time.Second, constvar.RetryBackoffCapSeconds*time.Second)
			if err := j.queue.ScheduleRetry(ctx, &retry, delay); err != nil {
				// Stays claimed by the janitor; the next sweep finds it
				// again.
				klog.ErrorS(err, "Failed to reschedule a stuck entry", "jobId", task.JobID)
				continue
			}
			klog.InfoS("Rescheduled a stuck entry", "jobId", task.JobID, "attempt", retry.Attempt)
		} else {
			j.failAbandoned(ctx, task.JobID,
				fmt.Sprintf("worker lost after attempt %d of %d", task.Attempt, constvar.MaxQueueAttempts))
		}
		if err := j.queue.Ack(ctx, msg.ID); err != nil {
			klog.ErrorS(err, "Failed to ack a reclaimed entry", "entryId", msg.ID)
		}
	}
}

// sweepAbandonedJobs fails RUNNING rows whose started_at predates the
// hard deadline and which no live queue entry will ever finish. Jobs
// waiting out a retry backoff have a parked task and are skipped.
func (j *Janitor) sweepAbandonedJobs(ctx context.Context) {
	live, err := j.queue.LiveJobIDs(ctx)
	if err != nil {
		klog.ErrorS(err, "Failed to list live queue entries")
		return
	}
	cutoff := time.Now().Add(-constvar.WorkerHardDeadlineSeconds * time.Second)
	query := sqrl.And{
		sqrl.Eq{"status": string(constvar.JobStatusRunning)},
		sqrl.Lt{"started_at": cutoff},
	}
	jobs, err := j.store.SelectJobs(ctx, query, []string{"id ASC"}, abandonedBatch, 0)
	if err != nil {
		klog.ErrorS(err, "Failed to list overdue running jobs")
		return
	}
	for _, job := range jobs {
		if live[job.Id] {
			continue
		}
		j.failAbandoned(ctx, job.Id, "no live claim past the hard deadline")
	}
}

// failAbandoned moves a job to FAILED/timeout from whatever non-terminal
// status it is in, closes its log stream and notifies the workflow
// engine. Conflicts mean someone else settled the job first.
func (j *Janitor) failAbandoned(ctx context.Context, jobID int64, detail string) {
	job, err := j.store.GetJob(ctx, jobID)
	if err != nil {
		if !commonerrors.IsNotFound(err) {
			klog.ErrorS(err, "Failed to load an abandoned job", "jobId", jobID)
		}
		return
	}
	status := constvar.JobStatus(job.Status)
	if status.Terminal() {
		return
	}

	now := time.Now()
	category := constvar.ErrorCategoryTimeout
	message := redact.Redact(detail)
	err = j.store.TransitionJob(ctx, jobID, status, constvar.JobStatusFailed,
		&client.JobMutation{
			ErrorCategory: &category,
			LogOutput:     &message,
			CompletedAt:   &now,
		}, janitorActor)
	if err != nil {
		if !commonerrors.IsConflict(err) {
			klog.ErrorS(err, "Failed to fail an abandoned job", "jobId", jobID)
		}
		return
	}
	klog.InfoS("Failed an abandoned job", "jobId", jobID, "detail", detail)

	if err := j.bus.PublishSentinel(ctx, jobID); err != nil {
		klog.ErrorS(err, "Failed to publish the stream sentinel", "jobId", jobID)
	}
	if err := j.bus.PublishStatus(ctx, jobID, constvar.JobStatusFailed, job.Progress); err != nil {
		klog.ErrorS(err, "Failed to publish the final status", "jobId", jobID)
	}
	j.audit(ctx, jobID, detail)

	if job.WorkflowInstanceId.Valid {
		if err := j.engine.OnJobComplete(ctx, jobID); err != nil {
			klog.ErrorS(err, "Workflow callback failed", "jobId", jobID,
				"instanceId", job.WorkflowInstanceId.Int64)
		}
	}
}

func (j *Janitor) audit(ctx context.Context, jobID int64, detail string) {
	row := &client.AuditLog{
		Actor:        dbutils.NullString(janitorActor),
		ResourceType: dbutils.NullString("job"),
		ResourceId:   dbutils.NullString(strconv.FormatInt(jobID, 10)),
		Action:       reapAction,
		Detail:       dbutils.NullString(redact.Redact(detail)),
	}
	if err := j.store.InsertAuditLog(ctx, row); err != nil {
		klog.ErrorS(err, "Failed to write the reap audit row", "jobId", jobID)
	}
}
