/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package runtime

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"k8s.io/klog/v2"

	commonconfig "github.com/labforge/homeops/common/pkg/config"
	"github.com/labforge/homeops/common/pkg/constvar"
	"github.com/labforge/homeops/common/pkg/database/client"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/executors"
	"github.com/labforge/homeops/common/pkg/pubsub"
	"github.com/labforge/homeops/common/pkg/queue"
	"github.com/labforge/homeops/common/pkg/workflow"
	"github.com/labforge/homeops/utils/pkg/backoff"
	"github.com/labforge/homeops/utils/pkg/channel"
)

const claimBlock = 5 * time.Second

// Runtime consumes the job stream with a fixed number of slots, one
// job at a time per slot. All collaborators are injected; the runtime
// owns only its consumer goroutines.
type Runtime struct {
	slotCount  int
	ansibleCfg *commonconfig.AnsibleConfig
	ansible    *executors.AnsibleExecutor
	store      client.Interface
	queue      *queue.Client
	bus        *pubsub.Bus
	engine     *workflow.Engine
	hostname   string
	slots      []*channel.Tomb
}

// New wires a runtime. The ansible executor here shares the queue
// client but is used only to resolve and parse actions, never to
// enqueue.
func New(cfg *commonconfig.Config, store client.Interface, q *queue.Client, bus *pubsub.Bus, engine *workflow.Engine) *Runtime {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "worker"
	}
	return &Runtime{
		slotCount:  cfg.Worker.Slots,
		ansibleCfg: &cfg.Ansible,
		ansible:    executors.NewAnsibleExecutor(&cfg.Ansible, q),
		store:      store,
		queue:      q,
		bus:        bus,
		engine:     engine,
		hostname:   hostname,
	}
}

// Start launches the consumer slots.
func (r *Runtime) Start() {
	for i := 0; i < r.slotCount; i++ {
		tomb := channel.NewTomb()
		r.slots = append(r.slots, tomb)
		go r.runSlot(i, tomb)
	}
	klog.Infof("Worker runtime started, slots: %d", r.slotCount)
}

// Stop drains the slots. Each slot finishes its current job first;
// Stop blocks until every slot has acknowledged.
func (r *Runtime) Stop() {
	for _, tomb := range r.slots {
		tomb.Stop()
	}
	r.slots = nil
	klog.Infof("Worker runtime stopped")
}

func (r *Runtime) runSlot(id int, tomb *channel.Tomb) {
	defer tomb.Done()
	consumer := fmt.Sprintf("%s-slot-%d", r.hostname, id)
	klog.Infof("Worker slot %s started", consumer)
	for {
		select {
		case <-tomb.Stopping():
			klog.Infof("Worker slot %s stopped", consumer)
			return
		default:
		}
		ctx := context.Background()
		msg, err := r.queue.Claim(ctx, consumer, claimBlock)
		if err != nil {
			klog.ErrorS(err, "Failed to claim from the job stream", "consumer", consumer)
			time.Sleep(time.Second)
			continue
		}
		if msg == nil {
			continue
		}
		r.process(ctx, consumer, msg)
	}
}

// process drives one claimed message through the job lifecycle. Every
// path ends in an ack; un-acked messages are the janitor's business.
func (r *Runtime) process(parent context.Context, consumer string, msg *queue.Message) {
	ctx, cancel := context.WithTimeout(parent, constvar.WorkerHardDeadlineSeconds*time.Second)
	defer cancel()

	task := msg.Task
	job, err := r.store.GetJob(ctx, task.JobID)
	if err != nil {
		if commonerrors.IsNotFound(err) {
			klog.InfoS("Dropping a task for a deleted job", "jobId", task.JobID)
			r.ack(ctx, msg)
			return
		}
		// Leave the entry pending; it comes back after the visibility
		// timeout without burning an attempt.
		klog.ErrorS(err, "Failed to load the claimed job", "jobId", task.JobID)
		return
	}
	if constvar.JobStatus(job.Status).Terminal() {
		klog.V(4).InfoS("Ignoring a claim on a terminal job", "jobId", job.Id, "status", job.Status)
		r.ack(ctx, msg)
		return
	}
	if job.CancelRequested && constvar.JobStatus(job.Status) == constvar.JobStatusPending {
		r.cancelBeforeExecution(ctx, consumer, job)
		r.ack(ctx, msg)
		return
	}
	if err := r.claimJob(ctx, consumer, job, msg); err != nil {
		// Another consumer holds this job.
		klog.V(2).InfoS("Job is claimed elsewhere, dropping the duplicate", "jobId", job.Id)
		r.ack(ctx, msg)
		return
	}
	if err := r.bus.PublishStatus(ctx, job.Id, constvar.JobStatusRunning, 0); err != nil {
		klog.ErrorS(err, "Failed to publish the running event", "jobId", job.Id)
	}

	out := r.execute(ctx, job, task)
	r.finish(ctx, consumer, msg, job, task, out)
}

// claimJob moves the job into RUNNING. A first delivery does the
// PENDING to RUNNING transition; a queue retry finds the job already
// RUNNING and only refreshes the worker task id, keeping the original
// started_at.
func (r *Runtime) claimJob(ctx context.Context, consumer string, job *client.Job, msg *queue.Message) error {
	if msg.Task.Attempt > 1 && constvar.JobStatus(job.Status) == constvar.JobStatusRunning {
		return r.store.SetJobWorkerTask(ctx, job.Id, msg.ID)
	}
	now := time.Now()
	return r.store.TransitionJob(ctx, job.Id, constvar.JobStatusPending, constvar.JobStatusRunning,
		&client.JobMutation{StartedAt: &now, WorkerTaskId: &msg.ID}, consumer)
}

// cancelBeforeExecution resolves a cancel flag observed before any
// subprocess was spawned.
func (r *Runtime) cancelBeforeExecution(ctx context.Context, consumer string, job *client.Job) {
	now := time.Now()
	message := "cancelled before execution"
	err := r.store.TransitionJob(ctx, job.Id, constvar.JobStatusPending, constvar.JobStatusCancelled,
		&client.JobMutation{LogOutput: &message, CancelledAt: &now}, consumer)
	if err != nil {
		klog.ErrorS(err, "Failed to cancel the job before execution", "jobId", job.Id)
		return
	}
	klog.InfoS("Job cancelled before execution", "jobId", job.Id)
	r.closeStream(ctx, job.Id, constvar.JobStatusCancelled, 0)
	r.notifyEngine(ctx, job)
}

// finish takes the attempt's outcome to its conclusion: schedule a
// queue retry for transient failures with attempts left, otherwise
// persist the terminal state, close the log stream and notify the
// workflow engine.
func (r *Runtime) finish(ctx context.Context, consumer string, msg *queue.Message, job *client.Job, task *queue.Task, out *outcome) {
	if out.status == constvar.JobStatusFailed && out.category.Retryable() && task.Attempt < constvar.MaxQueueAttempts {
		if err := r.scheduleRetry(ctx, task); err == nil {
			r.ack(ctx, msg)
			return
		}
		// Could not reach the queue; the attempt becomes terminal.
	}

	now := time.Now()
	var err error
	switch out.status {
	case constvar.JobStatusCompleted:
		hundred := 100
		err = r.store.TransitionJob(ctx, job.Id, constvar.JobStatusRunning, constvar.JobStatusCompleted,
			&client.JobMutation{
				Progress:       &hundred,
				TasksCompleted: &out.tasksCompleted,
				LogOutput:      &out.output,
				CompletedAt:    &now,
			}, consumer)
	case constvar.JobStatusCancelled:
		err = r.store.TransitionJob(ctx, job.Id, constvar.JobStatusRunning, constvar.JobStatusCancelled,
			&client.JobMutation{LogOutput: &out.output, CancelledAt: &now}, consumer)
	default:
		err = r.store.TransitionJob(ctx, job.Id, constvar.JobStatusRunning, constvar.JobStatusFailed,
			&client.JobMutation{
				ErrorCategory: &out.category,
				LogOutput:     &out.output,
				CompletedAt:   &now,
			}, consumer)
	}
	if err != nil {
		klog.ErrorS(err, "Failed to persist the terminal status", "jobId", job.Id, "status", out.status)
	} else {
		klog.InfoS("Job finished", "jobId", job.Id, "status", out.status, "attempt", task.Attempt)
	}

	progress := out.progress
	if out.status == constvar.JobStatusCompleted {
		progress = 100
	}
	r.closeStream(ctx, job.Id, out.status, progress)
	r.ack(ctx, msg)
	r.notifyEngine(ctx, job)
}

// scheduleRetry re-enqueues the task with the next attempt number
// after an exponential backoff with a little jitter. The job stays
// RUNNING across queue retries.
func (r *Runtime) scheduleRetry(ctx context.Context, task *queue.Task) error {
	retry := *task
	retry.Attempt = task.Attempt + 1
	delay := backoff.NextDelay(retry.Attempt,
		constvar.RetryBackoffBaseSeconds*time.Second, constvar.RetryBackoffCapSeconds*time.Second)
	delay += time.Duration(rand.Intn(1000)) * time.Millisecond
	if err := r.queue.ScheduleRetry(ctx, &retry, delay); err != nil {
		klog.ErrorS(err, "Failed to schedule a retry", "jobId", task.JobID, "attempt", retry.Attempt)
		return err
	}
	klog.InfoS("Scheduled a retry", "jobId", task.JobID, "attempt", retry.Attempt, "delay", delay.Round(time.Second))
	return nil
}

// closeStream publishes the end-of-stream sentinel followed by the
// final status event.
func (r *Runtime) closeStream(ctx context.Context, jobID int64, status constvar.JobStatus, progress int) {
	if err := r.bus.PublishSentinel(ctx, jobID); err != nil {
		klog.ErrorS(err, "Failed to publish the stream sentinel", "jobId", jobID)
	}
	if err := r.bus.PublishStatus(ctx, jobID, status, progress); err != nil {
		klog.ErrorS(err, "Failed to publish the final status", "jobId", jobID)
	}
}

func (r *Runtime) notifyEngine(ctx context.Context, job *client.Job) {
	if !job.WorkflowInstanceId.Valid {
		return
	}
	if err := r.engine.OnJobComplete(ctx, job.Id); err != nil {
		klog.ErrorS(err, "Workflow callback failed", "jobId", job.Id,
			"instanceId", job.WorkflowInstanceId.Int64)
	}
}

func (r *Runtime) ack(ctx context.Context, msg *queue.Message) {
	if err := r.queue.Ack(ctx, msg.ID); err != nil {
		klog.ErrorS(err, "Failed to ack a stream entry", "entryId", msg.ID)
	}
}
