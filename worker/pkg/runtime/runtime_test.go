/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang/mock/gomock"
	"gotest.tools/assert"

	commonconfig "github.com/labforge/homeops/common/pkg/config"
	"github.com/labforge/homeops/common/pkg/constvar"
	"github.com/labforge/homeops/common/pkg/database/client"
	mock_client "github.com/labforge/homeops/common/pkg/database/client/mock"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/pubsub"
	"github.com/labforge/homeops/common/pkg/queue"
)

const testJobID = int64(9001)

const workerPlaybook = `- name: converge
  tasks:
    - name: install packages
    - name: restart service
`

type runtimeFixture struct {
	store *mock_client.MockInterface
	queue *queue.Client
	bus   *pubsub.Bus
	rt    *Runtime
}

// newRuntimeFixture stands up a runtime whose runner is a shell script
// with the given body, so tests drive real subprocess and stream
// behavior against an in-memory redis.
func newRuntimeFixture(t *testing.T, runnerBody string) *runtimeFixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	store := mock_client.NewMockInterface(ctrl)

	mr := miniredis.RunT(t)
	q, err := queue.NewClient(&commonconfig.RedisConfig{Addr: mr.Addr()})
	assert.NilError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	bus, err := pubsub.NewBus(&commonconfig.RedisConfig{Addr: mr.Addr()})
	assert.NilError(t, err)
	t.Cleanup(func() { _ = bus.Close() })

	dir := t.TempDir()
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "deploy_app.yml"), []byte(workerPlaybook), 0o644))
	runner := filepath.Join(dir, "runner.sh")
	assert.NilError(t, os.WriteFile(runner, []byte("#!/bin/sh\n"+runnerBody), 0o755))

	cfg := &commonconfig.Config{
		Worker: commonconfig.WorkerConfig{Slots: 1},
		Ansible: commonconfig.AnsibleConfig{
			RunnerPath: runner,
			ActionDir:  dir,
			SSHUser:    "ops",
			Extensions: []string{".yml"},
		},
	}
	return &runtimeFixture{store: store, queue: q, bus: bus, rt: New(cfg, store, q, bus, nil)}
}

func (f *runtimeFixture) enqueueAndClaim(t *testing.T, ctx context.Context, task *queue.Task) *queue.Message {
	t.Helper()
	_, err := f.queue.Enqueue(ctx, task)
	assert.NilError(t, err)
	msg, err := f.queue.Claim(ctx, "test-slot", 100*time.Millisecond)
	assert.NilError(t, err)
	assert.Assert(t, msg != nil)
	return msg
}

// assertAcked reclaims with zero idle time; anything still pending
// would come back.
func (f *runtimeFixture) assertAcked(t *testing.T, ctx context.Context) {
	t.Helper()
	msgs, err := f.queue.Reclaim(ctx, "checker", 0, 10)
	assert.NilError(t, err)
	assert.Equal(t, len(msgs), 0)
}

func (f *runtimeFixture) subscribe(t *testing.T, ctx context.Context) *pubsub.Subscription {
	t.Helper()
	sub, err := f.bus.Subscribe(ctx, testJobID)
	assert.NilError(t, err)
	t.Cleanup(func() { _ = sub.Close() })
	return sub
}

func drainEvents(sub *pubsub.Subscription) []string {
	var payloads []string
	for {
		select {
		case msg := <-sub.Messages():
			payloads = append(payloads, msg.Payload)
		case <-time.After(200 * time.Millisecond):
			return payloads
		}
	}
}

func workerTask(attempt int) *queue.Task {
	return &queue.Task{
		JobID:        testJobID,
		ExecutorType: constvar.ExecutorTypeAnsible,
		ActionName:   "deploy_app",
		PrimaryIP:    "192.168.1.20",
		PrimaryName:  "node-a",
		Attempt:      attempt,
	}
}

func pendingJob() *client.Job {
	return &client.Job{
		Id:           testJobID,
		ExecutorType: constvar.ExecutorTypeAnsible,
		ActionName:   "deploy_app",
		Status:       string(constvar.JobStatusPending),
	}
}

func captureJobMutation(target **client.JobMutation) func(context.Context, int64, constvar.JobStatus, constvar.JobStatus, *client.JobMutation, string) error {
	return func(_ context.Context, _ int64, _, _ constvar.JobStatus, m *client.JobMutation, _ string) error {
		*target = m
		return nil
	}
}

func TestProcessRunsJobToCompletion(t *testing.T) {
	f := newRuntimeFixture(t,
		`echo "PLAY [converge] ****"
echo "TASK [install packages] ****"
echo "ok: [node-a]"
echo "TASK [restart service] ****"
echo "changed: [node-a] password=hunter2"
echo "PLAY RECAP ****"
`)
	ctx := context.Background()

	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(pendingJob(), nil)
	f.store.EXPECT().TransitionJob(gomock.Any(), testJobID,
		constvar.JobStatusPending, constvar.JobStatusRunning, gomock.Any(), "test-slot").Return(nil)
	f.store.EXPECT().SetJobTaskCount(gomock.Any(), testJobID, 2).Return(nil)
	var mutation *client.JobMutation
	f.store.EXPECT().TransitionJob(gomock.Any(), testJobID,
		constvar.JobStatusRunning, constvar.JobStatusCompleted, gomock.Any(), "test-slot").
		DoAndReturn(captureJobMutation(&mutation))

	sub := f.subscribe(t, ctx)
	msg := f.enqueueAndClaim(t, ctx, workerTask(1))
	f.rt.process(ctx, "test-slot", msg)

	assert.Assert(t, mutation != nil)
	assert.Equal(t, *mutation.Progress, 100)
	assert.Equal(t, *mutation.TasksCompleted, 2)
	assert.Assert(t, mutation.CompletedAt != nil)
	assert.Assert(t, strings.Contains(*mutation.LogOutput, "TASK [restart service]"))
	assert.Assert(t, strings.Contains(*mutation.LogOutput, "password=***REDACTED***"))
	assert.Assert(t, !strings.Contains(*mutation.LogOutput, "hunter2"))

	events := drainEvents(sub)
	assert.Assert(t, len(events) >= 9)
	running, ok := pubsub.DecodeStatusEvent(events[0])
	assert.Assert(t, ok)
	assert.Equal(t, running.Status, constvar.JobStatusRunning)
	assert.Assert(t, pubsub.IsSentinel(events[len(events)-2]))
	final, ok := pubsub.DecodeStatusEvent(events[len(events)-1])
	assert.Assert(t, ok)
	assert.Equal(t, final.Status, constvar.JobStatusCompleted)
	assert.Equal(t, final.Progress, 100)
	for _, payload := range events {
		assert.Assert(t, !strings.Contains(payload, "hunter2"))
	}

	f.assertAcked(t, ctx)
}

func TestProcessAcksTerminalJob(t *testing.T) {
	f := newRuntimeFixture(t, "echo never\n")
	ctx := context.Background()

	job := pendingJob()
	job.Status = string(constvar.JobStatusCompleted)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(job, nil)

	msg := f.enqueueAndClaim(t, ctx, workerTask(1))
	f.rt.process(ctx, "test-slot", msg)
	f.assertAcked(t, ctx)
}

func TestProcessDropsTaskForDeletedJob(t *testing.T) {
	f := newRuntimeFixture(t, "echo never\n")
	ctx := context.Background()

	f.store.EXPECT().GetJob(gomock.Any(), testJobID).
		Return(nil, commonerrors.NewNotFound(commonerrors.KindJob, "9001"))

	msg := f.enqueueAndClaim(t, ctx, workerTask(1))
	f.rt.process(ctx, "test-slot", msg)
	f.assertAcked(t, ctx)
}

func TestProcessLeavesEntryPendingOnStoreError(t *testing.T) {
	f := newRuntimeFixture(t, "echo never\n")
	ctx := context.Background()

	f.store.EXPECT().GetJob(gomock.Any(), testJobID).
		Return(nil, commonerrors.NewInternalError("database is down"))

	msg := f.enqueueAndClaim(t, ctx, workerTask(1))
	f.rt.process(ctx, "test-slot", msg)

	msgs, err := f.queue.Reclaim(ctx, "checker", 0, 10)
	assert.NilError(t, err)
	assert.Equal(t, len(msgs), 1)
	assert.Equal(t, msgs[0].Task.JobID, testJobID)
}

func TestProcessCancelsBeforeExecution(t *testing.T) {
	f := newRuntimeFixture(t, "echo never\n")
	ctx := context.Background()

	job := pendingJob()
	job.CancelRequested = true
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(job, nil)
	var mutation *client.JobMutation
	f.store.EXPECT().TransitionJob(gomock.Any(), testJobID,
		constvar.JobStatusPending, constvar.JobStatusCancelled, gomock.Any(), "test-slot").
		DoAndReturn(captureJobMutation(&mutation))

	sub := f.subscribe(t, ctx)
	msg := f.enqueueAndClaim(t, ctx, workerTask(1))
	f.rt.process(ctx, "test-slot", msg)

	assert.Assert(t, mutation != nil)
	assert.Equal(t, *mutation.LogOutput, "cancelled before execution")
	assert.Assert(t, mutation.CancelledAt != nil)

	events := drainEvents(sub)
	assert.Equal(t, len(events), 2)
	assert.Assert(t, pubsub.IsSentinel(events[0]))
	final, ok := pubsub.DecodeStatusEvent(events[1])
	assert.Assert(t, ok)
	assert.Equal(t, final.Status, constvar.JobStatusCancelled)

	f.assertAcked(t, ctx)
}

func TestProcessDropsJobClaimedElsewhere(t *testing.T) {
	f := newRuntimeFixture(t, "echo never\n")
	ctx := context.Background()

	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(pendingJob(), nil)
	f.store.EXPECT().TransitionJob(gomock.Any(), testJobID,
		constvar.JobStatusPending, constvar.JobStatusRunning, gomock.Any(), "test-slot").
		Return(commonerrors.NewConflictWithReason(commonerrors.JobNotPending, "job 9001 is RUNNING"))

	msg := f.enqueueAndClaim(t, ctx, workerTask(1))
	f.rt.process(ctx, "test-slot", msg)
	f.assertAcked(t, ctx)
}

func TestProcessSchedulesRetryOnTransientFailure(t *testing.T) {
	f := newRuntimeFixture(t,
		`echo "ssh: connect to host 192.168.1.20 port 22: Connection refused"
exit 1
`)
	ctx := context.Background()

	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(pendingJob(), nil)
	f.store.EXPECT().TransitionJob(gomock.Any(), testJobID,
		constvar.JobStatusPending, constvar.JobStatusRunning, gomock.Any(), "test-slot").Return(nil)
	f.store.EXPECT().SetJobTaskCount(gomock.Any(), testJobID, 2).Return(nil)

	sub := f.subscribe(t, ctx)
	msg := f.enqueueAndClaim(t, ctx, workerTask(1))
	f.rt.process(ctx, "test-slot", msg)

	// The job stays RUNNING, so the stream must not be closed.
	for _, payload := range drainEvents(sub) {
		assert.Assert(t, !pubsub.IsSentinel(payload))
	}
	f.assertAcked(t, ctx)

	moved, err := f.queue.MoveDueRetries(ctx, time.Now().Add(time.Minute))
	assert.NilError(t, err)
	assert.Equal(t, moved, 1)

	retry, err := f.queue.Claim(ctx, "test-slot", 100*time.Millisecond)
	assert.NilError(t, err)
	assert.Assert(t, retry != nil)
	assert.Equal(t, retry.Task.JobID, testJobID)
	assert.Equal(t, retry.Task.Attempt, 2)
}

func TestProcessFailsTerminallyOnLastAttempt(t *testing.T) {
	f := newRuntimeFixture(t,
		`echo "ssh: connect to host 192.168.1.20 port 22: Connection refused"
exit 1
`)
	ctx := context.Background()

	job := pendingJob()
	job.Status = string(constvar.JobStatusRunning)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(job, nil)
	f.store.EXPECT().SetJobWorkerTask(gomock.Any(), testJobID, gomock.Any()).Return(nil)
	f.store.EXPECT().SetJobTaskCount(gomock.Any(), testJobID, 2).Return(nil)
	var mutation *client.JobMutation
	f.store.EXPECT().TransitionJob(gomock.Any(), testJobID,
		constvar.JobStatusRunning, constvar.JobStatusFailed, gomock.Any(), "test-slot").
		DoAndReturn(captureJobMutation(&mutation))

	sub := f.subscribe(t, ctx)
	msg := f.enqueueAndClaim(t, ctx, workerTask(constvar.MaxQueueAttempts))
	f.rt.process(ctx, "test-slot", msg)

	assert.Assert(t, mutation != nil)
	assert.Equal(t, *mutation.ErrorCategory, constvar.ErrorCategoryConnectivity)
	assert.Assert(t, strings.Contains(*mutation.LogOutput, "Connection refused"))
	assert.Assert(t, mutation.CompletedAt != nil)

	events := drainEvents(sub)
	assert.Assert(t, len(events) >= 3)
	assert.Assert(t, pubsub.IsSentinel(events[len(events)-2]))
	final, ok := pubsub.DecodeStatusEvent(events[len(events)-1])
	assert.Assert(t, ok)
	assert.Equal(t, final.Status, constvar.JobStatusFailed)

	moved, err := f.queue.MoveDueRetries(ctx, time.Now().Add(time.Minute))
	assert.NilError(t, err)
	assert.Equal(t, moved, 0)
	f.assertAcked(t, ctx)
}

func TestProcessRefreshesClaimOnRetryDelivery(t *testing.T) {
	f := newRuntimeFixture(t, `echo "TASK [install packages] ****"`+"\n")
	ctx := context.Background()

	job := pendingJob()
	job.Status = string(constvar.JobStatusRunning)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(job, nil)
	f.store.EXPECT().SetJobTaskCount(gomock.Any(), testJobID, 2).Return(nil)
	f.store.EXPECT().TransitionJob(gomock.Any(), testJobID,
		constvar.JobStatusRunning, constvar.JobStatusCompleted, gomock.Any(), "test-slot").Return(nil)

	msg := f.enqueueAndClaim(t, ctx, workerTask(2))
	f.store.EXPECT().SetJobWorkerTask(gomock.Any(), testJobID, msg.ID).Return(nil)

	f.rt.process(ctx, "test-slot", msg)
	f.assertAcked(t, ctx)
}

func TestProcessCancelsMidExecution(t *testing.T) {
	f := newRuntimeFixture(t,
		`i=1
while [ $i -le 12 ]; do
  echo "line $i"
  i=$((i+1))
done
exec sleep 30
`)
	ctx := context.Background()

	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(pendingJob(), nil)
	f.store.EXPECT().TransitionJob(gomock.Any(), testJobID,
		constvar.JobStatusPending, constvar.JobStatusRunning, gomock.Any(), "test-slot").Return(nil)
	f.store.EXPECT().SetJobTaskCount(gomock.Any(), testJobID, 2).Return(nil)
	f.store.EXPECT().GetJobCancelRequested(gomock.Any(), testJobID).Return(true, nil)
	var mutation *client.JobMutation
	f.store.EXPECT().TransitionJob(gomock.Any(), testJobID,
		constvar.JobStatusRunning, constvar.JobStatusCancelled, gomock.Any(), "test-slot").
		DoAndReturn(captureJobMutation(&mutation))

	sub := f.subscribe(t, ctx)
	msg := f.enqueueAndClaim(t, ctx, workerTask(1))
	f.rt.process(ctx, "test-slot", msg)

	assert.Assert(t, mutation != nil)
	assert.Assert(t, mutation.CancelledAt != nil)
	assert.Assert(t, strings.Contains(*mutation.LogOutput, "line 10"))

	events := drainEvents(sub)
	final, ok := pubsub.DecodeStatusEvent(events[len(events)-1])
	assert.Assert(t, ok)
	assert.Equal(t, final.Status, constvar.JobStatusCancelled)
	assert.Assert(t, pubsub.IsSentinel(events[len(events)-2]))

	f.assertAcked(t, ctx)
}

func TestProcessRejectsWrongExecutorType(t *testing.T) {
	f := newRuntimeFixture(t, "echo never\n")
	ctx := context.Background()

	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(pendingJob(), nil)
	f.store.EXPECT().TransitionJob(gomock.Any(), testJobID,
		constvar.JobStatusPending, constvar.JobStatusRunning, gomock.Any(), "test-slot").Return(nil)
	var mutation *client.JobMutation
	f.store.EXPECT().TransitionJob(gomock.Any(), testJobID,
		constvar.JobStatusRunning, constvar.JobStatusFailed, gomock.Any(), "test-slot").
		DoAndReturn(captureJobMutation(&mutation))

	task := workerTask(1)
	task.ExecutorType = "terraform"
	msg := f.enqueueAndClaim(t, ctx, task)
	f.rt.process(ctx, "test-slot", msg)

	assert.Assert(t, mutation != nil)
	assert.Equal(t, *mutation.ErrorCategory, constvar.ErrorCategoryValidation)
	assert.Equal(t, *mutation.LogOutput, fmt.Sprintf("unsupported executor type %q", "terraform"))
	f.assertAcked(t, ctx)
}
