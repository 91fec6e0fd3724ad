/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"gotest.tools/assert"

	commonconfig "github.com/labforge/homeops/common/pkg/config"
	"github.com/labforge/homeops/common/pkg/constvar"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(&commonconfig.RedisConfig{Addr: mr.Addr()})
	assert.NilError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sampleTask() *Task {
	return &Task{
		JobID:        42,
		ExecutorType: constvar.ExecutorTypeAnsible,
		ActionName:   "update_packages",
		PrimaryIP:    "192.168.1.10",
		PrimaryName:  "nas",
		Devices: []Target{
			{IP: "192.168.1.11", Name: "router"},
		},
		ExtraVars:     map[string]interface{}{"reboot": true},
		VaultPassword: "s3cret",
		Attempt:       1,
	}
}

func TestEnqueueClaimAck(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	id, err := c.Enqueue(ctx, sampleTask())
	assert.NilError(t, err)
	assert.Assert(t, id != "")

	msg, err := c.Claim(ctx, "slot-0", 50*time.Millisecond)
	assert.NilError(t, err)
	assert.Assert(t, msg != nil)
	assert.Equal(t, msg.ID, id)
	assert.Equal(t, msg.Task.JobID, int64(42))
	assert.Equal(t, msg.Task.ActionName, "update_packages")
	assert.Equal(t, msg.Task.PrimaryIP, "192.168.1.10")
	assert.Equal(t, len(msg.Task.Devices), 1)
	assert.Equal(t, msg.Task.Devices[0].Name, "router")
	assert.Equal(t, msg.Task.VaultPassword, "s3cret")
	assert.Equal(t, msg.Task.Attempt, 1)

	assert.NilError(t, c.Ack(ctx, msg.ID))

	again, err := c.Claim(ctx, "slot-0", 50*time.Millisecond)
	assert.NilError(t, err)
	assert.Assert(t, again == nil)
}

func TestEnqueueDefaultsAttempt(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	task := sampleTask()
	task.Attempt = 0
	_, err := c.Enqueue(ctx, task)
	assert.NilError(t, err)

	msg, err := c.Claim(ctx, "slot-0", 50*time.Millisecond)
	assert.NilError(t, err)
	assert.Assert(t, msg != nil)
	assert.Equal(t, msg.Task.Attempt, 1)
}

func TestClaimEmptyStream(t *testing.T) {
	c := newTestClient(t)

	msg, err := c.Claim(context.Background(), "slot-0", 50*time.Millisecond)
	assert.NilError(t, err)
	assert.Assert(t, msg == nil)
}

func TestScheduleRetryAndMove(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	task := sampleTask()
	task.Attempt = 2
	assert.NilError(t, c.ScheduleRetry(ctx, task, 30*time.Second))

	moved, err := c.MoveDueRetries(ctx, time.Now())
	assert.NilError(t, err)
	assert.Equal(t, moved, 0)

	moved, err = c.MoveDueRetries(ctx, time.Now().Add(time.Minute))
	assert.NilError(t, err)
	assert.Equal(t, moved, 1)

	msg, err := c.Claim(ctx, "slot-0", 50*time.Millisecond)
	assert.NilError(t, err)
	assert.Assert(t, msg != nil)
	assert.Equal(t, msg.Task.JobID, int64(42))
	assert.Equal(t, msg.Task.Attempt, 2)
}

func TestReclaimPendingEntry(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.Enqueue(ctx, sampleTask())
	assert.NilError(t, err)

	msg, err := c.Claim(ctx, "slot-0", 50*time.Millisecond)
	assert.NilError(t, err)
	assert.Assert(t, msg != nil)

	// The entry stays pending until acked, so the janitor can take it.
	reclaimed, err := c.Reclaim(ctx, "janitor", 0, 10)
	assert.NilError(t, err)
	assert.Equal(t, len(reclaimed), 1)
	assert.Equal(t, reclaimed[0].ID, msg.ID)
	assert.Equal(t, reclaimed[0].Task.JobID, int64(42))

	assert.NilError(t, c.Ack(ctx, msg.ID))
	reclaimed, err = c.Reclaim(ctx, "janitor", 0, 10)
	assert.NilError(t, err)
	assert.Equal(t, len(reclaimed), 0)
}

func TestClaimDropsUndecodableEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewClient(&commonconfig.RedisConfig{Addr: mr.Addr()})
	assert.NilError(t, err)
	defer c.Close()
	ctx := context.Background()

	_, err = mr.XAdd(constvar.JobStreamKey, "*", []string{taskField, "{not json"})
	assert.NilError(t, err)

	msg, err := c.Claim(ctx, "slot-0", 50*time.Millisecond)
	assert.NilError(t, err)
	assert.Assert(t, msg == nil)

	// The poison entry was acked, not left for redelivery.
	msg, err = c.Claim(ctx, "slot-0", 50*time.Millisecond)
	assert.NilError(t, err)
	assert.Assert(t, msg == nil)
}

func TestLiveJobIDs(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	// Job 42 is claimed and unacked; job 43 is parked for retry.
	_, err := c.Enqueue(ctx, sampleTask())
	assert.NilError(t, err)
	msg, err := c.Claim(ctx, "slot-0", 50*time.Millisecond)
	assert.NilError(t, err)
	assert.Assert(t, msg != nil)

	parked := sampleTask()
	parked.JobID = 43
	parked.Attempt = 2
	assert.NilError(t, c.ScheduleRetry(ctx, parked, time.Minute))

	// Job 44 is enqueued but never delivered.
	undelivered := sampleTask()
	undelivered.JobID = 44
	_, err = c.Enqueue(ctx, undelivered)
	assert.NilError(t, err)

	live, err := c.LiveJobIDs(ctx)
	assert.NilError(t, err)
	assert.Assert(t, live[42])
	assert.Assert(t, live[43])
	assert.Assert(t, !live[44])

	// Acking releases the claim.
	assert.NilError(t, c.Ack(ctx, msg.ID))
	live, err = c.LiveJobIDs(ctx)
	assert.NilError(t, err)
	assert.Assert(t, !live[42])
	assert.Assert(t, live[43])
}

func TestQueueNoConnection(t *testing.T) {
	c := &Client{}
	ctx := context.Background()

	_, err := c.Enqueue(ctx, sampleTask())
	assert.ErrorContains(t, err, "The client of task queue has not been initialized")

	_, err = c.Claim(ctx, "slot-0", time.Millisecond)
	assert.ErrorContains(t, err, "The client of task queue has not been initialized")

	err = c.ScheduleRetry(ctx, sampleTask(), time.Second)
	assert.ErrorContains(t, err, "The client of task queue has not been initialized")
}
