/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gotest.tools/assert"

	commonconfig "github.com/labforge/homeops/common/pkg/config"
	"github.com/labforge/homeops/common/pkg/constvar"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	mr := miniredis.RunT(t)
	b, err := NewBus(&commonconfig.RedisConfig{Addr: mr.Addr()})
	assert.NilError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func receive(t *testing.T, sub *Subscription) *redis.Message {
	t.Helper()
	select {
	case msg := <-sub.Messages():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a published message")
		return nil
	}
}

func TestPublishLineRedactsSecrets(t *testing.T) {
	b := newTestBus(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, 7)
	assert.NilError(t, err)
	defer sub.Close()

	assert.NilError(t, b.PublishLine(ctx, 7, "TASK [configure] password=hunter2 ok"))

	msg := receive(t, sub)
	assert.Equal(t, msg.Channel, "job:7:logs")
	assert.Equal(t, msg.Payload, "TASK [configure] password=***REDACTED*** ok")
}

func TestPublishStatusRoundTrip(t *testing.T) {
	b := newTestBus(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, 7)
	assert.NilError(t, err)
	defer sub.Close()

	assert.NilError(t, b.PublishStatus(ctx, 7, constvar.JobStatusRunning, 0))

	msg := receive(t, sub)
	event, ok := DecodeStatusEvent(msg.Payload)
	assert.Assert(t, ok)
	assert.Equal(t, event.Status, constvar.JobStatusRunning)
	assert.Equal(t, event.Progress, 0)
}

func TestPublishSentinel(t *testing.T) {
	b := newTestBus(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, 7)
	assert.NilError(t, err)
	defer sub.Close()

	assert.NilError(t, b.PublishSentinel(ctx, 7))

	msg := receive(t, sub)
	assert.Assert(t, IsSentinel(msg.Payload))
}

func TestChannelsAreIsolatedPerJob(t *testing.T) {
	b := newTestBus(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, 7)
	assert.NilError(t, err)
	defer sub.Close()

	assert.NilError(t, b.PublishLine(ctx, 8, "other job output"))
	assert.NilError(t, b.PublishLine(ctx, 7, "my job output"))

	msg := receive(t, sub)
	assert.Equal(t, msg.Payload, "my job output")
}

func TestDecodeStatusEvent(t *testing.T) {
	event, ok := DecodeStatusEvent(`{"status":"COMPLETED","progress":100}`)
	assert.Assert(t, ok)
	assert.Equal(t, event.Status, constvar.JobStatusCompleted)
	assert.Equal(t, event.Progress, 100)

	_, ok = DecodeStatusEvent("TASK [deploy] ok")
	assert.Assert(t, !ok)

	_, ok = DecodeStatusEvent(constvar.StreamCompleteSentinel)
	assert.Assert(t, !ok)
}

func TestBusNoConnection(t *testing.T) {
	b := &Bus{}
	ctx := context.Background()

	err := b.PublishLine(ctx, 1, "line")
	assert.ErrorContains(t, err, "The client of log bus has not been initialized")

	_, err = b.Subscribe(ctx, 1)
	assert.ErrorContains(t, err, "The client of log bus has not been initialized")
}
