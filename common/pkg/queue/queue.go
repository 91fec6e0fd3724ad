/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"k8s.io/klog/v2"

	commonconfig "github.com/labforge/homeops/common/pkg/config"
	"github.com/labforge/homeops/common/pkg/constvar"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/utils/pkg/backoff"
)

const (
	connectMaxElapsedTime = 30 * time.Second
	connectMaxInterval    = 5 * time.Second
	pingTimeout           = 3 * time.Second

	// Enqueue retries briefly so a redis hiccup does not surface as a
	// dispatch failure; callers still get queue_unavailable fast enough
	// to answer the request.
	enqueueMaxElapsedTime = 3 * time.Second
	enqueueMaxInterval    = time.Second

	retryMoveBatch   = 64
	pendingScanBatch = 1024
)

// Client is the task queue over a redis stream. Workers consume through
// a consumer group, so delivery is at-least-once and unacked entries
// survive consumer crashes for the janitor to reclaim. Delayed retries
// park in a sorted set until due.
//
// Entry payloads can carry vault passwords. Nothing in this package
// logs payload contents; log lines name only job and message ids.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to redis and ensures the consumer group exists.
// Connection failures are retried with exponential backoff before
// giving up.
func NewClient(cfg *commonconfig.RedisConfig) (*Client, error) {
	if cfg == nil {
		return nil, commonerrors.NewBadRequest("the redis config is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	connect := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		return rdb.Ping(ctx).Err()
	}
	if err := backoff.Retry(connect, connectMaxElapsedTime, connectMaxInterval); err != nil {
		return nil, fmt.Errorf("failed to connect to redis %s: %v", cfg.Addr, err)
	}
	c := &Client{rdb: rdb}
	if err := c.ensureGroup(context.Background()); err != nil {
		return nil, err
	}
	klog.Infof("Connected to the task queue at %s", cfg.Addr)
	return c, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Ping reports queue reachability for health checks.
func (c *Client) Ping(ctx context.Context) error {
	rdb, err := c.getRdb()
	if err != nil {
		return err
	}
	return rdb.Ping(ctx).Err()
}

func (c *Client) getRdb() (*redis.Client, error) {
	if c == nil || c.rdb == nil {
		return nil, commonerrors.NewInternalError("The client of task queue has not been initialized")
	}
	return c.rdb, nil
}

// ensureGroup creates the consumer group from the beginning of the
// stream so entries enqueued before the first worker starts are still
// delivered. An existing group is not an error.
func (c *Client) ensureGroup(ctx context.Context) error {
	err := c.rdb.XGroupCreateMkStream(ctx, constvar.JobStreamKey, constvar.JobStreamGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s: %v", constvar.JobStreamGroup, err)
	}
	return nil
}

// Enqueue appends a task to the stream and returns the entry id. A
// first delivery must carry Attempt=1; retries go through ScheduleRetry
// instead. Failures map to queue_unavailable after a short bounded
// retry.
func (c *Client) Enqueue(ctx context.Context, task *Task) (string, error) {
	rdb, err := c.getRdb()
	if err != nil {
		return "", err
	}
	if task == nil {
		return "", commonerrors.NewBadRequest("the task to enqueue is required")
	}
	if task.Attempt < 1 {
		task.Attempt = 1
	}
	values, err := encodeTask(task)
	if err != nil {
		return "", err
	}
	var id string
	add := func() error {
		res, addErr := rdb.XAdd(ctx, &redis.XAddArgs{
			Stream: constvar.JobStreamKey,
			Values: values,
		}).Result()
		if addErr != nil {
			return addErr
		}
		id = res
		return nil
	}
	if err := backoff.Retry(add, enqueueMaxElapsedTime, enqueueMaxInterval); err != nil {
		return "", commonerrors.NewQueueUnavailable(fmt.Sprintf("failed to enqueue job %d: %v", task.JobID, err))
	}
	return id, nil
}

// Claim blocks up to the given duration for the next undelivered entry
// addressed to this consumer. It returns (nil, nil) when the wait times
// out. Entries whose payload cannot be decoded are acked and dropped so
// the group does not redeliver them forever.
func (c *Client) Claim(ctx context.Context, consumer string, block time.Duration) (*Message, error) {
	rdb, err := c.getRdb()
	if err != nil {
		return nil, err
	}
	streams, err := rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    constvar.JobStreamGroup,
		Consumer: consumer,
		Streams:  []string{constvar.JobStreamKey, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}
	entry := streams[0].Messages[0]
	task, err := decodeTask(entry.Values)
	if err != nil {
		klog.ErrorS(err, "Dropping undecodable queue entry", "messageId", entry.ID)
		if ackErr := c.Ack(ctx, entry.ID); ackErr != nil {
			klog.ErrorS(ackErr, "Failed to ack undecodable queue entry", "messageId", entry.ID)
		}
		return nil, nil
	}
	return &Message{ID: entry.ID, Task: task}, nil
}

// Ack removes an entry from the group's pending list. Acking an already
// acked or unknown id is a no-op.
func (c *Client) Ack(ctx context.Context, id string) error {
	rdb, err := c.getRdb()
	if err != nil {
		return err
	}
	return rdb.XAck(ctx, constvar.JobStreamKey, constvar.JobStreamGroup, id).Err()
}

// ScheduleRetry parks a task in the retry set, due after the given
// delay. The caller increments Attempt before scheduling; the moved
// entry re-enters the stream as a normal delivery.
func (c *Client) ScheduleRetry(ctx context.Context, task *Task, delay time.Duration) error {
	rdb, err := c.getRdb()
	if err != nil {
		return err
	}
	if task == nil {
		return commonerrors.NewBadRequest("the task to schedule is required")
	}
	values, err := encodeTask(task)
	if err != nil {
		return err
	}
	due := time.Now().Add(delay)
	err = rdb.ZAdd(ctx, constvar.JobRetryKey, redis.Z{
		Score:  float64(due.Unix()),
		Member: values[taskField],
	}).Err()
	if err != nil {
		return commonerrors.NewQueueUnavailable(fmt.Sprintf("failed to schedule retry for job %d: %v", task.JobID, err))
	}
	klog.V(4).InfoS("Scheduled job retry", "jobId", task.JobID, "attempt", task.Attempt, "delay", delay)
	return nil
}

// MoveDueRetries promotes retry entries whose due time has passed back
// onto the stream. It returns the number moved. Add-then-remove can
// duplicate a delivery if the process dies between the two commands;
// claims on terminal jobs are no-ops, so duplicates are harmless.
func (c *Client) MoveDueRetries(ctx context.Context, now time.Time) (int, error) {
	rdb, err := c.getRdb()
	if err != nil {
		return 0, err
	}
	members, err := rdb.ZRangeByScore(ctx, constvar.JobRetryKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: retryMoveBatch,
	}).Result()
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, member := range members {
		err = rdb.XAdd(ctx, &redis.XAddArgs{
			Stream: constvar.JobStreamKey,
			Values: map[string]interface{}{taskField: member},
		}).Err()
		if err != nil {
			return moved, err
		}
		if err = rdb.ZRem(ctx, constvar.JobRetryKey, member).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// LiveJobIDs returns the ids of jobs with a live queue presence:
// entries claimed and awaiting ack, plus tasks parked for retry. The
// janitor skips these when failing abandoned jobs. Entries awaiting
// first delivery are not reported; a pending job has no started_at to
// go stale.
func (c *Client) LiveJobIDs(ctx context.Context) (map[int64]bool, error) {
	rdb, err := c.getRdb()
	if err != nil {
		return nil, err
	}
	live := map[int64]bool{}
	pending, err := rdb.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: constvar.JobStreamKey,
		Group:  constvar.JobStreamGroup,
		Start:  "-",
		End:    "+",
		Count:  pendingScanBatch,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	for _, entry := range pending {
		rows, rangeErr := rdb.XRange(ctx, constvar.JobStreamKey, entry.ID, entry.ID).Result()
		if rangeErr != nil || len(rows) == 0 {
			continue
		}
		task, decodeErr := decodeTask(rows[0].Values)
		if decodeErr != nil {
			continue
		}
		live[task.JobID] = true
	}
	members, err := rdb.ZRange(ctx, constvar.JobRetryKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	for _, member := range members {
		task, decodeErr := decodeTask(map[string]interface{}{taskField: member})
		if decodeErr != nil {
			continue
		}
		live[task.JobID] = true
	}
	return live, nil
}

// Reclaim transfers entries that have been pending longer than minIdle
// to the given consumer, for the janitor to resolve. Undecodable
// entries are acked and dropped.
func (c *Client) Reclaim(ctx context.Context, consumer string, minIdle time.Duration, count int64) ([]*Message, error) {
	rdb, err := c.getRdb()
	if err != nil {
		return nil, err
	}
	entries, _, err := rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   constvar.JobStreamKey,
		Group:    constvar.JobStreamGroup,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    count,
	}).Result()
	if err != nil {
		return nil, err
	}
	messages := make([]*Message, 0, len(entries))
	for _, entry := range entries {
		task, decodeErr := decodeTask(entry.Values)
		if decodeErr != nil {
			klog.ErrorS(decodeErr, "Dropping undecodable reclaimed entry", "messageId", entry.ID)
			if ackErr := c.Ack(ctx, entry.ID); ackErr != nil {
				klog.ErrorS(ackErr, "Failed to ack undecodable reclaimed entry", "messageId", entry.ID)
			}
			continue
		}
		messages = append(messages, &Message{ID: entry.ID, Task: task})
	}
	return messages, nil
}
