/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"k8s.io/klog/v2"

	commonconfig "github.com/labforge/homeops/common/pkg/config"
	"github.com/labforge/homeops/common/pkg/constvar"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/redact"
	"github.com/labforge/homeops/utils/pkg/backoff"
)

const (
	connectMaxElapsedTime = 30 * time.Second
	connectMaxInterval    = 5 * time.Second
	pingTimeout           = 3 * time.Second
)

// Bus carries live job output over redis pub/sub. Each job owns one
// channel; subscribers receive raw redacted lines, status events as
// JSON and finally the completion sentinel. Delivery is best effort:
// a subscriber that attaches late reads the persisted log instead.
type Bus struct {
	rdb *redis.Client
}

// NewBus connects to redis, retrying with exponential backoff.
func NewBus(cfg *commonconfig.RedisConfig) (*Bus, error) {
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
	klog.Infof("Connected to the log bus at %s", cfg.Addr)
	return &Bus{rdb: rdb}, nil
}

// Close releases the underlying connection.
func (b *Bus) Close() error {
	if b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

// Ping reports bus reachability for health checks.
func (b *Bus) Ping(ctx context.Context) error {
	rdb, err := b.getRdb()
	if err != nil {
		return err
	}
	return rdb.Ping(ctx).Err()
}

func (b *Bus) getRdb() (*redis.Client, error) {
	if b == nil || b.rdb == nil {
		return nil, commonerrors.NewInternalError("The client of log bus has not been initialized")
	}
	return b.rdb, nil
}

// PublishLine sends one output line on the job's channel. The line
// passes through redact here as the last point before the wire, even
// though the worker already scrubbed it for the log buffer.
func (b *Bus) PublishLine(ctx context.Context, jobID int64, line string) error {
	rdb, err := b.getRdb()
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, constvar.JobLogChannel(jobID), redact.Redact(line)).Err()
}

// StatusEvent is the JSON payload published on status changes.
type StatusEvent struct {
	Status   constvar.JobStatus `json:"status"`
	Progress int                `json:"progress"`
}

// PublishStatus sends a status event on the job's channel.
func (b *Bus) PublishStatus(ctx context.Context, jobID int64, status constvar.JobStatus, progress int) error {
	rdb, err := b.getRdb()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(&StatusEvent{Status: status, Progress: progress})
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, constvar.JobLogChannel(jobID), string(payload)).Err()
}

// PublishSentinel marks the end of the job's stream. Nothing may be
// published on the channel afterwards.
func (b *Bus) PublishSentinel(ctx context.Context, jobID int64) error {
	rdb, err := b.getRdb()
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, constvar.JobLogChannel(jobID), constvar.StreamCompleteSentinel).Err()
}

// Subscription is a live attachment to one job's channel.
type Subscription struct {
	pubsub *redis.PubSub
}

// Subscribe attaches to the job's channel. It waits for the server's
// subscription confirmation, so every line published after Subscribe
// returns is delivered.
func (b *Bus) Subscribe(ctx context.Context, jobID int64) (*Subscription, error) {
	rdb, err := b.getRdb()
	if err != nil {
		return nil, err
	}
	ps := rdb.Subscribe(ctx, constvar.JobLogChannel(jobID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	return &Subscription{pubsub: ps}, nil
}

// Messages returns the channel of incoming payloads.
func (s *Subscription) Messages() <-chan *redis.Message {
	return s.pubsub.Channel()
}

// Close detaches from the channel.
func (s *Subscription) Close() error {
	return s.pubsub.Close()
}

// IsSentinel reports whether a payload is the end-of-stream marker.
func IsSentinel(payload string) bool {
	return payload == constvar.StreamCompleteSentinel
}

// DecodeStatusEvent parses a payload as a status event. It returns
// false for ordinary log lines.
func DecodeStatusEvent(payload string) (*StatusEvent, bool) {
	if !strings.HasPrefix(payload, `{"status"`) {
		return nil, false
	}
	event := &StatusEvent{}
	if err := json.Unmarshal([]byte(payload), event); err != nil {
		return nil, false
	}
	return event, true
}
