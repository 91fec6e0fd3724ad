/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package streamhandlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"k8s.io/klog/v2"

	apiutils "github.com/labforge/homeops/apiserver/pkg/utils"
	"github.com/labforge/homeops/common/pkg/constvar"
	dbclient "github.com/labforge/homeops/common/pkg/database/client"
	dbutils "github.com/labforge/homeops/common/pkg/database/utils"
	"github.com/labforge/homeops/common/pkg/pubsub"
)

const (
	eventLog      = "log"
	eventStatus   = "status"
	eventComplete = "complete"

	heartbeatInterval = 15 * time.Second
	writeTimeout      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The API token already gates the route; browser clients may sit
	// on any origin inside the lab.
	CheckOrigin: func(*http.Request) bool { return true },
}

// streamFrame is one websocket message. Zero-valued fields are
// omitted, so a log frame carries only type and line.
type streamFrame struct {
	Type     string             `json:"type"`
	Line     string             `json:"line,omitempty"`
	Status   constvar.JobStatus `json:"status,omitempty"`
	Progress int                `json:"progress,omitempty"`
}

// Handler serves the live job log streams. Both transports subscribe
// to the job's channel before reading the job row, so a line published
// between the snapshot and the subscription cannot be lost. The stream
// ends when the publisher's end-of-stream marker arrives; the final
// state is re-read from the store because the marker precedes the
// closing status event on the channel.
type Handler struct {
	store dbclient.Interface
	bus   *pubsub.Bus
}

func NewHandler(store dbclient.Interface, bus *pubsub.Bus) *Handler {
	return &Handler{
		store: store,
		bus:   bus,
	}
}

// StreamJobLogsSSE streams job output as server-sent events. With
// ?replay=true the persisted log lines are emitted before live ones.
func (h *Handler) StreamJobLogsSSE(c *gin.Context) {
	id, err := apiutils.PathId(c)
	if err != nil {
		apiutils.AbortWithApiError(c, err)
		return
	}
	ctx := c.Request.Context()

	sub, err := h.bus.Subscribe(ctx, id)
	if err != nil {
		apiutils.AbortWithApiError(c, err)
		return
	}
	defer sub.Close()

	job, err := h.store.GetJob(ctx, id)
	if err != nil {
		apiutils.AbortWithApiError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	if c.Query("replay") == "true" {
		for _, line := range persistedLines(job) {
			if !h.writeEvent(c, eventLog, line) {
				return
			}
		}
	}
	if !h.writeEvent(c, eventStatus, statusOf(job)) {
		return
	}
	if constvar.JobStatus(job.Status).Terminal() {
		h.writeEvent(c, eventComplete, statusOf(job))
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := c.Writer.WriteString(": keepalive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			if pubsub.IsSentinel(msg.Payload) {
				final, err := h.store.GetJob(ctx, id)
				if err != nil {
					klog.ErrorS(err, "failed to read the final job state", "jobId", id)
					return
				}
				h.writeEvent(c, eventComplete, statusOf(final))
				return
			}
			if event, ok := pubsub.DecodeStatusEvent(msg.Payload); ok {
				if !h.writeEvent(c, eventStatus, event) {
					return
				}
				continue
			}
			if !h.writeEvent(c, eventLog, msg.Payload) {
				return
			}
		}
	}
}

// StreamJobLogsWS streams job output over a websocket. The stream is
// tail-only; persisted lines are served by the logs endpoint.
func (h *Handler) StreamJobLogsWS(c *gin.Context) {
	id, err := apiutils.PathId(c)
	if err != nil {
		apiutils.AbortWithApiError(c, err)
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub, err := h.bus.Subscribe(ctx, id)
	if err != nil {
		apiutils.AbortWithApiError(c, err)
		return
	}
	defer sub.Close()

	job, err := h.store.GetJob(ctx, id)
	if err != nil {
		apiutils.AbortWithApiError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the handshake error.
		klog.ErrorS(err, "failed to upgrade the log stream", "jobId", id)
		return
	}
	defer conn.Close()

	// The client sends no data frames; the read pump surfaces close
	// frames and dead connections.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if !writeFrame(conn, statusFrame(job)) {
		return
	}
	if constvar.JobStatus(job.Status).Terminal() {
		if writeFrame(conn, completeFrame(job)) {
			writeClose(conn)
		}
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			if pubsub.IsSentinel(msg.Payload) {
				final, err := h.store.GetJob(ctx, id)
				if err != nil {
					klog.ErrorS(err, "failed to read the final job state", "jobId", id)
					return
				}
				if writeFrame(conn, completeFrame(final)) {
					writeClose(conn)
				}
				return
			}
			if event, ok := pubsub.DecodeStatusEvent(msg.Payload); ok {
				if !writeFrame(conn, &streamFrame{Type: eventStatus, Status: event.Status, Progress: event.Progress}) {
					return
				}
				continue
			}
			if !writeFrame(conn, &streamFrame{Type: eventLog, Line: msg.Payload}) {
				return
			}
		}
	}
}

func (h *Handler) writeEvent(c *gin.Context, event string, data interface{}) bool {
	if err := sse.Encode(c.Writer, sse.Event{Event: event, Data: data}); err != nil {
		return false
	}
	c.Writer.Flush()
	return true
}

func writeFrame(conn *websocket.Conn, frame *streamFrame) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(frame) == nil
}

func writeClose(conn *websocket.Conn) {
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeTimeout))
}

func statusOf(job *dbclient.Job) *pubsub.StatusEvent {
	return &pubsub.StatusEvent{
		Status:   constvar.JobStatus(job.Status),
		Progress: job.Progress,
	}
}

func statusFrame(job *dbclient.Job) *streamFrame {
	return &streamFrame{
		Type:     eventStatus,
		Status:   constvar.JobStatus(job.Status),
		Progress: job.Progress,
	}
}

func completeFrame(job *dbclient.Job) *streamFrame {
	return &streamFrame{
		Type:     eventComplete,
		Status:   constvar.JobStatus(job.Status),
		Progress: job.Progress,
	}
}

func persistedLines(job *dbclient.Job) []string {
	logOutput := dbutils.ParseNullString(job.LogOutput)
	if logOutput == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(logOutput, "\n"), "\n")
}
