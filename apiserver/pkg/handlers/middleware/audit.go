/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package middleware

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	dbclient "github.com/labforge/homeops/common/pkg/database/client"
	dbutils "github.com/labforge/homeops/common/pkg/database/utils"
	"github.com/labforge/homeops/common/pkg/redact"
)

const (
	// maxAuditBodySize is the maximum request body size to keep in an
	// audit row (8KB)
	maxAuditBodySize = 8192
	// auditBufferSize is the capacity of the audit log buffer channel
	auditBufferSize = 1000
	// auditBatchSize is the number of rows to batch before writing
	auditBatchSize = 50
	// auditFlushInterval is the interval to flush audit rows even if
	// the batch is not full
	auditFlushInterval = 5 * time.Second
	// auditWriteTimeout bounds one batch insert
	auditWriteTimeout = 30 * time.Second

	// apiActor marks rows written for HTTP calls. Transition rows
	// carry the acting component instead.
	apiActor = "api"
)

var apiVersionPattern = regexp.MustCompile(`^v\d+$`)

// Auditor buffers audit rows for write operations and flushes them to
// the store in batches from a single background goroutine. A full
// buffer drops rows with a warning rather than stalling requests.
type Auditor struct {
	store dbclient.AuditLogInterface
	ch    chan *dbclient.AuditLog
	done  chan struct{}
}

// NewAuditor wires the auditor to the store and starts its flush
// goroutine. Close stops the goroutine after flushing what is queued.
func NewAuditor(store dbclient.AuditLogInterface) *Auditor {
	a := &Auditor{
		store: store,
		ch:    make(chan *dbclient.AuditLog, auditBufferSize),
		done:  make(chan struct{}),
	}
	go a.flushWorker()
	return a
}

// Close flushes the remaining rows and stops the flush goroutine.
func (a *Auditor) Close() {
	close(a.ch)
	<-a.done
}

// Handler returns the gin middleware recording write operations
// (POST, PUT, PATCH, DELETE). Request bodies are captured up to the
// cap and redacted before they reach the row.
func (a *Auditor) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isWriteOperation(c.Request.Method) {
			c.Next()
			return
		}

		startTime := time.Now()
		requestBody := captureRequestBody(c)

		c.Next()

		resourceType, resourceId := resourceFromPath(c.Request.URL.Path)
		entry := &dbclient.AuditLog{
			Actor:          dbutils.NullString(apiActor),
			ClientIp:       dbutils.NullString(c.ClientIP()),
			HttpMethod:     dbutils.NullString(c.Request.Method),
			RequestPath:    dbutils.NullString(c.Request.URL.Path),
			ResourceType:   dbutils.NullString(resourceType),
			ResourceId:     dbutils.NullString(resourceId),
			Action:         c.Request.Method + " " + c.Request.URL.Path,
			Detail:         dbutils.NullString(redact.RedactJSONFields(requestBody)),
			ResponseStatus: dbutils.NullInt64(int64(c.Writer.Status())),
			LatencyMs:      dbutils.NullInt64(time.Since(startTime).Milliseconds()),
			TraceId:        dbutils.NullString(c.Writer.Header().Get("X-Trace-Id")),
			CreatedAt:      dbutils.NullTime(time.Now().UTC()),
		}
		a.send(entry)
	}
}

// send queues one row without blocking the request.
func (a *Auditor) send(entry *dbclient.AuditLog) bool {
	select {
	case a.ch <- entry:
		return true
	default:
		klog.InfoS("audit buffer full, dropping row",
			"method", entry.HttpMethod.String, "path", entry.RequestPath.String)
		return false
	}
}

// flushWorker batches queued rows and writes them on size or on the
// tick, whichever comes first.
func (a *Auditor) flushWorker() {
	defer close(a.done)
	ticker := time.NewTicker(auditFlushInterval)
	defer ticker.Stop()

	batch := make([]*dbclient.AuditLog, 0, auditBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		a.writeBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-a.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= auditBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (a *Auditor) writeBatch(batch []*dbclient.AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()
	if err := a.store.InsertAuditLogs(ctx, batch); err != nil {
		klog.ErrorS(err, "failed to insert audit rows", "count", len(batch))
		return
	}
	klog.V(4).Infof("flushed %d audit rows", len(batch))
}

// captureRequestBody reads up to the cap and restores the body for the
// handler. The handler still sees the full stream.
func captureRequestBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	if len(bodyBytes) > maxAuditBodySize {
		return string(bodyBytes[:maxAuditBodySize]) + "...(truncated)"
	}
	return string(bodyBytes)
}

// isWriteOperation checks if the HTTP method is a write operation
func isWriteOperation(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	default:
		return false
	}
}

// resourceFromPath extracts the resource type and id from a request
// path. /api/v1/automation/jobs/42/cancel yields ("jobs", "42");
// /api/v1/automation/vault/secrets yields ("vault/secrets", "").
func resourceFromPath(path string) (resourceType, resourceId string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	idx := 0
	for idx < len(parts) {
		part := parts[idx]
		if part == "api" || part == "automation" || apiVersionPattern.MatchString(part) {
			idx++
			continue
		}
		break
	}
	var typeParts []string
	for _, part := range parts[idx:] {
		if _, err := strconv.ParseInt(part, 10, 64); err == nil {
			resourceId = part
			break
		}
		typeParts = append(typeParts, part)
	}
	return strings.Join(typeParts, "/"), resourceId
}
