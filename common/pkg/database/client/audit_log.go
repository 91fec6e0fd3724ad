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
	insertAuditLogFormat = `INSERT INTO ` + constvar.TPAuditLog + ` (%s) VALUES (%s);`
)

// InsertAuditLog inserts a new audit log entry into the database.
func (c *Client) InsertAuditLog(ctx context.Context, auditLog *AuditLog) error {
	if auditLog == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}

	if !auditLog.CreatedAt.Valid {
		auditLog.CreatedAt = dbutils.NullTime(time.Now().UTC())
	}
	_, err = db.NamedExecContext(ctx, generateCommand(*auditLog, insertAuditLogFormat, "id"), auditLog)
	if err != nil {
		return fmt.Errorf("failed to insert audit_log to db: %v", err)
	}
	return nil
}

// InsertAuditLogs inserts a batch of entries in one statement.
func (c *Client) InsertAuditLogs(ctx context.Context, auditLogs []*AuditLog) error {
	if len(auditLogs) == 0 {
		return nil
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, entry := range auditLogs {
		if entry == nil {
			return commonerrors.NewBadRequest("the input contains an empty entry")
		}
		if !entry.CreatedAt.Valid {
			entry.CreatedAt = dbutils.NullTime(now)
		}
	}
	_, err = db.NamedExecContext(ctx, generateCommand(*auditLogs[0], insertAuditLogFormat, "id"), auditLogs)
	if err != nil {
		return fmt.Errorf("failed to insert audit_logs to db: %v", err)
	}
	return nil
}

// SelectAuditLogs retrieves audit logs based on query conditions.
func (c *Client) SelectAuditLogs(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*AuditLog, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}

	builder := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("*").From(constvar.TPAuditLog)

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
		return nil, fmt.Errorf("failed to build select audit_logs query: %v", err)
	}

	var auditLogs []*AuditLog
	err = db.SelectContext(ctx, &auditLogs, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select audit_logs from db: %v", err)
	}
	return auditLogs, nil
}

// CountAuditLogs counts audit logs based on query conditions.
func (c *Client) CountAuditLogs(ctx context.Context, query sqrl.Sqlizer) (int, error) {
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}

	builder := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("COUNT(*)").From(constvar.TPAuditLog)

	if query != nil {
		builder = builder.Where(query)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count audit_logs query: %v", err)
	}

	var count int
	err = db.GetContext(ctx, &count, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit_logs from db: %v", err)
	}
	return count, nil
}

// auditTransition records one state change row. Failures are logged
// and swallowed; the transition itself already committed.
func (c *Client) auditTransition(ctx context.Context, actor, action, resourceType string, id int64, from, to string) {
	entry := &AuditLog{
		Actor:        dbutils.NullString(actor),
		Action:       action,
		ResourceType: dbutils.NullString(resourceType),
		ResourceId:   dbutils.NullString(fmt.Sprintf("%d", id)),
		Detail:       dbutils.NullString(fmt.Sprintf(`{"from":%q,"to":%q}`, from, to)),
	}
	if err := c.InsertAuditLog(ctx, entry); err != nil {
		klog.ErrorS(err, "failed to audit transition", "action", action, "id", id)
	}
}
