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
	insertWorkflowInstanceFormat = `INSERT INTO ` + constvar.TPWorkflowInstance + ` (%s) VALUES (%s)`
)

// workflowLattice lists the legal instance transitions. Rollback is a
// distinct phase entered only from RUNNING.
var workflowLattice = map[constvar.WorkflowStatus][]constvar.WorkflowStatus{
	constvar.WorkflowStatusPending: {constvar.WorkflowStatusRunning, constvar.WorkflowStatusCancelled},
	constvar.WorkflowStatusRunning: {
		constvar.WorkflowStatusCompleted,
		constvar.WorkflowStatusFailed,
		constvar.WorkflowStatusCancelled,
		constvar.WorkflowStatusRollingBack,
	},
	constvar.WorkflowStatusRollingBack: {constvar.WorkflowStatusRolledBack, constvar.WorkflowStatusFailed},
}

func legalWorkflowTransition(from, to constvar.WorkflowStatus) bool {
	for _, next := range workflowLattice[from] {
		if next == to {
			return true
		}
	}
	return false
}

// WorkflowInstanceMutation carries the columns a transition may write
// alongside the status change. Nil fields are left untouched.
type WorkflowInstanceMutation struct {
	ErrorMessage *string
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// InsertWorkflowInstance writes a new PENDING instance and returns its id.
func (c *Client) InsertWorkflowInstance(ctx context.Context, instance *WorkflowInstance) (int64, error) {
	if instance == nil {
		return 0, commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}

	instance.Status = string(constvar.WorkflowStatusPending)
	instance.CreatedAt = dbutils.NullTime(time.Now().UTC())

	cmd := generateCommand(*instance, insertWorkflowInstanceFormat, "id") + " RETURNING id"
	rows, err := db.NamedQueryContext(ctx, cmd, instance)
	if err != nil {
		klog.ErrorS(err, "failed to insert workflow instance")
		return 0, err
	}
	defer rows.Close()

	var id int64
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// GetWorkflowInstance retrieves an instance by id.
func (c *Client) GetWorkflowInstance(ctx context.Context, id int64) (*WorkflowInstance, error) {
	dbTags := GetWorkflowInstanceFieldTags()
	query := sqrl.Eq{GetFieldTag(dbTags, "Id"): id}
	instances, err := c.SelectWorkflowInstances(ctx, query, nil, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, commonerrors.NewNotFound(commonerrors.KindWorkflowInstance, fmt.Sprintf("%d", id))
	}
	return instances[0], nil
}

// SelectWorkflowInstances retrieves instances matching the query.
func (c *Client) SelectWorkflowInstances(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*WorkflowInstance, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}

	builder := sqrl.Select("*").PlaceholderFormat(sqrl.Dollar).From(constvar.TPWorkflowInstance)
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
		return nil, err
	}

	ctx2, cancel := c.requestCtx(ctx)
	defer cancel()
	var instances []*WorkflowInstance
	if err = db.SelectContext(ctx2, &instances, sql, args...); err != nil {
		return nil, err
	}
	return instances, nil
}

// CountWorkflowInstances returns the total count of instances matching the criteria.
func (c *Client) CountWorkflowInstances(ctx context.Context, query sqrl.Sqlizer) (int, error) {
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}
	builder := sqrl.Select("COUNT(*)").PlaceholderFormat(sqrl.Dollar).From(constvar.TPWorkflowInstance)
	if query != nil {
		builder = builder.Where(query)
	}
	sql, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	var cnt int
	err = db.GetContext(ctx, &cnt, sql, args...)
	return cnt, err
}

// TransitionWorkflowInstance performs the guarded status change, same
// contract as TransitionJob.
func (c *Client) TransitionWorkflowInstance(ctx context.Context, id int64, from, to constvar.WorkflowStatus,
	mutation *WorkflowInstanceMutation, actor string) error {
	if !legalWorkflowTransition(from, to) {
		return commonerrors.NewConflict(
			fmt.Sprintf("workflow instance %d cannot transition from %s to %s", id, from, to))
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}

	dbTags := GetWorkflowInstanceFieldTags()
	builder := sqrl.Update(constvar.TPWorkflowInstance).PlaceholderFormat(sqrl.Dollar).
		Set(GetFieldTag(dbTags, "Status"), string(to)).
		Where(sqrl.Eq{
			GetFieldTag(dbTags, "Id"):     id,
			GetFieldTag(dbTags, "Status"): string(from),
		})
	if mutation != nil {
		if mutation.ErrorMessage != nil {
			builder = builder.Set(GetFieldTag(dbTags, "ErrorMessage"), *mutation.ErrorMessage)
		}
		if mutation.StartedAt != nil {
			builder = builder.Set(GetFieldTag(dbTags, "StartedAt"), *mutation.StartedAt)
		}
		if mutation.CompletedAt != nil {
			builder = builder.Set(GetFieldTag(dbTags, "CompletedAt"), *mutation.CompletedAt)
		}
	}
	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	ctx2, cancel := c.requestCtx(ctx)
	defer cancel()
	result, err := db.ExecContext(ctx2, sql, args...)
	if err != nil {
		klog.ErrorS(err, "failed to transition workflow instance", "id", id, "from", from, "to", to)
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		instance, getErr := c.GetWorkflowInstance(ctx, id)
		if getErr != nil {
			return getErr
		}
		return commonerrors.NewConflict(
			fmt.Sprintf("workflow instance %d is %s, expected %s", id, instance.Status, from))
	}

	c.auditTransition(ctx, actor, "workflow.transition", commonerrors.KindWorkflowInstance, id,
		string(from), string(to))
	return nil
}
