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
	insertWorkflowTemplateFormat = `INSERT INTO ` + constvar.TPWorkflowTemplate + ` (%s) VALUES (%s)`
	updateWorkflowTemplateCmd    = fmt.Sprintf(`UPDATE %s
		SET name = :name,
		    description = :description,
		    steps = :steps,
		    updated_at = :updated_at
		WHERE id = :id`, constvar.TPWorkflowTemplate)
)

// InsertWorkflowTemplate writes a new template and returns its id. A
// duplicate name surfaces as an already-exists error.
func (c *Client) InsertWorkflowTemplate(ctx context.Context, tpl *WorkflowTemplate) (int64, error) {
	if tpl == nil {
		return 0, commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	tpl.CreatedAt = dbutils.NullTime(now)
	tpl.UpdatedAt = dbutils.NullTime(now)

	cmd := generateCommand(*tpl, insertWorkflowTemplateFormat, "id") + " RETURNING id"
	rows, err := db.NamedQueryContext(ctx, cmd, tpl)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, commonerrors.NewAlreadyExist(
				fmt.Sprintf("workflow template %s already exists", tpl.Name))
		}
		klog.ErrorS(err, "failed to insert workflow template", "name", tpl.Name)
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

// GetWorkflowTemplate retrieves a template by id.
func (c *Client) GetWorkflowTemplate(ctx context.Context, id int64) (*WorkflowTemplate, error) {
	dbTags := GetWorkflowTemplateFieldTags()
	query := sqrl.Eq{GetFieldTag(dbTags, "Id"): id}
	templates, err := c.SelectWorkflowTemplates(ctx, query, nil, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, commonerrors.NewNotFound(commonerrors.KindWorkflowTemplate, fmt.Sprintf("%d", id))
	}
	return templates[0], nil
}

// SelectWorkflowTemplates retrieves templates matching the query.
func (c *Client) SelectWorkflowTemplates(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*WorkflowTemplate, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}

	builder := sqrl.Select("*").PlaceholderFormat(sqrl.Dollar).From(constvar.TPWorkflowTemplate)
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
	var templates []*WorkflowTemplate
	if err = db.SelectContext(ctx2, &templates, sql, args...); err != nil {
		return nil, err
	}
	return templates, nil
}

// CountWorkflowTemplates returns the total count of templates matching the criteria.
func (c *Client) CountWorkflowTemplates(ctx context.Context, query sqrl.Sqlizer) (int, error) {
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}
	builder := sqrl.Select("COUNT(*)").PlaceholderFormat(sqrl.Dollar).From(constvar.TPWorkflowTemplate)
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

// UpdateWorkflowTemplate replaces name, description and steps. Running
// instances are unaffected; they execute their frozen snapshot.
func (c *Client) UpdateWorkflowTemplate(ctx context.Context, tpl *WorkflowTemplate) error {
	if tpl == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}

	tpl.UpdatedAt = dbutils.NullTime(time.Now().UTC())
	result, err := db.NamedExecContext(ctx, updateWorkflowTemplateCmd, tpl)
	if err != nil {
		if isUniqueViolation(err) {
			return commonerrors.NewAlreadyExist(
				fmt.Sprintf("workflow template %s already exists", tpl.Name))
		}
		klog.ErrorS(err, "failed to update workflow template", "id", tpl.Id)
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return commonerrors.NewNotFound(commonerrors.KindWorkflowTemplate, fmt.Sprintf("%d", tpl.Id))
	}
	return nil
}

// DeleteWorkflowTemplate removes a template. Instances created from it
// keep running on their snapshots with template_id set to NULL by the
// foreign key.
func (c *Client) DeleteWorkflowTemplate(ctx context.Context, id int64) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	cmd := fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, constvar.TPWorkflowTemplate)
	result, err := db.ExecContext(ctx, cmd, id)
	if err != nil {
		klog.ErrorS(err, "failed to delete workflow template", "id", id)
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return commonerrors.NewNotFound(commonerrors.KindWorkflowTemplate, fmt.Sprintf("%d", id))
	}
	return nil
}
