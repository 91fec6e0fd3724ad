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
	insertVaultSecretFormat = `INSERT INTO ` + constvar.TPVaultSecret + ` (%s) VALUES (%s)`
	// The name is immutable; updates replace only the description and
	// the encrypted blob.
	updateVaultSecretCmd = fmt.Sprintf(`UPDATE %s
		SET description = :description,
		    encrypted_content = :encrypted_content,
		    updated_at = :updated_at
		WHERE id = :id`, constvar.TPVaultSecret)
)

// InsertVaultSecret writes a new secret and returns its id. Only the
// encrypted blob ever reaches this layer.
func (c *Client) InsertVaultSecret(ctx context.Context, secret *VaultSecret) (int64, error) {
	if secret == nil {
		return 0, commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	secret.CreatedAt = dbutils.NullTime(now)
	secret.UpdatedAt = dbutils.NullTime(now)

	cmd := generateCommand(*secret, insertVaultSecretFormat, "id") + " RETURNING id"
	rows, err := db.NamedQueryContext(ctx, cmd, secret)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, commonerrors.NewAlreadyExist(
				fmt.Sprintf("vault secret %s already exists", secret.Name))
		}
		klog.ErrorS(err, "failed to insert vault secret", "name", secret.Name)
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

// GetVaultSecret retrieves a secret by id.
func (c *Client) GetVaultSecret(ctx context.Context, id int64) (*VaultSecret, error) {
	dbTags := GetVaultSecretFieldTags()
	query := sqrl.Eq{GetFieldTag(dbTags, "Id"): id}
	secrets, err := c.SelectVaultSecrets(ctx, query, nil, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(secrets) == 0 {
		return nil, commonerrors.NewNotFound(commonerrors.KindVaultSecret, fmt.Sprintf("%d", id))
	}
	return secrets[0], nil
}

// GetVaultSecretByName retrieves a secret by its unique name.
func (c *Client) GetVaultSecretByName(ctx context.Context, name string) (*VaultSecret, error) {
	if name == "" {
		return nil, commonerrors.NewBadRequest("name is empty")
	}
	dbTags := GetVaultSecretFieldTags()
	query := sqrl.Eq{GetFieldTag(dbTags, "Name"): name}
	secrets, err := c.SelectVaultSecrets(ctx, query, nil, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(secrets) == 0 {
		return nil, commonerrors.NewNotFound(commonerrors.KindVaultSecret, name)
	}
	return secrets[0], nil
}

// SelectVaultSecrets retrieves secrets matching the query.
func (c *Client) SelectVaultSecrets(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*VaultSecret, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}

	builder := sqrl.Select("*").PlaceholderFormat(sqrl.Dollar).From(constvar.TPVaultSecret)
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
	var secrets []*VaultSecret
	if err = db.SelectContext(ctx2, &secrets, sql, args...); err != nil {
		return nil, err
	}
	return secrets, nil
}

// CountVaultSecrets returns the total count of secrets matching the criteria.
func (c *Client) CountVaultSecrets(ctx context.Context, query sqrl.Sqlizer) (int, error) {
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}
	builder := sqrl.Select("COUNT(*)").PlaceholderFormat(sqrl.Dollar).From(constvar.TPVaultSecret)
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

// UpdateVaultSecret replaces the description and encrypted content.
func (c *Client) UpdateVaultSecret(ctx context.Context, secret *VaultSecret) error {
	if secret == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}

	secret.UpdatedAt = dbutils.NullTime(time.Now().UTC())
	result, err := db.NamedExecContext(ctx, updateVaultSecretCmd, secret)
	if err != nil {
		klog.ErrorS(err, "failed to update vault secret", "id", secret.Id)
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return commonerrors.NewNotFound(commonerrors.KindVaultSecret, fmt.Sprintf("%d", secret.Id))
	}
	return nil
}

// DeleteVaultSecret removes a secret. Jobs referencing it keep their
// history; the foreign key nulls the reference.
func (c *Client) DeleteVaultSecret(ctx context.Context, id int64) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	cmd := fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, constvar.TPVaultSecret)
	result, err := db.ExecContext(ctx, cmd, id)
	if err != nil {
		klog.ErrorS(err, "failed to delete vault secret", "id", id)
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return commonerrors.NewNotFound(commonerrors.KindVaultSecret, fmt.Sprintf("%d", id))
	}
	return nil
}
