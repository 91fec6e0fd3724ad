/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"fmt"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/labforge/homeops/common/pkg/constvar"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
)

// GetDevice retrieves a device by id. The device table is maintained
// by the inventory service; the automation core only reads it.
func (c *Client) GetDevice(ctx context.Context, id int64) (*Device, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	cmd := fmt.Sprintf(`SELECT * FROM %s WHERE id=$1 LIMIT 1`, constvar.TPDevice)

	var devices []*Device
	if err = db.SelectContext(ctx, &devices, cmd, id); err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, commonerrors.NewNotFound(commonerrors.KindDevice, fmt.Sprintf("%d", id))
	}
	return devices[0], nil
}

// GetDevices retrieves the devices with the given ids. Callers compare
// the result length against the request to detect missing rows.
func (c *Client) GetDevices(ctx context.Context, ids []int64) ([]*Device, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}

	dbTags := GetDeviceFieldTags()
	sql, args, err := sqrl.Select("*").PlaceholderFormat(sqrl.Dollar).
		From(constvar.TPDevice).
		Where(sqrl.Eq{GetFieldTag(dbTags, "Id"): ids}).
		OrderBy("id asc").ToSql()
	if err != nil {
		return nil, err
	}

	var devices []*Device
	if err = db.SelectContext(ctx, &devices, sql, args...); err != nil {
		return nil, err
	}
	return devices, nil
}
