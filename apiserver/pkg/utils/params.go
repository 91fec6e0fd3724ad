/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package utils

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/labforge/homeops/common/pkg/constvar"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
)

// JsonContentType is the content type of raw JSON responses.
const JsonContentType = "application/json; charset=utf-8"

// PathId parses the :id path parameter as a positive integer.
func PathId(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, commonerrors.NewBadRequest(fmt.Sprintf("the id %q is not a positive integer", raw))
	}
	return id, nil
}

// PageParams reads the page and per_page query values and returns the
// resulting limit and offset. per_page is clamped to the maximum; page
// numbering starts at 1.
func PageParams(c *gin.Context) (limit, offset int, err error) {
	page, err := positiveIntQuery(c, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	perPage, err := positiveIntQuery(c, "per_page", constvar.DefaultPerPage)
	if err != nil {
		return 0, 0, err
	}
	if perPage > constvar.MaxPerPage {
		perPage = constvar.MaxPerPage
	}
	return perPage, (page - 1) * perPage, nil
}

// Int64Query parses an optional integer query parameter, returning nil
// when the parameter is absent.
func Int64Query(c *gin.Context, name string) (*int64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, commonerrors.NewBadRequest(fmt.Sprintf("the %s %q is not an integer", name, raw))
	}
	return &val, nil
}

func positiveIntQuery(c *gin.Context, name string, defaultValue int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 1 {
		return 0, commonerrors.NewBadRequest(fmt.Sprintf("the %s %q is not a positive integer", name, raw))
	}
	return val, nil
}
