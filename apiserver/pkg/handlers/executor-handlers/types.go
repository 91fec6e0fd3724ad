/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package executorhandlers

import (
	"github.com/labforge/homeops/common/pkg/executors"
)

// ExecutorItem is one registered automation backend.
type ExecutorItem struct {
	Type string `json:"type"`
}

// ListExecutorsResp is the executor list response.
type ListExecutorsResp struct {
	Total int             `json:"total"`
	Items []*ExecutorItem `json:"items"`
}

// ListActionsResp enumerates the actions one executor offers.
type ListActionsResp struct {
	Total int                    `json:"total"`
	Items []executors.ActionInfo `json:"items"`
}

// ActionSchemaResp carries an action's config schema. ConfigSchema is
// null for actions without one.
type ActionSchemaResp struct {
	ActionName   string                 `json:"action_name"`
	ConfigSchema map[string]interface{} `json:"config_schema"`
}
