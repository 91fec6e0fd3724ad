/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package executors

import (
	"context"
)

// Target identifies one device an action runs against.
type Target struct {
	IP   string
	Name string
}

// ActionInfo describes one action an executor can run.
type ActionInfo struct {
	Name         string                 `json:"name"`
	DisplayName  string                 `json:"display_name"`
	Description  string                 `json:"description,omitempty"`
	ConfigSchema map[string]interface{} `json:"config_schema,omitempty"`
}

// ExecuteRequest carries the dispatch parameters for one job. All
// fields are plain serializable values; VaultPassword exists only in
// memory and in the queue payload, never in any record or log.
type ExecuteRequest struct {
	JobID         int64
	PrimaryIP     string
	PrimaryName   string
	ActionName    string
	ActionConfig  string
	Devices       []Target
	ExtraVars     map[string]interface{}
	WorkflowVars  map[string]interface{}
	StepVars      map[string]interface{}
	VaultPassword string
}

// Executor is one automation backend. Implementations validate action
// names with the shared path safety chain before touching the
// filesystem and dispatch work through the task queue.
type Executor interface {
	// Type returns the registry key, e.g. "ansible".
	Type() string
	// ListActions enumerates the available actions.
	ListActions(ctx context.Context) ([]ActionInfo, error)
	// Validate checks that the action name is safe and the action
	// exists.
	Validate(actionName string) error
	// ActionSchema returns the action's config schema, or nil when the
	// action has none.
	ActionSchema(actionName string) (map[string]interface{}, error)
	// Execute enqueues the job and returns a handle correlating the
	// dispatch, usable as the job's worker task id.
	Execute(ctx context.Context, req *ExecuteRequest) (string, error)
}
