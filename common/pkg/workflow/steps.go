/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package workflow

import (
	"encoding/json"
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/executors"
	jsonutils "github.com/labforge/homeops/utils/pkg/json"
)

// Step is one entry of a workflow template. Orders are unique and
// non-negative; dependencies reference strictly lower orders, so the
// step list is a DAG by construction.
type Step struct {
	Order          int                    `json:"order"`
	ActionName     string                 `json:"action_name"`
	ExecutorType   string                 `json:"executor_type"`
	DependsOn      []int                  `json:"depends_on,omitempty"`
	RollbackAction string                 `json:"rollback_action,omitempty"`
	ActionConfig   map[string]interface{} `json:"action_config,omitempty"`
	ExtraVars      map[string]interface{} `json:"extra_vars,omitempty"`
}

// ParseSteps decodes a stored or submitted step list.
func ParseSteps(raw string) ([]Step, error) {
	var steps []Step
	if err := jsonutils.UnmarshalString(raw, &steps); err != nil {
		return nil, commonerrors.NewBadRequest(fmt.Sprintf("failed to parse workflow steps: %v", err))
	}
	return steps, nil
}

// EncodeSteps serializes a step list for storage.
func EncodeSteps(steps []Step) (string, error) {
	data, err := json.Marshal(steps)
	if err != nil {
		return "", commonerrors.NewBadRequest(fmt.Sprintf("failed to encode workflow steps: %v", err))
	}
	return string(data), nil
}

// ValidateSteps checks the shape of a template's steps: at least one
// step, unique non-negative orders, dependencies on existing lower
// orders, safe action names and registered executor types. Action file
// existence is deliberately not checked; playbooks may land after the
// template is authored and are verified at dispatch. All violations are
// reported together.
func ValidateSteps(steps []Step, registry *executors.Registry) error {
	if len(steps) == 0 {
		return commonerrors.NewBadRequest("a workflow template requires at least one step")
	}
	var errs []error
	orders := make(map[int]bool, len(steps))
	for _, step := range steps {
		if step.Order < 0 {
			errs = append(errs, fmt.Errorf("step order %d must be non-negative", step.Order))
			continue
		}
		if orders[step.Order] {
			errs = append(errs, fmt.Errorf("step order %d is duplicated", step.Order))
			continue
		}
		orders[step.Order] = true
	}
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if dep >= step.Order {
				errs = append(errs, fmt.Errorf("step %d may only depend on lower orders, got %d", step.Order, dep))
			} else if !orders[dep] {
				errs = append(errs, fmt.Errorf("step %d depends on order %d which does not exist", step.Order, dep))
			}
		}
		if err := executors.ValidateActionName(step.ActionName); err != nil {
			errs = append(errs, fmt.Errorf("step %d: %v", step.Order, err))
		}
		if step.RollbackAction != "" {
			if err := executors.ValidateActionName(step.RollbackAction); err != nil {
				errs = append(errs, fmt.Errorf("step %d rollback: %v", step.Order, err))
			}
		}
		if registry != nil {
			if _, err := registry.Get(step.ExecutorType); err != nil {
				errs = append(errs, fmt.Errorf("step %d references unknown executor type %q", step.Order, step.ExecutorType))
			}
		}
	}
	if agg := utilerrors.NewAggregate(errs); agg != nil {
		return commonerrors.NewBadRequest(agg.Error())
	}
	return nil
}
