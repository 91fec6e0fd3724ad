/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package executors

import (
	"sort"

	commonerrors "github.com/labforge/homeops/common/pkg/errors"
)

// Registry holds the closed set of executors wired at startup. Lookup
// never mutates; new executor types are added in code, not at runtime.
type Registry struct {
	executors map[string]Executor
}

// NewRegistry builds a registry from the given executors, keyed by
// Type(). A later executor with a duplicate type replaces the earlier.
func NewRegistry(executors ...Executor) *Registry {
	m := make(map[string]Executor, len(executors))
	for _, e := range executors {
		m[e.Type()] = e
	}
	return &Registry{executors: m}
}

// Get returns the executor for the given type.
func (r *Registry) Get(executorType string) (Executor, error) {
	e, ok := r.executors[executorType]
	if !ok {
		return nil, commonerrors.NewNotFound(commonerrors.KindExecutor, executorType)
	}
	return e, nil
}

// Types lists the registered executor types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.executors))
	for t := range r.executors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
