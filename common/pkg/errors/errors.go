/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/labforge/homeops/common/pkg/constvar"
)

// ExecutionError carries the failure category of a job run so the
// worker can decide between terminal failure and queue retry.
type ExecutionError struct {
	Category   constvar.ErrorCategory
	Message    string
	InnerError error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.InnerError == nil {
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.InnerError)
}

func (e *ExecutionError) Unwrap() error {
	return e.InnerError
}

// WithError wraps an underlying error and returns the instance for chaining.
func (e *ExecutionError) WithError(err error) *ExecutionError {
	e.InnerError = err
	return e
}

// NewExecutionError builds a categorized failure.
func NewExecutionError(category constvar.ErrorCategory, format string, args ...interface{}) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// CategoryOf extracts the error category from an error chain, falling
// back to the generic execution category.
func CategoryOf(err error) constvar.ErrorCategory {
	var execErr *ExecutionError
	if stderrors.As(err, &execErr) {
		return execErr.Category
	}
	return constvar.ErrorCategoryExecution
}

// IsRetryable reports whether a failed run may be re-dispatched by the
// task queue. Validation-class and vault failures are always terminal.
func IsRetryable(err error) bool {
	return CategoryOf(err).Retryable()
}
