/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package errors

import (
	"fmt"
	"testing"

	"gotest.tools/assert"

	"github.com/labforge/homeops/common/pkg/constvar"
)

func TestErrorCodes(t *testing.T) {
	err := NewBadRequest("action_name is illegal")
	assert.Equal(t, IsBadRequest(err), true)
	assert.Equal(t, IsHomeOps(err), true)
	assert.Equal(t, GetErrorCode(err), "HomeOps.00002")
	assert.ErrorContains(t, err, "Bad request. action_name is illegal")

	err = NewNotFound(KindJob, "42")
	assert.Equal(t, IsNotFound(err), true)
	assert.Equal(t, GetErrorCode(err), "HomeOps.01001")

	err = NewNotFound(KindVaultSecret, "homelab-ssh")
	assert.Equal(t, IsNotFound(err), true)
	assert.Equal(t, GetErrorCode(err), "HomeOps.03001")

	err = NewConflict("job 7 is already in terminal state COMPLETED")
	assert.Equal(t, IsConflict(err), true)
	assert.Equal(t, IsNotFound(err), false)

	err = NewQueueUnavailable("dial tcp refused")
	assert.Equal(t, IsQueueUnavailable(err), true)
	assert.Equal(t, GetErrorCode(err), "HomeOps.05001")

	err = NewInvalidSecret("cipher: message authentication failed")
	assert.Equal(t, IsInvalidSecret(err), true)

	assert.Equal(t, IsHomeOps(nil), false)
	assert.Equal(t, IsHomeOps(fmt.Errorf("plain")), false)
	assert.Equal(t, GetErrorCode(fmt.Errorf("plain")), "")
}

func TestIgnoreFound(t *testing.T) {
	assert.NilError(t, IgnoreFound(nil))
	assert.NilError(t, IgnoreFound(NewNotFound(KindDevice, "9")))
	err := NewInternalError("boom")
	assert.Equal(t, IgnoreFound(err), err)
}

func TestExecutionError(t *testing.T) {
	err := NewExecutionError(constvar.ErrorCategoryConnectivity, "host %s unreachable", "10.0.0.5")
	assert.Equal(t, CategoryOf(err), constvar.ErrorCategoryConnectivity)
	assert.Equal(t, IsRetryable(err), true)
	assert.ErrorContains(t, err, "connectivity: host 10.0.0.5 unreachable")

	err = NewExecutionError(constvar.ErrorCategoryValidation, "bad action name").
		WithError(fmt.Errorf("regex mismatch"))
	assert.Equal(t, IsRetryable(err), false)
	assert.ErrorContains(t, err, "regex mismatch")

	wrapped := fmt.Errorf("run failed: %w", NewExecutionError(constvar.ErrorCategoryTimeout, "deadline"))
	assert.Equal(t, CategoryOf(wrapped), constvar.ErrorCategoryTimeout)

	assert.Equal(t, CategoryOf(fmt.Errorf("unknown")), constvar.ErrorCategoryExecution)
}
