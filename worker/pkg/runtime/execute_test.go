/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package runtime

import (
	"testing"

	"gotest.tools/assert"

	"github.com/labforge/homeops/common/pkg/constvar"
	"github.com/labforge/homeops/common/pkg/redact"
)

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		output   string
		category constvar.ErrorCategory
	}{
		{"ssh: connect to host 192.168.1.9 port 22: Connection refused", constvar.ErrorCategoryConnectivity},
		{"fatal: [node-a]: UNREACHABLE!", constvar.ErrorCategoryConnectivity},
		{"No route to host", constvar.ErrorCategoryConnectivity},
		{"/usr/bin/python3: Permission denied", constvar.ErrorCategoryPermission},
		{"bash: restic: command not found", constvar.ErrorCategoryNotFound},
		{"Timed out waiting for privilege escalation prompt", constvar.ErrorCategoryTimeout},
		{"TASK timeout after 300s", constvar.ErrorCategoryTimeout},
		{"Authentication failure", constvar.ErrorCategoryAuthentication},
		{"task failed with rc=2", constvar.ErrorCategoryExecution},
		{"", constvar.ErrorCategoryExecution},
	}
	for _, tc := range cases {
		assert.Equal(t, classifyFailure(tc.output), tc.category, "output: %s", tc.output)
	}
}

func TestConnectionMarkersWinOverLaterOnes(t *testing.T) {
	// A refused connection often also mentions a timeout; the first
	// marker in table order decides.
	category := classifyFailure("Connection refused after connect timeout")
	assert.Equal(t, category, constvar.ErrorCategoryConnectivity)
}

func TestFailedOutcomeRedactsMessage(t *testing.T) {
	out := failedOutcome(constvar.ErrorCategoryExecution, "login failed: password=hunter2")
	assert.Equal(t, out.status, constvar.JobStatusFailed)
	assert.Equal(t, out.category, constvar.ErrorCategoryExecution)
	assert.Equal(t, out.output, "login failed: password="+redact.Placeholder)
}
