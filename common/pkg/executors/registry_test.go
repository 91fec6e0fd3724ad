/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package executors

import (
	"testing"

	"gotest.tools/assert"

	commonconfig "github.com/labforge/homeops/common/pkg/config"
	"github.com/labforge/homeops/common/pkg/constvar"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
)

func TestRegistry(t *testing.T) {
	ansible := NewAnsibleExecutor(&commonconfig.AnsibleConfig{ActionDir: t.TempDir(), Extensions: []string{".yml"}}, nil)
	registry := NewRegistry(ansible)

	e, err := registry.Get(constvar.ExecutorTypeAnsible)
	assert.NilError(t, err)
	assert.Equal(t, e.Type(), constvar.ExecutorTypeAnsible)

	_, err = registry.Get("shell")
	assert.Assert(t, commonerrors.IsNotFound(err))

	types := registry.Types()
	assert.Equal(t, len(types), 1)
	assert.Equal(t, types[0], constvar.ExecutorTypeAnsible)
}
