/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package executorhandlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonconfig "github.com/labforge/homeops/common/pkg/config"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/executors"
	"github.com/labforge/homeops/common/pkg/queue"
)

const deployPlaybook = `- name: Deploy the application
  hosts: all
  tasks:
    - name: copy artifact
      ansible.builtin.copy:
        src: app.tar.gz
        dest: /opt/app
`

const pingPlaybook = `- name: Ping all hosts
  hosts: all
  tasks:
    - name: ping
      ansible.builtin.ping:
`

const deploySchema = `type: object
properties:
  version:
    type: string
required:
  - version
`

func newExecutorRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.ReleaseMode)

	mr := miniredis.RunT(t)
	q, err := queue.NewClient(&commonconfig.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deploy.yml"), []byte(deployPlaybook), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deploy.schema.yml"), []byte(deploySchema), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ping.yml"), []byte(pingPlaybook), 0o644))
	registry := executors.NewRegistry(executors.NewAnsibleExecutor(&commonconfig.AnsibleConfig{
		ActionDir:  dir,
		Extensions: []string{".yml"},
	}, q))

	router := gin.New()
	InitExecutorRouters(router, NewHandler(registry))
	return router
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestListExecutors(t *testing.T) {
	router := newExecutorRouter(t)

	w := get(t, router, "/api/v1/automation/executors")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
	assert.Contains(t, w.Body.String(), `"type":"ansible"`)
}

func TestListExecutorActions(t *testing.T) {
	router := newExecutorRouter(t)

	w := get(t, router, "/api/v1/automation/executors/ansible/actions")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `"total":2`)
	assert.Contains(t, body, `"display_name":"Deploy"`)
	assert.Contains(t, body, `"description":"Deploy the application"`)
	// The schema sidecar is attached to its action, not listed as one.
	assert.Contains(t, body, `"version"`)
	assert.NotContains(t, body, "deploy.schema")
	// Actions sort by name.
	assert.Less(t, strings.Index(body, `"name":"deploy"`), strings.Index(body, `"name":"ping"`))
}

func TestListActionsUnknownExecutor(t *testing.T) {
	router := newExecutorRouter(t)

	w := get(t, router, "/api/v1/automation/executors/terraform/actions")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), commonerrors.ExecutorNotFound)
}

func TestGetActionSchema(t *testing.T) {
	router := newExecutorRouter(t)

	w := get(t, router, "/api/v1/automation/executors/ansible/actions/deploy/schema")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `"action_name":"deploy"`)
	assert.Contains(t, body, `"version"`)
	assert.Contains(t, body, `"required"`)
}

func TestGetActionSchemaWithoutSidecar(t *testing.T) {
	router := newExecutorRouter(t)

	w := get(t, router, "/api/v1/automation/executors/ansible/actions/ping/schema")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"config_schema":null`)
}

func TestGetActionSchemaUnknownAction(t *testing.T) {
	router := newExecutorRouter(t)

	w := get(t, router, "/api/v1/automation/executors/ansible/actions/absent/schema")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), commonerrors.ActionNotFound)
}

func TestGetActionSchemaIllegalName(t *testing.T) {
	router := newExecutorRouter(t)

	w := get(t, router, "/api/v1/automation/executors/ansible/actions/bad.name/schema")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "underscore and hyphen")
}

func TestExecutorTypesAreSorted(t *testing.T) {
	mr := miniredis.RunT(t)
	q, err := queue.NewClient(&commonconfig.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })

	registry := executors.NewRegistry(executors.NewAnsibleExecutor(&commonconfig.AnsibleConfig{
		ActionDir:  t.TempDir(),
		Extensions: []string{".yml"},
	}, q))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	InitExecutorRouters(router, NewHandler(registry))

	w := get(t, router, "/api/v1/automation/executors")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"items":[{"type":"ansible"}]`)
}
