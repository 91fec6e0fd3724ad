/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package executors

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"gotest.tools/assert"

	commonconfig "github.com/labforge/homeops/common/pkg/config"
	"github.com/labforge/homeops/common/pkg/constvar"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/queue"
)

const updatePlaybook = `- name: Update all packages
  hosts: all
  pre_tasks:
    - name: Refresh package cache
      ansible.builtin.apt:
        update_cache: true
  tasks:
    - name: Upgrade packages
      ansible.builtin.apt:
        upgrade: dist
    - name: Remove unused packages
      ansible.builtin.apt:
        autoremove: true
`

const deployPlaybook = `- name: Deploy the app
  hosts: all
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NilError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestExecutor(t *testing.T) (*AnsibleExecutor, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "update_packages.yml", updatePlaybook)
	writeFile(t, dir, "deploy-app.yaml", deployPlaybook)
	writeFile(t, dir, "update_packages.schema.yml", "type: object\nproperties:\n  reboot:\n    type: boolean\n")
	writeFile(t, dir, "notes.txt", "not a playbook")
	assert.NilError(t, os.Mkdir(filepath.Join(dir, "roles"), 0o755))
	cfg := &commonconfig.AnsibleConfig{
		ActionDir:  dir,
		Extensions: []string{".yml", ".yaml"},
	}
	return NewAnsibleExecutor(cfg, nil), dir
}

func TestListActions(t *testing.T) {
	e, _ := newTestExecutor(t)

	actions, err := e.ListActions(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, len(actions), 2)

	assert.Equal(t, actions[0].Name, "deploy-app")
	assert.Equal(t, actions[0].DisplayName, "Deploy App")
	assert.Equal(t, actions[0].Description, "Deploy the app")
	assert.Assert(t, actions[0].ConfigSchema == nil)

	assert.Equal(t, actions[1].Name, "update_packages")
	assert.Equal(t, actions[1].DisplayName, "Update Packages")
	assert.Equal(t, actions[1].Description, "Update all packages")
	assert.Assert(t, actions[1].ConfigSchema != nil)
	assert.Equal(t, actions[1].ConfigSchema["type"], "object")
}

func TestCountTasks(t *testing.T) {
	_, dir := newTestExecutor(t)

	plays, err := ParsePlaybook(filepath.Join(dir, "update_packages.yml"))
	assert.NilError(t, err)
	assert.Equal(t, CountTasks(plays), 3)

	plays, err = ParsePlaybook(filepath.Join(dir, "deploy-app.yaml"))
	assert.NilError(t, err)
	assert.Equal(t, CountTasks(plays), 1)
}

func TestResolveAction(t *testing.T) {
	e, _ := newTestExecutor(t)

	path, err := e.ResolveAction("update_packages")
	assert.NilError(t, err)
	assert.Assert(t, strings.HasSuffix(path, "update_packages.yml"))

	_, err = e.ResolveAction("deploy-app")
	assert.NilError(t, err)

	_, err = e.ResolveAction("no_such_action")
	assert.Assert(t, commonerrors.IsNotFound(err))

	_, err = e.ResolveAction("../etc/passwd")
	assert.Assert(t, commonerrors.IsBadRequest(err))

	_, err = e.ResolveAction("bad;name")
	assert.Assert(t, commonerrors.IsBadRequest(err))

	_, err = e.ResolveAction(strings.Repeat("a", constvar.MaxActionNameLength+1))
	assert.Assert(t, commonerrors.IsBadRequest(err))

	_, err = e.ResolveAction("")
	assert.Assert(t, commonerrors.IsBadRequest(err))
}

func TestResolveActionRejectsSymlinkEscape(t *testing.T) {
	e, dir := newTestExecutor(t)
	outside := t.TempDir()
	target := writeFile(t, outside, "evil.yml", deployPlaybook)
	assert.NilError(t, os.Symlink(target, filepath.Join(dir, "evil.yml")))

	_, err := e.ResolveAction("evil")
	assert.ErrorContains(t, err, "resolves outside the action directory")
}

func TestActionSchema(t *testing.T) {
	e, _ := newTestExecutor(t)

	schema, err := e.ActionSchema("update_packages")
	assert.NilError(t, err)
	assert.Assert(t, schema != nil)
	assert.Equal(t, schema["type"], "object")

	schema, err = e.ActionSchema("deploy-app")
	assert.NilError(t, err)
	assert.Assert(t, schema == nil)

	_, err = e.ActionSchema("../escape")
	assert.Assert(t, commonerrors.IsBadRequest(err))
}

func TestExecuteEnqueues(t *testing.T) {
	mr := miniredis.RunT(t)
	q, err := queue.NewClient(&commonconfig.RedisConfig{Addr: mr.Addr()})
	assert.NilError(t, err)
	defer q.Close()

	dir := t.TempDir()
	writeFile(t, dir, "update_packages.yml", updatePlaybook)
	cfg := &commonconfig.AnsibleConfig{ActionDir: dir, Extensions: []string{".yml"}}
	e := NewAnsibleExecutor(cfg, q)
	ctx := context.Background()

	handle, err := e.Execute(ctx, &ExecuteRequest{
		JobID:       9,
		PrimaryIP:   "192.168.1.10",
		PrimaryName: "nas",
		ActionName:  "update_packages",
		Devices:     []Target{{IP: "192.168.1.11", Name: "router"}},
		ExtraVars:   map[string]interface{}{"reboot": true},
	})
	assert.NilError(t, err)
	assert.Assert(t, handle != "")

	msg, err := q.Claim(ctx, "slot-0", 50*time.Millisecond)
	assert.NilError(t, err)
	assert.Assert(t, msg != nil)
	assert.Equal(t, msg.ID, handle)
	assert.Equal(t, msg.Task.JobID, int64(9))
	assert.Equal(t, msg.Task.ExecutorType, constvar.ExecutorTypeAnsible)
	assert.Equal(t, msg.Task.ActionName, "update_packages")
	assert.Equal(t, len(msg.Task.Devices), 1)
	assert.Equal(t, msg.Task.Attempt, 1)
}

func TestExecuteUnknownActionDoesNotEnqueue(t *testing.T) {
	mr := miniredis.RunT(t)
	q, err := queue.NewClient(&commonconfig.RedisConfig{Addr: mr.Addr()})
	assert.NilError(t, err)
	defer q.Close()

	dir := t.TempDir()
	cfg := &commonconfig.AnsibleConfig{ActionDir: dir, Extensions: []string{".yml"}}
	e := NewAnsibleExecutor(cfg, q)
	ctx := context.Background()

	_, err = e.Execute(ctx, &ExecuteRequest{JobID: 9, ActionName: "missing"})
	assert.Assert(t, commonerrors.IsNotFound(err))

	msg, err := q.Claim(ctx, "slot-0", 50*time.Millisecond)
	assert.NilError(t, err)
	assert.Assert(t, msg == nil)
}
