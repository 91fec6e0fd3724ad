/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package executors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"

	commonconfig "github.com/labforge/homeops/common/pkg/config"
	"github.com/labforge/homeops/common/pkg/constvar"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/queue"
	"github.com/labforge/homeops/utils/pkg/stringutil"
)

var schemaSuffixes = []string{".schema.yml", ".schema.yaml"}

// Play is one play of an ansible playbook, reduced to the fields the
// system reads: the display name and the task lists used for progress
// accounting.
type Play struct {
	Name      string                   `json:"name"`
	Tasks     []map[string]interface{} `json:"tasks"`
	PreTasks  []map[string]interface{} `json:"pre_tasks"`
	PostTasks []map[string]interface{} `json:"post_tasks"`
}

// ParsePlaybook reads and parses a playbook file.
func ParsePlaybook(path string) ([]Play, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playbook %s: %v", path, err)
	}
	var plays []Play
	if err := yaml.Unmarshal(data, &plays); err != nil {
		return nil, fmt.Errorf("failed to parse playbook %s: %v", path, err)
	}
	return plays, nil
}

// CountTasks sums the tasks of all plays. Playbooks that declare no
// tasks still count one so progress arithmetic never divides by zero.
func CountTasks(plays []Play) int {
	count := 0
	for _, p := range plays {
		count += len(p.Tasks) + len(p.PreTasks) + len(p.PostTasks)
	}
	if count < 1 {
		return 1
	}
	return count
}

// AnsibleExecutor runs playbooks from a fixed action directory. Actions
// are playbook files whose stem satisfies the safe name alphabet; a
// `<action>.schema.yml` sidecar optionally describes the action's
// config.
type AnsibleExecutor struct {
	cfg   *commonconfig.AnsibleConfig
	queue *queue.Client
}

var _ Executor = (*AnsibleExecutor)(nil)

// NewAnsibleExecutor wires the plugin to its config and the task queue.
func NewAnsibleExecutor(cfg *commonconfig.AnsibleConfig, q *queue.Client) *AnsibleExecutor {
	return &AnsibleExecutor{cfg: cfg, queue: q}
}

func (e *AnsibleExecutor) Type() string {
	return constvar.ExecutorTypeAnsible
}

// ListActions enumerates playbooks in the action directory. Schema
// sidecars and files with unsafe stems are skipped. Results sort by
// name.
func (e *AnsibleExecutor) ListActions(ctx context.Context) ([]ActionInfo, error) {
	entries, err := os.ReadDir(e.cfg.ActionDir)
	if err != nil {
		return nil, commonerrors.NewInternalError(fmt.Sprintf("failed to read the action directory: %v", err))
	}
	var actions []ActionInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !e.hasExtension(ext) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if ValidateActionName(name) != nil {
			continue
		}
		info := ActionInfo{
			Name:        name,
			DisplayName: stringutil.TitleWords(name),
			Description: e.description(filepath.Join(e.cfg.ActionDir, entry.Name())),
		}
		schema, err := e.ActionSchema(name)
		if err != nil {
			return nil, err
		}
		info.ConfigSchema = schema
		actions = append(actions, info)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i].Name < actions[j].Name })
	return actions, nil
}

// description returns the first play's name. A playbook that does not
// parse still lists; its problems surface at dispatch.
func (e *AnsibleExecutor) description(path string) string {
	plays, err := ParsePlaybook(path)
	if err != nil {
		klog.V(4).InfoS("Skipping description of unparseable playbook", "path", path)
		return ""
	}
	if len(plays) == 0 {
		return ""
	}
	return plays[0].Name
}

func (e *AnsibleExecutor) hasExtension(ext string) bool {
	for _, allowed := range e.cfg.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Validate runs the path safety chain against every configured
// extension and succeeds when any resolves to a playbook file.
func (e *AnsibleExecutor) Validate(actionName string) error {
	_, err := e.ResolveAction(actionName)
	return err
}

// ResolveAction returns the absolute resolved path of the action's
// playbook. The worker re-runs this before spawning the subprocess.
func (e *AnsibleExecutor) ResolveAction(actionName string) (string, error) {
	if err := ValidateActionName(actionName); err != nil {
		return "", err
	}
	var lastErr error
	for _, ext := range e.cfg.Extensions {
		path, err := ResolveActionPath(e.cfg.ActionDir, actionName, ext)
		if err == nil {
			return path, nil
		}
		if !commonerrors.IsNotFound(err) {
			return "", err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = commonerrors.NewNotFound(commonerrors.KindAction, actionName)
	}
	return "", lastErr
}

// ActionSchema loads the sidecar schema, or nil when the action has
// none.
func (e *AnsibleExecutor) ActionSchema(actionName string) (map[string]interface{}, error) {
	if err := ValidateActionName(actionName); err != nil {
		return nil, err
	}
	for _, suffix := range schemaSuffixes {
		data, err := os.ReadFile(filepath.Join(e.cfg.ActionDir, actionName+suffix))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, commonerrors.NewInternalError(fmt.Sprintf("failed to read the schema of action %s: %v", actionName, err))
		}
		schema := map[string]interface{}{}
		if err := yaml.Unmarshal(data, &schema); err != nil {
			return nil, commonerrors.NewInternalError(fmt.Sprintf("failed to parse the schema of action %s: %v", actionName, err))
		}
		return schema, nil
	}
	return nil, nil
}

// Execute validates the action and enqueues the dispatch. The returned
// handle is the stream entry id.
func (e *AnsibleExecutor) Execute(ctx context.Context, req *ExecuteRequest) (string, error) {
	if req == nil {
		return "", commonerrors.NewBadRequest("the execute request is required")
	}
	if _, err := e.ResolveAction(req.ActionName); err != nil {
		return "", err
	}
	task := &queue.Task{
		JobID:         req.JobID,
		ExecutorType:  e.Type(),
		ActionName:    req.ActionName,
		ActionConfig:  req.ActionConfig,
		PrimaryIP:     req.PrimaryIP,
		PrimaryName:   req.PrimaryName,
		ExtraVars:     req.ExtraVars,
		WorkflowVars:  req.WorkflowVars,
		StepVars:      req.StepVars,
		VaultPassword: req.VaultPassword,
		Attempt:       1,
	}
	for _, d := range req.Devices {
		task.Devices = append(task.Devices, queue.Target{IP: d.IP, Name: d.Name})
	}
	return e.queue.Enqueue(ctx, task)
}
