/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package runtime

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/labforge/homeops/common/pkg/constvar"
	"github.com/labforge/homeops/common/pkg/database/client"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/executors"
	"github.com/labforge/homeops/common/pkg/queue"
	"github.com/labforge/homeops/common/pkg/redact"
)

const maxLineBytes = 1024 * 1024

// outcome is the result of one execution attempt. The caller decides
// between the retry path and the terminal write, so nothing here
// touches the job's status.
type outcome struct {
	status         constvar.JobStatus
	category       constvar.ErrorCategory
	output         string
	progress       int
	tasksCompleted int
}

func failedOutcome(category constvar.ErrorCategory, message string) *outcome {
	return &outcome{
		status:   constvar.JobStatusFailed,
		category: category,
		output:   redact.Redact(message),
	}
}

// failureMarkers classify a nonzero exit by substring, first match
// wins. Input is the already-redacted output lowered once.
var failureMarkers = []struct {
	substr   string
	category constvar.ErrorCategory
}{
	{"connection refused", constvar.ErrorCategoryConnectivity},
	{"unreachable", constvar.ErrorCategoryConnectivity},
	{"no route to host", constvar.ErrorCategoryConnectivity},
	{"permission denied", constvar.ErrorCategoryPermission},
	{"not found", constvar.ErrorCategoryNotFound},
	{"timed out", constvar.ErrorCategoryTimeout},
	{"timeout", constvar.ErrorCategoryTimeout},
	{"authentication", constvar.ErrorCategoryAuthentication},
}

func classifyFailure(output string) constvar.ErrorCategory {
	lower := strings.ToLower(output)
	for _, marker := range failureMarkers {
		if strings.Contains(lower, marker.substr) {
			return marker.category
		}
	}
	return constvar.ErrorCategoryExecution
}

// execute runs one attempt of a claimed job: materialize the action,
// write the inventory and vars descriptors, spawn the runner and
// stream its output until exit, cancellation or timeout. The vault
// password is read from the task only; it never reaches a log, a
// record or an error message.
func (r *Runtime) execute(ctx context.Context, job *client.Job, task *queue.Task) *outcome {
	start := time.Now()

	if task.ExecutorType != r.ansible.Type() {
		return failedOutcome(constvar.ErrorCategoryValidation,
			fmt.Sprintf("unsupported executor type %q", task.ExecutorType))
	}
	actionPath, err := r.ansible.ResolveAction(task.ActionName)
	if err != nil {
		category := constvar.ErrorCategoryValidation
		if commonerrors.IsNotFound(err) {
			category = constvar.ErrorCategoryNotFound
		}
		return failedOutcome(category, err.Error())
	}

	playbook, err := executors.ParsePlaybook(actionPath)
	if err != nil {
		return failedOutcome(constvar.ErrorCategoryValidation,
			fmt.Sprintf("action %s is not a valid playbook: %v", task.ActionName, err))
	}
	taskCount := executors.CountTasks(playbook)
	if err := r.store.SetJobTaskCount(ctx, job.Id, taskCount); err != nil {
		klog.ErrorS(err, "Failed to persist the task count", "jobId", job.Id)
	}

	targets, err := buildTargets(task)
	if err != nil {
		return failedOutcome(constvar.ErrorCategoryValidation, err.Error())
	}
	inventoryPath, err := writeInventory(targets, r.ansibleCfg)
	if err != nil {
		return failedOutcome(constvar.ErrorCategoryExecution,
			fmt.Sprintf("failed to write the inventory descriptor: %v", err))
	}
	defer removeTempFile(inventoryPath)

	vars := FilterVars(MergeVars(task.WorkflowVars, task.StepVars, task.ExtraVars))
	if task.VaultPassword != "" {
		vars["ansible_password"] = task.VaultPassword
	}
	varsPath := ""
	if len(vars) > 0 {
		varsPath, err = writeVarsFile(vars)
		if err != nil {
			return failedOutcome(constvar.ErrorCategoryExecution,
				fmt.Sprintf("failed to write the vars descriptor: %v", err))
		}
		defer removeTempFile(varsPath)
	}

	runCtx, cancel := context.WithTimeout(ctx, constvar.SubprocessTimeoutSeconds*time.Second)
	defer cancel()
	cmd, err := startRunner(runCtx, r.ansibleCfg.RunnerPath, actionPath, inventoryPath, varsPath)
	if err != nil {
		return failedOutcome(constvar.ErrorCategoryExecution,
			fmt.Sprintf("failed to start the runner: %v", err))
	}
	klog.V(2).InfoS("Runner started", "jobId", job.Id, "action", task.ActionName, "taskCount", taskCount)

	result := r.stream(ctx, job, cmd, taskCount)
	timedOut := runCtx.Err() == context.DeadlineExceeded ||
		time.Since(start) >= constvar.WorkerSoftDeadlineSeconds*time.Second

	out := &outcome{
		output:         result.buffer.String(),
		progress:       result.progress,
		tasksCompleted: result.tasksCompleted,
	}
	switch {
	case result.cancelled:
		out.status = constvar.JobStatusCancelled
	case timedOut:
		out.status = constvar.JobStatusFailed
		out.category = constvar.ErrorCategoryTimeout
		klog.InfoS("Runner deadline exceeded", "jobId", job.Id, "attempt", task.Attempt,
			"elapsed", time.Since(start).Round(time.Second))
	case result.waitErr != nil:
		out.status = constvar.JobStatusFailed
		out.category = classifyFailure(out.output)
		klog.InfoS("Runner failed", "jobId", job.Id, "attempt", task.Attempt, "category", out.category)
	default:
		out.status = constvar.JobStatusCompleted
		out.progress = 100
	}
	return out
}

// streamResult carries the raw observations of one stream loop.
type streamResult struct {
	buffer         logBuffer
	cancelled      bool
	waitErr        error
	progress       int
	tasksCompleted int
}

// stream consumes the runner's merged output line by line: redact,
// buffer, publish, track progress, and poll the cancel flag. On
// cancellation the subprocess is terminated but the loop keeps
// draining until the pipe closes, so trailing output is preserved and
// the process can never block on a full pipe.
func (r *Runtime) stream(ctx context.Context, job *client.Job, cmd *runnerCmd, taskCount int) *streamResult {
	result := &streamResult{}
	tracker := newProgressTracker(taskCount)
	scanner := bufio.NewScanner(cmd.Stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lines := 0
	busDown := false
	for scanner.Scan() {
		line := redact.Redact(scanner.Text())
		result.buffer.append(line)
		if err := r.bus.PublishLine(ctx, job.Id, line); err != nil && !busDown {
			busDown = true
			klog.ErrorS(err, "Failed to publish a log line", "jobId", job.Id)
		}

		progress, persist := tracker.observe(line)
		if persist {
			if err := r.store.SetJobProgress(ctx, job.Id, progress, tracker.completed); err != nil {
				klog.ErrorS(err, "Failed to persist progress", "jobId", job.Id)
			}
		}

		lines++
		if !result.cancelled && lines%constvar.CancellationCheckInterval == 0 {
			requested, err := r.store.GetJobCancelRequested(ctx, job.Id)
			if err != nil {
				klog.ErrorS(err, "Failed to read the cancel flag", "jobId", job.Id)
			} else if requested {
				result.cancelled = true
				klog.InfoS("Cancel requested, terminating the runner", "jobId", job.Id)
				cmd.terminate()
			}
		}
	}
	if err := scanner.Err(); err != nil {
		klog.ErrorS(err, "Runner output read failed", "jobId", job.Id)
	}
	result.waitErr = cmd.wait()
	result.progress = tracker.progress()
	result.tasksCompleted = tracker.completed
	return result
}
