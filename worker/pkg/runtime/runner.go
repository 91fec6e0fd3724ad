/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package runtime

import (
	"context"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/labforge/homeops/common/pkg/constvar"
)

// buildRunnerArgs constructs the fixed argument vector of the runner
// subprocess. No shell is interposed at any point.
func buildRunnerArgs(actionPath, inventoryPath, varsPath string) []string {
	args := []string{
		actionPath,
		"-i", inventoryPath,
		"--timeout", strconv.Itoa(constvar.RunnerTaskTimeoutSeconds),
	}
	if varsPath != "" {
		args = append(args, "--extra-vars", "@"+varsPath)
	}
	return args
}

// runnerCmd wraps one runner subprocess: stdin closed, stderr merged
// into stdout, output consumed line by line through Stdout.
type runnerCmd struct {
	cmd    *exec.Cmd
	Stdout io.ReadCloser

	killOnce  sync.Once
	killTimer *time.Timer
}

// startRunner spawns the subprocess. The context carries the wall
// clock ceiling; when it fires the process is killed.
func startRunner(ctx context.Context, runnerPath, actionPath, inventoryPath, varsPath string) (*runnerCmd, error) {
	cmd := exec.CommandContext(ctx, runnerPath, buildRunnerArgs(actionPath, inventoryPath, varsPath)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		stdout.Close()
		return nil, err
	}
	return &runnerCmd{cmd: cmd, Stdout: stdout}, nil
}

// terminate asks the subprocess to stop: SIGTERM now, SIGKILL after
// the grace period if it is still alive. Safe to call once; the
// reader keeps draining until the pipe closes.
func (r *runnerCmd) terminate() {
	r.killOnce.Do(func() {
		if r.cmd.Process == nil {
			return
		}
		_ = r.cmd.Process.Signal(syscall.SIGTERM)
		r.killTimer = time.AfterFunc(constvar.TermGraceSeconds*time.Second, func() {
			_ = r.cmd.Process.Kill()
		})
	})
}

// wait reaps the subprocess and disarms a pending kill.
func (r *runnerCmd) wait() error {
	err := r.cmd.Wait()
	if r.killTimer != nil {
		r.killTimer.Stop()
	}
	return err
}
