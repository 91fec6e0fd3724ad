/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package runtime

import (
	"strings"

	"github.com/alexflint/go-restructure"

	"github.com/labforge/homeops/common/pkg/constvar"
)

// taskBanner matches the runner's task header lines, e.g.
// "TASK [install packages] ************".
type taskBanner struct {
	_    struct{} `regexp:"^TASK \\["`
	Name string   `regexp:"[^\\]]*"`
	_    struct{} `regexp:"\\]"`
}

var taskBannerRe = restructure.MustCompile(taskBanner{}, restructure.Options{})

// progressTracker turns observed task banners into a progress figure.
// Progress saturates at 99 until the terminal write sets 100, so a
// reader never sees a finished bar on an unfinished job.
type progressTracker struct {
	taskCount int
	completed int
	pending   int
}

func newProgressTracker(taskCount int) *progressTracker {
	if taskCount < 1 {
		taskCount = 1
	}
	return &progressTracker{taskCount: taskCount}
}

// observe consumes one output line. It returns the current progress
// and whether this increment crossed the persistence interval.
func (p *progressTracker) observe(line string) (int, bool) {
	banner := taskBanner{}
	if !taskBannerRe.Find(&banner, line) {
		return p.progress(), false
	}
	p.completed++
	p.pending++
	if p.pending >= constvar.ProgressPersistInterval {
		p.pending = 0
		return p.progress(), true
	}
	return p.progress(), false
}

func (p *progressTracker) progress() int {
	percent := 100 * p.completed / p.taskCount
	if percent > 99 {
		return 99
	}
	return percent
}

// logBuffer accumulates redacted output up to the persistence cap.
// Once the cap is hit the truncation marker is appended exactly once
// and later lines are discarded; streaming is unaffected.
type logBuffer struct {
	b       strings.Builder
	clipped bool
}

func (l *logBuffer) append(line string) {
	if l.clipped {
		return
	}
	if l.b.Len()+len(line)+1 > constvar.MaxLogOutputSize {
		l.b.WriteString(constvar.LogTruncationMarker)
		l.clipped = true
		return
	}
	l.b.WriteString(line)
	l.b.WriteByte('\n')
}

func (l *logBuffer) String() string {
	return l.b.String()
}
