/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package runtime

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	commonconfig "github.com/labforge/homeops/common/pkg/config"
	"github.com/labforge/homeops/common/pkg/constvar"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/queue"
	jsonutils "github.com/labforge/homeops/utils/pkg/json"
)

var (
	hostNameRe  = regexp.MustCompile(constvar.ActionNamePattern)
	nameStripRe = regexp.MustCompile(`[\n\r'"\\\[\]{}]`)
)

const pythonInterpreter = "/usr/bin/python3"

// buildTargets assembles the primary device and its secondaries into
// inventory targets. Every address must parse as an IP; display names
// are sanitized before they reach the descriptor file.
func buildTargets(task *queue.Task) ([]queue.Target, error) {
	raw := make([]queue.Target, 0, 1+len(task.Devices))
	raw = append(raw, queue.Target{IP: task.PrimaryIP, Name: task.PrimaryName})
	raw = append(raw, task.Devices...)

	targets := make([]queue.Target, 0, len(raw))
	for _, target := range raw {
		if net.ParseIP(target.IP) == nil {
			return nil, commonerrors.NewBadRequest(fmt.Sprintf("target %q has an unparseable address %q", target.Name, target.IP))
		}
		targets = append(targets, queue.Target{IP: target.IP, Name: sanitizeTargetName(target.Name)})
	}
	return targets, nil
}

// sanitizeTargetName strips characters that could break the INI line
// or smuggle an extra host entry. A name that still fails the safe
// pattern is replaced by a stable hash-derived alias.
func sanitizeTargetName(raw string) string {
	name := nameStripRe.ReplaceAllString(raw, "")
	if hostNameRe.MatchString(name) {
		return name
	}
	return fmt.Sprintf("device_%d", xxhash.Sum64String(raw)%10000)
}

// renderInventory produces the INI descriptor: one [homelab] group with
// per-host connection settings, then the interpreter pin.
func renderInventory(targets []queue.Target, cfg *commonconfig.AnsibleConfig) string {
	policy := cfg.HostKeyChecking
	if policy == "" {
		policy = "accept-new"
	}
	sshArgs := fmt.Sprintf("-o StrictHostKeyChecking=%s", policy)
	if cfg.IdentityFile != "" {
		sshArgs += fmt.Sprintf(" -o IdentityFile=%s", cfg.IdentityFile)
	}

	var b strings.Builder
	b.WriteString("[homelab]\n")
	for _, target := range targets {
		b.WriteString(fmt.Sprintf("%s ansible_host=%s", target.Name, target.IP))
		if cfg.SSHUser != "" {
			b.WriteString(fmt.Sprintf(" ansible_user=%s", cfg.SSHUser))
		}
		b.WriteString(fmt.Sprintf(" ansible_ssh_common_args='%s'\n", sshArgs))
	}
	b.WriteString("\n[all:vars]\n")
	b.WriteString(fmt.Sprintf("ansible_python_interpreter=%s\n", pythonInterpreter))
	return b.String()
}

// writeInventory persists the descriptor to an owner-only temp file
// with an unpredictable name.
func writeInventory(targets []queue.Target, cfg *commonconfig.AnsibleConfig) (string, error) {
	return writeSecretTempFile("homeops-inv-", ".ini", []byte(renderInventory(targets, cfg)))
}

// writeVarsFile serializes the merged vars the same way. The content
// may carry the vault password, so the file shares the inventory's
// permissions and lifetime.
func writeVarsFile(vars map[string]interface{}) (string, error) {
	data := jsonutils.MarshalSilently(vars)
	return writeSecretTempFile("homeops-vars-", ".json", data)
}

func writeSecretTempFile(prefix, suffix string, content []byte) (string, error) {
	path := filepath.Join(os.TempDir(), prefix+uuid.NewString()+suffix)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}
	if _, err = f.Write(content); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err = f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// removeTempFile unlinks a per-job temp file. Failures are logged and
// never fail the job.
func removeTempFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		klog.ErrorS(err, "Failed to remove a temp file", "path", path)
	}
}
