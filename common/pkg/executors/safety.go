/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package executors

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/labforge/homeops/common/pkg/constvar"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
)

var actionNameRe = regexp.MustCompile(constvar.ActionNamePattern)

// ValidateActionName enforces the safe name alphabet and length bound.
// Names never contain path separators or dots, so a valid name cannot
// address anything outside the action directory lexically.
func ValidateActionName(name string) error {
	if len(name) == 0 || len(name) > constvar.MaxActionNameLength {
		return commonerrors.NewBadRequest(fmt.Sprintf("the action name must be 1 to %d characters", constvar.MaxActionNameLength))
	}
	if !actionNameRe.MatchString(name) {
		return commonerrors.NewBadRequest(fmt.Sprintf("the action name %q may only contain letters, digits, underscore and hyphen", name))
	}
	return nil
}

// ResolveActionPath resolves an action name to the absolute path of its
// file under dir. The checks run in a fixed order: name alphabet, then
// absolute join, then symlink resolution of both the directory and the
// candidate with a containment check, then a regular file check. A
// symlink inside the directory pointing elsewhere fails containment.
func ResolveActionPath(dir, name, ext string) (string, error) {
	if err := ValidateActionName(name); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(filepath.Join(dir, name+ext))
	if err != nil {
		return "", commonerrors.NewBadRequest(fmt.Sprintf("failed to resolve the action path: %v", err))
	}
	resolvedDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", commonerrors.NewInternalError(fmt.Sprintf("failed to resolve the action directory %s: %v", dir, err))
	}
	resolvedDir, err = filepath.Abs(resolvedDir)
	if err != nil {
		return "", commonerrors.NewInternalError(fmt.Sprintf("failed to resolve the action directory %s: %v", dir, err))
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", commonerrors.NewNotFound(commonerrors.KindAction, name)
		}
		return "", commonerrors.NewBadRequest(fmt.Sprintf("failed to resolve action %s: %v", name, err))
	}
	if !strings.HasPrefix(resolved, resolvedDir+string(os.PathSeparator)) {
		return "", commonerrors.NewBadRequest(fmt.Sprintf("action %s resolves outside the action directory", name))
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", commonerrors.NewNotFound(commonerrors.KindAction, name)
	}
	if !info.Mode().IsRegular() {
		return "", commonerrors.NewBadRequest(fmt.Sprintf("action %s is not a regular file", name))
	}
	return resolved, nil
}
