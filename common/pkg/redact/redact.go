/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package redact

import (
	"regexp"
)

const (
	// Placeholder replaces secret values in free-form text.
	Placeholder = "***REDACTED***"
	// PEMPlaceholder replaces whole private key blocks.
	PEMPlaceholder = "***PRIVATE KEY REDACTED***"
	// JSONPlaceholder replaces secret values inside JSON bodies.
	JSONPlaceholder = "[REDACTED]"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Rules are applied in order; later rules see the output of earlier
// ones. Every external write (database, pub/sub, audit, log) must pass
// through Redact first.
var lineRules = []rule{
	{regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*\S+`), "$1=" + Placeholder},
	{regexp.MustCompile(`(?i)(ansible_password|ansible_become_pass|ansible_ssh_pass)=\S+`), "$1=" + Placeholder},
	{regexp.MustCompile(`(?i)(api[_-]?key|api[_-]?secret|token|bearer)\s*[:=]\s*\S+`), "$1=" + Placeholder},
	{regexp.MustCompile(`(?i)(aws_access_key_id|aws_secret_access_key)=\S+`), "$1=" + Placeholder},
	{regexp.MustCompile(`(?i)(secret|private[_-]?key)\s*[:=]\s*\S+`), "$1=" + Placeholder},
	{regexp.MustCompile(`(?is)-----BEGIN [^-]*PRIVATE KEY-----.*?-----END [^-]*PRIVATE KEY-----`), PEMPlaceholder},
}

// jsonFieldRule masks the values of sensitive keys inside JSON request
// bodies captured for the audit trail.
var jsonFieldRule = regexp.MustCompile(`(?i)"(password|passwd|token|secret|content|vault_password|ansible_password|api[_-]?key)"\s*:\s*"(?:[^"\\]|\\.)*"`)

// Redact masks secret material in a line or block of output. It is
// idempotent; already-redacted text passes through unchanged.
func Redact(s string) string {
	for _, r := range lineRules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

// RedactJSONFields masks the values of known secret keys in a JSON
// document, then runs the free-form rules for anything embedded in
// string values.
func RedactJSONFields(s string) string {
	s = jsonFieldRule.ReplaceAllString(s, `"$1":"`+JSONPlaceholder+`"`)
	return Redact(s)
}
