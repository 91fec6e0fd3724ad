/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package stringutil

import (
	"strings"
)

// Truncate clips a string to at most max bytes, appending the marker
// when anything was cut. The marker is not counted against max.
func Truncate(str, marker string, max int) string {
	if max <= 0 || len(str) <= max {
		return str
	}
	return str[:max] + marker
}

// Split splits a string by the given separator and trims whitespace
// from each part, dropping empty parts.
func Split(str, sep string) []string {
	if len(str) == 0 {
		return nil
	}
	strList := strings.Split(str, sep)
	var result []string
	for _, s := range strList {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		result = append(result, s)
	}
	return result
}

// StrCaseEqual compares two strings case-insensitively.
func StrCaseEqual(str1, str2 string) bool {
	return strings.EqualFold(str1, str2)
}

// TitleWords turns an identifier such as "setup_nginx-proxy" into a
// display form "Setup Nginx Proxy".
func TitleWords(str string) string {
	if str == "" {
		return ""
	}
	fields := strings.FieldsFunc(str, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, field := range fields {
		fields[i] = strings.ToUpper(field[:1]) + field[1:]
	}
	return strings.Join(fields, " ")
}
