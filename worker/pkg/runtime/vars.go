/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package runtime

import (
	"regexp"

	"github.com/labforge/homeops/common/pkg/constvar"
)

var varKeyRe = regexp.MustCompile(constvar.VarKeyPattern)

// MergeVars flattens the layers in order of increasing precedence, so
// a later layer's key wins over an earlier one's.
func MergeVars(layers ...map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{})
	for _, layer := range layers {
		for key, value := range layer {
			merged[key] = value
		}
	}
	return merged
}

// FilterVars keeps only entries safe to hand to the runner: keys
// matching the identifier pattern and values that are primitives,
// lists of primitives, or maps that are safe all the way down.
// Everything else is dropped silently.
func FilterVars(vars map[string]interface{}) map[string]interface{} {
	filtered := make(map[string]interface{}, len(vars))
	for key, value := range vars {
		if !varKeyRe.MatchString(key) {
			continue
		}
		safe, ok := safeValue(value)
		if !ok {
			continue
		}
		filtered[key] = safe
	}
	return filtered
}

func safeValue(value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v, true
	case []interface{}:
		list := make([]interface{}, 0, len(v))
		for _, item := range v {
			safe, ok := safeValue(item)
			if !ok {
				return nil, false
			}
			if _, nested := safe.(map[string]interface{}); nested {
				return nil, false
			}
			if _, nested := safe.([]interface{}); nested {
				return nil, false
			}
			list = append(list, safe)
		}
		return list, true
	case map[string]interface{}:
		nested := make(map[string]interface{}, len(v))
		for key, item := range v {
			if !varKeyRe.MatchString(key) {
				return nil, false
			}
			safe, ok := safeValue(item)
			if !ok {
				return nil, false
			}
			nested[key] = safe
		}
		return nested, true
	}
	return nil, false
}
