/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package runtime

import (
	"testing"

	"gotest.tools/assert"
)

func TestMergeVarsPrecedence(t *testing.T) {
	merged := MergeVars(
		map[string]interface{}{"env": "dev", "region": "home"},
		map[string]interface{}{"env": "prod"},
		nil,
		map[string]interface{}{"release": "v2"},
	)
	assert.DeepEqual(t, merged, map[string]interface{}{
		"env":     "prod",
		"region":  "home",
		"release": "v2",
	})
}

func TestFilterVarsDropsUnsafeKeys(t *testing.T) {
	filtered := FilterVars(map[string]interface{}{
		"ok_key":    "value",
		"_leading":  "value",
		"9starts":   "value",
		"has-dash":  "value",
		"has space": "value",
		"":          "value",
	})
	assert.DeepEqual(t, filtered, map[string]interface{}{
		"ok_key":   "value",
		"_leading": "value",
	})
}

func TestFilterVarsDropsUnsafeValues(t *testing.T) {
	filtered := FilterVars(map[string]interface{}{
		"str":   "v",
		"num":   42,
		"flt":   1.5,
		"flag":  true,
		"list":  []interface{}{"a", 1, false},
		"chan":  make(chan int),
		"fn":    func() {},
		"bytes": []byte("raw"),
	})
	assert.DeepEqual(t, filtered["str"], "v")
	assert.DeepEqual(t, filtered["num"], 42)
	assert.DeepEqual(t, filtered["flag"], true)
	assert.DeepEqual(t, filtered["list"], []interface{}{"a", 1, false})
	_, hasChan := filtered["chan"]
	_, hasFn := filtered["fn"]
	_, hasBytes := filtered["bytes"]
	assert.Assert(t, !hasChan && !hasFn && !hasBytes)
}

func TestFilterVarsNestedMaps(t *testing.T) {
	filtered := FilterVars(map[string]interface{}{
		"nested": map[string]interface{}{
			"inner": map[string]interface{}{"deep": 1},
		},
		"bad_inner_key": map[string]interface{}{"not ok": 1},
		"bad_inner_val": map[string]interface{}{"f": func() {}},
	})
	assert.DeepEqual(t, filtered, map[string]interface{}{
		"nested": map[string]interface{}{
			"inner": map[string]interface{}{"deep": 1},
		},
	})
}

func TestFilterVarsRejectsContainersInsideLists(t *testing.T) {
	filtered := FilterVars(map[string]interface{}{
		"map_in_list":  []interface{}{map[string]interface{}{"k": 1}},
		"list_in_list": []interface{}{[]interface{}{"a"}},
		"flat":         []interface{}{"a", "b"},
	})
	assert.DeepEqual(t, filtered, map[string]interface{}{
		"flat": []interface{}{"a", "b"},
	})
}
