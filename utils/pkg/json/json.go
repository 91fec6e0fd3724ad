/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package json

import (
	"bytes"
	"encoding/json"
)

// Unmarshal parses the JSON-encoded data and stores the result in the value pointed to by v.
func Unmarshal(data []byte, v interface{}) error {
	d := json.NewDecoder(bytes.NewReader(data))
	if err := d.Decode(v); err != nil {
		return err
	}
	return nil
}

// UnmarshalString parses a JSON string into v. An empty string is a no-op.
func UnmarshalString(data string, v interface{}) error {
	if data == "" {
		return nil
	}
	return Unmarshal([]byte(data), v)
}

// MarshalSilently converts the given value to its JSON representation.
func MarshalSilently(v interface{}) []byte {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// MarshalToString converts the given value to a JSON string, returning
// "" when the value is nil or cannot be marshalled.
func MarshalToString(v interface{}) string {
	return string(MarshalSilently(v))
}
