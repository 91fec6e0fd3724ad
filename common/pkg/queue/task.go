/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package queue

import (
	"encoding/json"
	"fmt"
)

// Target identifies one device the runner will address.
type Target struct {
	IP   string `json:"ip"`
	Name string `json:"name"`
}

// Task is the dispatch payload carried by a stream entry. It holds
// everything a worker slot needs to execute a job without further API
// calls, including the decrypted vault password when the job references
// a secret. The payload is the only sanctioned carrier for that value;
// it must never be written to the job record, the audit trail, or any
// log line.
type Task struct {
	JobID         int64                  `json:"job_id"`
	ExecutorType  string                 `json:"executor_type"`
	ActionName    string                 `json:"action_name"`
	ActionConfig  string                 `json:"action_config,omitempty"`
	PrimaryIP     string                 `json:"primary_ip"`
	PrimaryName   string                 `json:"primary_name"`
	Devices       []Target               `json:"devices,omitempty"`
	ExtraVars     map[string]interface{} `json:"extra_vars,omitempty"`
	WorkflowVars  map[string]interface{} `json:"workflow_vars,omitempty"`
	StepVars      map[string]interface{} `json:"step_vars,omitempty"`
	VaultPassword string                 `json:"vault_password,omitempty"`

	// Attempt counts deliveries of this job, starting at 1. Retries
	// re-enqueue with Attempt+1; the count lives here, not in the
	// job record.
	Attempt int `json:"attempt"`
}

// Message pairs a decoded task with its stream entry id. The id doubles
// as the job's worker_task_id and as the ack handle.
type Message struct {
	ID   string
	Task *Task
}

const taskField = "task"

func encodeTask(task *Task) (map[string]interface{}, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task for job %d: %v", task.JobID, err)
	}
	return map[string]interface{}{taskField: string(data)}, nil
}

func decodeTask(values map[string]interface{}) (*Task, error) {
	raw, ok := values[taskField].(string)
	if !ok {
		return nil, fmt.Errorf("stream entry has no %s field", taskField)
	}
	task := &Task{}
	if err := json.Unmarshal([]byte(raw), task); err != nil {
		return nil, fmt.Errorf("failed to decode task payload: %v", err)
	}
	return task, nil
}
