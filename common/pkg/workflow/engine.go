/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"k8s.io/klog/v2"

	"github.com/labforge/homeops/common/pkg/constvar"
	"github.com/labforge/homeops/common/pkg/crypto"
	"github.com/labforge/homeops/common/pkg/database/client"
	dbutils "github.com/labforge/homeops/common/pkg/database/utils"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/executors"
	"github.com/labforge/homeops/common/pkg/redact"
	jsonutils "github.com/labforge/homeops/utils/pkg/json"
)

const engineActor = "engine"

const (
	rollbackFailedMessage    = "Rollback failed"
	noRollbackActionsMessage = "Workflow failed, no rollback actions defined"
)

// Engine turns workflow templates into job graphs and drives them to a
// terminal state. It holds no state of its own; every decision reads
// the store, so any process hosting the engine can pick up a callback.
type Engine struct {
	store    client.Interface
	registry *executors.Registry
	cipher   *crypto.Crypto
}

// NewEngine wires the engine to its collaborators.
func NewEngine(store client.Interface, registry *executors.Registry, cipher *crypto.Crypto) *Engine {
	return &Engine{store: store, registry: registry, cipher: cipher}
}

// StartRequest carries the parameters of one workflow run.
type StartRequest struct {
	DeviceIds         []int64
	RollbackOnFailure bool
	ExtraVars         map[string]interface{}
	VaultSecretId     *int64
	Actor             string
}

// Start snapshots the template into a new instance, creates one PENDING
// job per step and dispatches every step without dependencies. The
// instance is returned even when the first dispatch fails; the failure
// path has then already recorded the outcome.
func (e *Engine) Start(ctx context.Context, templateID int64, req *StartRequest) (*client.WorkflowInstance, error) {
	if req == nil {
		return nil, commonerrors.NewBadRequest("the start request is required")
	}
	actor := req.Actor
	if actor == "" {
		actor = engineActor
	}
	template, err := e.store.GetWorkflowTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	steps, err := ParseSteps(template.Steps)
	if err != nil || len(steps) == 0 {
		return nil, commonerrors.NewInternalError(fmt.Sprintf("the steps of workflow template %d cannot be parsed", templateID))
	}
	if len(req.DeviceIds) == 0 {
		return nil, commonerrors.NewBadRequest("at least one device is required")
	}
	devices, err := e.store.GetDevices(ctx, req.DeviceIds)
	if err != nil {
		return nil, err
	}
	if len(devices) != len(req.DeviceIds) {
		return nil, commonerrors.NewNotFound(commonerrors.KindDevice, missingDeviceIds(req.DeviceIds, devices))
	}
	for _, device := range devices {
		if net.ParseIP(device.IpAddress) == nil {
			return nil, commonerrors.NewBadRequest(fmt.Sprintf("device %d has an unparseable address %q", device.Id, device.IpAddress))
		}
	}
	var vaultId sql.NullInt64
	if req.VaultSecretId != nil {
		if _, err := e.store.GetVaultSecret(ctx, *req.VaultSecretId); err != nil {
			return nil, err
		}
		vaultId = dbutils.NullInt64(*req.VaultSecretId)
	}

	instanceID, err := e.store.InsertWorkflowInstance(ctx, &client.WorkflowInstance{
		TemplateId:        dbutils.NullInt64(templateID),
		TemplateSnapshot:  template.Steps,
		DeviceIds:         pq.Int64Array(req.DeviceIds),
		RollbackOnFailure: req.RollbackOnFailure,
		ExtraVars:         encodeVars(req.ExtraVars),
	})
	if err != nil {
		return nil, err
	}

	// Ascending creation order guarantees every dependency's job id is
	// known when the dependent row is written.
	sorted := append([]Step(nil), steps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	jobIDByOrder := make(map[int]int64, len(sorted))
	for _, step := range sorted {
		deps := make(pq.Int64Array, 0, len(step.DependsOn))
		for _, dep := range step.DependsOn {
			deps = append(deps, jobIDByOrder[dep])
		}
		jobID, err := e.store.InsertJob(ctx, &client.Job{
			ExecutorType:       step.ExecutorType,
			ActionName:         step.ActionName,
			ActionConfig:       encodeVars(step.ActionConfig),
			ExtraVars:          encodeVars(step.ExtraVars),
			PrimaryDeviceId:    req.DeviceIds[0],
			DeviceIds:          secondaryDevices(req.DeviceIds),
			VaultSecretId:      vaultId,
			WorkflowInstanceId: dbutils.NullInt64(instanceID),
			StepOrder:          sql.NullInt64{Int64: int64(step.Order), Valid: true},
			DependsOnJobIds:    deps,
			IsRollback:         false,
		})
		if err != nil {
			return nil, err
		}
		jobIDByOrder[step.Order] = jobID
	}

	now := time.Now()
	err = e.store.TransitionWorkflowInstance(ctx, instanceID, constvar.WorkflowStatusPending, constvar.WorkflowStatusRunning,
		&client.WorkflowInstanceMutation{StartedAt: &now}, actor)
	if err != nil {
		return nil, err
	}
	instance, err := e.store.GetWorkflowInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if err := e.advance(ctx, instance); err != nil {
		klog.ErrorS(err, "Failed to advance workflow instance after start", "instanceId", instanceID)
	}
	return instance, nil
}

// OnJobComplete is the worker's callback for a terminal job. Late
// callbacks into a terminal instance are no-ops.
func (e *Engine) OnJobComplete(ctx context.Context, jobID int64) error {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if !job.WorkflowInstanceId.Valid {
		return nil
	}
	if !constvar.JobStatus(job.Status).Terminal() {
		return nil
	}
	instance, err := e.store.GetWorkflowInstance(ctx, job.WorkflowInstanceId.Int64)
	if err != nil {
		return err
	}
	status := constvar.WorkflowStatus(instance.Status)
	if status.Terminal() {
		return nil
	}
	if status == constvar.WorkflowStatusRollingBack {
		return e.continueRollback(ctx, instance, job)
	}
	if status != constvar.WorkflowStatusRunning {
		return nil
	}
	switch constvar.JobStatus(job.Status) {
	case constvar.JobStatusCompleted:
		return e.advance(ctx, instance)
	case constvar.JobStatusCancelled:
		// Cancellation is an operator intent, not a failure; the
		// instance follows without rolling back.
		now := time.Now()
		return e.store.TransitionWorkflowInstance(ctx, instance.Id, constvar.WorkflowStatusRunning, constvar.WorkflowStatusCancelled,
			&client.WorkflowInstanceMutation{CompletedAt: &now}, engineActor)
	case constvar.JobStatusFailed:
		return e.handleJobFailure(ctx, instance, job)
	}
	return nil
}

// Cancel stops a PENDING or RUNNING instance. Pending jobs flip to
// CANCELLED directly; running jobs get the cancel flag for their worker
// to observe.
func (e *Engine) Cancel(ctx context.Context, instanceID int64, actor string) error {
	if actor == "" {
		actor = engineActor
	}
	instance, err := e.store.GetWorkflowInstance(ctx, instanceID)
	if err != nil {
		return err
	}
	from := constvar.WorkflowStatus(instance.Status)
	if from != constvar.WorkflowStatusPending && from != constvar.WorkflowStatusRunning {
		return commonerrors.NewConflictWithReason(commonerrors.WorkflowNotCancellable,
			fmt.Sprintf("workflow instance %d is %s and cannot be cancelled", instanceID, instance.Status))
	}
	jobs, err := e.store.ListInstanceJobs(ctx, instanceID)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, job := range jobs {
		switch constvar.JobStatus(job.Status) {
		case constvar.JobStatusPending:
			err := e.store.TransitionJob(ctx, job.Id, constvar.JobStatusPending, constvar.JobStatusCancelled,
				&client.JobMutation{CancelledAt: &now}, actor)
			if err == nil {
				continue
			}
			if !commonerrors.IsConflict(err) {
				return err
			}
			// Claimed between the list and the write; flag it for the
			// worker instead.
			if err := e.store.RequestJobCancel(ctx, job.Id); err != nil && !commonerrors.IsConflict(err) {
				return err
			}
		case constvar.JobStatusRunning:
			if err := e.store.RequestJobCancel(ctx, job.Id); err != nil && !commonerrors.IsConflict(err) {
				return err
			}
		}
	}
	return e.store.TransitionWorkflowInstance(ctx, instanceID, from, constvar.WorkflowStatusCancelled,
		&client.WorkflowInstanceMutation{CompletedAt: &now}, actor)
}

// advance completes the instance when every non-rollback job succeeded,
// otherwise dispatches newly ready jobs in step order.
func (e *Engine) advance(ctx context.Context, instance *client.WorkflowInstance) error {
	jobs, err := e.store.ListInstanceJobs(ctx, instance.Id)
	if err != nil {
		return err
	}
	allDone := true
	completed := make(map[int64]bool)
	for _, job := range jobs {
		if job.IsRollback {
			continue
		}
		if constvar.JobStatus(job.Status) == constvar.JobStatusCompleted {
			completed[job.Id] = true
		} else {
			allDone = false
		}
	}
	if allDone {
		now := time.Now()
		return e.store.TransitionWorkflowInstance(ctx, instance.Id, constvar.WorkflowStatusRunning, constvar.WorkflowStatusCompleted,
			&client.WorkflowInstanceMutation{CompletedAt: &now}, engineActor)
	}
	for _, job := range jobs {
		if job.IsRollback || !isUndispatched(job) || !depsSatisfied(job, completed) {
			continue
		}
		if err := e.dispatchJob(ctx, instance, job); err != nil {
			return e.failDispatch(ctx, instance, job, err)
		}
	}
	return nil
}

// handleJobFailure either fails the instance with the step's error
// message or enters the rollback phase.
func (e *Engine) handleJobFailure(ctx context.Context, instance *client.WorkflowInstance, job *client.Job) error {
	if !instance.RollbackOnFailure {
		message := fmt.Sprintf("Step %d (%s) failed", job.StepOrder.Int64, job.ActionName)
		return e.failInstance(ctx, instance.Id, constvar.WorkflowStatusRunning, message)
	}
	return e.enterRollback(ctx, instance)
}

// enterRollback creates the whole compensation plan upfront, one
// rollback job per completed step with a rollback action, ordered by
// negated step order, and dispatches the first. Rollback jobs run
// strictly one at a time.
func (e *Engine) enterRollback(ctx context.Context, instance *client.WorkflowInstance) error {
	steps, err := ParseSteps(instance.TemplateSnapshot)
	if err != nil {
		return commonerrors.NewInternalError(fmt.Sprintf("the snapshot of workflow instance %d cannot be parsed", instance.Id))
	}
	stepByOrder := make(map[int]Step, len(steps))
	for _, step := range steps {
		stepByOrder[step.Order] = step
	}
	jobs, err := e.store.ListInstanceJobs(ctx, instance.Id)
	if err != nil {
		return err
	}
	var candidates []*client.Job
	for _, job := range jobs {
		if job.IsRollback || constvar.JobStatus(job.Status) != constvar.JobStatusCompleted {
			continue
		}
		step, ok := stepByOrder[int(job.StepOrder.Int64)]
		if !ok || step.RollbackAction == "" {
			continue
		}
		candidates = append(candidates, job)
	}
	if len(candidates) == 0 {
		return e.failInstance(ctx, instance.Id, constvar.WorkflowStatusRunning, noRollbackActionsMessage)
	}
	err = e.store.TransitionWorkflowInstance(ctx, instance.Id, constvar.WorkflowStatusRunning, constvar.WorkflowStatusRollingBack, nil, engineActor)
	if err != nil {
		return err
	}
	// Highest completed order is compensated first.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].StepOrder.Int64 > candidates[j].StepOrder.Int64 })
	var first *client.Job
	for _, done := range candidates {
		step := stepByOrder[int(done.StepOrder.Int64)]
		rollback := &client.Job{
			ExecutorType:       done.ExecutorType,
			ActionName:         step.RollbackAction,
			ActionConfig:       done.ActionConfig,
			ExtraVars:          done.ExtraVars,
			PrimaryDeviceId:    done.PrimaryDeviceId,
			DeviceIds:          done.DeviceIds,
			VaultSecretId:      done.VaultSecretId,
			WorkflowInstanceId: dbutils.NullInt64(instance.Id),
			StepOrder:          sql.NullInt64{Int64: -done.StepOrder.Int64, Valid: true},
			IsRollback:         true,
		}
		id, err := e.store.InsertJob(ctx, rollback)
		if err != nil {
			return err
		}
		if first == nil {
			rollback.Id = id
			first = rollback
		}
	}
	if err := e.dispatchJob(ctx, instance, first); err != nil {
		return e.failDispatch(ctx, instance, first, err)
	}
	return nil
}

// continueRollback reacts to a terminal rollback job: failure fails the
// instance, success dispatches the next rollback job or finishes the
// phase.
func (e *Engine) continueRollback(ctx context.Context, instance *client.WorkflowInstance, job *client.Job) error {
	if !job.IsRollback {
		// A pre-rollback job finishing late. The compensation set was
		// fixed when rollback began; the step is not revisited.
		return nil
	}
	if constvar.JobStatus(job.Status) != constvar.JobStatusCompleted {
		return e.failInstance(ctx, instance.Id, constvar.WorkflowStatusRollingBack, rollbackFailedMessage)
	}
	jobs, err := e.store.ListInstanceJobs(ctx, instance.Id)
	if err != nil {
		return err
	}
	var rollbacks []*client.Job
	for _, j := range jobs {
		if j.IsRollback {
			rollbacks = append(rollbacks, j)
		}
	}
	sort.Slice(rollbacks, func(i, j int) bool { return rollbacks[i].StepOrder.Int64 < rollbacks[j].StepOrder.Int64 })
	for _, next := range rollbacks {
		switch constvar.JobStatus(next.Status) {
		case constvar.JobStatusCompleted:
			continue
		case constvar.JobStatusPending:
			if next.WorkerTaskId.Valid {
				// Already in flight; its own callback continues the
				// phase.
				return nil
			}
			if err := e.dispatchJob(ctx, instance, next); err != nil {
				return e.failDispatch(ctx, instance, next, err)
			}
			return nil
		default:
			return nil
		}
	}
	now := time.Now()
	return e.store.TransitionWorkflowInstance(ctx, instance.Id, constvar.WorkflowStatusRollingBack, constvar.WorkflowStatusRolledBack,
		&client.WorkflowInstanceMutation{CompletedAt: &now}, engineActor)
}

// dispatchJob resolves devices and the optional vault secret, then
// enqueues through the job's executor. The decrypted password lives
// only in the dispatch parameters.
func (e *Engine) dispatchJob(ctx context.Context, instance *client.WorkflowInstance, job *client.Job) error {
	executor, err := e.registry.Get(job.ExecutorType)
	if err != nil {
		return err
	}
	password := ""
	if job.VaultSecretId.Valid {
		secret, err := e.store.GetVaultSecret(ctx, job.VaultSecretId.Int64)
		if err != nil {
			return err
		}
		plain, err := e.cipher.Decrypt(secret.EncryptedContent)
		if err != nil {
			return err
		}
		password = plain
	}
	primary, err := e.store.GetDevice(ctx, job.PrimaryDeviceId)
	if err != nil {
		return err
	}
	var targets []executors.Target
	if len(job.DeviceIds) > 0 {
		devices, err := e.store.GetDevices(ctx, job.DeviceIds)
		if err != nil {
			return err
		}
		if len(devices) != len(job.DeviceIds) {
			return commonerrors.NewNotFound(commonerrors.KindDevice, missingDeviceIds(job.DeviceIds, devices))
		}
		for _, device := range devices {
			targets = append(targets, executors.Target{IP: device.IpAddress, Name: device.Name})
		}
	}
	handle, err := executor.Execute(ctx, &executors.ExecuteRequest{
		JobID:         job.Id,
		PrimaryIP:     primary.IpAddress,
		PrimaryName:   primary.Name,
		ActionName:    job.ActionName,
		ActionConfig:  job.ActionConfig.String,
		Devices:       targets,
		WorkflowVars:  decodeVars(instance.ExtraVars),
		StepVars:      decodeVars(job.ExtraVars),
		VaultPassword: password,
	})
	if err != nil {
		return err
	}
	// The handle doubles as the dispatch guard: a pending job with a
	// worker task id is already queued.
	if err := e.store.SetJobWorkerTask(ctx, job.Id, handle); err != nil {
		klog.ErrorS(err, "Failed to record the worker task id", "jobId", job.Id)
	}
	klog.V(2).InfoS("Dispatched workflow job", "instanceId", instance.Id, "jobId", job.Id, "stepOrder", job.StepOrder.Int64)
	return nil
}

// failDispatch records a dispatch failure on the job and runs the
// instance failure path.
func (e *Engine) failDispatch(ctx context.Context, instance *client.WorkflowInstance, job *client.Job, dispatchErr error) error {
	klog.ErrorS(dispatchErr, "Failed to dispatch workflow job", "instanceId", instance.Id, "jobId", job.Id)
	now := time.Now()
	category := dispatchCategory(dispatchErr)
	output := redact.Redact(dispatchErr.Error())
	err := e.store.TransitionJob(ctx, job.Id, constvar.JobStatusPending, constvar.JobStatusFailed,
		&client.JobMutation{ErrorCategory: &category, LogOutput: &output, CompletedAt: &now}, engineActor)
	if err != nil {
		return err
	}
	if job.IsRollback {
		return e.failInstance(ctx, instance.Id, constvar.WorkflowStatusRollingBack, rollbackFailedMessage)
	}
	return e.handleJobFailure(ctx, instance, job)
}

func (e *Engine) failInstance(ctx context.Context, instanceID int64, from constvar.WorkflowStatus, message string) error {
	now := time.Now()
	return e.store.TransitionWorkflowInstance(ctx, instanceID, from, constvar.WorkflowStatusFailed,
		&client.WorkflowInstanceMutation{ErrorMessage: &message, CompletedAt: &now}, engineActor)
}

func isUndispatched(job *client.Job) bool {
	return constvar.JobStatus(job.Status) == constvar.JobStatusPending && !job.WorkerTaskId.Valid
}

func depsSatisfied(job *client.Job, completed map[int64]bool) bool {
	for _, dep := range job.DependsOnJobIds {
		if !completed[dep] {
			return false
		}
	}
	return true
}

func dispatchCategory(err error) constvar.ErrorCategory {
	switch {
	case commonerrors.IsQueueUnavailable(err):
		return constvar.ErrorCategoryQueueUnavailable
	case commonerrors.IsInvalidSecret(err):
		return constvar.ErrorCategoryVaultInvalid
	case commonerrors.IsNotFound(err):
		return constvar.ErrorCategoryNotFound
	case commonerrors.IsBadRequest(err):
		return constvar.ErrorCategoryValidation
	}
	return constvar.ErrorCategoryExecution
}

func encodeVars(vars map[string]interface{}) sql.NullString {
	if len(vars) == 0 {
		return sql.NullString{}
	}
	return dbutils.NullString(jsonutils.MarshalToString(vars))
}

func decodeVars(raw sql.NullString) map[string]interface{} {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	vars := map[string]interface{}{}
	if err := jsonutils.UnmarshalString(raw.String, &vars); err != nil {
		klog.ErrorS(err, "Failed to decode stored vars")
		return nil
	}
	return vars
}

func secondaryDevices(ids []int64) pq.Int64Array {
	if len(ids) <= 1 {
		return nil
	}
	return pq.Int64Array(append([]int64(nil), ids[1:]...))
}

func missingDeviceIds(requested []int64, found []*client.Device) string {
	have := make(map[int64]bool, len(found))
	for _, device := range found {
		have[device.Id] = true
	}
	var missing []string
	for _, id := range requested {
		if !have[id] {
			missing = append(missing, strconv.FormatInt(id, 10))
		}
	}
	return strings.Join(missing, ",")
}
