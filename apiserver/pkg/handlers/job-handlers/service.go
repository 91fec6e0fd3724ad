/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package jobhandlers

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"k8s.io/klog/v2"

	"github.com/labforge/homeops/common/pkg/constvar"
	"github.com/labforge/homeops/common/pkg/crypto"
	dbclient "github.com/labforge/homeops/common/pkg/database/client"
	dbutils "github.com/labforge/homeops/common/pkg/database/utils"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/executors"
	"github.com/labforge/homeops/common/pkg/pubsub"
	"github.com/labforge/homeops/common/pkg/redact"
	"github.com/labforge/homeops/common/pkg/workflow"
)

const apiActor = "api"

// Service handles the business logic for standalone jobs: validation,
// persistence and queue dispatch. Workflow-owned jobs are created by
// the engine; the service only touches them for cancellation.
type Service struct {
	store    dbclient.Interface
	registry *executors.Registry
	cipher   *crypto.Crypto
	engine   *workflow.Engine
	bus      *pubsub.Bus
}

func NewService(store dbclient.Interface, registry *executors.Registry, cipher *crypto.Crypto,
	engine *workflow.Engine, bus *pubsub.Bus) *Service {
	return &Service{
		store:    store,
		registry: registry,
		cipher:   cipher,
		engine:   engine,
		bus:      bus,
	}
}

// Create validates the request, writes a PENDING job and enqueues it.
// A dispatch failure is recorded on the row before the error goes back
// to the caller.
func (s *Service) Create(ctx context.Context, req *CreateJobReq) (*dbclient.Job, error) {
	if err := s.validateCreate(ctx, req); err != nil {
		return nil, err
	}

	var vaultId sql.NullInt64
	if req.VaultSecretId != nil {
		vaultId = dbutils.NullInt64(*req.VaultSecretId)
	}
	job := &dbclient.Job{
		ExecutorType:    req.ExecutorType,
		ActionName:      req.ActionName,
		ActionConfig:    encodeVars(req.ActionConfig),
		ExtraVars:       encodeVars(req.ExtraVars),
		PrimaryDeviceId: req.DeviceIds[0],
		DeviceIds:       secondaryDevices(req.DeviceIds),
		VaultSecretId:   vaultId,
	}
	id, err := s.store.InsertJob(ctx, job)
	if err != nil {
		return nil, err
	}
	job.Id = id

	if err := s.dispatch(ctx, job); err != nil {
		s.failDispatch(ctx, job, err)
		return nil, err
	}
	return s.store.GetJob(ctx, id)
}

// Cancel stops one job. A PENDING job flips to CANCELLED directly; a
// RUNNING job gets the cooperative flag for its worker to observe.
func (s *Service) Cancel(ctx context.Context, id int64) (*dbclient.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	status := constvar.JobStatus(job.Status)
	if status.Terminal() {
		return nil, commonerrors.NewConflictWithReason(commonerrors.JobNotPending,
			fmt.Sprintf("job %d is %s and cannot be cancelled", id, job.Status))
	}
	if status == constvar.JobStatusRunning {
		return s.requestCancel(ctx, id)
	}

	now := time.Now()
	err = s.store.TransitionJob(ctx, id, constvar.JobStatusPending, constvar.JobStatusCancelled,
		&dbclient.JobMutation{CancelledAt: &now}, apiActor)
	if err != nil {
		if commonerrors.IsConflict(err) {
			// Claimed between the read and the write; flag it for the
			// worker instead.
			return s.requestCancel(ctx, id)
		}
		return nil, err
	}
	s.closeStream(ctx, id, constvar.JobStatusCancelled, job.Progress)
	s.notifyEngine(ctx, job)
	return s.store.GetJob(ctx, id)
}

// Rerun clones the spec fields of a terminal job into a fresh PENDING
// job and enqueues it. The clone is standalone even when the source
// belonged to a workflow.
func (s *Service) Rerun(ctx context.Context, id int64) (*dbclient.Job, error) {
	source, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if !constvar.JobStatus(source.Status).Terminal() {
		return nil, commonerrors.NewConflictWithReason(commonerrors.JobNotTerminal,
			fmt.Sprintf("job %d is %s; only a finished job can be rerun", id, source.Status))
	}

	clone := &dbclient.Job{
		ExecutorType:    source.ExecutorType,
		ActionName:      source.ActionName,
		ActionConfig:    source.ActionConfig,
		ExtraVars:       source.ExtraVars,
		PrimaryDeviceId: source.PrimaryDeviceId,
		DeviceIds:       append(pq.Int64Array(nil), source.DeviceIds...),
		VaultSecretId:   source.VaultSecretId,
	}
	cloneId, err := s.store.InsertJob(ctx, clone)
	if err != nil {
		return nil, err
	}
	clone.Id = cloneId

	if err := s.dispatch(ctx, clone); err != nil {
		s.failDispatch(ctx, clone, err)
		return nil, err
	}
	return s.store.GetJob(ctx, cloneId)
}

func (s *Service) validateCreate(ctx context.Context, req *CreateJobReq) error {
	if _, err := s.registry.Get(req.ExecutorType); err != nil {
		return err
	}
	if err := executors.ValidateActionName(req.ActionName); err != nil {
		return err
	}
	if len(req.DeviceIds) == 0 {
		return commonerrors.NewBadRequest("at least one device id is required")
	}
	devices, err := s.store.GetDevices(ctx, req.DeviceIds)
	if err != nil {
		return err
	}
	if len(devices) != len(req.DeviceIds) {
		return commonerrors.NewNotFound(commonerrors.KindDevice, missingDeviceIds(req.DeviceIds, devices))
	}
	for _, device := range devices {
		if net.ParseIP(device.IpAddress) == nil {
			return commonerrors.NewBadRequest(fmt.Sprintf("device %d has an unparseable address %q", device.Id, device.IpAddress))
		}
	}
	if req.VaultSecretId != nil {
		if _, err := s.store.GetVaultSecret(ctx, *req.VaultSecretId); err != nil {
			return err
		}
	}
	return nil
}

// dispatch resolves devices and the optional vault secret, then
// enqueues through the job's executor. The decrypted password lives
// only in the dispatch parameters.
func (s *Service) dispatch(ctx context.Context, job *dbclient.Job) error {
	executor, err := s.registry.Get(job.ExecutorType)
	if err != nil {
		return err
	}
	password := ""
	if job.VaultSecretId.Valid {
		secret, err := s.store.GetVaultSecret(ctx, job.VaultSecretId.Int64)
		if err != nil {
			return err
		}
		plain, err := s.cipher.Decrypt(secret.EncryptedContent)
		if err != nil {
			return err
		}
		password = plain
	}
	primary, err := s.store.GetDevice(ctx, job.PrimaryDeviceId)
	if err != nil {
		return err
	}
	var targets []executors.Target
	if len(job.DeviceIds) > 0 {
		devices, err := s.store.GetDevices(ctx, job.DeviceIds)
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
		ExtraVars:     decodeVars(job.ExtraVars),
		VaultPassword: password,
	})
	if err != nil {
		return err
	}
	if err := s.store.SetJobWorkerTask(ctx, job.Id, handle); err != nil {
		klog.ErrorS(err, "Failed to record the worker task id", "jobId", job.Id)
	}
	klog.V(2).InfoS("Dispatched job", "jobId", job.Id, "action", job.ActionName)
	return nil
}

// failDispatch records a dispatch failure on the row. The caller still
// receives the original error.
func (s *Service) failDispatch(ctx context.Context, job *dbclient.Job, dispatchErr error) {
	klog.ErrorS(dispatchErr, "Failed to dispatch job", "jobId", job.Id)
	now := time.Now()
	category := dispatchCategory(dispatchErr)
	output := redact.Redact(dispatchErr.Error())
	err := s.store.TransitionJob(ctx, job.Id, constvar.JobStatusPending, constvar.JobStatusFailed,
		&dbclient.JobMutation{ErrorCategory: &category, LogOutput: &output, CompletedAt: &now}, apiActor)
	if err != nil {
		klog.ErrorS(err, "Failed to record the dispatch failure", "jobId", job.Id)
	}
}

func (s *Service) requestCancel(ctx context.Context, id int64) (*dbclient.Job, error) {
	if err := s.store.RequestJobCancel(ctx, id); err != nil {
		return nil, err
	}
	return s.store.GetJob(ctx, id)
}

func (s *Service) closeStream(ctx context.Context, jobID int64, status constvar.JobStatus, progress int) {
	if err := s.bus.PublishSentinel(ctx, jobID); err != nil {
		klog.ErrorS(err, "Failed to publish the stream sentinel", "jobId", jobID)
	}
	if err := s.bus.PublishStatus(ctx, jobID, status, progress); err != nil {
		klog.ErrorS(err, "Failed to publish the final status", "jobId", jobID)
	}
}

func (s *Service) notifyEngine(ctx context.Context, job *dbclient.Job) {
	if !job.WorkflowInstanceId.Valid {
		return
	}
	if err := s.engine.OnJobComplete(ctx, job.Id); err != nil {
		klog.ErrorS(err, "Workflow callback failed", "jobId", job.Id,
			"instanceId", job.WorkflowInstanceId.Int64)
	}
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

func secondaryDevices(ids []int64) pq.Int64Array {
	if len(ids) <= 1 {
		return nil
	}
	return pq.Int64Array(append([]int64(nil), ids[1:]...))
}

func missingDeviceIds(requested []int64, found []*dbclient.Device) string {
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
