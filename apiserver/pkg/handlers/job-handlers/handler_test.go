/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package jobhandlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonconfig "github.com/labforge/homeops/common/pkg/config"
	"github.com/labforge/homeops/common/pkg/constvar"
	"github.com/labforge/homeops/common/pkg/crypto"
	dbclient "github.com/labforge/homeops/common/pkg/database/client"
	mock_client "github.com/labforge/homeops/common/pkg/database/client/mock"
	dbutils "github.com/labforge/homeops/common/pkg/database/utils"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/executors"
	"github.com/labforge/homeops/common/pkg/pubsub"
	"github.com/labforge/homeops/common/pkg/queue"
	"github.com/labforge/homeops/common/pkg/workflow"
)

const (
	testJobID    = int64(301)
	testDeviceID = int64(5)
)

const testPlaybook = `- name: ping
  tasks:
    - name: ping the host
`

type jobFixture struct {
	store  *mock_client.MockInterface
	queue  *queue.Client
	bus    *pubsub.Bus
	router *gin.Engine
}

func newJobFixture(t *testing.T) *jobFixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	store := mock_client.NewMockInterface(ctrl)

	mr := miniredis.RunT(t)
	q, err := queue.NewClient(&commonconfig.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	bus, err := pubsub.NewBus(&commonconfig.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ping.yml"), []byte(testPlaybook), 0o644))
	registry := executors.NewRegistry(executors.NewAnsibleExecutor(&commonconfig.AnsibleConfig{
		ActionDir:  dir,
		Extensions: []string{".yml"},
	}, q))

	cipher, err := crypto.NewCrypto("job-handler-test-key")
	require.NoError(t, err)
	engine := workflow.NewEngine(store, registry, cipher)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	InitJobRouters(router, NewHandler(store, registry, cipher, engine, bus))

	return &jobFixture{store: store, queue: q, bus: bus, router: router}
}

func (f *jobFixture) perform(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rsp := httptest.NewRecorder()
	f.router.ServeHTTP(rsp, req)
	return rsp
}

func (f *jobFixture) claim(t *testing.T) *queue.Message {
	t.Helper()
	msg, err := f.queue.Claim(context.Background(), "job-handler-test", 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, msg)
	return msg
}

func receive(t *testing.T, sub *pubsub.Subscription) *redis.Message {
	t.Helper()
	select {
	case msg := <-sub.Messages():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a published message")
		return nil
	}
}

func testDevice() *dbclient.Device {
	return &dbclient.Device{Id: testDeviceID, Name: "node-a", IpAddress: "192.168.1.20"}
}

func pendingJob() *dbclient.Job {
	return &dbclient.Job{
		Id:              testJobID,
		ExecutorType:    constvar.ExecutorTypeAnsible,
		ActionName:      "ping",
		PrimaryDeviceId: testDeviceID,
		Status:          string(constvar.JobStatusPending),
		CreatedAt:       dbutils.NullTime(time.Now().UTC()),
	}
}

func TestCreateJob(t *testing.T) {
	f := newJobFixture(t)

	f.store.EXPECT().GetDevices(gomock.Any(), []int64{testDeviceID}).
		Return([]*dbclient.Device{testDevice()}, nil)
	var inserted *dbclient.Job
	f.store.EXPECT().InsertJob(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job *dbclient.Job) (int64, error) {
			inserted = job
			return testJobID, nil
		})
	f.store.EXPECT().GetDevice(gomock.Any(), testDeviceID).Return(testDevice(), nil)
	f.store.EXPECT().SetJobWorkerTask(gomock.Any(), testJobID, gomock.Any()).Return(nil)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(pendingJob(), nil)

	rsp := f.perform(http.MethodPost, "/api/v1/automation/jobs",
		`{"executor_type":"ansible","action_name":"ping","device_ids":[5],"extra_vars":{"retries":3}}`)
	assert.Equal(t, http.StatusOK, rsp.Code)
	assert.Contains(t, rsp.Body.String(), `"id":301`)
	assert.Contains(t, rsp.Body.String(), `"device_ids":[5]`)

	require.NotNil(t, inserted)
	assert.Equal(t, "ping", inserted.ActionName)
	assert.Equal(t, testDeviceID, inserted.PrimaryDeviceId)
	assert.Equal(t, 0, len(inserted.DeviceIds))
	assert.False(t, inserted.WorkflowInstanceId.Valid)

	msg := f.claim(t)
	assert.Equal(t, testJobID, msg.Task.JobID)
	assert.Equal(t, "ping", msg.Task.ActionName)
	assert.Equal(t, "192.168.1.20", msg.Task.PrimaryIP)
	assert.Equal(t, 1, msg.Task.Attempt)
	assert.Equal(t, float64(3), msg.Task.ExtraVars["retries"])
}

func TestCreateJobMultiTarget(t *testing.T) {
	f := newJobFixture(t)
	second := &dbclient.Device{Id: 6, Name: "node-b", IpAddress: "192.168.1.21"}

	f.store.EXPECT().GetDevices(gomock.Any(), []int64{testDeviceID, 6}).
		Return([]*dbclient.Device{testDevice(), second}, nil)
	f.store.EXPECT().InsertJob(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job *dbclient.Job) (int64, error) {
			assert.Equal(t, testDeviceID, job.PrimaryDeviceId)
			assert.Equal(t, pq.Int64Array{6}, job.DeviceIds)
			return testJobID, nil
		})
	f.store.EXPECT().GetDevice(gomock.Any(), testDeviceID).Return(testDevice(), nil)
	f.store.EXPECT().GetDevices(gomock.Any(), []int64{6}).
		Return([]*dbclient.Device{second}, nil)
	f.store.EXPECT().SetJobWorkerTask(gomock.Any(), testJobID, gomock.Any()).Return(nil)
	job := pendingJob()
	job.DeviceIds = pq.Int64Array{6}
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(job, nil)

	rsp := f.perform(http.MethodPost, "/api/v1/automation/jobs",
		`{"executor_type":"ansible","action_name":"ping","device_ids":[5,6]}`)
	assert.Equal(t, http.StatusOK, rsp.Code)
	assert.Contains(t, rsp.Body.String(), `"device_ids":[5,6]`)

	msg := f.claim(t)
	require.Equal(t, 1, len(msg.Task.Devices))
	assert.Equal(t, "192.168.1.21", msg.Task.Devices[0].IP)
}

func TestCreateJobValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{
			name: "unknown executor",
			body: `{"executor_type":"terraform","action_name":"ping","device_ids":[5]}`,
			code: http.StatusNotFound,
		},
		{
			name: "illegal action name",
			body: `{"executor_type":"ansible","action_name":"../etc/passwd","device_ids":[5]}`,
			code: http.StatusBadRequest,
		},
		{
			name: "no devices",
			body: `{"executor_type":"ansible","action_name":"ping"}`,
			code: http.StatusBadRequest,
		},
		{
			name: "malformed body",
			body: `{"executor_type":`,
			code: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newJobFixture(t)
			rsp := f.perform(http.MethodPost, "/api/v1/automation/jobs", tt.body)
			assert.Equal(t, tt.code, rsp.Code)
			assert.Contains(t, rsp.Body.String(), "errorCode")
		})
	}
}

func TestCreateJobReportsMissingDevice(t *testing.T) {
	f := newJobFixture(t)

	f.store.EXPECT().GetDevices(gomock.Any(), []int64{testDeviceID, 99}).
		Return([]*dbclient.Device{testDevice()}, nil)

	rsp := f.perform(http.MethodPost, "/api/v1/automation/jobs",
		`{"executor_type":"ansible","action_name":"ping","device_ids":[5,99]}`)
	assert.Equal(t, http.StatusNotFound, rsp.Code)
	assert.Contains(t, rsp.Body.String(), "99")
}

func TestCreateJobDispatchFailureRecordsIt(t *testing.T) {
	f := newJobFixture(t)

	f.store.EXPECT().GetDevices(gomock.Any(), []int64{testDeviceID}).
		Return([]*dbclient.Device{testDevice()}, nil)
	f.store.EXPECT().InsertJob(gomock.Any(), gomock.Any()).Return(testJobID, nil)
	f.store.EXPECT().GetDevice(gomock.Any(), testDeviceID).Return(testDevice(), nil)
	var mutation *dbclient.JobMutation
	f.store.EXPECT().TransitionJob(gomock.Any(), testJobID,
		constvar.JobStatusPending, constvar.JobStatusFailed, gomock.Any(), apiActor).
		DoAndReturn(func(_ context.Context, _ int64, _, _ constvar.JobStatus,
			m *dbclient.JobMutation, _ string) error {
			mutation = m
			return nil
		})

	// The playbook file for "absent" does not exist, so the executor
	// rejects the dispatch after the row is written.
	rsp := f.perform(http.MethodPost, "/api/v1/automation/jobs",
		`{"executor_type":"ansible","action_name":"absent","device_ids":[5]}`)
	assert.Equal(t, http.StatusNotFound, rsp.Code)

	require.NotNil(t, mutation)
	require.NotNil(t, mutation.ErrorCategory)
	assert.Equal(t, constvar.ErrorCategoryNotFound, *mutation.ErrorCategory)
	require.NotNil(t, mutation.CompletedAt)
}

func TestGetJob(t *testing.T) {
	f := newJobFixture(t)

	job := pendingJob()
	job.Status = string(constvar.JobStatusRunning)
	job.Progress = 40
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(job, nil)

	rsp := f.perform(http.MethodGet, "/api/v1/automation/jobs/301", "")
	assert.Equal(t, http.StatusOK, rsp.Code)
	assert.Contains(t, rsp.Body.String(), `"status":"RUNNING"`)
	assert.Contains(t, rsp.Body.String(), `"progress":40`)
}

func TestGetJobNotFound(t *testing.T) {
	f := newJobFixture(t)

	f.store.EXPECT().GetJob(gomock.Any(), int64(404)).
		Return(nil, commonerrors.NewNotFound(commonerrors.KindJob, "404"))

	rsp := f.perform(http.MethodGet, "/api/v1/automation/jobs/404", "")
	assert.Equal(t, http.StatusNotFound, rsp.Code)
	assert.Contains(t, rsp.Body.String(), commonerrors.JobNotFound)
}

func TestGetJobLogs(t *testing.T) {
	f := newJobFixture(t)

	job := pendingJob()
	job.Status = string(constvar.JobStatusCompleted)
	job.LogOutput = dbutils.NullString("TASK [ping] ok\nPLAY RECAP")
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(job, nil)

	rsp := f.perform(http.MethodGet, "/api/v1/automation/jobs/301/logs", "")
	assert.Equal(t, http.StatusOK, rsp.Code)
	assert.Contains(t, rsp.Body.String(), "PLAY RECAP")
	assert.Contains(t, rsp.Body.String(), `"status":"COMPLETED"`)
}

func TestListJobsFilters(t *testing.T) {
	f := newJobFixture(t)

	var captured sqrl.Sqlizer
	f.store.EXPECT().SelectJobs(gomock.Any(), gomock.Any(),
		[]string{"created_at DESC", "id DESC"}, 10, 10).
		DoAndReturn(func(_ context.Context, query sqrl.Sqlizer, _ []string, _, _ int) ([]*dbclient.Job, error) {
			captured = query
			return []*dbclient.Job{pendingJob()}, nil
		})
	f.store.EXPECT().CountJobs(gomock.Any(), gomock.Any()).Return(25, nil)

	rsp := f.perform(http.MethodGet,
		"/api/v1/automation/jobs?device_id=5&status=pending&page=2&per_page=10", "")
	assert.Equal(t, http.StatusOK, rsp.Code)
	assert.Contains(t, rsp.Body.String(), `"total":25`)

	require.NotNil(t, captured)
	sqlText, args, err := captured.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlText, "ANY(device_ids)")
	assert.Contains(t, args, "PENDING")
	assert.Contains(t, args, testDeviceID)
}

func TestListJobsClampsPerPage(t *testing.T) {
	f := newJobFixture(t)

	f.store.EXPECT().SelectJobs(gomock.Any(), nil, gomock.Any(),
		constvar.MaxPerPage, 0).Return(nil, nil)
	f.store.EXPECT().CountJobs(gomock.Any(), nil).Return(0, nil)

	rsp := f.perform(http.MethodGet, "/api/v1/automation/jobs?per_page=500", "")
	assert.Equal(t, http.StatusOK, rsp.Code)
	assert.Contains(t, rsp.Body.String(), `"items":[]`)
}

func TestCancelPendingJob(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()

	sub, err := f.bus.Subscribe(ctx, testJobID)
	require.NoError(t, err)
	defer sub.Close()

	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(pendingJob(), nil)
	f.store.EXPECT().TransitionJob(gomock.Any(), testJobID,
		constvar.JobStatusPending, constvar.JobStatusCancelled, gomock.Any(), apiActor).
		DoAndReturn(func(_ context.Context, _ int64, _, _ constvar.JobStatus,
			m *dbclient.JobMutation, _ string) error {
			require.NotNil(t, m.CancelledAt)
			return nil
		})
	cancelled := pendingJob()
	cancelled.Status = string(constvar.JobStatusCancelled)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(cancelled, nil)

	rsp := f.perform(http.MethodPost, "/api/v1/automation/jobs/301/cancel", "")
	assert.Equal(t, http.StatusOK, rsp.Code)
	assert.Contains(t, rsp.Body.String(), `"status":"CANCELLED"`)

	// Stream closure publishes the sentinel first, then the status.
	first := receive(t, sub)
	assert.True(t, pubsub.IsSentinel(first.Payload))
	second := receive(t, sub)
	event, ok := pubsub.DecodeStatusEvent(second.Payload)
	require.True(t, ok)
	assert.Equal(t, constvar.JobStatusCancelled, event.Status)
}

func TestCancelRunningJobSetsFlag(t *testing.T) {
	f := newJobFixture(t)

	running := pendingJob()
	running.Status = string(constvar.JobStatusRunning)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(running, nil)
	f.store.EXPECT().RequestJobCancel(gomock.Any(), testJobID).Return(nil)
	flagged := pendingJob()
	flagged.Status = string(constvar.JobStatusRunning)
	flagged.CancelRequested = true
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(flagged, nil)

	rsp := f.perform(http.MethodPost, "/api/v1/automation/jobs/301/cancel", "")
	assert.Equal(t, http.StatusOK, rsp.Code)
	assert.Contains(t, rsp.Body.String(), `"cancel_requested":true`)
}

func TestCancelPendingJobClaimRace(t *testing.T) {
	f := newJobFixture(t)

	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(pendingJob(), nil)
	f.store.EXPECT().TransitionJob(gomock.Any(), testJobID,
		constvar.JobStatusPending, constvar.JobStatusCancelled, gomock.Any(), apiActor).
		Return(commonerrors.NewConflict("job 301 is RUNNING, expected PENDING"))
	f.store.EXPECT().RequestJobCancel(gomock.Any(), testJobID).Return(nil)
	flagged := pendingJob()
	flagged.Status = string(constvar.JobStatusRunning)
	flagged.CancelRequested = true
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(flagged, nil)

	rsp := f.perform(http.MethodPost, "/api/v1/automation/jobs/301/cancel", "")
	assert.Equal(t, http.StatusOK, rsp.Code)
	assert.Contains(t, rsp.Body.String(), `"cancel_requested":true`)
}

func TestCancelTerminalJobConflicts(t *testing.T) {
	f := newJobFixture(t)

	done := pendingJob()
	done.Status = string(constvar.JobStatusCompleted)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(done, nil)

	rsp := f.perform(http.MethodPost, "/api/v1/automation/jobs/301/cancel", "")
	assert.Equal(t, http.StatusConflict, rsp.Code)
	assert.Contains(t, rsp.Body.String(), "COMPLETED")
}

func TestRerunJob(t *testing.T) {
	f := newJobFixture(t)

	source := pendingJob()
	source.Status = string(constvar.JobStatusFailed)
	source.ExtraVars = dbutils.NullString(`{"retries":3}`)
	source.WorkflowInstanceId = sql.NullInt64{Int64: 88, Valid: true}
	source.StepOrder = sql.NullInt64{Int64: 1, Valid: true}
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(source, nil)
	var inserted *dbclient.Job
	f.store.EXPECT().InsertJob(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job *dbclient.Job) (int64, error) {
			inserted = job
			return int64(302), nil
		})
	f.store.EXPECT().GetDevice(gomock.Any(), testDeviceID).Return(testDevice(), nil)
	f.store.EXPECT().SetJobWorkerTask(gomock.Any(), int64(302), gomock.Any()).Return(nil)
	clone := pendingJob()
	clone.Id = 302
	f.store.EXPECT().GetJob(gomock.Any(), int64(302)).Return(clone, nil)

	rsp := f.perform(http.MethodPost, "/api/v1/automation/jobs/301/rerun", "")
	assert.Equal(t, http.StatusOK, rsp.Code)
	assert.Contains(t, rsp.Body.String(), `"id":302`)

	// The clone keeps the spec fields but never the workflow relation.
	require.NotNil(t, inserted)
	assert.Equal(t, "ping", inserted.ActionName)
	assert.Equal(t, `{"retries":3}`, inserted.ExtraVars.String)
	assert.False(t, inserted.WorkflowInstanceId.Valid)
	assert.False(t, inserted.StepOrder.Valid)
	assert.False(t, inserted.IsRollback)

	msg := f.claim(t)
	assert.Equal(t, int64(302), msg.Task.JobID)
}

func TestRerunNonTerminalJobConflicts(t *testing.T) {
	f := newJobFixture(t)

	running := pendingJob()
	running.Status = string(constvar.JobStatusRunning)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(running, nil)

	rsp := f.perform(http.MethodPost, "/api/v1/automation/jobs/301/rerun", "")
	assert.Equal(t, http.StatusConflict, rsp.Code)
	assert.Contains(t, rsp.Body.String(), commonerrors.JobNotTerminal)
}
