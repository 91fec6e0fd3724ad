/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package streamhandlers

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonconfig "github.com/labforge/homeops/common/pkg/config"
	"github.com/labforge/homeops/common/pkg/constvar"
	dbclient "github.com/labforge/homeops/common/pkg/database/client"
	mock_client "github.com/labforge/homeops/common/pkg/database/client/mock"
	dbutils "github.com/labforge/homeops/common/pkg/database/utils"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/common/pkg/pubsub"
)

const testJobID = int64(77)

type streamFixture struct {
	store  *mock_client.MockInterface
	bus    *pubsub.Bus
	server *httptest.Server
}

func newStreamFixture(t *testing.T) *streamFixture {
	t.Helper()
	gin.SetMode(gin.ReleaseMode)

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	store := mock_client.NewMockInterface(ctrl)

	mr := miniredis.RunT(t)
	bus, err := pubsub.NewBus(&commonconfig.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })

	router := gin.New()
	InitStreamRouters(router, NewHandler(store, bus))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &streamFixture{store: store, bus: bus, server: server}
}

// open issues the streaming request with a test-scoped deadline so a
// missing event fails instead of hanging.
func (f *streamFixture) open(t *testing.T, path string) *http.Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type sseEvent struct {
	name string
	data string
}

// readEvent consumes one event from the stream, skipping heartbeat
// comments.
func readEvent(t *testing.T, reader *bufio.Reader) sseEvent {
	t.Helper()
	event := sseEvent{}
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event.name != "" || event.data != "" {
				return event
			}
		case strings.HasPrefix(line, ":"):
			continue
		case strings.HasPrefix(line, "event:"):
			event.name = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			event.data += strings.TrimPrefix(line, "data:")
		}
	}
}

func runningJob() *dbclient.Job {
	return &dbclient.Job{
		Id:              testJobID,
		ExecutorType:    constvar.ExecutorTypeAnsible,
		ActionName:      "ping",
		PrimaryDeviceId: 5,
		Status:          string(constvar.JobStatusRunning),
		Progress:        10,
	}
}

func completedJob() *dbclient.Job {
	return &dbclient.Job{
		Id:              testJobID,
		ExecutorType:    constvar.ExecutorTypeAnsible,
		ActionName:      "ping",
		PrimaryDeviceId: 5,
		Status:          string(constvar.JobStatusCompleted),
		Progress:        100,
		LogOutput:       dbutils.NullString("TASK [ping]\nok: [node1]\n"),
	}
}

func TestStreamRelaysLiveOutput(t *testing.T) {
	f := newStreamFixture(t)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(runningJob(), nil)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(completedJob(), nil)

	resp := f.open(t, "/api/v1/automation/jobs/77/logs/stream")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)

	event := readEvent(t, reader)
	require.Equal(t, "status", event.name)
	assert.Contains(t, event.data, `"RUNNING"`)

	// The handler subscribed before writing the snapshot, so nothing
	// published from here on can be missed.
	ctx := context.Background()
	require.NoError(t, f.bus.PublishLine(ctx, testJobID, "TASK [ping]"))
	require.NoError(t, f.bus.PublishStatus(ctx, testJobID, constvar.JobStatusRunning, 50))
	require.NoError(t, f.bus.PublishSentinel(ctx, testJobID))

	event = readEvent(t, reader)
	require.Equal(t, "log", event.name)
	assert.Equal(t, "TASK [ping]", event.data)

	event = readEvent(t, reader)
	require.Equal(t, "status", event.name)
	assert.Contains(t, event.data, `"progress":50`)

	event = readEvent(t, reader)
	require.Equal(t, "complete", event.name)
	assert.Contains(t, event.data, `"COMPLETED"`)

	_, err := reader.ReadByte()
	assert.Equal(t, io.EOF, err)
}

func TestStreamTerminalJobWithReplay(t *testing.T) {
	f := newStreamFixture(t)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(completedJob(), nil)

	resp := f.open(t, "/api/v1/automation/jobs/77/logs/stream?replay=true")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, "data:TASK [ping]")
	assert.Contains(t, text, "data:ok: [node1]")
	assert.Contains(t, text, "event:complete")
	assert.Contains(t, text, `"status":"COMPLETED"`)
	// History precedes the state snapshot.
	assert.Less(t, strings.Index(text, "data:TASK [ping]"), strings.Index(text, "event:status"))
}

func TestStreamTerminalJobWithoutReplay(t *testing.T) {
	f := newStreamFixture(t)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(completedJob(), nil)

	resp := f.open(t, "/api/v1/automation/jobs/77/logs/stream")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.NotContains(t, text, "TASK [ping]")
	assert.Contains(t, text, "event:status")
	assert.Contains(t, text, "event:complete")
}

func TestStreamUnknownJob(t *testing.T) {
	f := newStreamFixture(t)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(
		nil, commonerrors.NewNotFound(commonerrors.KindJob, "77"))

	resp := f.open(t, "/api/v1/automation/jobs/77/logs/stream")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), commonerrors.JobNotFound)
}

func (f *streamFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/v1/automation/jobs/77/logs/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) *streamFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	frame := &streamFrame{}
	require.NoError(t, conn.ReadJSON(frame))
	return frame
}

func TestWebsocketStreamRelaysLiveOutput(t *testing.T) {
	f := newStreamFixture(t)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(runningJob(), nil)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(completedJob(), nil)

	conn := f.dial(t)

	frame := readFrame(t, conn)
	require.Equal(t, "status", frame.Type)
	assert.Equal(t, constvar.JobStatusRunning, frame.Status)
	assert.Equal(t, 10, frame.Progress)

	ctx := context.Background()
	require.NoError(t, f.bus.PublishLine(ctx, testJobID, "ok: [node1]"))
	require.NoError(t, f.bus.PublishSentinel(ctx, testJobID))

	frame = readFrame(t, conn)
	require.Equal(t, "log", frame.Type)
	assert.Equal(t, "ok: [node1]", frame.Line)

	frame = readFrame(t, conn)
	require.Equal(t, "complete", frame.Type)
	assert.Equal(t, constvar.JobStatusCompleted, frame.Status)
	assert.Equal(t, 100, frame.Progress)

	_, _, err := conn.ReadMessage()
	closeErr := &websocket.CloseError{}
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
}

func TestWebsocketStreamTerminalJob(t *testing.T) {
	f := newStreamFixture(t)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(completedJob(), nil)

	conn := f.dial(t)

	frame := readFrame(t, conn)
	require.Equal(t, "status", frame.Type)
	assert.Equal(t, constvar.JobStatusCompleted, frame.Status)

	frame = readFrame(t, conn)
	require.Equal(t, "complete", frame.Type)
	assert.Equal(t, 100, frame.Progress)

	_, _, err := conn.ReadMessage()
	closeErr := &websocket.CloseError{}
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
}

func TestWebsocketStreamUnknownJob(t *testing.T) {
	f := newStreamFixture(t)
	f.store.EXPECT().GetJob(gomock.Any(), testJobID).Return(
		nil, commonerrors.NewNotFound(commonerrors.KindJob, "77"))

	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/v1/automation/jobs/77/logs/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	if conn != nil {
		_ = conn.Close()
	}
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
