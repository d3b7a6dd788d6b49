package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/deckhand-io/deckhand/pkg/hub"
	"github.com/deckhand-io/deckhand/pkg/log"
	"github.com/deckhand-io/deckhand/pkg/service"
	"github.com/deckhand-io/deckhand/pkg/storage"
	"github.com/deckhand-io/deckhand/pkg/tracker"
	"github.com/deckhand-io/deckhand/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true, Output: io.Discard})
	os.Exit(m.Run())
}

// fixedSource serves deterministic snapshots for handler tests
type fixedSource struct {
	system     types.SystemStats
	containers []types.ContainerStats
}

func (f *fixedSource) SystemSnapshot(ctx context.Context) (*types.SystemStats, error) {
	stats := f.system
	stats.Timestamp = time.Now()
	return &stats, nil
}

func (f *fixedSource) ContainerSnapshot(ctx context.Context) ([]types.ContainerStats, error) {
	return f.containers, nil
}

func (f *fixedSource) DeploymentSnapshot(ctx context.Context) (*types.DeploymentMetrics, error) {
	return &types.DeploymentMetrics{TotalJobs: 1, SuccessfulJobs: 1, SuccessRate: 100, LastUpdated: time.Now()}, nil
}

func newTestServer(t *testing.T, src *fixedSource) (*Server, *hub.Hub) {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	if src == nil {
		src = &fixedSource{
			system:     types.SystemStats{CPUPercent: 10, MemoryPercent: 20, DiskPercent: 30},
			containers: []types.ContainerStats{{ID: "c1", Name: "web", Status: "running"}},
		}
	}

	trk := tracker.New(store, tracker.WithStepDelay(0))
	h := hub.New(src, trk, hub.DefaultConfig())
	t.Cleanup(h.StopPublishing)
	svc := service.New(trk, h)
	return NewServer(svc, h, src), h
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestDeployEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/deploy", deployRequest{
		Action:      "build",
		Image:       "my-app:latest",
		Environment: "production",
		PortMapping: "8080:80",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	decodeBody(t, rec, &resp)
	assert.Len(t, resp["job_id"], 8)

	status := doJSON(t, router, http.MethodGet, "/api/deployment-status/"+resp["job_id"], nil)
	require.Equal(t, http.StatusOK, status.Code)

	var job types.Job
	decodeBody(t, status, &job)
	assert.Equal(t, types.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
}

func TestDeployInvalidAction(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/deploy", deployRequest{Action: "explode", Image: "my-app:latest"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeployMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/deploy", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusUnknownJob(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/deployment-status/missing1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRerunEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/deploy", deployRequest{Action: "run", Image: "api:2.1", PortMapping: "443:8443"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	var created map[string]string
	decodeBody(t, rec, &created)

	rerun := doJSON(t, router, http.MethodPost, "/api/deploy/"+created["job_id"]+"/rerun", nil)
	require.Equal(t, http.StatusAccepted, rerun.Code)
	var resp map[string]string
	decodeBody(t, rerun, &resp)
	assert.NotEqual(t, created["job_id"], resp["job_id"])

	missing := doJSON(t, router, http.MethodPost, "/api/deploy/missing1/rerun", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestLogsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/deploy", deployRequest{Action: "build", Image: "my-app:latest"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	var created map[string]string
	decodeBody(t, rec, &created)

	logs := doJSON(t, router, http.MethodGet, "/api/logs/"+created["job_id"], nil)
	require.Equal(t, http.StatusOK, logs.Code)

	var resp struct {
		JobID string           `json:"job_id"`
		Logs  []types.LogEntry `json:"logs"`
	}
	decodeBody(t, logs, &resp)
	assert.Equal(t, created["job_id"], resp.JobID)
	assert.Len(t, resp.Logs, 3)
}

func TestHistoryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	router := srv.Router()

	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/deploy", deployRequest{Action: "restart", Image: "my-app:latest"})
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/deployments/recent?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history []types.JobSummary
	decodeBody(t, rec, &history)
	assert.Len(t, history, 2)

	bad := doJSON(t, router, http.MethodGet, "/api/deployments/recent?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]interface{}
	decodeBody(t, rec, &health)
	assert.Equal(t, "healthy", health["overall_status"])
}

func TestHealthEndpointDegraded(t *testing.T) {
	src := &fixedSource{
		system:     types.SystemStats{CPUPercent: 95, MemoryPercent: 20, DiskPercent: 30},
		containers: []types.ContainerStats{{ID: "c1", Status: "exited"}},
	}
	srv, _ := newTestServer(t, src)

	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]interface{}
	decodeBody(t, rec, &health)
	assert.Equal(t, "critical", health["overall_status"])

	checks := health["checks"].(map[string]interface{})
	system := checks["system"].(map[string]interface{})
	assert.Equal(t, "warning", system["status"])
	assert.Equal(t, false, system["cpu_ok"])
}

func TestMonitoringStartStop(t *testing.T) {
	srv, h := newTestServer(t, nil)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/monitoring/start", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, h.Publishing())

	rec = doJSON(t, router, http.MethodPost, "/api/monitoring/stop", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, h.Publishing())
}

func TestNotificationsEndpoint(t *testing.T) {
	srv, h := newTestServer(t, nil)

	ch := h.Attach("conn-1")
	defer h.Detach("conn-1")

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/notifications", notifyRequest{
		Kind:    "deployment",
		Title:   "Deploy finished",
		Message: "my-app:latest is live",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	timeout := time.After(time.Second)
	for {
		select {
		case event := <-ch:
			if event.Type != types.EventNotification {
				continue
			}
			n := event.Data.(types.Notification)
			assert.Equal(t, "Deploy finished", n.Title)
			assert.Equal(t, "info", n.Severity, "severity should default to info")
			return
		case <-timeout:
			t.Fatal("no notification event received")
		}
	}
}

func TestRoomJoinLeaveEndpoints(t *testing.T) {
	srv, h := newTestServer(t, nil)
	router := srv.Router()

	h.Attach("conn-1")
	defer h.Detach("conn-1")

	rec := doJSON(t, router, http.MethodPost, "/api/events/conn-1/rooms/job-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"conn-1"}, h.RoomMembers("job-1"))

	rec = doJSON(t, router, http.MethodDelete, "/api/events/conn-1/rooms/job-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, h.RoomMembers("job-1"))
}

func TestSystemStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/system/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats types.SystemStats
	decodeBody(t, rec, &stats)
	assert.Equal(t, 10.0, stats.CPUPercent)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv.Router(), http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deckhand_")
}

func TestEventsStream(t *testing.T) {
	srv, h := newTestServer(t, nil)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	var connID string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			var frame map[string]string
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame))
			connID = frame["connection_id"]
			break
		}
	}
	require.NotEmpty(t, connID, "first frame must carry the connection id")
	assert.Equal(t, 1, h.ConnectionCount())

	cancel()
}
