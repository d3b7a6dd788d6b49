package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/deckhand-io/deckhand/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testJob(id string, start time.Time) *types.Job {
	return &types.Job{
		ID:          id,
		Action:      types.ActionBuild,
		Image:       "my-app:latest",
		Environment: "production",
		PortMapping: "8080:80",
		EnvVars:     map[string]string{"NODE_ENV": "production"},
		Status:      types.JobStatusRunning,
		StartTime:   start,
	}
}

func TestPutGetJob(t *testing.T) {
	store := newTestStore(t)

	job := testJob("abc12345", time.Now())
	require.NoError(t, store.PutJob(job))

	got, err := store.GetJob("abc12345")
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, job.Action, got.Action)
	assert.Equal(t, job.Image, got.Image)
	assert.Equal(t, job.EnvVars, got.EnvVars)
	assert.Equal(t, types.JobStatusRunning, got.Status)
}

func TestPutJobUpsert(t *testing.T) {
	store := newTestStore(t)

	job := testJob("abc12345", time.Now())
	require.NoError(t, store.PutJob(job))

	job.Status = types.JobStatusCompleted
	job.Progress = 100
	require.NoError(t, store.PutJob(job))

	got, err := store.GetJob("abc12345")
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
}

func TestGetJobNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetJob("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAppendLogPreservesOrder(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.PutJob(testJob("abc12345", time.Now())))

	for i := 0; i < 20; i++ {
		entry := types.LogEntry{
			Timestamp: time.Now(),
			Message:   fmt.Sprintf("step %d", i),
		}
		require.NoError(t, store.AppendLog("abc12345", entry))
	}

	logs, err := store.GetLogs("abc12345")
	require.NoError(t, err)
	require.Len(t, logs, 20)
	for i, entry := range logs {
		assert.Equal(t, fmt.Sprintf("step %d", i), entry.Message)
	}
}

func TestAppendLogUnknownJob(t *testing.T) {
	store := newTestStore(t)

	err := store.AppendLog("missing", types.LogEntry{Timestamp: time.Now(), Message: "hello"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetLogsUnknownJob(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetLogs("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetLogsEmptyJob(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.PutJob(testJob("abc12345", time.Now())))

	logs, err := store.GetLogs("abc12345")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestListRecent(t *testing.T) {
	store := newTestStore(t)

	base := time.Now()
	for i := 0; i < 5; i++ {
		job := testJob(fmt.Sprintf("job-%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.PutJob(job))
	}

	jobs, err := store.ListRecent(3)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "job-4", jobs[0].ID)
	assert.Equal(t, "job-3", jobs[1].ID)
	assert.Equal(t, "job-2", jobs[2].ID)
}

func TestListRecentNoLimit(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.PutJob(testJob(fmt.Sprintf("job-%d", i), time.Now())))
	}

	jobs, err := store.ListRecent(0)
	require.NoError(t, err)
	assert.Len(t, jobs, 5)
}

func TestListRecentEmptyStore(t *testing.T) {
	store := newTestStore(t)

	jobs, err := store.ListRecent(10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
