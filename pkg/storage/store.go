package storage

import (
	"errors"

	"github.com/deckhand-io/deckhand/pkg/types"
)

// ErrNotFound is returned when a job ID is unknown to the store
var ErrNotFound = errors.New("job not found")

// Store defines the interface for durable deployment job state.
// Writes must be durable before returning success: the tracker relies on
// the store surviving a process restart with an already-started job left
// marked running.
type Store interface {
	// PutJob upserts the full job record. Last writer wins; the tracker
	// guarantees single-writer-per-job.
	PutJob(job *types.Job) error

	// GetJob retrieves a job by ID. Returns ErrNotFound for unknown IDs.
	GetJob(id string) (*types.Job, error)

	// AppendLog appends one log entry to the named job without rewriting
	// prior entries. Returns ErrNotFound if the job does not exist.
	AppendLog(jobID string, entry types.LogEntry) error

	// GetLogs returns the job's log entries in insertion order.
	GetLogs(jobID string) ([]types.LogEntry, error)

	// ListRecent returns the most recently started jobs, newest first,
	// bounded by limit. A limit <= 0 returns all jobs. An empty result
	// is valid, not an error.
	ListRecent(limit int) ([]*types.Job, error)

	// Utility
	Close() error
}
