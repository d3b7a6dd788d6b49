package tracker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/deckhand-io/deckhand/pkg/log"
	"github.com/deckhand-io/deckhand/pkg/metrics"
	"github.com/deckhand-io/deckhand/pkg/storage"
	"github.com/deckhand-io/deckhand/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrUnknownAction is returned when a job is submitted with an action the
// tracker does not recognize. No job state is written in that case.
var ErrUnknownAction = errors.New("unknown action")

// jobIDLength is the length of the short, URL-safe job identifiers
const jobIDLength = 8

// StatusFunc receives job status/progress transitions
type StatusFunc func(update types.StatusUpdate)

// Tracker owns job lifecycle transitions and is the only writer of job
// state. Log appends for the same job are serialized so log order matches
// call order; different jobs proceed fully in parallel.
type Tracker struct {
	store  storage.Store
	logger zerolog.Logger

	mu        sync.Mutex
	jobLocks  map[string]*sync.Mutex
	listeners map[string][]chan types.LogEntry

	statusMu sync.RWMutex
	onStatus StatusFunc

	stepDelay time.Duration
}

// Option configures a Tracker
type Option func(*Tracker)

// WithStepDelay sets the pause between scripted action steps
func WithStepDelay(d time.Duration) Option {
	return func(t *Tracker) {
		t.stepDelay = d
	}
}

// New creates a new job tracker backed by the given store
func New(store storage.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:     store,
		logger:    log.WithComponent("tracker"),
		jobLocks:  make(map[string]*sync.Mutex),
		listeners: make(map[string][]chan types.LogEntry),
		stepDelay: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnStatusChange registers the callback invoked on every status or
// progress transition. There is a single consumer: the broadcast hub.
func (t *Tracker) OnStatusChange(fn StatusFunc) {
	t.statusMu.Lock()
	defer t.statusMu.Unlock()
	t.onStatus = fn
}

// Start allocates a new job, durably records it as running and executes
// the named action. Unknown actions fail before any state is written.
// Once the job is recorded as running, any fault during execution becomes
// a terminal failed record rather than a returned error; only job-ID
// allocation or the initial store write can fail the call itself.
func (t *Tracker) Start(action types.JobAction, image, environment, portMapping string, envVars map[string]string) (string, error) {
	if !types.ValidAction(action) {
		return "", fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	if envVars == nil {
		envVars = map[string]string{}
	}

	job := &types.Job{
		ID:          uuid.New().String()[:jobIDLength],
		Action:      action,
		Image:       image,
		Environment: environment,
		PortMapping: portMapping,
		EnvVars:     envVars,
		Status:      types.JobStatusRunning,
		Progress:    0,
		StartTime:   time.Now(),
	}

	if err := t.store.PutJob(job); err != nil {
		return "", fmt.Errorf("failed to record job: %w", err)
	}

	metrics.JobsStarted.WithLabelValues(string(action)).Inc()
	t.logger.Info().
		Str("job_id", job.ID).
		Str("action", string(action)).
		Str("image", image).
		Msg("job started")

	t.notifyStatus(job)
	t.execute(job)

	return job.ID, nil
}

// Rerun allocates a new job sharing the original's parameters but never
// its ID, status or logs. Returns storage.ErrNotFound for unknown IDs.
func (t *Tracker) Rerun(jobID string) (string, error) {
	original, err := t.store.GetJob(jobID)
	if err != nil {
		return "", err
	}
	return t.Start(original.Action, original.Image, original.Environment, original.PortMapping, original.EnvVars)
}

// AppendStep appends a timestamped log line to the named job and notifies
// any registered log listeners. Appends for the same job are serialized;
// a storage fault is logged out-of-band and never surfaced to the caller.
func (t *Tracker) AppendStep(jobID, message string) {
	lock := t.jobLock(jobID)
	lock.Lock()
	defer lock.Unlock()

	entry := types.LogEntry{
		Timestamp: time.Now(),
		Message:   message,
	}

	if err := t.store.AppendLog(jobID, entry); err != nil {
		t.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to append job log")
		return
	}

	t.notifyListeners(jobID, entry)
}

// Status returns the full job record. Returns storage.ErrNotFound for
// unknown IDs. Once terminal, repeated calls return an identical record.
func (t *Tracker) Status(jobID string) (*types.Job, error) {
	return t.store.GetJob(jobID)
}

// Logs returns the job's log entries in insertion order
func (t *Tracker) Logs(jobID string) ([]types.LogEntry, error) {
	return t.store.GetLogs(jobID)
}

// History returns job summaries, newest first, bounded by limit
func (t *Tracker) History(limit int) ([]types.JobSummary, error) {
	jobs, err := t.store.ListRecent(limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]types.JobSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, job.Summary())
	}
	return summaries, nil
}

// Subscribe returns the job's recorded log entries together with a
// listener channel for lines appended afterwards. The snapshot and the
// registration happen under the job's append lock, so every line lands in
// exactly one of the two: nothing is lost in the handoff and nothing is
// delivered twice. The channel is closed when the job reaches a terminal
// state or the cancel function is called; subscribing to an
// already-terminal or unknown job yields a closed channel.
func (t *Tracker) Subscribe(jobID string) ([]types.LogEntry, <-chan types.LogEntry, func()) {
	ch := make(chan types.LogEntry, 64)

	lock := t.jobLock(jobID)
	lock.Lock()
	defer lock.Unlock()

	entries, err := t.store.GetLogs(jobID)
	if err != nil {
		close(ch)
		return nil, ch, func() {}
	}

	t.mu.Lock()
	// Terminal transitions close listeners under this same mutex after
	// the terminal record is written, so a job read as running here still
	// has its listener close ahead of it.
	job, err := t.store.GetJob(jobID)
	if err != nil || job.Status.Terminal() {
		t.mu.Unlock()
		close(ch)
		return entries, ch, func() {}
	}
	t.listeners[jobID] = append(t.listeners[jobID], ch)
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, l := range t.listeners[jobID] {
			if l == ch {
				t.listeners[jobID] = append(t.listeners[jobID][:i], t.listeners[jobID][i+1:]...)
				close(ch)
				return
			}
		}
	}
	return entries, ch, cancel
}

// execute runs the scripted steps for the job's action. Any fault,
// including a panic in a step runner, manifests as a terminal failed
// record with the error text attached.
func (t *Tracker) execute(job *types.Job) {
	defer func() {
		if r := recover(); r != nil {
			t.fail(job, fmt.Errorf("panic during %s: %v", job.Action, r))
		}
	}()

	if err := t.runSteps(job); err != nil {
		t.fail(job, err)
		return
	}

	t.complete(job)
}

func (t *Tracker) complete(job *types.Job) {
	now := time.Now()
	job.Status = types.JobStatusCompleted
	job.Progress = 100
	job.EndTime = &now

	if err := t.store.PutJob(job); err != nil {
		t.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist completed job")
	}

	metrics.JobsCompleted.WithLabelValues(string(types.JobStatusCompleted)).Inc()
	metrics.JobDuration.Observe(now.Sub(job.StartTime).Seconds())
	t.logger.Info().Str("job_id", job.ID).Msg("job completed")

	t.notifyStatus(job)
	t.closeListeners(job.ID)
}

func (t *Tracker) fail(job *types.Job, cause error) {
	now := time.Now()
	job.Status = types.JobStatusFailed
	job.Error = cause.Error()
	job.EndTime = &now

	if err := t.store.PutJob(job); err != nil {
		t.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist failed job")
	}

	metrics.JobsCompleted.WithLabelValues(string(types.JobStatusFailed)).Inc()
	t.logger.Error().Err(cause).Str("job_id", job.ID).Msg("job failed")

	t.notifyStatus(job)
	t.closeListeners(job.ID)
}

// setProgress advances the job's progress. Progress is non-decreasing
// while running.
func (t *Tracker) setProgress(job *types.Job, progress int) {
	if progress <= job.Progress {
		return
	}
	job.Progress = progress

	if err := t.store.PutJob(job); err != nil {
		t.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist job progress")
	}
	t.notifyStatus(job)
}

func (t *Tracker) jobLock(jobID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.jobLocks[jobID]
	if !ok {
		lock = &sync.Mutex{}
		t.jobLocks[jobID] = lock
	}
	return lock
}

func (t *Tracker) notifyListeners(jobID string, entry types.LogEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, ch := range t.listeners[jobID] {
		select {
		case ch <- entry:
		default:
			// Listener buffer full, skip
		}
	}
}

func (t *Tracker) closeListeners(jobID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, ch := range t.listeners[jobID] {
		close(ch)
	}
	delete(t.listeners, jobID)
}

func (t *Tracker) notifyStatus(job *types.Job) {
	t.statusMu.RLock()
	fn := t.onStatus
	t.statusMu.RUnlock()

	if fn == nil {
		return
	}
	fn(types.StatusUpdate{
		JobID:     job.ID,
		Status:    job.Status,
		Progress:  job.Progress,
		Timestamp: time.Now(),
	})
}
