package service

import (
	"errors"

	"github.com/deckhand-io/deckhand/pkg/hub"
	"github.com/deckhand-io/deckhand/pkg/storage"
	"github.com/deckhand-io/deckhand/pkg/tracker"
	"github.com/deckhand-io/deckhand/pkg/types"
)

// Service is the operation surface request handlers invoke. It holds no
// state of its own; every call delegates to the tracker or the hub.
type Service struct {
	tracker *tracker.Tracker
	hub     *hub.Hub
}

// New creates the public façade over the tracker and hub
func New(trk *tracker.Tracker, h *hub.Hub) *Service {
	return &Service{
		tracker: trk,
		hub:     h,
	}
}

// SubmitJob starts a new deployment job and returns its ID. The job's
// initial state is durably recorded before the call returns.
func (s *Service) SubmitJob(action, image, environment, portMapping string, envVars map[string]string) (string, error) {
	return s.tracker.Start(types.JobAction(action), image, environment, portMapping, envVars)
}

// RerunJob starts a new job with the named job's parameters
func (s *Service) RerunJob(jobID string) (string, error) {
	return s.tracker.Rerun(jobID)
}

// JobStatus returns the full job record
func (s *Service) JobStatus(jobID string) (*types.Job, error) {
	return s.tracker.Status(jobID)
}

// JobLogs returns the job's log lines in insertion order
func (s *Service) JobLogs(jobID string) ([]types.LogEntry, error) {
	return s.tracker.Logs(jobID)
}

// JobHistory returns job summaries, newest first
func (s *Service) JobHistory(limit int) ([]types.JobSummary, error) {
	return s.tracker.History(limit)
}

// BeginLogStream starts streaming the named job's logs into its room.
// Fails with NotFound for unknown jobs; no stream is started in that case.
func (s *Service) BeginLogStream(jobID string) error {
	if _, err := s.tracker.Status(jobID); err != nil {
		return err
	}
	s.hub.StreamJobLogs(jobID)
	return nil
}

// PushNotification broadcasts an out-of-band notification to all viewers
func (s *Service) PushNotification(kind, title, message, severity string) {
	s.hub.Notify(kind, title, message, severity)
}

// IsNotFound reports whether the error means an unknown job ID
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

// IsInvalidArgument reports whether the error means a malformed request,
// such as an unrecognized action
func IsInvalidArgument(err error) bool {
	return errors.Is(err, tracker.ErrUnknownAction)
}
