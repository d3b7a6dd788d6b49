package monitor

import (
	"context"
	"time"

	"github.com/deckhand-io/deckhand/pkg/storage"
	"github.com/deckhand-io/deckhand/pkg/types"
)

// recentJobCount bounds the recent-job summaries attached to a
// deployment metrics snapshot
const recentJobCount = 10

// DeploymentSource derives aggregate deployment metrics from the job store
type DeploymentSource struct {
	store storage.Store
}

// NewDeploymentSource creates a store-backed deployment metrics source
func NewDeploymentSource(store storage.Store) *DeploymentSource {
	return &DeploymentSource{store: store}
}

// Snapshot computes job totals and success rate across all stored jobs
func (d *DeploymentSource) Snapshot(ctx context.Context) (*types.DeploymentMetrics, error) {
	jobs, err := d.store.ListRecent(0)
	if err != nil {
		return nil, err
	}

	m := &types.DeploymentMetrics{
		TotalJobs:   len(jobs),
		LastUpdated: time.Now(),
	}

	for i, job := range jobs {
		switch job.Status {
		case types.JobStatusCompleted:
			m.SuccessfulJobs++
		case types.JobStatusFailed:
			m.FailedJobs++
		}

		if i < recentJobCount {
			m.RecentJobs = append(m.RecentJobs, job.Summary())
		}
	}

	if m.TotalJobs > 0 {
		m.SuccessRate = round2(float64(m.SuccessfulJobs) / float64(m.TotalJobs) * 100)
	}
	return m, nil
}
