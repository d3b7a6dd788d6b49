package monitor

import (
	"context"

	"github.com/deckhand-io/deckhand/pkg/types"
)

// Source is the pull-based provider the broadcast hub fetches snapshots
// from. Implementations may fail; callers absorb failures and skip the
// affected broadcast rather than propagating them to viewers.
type Source interface {
	// SystemSnapshot returns current host resource usage
	SystemSnapshot(ctx context.Context) (*types.SystemStats, error)

	// ContainerSnapshot returns per-container runtime statistics
	ContainerSnapshot(ctx context.Context) ([]types.ContainerStats, error)

	// DeploymentSnapshot returns aggregate deployment job metrics
	DeploymentSnapshot(ctx context.Context) (*types.DeploymentMetrics, error)
}

// Adapter composes the three concrete data sources into a single Source.
// Which runtime backs the container snapshot is a deployment-time choice;
// this build queries the host Docker daemon.
type Adapter struct {
	system     *SystemSampler
	containers *DockerSource
	deployment *DeploymentSource
}

// NewAdapter creates a metric source adapter from its parts
func NewAdapter(system *SystemSampler, containers *DockerSource, deployment *DeploymentSource) *Adapter {
	return &Adapter{
		system:     system,
		containers: containers,
		deployment: deployment,
	}
}

// SystemSnapshot returns current host resource usage
func (a *Adapter) SystemSnapshot(ctx context.Context) (*types.SystemStats, error) {
	return a.system.Snapshot(ctx)
}

// ContainerSnapshot returns per-container runtime statistics
func (a *Adapter) ContainerSnapshot(ctx context.Context) ([]types.ContainerStats, error) {
	return a.containers.Snapshot(ctx)
}

// DeploymentSnapshot returns aggregate deployment job metrics
func (a *Adapter) DeploymentSnapshot(ctx context.Context) (*types.DeploymentMetrics, error) {
	return a.deployment.Snapshot(ctx)
}
