package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deckhand-io/deckhand/pkg/log"
	"github.com/deckhand-io/deckhand/pkg/types"
	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/go-units"
	"github.com/rs/zerolog"
)

// DockerSource reads container state and statistics from the host
// Docker daemon
type DockerSource struct {
	cli    *client.Client
	logger zerolog.Logger
}

// NewDockerSource creates a Docker-backed container source. An empty host
// falls back to the environment's default daemon address.
func NewDockerSource(host string) (*DockerSource, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerSource{
		cli:    cli,
		logger: log.WithComponent("docker"),
	}, nil
}

// Close releases the underlying client
func (d *DockerSource) Close() error {
	return d.cli.Close()
}

// Snapshot returns one statistics record per container known to the
// daemon, running or not. A stats read failure for a single container
// degrades that record to zero usage rather than failing the snapshot.
func (d *DockerSource) Snapshot(ctx context.Context) ([]types.ContainerStats, error) {
	containers, err := d.cli.ContainerList(ctx, dockertypes.ContainerListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	result := make([]types.ContainerStats, 0, len(containers))
	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}

		stats := types.ContainerStats{
			ID:          shortID(c.ID),
			Name:        name,
			Status:      c.State,
			Image:       c.Image,
			MemoryUsage: "0B / 0B",
			NetworkIO:   "0B / 0B",
		}

		if c.State == "running" {
			if err := d.readStats(ctx, c.ID, &stats); err != nil {
				d.logger.Warn().Err(err).Str("container_id", stats.ID).Msg("failed to read container stats")
			}
		}

		result = append(result, stats)
	}
	return result, nil
}

func (d *DockerSource) readStats(ctx context.Context, id string, out *types.ContainerStats) error {
	resp, err := d.cli.ContainerStatsOneShot(ctx, id)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var raw dockertypes.StatsJSON
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode stats: %w", err)
	}

	out.CPUPercent = round2(cpuPercent(&raw))
	out.MemoryUsage = fmt.Sprintf("%s / %s",
		units.HumanSize(float64(raw.MemoryStats.Usage)),
		units.HumanSize(float64(raw.MemoryStats.Limit)))

	var rx, tx uint64
	for _, nw := range raw.Networks {
		rx += nw.RxBytes
		tx += nw.TxBytes
	}
	out.NetworkIO = fmt.Sprintf("%s / %s",
		units.HumanSize(float64(rx)),
		units.HumanSize(float64(tx)))
	return nil
}

// cpuPercent derives a usage percentage from cumulative CPU counters
func cpuPercent(s *dockertypes.StatsJSON) float64 {
	cpuDelta := float64(s.CPUStats.CPUUsage.TotalUsage) - float64(s.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(s.CPUStats.SystemUsage) - float64(s.PreCPUStats.SystemUsage)
	if cpuDelta <= 0 || systemDelta <= 0 {
		return 0
	}

	onlineCPUs := float64(s.CPUStats.OnlineCPUs)
	if onlineCPUs == 0 {
		onlineCPUs = float64(len(s.CPUStats.CPUUsage.PercpuUsage))
	}
	if onlineCPUs == 0 {
		onlineCPUs = 1
	}
	return cpuDelta / systemDelta * onlineCPUs * 100
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
