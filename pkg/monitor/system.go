package monitor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/deckhand-io/deckhand/pkg/types"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

const bytesPerGB = 1024 * 1024 * 1024

// SystemSampler reads host CPU, memory, disk and network statistics
type SystemSampler struct {
	diskPath string
}

// NewSystemSampler creates a sampler measuring disk usage at the given
// mount path. An empty path defaults to the root filesystem.
func NewSystemSampler(diskPath string) *SystemSampler {
	if diskPath == "" {
		diskPath = "/"
	}
	return &SystemSampler{diskPath: diskPath}
}

// Snapshot returns a point-in-time host resource snapshot
func (s *SystemSampler) Snapshot(ctx context.Context) (*types.SystemStats, error) {
	cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, fmt.Errorf("failed to read cpu usage: %w", err)
	}
	cpuPercent := 0.0
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	cpuCount, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to read cpu count: %w", err)
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory usage: %w", err)
	}

	du, err := disk.UsageWithContext(ctx, s.diskPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read disk usage: %w", err)
	}

	var counters types.NetworkCounters
	if io, err := net.IOCountersWithContext(ctx, false); err == nil && len(io) > 0 {
		counters = types.NetworkCounters{
			BytesSent:   io[0].BytesSent,
			BytesRecv:   io[0].BytesRecv,
			PacketsSent: io[0].PacketsSent,
			PacketsRecv: io[0].PacketsRecv,
		}
	}

	return &types.SystemStats{
		CPUPercent:    round2(cpuPercent),
		CPUCount:      cpuCount,
		MemoryPercent: round2(vm.UsedPercent),
		MemoryUsedGB:  round2(float64(vm.Used) / bytesPerGB),
		MemoryTotalGB: round2(float64(vm.Total) / bytesPerGB),
		DiskPercent:   round2(du.UsedPercent),
		DiskUsedGB:    round2(float64(du.Used) / bytesPerGB),
		DiskTotalGB:   round2(float64(du.Total) / bytesPerGB),
		Network:       counters,
		Timestamp:     time.Now(),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
