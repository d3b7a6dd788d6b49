package types

import (
	"time"
)

// JobAction is the deployment action a job performs
type JobAction string

const (
	ActionBuild   JobAction = "build"
	ActionRun     JobAction = "run"
	ActionRestart JobAction = "restart"
)

// ValidAction reports whether the action is one the tracker knows how to run
func ValidAction(a JobAction) bool {
	switch a {
	case ActionBuild, ActionRun, ActionRestart:
		return true
	}
	return false
}

// JobStatus represents the lifecycle state of a deployment job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status is a terminal state
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job represents one deployment action instance with its own lifecycle.
// The ID is assigned once at creation and never reused; status transitions
// are monotonic across pending -> running -> {completed|failed}.
type Job struct {
	ID          string            `json:"job_id"`
	Action      JobAction         `json:"action"`
	Image       string            `json:"image"`
	Environment string            `json:"environment"`
	PortMapping string            `json:"port_mapping"`
	EnvVars     map[string]string `json:"env_vars"`
	Status      JobStatus         `json:"status"`
	Progress    int               `json:"progress"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     *time.Time        `json:"end_time,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// LogEntry is one append-only log line of a job. Insertion order is the
// only order that matters.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// JobSummary is the compact job shape used in history listings
type JobSummary struct {
	ID          string     `json:"job_id"`
	Action      JobAction  `json:"action"`
	Image       string     `json:"image"`
	Environment string     `json:"environment"`
	Status      JobStatus  `json:"status"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
}

// Summary returns the job's history-listing shape
func (j *Job) Summary() JobSummary {
	return JobSummary{
		ID:          j.ID,
		Action:      j.Action,
		Image:       j.Image,
		Environment: j.Environment,
		Status:      j.Status,
		StartTime:   j.StartTime,
		EndTime:     j.EndTime,
	}
}

// SystemStats is a point-in-time host resource snapshot
type SystemStats struct {
	CPUPercent    float64         `json:"cpu_percent"`
	CPUCount      int             `json:"cpu_count"`
	MemoryPercent float64         `json:"memory_percent"`
	MemoryUsedGB  float64         `json:"memory_used_gb"`
	MemoryTotalGB float64         `json:"memory_total_gb"`
	DiskPercent   float64         `json:"disk_percent"`
	DiskUsedGB    float64         `json:"disk_used_gb"`
	DiskTotalGB   float64         `json:"disk_total_gb"`
	Network       NetworkCounters `json:"network"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NetworkCounters holds cumulative host network IO counters
type NetworkCounters struct {
	BytesSent   uint64 `json:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv"`
}

// ContainerStats is a point-in-time snapshot of one container
type ContainerStats struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	Image       string  `json:"image"`
	CPUPercent  float64 `json:"cpu_percent"`
	MemoryUsage string  `json:"memory_usage"`
	NetworkIO   string  `json:"network_io"`
}

// DeploymentMetrics aggregates job outcomes across the store
type DeploymentMetrics struct {
	TotalJobs      int          `json:"total_deployments"`
	SuccessfulJobs int          `json:"successful_deployments"`
	FailedJobs     int          `json:"failed_deployments"`
	SuccessRate    float64      `json:"success_rate"`
	RecentJobs     []JobSummary `json:"recent_deployments"`
	LastUpdated    time.Time    `json:"last_updated"`
}

// EventType names a server-initiated push event
type EventType string

const (
	EventSystemStatus     EventType = "system_status"
	EventDeploymentMetric EventType = "deployment_metrics"
	EventRecentJobs       EventType = "recent_deployments"
	EventContainerStats   EventType = "container_stats"
	EventDeploymentLogs   EventType = "deployment_logs"
	EventNewLog           EventType = "new_log"
	EventNotification     EventType = "notification"
	EventStatusUpdate     EventType = "deployment_status_update"
)

// Event is one message pushed to a connected viewer
type Event struct {
	Type      EventType   `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// LogEvent is the payload of a new_log event, scoped to a job's room
type LogEvent struct {
	JobID     string    `json:"job_id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Notification is an out-of-band broadcast to all viewers
type Notification struct {
	Kind      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusUpdate is broadcast whenever a job changes status or progress
type StatusUpdate struct {
	JobID     string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Progress  int       `json:"progress"`
	Timestamp time.Time `json:"timestamp"`
}
