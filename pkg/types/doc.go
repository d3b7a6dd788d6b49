/*
Package types defines the core data structures used throughout Deckhand.

This package contains the domain model shared by every other package:
deployment jobs and their lifecycle, log entries, metric snapshots and the
push events delivered to connected viewers. Keeping these shapes in one
dependency-free package lets storage, tracking, broadcasting and the HTTP
surface agree on a single vocabulary.

# Core Types

Job lifecycle:
  - Job: one deployment action instance with status, progress and logs
  - JobAction: build, run or restart
  - JobStatus: pending, running, completed, failed (monotonic transitions)
  - LogEntry: one append-only log line
  - JobSummary: compact job shape for history listings

Snapshots (read from external metric sources):
  - SystemStats: host CPU, memory, disk and network usage
  - ContainerStats: per-container runtime statistics
  - DeploymentMetrics: aggregate job totals and success rate

Push events (server to viewer):
  - Event: envelope with type, timestamp and payload
  - LogEvent, Notification, StatusUpdate: typed payloads

All types are JSON-serializable; field tags match the wire format the
dashboard clients consume.
*/
package types
