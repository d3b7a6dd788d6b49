/*
Package monitor provides the pull-based metric sources the hub reads.

Source is the single adapter contract: system, container and deployment
snapshots. Concrete implementations back each concern: gopsutil for host
resources, the Docker daemon for container statistics, and the job store
for aggregate deployment metrics. Which runtime backs the container
snapshot is a deployment-time choice hidden behind the interface.
*/
package monitor
