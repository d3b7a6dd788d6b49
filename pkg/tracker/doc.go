/*
Package tracker owns the deployment job lifecycle.

The tracker is the only writer of job state. It allocates job IDs,
records the initial running state durably before executing an action,
serializes log appends per job, and turns any execution fault into a
terminal failed record instead of a propagated error.

# Lifecycle

	Start ──► running ──► completed
	                └────► failed

Transitions are monotonic; there is no way out of a terminal state except
Rerun, which allocates a brand-new job sharing the original's parameters
but never its ID, status or logs.

# Concurrency

AppendStep calls for the same job are serialized through a per-job mutex
so log order matches call order; different jobs proceed fully in parallel
with no cross-job locking.

# Observers

The broadcast hub observes the tracker rather than polling the store:
Subscribe hands over the recorded log lines and a listener channel for
subsequent appends in one atomic step under the job's append lock, and
closes the channel when the job reaches a terminal state. OnStatusChange
registers the callback invoked on every status or progress transition.
*/
package tracker
