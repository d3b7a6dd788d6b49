/*
Package storage provides BoltDB-backed persistence for deployment jobs.

The storage package implements the Store interface using BoltDB, giving
the tracker durable, crash-recoverable job records with zero external
dependencies. Every write commits through a fsynced transaction before
returning, so a job that was recorded as running survives a process
restart still marked running.

# Bucket Structure

	jobs                 job ID -> JSON job record
	job_logs/<job ID>    sequence number -> JSON log entry

Log entries live in a nested bucket per job, keyed by BoltDB's monotonic
bucket sequence encoded big-endian, so appends never rewrite prior entries
and a forward cursor walk yields insertion order.

# Semantics

  - PutJob is an upsert; last writer wins. The tracker guarantees a
    single writer per job, so no conflict detection is needed.
  - AppendLog and GetJob return ErrNotFound for unknown job IDs.
  - ListRecent orders by start time, newest first, and treats an empty
    store as a valid empty result.

The store never deletes jobs; retention is an external policy.
*/
package storage
