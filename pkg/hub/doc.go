/*
Package hub fans live dashboard state out to connected viewers.

The hub owns the connection registry and per-job subscription rooms, runs
the three periodic publishing loops, and streams job logs into rooms as
the tracker appends them. Connections are buffered event channels; a slow
consumer drops events rather than blocking a broadcast.

# Publishing Loops

	system       every  5s   host resource snapshot      -> all viewers
	deployments  every 10s   job metrics + recent jobs   -> all viewers
	containers   every 15s   container statistics        -> all viewers

The loops run on independent schedules. A tick with zero connections
fires on time but skips the fetch and broadcast. A snapshot failure is
contained to its own loop: the tick is logged and skipped, and the loop
waits a longer retry delay before returning to its normal interval.
StartPublishing and StopPublishing are idempotent; stopping takes effect
within one tick and never ends in-flight log streams.

# Rooms

Rooms are derived state keyed by job ID, created lazily on first
subscribe and reconstructable from the set of active subscriptions.
Subscribe and Unsubscribe are idempotent; Detach removes a connection
from every room it joined.
*/
package hub
