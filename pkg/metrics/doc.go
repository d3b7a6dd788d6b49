/*
Package metrics defines Deckhand's Prometheus instrumentation: job
start/finish counters and duration histogram, the active connection
gauge, and per-event broadcast and per-loop publish-error counters. All
collectors register at init; Handler exposes the standard promhttp
endpoint.
*/
package metrics
