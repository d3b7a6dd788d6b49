/*
Package log provides structured logging for Deckhand using zerolog.

The log package wraps the zerolog library to provide JSON-structured
logging with component-specific child loggers, configurable log levels and
helpers for common patterns. Initialize once at startup via log.Init, then
derive child loggers with log.WithComponent or log.WithJobID.

Usage:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("tracker")
	logger.Info().Str("job_id", id).Msg("job started")

Console output (human-readable, RFC3339 timestamps) is the default;
JSONOutput switches to machine-parseable JSON for production.
*/
package log
