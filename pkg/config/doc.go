// Package config loads Deckhand's YAML configuration over built-in
// defaults: listen address, data directory, docker endpoint, log settings
// and the publishing loop schedule.
package config
