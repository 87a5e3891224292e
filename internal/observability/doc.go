// Package observability provides the assistant's event log, metrics derived
// from it, board alerting and outbound notifications. Events are kept in
// memory or persisted as JSON Lines (JSONL); metrics are computed on demand.
package observability
