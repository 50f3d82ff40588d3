// Package observability provides event logging, metrics calculation, and
// health alerting for CodeSurf. Detection and playback events are persisted
// as JSON Lines and metrics are derived from the log on demand.
package observability
