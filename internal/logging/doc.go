// Package logging assembles structured slog loggers and formatting helpers
// used across discpipe's daemon, workers, and CLI.
//
// It owns the configurable console/JSON handlers, centralizes level and
// output plumbing, and exposes context-aware helpers so stage code can
// automatically tag log lines with job IDs, pipeline stages, worker lanes,
// and control-surface correlation IDs. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
//
// # Logging Contract
//
// Level semantics:
//   - INFO: narrative milestones and decisions that change a job's outcome
//     (status transitions, identification decisions, move destination).
//   - WARN: degraded behavior or operator action needed (fallback to review,
//     stale job detected).
//   - ERROR: operation failed; the job moves to FAILED or the process stops.
//   - DEBUG: raw diagnostics, per-candidate confidence scoring, subprocess
//     output.
//
// WARN logs should carry the WARN triad (event_type, error_hint, impact);
// use WarnWithContext to enforce it. ERROR logs should carry event_type,
// error_hint, and the error itself via Error(); use ErrorWithContext.
//
// # Common Fields
//
// Progress: progress_stage, progress_percent, progress_message, progress_eta
// Decision: decision_type, decision_result, decision_reason, decision_options
// Events: event_type (stage_start, stage_complete, stage_failure)
// Errors: error_kind, error_operation, error_hint, impact
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape and console/JSON routing.
package logging
