// Package preflight runs best-effort startup checks (required binaries on
// PATH, workspace and library directory access) and reports results for
// the supervisor to log. No check failure aborts startup; the worker
// pools report their own errors once a job actually needs the binary.
package preflight
