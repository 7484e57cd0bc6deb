// Package notify implements the single-operation notification boundary
// (notify) used by the pipeline workers to push mobile alerts through
// ntfy. Absent configuration degrades to a no-op notifier rather than an
// error.
package notify
