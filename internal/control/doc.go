// Package control implements the JSON-over-HTTP control surface: a thin
// wrapper over the job store and oversight guard logic that the UI (or any
// other client) invokes to mutate jobs and wanted items. Every operation
// validates a status guard before writing, and every handler responds with
// exactly the shapes the external interface promises: {success, job_id,
// status} on success, {detail} with a matching status code on failure.
package control
