// Package pipeline hosts the long-running workers that advance jobs
// through the status graph: a rip worker per configured drive, a single
// global encode worker, and generic poll loops for the identifier and
// mover stages. Every worker coordinates exclusively through the job
// store; no state crosses worker boundaries in memory.
package pipeline
