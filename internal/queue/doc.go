// Package queue implements the job store: the single durable source of
// truth for jobs, the collection, the wanted list, and settings. All
// mutation of those rows goes through this package; no other package holds
// a row representation of its own.
package queue
