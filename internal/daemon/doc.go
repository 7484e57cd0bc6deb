// Package daemon hosts the Supervisor: the process-lifetime owner of the
// job store, every pipeline worker, the disc probes, and the control
// surface. It acquires a single-instance lock, runs startup cleanup, then
// starts every component; shutdown runs the same components down in
// reverse, waiting for the encode worker's shutdown checkpoint before the
// store closes.
package daemon
