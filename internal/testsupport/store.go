package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"discpipe/internal/queue"
)

// MustOpenStore opens a fresh queue.Store backed by a temp-dir database
// and registers cleanup. Shared by package tests outside internal/queue
// that need a real store rather than a mock.
func MustOpenStore(t testing.TB) *queue.Store {
	t.Helper()

	dir := t.TempDir()
	store, err := queue.Open(context.Background(), filepath.Join(dir, "queue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// MustCreateJob creates a job on store for tests that don't care about
// disc metadata beyond a drive and a label.
func MustCreateJob(t testing.TB, store *queue.Store, driveID, discLabel string) *queue.Job {
	t.Helper()

	job, err := store.CreateJob(context.Background(), driveID, discLabel)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}
