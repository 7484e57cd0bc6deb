package mover_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"discpipe/internal/config"
	"discpipe/internal/mover"
	"discpipe/internal/queue"
	"discpipe/internal/testsupport"
)

func newTestStore(t *testing.T) *queue.Store {
	return testsupport.MustOpenStore(t)
}

func movingJob(t *testing.T, store *queue.Store, title string, year int, encodePath string) *queue.Job {
	t.Helper()
	ctx := context.Background()
	job, err := store.CreateJob(ctx, "drive-1", title)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	for _, status := range []queue.Status{queue.StatusRipping, queue.StatusRipped, queue.StatusEncoding, queue.StatusEncoded, queue.StatusIdentifying} {
		if err := store.UpdateJobStatus(ctx, job.ID, status, ""); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}
	confidence := 1.0
	if err := store.UpdateJobIdentification(ctx, job.ID, queue.ContentMovie, title, &year, nil, &confidence, ""); err != nil {
		t.Fatalf("set identification: %v", err)
	}
	if err := store.SetJobPath(ctx, job.ID, queue.JobPathEncode, encodePath); err != nil {
		t.Fatalf("set encode path: %v", err)
	}
	if err := store.UpdateJobStatus(ctx, job.ID, queue.StatusMoving, ""); err != nil {
		t.Fatalf("transition to moving: %v", err)
	}
	updated, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	return updated
}

func TestProcessNextMovesCompletedJobIntoLibrary(t *testing.T) {
	base := t.TempDir()
	encodePath := filepath.Join(base, "encoding", "source.mkv")
	if err := os.MkdirAll(filepath.Dir(encodePath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(encodePath, []byte("data"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	store := newTestStore(t)
	job := movingJob(t, store, "The Matrix", 1999, encodePath)

	cfg := &config.Config{
		MoviesLibraryRoot: filepath.Join(base, "movies"),
		TVLibraryRoot:     filepath.Join(base, "tv"),
		WorkspaceRoot:     base,
	}
	if err := os.MkdirAll(cfg.MoviesLibraryRoot, 0o755); err != nil {
		t.Fatalf("mkdir library root: %v", err)
	}

	m := mover.New(store, cfg, nil)
	didWork, err := m.ProcessNext(context.Background())
	if err != nil {
		t.Fatalf("process next: %v", err)
	}
	if !didWork {
		t.Fatalf("expected work to be done")
	}

	got, err := store.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != queue.StatusComplete {
		t.Fatalf("expected complete, got %s", got.Status)
	}
	wantPath := filepath.Join(cfg.MoviesLibraryRoot, "The Matrix (1999)", "The Matrix (1999).mkv")
	if got.FinalPath != wantPath {
		t.Fatalf("final path = %q, want %q", got.FinalPath, wantPath)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Fatalf("expected file at destination: %v", err)
	}

	collection, err := store.GetCollection(context.Background())
	if err != nil {
		t.Fatalf("get collection: %v", err)
	}
	if len(collection) != 1 || collection[0].FinalPath != wantPath {
		t.Fatalf("expected one collection row pointing at %q, got %+v", wantPath, collection)
	}
}

func TestProcessNextLeavesJobInPlaceWhenRootMissing(t *testing.T) {
	base := t.TempDir()
	encodePath := filepath.Join(base, "encoding", "source.mkv")
	if err := os.MkdirAll(filepath.Dir(encodePath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(encodePath, []byte("data"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	store := newTestStore(t)
	job := movingJob(t, store, "Heat", 1995, encodePath)

	cfg := &config.Config{
		MoviesLibraryRoot: filepath.Join(base, "does-not-exist"),
		TVLibraryRoot:     filepath.Join(base, "tv"),
		WorkspaceRoot:     base,
	}

	m := mover.New(store, cfg, nil)
	didWork, err := m.ProcessNext(context.Background())
	if err != nil {
		t.Fatalf("process next: %v", err)
	}
	if didWork {
		t.Fatalf("expected no work done while root is missing")
	}

	got, err := store.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != queue.StatusMoving {
		t.Fatalf("expected job to remain in moving, got %s", got.Status)
	}
}
