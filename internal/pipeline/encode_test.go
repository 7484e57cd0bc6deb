package pipeline_test

import (
	"context"
	"testing"
	"time"

	"discpipe/internal/pipeline"
	"discpipe/internal/queue"
)

type fakeTranscoder struct {
	err   error
	block chan struct{}
}

func (f *fakeTranscoder) Encode(ctx context.Context, inputFile, outputFile string, progress func(pipeline.EncodeProgress)) error {
	if progress != nil {
		progress(pipeline.EncodeProgress{Percent: 50})
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func ripTestJob(t *testing.T, store *queue.Store, drive string) *queue.Job {
	t.Helper()
	ctx := context.Background()
	job, err := store.CreateJob(ctx, drive, "TEST_DISC")
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	for _, status := range []queue.Status{queue.StatusRipping, queue.StatusRipped} {
		if err := store.UpdateJobStatus(ctx, job.ID, status, ""); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}
	if err := store.SetJobPath(ctx, job.ID, queue.JobPathRip, "/staging/1/rip.mkv"); err != nil {
		t.Fatalf("set rip path: %v", err)
	}
	updated, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	return updated
}

func TestEncodeWorkerEncodesRippedJob(t *testing.T) {
	store := newTestStore(t)
	job := ripTestJob(t, store, "/dev/sr0")

	w := pipeline.NewEncodeWorker(store, &fakeTranscoder{}, func(int64) string { return "/encoding/1" }, time.Millisecond, nil)
	runEncoderBriefly(w)

	updated, err := store.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if updated.Status != queue.StatusEncoded {
		t.Fatalf("expected job encoded, got %s", updated.Status)
	}
	if updated.EncodePath == "" {
		t.Fatalf("expected encode path to be recorded")
	}
}

func TestEncodeWorkerRevertsToRippedOnShutdown(t *testing.T) {
	store := newTestStore(t)
	job := ripTestJob(t, store, "/dev/sr0")

	block := make(chan struct{})
	w := pipeline.NewEncodeWorker(store, &fakeTranscoder{block: block}, func(int64) string { return "/encoding/1" }, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	time.Sleep(30 * time.Millisecond)

	cancel()
	w.Stop()
	close(block)

	updated, err := store.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if updated.Status != queue.StatusRipped {
		t.Fatalf("expected job reverted to ripped on shutdown, got %s", updated.Status)
	}
}

func runEncoderBriefly(w *pipeline.EncodeWorker) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	w.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	w.Stop()
}
