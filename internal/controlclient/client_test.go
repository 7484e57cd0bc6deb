package controlclient_test

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"discpipe/internal/config"
	"discpipe/internal/control"
	"discpipe/internal/controlclient"
	"discpipe/internal/queue"
)

func newTestServer(t *testing.T) (*httptest.Server, *queue.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := queue.Open(context.Background(), filepath.Join(dir, "queue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{StaleRippingHours: 4, StaleEncodingHours: 8, StaleIdentifyMinutes: 60}
	svc := control.New(store, cfg, nil, nil)
	srv := control.NewServer("127.0.0.1:0", svc, nil)
	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(httpSrv.Close)
	return httpSrv, store
}

func TestClientListJobsAndApprove(t *testing.T) {
	httpSrv, store := newTestServer(t)
	ctx := context.Background()

	job, err := store.CreateJob(ctx, "/dev/sr0", "THE_MATRIX")
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	for _, status := range []queue.Status{queue.StatusRipping, queue.StatusRipped, queue.StatusEncoding, queue.StatusEncoded, queue.StatusIdentifying, queue.StatusReview} {
		if err := store.UpdateJobStatus(ctx, job.ID, status, ""); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	client := controlclient.New(httpSrv.URL)

	jobs, err := client.ListJobs(ctx, queue.StatusReview, 10, false)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != job.ID {
		t.Fatalf("expected the review job, got %+v", jobs)
	}

	status, err := client.Approve(ctx, job.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if status != queue.StatusMoving {
		t.Fatalf("expected moving, got %s", status)
	}
}

func TestClientGetJobUnknownReturnsErrNotFound(t *testing.T) {
	httpSrv, _ := newTestServer(t)
	client := controlclient.New(httpSrv.URL)

	_, err := client.GetJob(context.Background(), 999)
	if err == nil {
		t.Fatal("expected an error for an unknown job")
	}
	if err != controlclient.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientApproveRejectsNonReviewJob(t *testing.T) {
	httpSrv, store := newTestServer(t)
	ctx := context.Background()

	job, err := store.CreateJob(ctx, "/dev/sr0", "DISC")
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	client := controlclient.New(httpSrv.URL)
	_, err = client.Approve(ctx, job.ID)
	if err != controlclient.ErrInvalidState {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestClientWantedRoundTrip(t *testing.T) {
	httpSrv, _ := newTestServer(t)
	client := controlclient.New(httpSrv.URL)
	ctx := context.Background()

	year := 1999
	id, err := client.AddWanted(ctx, "The Matrix", &year, queue.ContentMovie, nil, "", "")
	if err != nil {
		t.Fatalf("add wanted: %v", err)
	}

	items, err := client.Wanted(ctx)
	if err != nil {
		t.Fatalf("wanted: %v", err)
	}
	if len(items) != 1 || items[0].ID != id {
		t.Fatalf("expected the added item, got %+v", items)
	}

	if err := client.RemoveWanted(ctx, id); err != nil {
		t.Fatalf("remove wanted: %v", err)
	}
	items, err = client.Wanted(ctx)
	if err != nil {
		t.Fatalf("wanted: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty wanted list, got %+v", items)
	}
}

func TestClientOversightCheckAndFixEncoding(t *testing.T) {
	httpSrv, store := newTestServer(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		job, err := store.CreateJob(ctx, "drive", "DISC")
		if err != nil {
			t.Fatalf("create job: %v", err)
		}
		for _, status := range []queue.Status{queue.StatusRipping, queue.StatusRipped} {
			if err := store.UpdateJobStatus(ctx, job.ID, status, ""); err != nil {
				t.Fatalf("transition to %s: %v", status, err)
			}
		}
		if i == 0 {
			if err := store.UpdateJobStatus(ctx, job.ID, queue.StatusEncoding, ""); err != nil {
				t.Fatalf("transition to encoding: %v", err)
			}
			continue
		}
		// The store refuses a second ENCODING job, so the duplicate row is
		// written straight into the database file.
		db, err := sql.Open("sqlite", store.Path())
		if err != nil {
			t.Fatalf("open database: %v", err)
		}
		defer db.Close()
		if _, err := db.ExecContext(ctx, "UPDATE jobs SET status = 'encoding' WHERE id = ?", job.ID); err != nil {
			t.Fatalf("force second encoding row: %v", err)
		}
	}

	client := controlclient.New(httpSrv.URL)
	issues, err := client.OversightCheck(ctx)
	if err != nil {
		t.Fatalf("oversight check: %v", err)
	}
	if len(issues) == 0 {
		t.Fatal("expected at least one issue for duplicate encoding jobs")
	}

	repaired, err := client.OversightFixEncoding(ctx)
	if err != nil {
		t.Fatalf("fix encoding: %v", err)
	}
	if repaired != 1 {
		t.Fatalf("expected 1 repair, got %d", repaired)
	}

	history, err := client.OversightHistory(ctx, 10)
	if err != nil {
		t.Fatalf("oversight history: %v", err)
	}
	if len(history) != 1 || history[0].Kind != "fix_stuck_encoding" {
		t.Fatalf("expected one fix_stuck_encoding history entry, got %+v", history)
	}
}
