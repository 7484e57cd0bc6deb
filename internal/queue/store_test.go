package queue

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(context.Background(), filepath.Join(dir, "queue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateJobDefaultsToPending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job, err := store.CreateJob(ctx, "drive-1", "THE_MATRIX")
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if job.Status != StatusPending {
		t.Fatalf("expected pending, got %s", job.Status)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
}

func TestUpdateJobStatusRejectsIllegalTransition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job, err := store.CreateJob(ctx, "drive-1", "")
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	if err := store.UpdateJobStatus(ctx, job.ID, StatusComplete, ""); err == nil {
		t.Fatalf("expected pending->complete to be rejected")
	}
}

func TestUpdateJobStatusEnforcesSingleGlobalEncoding(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, _ := store.CreateJob(ctx, "drive-1", "")
	second, _ := store.CreateJob(ctx, "drive-2", "")

	for _, j := range []*Job{first, second} {
		if err := store.UpdateJobStatus(ctx, j.ID, StatusRipping, ""); err != nil {
			t.Fatalf("transition to ripping: %v", err)
		}
		if err := store.UpdateJobStatus(ctx, j.ID, StatusRipped, ""); err != nil {
			t.Fatalf("transition to ripped: %v", err)
		}
	}

	if err := store.UpdateJobStatus(ctx, first.ID, StatusEncoding, ""); err != nil {
		t.Fatalf("first job should start encoding: %v", err)
	}
	if err := store.UpdateJobStatus(ctx, second.ID, StatusEncoding, ""); err == nil {
		t.Fatalf("expected second concurrent encode to be rejected")
	}
}

func TestUpdateJobStatusEnforcesSingleRipPerDrive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, _ := store.CreateJob(ctx, "drive-1", "")
	second, _ := store.CreateJob(ctx, "drive-1", "")

	if err := store.UpdateJobStatus(ctx, first.ID, StatusRipping, ""); err != nil {
		t.Fatalf("first job should start ripping: %v", err)
	}
	if err := store.UpdateJobStatus(ctx, second.ID, StatusRipping, ""); err == nil {
		t.Fatalf("expected second same-drive rip to be rejected")
	}
}

func TestArchiveTransitionPreservesErrorMessage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job, _ := store.CreateJob(ctx, "drive-1", "")
	if err := store.UpdateJobStatus(ctx, job.ID, StatusFailed, "rip error: disc unreadable"); err != nil {
		t.Fatalf("transition to failed: %v", err)
	}

	if err := store.UpdateJobStatus(ctx, job.ID, StatusArchived, ""); err != nil {
		t.Fatalf("transition to archived: %v", err)
	}

	archived, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if archived.ErrorMessage != "rip error: disc unreadable" {
		t.Fatalf("expected archive to preserve error_message, got %q", archived.ErrorMessage)
	}
}

func TestGetJobsByStatusOrdersOldestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, _ := store.CreateJob(ctx, "drive-1", "")
	time.Sleep(2 * time.Millisecond)
	second, _ := store.CreateJob(ctx, "drive-2", "")

	jobs, err := store.GetJobsByStatus(ctx, StatusPending)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != first.ID || jobs[1].ID != second.ID {
		t.Fatalf("expected oldest-first order, got %+v", jobs)
	}
}

func TestResetOnStartupRevertsTransientStates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ripping, _ := store.CreateJob(ctx, "drive-1", "")
	_ = store.UpdateJobStatus(ctx, ripping.ID, StatusRipping, "")

	encoding, _ := store.CreateJob(ctx, "drive-2", "")
	_ = store.UpdateJobStatus(ctx, encoding.ID, StatusRipping, "")
	_ = store.UpdateJobStatus(ctx, encoding.ID, StatusRipped, "")
	_ = store.UpdateJobStatus(ctx, encoding.ID, StatusEncoding, "")

	failed, reverted, _, err := store.ResetOnStartup(ctx)
	if err != nil {
		t.Fatalf("reset on startup: %v", err)
	}
	if failed != 1 || reverted != 1 {
		t.Fatalf("expected 1 failed, 1 reverted, got %d %d", failed, reverted)
	}

	got, _ := store.GetJob(ctx, ripping.ID)
	if got.Status != StatusFailed {
		t.Fatalf("expected ripping job failed, got %s", got.Status)
	}
	got, _ = store.GetJob(ctx, encoding.ID)
	if got.Status != StatusRipped {
		t.Fatalf("expected encoding job reverted to ripped, got %s", got.Status)
	}
}

func TestFixStuckEncodingJobsKeepsMostRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older, _ := store.CreateJob(ctx, "drive-1", "")
	_ = store.UpdateJobStatus(ctx, older.ID, StatusRipping, "")
	_ = store.UpdateJobStatus(ctx, older.ID, StatusRipped, "")
	_ = store.UpdateJobStatus(ctx, older.ID, StatusEncoding, "")

	// Force a second encoding row directly, bypassing the invariant guard,
	// to simulate the fault-injection scenario from the spec.
	newer, _ := store.CreateJob(ctx, "drive-2", "")
	_ = store.UpdateJobStatus(ctx, newer.ID, StatusRipping, "")
	_ = store.UpdateJobStatus(ctx, newer.ID, StatusRipped, "")
	if _, err := store.db.ExecContext(ctx, "UPDATE jobs SET status = 'encoding' WHERE id = ?", newer.ID); err != nil {
		t.Fatalf("force second encoding row: %v", err)
	}

	count, err := store.CountByStatus(ctx, StatusEncoding)
	if err != nil || count != 2 {
		t.Fatalf("expected 2 encoding jobs, got %d (%v)", count, err)
	}

	repaired, err := store.FixStuckEncodingJobs(ctx)
	if err != nil {
		t.Fatalf("fix stuck encoding: %v", err)
	}
	if repaired != 1 {
		t.Fatalf("expected 1 repaired job, got %d", repaired)
	}

	count, _ = store.CountByStatus(ctx, StatusEncoding)
	if count != 1 {
		t.Fatalf("expected exactly 1 encoding job after repair, got %d", count)
	}
}

func TestActiveModeDefaultsTrue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	active, err := store.GetActiveMode(ctx)
	if err != nil {
		t.Fatalf("get active mode: %v", err)
	}
	if !active {
		t.Fatalf("expected active mode to default to true")
	}

	if err := store.SetActiveMode(ctx, false); err != nil {
		t.Fatalf("set active mode: %v", err)
	}
	active, _ = store.GetActiveMode(ctx)
	if active {
		t.Fatalf("expected active mode false after set")
	}
}

func TestAddAndRemoveWantedRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	year := 1999
	id, err := store.AddToWanted(ctx, "The Matrix", &year, ContentMovie, nil, "", "")
	if err != nil {
		t.Fatalf("add wanted: %v", err)
	}
	before, err := store.GetWanted(ctx)
	if err != nil || len(before) != 1 {
		t.Fatalf("expected 1 wanted item, got %d (%v)", len(before), err)
	}

	if err := store.RemoveFromWanted(ctx, id); err != nil {
		t.Fatalf("remove wanted: %v", err)
	}
	after, err := store.GetWanted(ctx)
	if err != nil || len(after) != 0 {
		t.Fatalf("expected wanted list empty after remove, got %d", len(after))
	}
}

func TestLogRepairAndRecentRepairsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.LogRepair(ctx, "fix_stuck_encoding", "reverted 1 job", []int64{7}, 1); err != nil {
		t.Fatalf("log repair: %v", err)
	}
	if err := store.LogRepair(ctx, "startup_cleanup", "reset 2 jobs", nil, 2); err != nil {
		t.Fatalf("log repair: %v", err)
	}

	events, err := store.RecentRepairs(ctx, 10)
	if err != nil {
		t.Fatalf("recent repairs: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 repair events, got %d", len(events))
	}
	if events[0].Kind != "startup_cleanup" {
		t.Fatalf("expected newest-first ordering, got %s first", events[0].Kind)
	}
	if events[1].Kind != "fix_stuck_encoding" || len(events[1].JobIDs) != 1 || events[1].JobIDs[0] != 7 {
		t.Fatalf("expected fix_stuck_encoding event with job id 7, got %+v", events[1])
	}
}
