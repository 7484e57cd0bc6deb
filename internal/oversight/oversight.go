package oversight

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"discpipe/internal/config"
	"discpipe/internal/queue"
)

// StartupSummary reports how many jobs each startup cleanup rule touched.
type StartupSummary struct {
	RippingFailed       int
	EncodingReverted    int
	IdentifyingReverted int
}

// RunStartupCleanup resets orphaned transient states left behind by an
// unclean shutdown, as described in the job store specification: RIPPING
// jobs are failed (drive state is unknown), ENCODING jobs revert to
// RIPPED (the encoded output is unusable), and IDENTIFYING jobs revert to
// ENCODED. It must run once, before any worker accepts new work.
func RunStartupCleanup(ctx context.Context, store *queue.Store, logger *slog.Logger) (StartupSummary, error) {
	rippingFailed, encodingReverted, identifyingReverted, err := store.ResetOnStartup(ctx)
	if err != nil {
		return StartupSummary{}, fmt.Errorf("startup cleanup: %w", err)
	}
	summary := StartupSummary{
		RippingFailed:       rippingFailed,
		EncodingReverted:    encodingReverted,
		IdentifyingReverted: identifyingReverted,
	}
	if rippingFailed > 0 || encodingReverted > 0 || identifyingReverted > 0 {
		if logger != nil {
			logger.Info("startup cleanup reset orphaned transient states",
				slog.Int("ripping_failed", rippingFailed),
				slog.Int("encoding_reverted", encodingReverted),
				slog.Int("identifying_reverted", identifyingReverted),
			)
		}
		msg := fmt.Sprintf("startup cleanup: %d ripping failed, %d encoding reverted, %d identifying reverted",
			rippingFailed, encodingReverted, identifyingReverted)
		if err := store.LogRepair(ctx, "startup_cleanup", msg, nil, rippingFailed+encodingReverted+identifyingReverted); err != nil && logger != nil {
			logger.Warn("failed to record startup cleanup in oversight history", "error", err)
		}
	}
	return summary, nil
}

// Issue describes a detected consistency violation or stuck job.
type Issue struct {
	Kind    string
	Message string
	JobIDs  []int64
}

// CheckConsistency evaluates the runtime invariants described in the
// oversight specification: at most one job encoding, at most one job per
// drive ripping, and no job sitting in a transient status past its stale
// threshold. It makes no changes; repair is a separate, explicit step.
func CheckConsistency(ctx context.Context, store *queue.Store, cfg *config.Config) ([]Issue, error) {
	var issues []Issue

	encoding, err := store.GetJobsByStatus(ctx, queue.StatusEncoding)
	if err != nil {
		return nil, fmt.Errorf("list encoding jobs: %w", err)
	}
	if len(encoding) > 1 {
		ids := jobIDs(encoding)
		issues = append(issues, Issue{
			Kind:    "multiple_encoding",
			Message: fmt.Sprintf("multiple jobs (%d) are in encoding, violating the single-encode invariant", len(encoding)),
			JobIDs:  ids,
		})
	}

	drives, err := store.DrivesWithMultipleRipping(ctx)
	if err != nil {
		return nil, fmt.Errorf("list multi-ripping drives: %w", err)
	}
	for _, drive := range drives {
		issues = append(issues, Issue{
			Kind:    "multiple_ripping_on_drive",
			Message: fmt.Sprintf("drive %s has more than one job in ripping", drive),
		})
	}

	staleChecks := []struct {
		status Status
		window time.Duration
	}{
		{StatusRipping, time.Duration(cfg.StaleRippingHours) * time.Hour},
		{StatusEncoding, time.Duration(cfg.StaleEncodingHours) * time.Hour},
		{StatusIdentifying, time.Duration(cfg.StaleIdentifyMinutes) * time.Minute},
	}
	for _, check := range staleChecks {
		stale, err := store.StaleJobs(ctx, queue.Status(check.status), check.window)
		if err != nil {
			return nil, fmt.Errorf("find stale %s jobs: %w", check.status, err)
		}
		if len(stale) == 0 {
			continue
		}
		issues = append(issues, Issue{
			Kind:    "stale_" + string(check.status),
			Message: fmt.Sprintf("%d job(s) have been in %s longer than %s", len(stale), check.status, check.window),
			JobIDs:  jobIDs(stale),
		})
	}

	return issues, nil
}

// Status aliases queue.Status for readability in this package's table.
type Status = queue.Status

const (
	StatusRipping     = queue.StatusRipping
	StatusEncoding    = queue.StatusEncoding
	StatusIdentifying = queue.StatusIdentifying
)

// FixStuckEncoding repairs the single known automatic-repair case: more
// than one job in ENCODING. It keeps the most recently updated job and
// reverts the rest to RIPPED, returning the number of jobs reverted.
func FixStuckEncoding(ctx context.Context, store *queue.Store) (int, error) {
	reverted, err := store.FixStuckEncodingJobs(ctx)
	if err != nil {
		return 0, err
	}
	if reverted > 0 {
		msg := fmt.Sprintf("fix_stuck_encoding_jobs reverted %d extra encoding job(s) to ripped", reverted)
		_ = store.LogRepair(ctx, "fix_stuck_encoding", msg, nil, reverted)
	}
	return reverted, nil
}

// History returns the most recent oversight repair actions, newest first,
// for the supplemental oversight_history() read-only operation.
func History(ctx context.Context, store *queue.Store, limit int) ([]*queue.RepairEvent, error) {
	return store.RecentRepairs(ctx, limit)
}

func jobIDs(jobs []*queue.Job) []int64 {
	ids := make([]int64, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return ids
}
