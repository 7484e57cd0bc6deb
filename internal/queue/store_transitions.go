package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// transitions is the state graph from the job store specification. A
// status change is legal only if the target is listed for the current
// status.
var transitions = map[Status][]Status{
	StatusPending:     {StatusRipping, StatusFailed},
	StatusRipping:     {StatusRipped, StatusFailed},
	StatusRipped:      {StatusEncoding, StatusFailed},
	StatusEncoding:    {StatusEncoded, StatusFailed, StatusRipped}, // encoding->ripped: cancellation checkpoint
	StatusEncoded:     {StatusIdentifying, StatusFailed},
	StatusIdentifying: {StatusReview, StatusMoving, StatusFailed, StatusEncoded}, // ->encoded: oversight startup cleanup
	StatusReview:      {StatusMoving, StatusFailed},
	StatusMoving:      {StatusComplete, StatusFailed},
	StatusComplete:    {StatusArchived},
	StatusFailed:      {StatusArchived},
	StatusArchived:    {},
}

func legalTransition(from, to Status) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// UpdateJobStatus performs an atomic, guarded status transition. It
// rejects transitions absent from the state graph, and enforces the two
// concurrency invariants that belong to the store rather than to any one
// worker: at most one job in encoding globally, and at most one job per
// drive_id in ripping. errorMessage may be empty; a non-empty value is
// always recorded alongside the new status.
func (s *Store) UpdateJobStatus(ctx context.Context, id int64, newStatus Status, errorMessage string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var currentStatus, driveID string
	err = tx.QueryRowContext(ctx, "SELECT status, drive_id FROM jobs WHERE id = ?", id).Scan(&currentStatus, &driveID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read job %d status: %w", id, err)
	}

	from := Status(currentStatus)
	if !legalTransition(from, newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, newStatus)
	}

	if newStatus == StatusEncoding {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM jobs WHERE status = ? AND id != ?", string(StatusEncoding), id).Scan(&count); err != nil {
			return fmt.Errorf("check encoding invariant: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: another job is already encoding", ErrInvalidTransition)
		}
	}
	if newStatus == StatusRipping {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM jobs WHERE status = ? AND drive_id = ? AND id != ?", string(StatusRipping), driveID, id).Scan(&count); err != nil {
			return fmt.Errorf("check ripping invariant: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: drive %s already ripping", ErrInvalidTransition, driveID)
		}
	}

	// error_message is only overwritten when a non-empty reason is
	// supplied. A terminal->archived transition (or any other caller
	// that passes "") must not wipe out a previously recorded failure
	// reason: archival is a status label, not a fresh record (§3).
	res, err := tx.ExecContext(ctx,
		"UPDATE jobs SET status = ?, error_message = CASE WHEN ? <> '' THEN ? ELSE error_message END, updated_at = ? WHERE id = ?",
		string(newStatus), errorMessage, errorMessage, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update job %d status: %w", id, err)
	}
	if err := requireAffected(res, id); err != nil {
		return err
	}
	return tx.Commit()
}
