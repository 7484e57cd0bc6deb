package queue

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResetOnStartup implements the oversight startup cleanup described in the
// job store specification: RIPPING jobs are failed (the drive state is
// unknown after a restart), ENCODING jobs revert to RIPPED (the encoded
// output is unusable), and IDENTIFYING jobs revert to ENCODED. It returns
// the number of jobs touched in each category.
func (s *Store) ResetOnStartup(ctx context.Context) (rippingFailed, encodingReverted, identifyingReverted int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("begin startup reset tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now())

	rippingFailed, err = execCount(ctx, tx, `
		UPDATE jobs SET status = ?, error_message = ?, updated_at = ? WHERE status = ?`,
		string(StatusFailed), "reset on startup", now, string(StatusRipping))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("reset ripping jobs: %w", err)
	}

	encodingReverted, err = execCount(ctx, tx, `
		UPDATE jobs SET status = ?, updated_at = ? WHERE status = ?`,
		string(StatusRipped), now, string(StatusEncoding))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("revert encoding jobs: %w", err)
	}

	identifyingReverted, err = execCount(ctx, tx, `
		UPDATE jobs SET status = ?, updated_at = ? WHERE status = ?`,
		string(StatusEncoded), now, string(StatusIdentifying))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("revert identifying jobs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, 0, fmt.Errorf("commit startup reset: %w", err)
	}
	return rippingFailed, encodingReverted, identifyingReverted, nil
}

func execCount(ctx context.Context, tx *sql.Tx, query string, args ...any) (int, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// CountByStatus returns the number of jobs currently in status.
func (s *Store) CountByStatus(ctx context.Context, status Status) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM jobs WHERE status = ?", string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count jobs in status %s: %w", status, err)
	}
	return count, nil
}

// DrivesWithMultipleRipping returns drive ids that have more than one job
// in ripping, which violates the per-drive rip invariant.
func (s *Store) DrivesWithMultipleRipping(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT drive_id FROM jobs WHERE status = ? GROUP BY drive_id HAVING COUNT(1) > 1`,
		string(StatusRipping))
	if err != nil {
		return nil, fmt.Errorf("find multi-ripping drives: %w", err)
	}
	defer rows.Close()
	var drives []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan drive id: %w", err)
		}
		drives = append(drives, d)
	}
	return drives, rows.Err()
}

// StaleJobs returns jobs in status whose updated_at is older than olderThan.
func (s *Store) StaleJobs(ctx context.Context, status Status, olderThan time.Duration) ([]*Job, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE status = ? AND updated_at < ? ORDER BY updated_at ASC",
		string(status), cutoff)
	if err != nil {
		return nil, fmt.Errorf("find stale %s jobs: %w", status, err)
	}
	defer rows.Close()
	return scanJobRows(rows)
}

// FixStuckEncodingJobs keeps the most recently updated ENCODING job and
// reverts every other ENCODING job to RIPPED. It returns the number of
// jobs reverted. This is the only automatic repair the store performs
// beyond startup cleanup.
func (s *Store) FixStuckEncodingJobs(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin fix-encoding tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var keepID sql.NullInt64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM jobs WHERE status = ? ORDER BY updated_at DESC, id DESC LIMIT 1",
		string(StatusEncoding)).Scan(&keepID)
	if err == sql.ErrNoRows || !keepID.Valid {
		return 0, tx.Commit()
	}
	if err != nil {
		return 0, fmt.Errorf("find most recent encoding job: %w", err)
	}

	reverted, err := execCount(ctx, tx, `
		UPDATE jobs SET status = ?, updated_at = ? WHERE status = ? AND id != ?`,
		string(StatusRipped), formatTime(time.Now()), string(StatusEncoding), keepID.Int64)
	if err != nil {
		return 0, fmt.Errorf("revert extra encoding jobs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit fix-encoding: %w", err)
	}
	return reverted, nil
}

// LogRepair appends a record of an oversight repair action. It is used by
// both the startup cleanup path and FixStuckEncodingJobs so oversight_
// history() has a complete audit trail regardless of which repair ran.
func (s *Store) LogRepair(ctx context.Context, kind, message string, jobIDs []int64, repairedCount int) error {
	encoded := make([]string, len(jobIDs))
	for i, id := range jobIDs {
		encoded[i] = strconv.FormatInt(id, 10)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oversight_log (kind, message, job_ids, repaired_count, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		kind, message, strings.Join(encoded, ","), repairedCount, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("log repair event: %w", err)
	}
	return nil
}

// RecentRepairs returns the most recent repair events, newest first,
// bounded by limit.
func (s *Store) RecentRepairs(ctx context.Context, limit int) ([]*RepairEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, message, job_ids, repaired_count, occurred_at
		FROM oversight_log ORDER BY occurred_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list repair events: %w", err)
	}
	defer rows.Close()

	var events []*RepairEvent
	for rows.Next() {
		var (
			e          RepairEvent
			jobIDsCSV  string
			occurredAt string
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.Message, &jobIDsCSV, &e.RepairedCount, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan repair event: %w", err)
		}
		occurred, err := parseTime(occurredAt)
		if err != nil {
			return nil, fmt.Errorf("parse repair event time: %w", err)
		}
		e.OccurredAt = occurred
		if jobIDsCSV != "" {
			for _, part := range strings.Split(jobIDsCSV, ",") {
				id, err := strconv.ParseInt(part, 10, 64)
				if err != nil {
					continue
				}
				e.JobIDs = append(e.JobIDs, id)
			}
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// Health returns an aggregate status-count summary.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM jobs GROUP BY status")
	if err != nil {
		return HealthSummary{}, fmt.Errorf("aggregate job health: %w", err)
	}
	defer rows.Close()

	var h HealthSummary
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan health row: %w", err)
		}
		h.Total += count
		switch Status(status) {
		case StatusPending:
			h.Pending += count
		case StatusRipping, StatusEncoding, StatusIdentifying, StatusMoving:
			h.Processing += count
		case StatusFailed:
			h.Failed += count
		case StatusReview:
			h.Review += count
		case StatusComplete:
			h.Completed += count
		}
	}
	return h, rows.Err()
}
