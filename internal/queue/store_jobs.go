package queue

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const jobColumns = `id, status, drive_id, disc_label, content_type, identified_title,
	identified_year, catalog_id, confidence, poster_ref, rip_path, encode_path,
	final_path, error_message, created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (*Job, error) {
	var j Job
	var status, contentType, createdAt, updatedAt string
	var year, catalogID sql.NullInt64
	var confidence sql.NullFloat64
	err := row.Scan(
		&j.ID, &status, &j.DriveID, &j.DiscLabel, &contentType, &j.IdentifiedTitle,
		&year, &catalogID, &confidence, &j.PosterRef, &j.RipPath, &j.EncodePath,
		&j.FinalPath, &j.ErrorMessage, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.Status = Status(status)
	j.ContentType = ContentType(contentType)
	j.IdentifiedYear = intPtr(year)
	j.CatalogID = int64Ptr(catalogID)
	j.Confidence = floatPtr(confidence)
	if j.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if j.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &j, nil
}

// CreateJob assigns an id and timestamps and inserts a new pending job for
// the given drive. disc_label may be empty.
func (s *Store) CreateJob(ctx context.Context, driveID, discLabel string) (*Job, error) {
	if strings.TrimSpace(driveID) == "" {
		return nil, fmt.Errorf("queue: drive id required")
	}
	now := formatTime(time.Now())
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (status, drive_id, disc_label, content_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(StatusPending), driveID, discLabel, string(ContentUnknown), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("job id: %w", err)
	}
	return s.GetJob(ctx, id)
}

// GetJob fetches a single job by id. Returns ErrNotFound if absent.
func (s *Store) GetJob(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return job, nil
}

// GetJobsByStatus returns jobs in the given status, ordered by updated_at
// ascending (oldest first) for pipeline fairness.
func (s *Store) GetJobsByStatus(ctx context.Context, status Status) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE status = ? ORDER BY updated_at ASC, id ASC",
		string(status))
	if err != nil {
		return nil, fmt.Errorf("list jobs by status: %w", err)
	}
	defer rows.Close()
	return scanJobRows(rows)
}

// GetPendingJobForDrive returns the oldest pending job bound to driveID,
// or nil if none.
func (s *Store) GetPendingJobForDrive(ctx context.Context, driveID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+jobColumns+` FROM jobs WHERE status = ? AND drive_id = ?
		 ORDER BY created_at ASC, id ASC LIMIT 1`,
		string(StatusPending), driveID)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending job for drive %s: %w", driveID, err)
	}
	return job, nil
}

// GetRecentJobs returns up to limit jobs ordered by updated_at descending.
// When excludeArchived is true, archived jobs are omitted.
func (s *Store) GetRecentJobs(ctx context.Context, limit int, excludeArchived bool) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT " + jobColumns + " FROM jobs"
	args := []any{}
	if excludeArchived {
		query += " WHERE status != ?"
		args = append(args, string(StatusArchived))
	}
	query += " ORDER BY updated_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get recent jobs: %w", err)
	}
	defer rows.Close()
	return scanJobRows(rows)
}

func scanJobRows(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// UpdateJobIdentification sets identification fields only; it never
// changes status. Confidence of exactly 1.0 means a human supplied the
// identification (pre_identify or the review identify action); callers
// enforce that contract, the store simply persists whatever is given.
func (s *Store) UpdateJobIdentification(ctx context.Context, id int64, contentType ContentType, title string, year *int, catalogID *int64, confidence *float64, posterRef string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET content_type = ?, identified_title = ?, identified_year = ?,
			catalog_id = ?, confidence = ?, poster_ref = ?, updated_at = ?
		WHERE id = ?`,
		string(contentType), title, nullableInt(year), nullableInt64(catalogID),
		nullableFloat(confidence), posterRef, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("update identification for job %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// JobPathField names the artifact path fields a worker may set.
type JobPathField string

const (
	JobPathRip    JobPathField = "rip_path"
	JobPathEncode JobPathField = "encode_path"
	JobPathFinal  JobPathField = "final_path"
)

// SetJobPath records the artifact path produced by a pipeline stage.
func (s *Store) SetJobPath(ctx context.Context, id int64, field JobPathField, value string) error {
	switch field {
	case JobPathRip, JobPathEncode, JobPathFinal:
	default:
		return fmt.Errorf("queue: unknown path field %q", field)
	}
	query := fmt.Sprintf("UPDATE jobs SET %s = ?, updated_at = ? WHERE id = ?", string(field))
	res, err := s.db.ExecContext(ctx, query, value, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("set %s for job %d: %w", field, id, err)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
