package control

import (
	"context"
	"errors"
	"log/slog"

	"discpipe/internal/catalog"
	"discpipe/internal/config"
	"discpipe/internal/oversight"
	"discpipe/internal/queue"
)

// ErrNotFound is returned when an operation targets a job or wanted item
// that does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidState is returned when an operation's status guard fails.
var ErrInvalidState = errors.New("invalid state")

var preIdentifiableStatuses = map[queue.Status]bool{
	queue.StatusPending:     true,
	queue.StatusRipping:     true,
	queue.StatusRipped:      true,
	queue.StatusEncoding:    true,
	queue.StatusEncoded:     true,
	queue.StatusIdentifying: true,
}

var archivableStatuses = map[queue.Status]bool{
	queue.StatusComplete: true,
	queue.StatusFailed:   true,
}

// minIdentifiedYear and maxIdentifiedYear bound the year argument on
// human-asserted identification, matching the store's identified_year
// range (§3).
const (
	minIdentifiedYear = 1800
	maxIdentifiedYear = 2100
)

func validYear(year int) bool {
	return year >= minIdentifiedYear && year <= maxIdentifiedYear
}

// Service implements the guard logic behind every control-surface
// operation. It is safe for concurrent use; all state lives in the store.
type Service struct {
	store   *queue.Store
	cfg     *config.Config
	catalog catalog.Searcher
	logger  *slog.Logger
}

// New builds a Service. catalogClient may be nil, in which case poster
// lookups are skipped and identification proceeds without one, matching
// the catalog boundary's "implementations may be offline" contract.
func New(store *queue.Store, cfg *config.Config, catalogClient catalog.Searcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cfg: cfg, catalog: catalogClient, logger: logger.With("component", "control")}
}

func (s *Service) requireJob(ctx context.Context, jobID int64) (*queue.Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrNotFound
	}
	return job, nil
}

// Approve transitions a REVIEW job to MOVING.
func (s *Service) Approve(ctx context.Context, jobID int64) (*queue.Job, error) {
	job, err := s.requireJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != queue.StatusReview {
		return nil, ErrInvalidState
	}
	if err := s.store.UpdateJobStatus(ctx, jobID, queue.StatusMoving, ""); err != nil {
		return nil, err
	}
	return s.requireJob(ctx, jobID)
}

// Identify overrides identification on a REVIEW job with a human-asserted
// title and year, then transitions it to MOVING. Confidence is pinned to
// 1.0: a human assertion always outranks catalog scoring.
func (s *Service) Identify(ctx context.Context, jobID int64, title string, year int) (*queue.Job, error) {
	job, err := s.requireJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != queue.StatusReview {
		return nil, ErrInvalidState
	}
	if !validYear(year) {
		return nil, ErrInvalidState
	}
	posterRef, catalogID := s.lookupPoster(ctx, title, year)
	confidence := 1.0
	yearPtr := &year
	if err := s.store.UpdateJobIdentification(ctx, jobID, queue.ContentMovie, title, yearPtr, catalogID, &confidence, posterRef); err != nil {
		return nil, err
	}
	if err := s.store.UpdateJobStatus(ctx, jobID, queue.StatusMoving, ""); err != nil {
		return nil, err
	}
	return s.requireJob(ctx, jobID)
}

// Skip transitions a REVIEW job to FAILED without ever touching the
// library, recording the reason a human rejected it.
func (s *Service) Skip(ctx context.Context, jobID int64) (*queue.Job, error) {
	job, err := s.requireJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != queue.StatusReview {
		return nil, ErrInvalidState
	}
	if err := s.store.UpdateJobStatus(ctx, jobID, queue.StatusFailed, "skipped by user"); err != nil {
		return nil, err
	}
	return s.requireJob(ctx, jobID)
}

// PreIdentify writes an identification onto a job that has not yet
// reached review, without changing its status. A later stage (the
// identifier) sees confidence=1.0 already set and takes the pre-identify
// shortcut instead of querying the catalog itself.
func (s *Service) PreIdentify(ctx context.Context, jobID int64, title string, year int) (*queue.Job, error) {
	job, err := s.requireJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !preIdentifiableStatuses[job.Status] {
		return nil, ErrInvalidState
	}
	if !validYear(year) {
		return nil, ErrInvalidState
	}
	posterRef, catalogID := s.lookupPoster(ctx, title, year)
	confidence := 1.0
	yearPtr := &year
	if err := s.store.UpdateJobIdentification(ctx, jobID, queue.ContentMovie, title, yearPtr, catalogID, &confidence, posterRef); err != nil {
		return nil, err
	}
	return s.requireJob(ctx, jobID)
}

// Archive transitions a terminal COMPLETE or FAILED job to ARCHIVED,
// removing it from the active queue view.
func (s *Service) Archive(ctx context.Context, jobID int64) (*queue.Job, error) {
	job, err := s.requireJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !archivableStatuses[job.Status] {
		return nil, ErrInvalidState
	}
	if err := s.store.UpdateJobStatus(ctx, jobID, queue.StatusArchived, ""); err != nil {
		return nil, err
	}
	return s.requireJob(ctx, jobID)
}

// GetJob returns a single job by id, or ErrNotFound.
func (s *Service) GetJob(ctx context.Context, jobID int64) (*queue.Job, error) {
	return s.requireJob(ctx, jobID)
}

// ListJobs returns jobs, optionally filtered to a single status
// (oldest-updated first), or the most recent jobs across all statuses
// when status is empty.
func (s *Service) ListJobs(ctx context.Context, status queue.Status, limit int, excludeArchived bool) ([]*queue.Job, error) {
	if status != "" {
		return s.store.GetJobsByStatus(ctx, status)
	}
	if limit <= 0 {
		limit = 50
	}
	return s.store.GetRecentJobs(ctx, limit, excludeArchived)
}

// Collection returns every collection row.
func (s *Service) Collection(ctx context.Context) ([]*queue.CollectionItem, error) {
	return s.store.GetCollection(ctx)
}

// Wanted returns every wanted-list row.
func (s *Service) Wanted(ctx context.Context) ([]*queue.WantedItem, error) {
	return s.store.GetWanted(ctx)
}

// Health returns the aggregate status-count summary.
func (s *Service) Health(ctx context.Context) (queue.HealthSummary, error) {
	return s.store.Health(ctx)
}

// OversightCheck reports the current consistency issues.
func (s *Service) OversightCheck(ctx context.Context) ([]oversight.Issue, error) {
	return oversight.CheckConsistency(ctx, s.store, s.cfg)
}

// OversightFixEncoding keeps the most recently updated ENCODING job, reverts
// every other ENCODING job to RIPPED, and reports how many were reverted.
func (s *Service) OversightFixEncoding(ctx context.Context) (int, error) {
	return oversight.FixStuckEncoding(ctx, s.store)
}

// OversightHistory returns the last N repair actions oversight has taken,
// newest first. This is additive observability over §4.7: it never
// mutates state.
func (s *Service) OversightHistory(ctx context.Context, limit int) ([]*queue.RepairEvent, error) {
	return oversight.History(ctx, s.store, limit)
}

// ToggleActiveMode flips active mode and returns the new value.
func (s *Service) ToggleActiveMode(ctx context.Context) (bool, error) {
	current, err := s.store.GetActiveMode(ctx)
	if err != nil {
		return false, err
	}
	next := !current
	if err := s.store.SetActiveMode(ctx, next); err != nil {
		return false, err
	}
	return next, nil
}

// SetActiveMode pins active mode to the given value.
func (s *Service) SetActiveMode(ctx context.Context, active bool) error {
	return s.store.SetActiveMode(ctx, active)
}

// AddWanted records a user-maintained wanted item, independent of any job.
func (s *Service) AddWanted(ctx context.Context, title string, year *int, contentType queue.ContentType, catalogID *int64, posterRef, notes string) (int64, error) {
	return s.store.AddToWanted(ctx, title, year, contentType, catalogID, posterRef, notes)
}

// RemoveWanted deletes a wanted item by id.
func (s *Service) RemoveWanted(ctx context.Context, id int64) error {
	return s.store.RemoveFromWanted(ctx, id)
}

// lookupPoster does a best-effort catalog search for title/year and
// returns the first candidate's poster reference and catalog id. Any
// failure, including an unconfigured catalog, yields empty results rather
// than an error: the catalog boundary is inherently optional.
func (s *Service) lookupPoster(ctx context.Context, title string, year int) (string, *int64) {
	if s.catalog == nil {
		return "", nil
	}
	candidates, err := s.catalog.SearchMovie(ctx, title, year)
	if err != nil || len(candidates) == 0 {
		if err != nil {
			s.logger.Warn("catalog lookup failed during identification override", "error", err)
		}
		return "", nil
	}
	top := candidates[0]
	id := top.ID
	return top.PosterRef, &id
}
