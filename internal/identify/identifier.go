package identify

import (
	"context"
	"errors"
	"log/slog"

	"discpipe/internal/catalog"
	"discpipe/internal/disc"
	"discpipe/internal/queue"
	"discpipe/internal/services"
)

// defaultSearchLimit bounds how many candidates are requested and scored,
// matching the catalog client's own cap.
const defaultSearchLimit = 10

// Identifier resolves ENCODED jobs into a catalog match with a confidence
// score, or routes them to review. It processes one job per pass; callers
// are responsible for bounding concurrency to one identifier at a time.
type Identifier struct {
	store     *queue.Store
	searcher  catalog.Searcher
	threshold float64
	logger    *slog.Logger
}

// New builds an Identifier. A nil searcher means the catalog is
// unconfigured; every job is routed straight to review.
func New(store *queue.Store, searcher catalog.Searcher, autoApproveThreshold float64, logger *slog.Logger) *Identifier {
	if logger == nil {
		logger = slog.Default()
	}
	if autoApproveThreshold <= 0 {
		autoApproveThreshold = 0.85
	}
	return &Identifier{
		store:     store,
		searcher:  searcher,
		threshold: autoApproveThreshold,
		logger:    logger.With("component", "identifier"),
	}
}

// ProcessNext identifies the oldest ENCODED job, if one exists. It reports
// false when there was no work to do.
func (i *Identifier) ProcessNext(ctx context.Context) (bool, error) {
	jobs, err := i.store.GetJobsByStatus(ctx, queue.StatusEncoded)
	if err != nil {
		return false, err
	}
	if len(jobs) == 0 {
		return false, nil
	}
	job := jobs[0]
	if err := i.identify(ctx, job); err != nil {
		return true, err
	}
	return true, nil
}

func (i *Identifier) identify(ctx context.Context, job *queue.Job) error {
	logger := i.logger.With("job_id", job.ID, "drive_id", job.DriveID)

	if job.IdentifiedTitle != "" && job.Confidence != nil && *job.Confidence == 1.0 {
		logger.Info("pre-identified job skips catalog lookup")
		if err := i.store.UpdateJobStatus(ctx, job.ID, queue.StatusIdentifying, ""); err != nil {
			return err
		}
		return i.store.UpdateJobStatus(ctx, job.ID, queue.StatusMoving, "")
	}

	if err := i.store.UpdateJobStatus(ctx, job.ID, queue.StatusIdentifying, ""); err != nil {
		return err
	}

	cleaned := disc.CleanLabel(job.DiscLabel)
	if disc.IsUnusableLabel(job.DiscLabel) {
		logger.Warn("disc label carries no identifiable content, routing to review")
		return i.routeUnknown(ctx, job.ID)
	}

	if i.searcher == nil {
		logger.Warn("catalog unavailable, routing to review")
		return i.routeUnknown(ctx, job.ID)
	}

	candidates, err := i.searcher.SearchMovie(ctx, cleaned, 0)
	if err != nil {
		var catalogErr *services.CatalogUnavailableError
		if errors.As(err, &catalogErr) {
			logger.Warn("catalog search unavailable, routing to review", "error", err)
			return i.routeUnknown(ctx, job.ID)
		}
		return err
	}
	if len(candidates) == 0 {
		logger.Info("catalog returned no candidates, routing to review")
		return i.routeUnknown(ctx, job.ID)
	}
	if len(candidates) > defaultSearchLimit {
		candidates = candidates[:defaultSearchLimit]
	}

	winner, confidence, ok := best(cleaned, candidates)
	if !ok {
		return i.routeUnknown(ctx, job.ID)
	}

	var year *int
	if winner.Year > 0 {
		year = &winner.Year
	}
	catalogID := winner.ID
	if err := i.store.UpdateJobIdentification(ctx, job.ID, queue.ContentMovie, winner.Title, year, &catalogID, &confidence, winner.PosterRef); err != nil {
		return err
	}

	if confidence >= i.threshold {
		logger.Info("auto-approved identification", "title", winner.Title, "confidence", confidence)
		return i.store.UpdateJobStatus(ctx, job.ID, queue.StatusMoving, "")
	}

	logger.Info("identification below auto-approve threshold, routing to review", "title", winner.Title, "confidence", confidence)
	return i.store.UpdateJobStatus(ctx, job.ID, queue.StatusReview, "")
}

// routeUnknown writes a zero-confidence UNKNOWN identification and sends
// the job to review.
func (i *Identifier) routeUnknown(ctx context.Context, jobID int64) error {
	zero := 0.0
	if err := i.store.UpdateJobIdentification(ctx, jobID, queue.ContentUnknown, "", nil, nil, &zero, ""); err != nil {
		return err
	}
	return i.store.UpdateJobStatus(ctx, jobID, queue.StatusReview, "")
}
