package mover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"discpipe/internal/config"
	"discpipe/internal/notify"
	"discpipe/internal/queue"
	"discpipe/internal/services"
)

// defaultExt is used when the encoded artifact's own extension cannot be
// determined.
const defaultExt = "mkv"

// Mover places ENCODED artifacts for MOVING jobs into their library
// destination and records collection membership. It processes one job per
// pass; callers bound concurrency by calling ProcessNext sequentially.
type Mover struct {
	store       *queue.Store
	moviesRoot  string
	tvRoot      string
	stagingDir  func(int64) string
	encodingDir func(int64) string
	logger      *slog.Logger
	notifier    notify.Notifier
}

// Option configures optional Mover behavior.
type Option func(*Mover)

// WithNotifier attaches a notifier that is told about completed and
// failed moves. Omitting it is equivalent to the no-op notifier: moves
// still succeed or fail, nothing is ever sent.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Mover) { m.notifier = n }
}

// New builds a Mover from configuration.
func New(store *queue.Store, cfg *config.Config, logger *slog.Logger, opts ...Option) *Mover {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mover{
		store:       store,
		moviesRoot:  cfg.MoviesLibraryRoot,
		tvRoot:      cfg.TVLibraryRoot,
		stagingDir:  cfg.StagingDir,
		encodingDir: cfg.EncodingDir,
		logger:      logger.With("component", "mover"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ProcessNext moves the oldest MOVING job, if one exists. It reports false
// when there was no work to do. A missing destination root is not an
// error: the job is left in MOVING for the next pass.
func (m *Mover) ProcessNext(ctx context.Context) (bool, error) {
	jobs, err := m.store.GetJobsByStatus(ctx, queue.StatusMoving)
	if err != nil {
		return false, err
	}
	if len(jobs) == 0 {
		return false, nil
	}
	job := jobs[0]
	logger := m.logger.With("job_id", job.ID)

	root := m.libraryRoot(job)
	if !destinationRootAvailable(root) {
		logger.Debug("library root unavailable, retrying later", "root", root)
		return false, nil
	}

	dest, err := m.destinationFor(job, root)
	if err != nil {
		return true, m.fail(ctx, job.ID, err)
	}

	if err := moveFile(job.EncodePath, dest); err != nil {
		return true, m.fail(ctx, job.ID, &services.MoveError{Details: err.Error(), Cause: err})
	}

	if err := m.store.SetJobPath(ctx, job.ID, queue.JobPathFinal, dest); err != nil {
		return true, err
	}
	if err := m.store.UpdateJobStatus(ctx, job.ID, queue.StatusComplete, ""); err != nil {
		return true, err
	}
	if _, err := m.store.AddToCollection(ctx, job.ContentType, job.IdentifiedTitle, job.IdentifiedYear, job.CatalogID, dest); err != nil {
		return true, err
	}
	logger.Info("moved job into library", "destination", dest)
	m.notify(ctx, "Added to library", fmt.Sprintf("%s is ready", job.IdentifiedTitle), 0)

	m.cleanupStaging(job.ID, logger)
	return true, nil
}

// notify sends a best-effort notification. Failures, including an
// unconfigured notifier, are logged at debug and never propagate: the
// notification boundary is optional by contract.
func (m *Mover) notify(ctx context.Context, title, message string, priority int) {
	if m.notifier == nil {
		return
	}
	result := m.notifier.Notify(ctx, title, message, priority, "")
	if !result.Success {
		m.logger.Debug("notification not delivered", "title", title)
	}
}

func (m *Mover) libraryRoot(job *queue.Job) string {
	if job.ContentType == queue.ContentTVSeason {
		return m.tvRoot
	}
	return m.moviesRoot
}

func (m *Mover) destinationFor(job *queue.Job, root string) (string, error) {
	if strings.TrimSpace(job.IdentifiedTitle) == "" {
		return "", errors.New("job has no identified title to build a destination from")
	}
	ext := strings.TrimPrefix(filepath.Ext(job.EncodePath), ".")
	if ext == "" {
		ext = defaultExt
	}
	year := 0
	if job.IdentifiedYear != nil {
		year = *job.IdentifiedYear
	}
	if job.ContentType == queue.ContentTVSeason {
		// Multi-disc/episode-matching lifecycle is out of scope; season 1
		// episode 1 is a placeholder until that extension lands.
		return TVEpisodePath(root, job.IdentifiedTitle, 1, 1, job.IdentifiedTitle, ext), nil
	}
	return MoviePath(root, job.IdentifiedTitle, year, ext), nil
}

// cleanupStaging best-effort removes the encoding and rip staging
// directories for job id. Failures are logged at error severity but never
// fail the job; the spec treats this as housekeeping, not correctness.
func (m *Mover) cleanupStaging(id int64, logger *slog.Logger) {
	for _, dir := range []string{m.encodingDir(id), m.stagingDir(id)} {
		if err := os.RemoveAll(dir); err != nil {
			logger.Error("failed to clean up staging directory", "dir", dir, "error", err)
		}
	}
}

func (m *Mover) fail(ctx context.Context, id int64, cause error) error {
	if err := m.store.UpdateJobStatus(ctx, id, queue.StatusFailed, cause.Error()); err != nil {
		return err
	}
	m.notify(ctx, "Move failed", fmt.Sprintf("job %d: %s", id, cause.Error()), -1)
	return cause
}
