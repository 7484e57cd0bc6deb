package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"discpipe/internal/logging"
	"discpipe/internal/queue"
	"discpipe/internal/services"
)

// EncodeProgress mirrors handbrake.ProgressUpdate.
type EncodeProgress struct {
	Percent float64
	FPS     float64
	ETA     string
}

// Transcoder re-encodes a ripped artifact to the delivery codec. Grounded
// on *handbrake.Client.
type Transcoder interface {
	Encode(ctx context.Context, inputFile, outputFile string, progress func(EncodeProgress)) error
}

// EncodeWorker is the single global instance serializing all transcodes.
// At most one job is ever in ENCODING; the store itself enforces this
// invariant on the status transition, but only one EncodeWorker should
// ever be constructed to honor "strictly sequential encode" as a process
// design, not merely a database constraint.
type EncodeWorker struct {
	store       *queue.Store
	transcoder  Transcoder
	encodingDir func(int64) string
	interval    time.Duration
	logger      *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEncodeWorker builds the encode worker.
func NewEncodeWorker(store *queue.Store, transcoder Transcoder, encodingDir func(int64) string, pollInterval time.Duration, logger *slog.Logger) *EncodeWorker {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EncodeWorker{
		store:       store,
		transcoder:  transcoder,
		encodingDir: encodingDir,
		interval:    pollInterval,
		logger:      logger.With("component", "encode_worker"),
	}
}

// Start begins the worker's poll loop in a background goroutine.
func (w *EncodeWorker) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	go w.loop(runCtx)
}

// Stop cancels the poll loop and waits for any in-flight encode to
// checkpoint back to RIPPED before returning, so the job is cleanly
// re-pickable on the next start without relying on startup cleanup.
func (w *EncodeWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *EncodeWorker) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		worked, err := w.processNext(ctx)
		if err != nil {
			w.logger.Error("encode worker iteration failed", "error", err)
		}
		if worked {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.interval):
		}
	}
}

func (w *EncodeWorker) processNext(ctx context.Context) (bool, error) {
	jobs, err := w.store.GetJobsByStatus(ctx, queue.StatusRipped)
	if err != nil {
		return false, err
	}
	if len(jobs) == 0 {
		return false, nil
	}
	job := jobs[0]

	if err := w.store.UpdateJobStatus(ctx, job.ID, queue.StatusEncoding, ""); err != nil {
		if errors.Is(err, queue.ErrInvalidTransition) {
			// Another encode is already in flight; try again next pass.
			return false, nil
		}
		return false, err
	}

	w.encode(ctx, job.ID, job.RipPath)
	return true, nil
}

func (w *EncodeWorker) encode(ctx context.Context, jobID int64, ripPath string) {
	logger := w.logger.With("job_id", jobID)
	outputFile := filepath.Join(w.encodingDir(jobID), "encoded.mkv")

	sampler := logging.NewProgressSampler(10)
	err := w.transcoder.Encode(ctx, ripPath, outputFile, func(update EncodeProgress) {
		if sampler.ShouldLog(update.Percent, "", update.ETA) {
			logger.Info("encode progress", "percent", update.Percent, "fps", update.FPS, "eta", update.ETA)
		}
	})

	if err != nil {
		if ctx.Err() != nil {
			// Shutdown in progress: revert the checkpoint so the job is
			// re-picked on the next start, using a fresh context because
			// ctx itself is already cancelled.
			revertCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if revertErr := w.store.UpdateJobStatus(revertCtx, jobID, queue.StatusRipped, ""); revertErr != nil {
				logger.Error("failed to revert encoding checkpoint on shutdown", "error", revertErr)
			} else {
				logger.Info("reverted encoding job to ripped for cancellation")
			}
			return
		}

		var encodeErr *services.EncodeError
		if !errors.As(err, &encodeErr) {
			encodeErr = &services.EncodeError{Details: err.Error(), Cause: err}
		}
		if failErr := w.store.UpdateJobStatus(context.Background(), jobID, queue.StatusFailed, encodeErr.Error()); failErr != nil {
			logger.Error("failed to mark job failed", "error", failErr)
		}
		return
	}

	if err := w.store.SetJobPath(ctx, jobID, queue.JobPathEncode, outputFile); err != nil {
		logger.Error("failed to record encode path", "error", err)
		return
	}
	if err := w.store.UpdateJobStatus(ctx, jobID, queue.StatusEncoded, ""); err != nil {
		logger.Error("failed to transition job to encoded", "error", err)
		return
	}
	logger.Info("encode complete", "encode_path", outputFile)
}
