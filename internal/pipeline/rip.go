package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"discpipe/internal/disc"
	"discpipe/internal/logging"
	"discpipe/internal/queue"
	"discpipe/internal/services"
)

// Scanner gathers title metadata from a disc. Grounded on
// *disc.Scanner; declared here as an interface so tests can stub it.
type Scanner interface {
	Scan(ctx context.Context, device string) (*disc.ScanResult, error)
}

// Ripper extracts a title from a disc into an output directory. Grounded
// on *makemkv.Client, whose ProgressUpdate shape is mirrored by
// RipProgress so the Ripper interface does not depend on the makemkv
// package.
type Ripper interface {
	Rip(ctx context.Context, device string, titleIndex int, outputDir string, progress func(RipProgress)) (string, error)
}

// RipProgress mirrors makemkv.ProgressUpdate; the rip worker translates
// between the two at the construction boundary (see NewMakeMKVRipper in
// adapters.go).
type RipProgress struct {
	Stage   string
	Percent float64
	Message string
}

// Ejector best-effort ejects a disc after a successful rip.
type Ejector interface {
	Eject(ctx context.Context, device string) error
}

// RipWorker processes PENDING jobs bound to a single drive, one at a
// time, advancing them to RIPPED or FAILED. Different drives run their
// own RipWorker so rips proceed in parallel across drives; within a
// drive, rips happen in job-creation order because
// Store.GetPendingJobForDrive always returns the oldest.
type RipWorker struct {
	store    *queue.Store
	driveID  string
	scanner  Scanner
	ripper   Ripper
	ejector  Ejector
	stageDir func(int64) string
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRipWorker builds a RipWorker for driveID.
func NewRipWorker(store *queue.Store, driveID string, scanner Scanner, ripper Ripper, ejector Ejector, stagingDir func(int64) string, pollInterval time.Duration, logger *slog.Logger) *RipWorker {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RipWorker{
		store:    store,
		driveID:  driveID,
		scanner:  scanner,
		ripper:   ripper,
		ejector:  ejector,
		stageDir: stagingDir,
		interval: pollInterval,
		logger:   logger.With("component", "rip_worker", "drive_id", driveID),
	}
}

// Start begins the worker's poll loop in a background goroutine.
func (w *RipWorker) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	go w.loop(runCtx)
}

// Stop cancels the poll loop and waits for the current iteration to
// observe cancellation. A job that is mid-rip when Stop is called is
// left in RIPPING; startup cleanup resets it on next launch, matching
// the rip worker's cancellation contract (no revert, unlike encode).
func (w *RipWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *RipWorker) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		worked, err := w.processNext(ctx)
		if err != nil {
			w.logger.Error("rip worker iteration failed", "error", err)
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

// processNext claims and processes the oldest pending job for this
// drive, if any. It reports false when there was no work available.
func (w *RipWorker) processNext(ctx context.Context) (bool, error) {
	job, err := w.store.GetPendingJobForDrive(ctx, w.driveID)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	if err := w.store.UpdateJobStatus(ctx, job.ID, queue.StatusRipping, ""); err != nil {
		if errors.Is(err, queue.ErrInvalidTransition) {
			// Another worker (or a racing claim) already took this job.
			return false, nil
		}
		return false, err
	}

	w.rip(ctx, job.ID)
	return true, nil
}

func (w *RipWorker) rip(ctx context.Context, jobID int64) {
	logger := w.logger.With("job_id", jobID)

	scan, err := w.scanner.Scan(ctx, w.driveID)
	if err != nil {
		w.failUnlessCancelled(ctx, jobID, &services.DiscReadError{DriveID: w.driveID, Details: err.Error(), Cause: err})
		return
	}

	main, err := disc.SelectMainTitle(scan.Titles)
	if err != nil {
		w.failUnlessCancelled(ctx, jobID, &services.RipError{DriveID: w.driveID, Details: "no titles found on disc", Cause: err})
		return
	}

	outputDir := w.stageDir(jobID)
	sampler := logging.NewProgressSampler(10)
	ripPath, err := w.ripper.Rip(ctx, w.driveID, main.ID, outputDir, func(update RipProgress) {
		if sampler.ShouldLog(update.Percent, update.Stage, update.Message) {
			logger.Info("rip progress", "stage", update.Stage, "percent", update.Percent)
		}
	})
	if err != nil {
		w.failUnlessCancelled(ctx, jobID, err)
		return
	}

	if err := w.store.SetJobPath(ctx, jobID, queue.JobPathRip, ripPath); err != nil {
		logger.Error("failed to record rip path", "error", err)
		return
	}
	if err := w.store.UpdateJobStatus(ctx, jobID, queue.StatusRipped, ""); err != nil {
		logger.Error("failed to transition job to ripped", "error", err)
		return
	}
	logger.Info("rip complete", "rip_path", ripPath)

	if w.ejector != nil {
		if err := w.ejector.Eject(ctx, w.driveID); err != nil {
			logger.Warn("eject failed after rip", "error", err)
		}
	}
}

// failUnlessCancelled fails the job unless ctx was cancelled (shutdown in
// progress), in which case the job is left RIPPING for startup cleanup to
// reset on next launch.
func (w *RipWorker) failUnlessCancelled(ctx context.Context, jobID int64, cause error) {
	if ctx.Err() != nil {
		w.logger.Info("rip interrupted by shutdown, leaving job for startup cleanup", "job_id", jobID)
		return
	}
	if err := w.store.UpdateJobStatus(context.Background(), jobID, queue.StatusFailed, cause.Error()); err != nil {
		w.logger.Error("failed to mark job failed", "job_id", jobID, "error", err)
	}
}

// RipWorkerPool owns one RipWorker per configured drive.
type RipWorkerPool struct {
	workers []*RipWorker
}

// NewRipWorkerPool builds a RipWorker for each drive using factory to
// construct its per-drive dependencies.
func NewRipWorkerPool(drives []string, factory func(driveID string) *RipWorker) *RipWorkerPool {
	pool := &RipWorkerPool{}
	for _, d := range drives {
		if w := factory(d); w != nil {
			pool.workers = append(pool.workers, w)
		}
	}
	return pool
}

// Start starts every worker in the pool.
func (p *RipWorkerPool) Start(ctx context.Context) {
	for _, w := range p.workers {
		w.Start(ctx)
	}
}

// Stop stops every worker in the pool and waits for them to exit.
func (p *RipWorkerPool) Stop() {
	for _, w := range p.workers {
		w.Stop()
	}
}
