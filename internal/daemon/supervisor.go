package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"discpipe/internal/catalog"
	"discpipe/internal/config"
	"discpipe/internal/control"
	"discpipe/internal/disc"
	"discpipe/internal/identify"
	"discpipe/internal/mover"
	"discpipe/internal/notify"
	"discpipe/internal/oversight"
	"discpipe/internal/pipeline"
	"discpipe/internal/preflight"
	"discpipe/internal/probe"
	"discpipe/internal/queue"
	"discpipe/internal/services/handbrake"
	"discpipe/internal/services/makemkv"
)

// Supervisor owns the process lifetime: the store, every pipeline worker,
// the disc probes, and the control surface. Only one Supervisor may run
// against a given workspace root at a time; a second instance fails to
// acquire the lock in Start.
type Supervisor struct {
	cfg    *config.Config
	logger *slog.Logger

	store *queue.Store
	lock  *flock.Flock

	probes   []probe.DiscProbe
	ripPool  *pipeline.RipWorkerPool
	encoder  *pipeline.EncodeWorker
	identify *pipeline.StageRunner
	mover    *pipeline.StageRunner
	control  *control.Server
	searcher catalog.Searcher

	running atomic.Bool
	cancel  context.CancelFunc
}

// New builds a Supervisor from cfg, opening the job store and constructing
// every worker. Start must be called before any component is active.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Supervisor, error) {
	if cfg == nil {
		return nil, errors.New("supervisor requires configuration")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := queue.Open(ctx, cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}

	s := &Supervisor{
		cfg:    cfg,
		logger: logger.With("component", "supervisor"),
		store:  store,
		lock:   flock.New(filepath.Join(cfg.WorkspaceRoot, "data", "discpiped.lock")),
	}

	if err := s.buildProbes(); err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := s.buildPipeline(); err != nil {
		_ = store.Close()
		return nil, err
	}
	s.buildControlSurface()

	return s, nil
}

func (s *Supervisor) buildProbes() error {
	pollInterval := time.Duration(s.cfg.DrivePollInterval) * time.Second
	for _, drive := range s.cfg.DriveIDs {
		var p probe.DiscProbe
		switch s.cfg.DiscProbeBackend {
		case "udev":
			p = probe.NewUdevProbe([]string{drive})
		default:
			p = probe.NewPollProbe([]string{drive}, pollInterval)
		}
		s.probes = append(s.probes, p)
	}
	return nil
}

func (s *Supervisor) buildPipeline() error {
	makemkvClient, err := makemkv.New(s.cfg.MakemkvBinary(), s.cfg.MakeMKVRipTimeout)
	if err != nil {
		return fmt.Errorf("construct makemkv client: %w", err)
	}
	handbrakeClient, err := handbrake.New(s.cfg.HandbrakeBinary())
	if err != nil {
		return fmt.Errorf("construct handbrake client: %w", err)
	}
	scanner := disc.NewScanner(s.cfg.MakemkvBinary())
	ejector := disc.NewEjector()

	pollInterval := time.Duration(s.cfg.DrivePollInterval) * time.Second
	s.ripPool = pipeline.NewRipWorkerPool(s.cfg.DriveIDs, func(driveID string) *pipeline.RipWorker {
		return pipeline.NewRipWorker(
			s.store,
			driveID,
			scanner,
			pipeline.NewMakeMKVRipper(makemkvClient),
			ejector,
			s.cfg.StagingDir,
			pollInterval,
			s.logger,
		)
	})

	s.encoder = pipeline.NewEncodeWorker(
		s.store,
		pipeline.NewHandbrakeTranscoder(handbrakeClient),
		s.cfg.EncodingDir,
		pollInterval,
		s.logger,
	)

	if s.cfg.CatalogEnabled() {
		client, err := catalog.New(s.cfg.CatalogToken, s.cfg.CatalogBaseURL)
		if err != nil {
			return fmt.Errorf("construct catalog client: %w", err)
		}
		s.searcher = client
	}
	identifier := identify.New(s.store, s.searcher, s.cfg.AutoApproveThreshold, s.logger)
	s.identify = pipeline.NewStageRunner("identifier", identifier, pollInterval, s.logger)

	fileMover := mover.New(s.store, s.cfg, s.logger, mover.WithNotifier(notify.New(s.cfg)))
	s.mover = pipeline.NewStageRunner("mover", fileMover, pollInterval, s.logger)

	return nil
}

func (s *Supervisor) buildControlSurface() {
	svc := control.New(s.store, s.cfg, s.searcher, s.logger)
	s.control = control.NewServer(s.cfg.APIBind, svc, s.logger)
}

// Start acquires the single-instance lock, runs startup cleanup, and
// starts every component in the order the supervisor specification
// requires: probes, rip workers, encode worker, identifier, mover,
// control surface.
func (s *Supervisor) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("supervisor already running")
	}

	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire supervisor lock: %w", err)
	}
	if !ok {
		return errors.New("another discpiped instance is already running against this workspace")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, result := range preflight.RunAll(runCtx, s.cfg) {
		if !result.Passed {
			s.logger.Warn("preflight check did not pass", "check", result.Name, "detail", result.Detail)
		}
	}

	summary, err := oversight.RunStartupCleanup(runCtx, s.store, s.logger)
	if err != nil {
		cancel()
		_ = s.lock.Unlock()
		return fmt.Errorf("startup cleanup: %w", err)
	}
	s.logger.Info("startup cleanup complete",
		"ripping_failed", summary.RippingFailed,
		"encoding_reverted", summary.EncodingReverted,
		"identifying_reverted", summary.IdentifyingReverted,
	)

	for _, p := range s.probes {
		if err := p.Start(runCtx, s.onDiscDetected); err != nil {
			s.logger.Warn("disc probe failed to start", "error", err)
		}
	}

	s.ripPool.Start(runCtx)
	s.encoder.Start(runCtx)
	s.identify.Start(runCtx)
	s.mover.Start(runCtx)

	if err := s.control.Start(runCtx); err != nil {
		s.Stop()
		return fmt.Errorf("start control surface: %w", err)
	}

	s.running.Store(true)
	s.logger.Info("supervisor started")
	return nil
}

// onDiscDetected creates a pending job for the drive a probe reports as
// newly occupied. Probes only invoke this on an absent->present edge, so
// no duplicate-job guard is needed here.
func (s *Supervisor) onDiscDetected(ctx context.Context, result probe.Result) {
	job, err := s.store.CreateJob(ctx, result.Device, result.Label)
	if err != nil {
		s.logger.Error("failed to create job for detected disc", "device", result.Device, "error", err)
		return
	}
	s.logger.Info("disc detected, job created", "job_id", job.ID, "device", result.Device, "label", result.Label)
}

// Stop cancels every worker and waits for the encode worker to checkpoint
// its ENCODING->RIPPED reversion before closing the store. Safe to call
// even if Start failed partway through.
func (s *Supervisor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	for _, p := range s.probes {
		p.Stop()
	}
	if s.control != nil {
		s.control.Stop()
	}
	if s.mover != nil {
		s.mover.Stop()
	}
	if s.identify != nil {
		s.identify.Stop()
	}
	if s.encoder != nil {
		s.encoder.Stop()
	}
	if s.ripPool != nil {
		s.ripPool.Stop()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release supervisor lock", "error", err)
	}
	s.running.Store(false)
	s.logger.Info("supervisor stopped")
}

// Run starts the supervisor and blocks until ctx is cancelled, then stops
// it. This is the entry point cmd/discpiped uses under a signal context.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}
