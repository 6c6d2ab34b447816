package cwtlogger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ramorimdias/cwtlogger/internal/adapters/gpp"
	"github.com/ramorimdias/cwtlogger/internal/app"
	"github.com/ramorimdias/cwtlogger/internal/domain"
	"github.com/ramorimdias/cwtlogger/internal/excel"
	"github.com/ramorimdias/cwtlogger/internal/ports"
	"github.com/ramorimdias/cwtlogger/internal/ringcache"
	"github.com/ramorimdias/cwtlogger/internal/samplelog"
	"github.com/ramorimdias/cwtlogger/pkg/log"
)

// Names of the fixed entries under Config.DataDir.
const (
	rawLogName     = "raw.csv"
	archiveDirName = "archive"
)

// Recorder is an embeddable resistance logger for the GPP-4323 bench
// supply. Use New to create an instance, then StartLogging or StartCheck to
// begin a run. The append log under Config.DataDir is the system of record;
// spreadsheets and the in-memory window are derived from it.
type Recorder struct {
	config Config
	opts   options

	controller *app.Controller
	log        *samplelog.Log
	cache      *ringcache.Cache
	retention  *app.RetentionRunner
	logger     ports.Logger

	mu     sync.Mutex
	closed bool
}

// New creates a Recorder with the given configuration. Prior history in
// Config.DataDir is loaded into the window cache, so a restart resumes
// where the last process left off; call ClearCache to start fresh instead.
// The instance is created in StateStopped with no run active.
func New(cfg Config, opts ...Option) (*Recorder, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == nil && cfg.Port == "" {
		return nil, fmt.Errorf("%w: port is required (or inject a power source)",
			domain.ErrInvalidConfig)
	}

	logger := o.logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	archiveDir := filepath.Join(cfg.DataDir, archiveDirName)
	sampleLog, err := samplelog.Open(
		filepath.Join(cfg.DataDir, rawLogName),
		samplelog.WithArchiveDir(archiveDir),
	)
	if err != nil {
		return nil, fmt.Errorf("open sample log: %w", err)
	}

	// Rehydrate the window cache from the persisted log. The cache keeps
	// only the newest CachePoints rows; Scan feeds it in append order so
	// the oldest fall out first.
	cache := ringcache.New(cfg.CachePoints)
	if err := sampleLog.Scan(-1, func(s domain.Sample) error {
		cache.Push(s)
		return nil
	}); err != nil {
		_ = sampleLog.Close()
		return nil, fmt.Errorf("replay sample log: %w", err)
	}

	source := o.source
	if source == nil {
		source = gpp.New(gpp.Config{
			Port: cfg.Port,
			Baud: cfg.Baud,
			VSet: cfg.SetVoltage,
		}, logger)
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	controller := app.NewController(app.ControllerConfig{
		DataDir:           cfg.DataDir,
		ArtifactPrefix:    cfg.ArtifactPrefix,
		SampleInterval:    cfg.SampleInterval,
		MinSampleInterval: cfg.MinSampleInterval,
		ExportInterval:    cfg.ExportInterval,
	}, source, sampleLog, cache, excel.New(), logger, emitter, emitter)

	r := &Recorder{
		config:     cfg,
		opts:       o,
		controller: controller,
		log:        sampleLog,
		cache:      cache,
		logger:     logger,
	}

	if o.retention != nil {
		r.retention = app.NewRetentionRunner(*o.retention, archiveDir, logger)
		r.retention.Start(context.Background())
	}

	if sampleLog.HasData() {
		logger.Info("prior history loaded",
			log.Int("rows", sampleLog.Rows()),
			log.Int("cached", cache.Len()),
		)
	}

	return r, nil
}

// StartLogging begins a logging run on the given 1-based channels.
// A non-positive limitAmps applies Config.CurrentLimit. Returns immediately
// after the sampler goroutine is spawned; the run continues until Stop.
// Returns ErrAlreadyRunning while a run is active.
func (r *Recorder) StartLogging(ctx context.Context, channels []int, limitAmps float64) error {
	return r.controller.StartLogging(ctx, channels, r.limitOrDefault(limitAmps))
}

// StartCheck begins a check run: identical acquisition, tagged as a
// verification pass in the session info.
func (r *Recorder) StartCheck(ctx context.Context, channels []int, limitAmps float64) error {
	return r.controller.StartCheck(ctx, channels, r.limitOrDefault(limitAmps))
}

func (r *Recorder) limitOrDefault(limitAmps float64) float64 {
	if limitAmps > 0 {
		return limitAmps
	}
	return r.config.CurrentLimit
}

// Stop ends the current run, powering every channel down and waiting for
// the sampler to drain. Stopping an idle recorder is a no-op. Returns
// ErrShutdownTimeout if the sampler fails to drain in time.
func (r *Recorder) Stop() error {
	return r.controller.Stop()
}

// ExportNow materializes the spreadsheet immediately, independent of the
// periodic cadence. Returns the artifact path.
func (r *Recorder) ExportNow(ctx context.Context) (string, error) {
	return r.controller.ExportNow(ctx)
}

// ClearCache archives the persisted history, truncates the append log, and
// empties the window cache. Refused with ErrBusy while a run is active.
func (r *Recorder) ClearCache() error {
	return r.controller.ClearCache()
}

// SetInterval changes the sampling cadence. A running sampler picks the new
// value up at its next cycle. Returns ErrIntervalTooShort below the
// configured floor.
func (r *Recorder) SetInterval(d time.Duration) error {
	return r.controller.SetInterval(d)
}

// Interval returns the current sampling cadence.
func (r *Recorder) Interval() time.Duration {
	return r.controller.Interval()
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (r *Recorder) Status() State {
	return convertState(r.controller.State())
}

// Session reports a snapshot of the current session.
func (r *Recorder) Session() SessionInfo {
	return r.controller.Session()
}

// Window returns the cached samples at or after cutoff, oldest first.
func (r *Recorder) Window(cutoff time.Time) Window {
	return r.controller.Window(cutoff)
}

// Last returns the most recent sample, if any.
func (r *Recorder) Last() (Sample, bool) {
	return r.controller.Last()
}

// HasPriorData reports whether the append log holds samples from earlier
// runs. Callers typically check this at startup to offer a resume-or-clear
// choice before the first run.
func (r *Recorder) HasPriorData() bool {
	return r.log.HasData()
}

// LogPath returns the append log location under Config.DataDir.
func (r *Recorder) LogPath() string {
	return r.log.Path()
}

// Close stops any active run, halts the retention sweep, and releases the
// append log. The recorder must not be used afterwards. Close is
// idempotent; the first error from the run teardown is returned.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	err := r.controller.Stop()
	if r.retention != nil {
		r.retention.Stop()
	}
	if closeErr := r.log.Close(); err == nil {
		err = closeErr
	}
	return err
}
