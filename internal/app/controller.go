package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ramorimdias/cwtlogger/internal/domain"
	"github.com/ramorimdias/cwtlogger/internal/ports"
	"github.com/ramorimdias/cwtlogger/internal/ringcache"
)

// ControllerConfig contains configuration for the session controller.
type ControllerConfig struct {
	// DataDir is where spreadsheet artifacts are minted.
	DataDir string

	// ArtifactPrefix is prepended to minted artifact names.
	ArtifactPrefix string

	// SampleInterval is the initial sampling cadence.
	SampleInterval time.Duration

	// MinSampleInterval is the floor enforced by SetInterval.
	MinSampleInterval time.Duration

	// ExportInterval is the cadence of periodic exports during a run.
	ExportInterval time.Duration
}

// Controller owns the acquisition session: it guards the single-run
// invariant, arms the power source, spawns the sampler, and serves
// session state to callers. All methods are safe for concurrent use.
type Controller struct {
	config      ControllerConfig
	lifecycle   *Lifecycle
	source      ports.PowerSource
	log         ports.SampleLog
	cache       *ringcache.Cache
	exporter    ports.Exporter
	logger      ports.Logger
	cycleEvents CycleEventEmitter

	interval atomic.Int64 // sampling cadence in nanoseconds

	mu        sync.Mutex
	mode      domain.Mode
	channels  []int
	limit     float64
	startedAt time.Time
	lastErr   error
}

// NewController creates a controller around the given dependencies. Both
// emitters may be nil.
func NewController(
	config ControllerConfig,
	source ports.PowerSource,
	sampleLog ports.SampleLog,
	cache *ringcache.Cache,
	exporter ports.Exporter,
	logger ports.Logger,
	stateEvents EventEmitter,
	cycleEvents CycleEventEmitter,
) *Controller {
	c := &Controller{
		config:      config,
		lifecycle:   NewLifecycle(logger, stateEvents),
		source:      source,
		log:         sampleLog,
		cache:       cache,
		exporter:    exporter,
		logger:      logger,
		cycleEvents: cycleEvents,
		mode:        domain.ModeIdle,
	}
	c.interval.Store(int64(config.SampleInterval))
	return c
}

// StartLogging begins a logging run on the given channels.
// Returns immediately after the sampler goroutine is spawned.
func (c *Controller) StartLogging(ctx context.Context, channels []int, limitAmps float64) error {
	return c.start(ctx, domain.ModeLogging, channels, limitAmps)
}

// StartCheck begins a check run: identical acquisition, tagged as a
// verification pass in the session info.
func (c *Controller) StartCheck(ctx context.Context, channels []int, limitAmps float64) error {
	return c.start(ctx, domain.ModeChecking, channels, limitAmps)
}

// start arms the device and spawns the sampler. ctx bounds the arming I/O
// only; the run itself is canceled by Stop, so a session outlives the call
// that started it.
func (c *Controller) start(ctx context.Context, mode domain.Mode, channels []int, limitAmps float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if len(channels) == 0 {
		return domain.ErrNoChannels
	}
	seen := make(map[int]bool, len(channels))
	chans := make([]int, 0, len(channels))
	for _, ch := range channels {
		if !domain.ValidChannel(ch) {
			return fmt.Errorf("%w: %d", domain.ErrInvalidChannel, ch)
		}
		if seen[ch] {
			continue
		}
		seen[ch] = true
		chans = append(chans, ch)
	}
	sort.Ints(chans)

	if err := c.lifecycle.TransitionTo(StateArmed, "start requested"); err != nil {
		return err
	}

	if err := c.source.Connect(ctx); err != nil {
		_ = c.lifecycle.TransitionTo(StateCrashed, "device connect failed")
		return fmt.Errorf("%w: %v", domain.ErrDeviceUnavailable, err)
	}
	for _, ch := range chans {
		if err := c.source.EnableChannel(ch, limitAmps); err != nil {
			c.releaseDevice()
			_ = c.lifecycle.TransitionTo(StateCrashed, fmt.Sprintf("enable channel %d failed", ch))
			return fmt.Errorf("%w: enable channel %d: %v", domain.ErrDeviceUnavailable, ch, err)
		}
	}

	// Resolve or mint the artifact pointer before the first append, so
	// every row of the run is already bound to its spreadsheet.
	target := c.log.ExportTarget()
	if target == "" {
		target = mintArtifact(c.config.DataDir, c.config.ArtifactPrefix, time.Now())
		if err := c.log.SetExportTarget(target); err != nil {
			c.releaseDevice()
			_ = c.lifecycle.TransitionTo(StateCrashed, "export target bind failed")
			return fmt.Errorf("bind export target: %w", err)
		}
	}

	c.mode = mode
	c.channels = chans
	c.limit = limitAmps
	c.startedAt = time.Now()
	c.lastErr = nil

	sampler := NewSampler(SamplerConfig{
		Channels:       chans,
		T0:             c.startedAt,
		ExportTarget:   target,
		ExportInterval: c.config.ExportInterval,
		Interval:       c.Interval,
	}, c.source, c.log, c.cache, c.exporter, c.logger, c.cycleEvents)

	runCtx, cancel := context.WithCancel(context.Background())
	c.lifecycle.SetCancel(cancel)

	c.logger.Info("run started",
		ports.String("mode", string(mode)),
		ports.Ints("channels", chans),
		ports.Float64("current_limit_a", limitAmps),
		ports.String("target", target),
	)

	c.lifecycle.AddWorker()
	go c.runSession(runCtx, cancel, sampler)

	return nil
}

// runSession hosts the sampler for one run. The goroutine owns the release
// of the device: channels are disabled and the source closed on every exit
// path, including a crashed run.
func (c *Controller) runSession(ctx context.Context, cancel context.CancelFunc, sampler *Sampler) {
	defer c.lifecycle.WorkerDone()
	defer cancel()

	if err := c.lifecycle.TransitionTo(StateRunning, "sampler starting"); err != nil {
		// Stop raced the arming; skip straight to release.
		c.logger.Warn("run aborted before first cycle", ports.Err(err))
	} else if err := sampler.Run(ctx); err != nil {
		c.logger.Error("sampling run failed", ports.Err(err))
		_ = c.lifecycle.TransitionTo(StateCrashed, err.Error())
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
	}

	c.releaseDevice()

	c.mu.Lock()
	c.mode = domain.ModeIdle
	c.mu.Unlock()
}

// releaseDevice disables every output and closes the source. Best effort:
// failures are logged, not returned, since release runs on paths that are
// already failing. All channels are disabled, not only the sampled set; a
// previous run or a front-panel operator may have left others live.
func (c *Controller) releaseDevice() {
	for ch := 1; ch <= domain.NumChannels; ch++ {
		if err := c.source.DisableChannel(ch); err != nil {
			c.logger.Warn("disable channel failed",
				ports.Int("channel", ch),
				ports.Err(err),
			)
		}
	}
	if err := c.source.Close(); err != nil {
		c.logger.Warn("close power source failed", ports.Err(err))
	}
}

// Stop ends the current run, waiting up to ShutdownTimeout for the sampler
// to drain. Stopping an idle controller is a no-op. Returns
// ErrShutdownTimeout if the sampler failed to drain in time.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if !c.lifecycle.CanStop() {
		c.mu.Unlock()
		return nil
	}
	if err := c.lifecycle.TransitionTo(StateDraining, "stop requested"); err != nil {
		// The run crashed between the guard and here; nothing to drain.
		c.mu.Unlock()
		return nil
	}
	c.lifecycle.Cancel()
	c.mu.Unlock()

	err := c.lifecycle.WaitWithTimeout(ShutdownTimeout)
	if err != nil {
		_ = c.lifecycle.TransitionTo(StateCrashed, "shutdown timeout")
		return err
	}
	_ = c.lifecycle.TransitionTo(StateStopped, "run drained")
	return nil
}

// ExportNow materializes the spreadsheet immediately, independent of the
// periodic cadence. Legal in any mode; with no pointer armed it mints one
// first. Returns the artifact path.
func (c *Controller) ExportNow(ctx context.Context) (string, error) {
	c.mu.Lock()
	target := c.log.ExportTarget()
	if target == "" {
		target = mintArtifact(c.config.DataDir, c.config.ArtifactPrefix, time.Now())
		if err := c.log.SetExportTarget(target); err != nil {
			c.mu.Unlock()
			return "", fmt.Errorf("bind export target: %w", err)
		}
	}
	c.mu.Unlock()

	if err := c.exporter.Export(ctx, c.log, target); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return target, nil
}

// ClearCache archives and truncates the append log and empties the live
// cache. Refused with ErrBusy while a run is active.
func (c *Controller) ClearCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode.Running() {
		return domain.ErrBusy
	}
	if err := c.log.Truncate(); err != nil {
		return fmt.Errorf("truncate log: %w", err)
	}
	c.cache.Clear()
	c.logger.Info("history cleared")
	return nil
}

// SetInterval changes the sampling cadence. The running sampler picks the
// new value up at its next cycle.
func (c *Controller) SetInterval(d time.Duration) error {
	if d < c.config.MinSampleInterval {
		return fmt.Errorf("%w: %s is below %s",
			domain.ErrIntervalTooShort, d, c.config.MinSampleInterval)
	}
	c.interval.Store(int64(d))
	c.logger.Info("sampling interval set", ports.Duration("interval", d))
	return nil
}

// Interval returns the current sampling cadence.
func (c *Controller) Interval() time.Duration {
	return time.Duration(c.interval.Load())
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.lifecycle.State()
}

// Session reports a snapshot of the current session.
func (c *Controller) Session() domain.SessionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := domain.SessionInfo{
		Mode:         c.mode,
		State:        strings.ToLower(c.lifecycle.State().String()),
		Channels:     append([]int(nil), c.channels...),
		CurrentLimit: c.limit,
		Interval:     c.Interval(),
		Rows:         c.log.Rows(),
		ExportTarget: c.log.ExportTarget(),
	}
	if c.mode.Running() {
		info.StartedAt = c.startedAt
		info.Elapsed = time.Since(c.startedAt)
	}
	if c.lastErr != nil {
		info.LastError = c.lastErr.Error()
	}
	return info
}

// Window returns the cached samples at or after cutoff.
func (c *Controller) Window(cutoff time.Time) domain.Window {
	return c.cache.WindowSince(cutoff)
}

// Last returns the most recent cached sample, if any.
func (c *Controller) Last() (domain.Sample, bool) {
	return c.cache.Last()
}

// mintArtifact names a fresh spreadsheet artifact, stamped to the second.
func mintArtifact(dir, prefix string, now time.Time) string {
	return filepath.Join(dir, prefix+now.Format("20060102_150405")+".xlsx")
}
