package app

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ramorimdias/cwtlogger/internal/ports"
)

// RetentionConfig holds configuration for automatic archive retention.
// When enabled, the runner periodically checks the archive directory size
// and removes the oldest compressed archives when it exceeds the high
// watermark.
type RetentionConfig struct {
	// Enabled controls whether retention is active. Default: false
	Enabled bool

	// Schedule is an optional 5-field cron expression (minute, hour, dom,
	// month, dow). When set it overrides CheckInterval.
	Schedule string

	// CheckInterval is how often to check the archive directory size.
	// Default: 24 hours
	CheckInterval time.Duration

	// HighWatermark is the size in bytes above which the sweep begins.
	// Default: 512 MiB
	HighWatermark int64

	// LowWatermark is the target size in bytes after a sweep.
	// Default: 384 MiB
	LowWatermark int64
}

// DefaultRetentionConfig returns a RetentionConfig with sensible defaults.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		Enabled:       true,
		CheckInterval: 24 * time.Hour,
		HighWatermark: 512 << 20,
		LowWatermark:  384 << 20,
	}
}

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}

// RetentionRunner manages the archive sweep goroutine. Each Truncate of the
// append log leaves one compressed archive behind; the runner keeps their
// total size bounded by deleting oldest first.
type RetentionRunner struct {
	config RetentionConfig
	dir    string
	logger ports.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRetentionRunner creates a runner sweeping dir. Zero config values fall
// back to the defaults.
func NewRetentionRunner(cfg RetentionConfig, dir string, logger ports.Logger) *RetentionRunner {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 24 * time.Hour
	}
	if cfg.HighWatermark <= 0 {
		cfg.HighWatermark = 512 << 20
	}
	if cfg.LowWatermark <= 0 {
		cfg.LowWatermark = 384 << 20
	}
	return &RetentionRunner{
		config: cfg,
		dir:    dir,
		logger: logger,
	}
}

// Start launches the sweep loop. A disabled runner or an empty directory is
// a no-op.
func (r *RetentionRunner) Start(ctx context.Context) {
	if !r.config.Enabled || r.dir == "" {
		return
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.logger.Info("archive retention enabled", ports.String("dir", r.dir))

	r.wg.Add(1)
	go r.loop(sweepCtx)
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (r *RetentionRunner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *RetentionRunner) loop(ctx context.Context) {
	defer r.wg.Done()

	// Run immediately on startup.
	r.sweepOnce(ctx)

	for {
		wait := r.config.CheckInterval
		if r.config.Schedule != "" {
			if d := nextCronDuration(r.config.Schedule); d > 0 {
				wait = d
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
			r.sweepOnce(ctx)
		}
	}
}

func (r *RetentionRunner) sweepOnce(ctx context.Context) {
	archives, total, err := orderedArchives(r.dir)
	if err != nil {
		r.logger.Error("retention: scan failed", ports.Err(err))
		return
	}
	if total <= r.config.HighWatermark {
		return
	}

	var freed int64
	for _, a := range archives {
		if ctx.Err() != nil {
			return
		}
		if total <= r.config.LowWatermark {
			break
		}
		if err := os.Remove(a.path); err != nil {
			r.logger.Error("retention: remove failed",
				ports.String("path", a.path),
				ports.Err(err))
			continue
		}
		total -= a.size
		freed += a.size
	}

	if freed > 0 {
		r.logger.Info("retention sweep completed", ports.Int64("bytes_freed", freed))
	}
}

type archiveFile struct {
	path string
	size int64
}

// orderedArchives lists the compressed archives in dir oldest first, with
// their total size. Archive names embed a second-resolution stamp, so the
// sorted directory order is chronological. A missing directory reads as
// empty; it only exists once the first clear has archived something.
func orderedArchives(dir string) ([]archiveFile, int64, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	var (
		out   []archiveFile
		total int64
	)
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv.gz") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, archiveFile{
			path: filepath.Join(dir, e.Name()),
			size: info.Size(),
		})
		total += info.Size()
	}
	return out, total, nil
}
