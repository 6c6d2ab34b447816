package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ramorimdias/cwtlogger/internal/domain"
	"github.com/ramorimdias/cwtlogger/internal/ports"
	"github.com/ramorimdias/cwtlogger/internal/ringcache"
)

// SamplerConfig contains configuration for one sampling run.
type SamplerConfig struct {
	// Channels holds the 1-based ids to measure; all others record absent.
	Channels []int

	// T0 is the session start time; relative hours are measured from it.
	T0 time.Time

	// ExportTarget is the spreadsheet path armed for this run.
	ExportTarget string

	// ExportInterval is the cadence of periodic exports.
	ExportInterval time.Duration

	// Interval yields the sampling cadence. It is consulted once per cycle,
	// so changes apply from the next cycle onward.
	Interval func() time.Duration
}

// Sampler is the background acquisition loop of a single run. It measures
// the active channels, persists every sample, mirrors it into the cache, and
// periodically refreshes the spreadsheet artifact.
type Sampler struct {
	config   SamplerConfig
	source   ports.PowerSource
	log      ports.SampleLog
	cache    *ringcache.Cache
	exporter ports.Exporter
	logger   ports.Logger
	emitter  CycleEventEmitter
}

// CycleEventEmitter is called as cycles and exports complete.
type CycleEventEmitter interface {
	OnSample(s domain.Sample)
	OnExportSuccess(path string, rows int, duration time.Duration)
	OnExportError(err error, path string)
}

// NewSampler creates a sampler with the given dependencies.
func NewSampler(
	config SamplerConfig,
	source ports.PowerSource,
	sampleLog ports.SampleLog,
	cache *ringcache.Cache,
	exporter ports.Exporter,
	logger ports.Logger,
	emitter CycleEventEmitter,
) *Sampler {
	return &Sampler{
		config:   config,
		source:   source,
		log:      sampleLog,
		cache:    cache,
		exporter: exporter,
		logger:   logger,
		emitter:  emitter,
	}
}

// Run executes the acquisition loop until ctx is canceled.
//
// Stop is cooperative: cancellation is observed only between cycles, so an
// in-flight cycle always completes its measurements and its append. A failed
// measurement records an absent reading for that channel and the cycle
// carries on; a failed append is fatal to the whole run, since the log is
// the system of record. Export failures are reported and retried at the
// next deadline.
func (s *Sampler) Run(ctx context.Context) error {
	active := make(map[int]bool, len(s.config.Channels))
	for _, ch := range s.config.Channels {
		active[ch] = true
	}

	nextExport := s.config.T0.Add(s.config.ExportInterval)

	for {
		now := time.Now()
		sample := domain.NewSample(now, now.Sub(s.config.T0).Hours())

		for ch := 1; ch <= domain.NumChannels; ch++ {
			if !active[ch] {
				continue
			}
			v, err := s.source.Measure(ch)
			if err != nil {
				s.logger.Warn("measurement failed",
					ports.Int("channel", ch),
					ports.Err(err),
				)
				continue // reading stays absent
			}
			sample.SetReading(ch, v)
		}

		if err := s.log.Append(sample); err != nil {
			return fmt.Errorf("append sample: %w", err)
		}
		s.cache.Push(sample)

		if s.emitter != nil {
			s.emitter.OnSample(sample)
		}

		if !now.Before(nextExport) {
			s.export(ctx)
			nextExport = nextExport.Add(s.config.ExportInterval)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.config.Interval()):
		}
	}
}

// export refreshes the armed spreadsheet artifact. Failures never abort the
// run; the artifact is derived and the next deadline retries.
func (s *Sampler) export(ctx context.Context) {
	target := s.config.ExportTarget
	rows := s.log.Rows()

	start := time.Now()
	if err := s.exporter.Export(ctx, s.log, target); err != nil {
		s.logger.Error("export failed",
			ports.Err(err),
			ports.String("target", target),
		)
		if s.emitter != nil {
			s.emitter.OnExportError(err, target)
		}
		return
	}
	duration := time.Since(start)

	s.logger.Info("exported spreadsheet",
		ports.String("target", target),
		ports.Int("rows", rows),
		ports.Duration("duration", duration),
	)
	if s.emitter != nil {
		s.emitter.OnExportSuccess(target, rows, duration)
	}
}
