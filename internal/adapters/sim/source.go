// Package sim provides a software power source for demos and tests. Enabled
// channels report a slowly rising resistance with a small periodic wobble;
// disabled channels read as open circuits, the way real hardware does.
package sim

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/ramorimdias/cwtlogger/internal/domain"
)

// Source implements ports.PowerSource without hardware.
type Source struct {
	mu        sync.Mutex
	connected bool
	started   time.Time
	enabled   map[int]bool

	now func() time.Time
}

// New creates a disconnected simulator.
func New() *Source {
	return &Source{
		enabled: make(map[int]bool),
		now:     time.Now,
	}
}

// Connect marks the simulator live and anchors its drift origin.
func (s *Source) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.connected {
		s.connected = true
		s.started = s.now()
	}
	return nil
}

// EnableChannel switches the simulated output on. The current limit is
// accepted and ignored.
func (s *Source) EnableChannel(ch int, limitAmps float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !domain.ValidChannel(ch) {
		return errors.New("channel out of range")
	}
	if !s.connected {
		return errors.New("not connected")
	}
	s.enabled[ch] = true
	return nil
}

// DisableChannel switches the simulated output off.
func (s *Source) DisableChannel(ch int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !domain.ValidChannel(ch) {
		return errors.New("channel out of range")
	}
	if !s.connected {
		return errors.New("not connected")
	}
	delete(s.enabled, ch)
	return nil
}

// Measure returns the simulated resistance. A disabled channel reads as an
// open circuit.
func (s *Source) Measure(ch int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !domain.ValidChannel(ch) {
		return 0, errors.New("channel out of range")
	}
	if !s.connected {
		return 0, errors.New("not connected")
	}
	if !s.enabled[ch] {
		return math.Inf(1), nil
	}

	elapsed := s.now().Sub(s.started).Hours()
	base := 9.0 + 1.2*float64(ch)
	drift := 0.8 * elapsed
	wobble := 0.15 * math.Sin(2*math.Pi*6*elapsed+float64(ch))
	return base + drift + wobble, nil
}

// Close disconnects the simulator and switches every output off.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.enabled = make(map[int]bool)
	return nil
}
