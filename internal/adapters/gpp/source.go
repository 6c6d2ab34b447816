// Package gpp drives a GW Instek GPP-series power supply over its USB serial
// port, exposing it as a ports.PowerSource. Commands follow the instrument's
// SCPI dialect: requests are terminated with CRLF, responses with LF.
package gpp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/ramorimdias/cwtlogger/internal/domain"
	"github.com/ramorimdias/cwtlogger/internal/ports"
)

const (
	// openCircuitAmps is the current floor below which a channel reads as
	// an open circuit rather than a resistance.
	openCircuitAmps = 1e-6

	// maxResponse bounds a single response line; the instrument never
	// sends more than a few dozen bytes.
	maxResponse = 256
)

// Config holds the serial link parameters.
type Config struct {
	// Port is the serial device, e.g. /dev/ttyUSB0.
	Port string

	// Baud is the line rate. The GPP-4323 ships at 115200.
	Baud int

	// VSet is the source voltage applied to every enabled channel.
	VSet float64

	// ReadTimeout bounds each read from the instrument.
	ReadTimeout time.Duration
}

// Source implements ports.PowerSource over a serial SCPI session.
type Source struct {
	config Config
	logger ports.Logger

	mu   sync.Mutex
	port serial.Port
}

// New creates a disconnected source. Connect opens the serial session.
func New(cfg Config, logger ports.Logger) *Source {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 3 * time.Second
	}
	return &Source{config: cfg, logger: logger}
}

// Connect opens the serial port, verifies the instrument responds to an
// identity query, and switches it to remote mode.
func (s *Source) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.port != nil {
		return nil
	}

	port, err := serial.Open(s.config.Port, &serial.Mode{
		BaudRate: s.config.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", s.config.Port, err)
	}
	if err := port.SetReadTimeout(s.config.ReadTimeout); err != nil {
		port.Close()
		return fmt.Errorf("set read timeout: %w", err)
	}
	s.port = port

	ident, err := s.queryLocked("*IDN?")
	if err != nil || ident == "" {
		s.closeLocked()
		if err == nil {
			err = errors.New("empty identity response")
		}
		return fmt.Errorf("identify instrument: %w", err)
	}
	if err := s.writeLocked("SYST:REM"); err != nil {
		s.closeLocked()
		return fmt.Errorf("enter remote mode: %w", err)
	}

	s.logger.Info("power supply connected",
		ports.String("port", s.config.Port),
		ports.String("ident", ident),
	)
	return nil
}

// EnableChannel programs the channel to the source voltage with the given
// current limit and switches its output on.
func (s *Source) EnableChannel(ch int, limitAmps float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !domain.ValidChannel(ch) {
		return fmt.Errorf("channel %d out of range", ch)
	}
	if s.port == nil {
		return errors.New("not connected")
	}

	cmds := []string{
		fmt.Sprintf(":SOUR%d:VOLT %s", ch, formatSCPIFloat(s.config.VSet)),
		fmt.Sprintf(":SOUR%d:CURR %s", ch, formatSCPIFloat(limitAmps)),
		fmt.Sprintf(":OUTP%d:STAT ON", ch),
	}
	for _, cmd := range cmds {
		if err := s.writeLocked(cmd); err != nil {
			return fmt.Errorf("enable channel %d: %w", ch, err)
		}
	}
	return nil
}

// DisableChannel switches the channel's output off.
func (s *Source) DisableChannel(ch int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !domain.ValidChannel(ch) {
		return fmt.Errorf("channel %d out of range", ch)
	}
	if s.port == nil {
		return errors.New("not connected")
	}
	if err := s.writeLocked(fmt.Sprintf(":OUTP%d:STAT OFF", ch)); err != nil {
		return fmt.Errorf("disable channel %d: %w", ch, err)
	}
	return nil
}

// Measure reads the channel's voltage and current and derives resistance.
// A current below the open-circuit floor reads as +Inf.
func (s *Source) Measure(ch int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !domain.ValidChannel(ch) {
		return 0, fmt.Errorf("channel %d out of range", ch)
	}
	if s.port == nil {
		return 0, errors.New("not connected")
	}

	line, err := s.queryLocked(fmt.Sprintf(":MEAS%d:ALL?", ch))
	if err != nil {
		return 0, fmt.Errorf("measure channel %d: %w", ch, err)
	}
	volts, amps, err := parseMeasurement(line)
	if err != nil {
		return 0, fmt.Errorf("measure channel %d: %w", ch, err)
	}
	return resistance(volts, amps), nil
}

// Close releases the serial port. Safe on a disconnected source.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Source) closeLocked() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// writeLocked sends one command, CRLF terminated.
func (s *Source) writeLocked(cmd string) error {
	if _, err := s.port.Write([]byte(cmd + "\r\n")); err != nil {
		return fmt.Errorf("write %q: %w", cmd, err)
	}
	return nil
}

// queryLocked sends a command and reads the LF-terminated response.
func (s *Source) queryLocked(cmd string) (string, error) {
	if err := s.writeLocked(cmd); err != nil {
		return "", err
	}
	return s.readLineLocked()
}

// readLineLocked reads up to the next LF. The port's read timeout surfaces
// as a zero-byte read, which we turn into an explicit error instead of
// spinning on a silent instrument.
func (s *Source) readLineLocked() (string, error) {
	buf := make([]byte, 0, 64)
	b := make([]byte, 1)
	for {
		n, err := s.port.Read(b)
		if err != nil {
			return "", fmt.Errorf("read response: %w", err)
		}
		if n == 0 {
			return "", fmt.Errorf("no response within %s", s.config.ReadTimeout)
		}
		if b[0] == '\n' {
			return strings.TrimRight(string(buf), "\r"), nil
		}
		buf = append(buf, b[0])
		if len(buf) > maxResponse {
			return "", errors.New("response line too long")
		}
	}
}

// parseMeasurement decodes a ":MEAS<n>:ALL?" response of the form
// "volts,amps,watts".
func parseMeasurement(line string) (volts, amps float64, err error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("malformed measurement %q", line)
	}
	volts, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed voltage in %q", line)
	}
	amps, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed current in %q", line)
	}
	return volts, amps, nil
}

// resistance derives ohms from a voltage and current readback.
func resistance(volts, amps float64) float64 {
	if math.Abs(amps) < openCircuitAmps {
		return math.Inf(1)
	}
	return volts / amps
}

// formatSCPIFloat renders a float the way the instrument expects, without
// exponent notation for the magnitudes in play.
func formatSCPIFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
