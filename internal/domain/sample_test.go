package domain

import (
	"math"
	"testing"
	"time"
)

func TestNewSampleAllAbsent(t *testing.T) {
	s := NewSample(time.Now(), 0)
	for ch := 1; ch <= NumChannels; ch++ {
		if !Absent(s.Reading(ch)) {
			t.Errorf("channel %d: expected absent reading, got %v", ch, s.Reading(ch))
		}
	}
}

func TestReadingStates(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		absent bool
		open   bool
		finite bool
	}{
		{"measured", 10.5, false, false, true},
		{"zero", 0, false, false, true},
		{"open circuit", math.Inf(1), false, true, false},
		{"absent", math.NaN(), true, false, false},
		{"negative infinity", math.Inf(-1), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Absent(tt.value); got != tt.absent {
				t.Errorf("Absent(%v) = %v, want %v", tt.value, got, tt.absent)
			}
			if got := Open(tt.value); got != tt.open {
				t.Errorf("Open(%v) = %v, want %v", tt.value, got, tt.open)
			}
			if got := Finite(tt.value); got != tt.finite {
				t.Errorf("Finite(%v) = %v, want %v", tt.value, got, tt.finite)
			}
		})
	}
}

func TestPlotValueCollapsesNonFinite(t *testing.T) {
	if v := PlotValue(12.34); v != 12.34 {
		t.Errorf("finite value should pass through, got %v", v)
	}
	if v := PlotValue(math.Inf(1)); !math.IsNaN(v) {
		t.Errorf("open circuit should plot as NaN, got %v", v)
	}
	if v := PlotValue(math.NaN()); !math.IsNaN(v) {
		t.Errorf("absent should plot as NaN, got %v", v)
	}
}

func TestSetReadingBounds(t *testing.T) {
	s := NewSample(time.Now(), 0)
	s.SetReading(2, 47.1)
	if got := s.Reading(2); got != 47.1 {
		t.Errorf("Reading(2) = %v, want 47.1", got)
	}

	// Out-of-range ids must be inert on both paths.
	s.SetReading(0, 1.0)
	s.SetReading(NumChannels+1, 1.0)
	if !Absent(s.Reading(0)) || !Absent(s.Reading(NumChannels+1)) {
		t.Error("out-of-range channel ids should read as absent")
	}
}

func TestChannelLabel(t *testing.T) {
	tests := []struct {
		ch   int
		want string
	}{
		{1, "CH1"},
		{4, "CH4"},
		{0, ""},
		{5, ""},
	}
	for _, tt := range tests {
		if got := ChannelLabel(tt.ch); got != tt.want {
			t.Errorf("ChannelLabel(%d) = %q, want %q", tt.ch, got, tt.want)
		}
	}
}

func TestModeRunning(t *testing.T) {
	if ModeIdle.Running() {
		t.Error("idle must not report running")
	}
	if !ModeLogging.Running() || !ModeChecking.Running() {
		t.Error("logging and checking must report running")
	}
}
