package domain

import (
	"math"
	"time"
)

// NumChannels is the channel count of the GPP-4323 power source.
// Channel ids are 1-based; index i in a Readings array holds channel i+1.
const NumChannels = 4

// Sample is one acquisition cycle: a wall-clock timestamp, the elapsed hours
// since the session started, and one resistance reading per channel.
//
// A reading is a plain float64 carrying three distinguishable states:
//
//   - a finite value is a measured resistance in ohms
//   - +Inf marks an open circuit (measured current below the noise floor)
//   - NaN marks an absent reading (channel inactive, or the measurement failed)
//
// The states survive persistence and the rolling cache untouched; only the
// final rendering step may collapse +Inf into a gap.
type Sample struct {
	// Time is the wall-clock capture time, second precision.
	Time time.Time

	// RelHours is hours elapsed since session start at capture time.
	RelHours float64

	// Readings holds one value per channel, indexed by channel id minus one.
	Readings [NumChannels]float64
}

// NewSample returns a Sample at t with every reading absent.
func NewSample(t time.Time, relHours float64) Sample {
	s := Sample{Time: t, RelHours: relHours}
	for i := range s.Readings {
		s.Readings[i] = math.NaN()
	}
	return s
}

// Reading returns the value for a 1-based channel id. Out-of-range ids read
// as absent.
func (s Sample) Reading(ch int) float64 {
	if ch < 1 || ch > NumChannels {
		return math.NaN()
	}
	return s.Readings[ch-1]
}

// SetReading stores v for a 1-based channel id. Out-of-range ids are ignored.
func (s *Sample) SetReading(ch int, v float64) {
	if ch < 1 || ch > NumChannels {
		return
	}
	s.Readings[ch-1] = v
}

// Absent reports whether the reading is missing (NaN).
func Absent(v float64) bool { return math.IsNaN(v) }

// Open reports whether the reading marks an open circuit (+Inf).
func Open(v float64) bool { return math.IsInf(v, 1) }

// Finite reports whether the reading is a measured resistance.
func Finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// PlotValue collapses the three reading states into a plottable value:
// finite readings pass through, open circuits and absences become NaN.
// This is the final rendering step; nothing upstream of a renderer may use it.
func PlotValue(v float64) float64 {
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// ChannelLabel returns the display label for a 1-based channel id ("CH1".."CH4").
func ChannelLabel(ch int) string {
	labels := [NumChannels]string{"CH1", "CH2", "CH3", "CH4"}
	if ch < 1 || ch > NumChannels {
		return ""
	}
	return labels[ch-1]
}

// ValidChannel reports whether ch is a usable 1-based channel id.
func ValidChannel(ch int) bool { return ch >= 1 && ch <= NumChannels }
