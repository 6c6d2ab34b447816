package sim

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestMeasureRequiresConnection(t *testing.T) {
	s := New()
	if _, err := s.Measure(1); err == nil {
		t.Fatal("Measure() on a disconnected source should fail")
	}
	if err := s.EnableChannel(1, 0.1); err == nil {
		t.Fatal("EnableChannel() on a disconnected source should fail")
	}
}

func TestDisabledChannelReadsOpen(t *testing.T) {
	s := New()
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	got, err := s.Measure(2)
	if err != nil {
		t.Fatalf("Measure() failed: %v", err)
	}
	if !math.IsInf(got, 1) {
		t.Errorf("disabled channel = %v, want +Inf", got)
	}
}

func TestEnabledChannelDrifts(t *testing.T) {
	s := New()
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	now := base
	s.now = func() time.Time { return now }

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if err := s.EnableChannel(1, 0.1); err != nil {
		t.Fatalf("EnableChannel() failed: %v", err)
	}

	first, err := s.Measure(1)
	if err != nil {
		t.Fatalf("Measure() failed: %v", err)
	}
	if first < 8.0 || first > 16.0 {
		t.Errorf("initial reading %v outside the plausible band", first)
	}

	// Same instant, same value.
	again, _ := s.Measure(1)
	if again != first {
		t.Errorf("repeated measurement %v != %v, want deterministic", again, first)
	}

	now = base.Add(2 * time.Hour)
	later, err := s.Measure(1)
	if err != nil {
		t.Fatalf("Measure() failed: %v", err)
	}
	if later <= first {
		t.Errorf("reading after 2h = %v, want above the initial %v", later, first)
	}
}

func TestChannelsDriftIndependently(t *testing.T) {
	s := New()
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	for ch := 1; ch <= 4; ch++ {
		if err := s.EnableChannel(ch, 0.1); err != nil {
			t.Fatalf("EnableChannel(%d) failed: %v", ch, err)
		}
	}

	r1, _ := s.Measure(1)
	r4, _ := s.Measure(4)
	if r1 >= r4 {
		t.Errorf("channel bases should differ: CH1=%v CH4=%v", r1, r4)
	}
}

func TestCloseResetsOutputs(t *testing.T) {
	s := New()
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if err := s.EnableChannel(1, 0.1); err != nil {
		t.Fatalf("EnableChannel() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	got, err := s.Measure(1)
	if err != nil {
		t.Fatalf("Measure() failed: %v", err)
	}
	if !math.IsInf(got, 1) {
		t.Errorf("channel should be off after close/reconnect, got %v", got)
	}
}
