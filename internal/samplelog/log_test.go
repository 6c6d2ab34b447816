package samplelog

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/ramorimdias/cwtlogger/internal/domain"
)

func testSample(t0 time.Time, minutes int, values [domain.NumChannels]float64) domain.Sample {
	ts := t0.Add(time.Duration(minutes) * time.Minute)
	return domain.Sample{
		Time:     ts,
		RelHours: ts.Sub(t0).Hours(),
		Readings: values,
	}
}

func baseTime() time.Time {
	return time.Date(2026, 1, 5, 10, 0, 0, 0, time.Local)
}

func TestOpenCreatesSkeleton(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	if l.HasData() {
		t.Error("fresh log should have no data")
	}
	if got := l.ExportTarget(); got != "" {
		t.Errorf("fresh log export target = %q, want empty", got)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("skeleton has %d lines, want 2", len(lines))
	}
	if lines[0] != "#xlsx:" {
		t.Errorf("line 1 = %q, want %q", lines[0], "#xlsx:")
	}
	if lines[1] != "time,rel_h,CH1,CH2,CH3,CH4" {
		t.Errorf("header = %q", lines[1])
	}
}

func TestAppendRestoreKeepsReadingStates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	t0 := baseTime()
	samples := []domain.Sample{
		testSample(t0, 0, [domain.NumChannels]float64{10.1234, math.NaN(), math.Inf(1), 9.5}),
		testSample(t0, 1, [domain.NumChannels]float64{10.2, math.NaN(), 11.0, math.NaN()}),
	}
	for _, s := range samples {
		if err := l.Append(s); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	l, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l.Close()

	if got := l.Rows(); got != len(samples) {
		t.Fatalf("rows after reopen = %d, want %d", got, len(samples))
	}

	var got []domain.Sample
	if err := l.Scan(-1, func(s domain.Sample) error {
		got = append(got, s)
		return nil
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != len(samples) {
		t.Fatalf("scanned %d samples, want %d", len(got), len(samples))
	}
	for i, want := range samples {
		if !got[i].Time.Equal(want.Time) {
			t.Errorf("sample %d time = %v, want %v", i, got[i].Time, want.Time)
		}
		for ch := 1; ch <= domain.NumChannels; ch++ {
			w, g := want.Reading(ch), got[i].Reading(ch)
			switch {
			case domain.Absent(w):
				if !domain.Absent(g) {
					t.Errorf("sample %d CH%d: absent became %v", i, ch, g)
				}
			case domain.Open(w):
				if !domain.Open(g) {
					t.Errorf("sample %d CH%d: open circuit became %v", i, ch, g)
				}
			default:
				if g != w {
					t.Errorf("sample %d CH%d = %v, want %v", i, ch, g, w)
				}
			}
		}
	}
}

func TestReadingCellGrammar(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		cell  string
	}{
		{"finite", 12.3456, "12.3456"},
		{"absent", math.NaN(), ""},
		{"open circuit", math.Inf(1), "inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatReading(tt.value); got != tt.cell {
				t.Errorf("formatReading(%v) = %q, want %q", tt.value, got, tt.cell)
			}
			back, err := parseReading(tt.cell)
			if err != nil {
				t.Fatalf("parseReading(%q): %v", tt.cell, err)
			}
			switch {
			case math.IsNaN(tt.value):
				if !math.IsNaN(back) {
					t.Errorf("round trip of absent = %v", back)
				}
			case math.IsInf(tt.value, 1):
				if !math.IsInf(back, 1) {
					t.Errorf("round trip of open = %v", back)
				}
			default:
				if back != tt.value {
					t.Errorf("round trip = %v, want %v", back, tt.value)
				}
			}
		})
	}
}

func TestExportTargetSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "raw.csv")
	target := filepath.Join(dir, "gpp_20260105_100000.xlsx")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := l.SetExportTarget(target); err != nil {
		t.Fatalf("set target: %v", err)
	}
	t0 := baseTime()
	for i := 0; i < 3; i++ {
		if err := l.Append(testSample(t0, i, [domain.NumChannels]float64{1, 2, 3, 4})); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	// Simulated crash: no clean shutdown beyond the per-append sync.
	l.f.Close()

	l, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l.Close()
	if got := l.ExportTarget(); got != target {
		t.Errorf("export target after restart = %q, want %q", got, target)
	}
	if !l.HasData() {
		t.Error("data lost across restart")
	}
	if got := l.Rows(); got != 3 {
		t.Errorf("rows after restart = %d, want 3", got)
	}
}

func TestSetExportTargetKeepsAppendsFlowing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	t0 := baseTime()
	if err := l.Append(testSample(t0, 0, [domain.NumChannels]float64{1, 1, 1, 1})); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.SetExportTarget("a.xlsx"); err != nil {
		t.Fatalf("set target: %v", err)
	}
	// Rotation must not orphan the append handle.
	if err := l.SetExportTarget("b.xlsx"); err != nil {
		t.Fatalf("rotate target: %v", err)
	}
	if err := l.Append(testSample(t0, 1, [domain.NumChannels]float64{2, 2, 2, 2})); err != nil {
		t.Fatalf("append after rotation: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	content := string(raw)
	if !strings.HasPrefix(content, "#xlsx:b.xlsx\n") {
		t.Errorf("pointer line not rotated: %q", strings.SplitN(content, "\n", 2)[0])
	}
	count := 0
	if err := l.Scan(-1, func(domain.Sample) error {
		count++
		return nil
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 2 {
		t.Errorf("scanned %d rows, want 2 (append after rotation lost?)", count)
	}
}

func TestTruncateArchivesThenResets(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive")
	path := filepath.Join(dir, "raw.csv")

	l, err := Open(path, WithArchiveDir(archive))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	if err := l.SetExportTarget("old.xlsx"); err != nil {
		t.Fatalf("set target: %v", err)
	}
	t0 := baseTime()
	if err := l.Append(testSample(t0, 0, [domain.NumChannels]float64{42, 1, 1, 1})); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := l.Truncate(); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if l.HasData() {
		t.Error("log should be empty after truncate")
	}
	if got := l.ExportTarget(); got != "" {
		t.Errorf("export target after truncate = %q, want empty", got)
	}

	entries, err := os.ReadDir(archive)
	if err != nil {
		t.Fatalf("read archive dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("archive holds %d files, want 1", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "raw-") || !strings.HasSuffix(name, ".csv.gz") {
		t.Errorf("archive name = %q", name)
	}

	f, err := os.Open(filepath.Join(archive, name))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	raw, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if !strings.Contains(string(raw), "42.0000") {
		t.Error("archived contents missing the logged row")
	}
	if !strings.Contains(string(raw), "#xlsx:old.xlsx") {
		t.Error("archived contents missing the pointer line")
	}

	// The log must be appendable again after the swap.
	if err := l.Append(testSample(t0, 5, [domain.NumChannels]float64{7, 7, 7, 7})); err != nil {
		t.Fatalf("append after truncate: %v", err)
	}
	if got := l.Rows(); got != 1 {
		t.Errorf("rows after truncate+append = %d, want 1", got)
	}
}

func TestTornTrailingLineSkippedAndRepaired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	content := "#xlsx:\n" +
		"time,rel_h,CH1,CH2,CH3,CH4\n" +
		"2026-01-05 10:00:00,0.0000,10.0000,,inf,9.0000\n" +
		"2026-01-05 10:05:00,0.08" // torn mid-append, no newline
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	l, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	if got := l.Rows(); got != 1 {
		t.Errorf("rows = %d, want 1 (torn line must not count)", got)
	}
	if got := l.Skipped(); got != 1 {
		t.Errorf("skipped = %d, want 1", got)
	}

	// The next append must start on its own line.
	if err := l.Append(testSample(baseTime(), 10, [domain.NumChannels]float64{8, 8, 8, 8})); err != nil {
		t.Fatalf("append: %v", err)
	}
	count := 0
	if err := l.Scan(-1, func(domain.Sample) error {
		count++
		return nil
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 2 {
		t.Errorf("scanned %d rows, want 2", count)
	}
}

func TestScanBoundGivesConsistentSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	t0 := baseTime()
	for i := 0; i < 5; i++ {
		if err := l.Append(testSample(t0, i, [domain.NumChannels]float64{float64(i), 0, 0, 0})); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	var got []float64
	if err := l.Scan(3, func(s domain.Sample) error {
		got = append(got, s.Reading(1))
		return nil
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("bounded scan returned %d rows, want 3", len(got))
	}
	for i, v := range got {
		if v != float64(i) {
			t.Errorf("row %d = %v, want %v (order broken)", i, v, float64(i))
		}
	}
}

func TestScanSkipsMalformedInterior(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	content := "#xlsx:\n" +
		"time,rel_h,CH1,CH2,CH3,CH4\n" +
		"2026-01-05 10:00:00,0.0000,1.0000,,,\n" +
		"not,a,sample\n" +
		"2026-01-05 10:05:00,0.0833,2.0000,,,\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	l, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	if got := l.Rows(); got != 2 {
		t.Errorf("rows = %d, want 2", got)
	}
	var ch1 []float64
	if err := l.Scan(-1, func(s domain.Sample) error {
		ch1 = append(ch1, s.Reading(1))
		return nil
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(ch1) != 2 || ch1[0] != 1 || ch1[1] != 2 {
		t.Errorf("scan results = %v, want [1 2]", ch1)
	}
}

func TestAppendAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := l.Append(testSample(baseTime(), 0, [domain.NumChannels]float64{1, 1, 1, 1})); err != ErrClosed {
		t.Errorf("append after close = %v, want ErrClosed", err)
	}
}
