// Package samplelog implements the append-only on-disk record of samples.
//
// The file is a plain CSV with a one-line metadata prologue:
//
//	#xlsx:<export target path, or empty>
//	time,rel_h,CH1,CH2,CH3,CH4
//	2026-01-05 14:02:11,0.0014,10.1234,,inf,9.8765
//
// Line 1 binds the log to the spreadsheet artifact it exports into; it is
// rewritten only via an atomic temp-file replace. Every append is flushed and
// synced before returning, so a crash loses at most the sample being written.
// Readers skip malformed lines instead of failing, which makes a torn trailing
// line after a crash harmless.
package samplelog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ramorimdias/cwtlogger/internal/domain"
)

const (
	pointerPrefix = "#xlsx:"
	timeLayout    = "2006-01-02 15:04:05"
	archiveStamp  = "20060102_150405"
)

// ErrClosed is returned by operations on a closed log.
var ErrClosed = errors.New("samplelog: closed")

// Log is the append-only sample record. All methods are safe for concurrent
// use; Scan reads through an independent handle and never blocks appends.
type Log struct {
	mu         sync.Mutex
	path       string
	archiveDir string

	f *os.File
	w *bufio.Writer

	rows    int
	skipped int
	target  string
}

// Option configures a Log.
type Option func(*Log)

// WithArchiveDir enables gzip archival of the log contents into dir on
// Truncate. Without it, Truncate discards the data.
func WithArchiveDir(dir string) Option {
	return func(l *Log) { l.archiveDir = dir }
}

// Open opens or creates the log at path. A missing or empty file is
// initialized with a blank export pointer and the header line. An existing
// file is scanned to restore the row count and export pointer; a trailing
// line left without a newline by a crash is terminated so the next append
// starts clean.
func Open(path string, opts ...Option) (*Log, error) {
	l := &Log{path: path}
	for _, opt := range opts {
		opt(l)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}

	fi, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist), err == nil && fi.Size() == 0:
		if err := writeSkeleton(path, ""); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("stat log: %w", err)
	}

	needsNewline, err := missingFinalNewline(path)
	if err != nil {
		return nil, err
	}

	if err := l.restore(); err != nil {
		return nil, err
	}
	if err := l.openAppendLocked(); err != nil {
		return nil, err
	}
	if needsNewline {
		if _, err := l.w.WriteString("\n"); err != nil {
			return nil, fmt.Errorf("terminate torn line: %w", err)
		}
		if err := l.flushLocked(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Append persists one sample, flushed and synced before returning.
func (l *Log) Append(s domain.Sample) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return ErrClosed
	}
	if _, err := l.w.WriteString(encodeSample(s)); err != nil {
		return fmt.Errorf("write sample: %w", err)
	}
	if err := l.flushLocked(); err != nil {
		return err
	}
	l.rows++
	return nil
}

// Rows returns the number of well-formed samples persisted so far.
func (l *Log) Rows() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows
}

// Skipped returns the number of malformed lines ignored while restoring.
func (l *Log) Skipped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.skipped
}

// HasData reports whether any samples are persisted.
func (l *Log) HasData() bool { return l.Rows() > 0 }

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

// Scan streams persisted samples in append order through an independent read
// handle. A non-negative max bounds the scan to the first max rows; since
// appends only ever add rows past that point, the result is a consistent
// snapshot even while a session is running. Malformed lines are skipped.
func (l *Log) Scan(max int, fn func(domain.Sample) error) error {
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	headerSeen := false
	n := 0
	for sc.Scan() {
		if max >= 0 && n >= max {
			break
		}
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !headerSeen {
			headerSeen = true
			continue
		}
		s, err := decodeSample(line)
		if err != nil {
			continue
		}
		if err := fn(s); err != nil {
			return err
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan log: %w", err)
	}
	return nil
}

// ExportTarget returns the spreadsheet path from the pointer line, or ""
// when the log is not bound to an artifact yet.
func (l *Log) ExportTarget() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.target
}

// SetExportTarget rewrites the pointer line to path via temp file + rename,
// so a crash never leaves a torn pointer. The append handle is reopened on
// the replacement file, which keeps a running session writing to the live
// inode after the swap.
func (l *Log) SetExportTarget(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return ErrClosed
	}
	if err := l.rewritePointerLocked(path); err != nil {
		return err
	}
	l.target = path
	return nil
}

// Truncate resets the log to an empty skeleton with a blank pointer. When an
// archive dir is configured and the log holds data, the outgoing contents are
// first compressed into it, so clearing is never destructive.
func (l *Log) Truncate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return ErrClosed
	}
	if l.rows > 0 && l.archiveDir != "" {
		if err := l.archiveLocked(); err != nil {
			return fmt.Errorf("archive log: %w", err)
		}
	}
	tmp := l.path + ".tmp"
	if err := writeSkeleton(tmp, ""); err != nil {
		return err
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace log: %w", err)
	}
	l.rows, l.skipped, l.target = 0, 0, ""
	return l.openAppendLocked()
}

// Close flushes and releases the append handle.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	flushErr := l.w.Flush()
	closeErr := l.f.Close()
	l.f, l.w = nil, nil
	if flushErr != nil {
		return fmt.Errorf("flush log: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close log: %w", closeErr)
	}
	return nil
}

// restore reads the pointer line and counts resumable rows.
func (l *Log) restore() error {
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	first := true
	headerSeen := false
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if first {
			first = false
			if strings.HasPrefix(line, pointerPrefix) {
				l.target = strings.TrimSpace(strings.TrimPrefix(line, pointerPrefix))
				continue
			}
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !headerSeen {
			headerSeen = true
			continue
		}
		if _, err := decodeSample(line); err != nil {
			l.skipped++
			continue
		}
		l.rows++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan log: %w", err)
	}
	return nil
}

func (l *Log) openAppendLocked() error {
	if l.f != nil {
		l.w.Flush()
		l.f.Close()
		l.f, l.w = nil, nil
	}
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log for append: %w", err)
	}
	l.f = f
	l.w = bufio.NewWriter(f)
	return nil
}

func (l *Log) flushLocked() error {
	if err := l.w.Flush(); err != nil {
		return fmt.Errorf("flush log: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}
	return nil
}

func (l *Log) rewritePointerLocked(target string) error {
	src, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer src.Close()

	tmp := l.path + ".tmp"
	dst, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}

	err = func() error {
		w := bufio.NewWriter(dst)
		if _, err := w.WriteString(pointerPrefix + target + "\n"); err != nil {
			return err
		}
		br := bufio.NewReader(src)
		firstLine, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		// A foreign first line without the pointer prefix is preserved.
		if !strings.HasPrefix(firstLine, pointerPrefix) {
			if _, err := w.WriteString(firstLine); err != nil {
				return err
			}
		}
		if _, err := io.Copy(w, br); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
		return dst.Sync()
	}()
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace log: %w", err)
	}
	return l.openAppendLocked()
}

// archiveLocked compresses the current log file verbatim into the archive dir.
func (l *Log) archiveLocked() error {
	if err := os.MkdirAll(l.archiveDir, 0o755); err != nil {
		return fmt.Errorf("archive dir: %w", err)
	}
	src, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(l.archiveDir, archiveName(l.path, time.Now())))
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	err = compressInto(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	return nil
}

// archiveName derives the archive filename: raw.csv -> raw-20260105_140211.csv.gz.
func archiveName(logPath string, now time.Time) string {
	base := filepath.Base(logPath)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + now.Format(archiveStamp) + ext + ".gz"
}

func writeSkeleton(path, target string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	w := bufio.NewWriter(f)
	w.WriteString(pointerPrefix + target + "\n")
	w.WriteString(headerLine() + "\n")
	err = w.Flush()
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("init log: %w", err)
	}
	return nil
}

func missingFinalNewline(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat log: %w", err)
	}
	if fi.Size() == 0 {
		return false, nil
	}
	buf := make([]byte, 1)
	if _, err := f.ReadAt(buf, fi.Size()-1); err != nil {
		return false, fmt.Errorf("read log tail: %w", err)
	}
	return buf[0] != '\n', nil
}

func headerLine() string {
	cols := make([]string, 0, 2+domain.NumChannels)
	cols = append(cols, "time", "rel_h")
	for ch := 1; ch <= domain.NumChannels; ch++ {
		cols = append(cols, domain.ChannelLabel(ch))
	}
	return strings.Join(cols, ",")
}

func encodeSample(s domain.Sample) string {
	fields := make([]string, 0, 2+domain.NumChannels)
	fields = append(fields,
		s.Time.Format(timeLayout),
		strconv.FormatFloat(s.RelHours, 'f', 4, 64),
	)
	for _, v := range s.Readings {
		fields = append(fields, formatReading(v))
	}
	return strings.Join(fields, ",") + "\n"
}

func decodeSample(line string) (domain.Sample, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 2+domain.NumChannels {
		return domain.Sample{}, fmt.Errorf("want %d fields, got %d", 2+domain.NumChannels, len(fields))
	}
	t, err := time.ParseInLocation(timeLayout, fields[0], time.Local)
	if err != nil {
		return domain.Sample{}, fmt.Errorf("bad timestamp: %w", err)
	}
	rel, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return domain.Sample{}, fmt.Errorf("bad rel_h: %w", err)
	}
	s := domain.Sample{Time: t, RelHours: rel}
	for i := 0; i < domain.NumChannels; i++ {
		v, err := parseReading(fields[2+i])
		if err != nil {
			return domain.Sample{}, fmt.Errorf("bad reading %s: %w", domain.ChannelLabel(i+1), err)
		}
		s.Readings[i] = v
	}
	return s, nil
}

// formatReading writes the three reading states in the cell grammar shared
// with the spreadsheet tooling: empty = absent, "inf" = open circuit.
func formatReading(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(v, 'f', 4, 64)
	}
}

func parseReading(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
