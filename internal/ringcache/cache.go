// Package ringcache keeps the most recent samples in a fixed-capacity ring
// for plotting and status readouts. It is a pure derivative of the append
// log: rebuilding it is replaying the log through Push, so a cache filled
// incrementally during a session and one rebuilt at startup are identical.
package ringcache

import (
	"sort"
	"sync"
	"time"

	"github.com/ramorimdias/cwtlogger/internal/domain"
)

// Cache is a bounded FIFO over samples with an aligned time axis. A single
// writer pushes; any number of readers snapshot. Oldest samples are evicted
// when capacity is reached.
type Cache struct {
	mu     sync.RWMutex
	cap    int
	head   int
	size   int
	times  []time.Time
	rel    []float64
	series [domain.NumChannels][]float64
}

// New creates a cache holding at most capacity samples.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	c := &Cache{
		cap:   capacity,
		times: make([]time.Time, capacity),
		rel:   make([]float64, capacity),
	}
	for i := range c.series {
		c.series[i] = make([]float64, capacity)
	}
	return c
}

// Push appends one sample, evicting the oldest when full.
func (c *Cache) Push(s domain.Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := (c.head + c.size) % c.cap
	c.times[idx] = s.Time
	c.rel[idx] = s.RelHours
	for i := 0; i < domain.NumChannels; i++ {
		c.series[i][idx] = s.Readings[i]
	}
	if c.size == c.cap {
		c.head = (c.head + 1) % c.cap
	} else {
		c.size++
	}
}

// Len returns the number of cached samples.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Cap returns the configured capacity.
func (c *Cache) Cap() int { return c.cap }

// Clear empties the cache in place.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head, c.size = 0, 0
}

// Last returns the most recent sample, if any.
func (c *Cache) Last() (domain.Sample, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.size == 0 {
		return domain.Sample{}, false
	}
	return c.sampleAt((c.head + c.size - 1) % c.cap), true
}

// WindowSince returns a copied snapshot of every cached sample at or after
// cutoff, in time order. The result shares no storage with the cache, so
// renderers can hold it while sampling continues.
func (c *Cache) WindowSince(cutoff time.Time) domain.Window {
	c.mu.RLock()
	defer c.mu.RUnlock()

	start := sort.Search(c.size, func(i int) bool {
		return !c.times[(c.head+i)%c.cap].Before(cutoff)
	})
	n := c.size - start

	w := domain.Window{Times: make([]time.Time, n)}
	for i := range w.Series {
		w.Series[i] = make([]float64, n)
	}
	for j := 0; j < n; j++ {
		idx := (c.head + start + j) % c.cap
		w.Times[j] = c.times[idx]
		for ch := 0; ch < domain.NumChannels; ch++ {
			w.Series[ch][j] = c.series[ch][idx]
		}
	}
	return w
}

// Snapshot returns the whole cache as a window.
func (c *Cache) Snapshot() domain.Window {
	return c.WindowSince(time.Time{})
}

func (c *Cache) sampleAt(idx int) domain.Sample {
	s := domain.Sample{Time: c.times[idx], RelHours: c.rel[idx]}
	for i := 0; i < domain.NumChannels; i++ {
		s.Readings[i] = c.series[i][idx]
	}
	return s
}
