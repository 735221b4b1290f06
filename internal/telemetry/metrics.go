package telemetry

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

type Counter struct {
	val atomic.Int64
}

func (c *Counter) Inc()         { c.val.Add(1) }
func (c *Counter) Add(n int64)  { c.val.Add(n) }
func (c *Counter) Value() int64 { return c.val.Load() }

type Gauge struct {
	val atomic.Int64
}

func (g *Gauge) Set(v int64)  { g.val.Store(v) }
func (g *Gauge) Inc()         { g.val.Add(1) }
func (g *Gauge) Dec()         { g.val.Add(-1) }
func (g *Gauge) Value() int64 { return g.val.Load() }

type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	maxKeep int
}

func NewLatencyTracker(maxKeep int) *LatencyTracker {
	return &LatencyTracker{maxKeep: maxKeep}
}

func (lt *LatencyTracker) Record(d time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.samples = append(lt.samples, d)
	if len(lt.samples) > lt.maxKeep {
		lt.samples = lt.samples[len(lt.samples)-lt.maxKeep:]
	}
}

func (lt *LatencyTracker) P50() time.Duration { return lt.percentile(0.50) }
func (lt *LatencyTracker) P99() time.Duration { return lt.percentile(0.99) }

func (lt *LatencyTracker) Count() int {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return len(lt.samples)
}

func (lt *LatencyTracker) percentile(p float64) time.Duration {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	if len(lt.samples) == 0 {
		return 0
	}
	sorted := slices.Clone(lt.samples)
	slices.Sort(sorted)
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

// Metrics is the global metrics registry.
var Metrics = struct {
	MatchesProcessed Counter
	MatchesFailed    Counter
	TablesStored     Counter
	FetchRequests    Counter
	FetchRetries     Counter
	FetchErrors      Counter
	ActiveWorkers    Gauge
	FetchLatency     *LatencyTracker
	StoreLatency     *LatencyTracker
}{
	FetchLatency: NewLatencyTracker(1000),
	StoreLatency: NewLatencyTracker(1000),
}

// LogSummary prints the run counters at info level.
func LogSummary() {
	m := &Metrics
	Infof("metrics: matches=%d failed=%d tables=%d fetches=%d retries=%d fetch_errors=%d fetch_p50=%s fetch_p99=%s store_p50=%s",
		m.MatchesProcessed.Value(), m.MatchesFailed.Value(), m.TablesStored.Value(),
		m.FetchRequests.Value(), m.FetchRetries.Value(), m.FetchErrors.Value(),
		m.FetchLatency.P50(), m.FetchLatency.P99(), m.StoreLatency.P50())
}
