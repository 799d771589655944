package metrics

import (
	"sync"
	"time"
)

// Phase and status labels used on request counters.
const (
	PhaseAdapter = "adapter"

	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type labelKey struct {
	a string
	b string
	c string
}

// LatencySummary aggregates the latency samples observed for one source.
type LatencySummary struct {
	Count   int64
	TotalMS int64
	MinMS   int64
	MaxMS   int64
}

// AvgMS returns the mean latency in milliseconds, 0 when empty.
func (s LatencySummary) AvgMS() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.TotalMS) / float64(s.Count)
}

// Collector holds the process-wide request, fallback, error and latency
// counters. All methods are safe for concurrent use; each consumer gets its
// own instance via the constructor, there is no package-level state.
type Collector struct {
	mu        sync.Mutex
	requests  map[labelKey]int64 // phase, status, source
	fallbacks map[labelKey]int64 // reason, source
	errors    map[labelKey]int64 // code, source
	failed    map[string]int64   // code
	latencies map[string]*LatencySummary
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		requests:  make(map[labelKey]int64),
		fallbacks: make(map[labelKey]int64),
		errors:    make(map[labelKey]int64),
		failed:    make(map[string]int64),
		latencies: make(map[string]*LatencySummary),
	}
}

// IncRequest counts one finished request for the given phase, status and
// source.
func (c *Collector) IncRequest(phase, status, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests[labelKey{phase, status, source}]++
}

// IncFallback counts one fallback substitution with its reason.
func (c *Collector) IncFallback(reason, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallbacks[labelKey{a: reason, b: source}]++
}

// IncError counts one recoverable error by code.
func (c *Collector) IncError(code, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors[labelKey{a: code, b: source}]++
}

// IncFailed counts one terminal failure by code.
func (c *Collector) IncFailed(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed[code]++
}

// ObserveLatency records one latency sample for the source.
func (c *Collector) ObserveLatency(source string, d time.Duration) {
	ms := d.Milliseconds()
	c.mu.Lock()
	defer c.mu.Unlock()
	summary, ok := c.latencies[source]
	if !ok {
		summary = &LatencySummary{MinMS: ms, MaxMS: ms}
		c.latencies[source] = summary
	}
	summary.Count++
	summary.TotalMS += ms
	if ms < summary.MinMS {
		summary.MinMS = ms
	}
	if ms > summary.MaxMS {
		summary.MaxMS = ms
	}
}

// TimeAdapter opens a timed span around one adapter invocation. The returned
// function must be called exactly once with the final status: it records one
// latency sample and one request count, independent of outcome.
func (c *Collector) TimeAdapter(source string) func(status string) {
	start := time.Now()
	return func(status string) {
		c.ObserveLatency(source, time.Since(start))
		c.IncRequest(PhaseAdapter, status, source)
	}
}

// Requests returns the counter for one phase/status/source combination.
func (c *Collector) Requests(phase, status, source string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[labelKey{phase, status, source}]
}

// Fallbacks returns the counter for one reason/source combination.
func (c *Collector) Fallbacks(reason, source string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fallbacks[labelKey{a: reason, b: source}]
}

// Errors returns the counter for one code/source combination.
func (c *Collector) Errors(code, source string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors[labelKey{a: code, b: source}]
}

// Failed returns the terminal failure counter for one code.
func (c *Collector) Failed(code string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed[code]
}

// Latency returns a copy of the latency summary for one source.
func (c *Collector) Latency(source string) LatencySummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if summary, ok := c.latencies[source]; ok {
		return *summary
	}
	return LatencySummary{}
}

// Totals sums each counter family across all label combinations.
type Totals struct {
	Requests  int64
	Fallbacks int64
	Errors    int64
	Failed    int64
}

// Snapshot returns the aggregated totals, for status reporting.
func (c *Collector) Snapshot() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	var t Totals
	for _, v := range c.requests {
		t.Requests += v
	}
	for _, v := range c.fallbacks {
		t.Fallbacks += v
	}
	for _, v := range c.errors {
		t.Errors += v
	}
	for _, v := range c.failed {
		t.Failed += v
	}
	return t
}
