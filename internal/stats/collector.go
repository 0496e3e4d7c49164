package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Collector tracks build and query statistics using lock-free atomic counters.
// One collector is shared between the index build phase and the query path.
type Collector struct {
	bytesScanned atomic.Int64
	linesIndexed atomic.Int64

	requests    atomic.Int64
	linesServed atomic.Int64
	notFound    atomic.Int64
	bytesServed atomic.Int64

	buildNanos atomic.Int64
	startTime  time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) AddBytesScanned(n int64) { c.bytesScanned.Add(n) }
func (c *Collector) AddLinesIndexed(n int64) { c.linesIndexed.Add(n) }
func (c *Collector) AddRequests(n int64)     { c.requests.Add(n) }
func (c *Collector) AddLinesServed(n int64)  { c.linesServed.Add(n) }
func (c *Collector) AddNotFound(n int64)     { c.notFound.Add(n) }
func (c *Collector) AddBytesServed(n int64)  { c.bytesServed.Add(n) }

// SetBuildDuration records how long the index build took.
func (c *Collector) SetBuildDuration(d time.Duration) {
	c.buildNanos.Store(int64(d))
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	BytesScanned  int64
	LinesIndexed  int64
	Requests      int64
	LinesServed   int64
	NotFound      int64
	BytesServed   int64
	BuildDuration time.Duration
	Uptime        time.Duration
}

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		BytesScanned:  c.bytesScanned.Load(),
		LinesIndexed:  c.linesIndexed.Load(),
		Requests:      c.requests.Load(),
		LinesServed:   c.linesServed.Load(),
		NotFound:      c.notFound.Load(),
		BytesServed:   c.bytesServed.Load(),
		BuildDuration: time.Duration(c.buildNanos.Load()),
		Uptime:        time.Since(c.startTime),
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"scanned=%d lines=%d requests=%d served=%d notfound=%d",
		s.BytesScanned, s.LinesIndexed, s.Requests, s.LinesServed, s.NotFound,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
