// Package perf keeps a bounded in-memory history of request and query
// timings for the admin performance page.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the capacity used when NewCollector is given a non-positive size.
const DefaultRingSize = 10000

// Kind separates HTTP requests from database statements.
type Kind uint8

const (
	KindRequest Kind = iota
	KindQuery
)

// Entry is one timing sample.
type Entry struct {
	Kind       Kind
	Name       string // route label ("GET /admin/leads") or statement label ("SELECT lead")
	StatusCode int    // HTTP status; 0 for queries
	Failed     bool   // query returned an error
	Duration   time.Duration
	At         time.Time
}

// Ms returns the duration in fractional milliseconds.
func (e Entry) Ms() float64 {
	return float64(e.Duration.Microseconds()) / 1000.0
}

// Collector is a fixed-size ring buffer of entries.
// INVARIANT: at most size entries are retained; the oldest is overwritten first.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	size    int
	pos     int
	total   atomic.Int64
}

// NewCollector allocates a collector holding up to size entries.
// PRE: none
// POST: Returns an empty collector
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size), size: size}
}

// Record stores e, overwriting the oldest entry when full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % c.size
	c.mu.Unlock()
	c.total.Add(1)
}

// TotalRecorded is the number of entries ever recorded, including overwritten ones.
func (c *Collector) TotalRecorded() int64 {
	return c.total.Load()
}

// Stat aggregates samples sharing a name.
type Stat struct {
	Name    string
	Count   int
	Errors  int
	AvgMs   float64
	MaxMs   float64
	TotalMs float64
}

// Percentiles are p50/p95/p99 in milliseconds.
type Percentiles struct {
	P50, P95, P99 float64
}

// Snapshot is the aggregated view rendered on the perf page.
type Snapshot struct {
	Since          time.Time
	Requests       int
	Queries        int
	ServerErrors   int
	RequestLatency Percentiles
	QueryLatency   Percentiles
	SlowestRoutes  []Stat
	SlowestQueries []Stat
}

// Snapshot aggregates retained entries recorded at or after since.
// Sorting happens here rather than in Record so writers stay cheap.
// POST: Slowest lists hold at most topN stats ordered by average descending
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, c.size)
	copy(buf, c.entries)
	c.mu.Unlock()

	snap := Snapshot{Since: since}
	var reqMs, queryMs []float64
	routes := map[string]*Stat{}
	queries := map[string]*Stat{}

	for _, e := range buf {
		if e.At.IsZero() || e.At.Before(since) {
			continue
		}
		ms := e.Ms()
		var bucket map[string]*Stat
		failed := e.Failed
		switch e.Kind {
		case KindRequest:
			snap.Requests++
			reqMs = append(reqMs, ms)
			bucket = routes
			if e.StatusCode >= 500 {
				snap.ServerErrors++
				failed = true
			}
		case KindQuery:
			snap.Queries++
			queryMs = append(queryMs, ms)
			bucket = queries
		default:
			continue
		}
		s, ok := bucket[e.Name]
		if !ok {
			s = &Stat{Name: e.Name}
			bucket[e.Name] = s
		}
		s.Count++
		s.TotalMs += ms
		s.MaxMs = math.Max(s.MaxMs, ms)
		if failed {
			s.Errors++
		}
	}

	snap.RequestLatency = percentiles(reqMs)
	snap.QueryLatency = percentiles(queryMs)
	snap.SlowestRoutes = slowest(routes, topN)
	snap.SlowestQueries = slowest(queries, topN)
	return snap
}

func percentiles(samples []float64) Percentiles {
	if len(samples) == 0 {
		return Percentiles{}
	}
	sort.Float64s(samples)
	return Percentiles{
		P50: percentile(samples, 50),
		P95: percentile(samples, 95),
		P99: percentile(samples, 99),
	}
}

// percentile interpolates linearly between the closest ranks of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	idx := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func slowest(stats map[string]*Stat, n int) []Stat {
	list := make([]Stat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.TotalMs / float64(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs == list[j].AvgMs {
			return list[i].Name < list[j].Name
		}
		return list[i].AvgMs > list[j].AvgMs
	})
	if n >= 0 && len(list) > n {
		list = list[:n]
	}
	return list
}
