package perf

import (
	"sync"
	"testing"
	"time"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// TestCollector_Snapshot verifies grouping by name and kind.
func TestCollector_Snapshot(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()

	c.Record(Entry{Kind: KindRequest, Name: "GET /admin/leads", StatusCode: 200, Duration: ms(10), At: now})
	c.Record(Entry{Kind: KindRequest, Name: "GET /admin/leads", StatusCode: 500, Duration: ms(30), At: now})
	c.Record(Entry{Kind: KindQuery, Name: "SELECT lead", Duration: ms(5), At: now})
	c.Record(Entry{Kind: KindQuery, Name: "INSERT lead", Failed: true, Duration: ms(1), At: now})

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.Requests != 2 || snap.Queries != 2 {
		t.Fatalf("Requests=%d Queries=%d, want 2/2", snap.Requests, snap.Queries)
	}
	if snap.ServerErrors != 1 {
		t.Errorf("ServerErrors = %d, want 1", snap.ServerErrors)
	}
	if len(snap.SlowestRoutes) != 1 {
		t.Fatalf("SlowestRoutes len = %d, want 1", len(snap.SlowestRoutes))
	}
	route := snap.SlowestRoutes[0]
	if route.AvgMs != 20 || route.MaxMs != 30 || route.Errors != 1 {
		t.Errorf("route stat = %+v", route)
	}
	if len(snap.SlowestQueries) != 2 || snap.SlowestQueries[0].Name != "SELECT lead" {
		t.Errorf("SlowestQueries = %+v", snap.SlowestQueries)
	}
	if snap.SlowestQueries[1].Errors != 1 {
		t.Errorf("failed query not counted: %+v", snap.SlowestQueries[1])
	}
}

// TestCollector_RingBuffer verifies the oldest entries are overwritten.
func TestCollector_RingBuffer(t *testing.T) {
	c := NewCollector(3)
	now := time.Now()
	for i := 0; i < 5; i++ {
		c.Record(Entry{Kind: KindRequest, Name: "GET /", Duration: ms(i), At: now})
	}
	if c.TotalRecorded() != 5 {
		t.Errorf("TotalRecorded = %d, want 5", c.TotalRecorded())
	}
	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.SlowestRoutes[0].Count != 3 {
		t.Errorf("Count = %d, want 3", snap.SlowestRoutes[0].Count)
	}
	if snap.SlowestRoutes[0].AvgMs != 3 {
		t.Errorf("AvgMs = %v, want 3 (entries 2,3,4)", snap.SlowestRoutes[0].AvgMs)
	}
}

// TestCollector_Percentiles verifies interpolated percentiles.
func TestCollector_Percentiles(t *testing.T) {
	c := NewCollector(200)
	now := time.Now()
	for i := 1; i <= 101; i++ {
		c.Record(Entry{Kind: KindRequest, Name: "GET /", Duration: ms(i), At: now})
	}
	p := c.Snapshot(now.Add(-time.Minute), 5).RequestLatency
	if p.P50 != 51 || p.P95 != 96 || p.P99 != 100 {
		t.Errorf("percentiles = %+v, want 51/96/100", p)
	}
}

// TestCollector_SinceFilter verifies old samples are excluded.
func TestCollector_SinceFilter(t *testing.T) {
	c := NewCollector(10)
	now := time.Now()
	c.Record(Entry{Kind: KindRequest, Name: "GET /old", Duration: ms(1), At: now.Add(-2 * time.Hour)})
	c.Record(Entry{Kind: KindRequest, Name: "GET /new", Duration: ms(1), At: now})

	snap := c.Snapshot(now.Add(-time.Hour), 10)
	if snap.Requests != 1 || snap.SlowestRoutes[0].Name != "GET /new" {
		t.Errorf("snapshot = %+v", snap)
	}
}

// TestCollector_TopN verifies truncation.
func TestCollector_TopN(t *testing.T) {
	c := NewCollector(10)
	now := time.Now()
	for i, name := range []string{"a", "b", "c", "d"} {
		c.Record(Entry{Kind: KindQuery, Name: name, Duration: ms(i + 1), At: now})
	}
	got := c.Snapshot(now.Add(-time.Minute), 2).SlowestQueries
	if len(got) != 2 || got[0].Name != "d" || got[1].Name != "c" {
		t.Errorf("SlowestQueries = %+v", got)
	}
}

// TestCollector_Concurrent exercises Record from many goroutines.
func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector(50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Record(Entry{Kind: KindRequest, Name: "GET /", Duration: ms(1), At: time.Now()})
			}
		}()
	}
	wg.Wait()
	if c.TotalRecorded() != 800 {
		t.Errorf("TotalRecorded = %d, want 800", c.TotalRecorded())
	}
}
