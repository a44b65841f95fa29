package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"outreach/internal/adapters/http/perf"
)

type recordedRequest struct {
	method, route string
	status        int
}

type fakeObserver struct {
	mu   sync.Mutex
	seen []recordedRequest
}

func (f *fakeObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recordedRequest{method, route, status})
}

// TestTimingMiddleware_EmitsEntry verifies that a request entry is recorded.
func TestTimingMiddleware_EmitsEntry(t *testing.T) {
	collector := perf.NewCollector(100)
	obs := &fakeObserver{}
	handler := Timing(TimingOptions{Collector: collector, Observer: obs})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/admin/leads/6f1c2b9e-8d0a-4c1e-9f3b-2a7d5e6c8b10/assign", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if collector.TotalRecorded() != 1 {
		t.Errorf("TotalRecorded = %d, want 1", collector.TotalRecorded())
	}
	if len(obs.seen) != 1 || obs.seen[0].route != "/admin/leads/{id}/assign" {
		t.Errorf("observed = %+v", obs.seen)
	}
}

// TestTimingMiddleware_SkipsStatic verifies static assets are excluded from timing.
func TestTimingMiddleware_SkipsStatic(t *testing.T) {
	collector := perf.NewCollector(100)
	handler := Timing(TimingOptions{Collector: collector})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/static/style.css", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if collector.TotalRecorded() != 0 {
		t.Errorf("TotalRecorded = %d, want 0 (static excluded)", collector.TotalRecorded())
	}
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

// TestTimingMiddleware_CapturesStatusCode verifies the status code is captured.
func TestTimingMiddleware_CapturesStatusCode(t *testing.T) {
	obs := &fakeObserver{}
	handler := Timing(TimingOptions{Observer: obs})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest("GET", "/missing", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
	if len(obs.seen) != 1 || obs.seen[0].status != http.StatusNotFound {
		t.Errorf("observed = %+v", obs.seen)
	}
}

// TestTimingMiddleware_Flushes verifies streaming handlers can flush through the wrapper.
func TestTimingMiddleware_Flushes(t *testing.T) {
	handler := Timing(TimingOptions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: x\n\n"))
		if err := http.NewResponseController(w).Flush(); err != nil {
			t.Errorf("Flush() error = %v", err)
		}
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/admin/leads/stream", nil))
	if !rr.Flushed {
		t.Error("response was not flushed")
	}
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/":            "/",
		"/admin/leads": "/admin/leads",
		"/events/0b7e5c1a-2222-4a3b-8c9d-0e1f2a3b4c5d": "/events/{id}",
		"/admin/events/abc/attendees.csv":              "/admin/events/abc/attendees.csv",
		"/admin/users/deadbeef12/permission":           "/admin/users/{id}/permission",
		"/admin/feedback":                              "/admin/feedback",
	}
	for in, want := range tests {
		if got := RouteLabel(in); got != want {
			t.Errorf("RouteLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
