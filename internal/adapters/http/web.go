package web

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"outreach/internal/adapters/email"
	"outreach/internal/adapters/http/middleware"
	"outreach/internal/adapters/http/perf"
	"outreach/internal/adapters/metrics"
	"outreach/internal/adapters/realtime"
	attendeeStore "outreach/internal/adapters/storage/attendee"
	eventStore "outreach/internal/adapters/storage/event"
	leadStore "outreach/internal/adapters/storage/lead"
	permissionStore "outreach/internal/adapters/storage/permission"
	profileStore "outreach/internal/adapters/storage/profile"
)

// Stores holds all storage dependencies.
type Stores struct {
	ProfileStore    profileStore.Store
	PermissionStore permissionStore.Store
	EventStore      eventStore.Store
	AttendeeStore   attendeeStore.Store
	LeadStore       leadStore.Store
}

// Options carries everything NewMux wires besides the stores.
type Options struct {
	BaseURL  string
	Location *time.Location // timezone admin forms are entered in
	Secure   bool           // production: secure cookies and strict CSRF

	CSRFKey        []byte
	TrustedOrigins []string
	Sessions       middleware.SessionStore
	SessionTTL     time.Duration
	Tokens         *middleware.TokenIssuer

	Mailer    email.Sender
	Hub       *realtime.Hub      // source of row changes for the leads stream
	Publisher realtime.Publisher // where writes announce changes

	Collector          *perf.Collector
	Metrics            *metrics.Metrics // optional
	RateLimitPerSecond int
	SlowRequest        time.Duration
	Debounce           time.Duration
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global options (set by NewMux)
var opts Options

// timeNow is a variable for testability.
var timeNow = time.Now

// NewMux wires HTTP handlers for the app.
// ctx bounds background work owned by the mux (rate limiter sweeps).
func NewMux(ctx context.Context, s *Stores, o Options) http.Handler {
	stores = s
	opts = withDefaults(o)
	middleware.SecureCookies = opts.Secure

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(ctx, opts.RateLimitPerSecond, time.Second)

	var observer middleware.RequestObserver
	if opts.Metrics != nil {
		observer = opts.Metrics
	}

	// Apply middleware: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, middleware.CSRFOptions{Secure: opts.Secure, TrustedOrigins: opts.TrustedOrigins}),
		middleware.Auth(opts.Sessions, opts.Tokens, stores.PermissionStore),
		middleware.RateLimit(limiter),
		middleware.Timing(middleware.TimingOptions{Collector: opts.Collector, Observer: observer, Slow: opts.SlowRequest}),
	)
}

func withDefaults(o Options) Options {
	if len(o.CSRFKey) == 0 {
		o.CSRFKey = make([]byte, 32)
		rand.Read(o.CSRFKey)
		slog.Warn("csrf_key_generated", "detail", "forms will not survive a restart; set OUTREACH_CSRF_KEY")
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = middleware.DefaultSessionTTL
	}
	if o.Sessions == nil {
		o.Sessions = middleware.NewMemorySessionStore(o.SessionTTL)
	}
	if o.Mailer == nil {
		o.Mailer = email.LogSender{}
	}
	if o.Metrics != nil {
		o.Mailer = countingSender{next: o.Mailer, m: o.Metrics}
	}
	if o.Hub == nil {
		o.Hub = realtime.NewHub()
	}
	if o.Publisher == nil {
		o.Publisher = o.Hub
	}
	if o.RateLimitPerSecond <= 0 {
		o.RateLimitPerSecond = 10
	}
	if o.Debounce <= 0 {
		o.Debounce = realtime.DefaultDebounce
	}
	return o
}

// countingSender records every send attempt in the emails counter.
type countingSender struct {
	next email.Sender
	m    *metrics.Metrics
}

func (c countingSender) Send(ctx context.Context, msg email.Message) (email.Receipt, error) {
	rec, err := c.next.Send(ctx, msg)
	c.m.EmailsSent.WithLabelValues(msg.Kind, metrics.Outcome(err)).Inc()
	return rec, err
}
