package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"outreach/internal/adapters/email"
	"outreach/internal/adapters/http/middleware"
	"outreach/internal/adapters/realtime"
	attendeeStore "outreach/internal/adapters/storage/attendee"
	eventStore "outreach/internal/adapters/storage/event"
	leadStore "outreach/internal/adapters/storage/lead"
	permissionStore "outreach/internal/adapters/storage/permission"
	profileStore "outreach/internal/adapters/storage/profile"
	"outreach/internal/adapters/storage/storagetest"
	"outreach/internal/domain/event"
	"outreach/internal/domain/lead"
	"outreach/internal/domain/permission"
	"outreach/internal/domain/profile"
)

const testPassword = "correct horse battery"

// testApp is a fully wired mux over an in-memory database.
type testApp struct {
	handler  http.Handler
	stores   *Stores
	mail     *email.Recorder
	tokens   *middleware.TokenIssuer
	sessions *middleware.MemorySessionStore
	hub      *realtime.Hub
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := storagetest.Open(t)
	s := &Stores{
		ProfileStore:    profileStore.NewSQLStore(db),
		PermissionStore: permissionStore.NewSQLStore(db),
		EventStore:      eventStore.NewSQLStore(db),
		AttendeeStore:   attendeeStore.NewSQLStore(db),
		LeadStore:       leadStore.NewSQLStore(db),
	}
	app := &testApp{
		stores:   s,
		mail:     &email.Recorder{},
		tokens:   middleware.NewTokenIssuer([]byte("test-secret-test-secret-test-sec"), time.Hour),
		sessions: middleware.NewMemorySessionStore(time.Hour),
		hub:      realtime.NewHub(),
	}
	t.Cleanup(app.hub.Close)
	timeNow = time.Now
	app.handler = NewMux(t.Context(), s, Options{
		BaseURL:            "https://outreach.test",
		Location:           time.UTC,
		CSRFKey:            []byte("0123456789abcdef0123456789abcdef"),
		Sessions:           app.sessions,
		Tokens:             app.tokens,
		Mailer:             app.mail,
		Hub:                app.hub,
		RateLimitPerSecond: 10000,
		Debounce:           10 * time.Millisecond,
	})
	return app
}

// addProfile stores a profile with testPassword and grants level.
func (a *testApp) addProfile(t *testing.T, id, mail string, level permission.Level) profile.Profile {
	t.Helper()
	ctx := context.Background()
	p := profile.Profile{ID: id, Email: mail, FullName: "Person " + id, CreatedAt: time.Now().UTC()}
	if err := p.SetPassword(testPassword); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := a.stores.ProfileStore.Save(ctx, p); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if level != permission.Regular {
		if err := a.stores.PermissionStore.Save(ctx, permission.Grant{ProfileID: id, Level: level, UpdatedAt: time.Now().UTC()}); err != nil {
			t.Fatalf("save grant: %v", err)
		}
	}
	return p
}

// bearer issues a token for p without going through the login endpoint.
func (a *testApp) bearer(t *testing.T, p profile.Profile) string {
	t.Helper()
	tok, _, err := a.tokens.Issue(p.ID, p.Email)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// cookie creates a browser session for p.
func (a *testApp) cookie(t *testing.T, p profile.Profile) *http.Cookie {
	t.Helper()
	tok, err := a.sessions.Create(context.Background(), p.ID, p.Email)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return &http.Cookie{Name: middleware.SessionCookieName, Value: tok}
}

func (a *testApp) addEvent(t *testing.T, id, title string, start time.Time) event.Event {
	t.Helper()
	e := event.Event{
		ID:        id,
		Title:     title,
		Location:  "Hall",
		StartsAt:  start.UTC().Truncate(time.Minute),
		EndsAt:    start.UTC().Truncate(time.Minute).Add(2 * time.Hour),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := a.stores.EventStore.Save(context.Background(), e); err != nil {
		t.Fatalf("save event: %v", err)
	}
	return e
}

func (a *testApp) addLead(t *testing.T, id, first, assignee string) lead.Lead {
	t.Helper()
	l := lead.Lead{
		ID:        id,
		FirstName: first,
		LastName:  "Tester",
		Email:     strings.ToLower(first) + "@example.com",
		Decision:  lead.DecisionFirstTime,
		CreatedAt: time.Now().UTC(),
	}
	if assignee != "" {
		l.AssignTo(assignee, time.Now().UTC())
	}
	if err := a.stores.LeadStore.Save(context.Background(), l); err != nil {
		t.Fatalf("save lead: %v", err)
	}
	return l
}

// jsonRequest builds a JSON API request; token may be empty.
func jsonRequest(method, path, token string, body any) *http.Request {
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func formRequest(method, path string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	return req
}

func (a *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

// asSession calls a handler directly with a session in context, skipping the CSRF layer.
func asSession(req *http.Request, p profile.Profile, level permission.Level) *http.Request {
	return req.WithContext(middleware.ContextWithSession(req.Context(), middleware.Session{
		ProfileID: p.ID,
		Email:     p.Email,
		Level:     level,
	}))
}
