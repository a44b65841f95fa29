package orchestrators

import (
	"context"
	"sync"
	"testing"
	"time"

	"outreach/internal/adapters/email"
	"outreach/internal/adapters/realtime"
	attendeestore "outreach/internal/adapters/storage/attendee"
	eventstore "outreach/internal/adapters/storage/event"
	leadstore "outreach/internal/adapters/storage/lead"
	permissionstore "outreach/internal/adapters/storage/permission"
	profilestore "outreach/internal/adapters/storage/profile"
	"outreach/internal/adapters/storage/storagetest"
	"outreach/internal/domain/permission"
	"outreach/internal/domain/profile"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func nowFn() time.Time { return testNow }

// recordingPublisher captures published changes.
type recordingPublisher struct {
	mu      sync.Mutex
	changes []realtime.Change
}

func (p *recordingPublisher) Publish(c realtime.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
}

func (p *recordingPublisher) all() []realtime.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]realtime.Change(nil), p.changes...)
}

type env struct {
	profiles    *profilestore.SQLStore
	permissions *permissionstore.SQLStore
	events      *eventstore.SQLStore
	attendees   *attendeestore.SQLStore
	leads       *leadstore.SQLStore
	pub         *recordingPublisher
	mail        *email.Recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := storagetest.Open(t)
	return &env{
		profiles:    profilestore.NewSQLStore(db),
		permissions: permissionstore.NewSQLStore(db),
		events:      eventstore.NewSQLStore(db),
		attendees:   attendeestore.NewSQLStore(db),
		leads:       leadstore.NewSQLStore(db),
		pub:         &recordingPublisher{},
		mail:        &email.Recorder{},
	}
}

func (e *env) createDeps() CreateProfileDeps {
	return CreateProfileDeps{Profiles: e.profiles, Permissions: e.permissions, Now: nowFn}
}

func (e *env) leadDeps() LeadWorkflowDeps {
	return LeadWorkflowDeps{
		Leads:       e.leads,
		Profiles:    e.profiles,
		Permissions: e.permissions,
		Publisher:   e.pub,
		Mailer:      e.mail,
		BaseURL:     "https://example.org/",
		Now:         nowFn,
	}
}

// addProfile inserts a profile directly, skipping bcrypt, with the given level.
func (e *env) addProfile(t *testing.T, id, mail string, level permission.Level) profile.Profile {
	t.Helper()
	ctx := context.Background()
	p := profile.Profile{ID: id, Email: mail, FullName: "Person " + id, CreatedAt: testNow}
	if err := e.profiles.Save(ctx, p); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if level != permission.Regular {
		if err := e.permissions.Save(ctx, permission.Grant{ProfileID: id, Level: level, UpdatedAt: testNow}); err != nil {
			t.Fatalf("save grant: %v", err)
		}
	}
	return p
}
