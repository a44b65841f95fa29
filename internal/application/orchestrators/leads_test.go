package orchestrators

import (
	"context"
	"errors"
	"testing"

	"outreach/internal/adapters/realtime"
	leadstore "outreach/internal/adapters/storage/lead"
	"outreach/internal/domain/lead"
	"outreach/internal/domain/permission"
)

func TestExecuteSubmitLead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	deps := SubmitLeadDeps{Leads: e.leads, Events: e.events, Publisher: e.pub, Now: nowFn}

	l, err := ExecuteSubmitLead(ctx, SubmitLeadInput{
		FirstName: " Sam ",
		Phone:     "021 555 0100",
		Decision:  lead.DecisionFirstTime,
		EventID:   "no-such-event",
	}, deps)
	if err != nil {
		t.Fatalf("submit error = %v", err)
	}
	if l.FirstName != "Sam" || l.EventID != "" || l.Contacted || l.IsAssigned() {
		t.Errorf("lead = %+v", l)
	}
	if got := e.pub.all(); len(got) != 1 || got[0].Table != realtime.TableLead || got[0].Op != realtime.OpInsert {
		t.Errorf("published = %+v", got)
	}

	tests := []struct {
		name  string
		input SubmitLeadInput
		field string
	}{
		{"no contact", SubmitLeadInput{FirstName: "A", Decision: lead.DecisionMoreInfo}, "Email"},
		{"bad email", SubmitLeadInput{FirstName: "A", Email: "x", Decision: lead.DecisionMoreInfo}, "Email"},
		{"bad decision", SubmitLeadInput{FirstName: "A", Email: "a@b.org", Decision: "maybe"}, "Decision"},
		{"no name", SubmitLeadInput{Email: "a@b.org", Decision: lead.DecisionMoreInfo}, "FirstName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExecuteSubmitLead(ctx, tt.input, deps)
			var ie *InputError
			if !errors.As(err, &ie) || ie.Field != tt.field {
				t.Fatalf("error = %v, want InputError on %s", err, tt.field)
			}
		})
	}
}

func seedLead(t *testing.T, e *env, id, assignee string) lead.Lead {
	t.Helper()
	l := lead.Lead{ID: id, FirstName: "Lee", Email: id + "@example.org", Decision: lead.DecisionMoreInfo, CreatedAt: testNow}
	l.AssignTo(assignee, testNow)
	if err := e.leads.Save(context.Background(), l); err != nil {
		t.Fatal(err)
	}
	return l
}

func TestExecuteMarkContacted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addProfile(t, "mgr", "mgr@church.org", permission.LeadManager)
	seedLead(t, e, "mine", "mgr")
	seedLead(t, e, "theirs", "")
	deps := e.leadDeps()
	mgr := Actor{ProfileID: "mgr", Level: permission.LeadManager}

	l, err := ExecuteMarkContacted(ctx, mgr, "mine", true, deps)
	if err != nil {
		t.Fatal(err)
	}
	if !l.Contacted || !l.ContactedAt.Equal(testNow) {
		t.Errorf("lead = %+v", l)
	}

	if _, err := ExecuteMarkContacted(ctx, mgr, "theirs", true, deps); !errors.Is(err, lead.ErrNotAssignedToYou) {
		t.Errorf("other lead error = %v", err)
	}
	if _, err := ExecuteMarkContacted(ctx, Actor{ProfileID: "x", Level: permission.Regular}, "mine", false, deps); !errors.Is(err, ErrForbidden) {
		t.Errorf("regular error = %v", err)
	}

	admin := Actor{ProfileID: "admin", Level: permission.SuperAdmin}
	if _, err := ExecuteMarkContacted(ctx, admin, "theirs", true, deps); err != nil {
		t.Errorf("admin should mark any lead: %v", err)
	}
	l, err = ExecuteMarkContacted(ctx, admin, "mine", false, deps)
	if err != nil || l.Contacted || !l.ContactedAt.IsZero() {
		t.Errorf("uncontact = %+v, %v", l, err)
	}
	if n := len(e.pub.all()); n != 3 {
		t.Errorf("published %d changes, want 3", n)
	}
}

func TestExecuteAssignLead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addProfile(t, "admin", "admin@church.org", permission.SuperAdmin)
	e.addProfile(t, "mgr", "mgr@church.org", permission.LeadManager)
	e.addProfile(t, "user", "user@church.org", permission.Regular)
	seedLead(t, e, "l1", "")
	deps := e.leadDeps()
	admin := Actor{ProfileID: "admin", Level: permission.SuperAdmin}

	l, err := ExecuteAssignLead(ctx, admin, "l1", "mgr", deps)
	if err != nil {
		t.Fatal(err)
	}
	if l.AssignedUserID != "mgr" {
		t.Errorf("assigned = %q", l.AssignedUserID)
	}
	sent := e.mail.Sent()
	if len(sent) != 1 || sent[0].To[0] != "mgr@church.org" {
		t.Errorf("assignment mail = %+v", sent)
	}

	if _, err := ExecuteAssignLead(ctx, admin, "l1", "user", deps); !errors.Is(err, ErrAssigneeNotEligible) {
		t.Errorf("regular assignee error = %v", err)
	}
	if _, err := ExecuteAssignLead(ctx, Actor{ProfileID: "mgr", Level: permission.LeadManager}, "l1", "mgr", deps); !errors.Is(err, ErrForbidden) {
		t.Errorf("lead manager assign error = %v", err)
	}

	// Self assignment sends no mail; unassigning clears the owner.
	if _, err := ExecuteAssignLead(ctx, admin, "l1", "admin", deps); err != nil {
		t.Fatal(err)
	}
	l, err = ExecuteAssignLead(ctx, admin, "l1", "", deps)
	if err != nil || l.IsAssigned() || !l.AssignedAt.IsZero() {
		t.Errorf("unassign = %+v, %v", l, err)
	}
	if n := len(e.mail.Sent()); n != 1 {
		t.Errorf("mails sent = %d, want 1", n)
	}
}

func TestExecuteDeleteLead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedLead(t, e, "l1", "")
	deps := e.leadDeps()

	if err := ExecuteDeleteLead(ctx, Actor{Level: permission.LeadManager}, "l1", deps); !errors.Is(err, ErrForbidden) {
		t.Errorf("lead manager delete error = %v", err)
	}
	if err := ExecuteDeleteLead(ctx, Actor{ProfileID: "admin", Level: permission.SuperAdmin}, "l1", deps); err != nil {
		t.Fatal(err)
	}
	if _, err := e.leads.GetByID(ctx, "l1"); !errors.Is(err, leadstore.ErrNotFound) {
		t.Errorf("GetByID after delete = %v", err)
	}
	if got := e.pub.all(); len(got) != 1 || got[0].Op != realtime.OpDelete {
		t.Errorf("published = %+v", got)
	}
}

func TestExecuteSyntheticSeed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addProfile(t, "mgr", "mgr@church.org", permission.LeadManager)

	res, err := ExecuteSyntheticSeed(ctx, SyntheticSeedInput{Events: 4, Leads: 40, Seed: 42}, SyntheticSeedDeps{
		Events: e.events, Attendees: e.attendees, Leads: e.leads, Grants: e.permissions, Now: nowFn,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Events != 4 || res.Leads != 40 {
		t.Errorf("result = %+v", res)
	}
	if n, _ := e.leads.Count(ctx, leadstore.ListFilter{}); n != 40 {
		t.Errorf("lead count = %d", n)
	}
	if n, _ := e.attendees.Count(ctx); n != res.Attendees {
		t.Errorf("attendee count = %d, want %d", n, res.Attendees)
	}
	mgr := "mgr"
	rows, err := e.leads.List(ctx, leadstore.ListFilter{AssignedUserID: &mgr})
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range rows {
		if l.AssignedUserID != "mgr" {
			t.Fatalf("lead %s assigned to %q", l.ID, l.AssignedUserID)
		}
	}
}
