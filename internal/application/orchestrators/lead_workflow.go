package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"outreach/internal/adapters/email"
	"outreach/internal/adapters/realtime"
	"outreach/internal/domain/lead"
	"outreach/internal/domain/permission"
)

// LeadStoreForWorkflow defines the store interface needed by lead writes.
type LeadStoreForWorkflow interface {
	GetByID(ctx context.Context, id string) (lead.Lead, error)
	Save(ctx context.Context, value lead.Lead) error
	Delete(ctx context.Context, id string) error
}

// Actor identifies who is performing a lead write.
type Actor struct {
	ProfileID string
	Level     permission.Level
}

// LeadWorkflowDeps holds dependencies for lead writes.
type LeadWorkflowDeps struct {
	Leads       LeadStoreForWorkflow
	Profiles    ProfileLookup
	Permissions LevelReader
	Publisher   realtime.Publisher
	Mailer      email.Sender
	BaseURL     string
	Now         func() time.Time
}

// ErrAssigneeNotEligible is returned when assigning to a Regular profile.
var ErrAssigneeNotEligible = errors.New("leads can only be assigned to super admins or lead managers")

// ExecuteMarkContacted sets or clears a lead's contacted flag.
// PRE: actor may view leads
// POST: Lead persisted with Contacted == contacted; a lead change published
// INVARIANT: a lead manager may only change leads assigned to them
func ExecuteMarkContacted(ctx context.Context, actor Actor, leadID string, contacted bool, deps LeadWorkflowDeps) (lead.Lead, error) {
	if !actor.Level.CanViewLeads() {
		return lead.Lead{}, ErrForbidden
	}
	l, err := deps.Leads.GetByID(ctx, leadID)
	if err != nil {
		return lead.Lead{}, err
	}
	if actor.Level == permission.LeadManager && !l.IsAssignedTo(actor.ProfileID) {
		return lead.Lead{}, lead.ErrNotAssignedToYou
	}
	if l.Contacted == contacted {
		return l, nil
	}
	l.MarkContacted(contacted, clock(deps.Now))
	if err := deps.Leads.Save(ctx, l); err != nil {
		return lead.Lead{}, fmt.Errorf("mark contacted: %w", err)
	}
	publish(deps.Publisher, realtime.TableLead, realtime.OpUpdate, l.ID)
	slog.Info("lead_contacted", "lead_id", l.ID, "contacted", contacted, "actor", actor.ProfileID)
	return l, nil
}

// ExecuteAssignLead assigns a lead to a profile, or unassigns it when assigneeID is empty.
// PRE: actor is a super admin
// POST: Lead persisted; assignee emailed best effort; a lead change published
// INVARIANT: assignees are always level 0 or 1
func ExecuteAssignLead(ctx context.Context, actor Actor, leadID, assigneeID string, deps LeadWorkflowDeps) (lead.Lead, error) {
	if !actor.Level.CanAssignLeads() {
		return lead.Lead{}, ErrForbidden
	}
	l, err := deps.Leads.GetByID(ctx, leadID)
	if err != nil {
		return lead.Lead{}, err
	}
	if l.AssignedUserID == assigneeID {
		return l, nil
	}

	var assigneeEmail, assigneeName string
	if assigneeID != "" {
		level, err := deps.Permissions.Level(ctx, assigneeID)
		if err != nil {
			return lead.Lead{}, err
		}
		if !level.IsAssignable() {
			return lead.Lead{}, ErrAssigneeNotEligible
		}
		p, err := deps.Profiles.GetByID(ctx, assigneeID)
		if err != nil {
			return lead.Lead{}, err
		}
		assigneeEmail, assigneeName = p.Email, p.DisplayName()
	}

	l.AssignTo(assigneeID, clock(deps.Now))
	if err := deps.Leads.Save(ctx, l); err != nil {
		return lead.Lead{}, fmt.Errorf("assign lead: %w", err)
	}
	publish(deps.Publisher, realtime.TableLead, realtime.OpUpdate, l.ID)
	slog.Info("lead_assigned", "lead_id", l.ID, "assignee", assigneeID, "actor", actor.ProfileID)

	if assigneeID != "" && assigneeID != actor.ProfileID {
		notifyAssignee(ctx, l, assigneeEmail, assigneeName, deps)
	}
	return l, nil
}

func notifyAssignee(ctx context.Context, l lead.Lead, to, name string, deps LeadWorkflowDeps) {
	if deps.Mailer == nil || to == "" {
		return
	}
	msg, err := email.Assignment{
		To:           to,
		AssigneeName: name,
		LeadName:     l.FullName(),
		LeadEmail:    l.Email,
		LeadPhone:    l.Phone,
		Decision:     l.DecisionLabel(),
		LeadsURL:     strings.TrimRight(deps.BaseURL, "/") + "/admin/leads",
	}.Build()
	if err != nil {
		slog.Error("email_failed", "kind", email.KindLeadAssigned, "error", err)
		return
	}
	if _, err := deps.Mailer.Send(ctx, msg); err != nil {
		slog.Warn("email_failed", "kind", msg.Kind, "to", to, "error", err)
	}
}

// ExecuteDeleteLead removes a lead.
// PRE: actor is a super admin
// POST: Lead is gone; a lead change published
func ExecuteDeleteLead(ctx context.Context, actor Actor, leadID string, deps LeadWorkflowDeps) error {
	if !actor.Level.CanAssignLeads() {
		return ErrForbidden
	}
	if err := deps.Leads.Delete(ctx, leadID); err != nil {
		return err
	}
	publish(deps.Publisher, realtime.TableLead, realtime.OpDelete, leadID)
	slog.Info("lead_deleted", "lead_id", leadID, "actor", actor.ProfileID)
	return nil
}
