package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"outreach/internal/adapters/realtime"
	"outreach/internal/domain/lead"
)

// LeadSaver persists leads.
type LeadSaver interface {
	Save(ctx context.Context, value lead.Lead) error
}

// SubmitLeadInput carries the public saved form.
type SubmitLeadInput struct {
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"max=100"`
	Email     string `validate:"required_without=Phone,omitempty,email,max=254"`
	Phone     string `validate:"max=40"`
	Decision  string `validate:"required,oneof=first_time rededication more_info"`
	Notes     string `validate:"max=2000"`
	EventID   string
}

// SubmitLeadDeps holds dependencies for SubmitLead.
type SubmitLeadDeps struct {
	Leads     LeadSaver
	Events    EventReader
	Publisher realtime.Publisher
	Now       func() time.Time
}

// ExecuteSubmitLead stores a saved-form submission as an unassigned, uncontacted lead.
// PRE: none
// POST: Lead persisted and a lead change published
func ExecuteSubmitLead(ctx context.Context, input SubmitLeadInput, deps SubmitLeadDeps) (lead.Lead, error) {
	if err := checkInput(input); err != nil {
		return lead.Lead{}, err
	}

	l := lead.Lead{
		ID:        uuid.New().String(),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:     strings.TrimSpace(input.Phone),
		Decision:  input.Decision,
		Notes:     strings.TrimSpace(input.Notes),
		CreatedAt: clock(deps.Now),
	}
	// An unknown event id is dropped rather than failing the visitor's submission.
	if input.EventID != "" && deps.Events != nil {
		if _, err := deps.Events.GetByID(ctx, input.EventID); err == nil {
			l.EventID = input.EventID
		}
	}
	if err := l.Validate(); err != nil {
		return lead.Lead{}, err
	}
	if err := deps.Leads.Save(ctx, l); err != nil {
		return lead.Lead{}, err
	}
	publish(deps.Publisher, realtime.TableLead, realtime.OpInsert, l.ID)
	slog.Info("lead_submitted", "lead_id", l.ID, "decision", l.Decision, "event_id", l.EventID)
	return l, nil
}
