package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// Message kinds.
const (
	KindRegistrationConfirmation = "registration_confirmation"
	KindLeadAssigned             = "lead_assigned"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<p>Hi {{.FirstName}},</p>
<p>You're registered for <strong>{{.EventTitle}}</strong>{{if .Guests}} with {{.Guests}} guest{{if gt .Guests 1}}s{{end}}{{end}}.</p>
<p>{{.When}}{{if .Location}}<br>{{.Location}}{{end}}</p>
<p><a href="{{.EventURL}}">Event details</a></p>`))

var assignedTmpl = template.Must(template.New("assigned").Parse(`<p>Hi {{.AssigneeName}},</p>
<p><strong>{{.LeadName}}</strong> has been assigned to you.</p>
<p>{{if .LeadEmail}}Email: {{.LeadEmail}}<br>{{end}}{{if .LeadPhone}}Phone: {{.LeadPhone}}<br>{{end}}Decision: {{.Decision}}</p>
<p><a href="{{.LeadsURL}}">Open your leads</a></p>`))

// Confirmation is the data for a registration confirmation.
type Confirmation struct {
	To         string
	FirstName  string
	EventTitle string
	Location   string
	StartsAt   time.Time
	Guests     int
	EventURL   string
	Loc        *time.Location
}

// Build renders the confirmation message.
// PRE: Loc is non-nil
func (c Confirmation) Build() (Message, error) {
	when := c.StartsAt.In(c.Loc).Format("Monday 2 January 2006, 3:04 PM MST")
	var buf bytes.Buffer
	err := confirmationTmpl.Execute(&buf, struct {
		Confirmation
		When string
	}{c, when})
	if err != nil {
		return Message{}, fmt.Errorf("render confirmation: %w", err)
	}
	return Message{
		To:      []string{c.To},
		Subject: "You're registered: " + c.EventTitle,
		HTML:    buf.String(),
		Text:    fmt.Sprintf("You're registered for %s on %s.\n%s", c.EventTitle, when, c.EventURL),
		Kind:    KindRegistrationConfirmation,
	}, nil
}

// Assignment is the data for a lead-assigned notice.
type Assignment struct {
	To           string
	AssigneeName string
	LeadName     string
	LeadEmail    string
	LeadPhone    string
	Decision     string
	LeadsURL     string
}

// Build renders the assignment message.
func (a Assignment) Build() (Message, error) {
	var buf bytes.Buffer
	if err := assignedTmpl.Execute(&buf, a); err != nil {
		return Message{}, fmt.Errorf("render assignment: %w", err)
	}
	return Message{
		To:      []string{a.To},
		Subject: "New lead assigned: " + a.LeadName,
		HTML:    buf.String(),
		Text:    fmt.Sprintf("%s has been assigned to you.\n%s", a.LeadName, a.LeadsURL),
		Kind:    KindLeadAssigned,
	}, nil
}
