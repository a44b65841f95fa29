package email

import (
	"context"
	"time"
)

// Message is one outgoing transactional email.
type Message struct {
	To      []string
	From    string // overrides the sender's default when set
	ReplyTo string
	Subject string
	HTML    string
	Text    string
	Kind    string // "registration_confirmation", "lead_assigned"; used for tagging and metrics
}

// Receipt is the provider's acknowledgement.
type Receipt struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}
