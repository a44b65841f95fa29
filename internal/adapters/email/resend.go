package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"

	"outreach/internal/platform/sl"
)

// ResendSender delivers through the Resend API.
type ResendSender struct {
	client  *resend.Client
	from    string
	replyTo string
}

// NewResendSender creates a sender with default From and Reply-To addresses.
// PRE: apiKey is a Resend API key
func NewResendSender(apiKey, from, replyTo string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from, replyTo: replyTo}
}

// Send queues msg with Resend.
// PRE: msg has at least one recipient and a subject
// POST: Returns the Resend message id
func (s *ResendSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	params := &resend.SendEmailRequest{
		From:    firstNonEmpty(msg.From, s.from),
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: firstNonEmpty(msg.ReplyTo, s.replyTo),
	}
	if msg.Kind != "" {
		params.Tags = []resend.Tag{{Name: "kind", Value: msg.Kind}}
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		slog.Error("resend_send_failed", "kind", msg.Kind, "to", msg.To, sl.Err(err))
		return Receipt{}, fmt.Errorf("resend send: %w", err)
	}
	slog.Info("resend_sent", "kind", msg.Kind, "message_id", sent.Id)
	return Receipt{MessageID: sent.Id, SentAt: time.Now()}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
