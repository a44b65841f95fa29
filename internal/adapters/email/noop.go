package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// LogSender logs messages instead of delivering them. Used when no
// provider key is configured.
type LogSender struct{}

// Send logs msg and reports success.
func (LogSender) Send(_ context.Context, msg Message) (Receipt, error) {
	slog.Info("email_not_sent", "kind", msg.Kind, "to", msg.To, "subject", msg.Subject)
	return Receipt{MessageID: fmt.Sprintf("log-%d", time.Now().UnixNano()), SentAt: time.Now()}, nil
}

// Recorder keeps every message in memory. Tests use it to assert on mail.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
	Err  error // returned from Send when set
}

// Send records msg, or returns r.Err.
func (r *Recorder) Send(_ context.Context, msg Message) (Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return Receipt{}, r.Err
	}
	r.sent = append(r.sent, msg)
	return Receipt{MessageID: fmt.Sprintf("rec-%d", len(r.sent)), SentAt: time.Now()}, nil
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}
