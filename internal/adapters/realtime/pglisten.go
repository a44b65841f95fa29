package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"outreach/internal/platform/sl"
)

// DefaultReconnectDelay is the pause between listener reconnect attempts.
const DefaultReconnectDelay = 5 * time.Second

// PGListener bridges Postgres LISTEN/NOTIFY into a Publisher.
// It holds one dedicated connection outside the database/sql pool.
type PGListener struct {
	dsn            string
	channel        string
	pub            Publisher
	reconnectDelay time.Duration
}

// NewPGListener creates a listener for channel that forwards into pub.
// PRE: dsn is a Postgres connection string, pub is non-nil
func NewPGListener(dsn, channel string, pub Publisher) *PGListener {
	return &PGListener{dsn: dsn, channel: channel, pub: pub, reconnectDelay: DefaultReconnectDelay}
}

// Run listens until ctx is cancelled, reconnecting after a fixed delay
// whenever the connection drops.
// POST: Returns ctx.Err() once ctx is done
func (l *PGListener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("realtime_listener_disconnected", "channel", l.channel, "retry_in", l.reconnectDelay.String(), sl.Err(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.reconnectDelay):
		}
	}
}

func (l *PGListener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	slog.Info("realtime_listener_started", "channel", l.channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		c, err := ParseNotification(n.Payload)
		if err != nil {
			slog.Warn("realtime_bad_payload", "payload", n.Payload, sl.Err(err))
			continue
		}
		l.pub.Publish(c)
	}
}

var ErrBadPayload = errors.New("notification payload must carry table, op and id")

// ParseNotification decodes the JSON payload written by the row-change trigger.
func ParseNotification(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if c.Table == "" || c.Op == "" || c.ID == "" {
		return Change{}, ErrBadPayload
	}
	return c, nil
}
