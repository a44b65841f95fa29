package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	attendeestore "outreach/internal/adapters/storage/attendee"
	eventstore "outreach/internal/adapters/storage/event"
	"outreach/internal/adapters/storage/storagetest"
	"outreach/internal/domain/attendee"
	"outreach/internal/domain/event"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func mkEvent(id string, start time.Time) event.Event {
	return event.Event{
		ID: id, Title: "Event " + id, StartsAt: start, EndsAt: start.Add(2 * time.Hour),
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestSQLStore_SaveGetUpdate(t *testing.T) {
	store := eventstore.NewSQLStore(storagetest.Open(t))
	ctx := context.Background()

	e := mkEvent("e1", now.Add(24*time.Hour))
	e.Description = "**Bring a friend**"
	e.CreatedBy = "p1"
	require.NoError(t, store.Save(ctx, e))

	got, err := store.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, e.Title, got.Title)
	assert.Equal(t, "p1", got.CreatedBy)
	assert.True(t, got.StartsAt.Equal(e.StartsAt))
	assert.True(t, got.EndsAt.Equal(e.EndsAt))

	got.Title = "Renamed"
	got.CreatedBy = "someone-else"
	got.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, store.Save(ctx, got))

	again, err := store.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", again.Title)
	assert.Equal(t, "p1", again.CreatedBy, "creator is immutable")
	assert.True(t, again.UpdatedAt.Equal(now.Add(time.Minute)))
}

func TestSQLStore_ListWhen(t *testing.T) {
	store := eventstore.NewSQLStore(storagetest.Open(t))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, mkEvent("past", now.Add(-48*time.Hour))))
	require.NoError(t, store.Save(ctx, mkEvent("running", now.Add(-time.Hour))))
	require.NoError(t, store.Save(ctx, mkEvent("soon", now.Add(time.Hour))))
	require.NoError(t, store.Save(ctx, mkEvent("later", now.Add(72*time.Hour))))

	upcoming, err := store.List(ctx, eventstore.ListFilter{When: eventstore.Upcoming, Now: now})
	require.NoError(t, err)
	ids := make([]string, len(upcoming))
	for i, e := range upcoming {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"running", "soon", "later"}, ids)

	past, err := store.List(ctx, eventstore.ListFilter{When: eventstore.Past, Now: now})
	require.NoError(t, err)
	require.Len(t, past, 1)
	assert.Equal(t, "past", past[0].ID)

	all, err := store.List(ctx, eventstore.ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "later", all[0].ID)

	n, err := store.Count(ctx, eventstore.ListFilter{When: eventstore.Upcoming, Now: now})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSQLStore_DeleteCascadesAttendees(t *testing.T) {
	db := storagetest.Open(t)
	store := eventstore.NewSQLStore(db)
	attendees := attendeestore.NewSQLStore(db)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, mkEvent("e1", now)))
	require.NoError(t, attendees.Create(ctx, attendee.Attendee{
		ID: "a1", EventID: "e1", FirstName: "A", LastName: "B", Email: "a@example.com", CreatedAt: now,
	}))

	require.NoError(t, store.Delete(ctx, "e1"))
	assert.ErrorIs(t, store.Delete(ctx, "e1"), eventstore.ErrNotFound)

	_, err := attendees.GetByID(ctx, "a1")
	assert.ErrorIs(t, err, attendeestore.ErrNotFound)
}
