package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"outreach/internal/domain/attendee"
	"outreach/internal/domain/event"
	"outreach/internal/domain/lead"
	"outreach/internal/domain/permission"
)

// SyntheticSeedDeps holds the stores needed for development data.
type SyntheticSeedDeps struct {
	Events    synEventStore
	Attendees AttendeeCreator
	Leads     LeadSaver
	Grants    synGrantLister
	Now       func() time.Time
}

type synEventStore interface {
	Save(ctx context.Context, value event.Event) error
}

type synGrantLister interface {
	List(ctx context.Context, levels ...permission.Level) ([]permission.Grant, error)
}

// SyntheticSeedInput sizes the generated data set.
type SyntheticSeedInput struct {
	Events int
	Leads  int
	Seed   uint64 // zero picks a time-based seed
}

// SyntheticSeedResult counts what was written.
type SyntheticSeedResult struct {
	Events    int
	Attendees int
	Leads     int
}

var eventTitles = []string{
	"Friday Night Worship", "Community Dinner", "Youth Gathering", "Prayer Breakfast",
	"Newcomers Lunch", "Easter Service", "Carols by Candlelight", "Men's Breakfast",
	"Women's Retreat", "Family Fun Day",
}

// ExecuteSyntheticSeed fills the database with fake events, registrations and leads.
// PRE: schema is migrated
// POST: Events are spread over the past and next 60 days; about a third of leads are
// contacted and about half are assigned to an existing level 0 or 1 profile
func ExecuteSyntheticSeed(ctx context.Context, input SyntheticSeedInput, deps SyntheticSeedDeps) (SyntheticSeedResult, error) {
	seed := input.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	f := gofakeit.New(seed)
	now := clock(deps.Now)
	var res SyntheticSeedResult

	var owners []string
	if deps.Grants != nil {
		grants, err := deps.Grants.List(ctx, permission.SuperAdmin, permission.LeadManager)
		if err != nil {
			return res, fmt.Errorf("list assignees: %w", err)
		}
		for _, g := range grants {
			owners = append(owners, g.ProfileID)
		}
	}

	eventIDs := make([]string, 0, input.Events)
	for i := 0; i < input.Events; i++ {
		start := now.Add(time.Duration(f.IntRange(-60, 60))*24*time.Hour).
			Truncate(time.Hour)
		ev := event.Event{
			ID:          uuid.New().String(),
			Title:       f.RandomString(eventTitles),
			Description: f.Sentence(12) + "\n\n" + f.Sentence(20),
			Location:    f.Street() + ", " + f.City(),
			StartsAt:    start,
			EndsAt:      start.Add(time.Duration(f.IntRange(1, 4)) * time.Hour),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := deps.Events.Save(ctx, ev); err != nil {
			return res, fmt.Errorf("seed event: %w", err)
		}
		eventIDs = append(eventIDs, ev.ID)
		res.Events++

		for j := f.IntRange(0, 12); j > 0; j-- {
			a := attendee.Attendee{
				ID:        uuid.New().String(),
				EventID:   ev.ID,
				FirstName: f.FirstName(),
				LastName:  f.LastName(),
				Email:     fmt.Sprintf("%d.%s", j, f.Email()),
				Phone:     f.Phone(),
				Guests:    f.IntRange(0, 3),
				CreatedAt: now,
			}
			if err := deps.Attendees.Create(ctx, a); err != nil {
				return res, fmt.Errorf("seed attendee: %w", err)
			}
			res.Attendees++
		}
	}

	for i := 0; i < input.Leads; i++ {
		created := now.Add(-time.Duration(f.IntRange(0, 90*24)) * time.Hour)
		l := lead.Lead{
			ID:        uuid.New().String(),
			FirstName: f.FirstName(),
			LastName:  f.LastName(),
			Email:     f.Email(),
			Phone:     f.Phone(),
			Decision:  f.RandomString(lead.ValidDecisions),
			CreatedAt: created,
		}
		if f.Bool() {
			l.Notes = f.Sentence(10)
		}
		if len(eventIDs) > 0 && f.IntRange(0, 1) == 1 {
			l.EventID = eventIDs[f.IntRange(0, len(eventIDs)-1)]
		}
		if len(owners) > 0 && f.Bool() {
			l.AssignTo(owners[f.IntRange(0, len(owners)-1)], created.Add(time.Hour))
		}
		if f.IntRange(0, 2) == 0 {
			l.MarkContacted(true, created.Add(2*time.Hour))
		}
		if err := deps.Leads.Save(ctx, l); err != nil {
			return res, fmt.Errorf("seed lead: %w", err)
		}
		res.Leads++
	}

	slog.Info("seed_synthetic", "events", res.Events, "attendees", res.Attendees, "leads", res.Leads, "seed", seed)
	return res, nil
}
