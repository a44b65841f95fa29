package leadview

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	leadstore "outreach/internal/adapters/storage/lead"
	"outreach/internal/application/listutil"
	"outreach/internal/domain/lead"
	"outreach/internal/domain/permission"
	"outreach/internal/platform/sl"
)

var (
	ErrForbidden = errors.New("your permission level cannot view leads")
	ErrBusy      = errors.New("a leads page load is already in progress")
)

// Load outcomes reported to Observe.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeBusy  = "busy"
)

// LeadReader is the read side of the lead store.
type LeadReader interface {
	List(ctx context.Context, filter leadstore.ListFilter) ([]lead.Lead, error)
	Count(ctx context.Context, filter leadstore.ListFilter) (int, error)
}

// Viewer is who is looking at the table.
type Viewer struct {
	ProfileID string
	Level     permission.Level
}

// Result is one rendered page.
type Result struct {
	Rows  []lead.Lead
	Page  listutil.PageInfo
	State State // the state actually served, with Page clamped
	// Failed is set when the store errored and the result was replaced by an empty page.
	Failed bool
}

// Controller loads pages of leads for one table.
// INVARIANT: at most one Load runs at a time; overlapping calls return ErrBusy.
type Controller struct {
	leads   LeadReader
	loading atomic.Bool

	// Observe, when set, is called once per Load with an Outcome* value.
	Observe func(outcome string)
}

// NewController creates a controller reading from leads.
func NewController(leads LeadReader) *Controller {
	return &Controller{leads: leads}
}

// Loading reports whether a load is in flight.
func (c *Controller) Loading() bool {
	return c.loading.Load()
}

// Filter builds the store filter for viewer and state, applying permission gating.
// Lead managers are always restricted to their own leads; super admins see
// everything unless they pick an assignee.
// POST: Returns ErrForbidden for levels that cannot view leads
func Filter(viewer Viewer, state State) (leadstore.ListFilter, error) {
	if !viewer.Level.CanViewLeads() {
		return leadstore.ListFilter{}, ErrForbidden
	}
	f := leadstore.ListFilter{
		Search:         state.Search,
		HideContacted:  state.HideContacted,
		HideAssigned:   state.HideAssigned,
		AssignedUserID: viewer.Level.LeadScope(viewer.ProfileID),
	}
	if f.AssignedUserID == nil && state.Assignee != "" {
		assignee := state.Assignee
		f.AssignedUserID = &assignee
	}
	return f, nil
}

// Load fetches the page described by state. The count is read first so a
// page past the end is clamped to the last page.
// Store errors are logged and turned into an empty, Failed result with a nil
// error; there is no retry.
// PRE: ctx is valid
// POST: len(Rows) <= Page.Size; Page.TotalPages == ceil(Page.Total / Page.Size)
func (c *Controller) Load(ctx context.Context, viewer Viewer, state State) (Result, error) {
	filter, err := Filter(viewer, state)
	if err != nil {
		return Result{}, err
	}
	if !c.loading.CompareAndSwap(false, true) {
		c.observe(OutcomeBusy)
		return Result{}, ErrBusy
	}
	defer c.loading.Store(false)

	state = state.WithPage(state.Page)
	state.Size = listutil.NormalizeSize(state.Size)

	total, err := c.leads.Count(ctx, filter)
	if err != nil {
		return c.failed(state, viewer, err), nil
	}
	info := listutil.NewPageInfo(state.Page, state.Size, total)
	state.Page = info.Page

	filter.Limit = info.Size
	filter.Offset = info.Offset()
	rows, err := c.leads.List(ctx, filter)
	if err != nil {
		return c.failed(state, viewer, err), nil
	}
	if len(rows) > info.Size {
		rows = rows[:info.Size]
	}

	c.observe(OutcomeOK)
	return Result{Rows: rows, Page: info, State: state}, nil
}

func (c *Controller) failed(state State, viewer Viewer, err error) Result {
	slog.Error("lead_page_failed",
		"profile_id", viewer.ProfileID,
		"level", int(viewer.Level),
		"page", state.Page,
		"size", state.Size,
		sl.Err(err),
	)
	c.observe(OutcomeError)
	state.Page = 1
	return Result{
		Rows:   []lead.Lead{},
		Page:   listutil.NewPageInfo(1, state.Size, 0),
		State:  state,
		Failed: true,
	}
}

func (c *Controller) observe(outcome string) {
	if c.Observe != nil {
		c.Observe(outcome)
	}
}
