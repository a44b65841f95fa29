// Package leadview holds the leads table state and the permission-gated
// page loader behind it.
package leadview

import (
	"net/url"
	"strconv"
	"strings"

	"outreach/internal/application/listutil"
)

// Query parameter names carrying State in the URL.
const (
	ParamPage          = "page"
	ParamSize          = "size"
	ParamSearch        = "q"
	ParamHideContacted = "hide_contacted"
	ParamHideAssigned  = "hide_assigned"
	ParamAssignee      = "assignee"
)

// State is what the leads table shows: a page of the filtered, searched rows.
// Any change other than moving between pages starts again at page 1.
type State struct {
	Page          int
	Size          int
	Search        string
	HideContacted bool
	HideAssigned  bool
	Assignee      string // super-admin filter; ignored for lead managers
}

// DefaultState is page 1 at the default size with no filters.
func DefaultState() State {
	return State{Page: 1, Size: listutil.DefaultPageSize}
}

// ParseState reads State from query values, normalising page and size.
// PRE: none
// POST: Page >= 1 and Size is an allowed page size
func ParseState(q url.Values) State {
	size, _ := strconv.Atoi(q.Get(ParamSize))
	return State{
		Page:          listutil.NormalizePage(q.Get(ParamPage)),
		Size:          listutil.NormalizeSize(size),
		Search:        strings.TrimSpace(q.Get(ParamSearch)),
		HideContacted: parseBool(q.Get(ParamHideContacted)),
		HideAssigned:  parseBool(q.Get(ParamHideAssigned)),
		Assignee:      strings.TrimSpace(q.Get(ParamAssignee)),
	}
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b || s == "on"
}

// Values encodes the state, omitting defaults.
func (s State) Values() url.Values {
	q := url.Values{}
	if s.Page > 1 {
		q.Set(ParamPage, strconv.Itoa(s.Page))
	}
	if s.Size != listutil.DefaultPageSize && s.Size != 0 {
		q.Set(ParamSize, strconv.Itoa(s.Size))
	}
	if s.Search != "" {
		q.Set(ParamSearch, s.Search)
	}
	if s.HideContacted {
		q.Set(ParamHideContacted, "1")
	}
	if s.HideAssigned {
		q.Set(ParamHideAssigned, "1")
	}
	if s.Assignee != "" {
		q.Set(ParamAssignee, s.Assignee)
	}
	return q
}

// Query returns the encoded query string with a leading "?", or "" for the default state.
func (s State) Query() string {
	enc := s.Values().Encode()
	if enc == "" {
		return ""
	}
	return "?" + enc
}

// WithPage moves to page n (at least 1). Filters are kept.
func (s State) WithPage(n int) State {
	s.Page = max(n, 1)
	return s
}

// WithSize changes the page size and resets to page 1.
func (s State) WithSize(size int) State {
	s.Size = listutil.NormalizeSize(size)
	s.Page = 1
	return s
}

// WithSearch changes the search string and resets to page 1.
func (s State) WithSearch(q string) State {
	s.Search = strings.TrimSpace(q)
	s.Page = 1
	return s
}

// ToggleHideContacted flips the hide-contacted filter and resets to page 1.
func (s State) ToggleHideContacted() State {
	s.HideContacted = !s.HideContacted
	s.Page = 1
	return s
}

// ToggleHideAssigned flips the hide-assigned filter and resets to page 1.
func (s State) ToggleHideAssigned() State {
	s.HideAssigned = !s.HideAssigned
	s.Page = 1
	return s
}

// WithAssignee filters by assignee ("" clears) and resets to page 1.
func (s State) WithAssignee(profileID string) State {
	s.Assignee = strings.TrimSpace(profileID)
	s.Page = 1
	return s
}
