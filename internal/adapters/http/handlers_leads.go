package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"outreach/internal/adapters/realtime"
	"outreach/internal/application/leadview"
	"outreach/internal/application/orchestrators"
	"outreach/internal/application/projections"
)

// newLeadController returns a controller for one client view, reporting to metrics.
func newLeadController() *leadview.Controller {
	c := leadview.NewController(stores.LeadStore)
	if opts.Metrics != nil {
		c.Observe = func(outcome string) {
			opts.Metrics.LeadPageLoads.WithLabelValues(outcome).Inc()
		}
	}
	return c
}

func viewerOf(r *http.Request) leadview.Viewer {
	sess := currentSession(r)
	return leadview.Viewer{ProfileID: sess.ProfileID, Level: sess.Level}
}

type leadsPage struct {
	Result    leadview.Result
	State     leadview.State
	Assignees []projections.UserRow
	Names     map[string]string
	CanAssign bool
}

func loadLeadsPage(ctx context.Context, c *leadview.Controller, viewer leadview.Viewer, state leadview.State) (leadsPage, error) {
	res, err := c.Load(ctx, viewer, state)
	if err != nil {
		return leadsPage{}, err
	}
	page := leadsPage{Result: res, State: res.State, CanAssign: viewer.Level.CanAssignLeads(), Names: map[string]string{}}
	if page.CanAssign {
		assignees, err := projections.QueryAssignees(ctx, projections.GetUsersDeps{ProfileStore: stores.ProfileStore, PermissionStore: stores.PermissionStore})
		if err != nil {
			slog.Error("assignees_failed", "error", err)
		}
		page.Assignees = assignees
		for _, a := range assignees {
			page.Names[a.Profile.ID] = a.Profile.DisplayName()
		}
	}
	return page, nil
}

// handleLeads renders one page of leads for the viewer.
// Store failures render an empty table with a notice rather than an error page.
func handleLeads(w http.ResponseWriter, r *http.Request) {
	state := leadview.ParseState(r.URL.Query())
	page, err := loadLeadsPage(r.Context(), newLeadController(), viewerOf(r), state)
	if err != nil {
		if errors.Is(err, leadview.ErrForbidden) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		internalError(w, err)
		return
	}
	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"rows":        page.Result.Rows,
			"page":        page.Result.Page.Page,
			"size":        page.Result.Page.Size,
			"total":       page.Result.Page.Total,
			"total_pages": page.Result.Page.TotalPages,
			"failed":      page.Result.Failed,
		})
		return
	}
	renderTemplate(w, r, "leads.html", page)
}

// handleLeadStream pushes a fresh copy of the viewer's current page whenever
// leads change, debounced. Each connection owns one controller, so a re-fetch
// never overlaps another for the same view.
func handleLeadStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.Error("stream_unsupported", "error", err)
		return
	}

	ctx := r.Context()
	viewer := viewerOf(r)
	state := leadview.ParseState(r.URL.Query())
	controller := newLeadController()

	changes, cancel := opts.Hub.Subscribe(realtime.TableLead)
	defer cancel()
	if opts.Metrics != nil {
		opts.Metrics.StreamClients.Inc()
		defer opts.Metrics.StreamClients.Dec()
	}

	push := func() {
		page, err := loadLeadsPage(ctx, controller, viewer, state)
		if err != nil {
			// Debounce runs push serially, so ErrBusy only appears if a push is
			// ever triggered from outside that loop. Skip it; the next change re-fetches.
			if !errors.Is(err, leadview.ErrBusy) {
				slog.Warn("stream_refresh_failed", "error", err)
			}
			return
		}
		payload, err := leadRowsPayload(r, page)
		if err != nil {
			slog.Error("stream_render_failed", "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "event: leads\ndata: %s\n\n", payload); err != nil {
			return
		}
		rc.Flush()
	}

	fmt.Fprint(w, ": connected\n\n")
	rc.Flush()
	realtime.Debounce(ctx, changes, opts.Debounce, push)
}

// leadRowsPayload renders the table body and pager as one JSON line for SSE.
func leadRowsPayload(r *http.Request, page leadsPage) ([]byte, error) {
	tpl, err := loadTemplate("leads.html")
	if err != nil {
		return nil, err
	}
	bindRequest(tpl, r)
	var rows, pager bytes.Buffer
	if err := tpl.ExecuteTemplate(&rows, "lead_rows", page); err != nil {
		return nil, err
	}
	if err := tpl.ExecuteTemplate(&pager, "lead_pager", page); err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{
		"rows":  rows.String(),
		"pager": pager.String(),
		"total": page.Result.Page.Total,
	})
}

func leadWorkflowDeps() orchestrators.LeadWorkflowDeps {
	return orchestrators.LeadWorkflowDeps{
		Leads:       stores.LeadStore,
		Profiles:    stores.ProfileStore,
		Permissions: stores.PermissionStore,
		Publisher:   opts.Publisher,
		Mailer:      opts.Mailer,
		BaseURL:     opts.BaseURL,
		Now:         timeNow,
	}
}

func actorOf(r *http.Request) orchestrators.Actor {
	sess := currentSession(r)
	return orchestrators.Actor{ProfileID: sess.ProfileID, Level: sess.Level}
}

// backToLeads redirects to the list the action was taken from.
func backToLeads(w http.ResponseWriter, r *http.Request) {
	target := "/admin/leads"
	if q := r.FormValue("return"); q != "" {
		if values, err := url.ParseQuery(q); err == nil {
			target += leadview.ParseState(values).Query()
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func leadActionDone(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		if !isHTMLRequest(r) {
			respondError(w, err)
			return
		}
		status, known := statusFor(err)
		if !known {
			internalError(w, err)
			return
		}
		http.Error(w, err.Error(), status)
		return
	}
	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, v)
		return
	}
	backToLeads(w, r)
}

// handleLeadContacted sets or clears the contacted flag.
func handleLeadContacted(w http.ResponseWriter, r *http.Request) {
	contacted, err := boolParam(w, r, "contacted")
	if err != nil {
		clientError(w, http.StatusBadRequest, err.Error())
		return
	}
	l, err := orchestrators.ExecuteMarkContacted(r.Context(), actorOf(r), r.PathValue("id"), contacted, leadWorkflowDeps())
	leadActionDone(w, r, l, err)
}

// handleLeadAssign assigns or unassigns a lead.
func handleLeadAssign(w http.ResponseWriter, r *http.Request) {
	var assignee string
	if isJSONBody(r) {
		var body struct {
			AssigneeID string `json:"assignee_id"`
		}
		if err := strictDecode(r, &body); err != nil {
			clientError(w, http.StatusBadRequest, "invalid request")
			return
		}
		assignee = body.AssigneeID
	} else {
		if err := formValues(w, r); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		assignee = r.FormValue("assignee_id")
	}
	l, err := orchestrators.ExecuteAssignLead(r.Context(), actorOf(r), r.PathValue("id"), assignee, leadWorkflowDeps())
	leadActionDone(w, r, l, err)
}

// handleLeadDelete removes a lead.
func handleLeadDelete(w http.ResponseWriter, r *http.Request) {
	if !isJSONBody(r) {
		if err := formValues(w, r); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
	}
	id := r.PathValue("id")
	err := orchestrators.ExecuteDeleteLead(r.Context(), actorOf(r), id, leadWorkflowDeps())
	leadActionDone(w, r, map[string]string{"deleted": id}, err)
}

// boolParam reads a boolean from a JSON body {"<name>": bool} or a form field.
func boolParam(w http.ResponseWriter, r *http.Request, name string) (bool, error) {
	if isJSONBody(r) {
		var body map[string]bool
		if err := strictDecode(r, &body); err != nil {
			return false, errors.New("invalid request")
		}
		v, ok := body[name]
		if !ok {
			return false, fmt.Errorf("%s is required", name)
		}
		return v, nil
	}
	if err := formValues(w, r); err != nil {
		return false, errors.New("invalid form submission")
	}
	v, err := strconv.ParseBool(r.FormValue(name))
	if err != nil {
		return false, fmt.Errorf("%s must be true or false", name)
	}
	return v, nil
}
