package web

import (
	"net/http"
	"strconv"
	"strings"

	"outreach/internal/application/orchestrators"
	"outreach/internal/application/projections"
	"outreach/internal/domain/lead"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// handleHome lists upcoming events.
func handleHome(w http.ResponseWriter, r *http.Request) {
	events, err := projections.QueryUpcomingEvents(r.Context(), timeNow().UTC(), stores.EventStore)
	if err != nil {
		internalError(w, err)
		return
	}
	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, events)
		return
	}
	renderTemplate(w, r, "home.html", map[string]any{"Events": events})
}

func publicEventDeps() projections.GetEventAttendeesDeps {
	return projections.GetEventAttendeesDeps{EventStore: stores.EventStore, AttendeeStore: stores.AttendeeStore}
}

// handlePublicEvent shows event details and the registration form.
func handlePublicEvent(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetPublicEvent(r.Context(), r.PathValue("id"), timeNow().UTC(), publicEventDeps())
	if err != nil {
		if status, known := statusFor(err); known && status == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, res)
		return
	}
	renderTemplate(w, r, "event.html", map[string]any{"Event": res.Event, "Open": res.Open, "Headcount": res.Headcount})
}

// handleRegister accepts the public registration form (urlencoded or JSON).
func handleRegister(w http.ResponseWriter, r *http.Request) {
	input := orchestrators.RegisterAttendeeInput{}
	if isJSONBody(r) {
		if err := strictDecode(r, &input); err != nil {
			clientError(w, http.StatusBadRequest, "invalid request")
			return
		}
	} else {
		if err := formValues(w, r); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input.FirstName = r.FormValue("first_name")
		input.LastName = r.FormValue("last_name")
		input.Email = r.FormValue("email")
		input.Phone = r.FormValue("phone")
		input.Guests, _ = strconv.Atoi(strings.TrimSpace(r.FormValue("guests")))
	}
	input.EventID = r.PathValue("id")

	a, err := orchestrators.ExecuteRegisterAttendee(r.Context(), input, orchestrators.RegisterAttendeeDeps{
		Events:    stores.EventStore,
		Attendees: stores.AttendeeStore,
		Publisher: opts.Publisher,
		Mailer:    opts.Mailer,
		BaseURL:   opts.BaseURL,
		Location:  opts.Location,
		Now:       timeNow,
	})
	if opts.Metrics != nil && err == nil {
		opts.Metrics.Registrations.Inc()
	}
	if !isHTMLRequest(r) {
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
		return
	}
	if err != nil {
		status, known := statusFor(err)
		if !known {
			internalError(w, err)
			return
		}
		res, qerr := projections.QueryGetPublicEvent(r.Context(), input.EventID, timeNow().UTC(), publicEventDeps())
		if qerr != nil {
			http.Error(w, err.Error(), status)
			return
		}
		renderTemplateStatus(w, r, status, "event.html", map[string]any{
			"Event": res.Event, "Open": res.Open, "Headcount": res.Headcount,
			"Error": err.Error(), "Form": input,
		})
		return
	}
	http.Redirect(w, r, "/thanks?kind=registered&event="+input.EventID, http.StatusSeeOther)
}

// handleSavedForm shows the saved (decision) form.
func handleSavedForm(w http.ResponseWriter, r *http.Request) {
	events, err := projections.QueryUpcomingEvents(r.Context(), timeNow().UTC(), stores.EventStore)
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "saved.html", map[string]any{
		"Events":    events,
		"Decisions": lead.ValidDecisions,
		"Labels":    lead.DecisionLabels,
		"Form":      orchestrators.SubmitLeadInput{EventID: r.URL.Query().Get("event")},
	})
}

// handleSavedSubmit records a saved-form submission as a lead.
func handleSavedSubmit(w http.ResponseWriter, r *http.Request) {
	input := orchestrators.SubmitLeadInput{}
	if isJSONBody(r) {
		if err := strictDecode(r, &input); err != nil {
			clientError(w, http.StatusBadRequest, "invalid request")
			return
		}
	} else {
		if err := formValues(w, r); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input.FirstName = r.FormValue("first_name")
		input.LastName = r.FormValue("last_name")
		input.Email = r.FormValue("email")
		input.Phone = r.FormValue("phone")
		input.Decision = r.FormValue("decision")
		input.Notes = r.FormValue("notes")
		input.EventID = r.FormValue("event_id")
	}

	l, err := orchestrators.ExecuteSubmitLead(r.Context(), input, orchestrators.SubmitLeadDeps{
		Leads:     stores.LeadStore,
		Events:    stores.EventStore,
		Publisher: opts.Publisher,
		Now:       timeNow,
	})
	if opts.Metrics != nil && err == nil {
		opts.Metrics.LeadsSubmitted.Inc()
	}
	if !isHTMLRequest(r) {
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
		return
	}
	if err != nil {
		status, known := statusFor(err)
		if !known {
			internalError(w, err)
			return
		}
		events, qerr := projections.QueryUpcomingEvents(r.Context(), timeNow().UTC(), stores.EventStore)
		if qerr != nil {
			internalError(w, qerr)
			return
		}
		renderTemplateStatus(w, r, status, "saved.html", map[string]any{
			"Events":    events,
			"Decisions": lead.ValidDecisions,
			"Labels":    lead.DecisionLabels,
			"Form":      input,
			"Error":     err.Error(),
		})
		return
	}
	http.Redirect(w, r, "/thanks?kind=saved", http.StatusSeeOther)
}

func handleThanks(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "thanks.html", map[string]any{
		"Kind":    r.URL.Query().Get("kind"),
		"EventID": r.URL.Query().Get("event"),
	})
}
