package web

import (
	"fmt"
	"net/http"
	"strconv"

	eventStore "outreach/internal/adapters/storage/event"
	"outreach/internal/application/orchestrators"
	"outreach/internal/application/projections"
	"outreach/internal/domain/event"
)

func eventDeps() projections.GetEventAttendeesDeps {
	return projections.GetEventAttendeesDeps{EventStore: stores.EventStore, AttendeeStore: stores.AttendeeStore}
}

// eventForm is the data behind event_form.html.
type eventForm struct {
	ID          string
	Title       string
	Description string
	Location    string
	Schedule    event.LocalSchedule
	Zone        string
	Error       string
}

type eventBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	StartTime   string `json:"start_time"`
	EndDate     string `json:"end_date"`
	EndTime     string `json:"end_time"`
}

// handleAdminEvents lists events. ?when=past shows finished events, ?when=all everything.
func handleAdminEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	when := eventStore.Upcoming
	switch q.Get("when") {
	case "past":
		when = eventStore.Past
	case "all":
		when = eventStore.All
	}
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	res, err := projections.QueryGetEventList(r.Context(), projections.GetEventListQuery{
		When: when,
		Now:  timeNow().UTC(),
		Page: page,
		Size: size,
	}, projections.GetEventListDeps{EventStore: stores.EventStore, AttendeeStore: stores.AttendeeStore})
	if err != nil {
		internalError(w, err)
		return
	}
	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, res)
		return
	}
	renderTemplate(w, r, "events.html", map[string]any{
		"Result": res,
		"When":   q.Get("when"),
	})
}

func handleEventNew(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "event_form.html", eventForm{Zone: opts.Location.String()})
}

func handleEventEdit(w http.ResponseWriter, r *http.Request) {
	e, err := stores.EventStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if status, known := statusFor(err); known {
			http.Error(w, "Event not found", status)
			return
		}
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "event_form.html", eventForm{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Schedule:    event.LocalScheduleOf(e, opts.Location),
		Zone:        opts.Location.String(),
	})
}

// handleEventSave creates an event (POST /admin/events) or updates one
// (POST /admin/events/{id}). Times are read in the configured zone.
func handleEventSave(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	input := orchestrators.SaveEventInput{
		ID:         r.PathValue("id"),
		ActorID:    sess.ProfileID,
		ActorLevel: sess.Level,
	}
	jsonReq := isJSONBody(r)
	if jsonReq {
		var body eventBody
		if err := strictDecode(r, &body); err != nil {
			clientError(w, http.StatusBadRequest, "invalid request")
			return
		}
		input.Title, input.Description, input.Location = body.Title, body.Description, body.Location
		input.Schedule = event.LocalSchedule{StartDate: body.StartDate, StartTime: body.StartTime, EndDate: body.EndDate, EndTime: body.EndTime}
	} else {
		if err := formValues(w, r); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input.Title = r.FormValue("title")
		input.Description = r.FormValue("description")
		input.Location = r.FormValue("location")
		input.Schedule = localSchedule(r)
	}

	saved, err := orchestrators.ExecuteSaveEvent(r.Context(), input, orchestrators.SaveEventDeps{
		Events:    stores.EventStore,
		Publisher: opts.Publisher,
		Location:  opts.Location,
		Now:       timeNow,
	})
	if jsonReq || !isHTMLRequest(r) {
		if err != nil {
			respondError(w, err)
			return
		}
		status := http.StatusOK
		if input.ID == "" {
			status = http.StatusCreated
		}
		writeJSON(w, status, saved)
		return
	}
	if err != nil {
		status, known := statusFor(err)
		if !known {
			internalError(w, err)
			return
		}
		renderTemplateStatus(w, r, status, "event_form.html", eventForm{
			ID:          input.ID,
			Title:       input.Title,
			Description: input.Description,
			Location:    input.Location,
			Schedule:    input.Schedule,
			Zone:        opts.Location.String(),
			Error:       err.Error(),
		})
		return
	}
	http.Redirect(w, r, "/admin/events", http.StatusSeeOther)
}

func handleEventDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := orchestrators.ExecuteDeleteEvent(r.Context(), currentSession(r).Level, id, orchestrators.DeleteEventDeps{
		Events:    stores.EventStore,
		Publisher: opts.Publisher,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
		return
	}
	http.Redirect(w, r, "/admin/events", http.StatusSeeOther)
}

func handleEventAttendees(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetEventAttendees(r.Context(), r.PathValue("id"), eventDeps())
	if err != nil {
		respondError(w, err)
		return
	}
	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, res)
		return
	}
	renderTemplate(w, r, "attendees.html", res)
}

// handleEventAttendeesCSV downloads the attendee list as a spreadsheet.
func handleEventAttendeesCSV(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetEventAttendees(r.Context(), r.PathValue("id"), eventDeps())
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "attendees-"+res.Event.ID+".csv"))
	if err := projections.WriteAttendeesCSV(w, res.Attendees, opts.Location); err != nil {
		internalError(w, err)
	}
}
