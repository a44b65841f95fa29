package web

import (
	"net/http"
	"strconv"
	"time"

	"outreach/internal/application/orchestrators"
	"outreach/internal/application/projections"
	"outreach/internal/domain/permission"
)

// handleDashboard shows what the viewer's level allows. A Regular profile
// sees only a note that an administrator has to grant access.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	res, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardQuery{
		ProfileID: sess.ProfileID,
		Level:     sess.Level,
		Now:       timeNow().UTC(),
	}, projections.GetDashboardDeps{
		EventStore:       stores.EventStore,
		AttendeeStore:    stores.AttendeeStore,
		LeadSummaryStore: stores.LeadStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, res)
		return
	}
	renderTemplate(w, r, "dashboard.html", res)
}

func usersDeps() projections.GetUsersDeps {
	return projections.GetUsersDeps{ProfileStore: stores.ProfileStore, PermissionStore: stores.PermissionStore}
}

type usersPage struct {
	Result projections.GetUsersResult
	Search string
	Error  string
	Notice string
}

func handleUsers(w http.ResponseWriter, r *http.Request) {
	renderUsers(w, r, http.StatusOK, "", r.URL.Query().Get("notice"))
}

func renderUsers(w http.ResponseWriter, r *http.Request, status int, errMsg, notice string) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	res, err := projections.QueryGetUsers(r.Context(), projections.GetUsersQuery{
		Search: q.Get("q"),
		Page:   page,
		Size:   size,
	}, usersDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, res)
		return
	}
	renderTemplateStatus(w, r, status, "users.html", usersPage{Result: res, Search: q.Get("q"), Error: errMsg, Notice: notice})
}

type createUserBody struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Level    int    `json:"level"`
}

// handleUserCreate adds a staff profile with an initial level.
func handleUserCreate(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	var body createUserBody
	jsonReq := isJSONBody(r)
	if jsonReq {
		body.Level = int(permission.Regular)
		if err := strictDecode(r, &body); err != nil {
			clientError(w, http.StatusBadRequest, "invalid request")
			return
		}
	} else {
		if err := formValues(w, r); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		level, err := permission.Parse(r.FormValue("level"))
		if err != nil {
			renderUsers(w, r, http.StatusUnprocessableEntity, err.Error(), "")
			return
		}
		body = createUserBody{
			Email:    r.FormValue("email"),
			FullName: r.FormValue("full_name"),
			Password: r.FormValue("password"),
			Level:    int(level),
		}
	}
	level := permission.Level(body.Level)
	if !level.Valid() {
		respondError(w, permission.ErrInvalidLevel)
		return
	}

	p, err := orchestrators.ExecuteCreateProfile(r.Context(), orchestrators.CreateProfileInput{
		Email:     body.Email,
		FullName:  body.FullName,
		Password:  body.Password,
		Level:     level,
		CreatedBy: sess.ProfileID,
	}, orchestrators.CreateProfileDeps{
		Profiles:    stores.ProfileStore,
		Permissions: stores.PermissionStore,
		Now:         timeNow,
	})
	if jsonReq || !isHTMLRequest(r) {
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": p.ID, "email": p.Email, "level": int(level)})
		return
	}
	if err != nil {
		status, known := statusFor(err)
		if !known {
			internalError(w, err)
			return
		}
		renderUsers(w, r, status, err.Error(), "")
		return
	}
	http.Redirect(w, r, "/admin/users?notice=created", http.StatusSeeOther)
}

// handleUserPermission changes a profile's level.
func handleUserPermission(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	var raw string
	jsonReq := isJSONBody(r)
	if jsonReq {
		var body struct {
			Level *int `json:"level"`
		}
		if err := strictDecode(r, &body); err != nil || body.Level == nil {
			clientError(w, http.StatusBadRequest, "level is required")
			return
		}
		raw = strconv.Itoa(*body.Level)
	} else {
		if err := formValues(w, r); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		raw = r.FormValue("level")
	}

	level, err := permission.Parse(raw)
	if err == nil {
		err = orchestrators.ExecuteSetPermission(r.Context(), orchestrators.SetPermissionInput{
			ActorID:       sess.ProfileID,
			ActorLevel:    sess.Level,
			TargetProfile: r.PathValue("id"),
			Level:         level,
		}, orchestrators.SetPermissionDeps{
			Profiles:    stores.ProfileStore,
			Permissions: stores.PermissionStore,
			Now:         timeNow,
		})
	}
	if jsonReq || !isHTMLRequest(r) {
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "level": int(level)})
		return
	}
	if err != nil {
		status, known := statusFor(err)
		if !known {
			internalError(w, err)
			return
		}
		renderUsers(w, r, status, err.Error(), "")
		return
	}
	http.Redirect(w, r, "/admin/users?notice=updated", http.StatusSeeOther)
}

// handlePerf summarizes recent request and query latency.
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if opts.Collector == nil {
		http.Error(w, "Performance collection is disabled", http.StatusNotFound)
		return
	}
	window := 15 * time.Minute
	if d, err := time.ParseDuration(r.URL.Query().Get("window")); err == nil && d > 0 {
		window = d
	}
	snap := opts.Collector.Snapshot(timeNow().Add(-window), 10)
	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, snap)
		return
	}
	renderTemplate(w, r, "perf.html", map[string]any{
		"Snapshot": snap,
		"Window":   window.String(),
		"Total":    opts.Collector.TotalRecorded(),
	})
}
