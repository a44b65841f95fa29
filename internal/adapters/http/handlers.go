package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"outreach/internal/adapters/http/middleware"
	attendeeStore "outreach/internal/adapters/storage/attendee"
	eventStore "outreach/internal/adapters/storage/event"
	leadStore "outreach/internal/adapters/storage/lead"
	permissionStore "outreach/internal/adapters/storage/permission"
	profileStore "outreach/internal/adapters/storage/profile"
	"outreach/internal/application/leadview"
	"outreach/internal/application/listutil"
	"outreach/internal/application/orchestrators"
	"outreach/internal/domain/attendee"
	"outreach/internal/domain/event"
	"outreach/internal/domain/lead"
	"outreach/internal/domain/permission"
	"outreach/internal/domain/profile"
)

//go:embed templates/*.html
var templateFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return false
	}
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml") || strings.Contains(accept, "*/*")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err)
	}
}

// clientError reports a user-facing error: validation, not found, forbidden.
func clientError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var notFoundErrors = []error{
	profileStore.ErrNotFound,
	permissionStore.ErrNotFound,
	eventStore.ErrNotFound,
	attendeeStore.ErrNotFound,
	leadStore.ErrNotFound,
}

var conflictErrors = []error{
	attendee.ErrAlreadyRegistered,
	orchestrators.ErrEmailTaken,
	event.ErrRegistrationsClosed,
}

var forbiddenErrors = []error{
	orchestrators.ErrForbidden,
	permission.ErrDemoteSelf,
	lead.ErrNotAssignedToYou,
}

var validationErrors = []error{
	orchestrators.ErrAssigneeNotEligible,
	permission.ErrInvalidLevel,
	event.ErrInvalidSchedule,
	event.ErrEmptyTitle, event.ErrTitleTooLong, event.ErrLocationTooLong, event.ErrDescriptionTooLong,
	event.ErrMissingStart, event.ErrEndNotAfterStart,
	attendee.ErrInvalidEmail, attendee.ErrInvalidGuests, attendee.ErrEmptyFirstName, attendee.ErrEmptyLastName,
	lead.ErrNoContactMethod, lead.ErrInvalidDecision, lead.ErrInvalidEmail,
	profile.ErrInvalidEmail, profile.ErrPasswordTooShort, profile.ErrEmptyPassword,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// statusFor maps domain and orchestrator errors to HTTP status codes.
// The bool is false for unknown errors, which are internal.
func statusFor(err error) (int, bool) {
	var ie *orchestrators.InputError
	switch {
	case errors.As(err, &ie), isAny(err, validationErrors):
		return http.StatusUnprocessableEntity, true
	case isAny(err, forbiddenErrors):
		return http.StatusForbidden, true
	case isAny(err, notFoundErrors):
		return http.StatusNotFound, true
	case isAny(err, conflictErrors):
		return http.StatusConflict, true
	}
	return http.StatusInternalServerError, false
}

// respondError writes err as a JSON error body; unknown errors become a generic 500.
func respondError(w http.ResponseWriter, err error) {
	status, known := statusFor(err)
	if !known {
		internalError(w, err)
		return
	}
	clientError(w, status, err.Error())
}

func currentSession(r *http.Request) middleware.Session {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return sess
}

var (
	templateMu    sync.Mutex
	templateCache = map[string]*template.Template{}
)

func loadTemplate(name string) (*template.Template, error) {
	templateMu.Lock()
	defer templateMu.Unlock()
	if tpl, ok := templateCache[name]; ok {
		return tpl.Clone()
	}
	tpl, err := template.New("layout.html").Funcs(baseFuncs()).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
	if err != nil {
		return nil, err
	}
	templateCache[name] = tpl
	return tpl.Clone()
}

// baseFuncs declares every template function; request-bound ones are rebound per render.
func baseFuncs() template.FuncMap {
	return template.FuncMap{
		"currentEmail":   func() string { return "" },
		"currentLevel":   func() permission.Level { return permission.Regular },
		"isLoggedIn":     func() bool { return false },
		"canViewLeads":   func() bool { return false },
		"isSuperAdmin":   func() bool { return false },
		"csrfToken":      func() string { return "" },
		"renderMarkdown": renderMarkdown,
		"localDate":      func(t time.Time) string { return t.In(opts.Location).Format("Mon 2 Jan 2006") },
		"localTime":      func(t time.Time) string { return t.In(opts.Location).Format("3:04 PM") },
		"localStamp":     func(t time.Time) string { return formatStamp(t) },
		"add":            func(a, b int) int { return a + b },
		"sub":            func(a, b int) int { return a - b },
		"levels":         func() []permission.Level { return permission.ValidLevels },
		"pageSizes":      func() []int { return listutil.PageSizes },
		"leadsHref":      func(s leadview.State) string { return "/admin/leads" + s.Query() },
	}
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(opts.Location).Format("2006-01-02 15:04")
}

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	tpl, err := loadTemplate(templateName)
	if err != nil {
		internalError(w, err)
		return
	}
	bindRequest(tpl, r)

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// bindRequest rebinds the session and CSRF template funcs to r.
func bindRequest(tpl *template.Template, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	tpl.Funcs(template.FuncMap{
		"currentEmail": func() string { return sess.Email },
		"currentLevel": func() permission.Level { return sess.Level },
		"isLoggedIn":   func() bool { return ok },
		"canViewLeads": func() bool { return ok && sess.Level.CanViewLeads() },
		"isSuperAdmin": func() bool { return ok && sess.Level == permission.SuperAdmin },
		"csrfToken":    func() string { return csrf.Token(r) },
	})
}

// formValues parses a urlencoded body, capped at 1 MiB.
func formValues(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	return r.ParseForm()
}

// localSchedule reads the four schedule fields of the admin event form.
func localSchedule(r *http.Request) event.LocalSchedule {
	return event.LocalSchedule{
		StartDate: r.FormValue("start_date"),
		StartTime: r.FormValue("start_time"),
		EndDate:   r.FormValue("end_date"),
		EndTime:   r.FormValue("end_time"),
	}
}
