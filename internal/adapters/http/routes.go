package web

import (
	"net/http"

	"outreach/internal/adapters/http/middleware"
	"outreach/internal/domain/permission"
)

func registerRoutes(mux *http.ServeMux) {
	superAdmin := middleware.RequireLevel(permission.SuperAdmin)
	leadViewer := middleware.RequireLevel(permission.LeadManager)
	signedIn := middleware.RequireAuth

	// Public
	mux.HandleFunc("GET /{$}", handleHome)
	mux.HandleFunc("GET /events/{id}", handlePublicEvent)
	mux.HandleFunc("POST /events/{id}/register", handleRegister)
	mux.HandleFunc("GET /saved", handleSavedForm)
	mux.HandleFunc("POST /saved", handleSavedSubmit)
	mux.HandleFunc("GET /thanks", handleThanks)
	mux.HandleFunc("GET /healthz", handleHealth)

	// Auth
	mux.HandleFunc("GET /login", handleLoginForm)
	mux.HandleFunc("POST /login", handleLogin)
	mux.HandleFunc("POST /logout", handleLogout)
	mux.HandleFunc("GET /signup", handleSignupForm)
	mux.HandleFunc("POST /signup", handleSignup)
	mux.HandleFunc("POST /api/auth/token", handleIssueToken)

	// Admin: any signed-in profile
	mux.Handle("GET /admin", signedIn(http.HandlerFunc(handleDashboard)))

	// Leads
	mux.Handle("GET /admin/leads", leadViewer(http.HandlerFunc(handleLeads)))
	mux.Handle("GET /admin/leads/stream", leadViewer(http.HandlerFunc(handleLeadStream)))
	mux.Handle("POST /admin/leads/{id}/contacted", leadViewer(http.HandlerFunc(handleLeadContacted)))
	mux.Handle("POST /admin/leads/{id}/assign", superAdmin(http.HandlerFunc(handleLeadAssign)))
	mux.Handle("POST /admin/leads/{id}/delete", superAdmin(http.HandlerFunc(handleLeadDelete)))

	// Events
	mux.Handle("GET /admin/events", superAdmin(http.HandlerFunc(handleAdminEvents)))
	mux.Handle("GET /admin/events/new", superAdmin(http.HandlerFunc(handleEventNew)))
	mux.Handle("POST /admin/events", superAdmin(http.HandlerFunc(handleEventSave)))
	mux.Handle("GET /admin/events/{id}/edit", superAdmin(http.HandlerFunc(handleEventEdit)))
	mux.Handle("POST /admin/events/{id}", superAdmin(http.HandlerFunc(handleEventSave)))
	mux.Handle("POST /admin/events/{id}/delete", superAdmin(http.HandlerFunc(handleEventDelete)))
	mux.Handle("GET /admin/events/{id}/attendees", superAdmin(http.HandlerFunc(handleEventAttendees)))
	mux.Handle("GET /admin/events/{id}/attendees.csv", superAdmin(http.HandlerFunc(handleEventAttendeesCSV)))

	// Users
	mux.Handle("GET /admin/users", superAdmin(http.HandlerFunc(handleUsers)))
	mux.Handle("POST /admin/users", superAdmin(http.HandlerFunc(handleUserCreate)))
	mux.Handle("POST /admin/users/{id}/permission", superAdmin(http.HandlerFunc(handleUserPermission)))

	// Ops
	mux.Handle("GET /admin/perf", superAdmin(http.HandlerFunc(handlePerf)))
}
