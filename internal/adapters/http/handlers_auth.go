package web

import (
	"errors"
	"log/slog"
	"net/http"

	"outreach/internal/adapters/http/middleware"
	"outreach/internal/application/orchestrators"
)

func loginDeps() orchestrators.LoginDeps {
	return orchestrators.LoginDeps{
		Profiles:    stores.ProfileStore,
		Permissions: stores.PermissionStore,
		Now:         timeNow,
	}
}

func observeLogin(outcome string) {
	if opts.Metrics != nil {
		opts.Metrics.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, orchestrators.ErrProfileLocked):
		return "locked"
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		return "invalid"
	}
	return "error"
}

func handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "login.html", nil)
}

// handleLogin authenticates via form or JSON and starts a cookie session.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.LoginInput
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
		input.Email = r.FormValue("email")
		input.Password = r.FormValue("password")
	}

	res, err := orchestrators.ExecuteLogin(r.Context(), input, loginDeps())
	observeLogin(loginOutcome(err))
	if err != nil {
		if !errors.Is(err, orchestrators.ErrInvalidCredentials) && !errors.Is(err, orchestrators.ErrProfileLocked) {
			internalError(w, err)
			return
		}
		if !isHTMLRequest(r) {
			clientError(w, http.StatusUnauthorized, err.Error())
			return
		}
		renderTemplateStatus(w, r, http.StatusUnauthorized, "login.html", map[string]any{"Error": err.Error(), "Email": input.Email})
		return
	}

	token, err := opts.Sessions.Create(r.Context(), res.ProfileID, res.Email)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token, opts.SessionTTL)

	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, map[string]any{"profile_id": res.ProfileID, "email": res.Email, "level": int(res.Level)})
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		opts.Sessions.Delete(r.Context(), token)
	}
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		slog.Info("auth_event", "event", "logout", "email", sess.Email)
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func handleSignupForm(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "signup.html", nil)
}

// handleSignup creates a Regular profile and signs it in.
func handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := formValues(w, r); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	email, name, password := r.FormValue("email"), r.FormValue("full_name"), r.FormValue("password")

	p, err := orchestrators.ExecuteSignup(r.Context(), email, name, password, orchestrators.CreateProfileDeps{
		Profiles:    stores.ProfileStore,
		Permissions: stores.PermissionStore,
		Now:         timeNow,
	})
	if err != nil {
		status, known := statusFor(err)
		if !known {
			internalError(w, err)
			return
		}
		renderTemplateStatus(w, r, status, "signup.html", map[string]any{"Error": err.Error(), "Email": email, "FullName": name})
		return
	}

	token, err := opts.Sessions.Create(r.Context(), p.ID, p.Email)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token, opts.SessionTTL)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	Level     int    `json:"level"`
}

// handleIssueToken exchanges credentials for a bearer token.
func handleIssueToken(w http.ResponseWriter, r *http.Request) {
	if opts.Tokens == nil {
		clientError(w, http.StatusNotFound, "token issuing is disabled")
		return
	}
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := strictDecode(r, &body); err != nil {
		clientError(w, http.StatusBadRequest, "invalid request")
		return
	}
	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{Email: body.Email, Password: body.Password}, loginDeps())
	observeLogin(loginOutcome(err))
	if err != nil {
		if errors.Is(err, orchestrators.ErrInvalidCredentials) || errors.Is(err, orchestrators.ErrProfileLocked) {
			clientError(w, http.StatusUnauthorized, err.Error())
			return
		}
		internalError(w, err)
		return
	}
	token, expires, err := opts.Tokens.Issue(res.ProfileID, res.Email)
	if err != nil {
		internalError(w, err)
		return
	}
	slog.Info("auth_event", "event", "token_issued", "email", res.Email)
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expires.UTC().Format("2006-01-02T15:04:05Z"), Level: int(res.Level)})
}
