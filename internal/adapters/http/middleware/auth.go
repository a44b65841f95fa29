package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"outreach/internal/domain/permission"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

// DefaultSessionTTL is how long a login lasts.
const DefaultSessionTTL = 24 * time.Hour

// Session represents an authenticated caller.
// Level is resolved on every request and is never persisted with the session.
type Session struct {
	ProfileID string           `json:"profile_id"`
	Email     string           `json:"email"`
	CreatedAt time.Time        `json:"created_at"`
	Level     permission.Level `json:"-"`
	ViaToken  bool             `json:"-"`
}

// SessionStore persists sessions by opaque token.
type SessionStore interface {
	Create(ctx context.Context, profileID, email string) (string, error)
	Get(ctx context.Context, token string) (Session, bool)
	Delete(ctx context.Context, token string)
}

// LevelReader resolves a profile's current permission level.
type LevelReader interface {
	Level(ctx context.Context, profileID string) (permission.Level, error)
}

// MemorySessionStore is an in-memory session store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates an in-memory session store. A non-positive ttl uses DefaultSessionTTL.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessionStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create stores a new session and returns the token.
// PRE: profileID and email are non-empty
// POST: Session is stored, token is returned
func (ss *MemorySessionStore) Create(_ context.Context, profileID, email string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = Session{ProfileID: profileID, Email: email, CreatedAt: ss.now()}
	return token, nil
}

// Get retrieves a session by token.
// POST: Returns the session if present and not expired; expired sessions are removed
func (ss *MemorySessionStore) Get(_ context.Context, token string) (Session, bool) {
	ss.mu.RLock()
	session, ok := ss.sessions[token]
	ss.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if ss.now().Sub(session.CreatedAt) > ss.ttl {
		ss.mu.Lock()
		delete(ss.sessions, token)
		ss.mu.Unlock()
		return Session{}, false
	}
	return session, true
}

// Delete removes a session by token.
func (ss *MemorySessionStore) Delete(_ context.Context, token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

// SessionCookieName is the browser session cookie.
const SessionCookieName = "outreach_session"

// SecureCookies marks session cookies Secure. Set in production.
var SecureCookies bool

// Auth returns middleware that resolves the caller from the session cookie or a
// bearer token and stores the Session, with its current level, in the context.
// It does NOT block unauthenticated requests; use RequireAuth or RequireLevel for that.
func Auth(sessions SessionStore, tokens *TokenIssuer, levels LevelReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := resolveSession(r, sessions, tokens)
			if ok {
				level, err := levels.Level(r.Context(), session.ProfileID)
				if err != nil {
					slog.Error("auth_event", "event", "level_lookup_failed", "profile_id", session.ProfileID, "error", err)
					level = permission.Regular
				}
				session.Level = level
				r = r.WithContext(ContextWithSession(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveSession(r *http.Request, sessions SessionStore, tokens *TokenIssuer) (Session, bool) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if session, ok := sessions.Get(r.Context(), cookie.Value); ok {
			return session, true
		}
	}
	if tokens == nil {
		return Session{}, false
	}
	raw, ok := bearerToken(r)
	if !ok {
		return Session{}, false
	}
	claims, err := tokens.Parse(raw)
	if err != nil {
		slog.Info("auth_event", "event", "token_rejected", "reason", err.Error())
		return Session{}, false
	}
	session := Session{ProfileID: claims.Subject, Email: claims.Email, ViaToken: true}
	if claims.IssuedAt != nil {
		session.CreatedAt = claims.IssuedAt.Time
	}
	return session, true
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// wantsJSON reports whether the caller is an API client rather than a browser.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		r.Header.Get("Authorization") != ""
}

// RequireAuth returns middleware that blocks unauthenticated requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			unauthenticated(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireLevel returns middleware that blocks callers whose level is numerically above max.
// Lower levels carry more access, so RequireLevel(permission.LeadManager) admits 0 and 1.
func RequireLevel(max permission.Level) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSessionFromContext(r.Context())
			if !ok {
				unauthenticated(w, r)
				return
			}
			if session.Level > max {
				slog.Info("auth_event", "event", "forbidden", "profile_id", session.ProfileID, "level", int(session.Level), "path", r.URL.Path)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthenticated(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(Session)
	return session, ok
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionToken returns the raw session cookie value, if any.
func SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
