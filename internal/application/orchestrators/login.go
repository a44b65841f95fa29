package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"outreach/internal/domain/permission"
	"outreach/internal/domain/profile"
)

// ProfileStoreForLogin defines the store interface needed by Login.
type ProfileStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (profile.Profile, error)
	Save(ctx context.Context, p profile.Profile) error
}

// LevelReader looks up a profile's permission level.
type LevelReader interface {
	Level(ctx context.Context, profileID string) (permission.Level, error)
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	ProfileID string
	Email     string
	Level     permission.Level
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Profiles    ProfileStoreForLogin
	Permissions LevelReader
	Now         func() time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrProfileLocked      = errors.New("too many failed attempts, try again in 15 minutes")
)

// ExecuteLogin validates credentials and returns what a session needs.
// PRE: none
// POST: On success failed attempts are reset; on a wrong password they are recorded
// INVARIANT: a locked profile cannot log in, even with the right password
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	email := profile.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	now := clock(deps.Now)

	p, err := deps.Profiles.GetByEmail(ctx, email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}

	if p.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "email", email, "reason", "locked")
		return LoginResult{}, ErrProfileLocked
	}

	if err := p.CheckPassword(input.Password); err != nil {
		p.RecordFailedLogin(now)
		if err := deps.Profiles.Save(ctx, p); err != nil {
			slog.Error("auth_event", "event", "record_failed_login", "email", email, "error", err)
		}
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "wrong_password", "failed_logins", p.FailedLogins)
		if p.IsLocked(now) {
			return LoginResult{}, ErrProfileLocked
		}
		return LoginResult{}, ErrInvalidCredentials
	}

	if p.FailedLogins > 0 || !p.LockedUntil.IsZero() {
		p.ResetFailedLogins()
		if err := deps.Profiles.Save(ctx, p); err != nil {
			return LoginResult{}, err
		}
	}

	level, err := deps.Permissions.Level(ctx, p.ID)
	if err != nil {
		return LoginResult{}, err
	}

	slog.Info("auth_event", "event", "login_success", "email", email, "level", int(level))
	return LoginResult{ProfileID: p.ID, Email: p.Email, Level: level}, nil
}
