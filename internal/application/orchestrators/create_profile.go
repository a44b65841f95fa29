package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	profilestore "outreach/internal/adapters/storage/profile"
	"outreach/internal/domain/permission"
	"outreach/internal/domain/profile"
)

// ProfileStoreForCreate defines the store interface needed to create profiles.
type ProfileStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (profile.Profile, error)
	Save(ctx context.Context, p profile.Profile) error
}

// GrantStore persists permission grants.
type GrantStore interface {
	Level(ctx context.Context, profileID string) (permission.Level, error)
	Save(ctx context.Context, grant permission.Grant) error
}

// CreateProfileInput carries input for the create-profile orchestrator.
type CreateProfileInput struct {
	Email     string `validate:"required,email,max=254"`
	FullName  string `validate:"max=120"`
	Password  string `validate:"required,min=12"`
	Level     permission.Level
	CreatedBy string // empty for self sign-up and seeding
}

// CreateProfileDeps holds dependencies for CreateProfile.
type CreateProfileDeps struct {
	Profiles    ProfileStoreForCreate
	Permissions GrantStore
	Now         func() time.Time
}

// ErrEmailTaken is returned when a profile already uses the email.
var ErrEmailTaken = errors.New("a profile with this email already exists")

// ExecuteCreateProfile creates a profile and its permission grant.
// PRE: input.Level is valid
// POST: Profile persisted with a bcrypt hash; a grant row exists unless Level is Regular
// INVARIANT: email is unique across profiles
func ExecuteCreateProfile(ctx context.Context, input CreateProfileInput, deps CreateProfileDeps) (profile.Profile, error) {
	if err := checkInput(input); err != nil {
		return profile.Profile{}, err
	}
	if !input.Level.Valid() {
		return profile.Profile{}, permission.ErrInvalidLevel
	}
	now := clock(deps.Now)

	email := profile.NormalizeEmail(input.Email)
	if _, err := deps.Profiles.GetByEmail(ctx, email); err == nil {
		return profile.Profile{}, ErrEmailTaken
	}

	p := profile.Profile{
		ID:        uuid.New().String(),
		Email:     email,
		FullName:  input.FullName,
		CreatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return profile.Profile{}, err
	}
	if err := p.SetPassword(input.Password); err != nil {
		return profile.Profile{}, err
	}
	if err := deps.Profiles.Save(ctx, p); err != nil {
		if errors.Is(err, profilestore.ErrEmailAlreadyExists) {
			return profile.Profile{}, ErrEmailTaken
		}
		return profile.Profile{}, fmt.Errorf("create profile: %w", err)
	}

	if input.Level != permission.Regular {
		grant := permission.Grant{ProfileID: p.ID, Level: input.Level, UpdatedAt: now, UpdatedBy: input.CreatedBy}
		if err := deps.Permissions.Save(ctx, grant); err != nil {
			return profile.Profile{}, fmt.Errorf("grant level: %w", err)
		}
	}

	slog.Info("auth_event", "event", "profile_created", "email", email, "level", int(input.Level), "created_by", input.CreatedBy)
	return p, nil
}

// ExecuteSignup creates a Regular profile for self sign-up.
// POST: the new profile has no admin access until a super admin grants it
func ExecuteSignup(ctx context.Context, email, fullName, password string, deps CreateProfileDeps) (profile.Profile, error) {
	return ExecuteCreateProfile(ctx, CreateProfileInput{
		Email:    email,
		FullName: fullName,
		Password: password,
		Level:    permission.Regular,
	}, deps)
}

// ProfileCounter reports how many profiles exist.
type ProfileCounter interface {
	Count(ctx context.Context, filter profilestore.ListFilter) (int, error)
}

// SeedSuperAdminDeps holds dependencies for SeedSuperAdmin.
type SeedSuperAdminDeps struct {
	CreateProfileDeps
	Counter ProfileCounter
}

// ExecuteSeedSuperAdmin creates the first super admin when no profiles exist.
// PRE: none
// POST: Returns true when a profile was created
// INVARIANT: never creates a profile when any profile already exists
func ExecuteSeedSuperAdmin(ctx context.Context, email, password string, deps SeedSuperAdminDeps) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	n, err := deps.Counter.Count(ctx, profilestore.ListFilter{})
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := ExecuteCreateProfile(ctx, CreateProfileInput{
		Email:    email,
		FullName: "Administrator",
		Password: password,
		Level:    permission.SuperAdmin,
	}, deps.CreateProfileDeps); err != nil {
		return false, fmt.Errorf("seed super admin: %w", err)
	}
	slog.Info("seed_super_admin", "email", profile.NormalizeEmail(email))
	return true, nil
}
