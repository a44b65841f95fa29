package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"outreach/internal/domain/permission"
	"outreach/internal/domain/profile"
)

// ProfileLookup finds profiles by id or email.
type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (profile.Profile, error)
	GetByEmail(ctx context.Context, email string) (profile.Profile, error)
}

// SetPermissionInput carries input for the set-permission orchestrator.
type SetPermissionInput struct {
	ActorID       string
	ActorLevel    permission.Level
	TargetProfile string
	Level         permission.Level
}

// SetPermissionDeps holds dependencies for SetPermission.
type SetPermissionDeps struct {
	Profiles    ProfileLookup
	Permissions GrantStore
	Now         func() time.Time
}

// ExecuteSetPermission changes a profile's permission level.
// PRE: actor is a super admin
// POST: target's grant row holds the new level; the change applies on the target's next request
// INVARIANT: a super admin cannot change their own level
func ExecuteSetPermission(ctx context.Context, input SetPermissionInput, deps SetPermissionDeps) error {
	if !input.ActorLevel.CanManageUsers() {
		return ErrForbidden
	}
	if !input.Level.Valid() {
		return permission.ErrInvalidLevel
	}
	if input.ActorID == input.TargetProfile {
		return permission.ErrDemoteSelf
	}
	target, err := deps.Profiles.GetByID(ctx, input.TargetProfile)
	if err != nil {
		return err
	}
	if err := saveLevel(ctx, target, input.Level, input.ActorID, deps); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "permission_changed", "target", target.Email, "level", int(input.Level), "actor", input.ActorID)
	return nil
}

// ExecuteGrantByEmail sets a level from the command line, bypassing actor checks.
// PRE: caller has shell access to the server
// POST: the profile with email has the given level
func ExecuteGrantByEmail(ctx context.Context, email string, level permission.Level, deps SetPermissionDeps) error {
	if !level.Valid() {
		return permission.ErrInvalidLevel
	}
	target, err := deps.Profiles.GetByEmail(ctx, profile.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("find %s: %w", email, err)
	}
	if err := saveLevel(ctx, target, level, "cli", deps); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "permission_granted", "target", target.Email, "level", int(level), "actor", "cli")
	return nil
}

func saveLevel(ctx context.Context, target profile.Profile, level permission.Level, actor string, deps SetPermissionDeps) error {
	grant := permission.Grant{
		ProfileID: target.ID,
		Level:     level,
		UpdatedAt: clock(deps.Now),
		UpdatedBy: actor,
	}
	if err := deps.Permissions.Save(ctx, grant); err != nil {
		return fmt.Errorf("save permission: %w", err)
	}
	return nil
}
