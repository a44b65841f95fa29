package projections

import (
	"context"

	profilestore "outreach/internal/adapters/storage/profile"
	"outreach/internal/application/listutil"
	"outreach/internal/domain/permission"
	"outreach/internal/domain/profile"
)

// GetUsersQuery carries input for the user admin projection.
type GetUsersQuery struct {
	Search string
	Page   int
	Size   int
}

// GetUsersDeps holds dependencies for user projections.
type GetUsersDeps struct {
	ProfileStore    ProfileStore
	PermissionStore PermissionStore
}

// UserRow is a profile with its effective permission level.
type UserRow struct {
	Profile profile.Profile
	Level   permission.Level
}

// GetUsersResult is one page of users.
type GetUsersResult struct {
	Users    []UserRow
	PageInfo listutil.PageInfo
}

// QueryGetUsers lists profiles with their levels, ordered by email.
// POST: profiles without a grant are reported as Regular
func QueryGetUsers(ctx context.Context, query GetUsersQuery, deps GetUsersDeps) (GetUsersResult, error) {
	filter := profilestore.ListFilter{Search: query.Search}
	total, err := deps.ProfileStore.Count(ctx, filter)
	if err != nil {
		return GetUsersResult{}, err
	}
	pageInfo := listutil.NewPageInfo(query.Page, query.Size, total)
	filter.Limit = pageInfo.Size
	filter.Offset = pageInfo.Offset()

	profiles, err := deps.ProfileStore.List(ctx, filter)
	if err != nil {
		return GetUsersResult{}, err
	}
	levels, err := levelsByProfile(ctx, deps.PermissionStore)
	if err != nil {
		return GetUsersResult{}, err
	}

	rows := make([]UserRow, len(profiles))
	for i, p := range profiles {
		level, ok := levels[p.ID]
		if !ok {
			level = permission.Regular
		}
		rows[i] = UserRow{Profile: p, Level: level}
	}
	return GetUsersResult{Users: rows, PageInfo: pageInfo}, nil
}

// QueryAssignees returns the profiles a lead can be assigned to (levels 0 and 1), ordered by email.
func QueryAssignees(ctx context.Context, deps GetUsersDeps) ([]UserRow, error) {
	grants, err := deps.PermissionStore.List(ctx, permission.SuperAdmin, permission.LeadManager)
	if err != nil {
		return nil, err
	}
	if len(grants) == 0 {
		return []UserRow{}, nil
	}
	levels := make(map[string]permission.Level, len(grants))
	ids := make([]string, len(grants))
	for i, g := range grants {
		levels[g.ProfileID] = g.Level
		ids[i] = g.ProfileID
	}
	profiles, err := deps.ProfileStore.List(ctx, profilestore.ListFilter{IDs: ids})
	if err != nil {
		return nil, err
	}
	rows := make([]UserRow, len(profiles))
	for i, p := range profiles {
		rows[i] = UserRow{Profile: p, Level: levels[p.ID]}
	}
	return rows, nil
}

func levelsByProfile(ctx context.Context, store PermissionStore) (map[string]permission.Level, error) {
	grants, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	levels := make(map[string]permission.Level, len(grants))
	for _, g := range grants {
		levels[g.ProfileID] = g.Level
	}
	return levels, nil
}
