package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"outreach/internal/application/orchestrators"
	"outreach/internal/domain/permission"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.close()
		},
	}
}

func grantCmd() *cobra.Command {
	var email, level string
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Set a profile's permission level (0 super admin, 1 lead manager, 2 regular)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := permission.Parse(level)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			err = orchestrators.ExecuteGrantByEmail(cmd.Context(), email, l, orchestrators.SetPermissionDeps{
				Profiles:    a.stores.ProfileStore,
				Permissions: a.stores.PermissionStore,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", email, l)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "profile email")
	cmd.Flags().StringVar(&level, "level", "", "permission level: 0, 1 or 2")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("level")
	return cmd
}

func seedCmd() *cobra.Command {
	var in orchestrators.SyntheticSeedInput
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill a development database with fake events, registrations and leads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			if a.cfg.IsProduction() {
				return fmt.Errorf("refusing to seed synthetic data in production")
			}
			res, err := orchestrators.ExecuteSyntheticSeed(cmd.Context(), in, orchestrators.SyntheticSeedDeps{
				Events:    a.stores.EventStore,
				Attendees: a.stores.AttendeeStore,
				Leads:     a.stores.LeadStore,
				Grants:    a.stores.PermissionStore,
			})
			if err != nil {
				return err
			}
			slog.Info("synthetic_seed", "events", res.Events, "attendees", res.Attendees, "leads", res.Leads)
			return nil
		},
	}
	cmd.Flags().IntVar(&in.Events, "events", 12, "events to create")
	cmd.Flags().IntVar(&in.Leads, "leads", 60, "leads to create")
	cmd.Flags().Uint64Var(&in.Seed, "seed", 0, "random seed; 0 picks one from the clock")
	return cmd
}
