package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/a4tg/SDS-crm-bot/internal/config"
	"github.com/a4tg/SDS-crm-bot/internal/domain"
	"github.com/a4tg/SDS-crm-bot/pkg/logger"
)

var knownRoles = []domain.Role{
	domain.RoleProjectHead,
	domain.RoleTeamLeader,
	domain.RoleRegionManager,
	domain.RoleJuniorManager,
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage staff profiles",
	}
	cmd.AddCommand(newProfileSetCmd())
	return cmd
}

func newProfileSetCmd() *cobra.Command {
	var (
		id   int64
		name string
		role string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update a staff profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := buildProfile(id, name, role)
			if err != nil {
				return err
			}
			cfg := config.Read()
			if err := cfg.ValidateStore(); err != nil {
				return err
			}
			if cfg.Store.Backend == config.BackendMemory {
				return fmt.Errorf("profile set needs a persistent STORE_BACKEND, got %q", cfg.Store.Backend)
			}
			log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

			st, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer st.close()
			if err := st.writer.Upsert(cmd.Context(), p); err != nil {
				return fmt.Errorf("save profile: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "profile %d saved: %s (%s)\n", p.TelegramID, p.FullName, p.Role)
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Telegram user id")
	cmd.Flags().StringVar(&name, "name", "", "full name used for assignee lookup")
	cmd.Flags().StringVar(&role, "role", "", "project_head | team_leader | region_manager | junior_manager")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func buildProfile(id int64, name, role string) (domain.Profile, error) {
	if id == 0 {
		return domain.Profile{}, fmt.Errorf("%w: --id must be set", domain.ErrInvalidInput)
	}
	for _, r := range knownRoles {
		if string(r) == role {
			return domain.Profile{TelegramID: id, FullName: name, Role: r}, nil
		}
	}
	return domain.Profile{}, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
}
