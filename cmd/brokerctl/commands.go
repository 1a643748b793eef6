package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brokerdesk/internal/config"
	"brokerdesk/internal/infra"
	"brokerdesk/internal/model"
	"brokerdesk/internal/repository"
	"brokerdesk/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "brokerctl",
		Short:         "Brokerdesk operator tools",
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if envFile == "" {
				// a missing .env is fine; the environment may already be set
				_ = godotenv.Load()
				return nil
			}
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from this file instead of .env")
	root.AddCommand(newMigrateCmd(), newSeedAdminCmd(), newHashPasswordCmd())
	return root
}

func openDB() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			if err := infra.RunMigrations(db); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}

func newSeedAdminCmd() *cobra.Command {
	var email, name, password string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the first active super_admin, or reset its password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			return seedAdmin(cmd.Context(), repository.NewUserRepository(db), email, name, password)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// seedAdmin is idempotent: an existing account with the email is promoted,
// activated and given the new password.
func seedAdmin(ctx context.Context, users repository.UserRepository, email, name, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}

	existing, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		existing.PasswordHash = hash
		existing.Role = model.RoleSuperAdmin
		existing.Status = model.UserActive
		existing.ManagerID = nil
		if err := users.Update(ctx, existing); err != nil {
			return err
		}
		log.Info().Str("email", email).Msg("existing user promoted to super_admin")
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	u := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         model.RoleSuperAdmin,
		Status:       model.UserActive,
	}
	if err := users.Create(ctx, u); err != nil {
		return err
	}
	log.Info().Str("email", email).Str("id", u.ID.String()).Msg("super_admin created")
	return nil
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash stored for a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := service.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
