package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-svc/config"
	"storefront-svc/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

func createAdminCmd() *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:     "create-admin",
		Short:   "Create an admin user for the dashboard",
		Example: `  storefront create-admin --email owner@example.com --name Owner --password 'change-me-now'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.ToLower(strings.TrimSpace(email))
			name = strings.TrimSpace(name)
			if email == "" || name == "" {
				return errors.New("--email and --name are required")
			}
			if len(password) < minPasswordLength {
				return fmt.Errorf("--password must be at least %d characters", minPasswordLength)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			st, err := openStore(cmd.Context(), cfg, false, logger)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}

			user := &models.User{
				ID:           uuid.NewString(),
				Name:         name,
				Email:        email,
				PasswordHash: string(hash),
				Role:         models.RoleAdmin,
				CreatedAt:    time.Now().UTC(),
			}
			if err := st.CreateUser(cmd.Context(), user); err != nil {
				return err
			}

			logger.Info("Admin user created", zap.String("id", user.ID), zap.String("email", user.Email))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	return cmd
}
